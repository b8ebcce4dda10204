package application_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/application"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectedWhileGateClosed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	gate := domain.DefaultRegistrationControl()
	gate.Enabled = false
	gate.ClosedTitle = "Registration paused"
	gate.ContactEmail = "Help@Contest.test"
	_, err := f.service.UpdateRegistrationControl(ctx, uuid.New(), gate)
	require.NoError(t, err)

	_, err = f.service.Register(ctx, application.RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Profession: "student", Gender: "female", ContestType: "photography",
	})
	require.ErrorIs(t, err, domain.ErrRegistrationClosed)
	var gateErr *domain.GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, "Registration paused", gateErr.Title)
	assert.Equal(t, "help@contest.test", gateErr.Contact)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	valid := func() application.RegisterRequest {
		return application.RegisterRequest{Name: "Ravi", Email: "ravi@example.com", Profession: "engineer", Gender: "male", ContestType: "essay"}
	}
	tests := []struct {
		name   string
		mutate func(*application.RegisterRequest)
		want   error
	}{
		{name: "missing name", mutate: func(r *application.RegisterRequest) { r.Name = "" }, want: domain.ErrInvalidInput},
		{name: "bad email", mutate: func(r *application.RegisterRequest) { r.Email = "not-an-email" }, want: domain.ErrInvalidInput},
		{name: "unknown gender", mutate: func(r *application.RegisterRequest) { r.Gender = "robot" }, want: domain.ErrInvalidInput},
		{name: "age out of range", mutate: func(r *application.RegisterRequest) { r.Age = ptr(0) }, want: domain.ErrInvalidInput},
		{name: "other profession without text", mutate: func(r *application.RegisterRequest) { r.Profession = "other" }, want: domain.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			req := valid()
			tc.mutate(&req)
			_, err := f.service.Register(context.Background(), req)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.register(t, "dup@example.com")
	_, err := f.service.Register(context.Background(), application.RegisterRequest{
		Name: "Second", Email: "DUP@example.com", Profession: "student", Gender: "other", ContestType: "essay",
	})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegisterValidatesExtraFields(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.CreateFormField(ctx, application.FormFieldInput{
		Name: "college", Label: "College", Kind: domain.FieldSelect, Required: true,
		Choice: &domain.ChoiceRules{Options: []string{"IIT", "NIT"}},
	})
	require.NoError(t, err)
	retired, err := f.service.CreateFormField(ctx, application.FormFieldInput{
		Name: "legacy_code", Label: "Legacy", Kind: domain.FieldText, Required: true, Active: ptr(false),
	})
	require.NoError(t, err)
	assert.False(t, retired.Active)

	req := application.RegisterRequest{Name: "Meera", Email: "meera@example.com", Profession: "student", Gender: "female", ContestType: "quiz"}
	_, err = f.service.Register(ctx, req)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	req.ExtraFields = map[string]any{"college": "MIT"}
	_, err = f.service.Register(ctx, req)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	req.ExtraFields = map[string]any{"college": "NIT", "unknown": "dropped"}
	p, err := f.service.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"college": "NIT"}, p.ExtraFields)
}

func TestParticipantUpdateRecordsChangedFieldsOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)
	adminID := uuid.New()

	updated, err := f.service.UpdateParticipant(ctx, adminID, p.ID, application.ParticipantPatch{
		ProfilePatch:  application.ProfilePatch{Name: ptr("Renamed Person"), Gender: ptr(p.Gender)},
		UploadEnabled: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Person", updated.Name)
	assert.False(t, updated.UploadEnabled)

	mutations, err := f.service.ListMutations(ctx, p.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, mutations, 1)
	m := mutations[0]
	assert.Equal(t, adminID, m.ActorID)
	assert.Equal(t, domain.SubjectAdmin, m.ActorKind)
	assert.Equal(t, []string{"name", "upload_enabled"}, m.ChangedFields)
	want := map[string]any{"name": "Renamed Person", "upload_enabled": false}
	if diff := cmp.Diff(want, m.After); diff != "" {
		t.Fatalf("after snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, p.Name, m.Before["name"])
}

func TestNoOpUpdateWritesNoAudit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)

	_, err := f.service.UpdateParticipant(ctx, uuid.New(), p.ID, application.ParticipantPatch{
		ProfilePatch: application.ProfilePatch{Name: ptr("  " + p.Name + " ")},
	})
	require.NoError(t, err)

	mutations, err := f.service.ListMutations(ctx, p.ID, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, mutations)
}

func TestAuditFailureDoesNotFailUpdate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)
	f.store.FailMutations = true

	updated, err := f.service.UpdateParticipant(ctx, uuid.New(), p.ID, application.ParticipantPatch{ContestType: ptr("film")})
	require.NoError(t, err)
	assert.Equal(t, "film", updated.ContestType)

	got, err := f.service.GetParticipant(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "film", got.ContestType)
}

func TestSelfEditIsAuditedAsParticipant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)
	principal := f.login(t, p.Email)

	_, err := f.service.UpdateMyProfile(ctx, principal, application.ProfilePatch{Age: ptr(33)})
	require.NoError(t, err)

	mutations, err := f.service.ListMutations(ctx, p.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, mutations, 1)
	assert.Equal(t, domain.SubjectParticipant, mutations[0].ActorKind)
	assert.Equal(t, p.ID, mutations[0].ActorID)
	assert.Equal(t, 33, mutations[0].After["age"])
}

func TestListParticipantsSearches(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.register(t, "zeta.one@example.com")
	f.register(t, "zeta.two@example.com")
	f.register(t, "other@example.com")

	res, err := f.service.ListParticipants(context.Background(), application.ParticipantListQuery{Search: "zeta", Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, 1, res.Limit)
}

func TestGeneratedParticipantsAlwaysRegister(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for i := 0; i < 300; i++ {
		p := f.randomParticipant(t)
		require.NotEqual(t, uuid.Nil, p.ID)
	}
	admin := f.createAdmin(t, domain.RoleAdmin, domain.Permissions{})
	assert.Contains(t, admin.Email, "@admin.test")
}
