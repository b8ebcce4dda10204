//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/adapters/postgres"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRepositories(t *testing.T) postgres.Repositories {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("contestzen"),
		tcpostgres.WithUsername("contestzen"),
		tcpostgres.WithPassword("contestzen"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := postgres.Connect(ctx, dsn, 8)
	require.NoError(t, err)
	require.NoError(t, postgres.RunMigrations(ctx, db))
	// the second run finds every file in the ledger
	require.NoError(t, postgres.RunMigrations(ctx, db))
	return postgres.NewRepositories(db)
}

func newParticipant(email string, at time.Time) domain.Participant {
	return domain.Participant{
		ID:            uuid.New(),
		Name:          "Asha Rao",
		Email:         email,
		Profession:    "student",
		Gender:        domain.GenderFemale,
		ContestType:   "photography",
		LoginEnabled:  true,
		UploadEnabled: true,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}

func newEvent(eventType string, at time.Time) ports.OutboxEvent {
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: uuid.NewString(),
		Payload:      []byte(`{"ok":true}`),
		OccurredAt:   at,
	}
}

func TestRepositories(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("participant email is unique", func(t *testing.T) {
		_, err := repos.Participants.CreateWithOutboxTx(ctx, newParticipant("dup@example.com", now), newEvent("participant.registered", now))
		require.NoError(t, err)
		_, err = repos.Participants.CreateWithOutboxTx(ctx, newParticipant("dup@example.com", now), newEvent("participant.registered", now))
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("otp codes are single use", func(t *testing.T) {
		email := "otp@example.com"
		_, err := repos.Codes.ReplaceForEmail(ctx, email, "hash-1", now, now.Add(10*time.Minute))
		require.NoError(t, err)
		_, err = repos.Codes.ReplaceForEmail(ctx, email, "hash-2", now, now.Add(10*time.Minute))
		require.NoError(t, err)

		_, err = repos.Codes.ConsumeLatest(ctx, email, "hash-1", now)
		assert.ErrorIs(t, err, domain.ErrInvalidOTP)

		code, err := repos.Codes.ConsumeLatest(ctx, email, "hash-2", now)
		require.NoError(t, err)
		assert.NotNil(t, code.UsedAt)

		_, err = repos.Codes.ConsumeLatest(ctx, email, "hash-2", now)
		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	})

	t.Run("one submission per participant and review writes event", func(t *testing.T) {
		p, err := repos.Participants.CreateWithOutboxTx(ctx, newParticipant("sub@example.com", now), newEvent("participant.registered", now))
		require.NoError(t, err)

		sub := domain.Submission{
			ID:            uuid.New(),
			ParticipantID: p.ID,
			Type:          domain.SubmissionDriveLink,
			Payload:       "https://drive.google.com/file/d/abc/view",
			Status:        domain.StatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		_, err = repos.Submissions.CreateWithOutboxTx(ctx, sub, newEvent("submission.created", now))
		require.NoError(t, err)

		sub.ID = uuid.New()
		_, err = repos.Submissions.CreateWithOutboxTx(ctx, sub, newEvent("submission.created", now))
		assert.ErrorIs(t, err, domain.ErrAlreadySubmitted)

		stored, err := repos.Submissions.GetByParticipant(ctx, p.ID)
		require.NoError(t, err)

		reviewed, err := repos.Submissions.Review(ctx, stored.ID, func(current *domain.Submission) (*ports.OutboxEvent, error) {
			current.Status = domain.StatusApproved
			current.AdminNotes = "great shot"
			ev := newEvent("submission.status_changed", now)
			return &ev, nil
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, reviewed.Status)

		reloaded, err := repos.Submissions.GetByID(ctx, stored.ID)
		require.NoError(t, err)
		assert.Equal(t, "great shot", reloaded.AdminNotes)
	})

	t.Run("last superadmin cannot be deleted", func(t *testing.T) {
		admin := domain.Admin{
			ID:           uuid.New(),
			Name:         "Root",
			Email:        "root@example.com",
			Government:   domain.GovernmentState,
			Role:         domain.RoleSuperadmin,
			PasswordHash: "x",
			Permissions:  domain.AllPermissions(),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		created, err := repos.Admins.Create(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, domain.AllPermissions(), created.Permissions)

		assert.ErrorIs(t, repos.Admins.DeleteGuarded(ctx, created.ID), domain.ErrLastSuperadmin)
		assert.ErrorIs(t, repos.Admins.DeleteGuarded(ctx, uuid.New()), domain.ErrNotFound)

		demoted := created
		demoted.Role = domain.RoleAdmin
		_, err = repos.Admins.Update(ctx, demoted)
		assert.ErrorIs(t, err, domain.ErrLastSuperadmin)
	})

	t.Run("concurrent superadmin deletes keep one", func(t *testing.T) {
		for _, email := range []string{"second@example.com", "third@example.com"} {
			_, err := repos.Admins.Create(ctx, domain.Admin{
				ID:           uuid.New(),
				Name:         "Super",
				Email:        email,
				Government:   domain.GovernmentCentral,
				Role:         domain.RoleSuperadmin,
				PasswordHash: "x",
				CreatedAt:    now,
				UpdatedAt:    now,
			})
			require.NoError(t, err)
		}
		admins, err := repos.Admins.List(ctx)
		require.NoError(t, err)
		var supers []uuid.UUID
		for _, a := range admins {
			if a.Role == domain.RoleSuperadmin {
				supers = append(supers, a.ID)
			}
		}
		require.GreaterOrEqual(t, len(supers), 3)

		errs := make([]error, len(supers))
		var wg sync.WaitGroup
		for i, id := range supers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = repos.Admins.DeleteGuarded(ctx, id)
			}()
		}
		wg.Wait()

		refused := 0
		for _, err := range errs {
			if err != nil {
				require.ErrorIs(t, err, domain.ErrLastSuperadmin)
				refused++
			}
		}
		assert.Equal(t, 1, refused)

		admins, err = repos.Admins.List(ctx)
		require.NoError(t, err)
		remaining := 0
		for _, a := range admins {
			if a.Role == domain.RoleSuperadmin {
				remaining++
			}
		}
		assert.Equal(t, 1, remaining)
	})

	t.Run("settings upsert", func(t *testing.T) {
		_, err := repos.Settings.Get(ctx, "branding")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, repos.Settings.Put(ctx, "branding", []byte(`{"site_name":"A"}`), nil, now))
		require.NoError(t, repos.Settings.Put(ctx, "branding", []byte(`{"site_name":"B"}`), nil, now))

		raw, err := repos.Settings.Get(ctx, "branding")
		require.NoError(t, err)
		assert.JSONEq(t, `{"site_name":"B"}`, string(raw))
	})

	t.Run("outbox claims are exclusive", func(t *testing.T) {
		first, err := repos.Outbox.ClaimUnpublished(ctx, 100, "worker-a", now.Add(time.Minute))
		require.NoError(t, err)
		require.NotEmpty(t, first)

		second, err := repos.Outbox.ClaimUnpublished(ctx, 100, "worker-b", now.Add(time.Minute))
		require.NoError(t, err)
		assert.Empty(t, second)

		require.NoError(t, repos.Outbox.MarkPublished(ctx, first[0].OutboxID, "worker-a", now))
	})

	t.Run("analytics snapshot", func(t *testing.T) {
		snap, err := repos.Analytics.Snapshot(ctx, now.AddDate(0, 0, -6))
		require.NoError(t, err)
		assert.EqualValues(t, 2, snap.TotalParticipants)
		assert.EqualValues(t, 2, snap.ByGender["female"])
		assert.EqualValues(t, 1, snap.SubmissionsByStatus["approved"])
		assert.EqualValues(t, 1, snap.TotalAdmins)
		require.Len(t, snap.RegistrationsPerDay, 1)
		assert.EqualValues(t, 2, snap.RegistrationsPerDay[0].Count)
	})
}
