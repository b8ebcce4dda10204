package application_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nischalstumbeti/contestzen/internal/application"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRowCountsMatchUsers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.randomParticipant(t)
	}
	f.createAdmin(t, domain.RoleSuperadmin, domain.Permissions{})
	f.createAdmin(t, domain.RoleAdmin, domain.Permissions{ExportData: true})

	var buf bytes.Buffer
	require.NoError(t, f.service.ExportUsers(ctx, &buf))
	assert.Equal(t, "All Users,Participants,Administrators", buf.String())

	sheets := f.workbook.Sheets
	require.Len(t, sheets, 3)
	assert.Equal(t, application.SheetAllUsers, sheets[0].Name)
	assert.Len(t, sheets[0].Rows, 5)
	assert.Len(t, sheets[1].Rows, 3)
	assert.Len(t, sheets[2].Rows, 2)

	for _, sheet := range sheets {
		for _, h := range sheet.Header {
			assert.NotContains(t, strings.ToLower(h), "password")
		}
		for _, row := range sheet.Rows {
			require.Len(t, row, len(sheet.Header), sheet.Name)
			for _, cell := range row {
				assert.NotContains(t, cell, "Str0ngSecretValue")
			}
		}
	}
}

func TestExportSuperadminListsAllPermissions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.createAdmin(t, domain.RoleSuperadmin, domain.Permissions{})

	sheets, err := f.service.UserExportSheets(context.Background())
	require.NoError(t, err)
	require.Len(t, sheets[2].Rows, 1)
	perms := sheets[2].Rows[0][8]
	for _, p := range []string{"manage_participants", "manage_submissions", "export_data"} {
		assert.Contains(t, perms, p)
	}
}

func TestExportFileNameIsTimestamped(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	assert.Equal(t, "contestzen-users-20260314-093000.xlsx", f.service.ExportFileName())
}

func TestAnalyticsSeriesIsDense(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.randomParticipant(t)
	f.advance(2 * 24 * time.Hour)
	f.randomParticipant(t)
	f.randomParticipant(t)

	snap, err := f.service.Analytics(ctx, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 3, snap.TotalParticipants)
	require.Len(t, snap.RegistrationsPerDay, 5)

	counts := make([]int64, 0, 5)
	for _, d := range snap.RegistrationsPerDay {
		counts = append(counts, d.Count)
	}
	assert.Equal(t, []int64{0, 0, 1, 0, 2}, counts)
	assert.Equal(t, "2026-03-16", snap.RegistrationsPerDay[4].Day.Format(time.DateOnly))

	fallback, err := f.service.Analytics(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, fallback.RegistrationsPerDay, 7)
}
