package application_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/application"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports/portstest"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	service   *application.Service
	store     *portstest.Store
	mailer    *portstest.Mailer
	lockouts  *portstest.Lockouts
	links     *portstest.MagicLinks
	cache     *portstest.SettingsCache
	workbook  *portstest.Workbook
	signer    *portstest.Signer
	clockMu   sync.Mutex
	clockTime time.Time
}

func defaultTestConfig() application.Config {
	return application.Config{
		TokenTTL:             time.Hour,
		SessionTTL:           24 * time.Hour,
		SessionAbsoluteTTL:   7 * 24 * time.Hour,
		FailedLoginThreshold: 5,
		LockoutDuration:      15 * time.Minute,
		OTPTTL:               10 * time.Minute,
		OTPIssueLimit:        5,
		OTPIssueWindow:       10 * time.Minute,
		OTPVerifyLimit:       5,
		OTPVerifyWindow:      10 * time.Minute,
		MagicLinkTTL:         10 * time.Minute,
		ContestName:          "Test Contest",
		PublicBaseURL:        "https://api.contest.test",
		DefaultRedirectURI:   "https://contest.test/dashboard",
		TransitionPolicy:     domain.TransitionPermissive,
		SettingsCacheTTL:     30 * time.Second,
		DefaultUploadEnabled: true,
		AnalyticsDays:        7,
	}
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithConfig(t, defaultTestConfig())
}

func newFixtureWithConfig(t *testing.T, cfg application.Config) *fixture {
	t.Helper()
	f := &fixture{
		store:     portstest.NewStore(),
		mailer:    &portstest.Mailer{},
		lockouts:  portstest.NewLockouts(),
		links:     portstest.NewMagicLinks(),
		cache:     portstest.NewSettingsCache(),
		workbook:  &portstest.Workbook{},
		signer:    portstest.NewSigner(),
		clockTime: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	f.service = application.NewService(application.Dependencies{
		Config:        cfg,
		Participants:  f.store.Participants(),
		Mutations:     f.store.Mutations(),
		Codes:         f.store.Codes(),
		Submissions:   f.store.Submissions(),
		Admins:        f.store.Admins(),
		Sessions:      f.store.Sessions(),
		Settings:      f.store.Settings(),
		FormFields:    f.store.FormFields(),
		CMS:           f.store.CMS(),
		Announcements: f.store.Announcements(),
		Analytics:     f.store.Analytics(),
		Outbox:        f.store.Outbox(),
		Lockouts:      f.lockouts,
		Revocations:   portstest.NewRevocations(),
		MagicLinks:    f.links,
		SettingsCache: f.cache,
		Hasher:        portstest.Hasher{},
		TokenSigner:   f.signer,
		Mailer:        f.mailer,
		Workbook:      f.workbook,
		Now:           f.now,
	})
	return f
}

func (f *fixture) now() time.Time {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	return f.clockTime
}

func (f *fixture) advance(d time.Duration) {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	f.clockTime = f.clockTime.Add(d)
}

func (f *fixture) register(t *testing.T, email string) application.ParticipantView {
	t.Helper()
	age := gofakeit.IntRange(18, 60)
	p, err := f.service.Register(context.Background(), application.RegisterRequest{
		Name:        gofakeit.Name(),
		Email:       email,
		Profession:  "student",
		Gender:      "female",
		Age:         &age,
		ContestType: "photography",
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) randomParticipant(t *testing.T) application.ParticipantView {
	t.Helper()
	return f.register(t, fakeEmail("example.com"))
}

// fakeEmail keeps the local part to letters and digits; gofakeit usernames may contain spaces.
func fakeEmail(host string) string {
	return gofakeit.Regex("[a-z]{8}[0-9]{3}") + "@" + host
}

var otpInMail = regexp.MustCompile(`\b(\d{6})\b`)

func (f *fixture) mailedOTP(t *testing.T, email string) string {
	t.Helper()
	msg, ok := f.mailer.Last(email)
	require.True(t, ok, "no mail sent to %s", email)
	m := otpInMail.FindStringSubmatch(msg.Body)
	require.Len(t, m, 2, "no code in mail body")
	return m[1]
}

var tokenInMail = regexp.MustCompile(`token=([0-9a-f]+)`)

func (f *fixture) mailedMagicToken(t *testing.T, email string) string {
	t.Helper()
	msg, ok := f.mailer.Last(email)
	require.True(t, ok, "no mail sent to %s", email)
	m := tokenInMail.FindStringSubmatch(msg.Body)
	require.Len(t, m, 2, "no token in mail body")
	return m[1]
}

func (f *fixture) login(t *testing.T, email string) application.Principal {
	t.Helper()
	ctx := context.Background()
	_, err := f.service.GenerateOTP(ctx, application.GenerateOTPRequest{Email: email})
	require.NoError(t, err)
	res, err := f.service.VerifyOTP(ctx, application.VerifyOTPRequest{Email: email, OTP: f.mailedOTP(t, email)})
	require.NoError(t, err)
	principal, err := f.service.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	return principal
}

func (f *fixture) createAdmin(t *testing.T, role domain.AdminRole, perms domain.Permissions) application.AdminView {
	t.Helper()
	a, err := f.service.CreateAdmin(context.Background(), uuid.Nil, application.CreateAdminRequest{
		Name:        gofakeit.Name(),
		Email:       fakeEmail("admin.test"),
		Government:  "state",
		Role:        string(role),
		Password:    "Str0ngSecretValue",
		Permissions: perms,
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) adminPrincipal(t *testing.T, email, password string) application.Principal {
	t.Helper()
	ctx := context.Background()
	res, err := f.service.AdminLogin(ctx, application.AdminLoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	principal, err := f.service.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	return principal
}
