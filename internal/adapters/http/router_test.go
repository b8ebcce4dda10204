package http_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/nischalstumbeti/contestzen/internal/adapters/http"
	"github.com/nischalstumbeti/contestzen/internal/application"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports/portstest"
)

const adminPassword = "Str0ngSecretValue"

type envelope struct {
	Status  string          `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

type apiHarness struct {
	t       *testing.T
	service *application.Service
	mailer  *portstest.Mailer
	router  http.Handler
}

func newHarness(t *testing.T, opts httpadapter.Options) *apiHarness {
	t.Helper()
	return newHarnessWithConfig(t, application.Config{
		ContestName:        "Test Contest",
		PublicBaseURL:      "https://api.contest.test",
		DefaultRedirectURI: "https://contest.test/dashboard",
	}, opts)
}

func newHarnessWithConfig(t *testing.T, cfg application.Config, opts httpadapter.Options) *apiHarness {
	t.Helper()
	store := portstest.NewStore()
	mailer := &portstest.Mailer{}
	service := application.NewService(application.Dependencies{
		Config:        cfg,
		Participants:  store.Participants(),
		Mutations:     store.Mutations(),
		Codes:         store.Codes(),
		Submissions:   store.Submissions(),
		Admins:        store.Admins(),
		Sessions:      store.Sessions(),
		Settings:      store.Settings(),
		FormFields:    store.FormFields(),
		CMS:           store.CMS(),
		Announcements: store.Announcements(),
		Analytics:     store.Analytics(),
		Outbox:        store.Outbox(),
		Lockouts:      portstest.NewLockouts(),
		Revocations:   portstest.NewRevocations(),
		MagicLinks:    portstest.NewMagicLinks(),
		SettingsCache: portstest.NewSettingsCache(),
		Hasher:        portstest.Hasher{},
		TokenSigner:   portstest.NewSigner(),
		Mailer:        mailer,
		Workbook:      &portstest.Workbook{},
	})
	if opts.AuthRatePerMinute == 0 {
		opts.AuthRatePerMinute = 6000
		opts.AuthBurst = 1000
	}
	return &apiHarness{
		t:       t,
		service: service,
		mailer:  mailer,
		router:  httpadapter.NewRouter(httpadapter.NewHandler(service), opts),
	}
}

func (h *apiHarness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

var otpInMail = regexp.MustCompile(`\b(\d{6})\b`)

func (h *apiHarness) registerAndLogin(email string) string {
	t := h.t
	t.Helper()
	rec := h.do(http.MethodPost, "/api/register", "", map[string]any{
		"name":         gofakeit.Name(),
		"email":        email,
		"profession":   "student",
		"gender":       "male",
		"age":          gofakeit.IntRange(18, 60),
		"contest_type": "photography",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/generate-otp", "", map[string]string{"email": email})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	msg, ok := h.mailer.Last(email)
	require.True(t, ok)
	code := otpInMail.FindStringSubmatch(msg.Body)
	require.Len(t, code, 2)

	rec = h.do(http.MethodPost, "/api/verify-otp", "", map[string]string{"email": email, "otp": code[1]})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res application.VerifyOTPResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func (h *apiHarness) adminToken(role domain.AdminRole, perms domain.Permissions) string {
	t := h.t
	t.Helper()
	email := gofakeit.Regex("[a-z]{8}[0-9]{3}") + "@admin.test"
	_, err := h.service.CreateAdmin(t.Context(), uuid.Nil, application.CreateAdminRequest{
		Name:        gofakeit.Name(),
		Email:       email,
		Government:  "state",
		Role:        string(role),
		Password:    adminPassword,
		Permissions: perms,
	})
	require.NoError(t, err)

	rec := h.do(http.MethodPost, "/api/admin-login", "", map[string]string{"email": email, "password": adminPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res application.AdminLoginResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	return res.Token
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})

	rec := h.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = h.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "contestzen_http_requests_total")
}

func TestReadinessReportsFailingDependency(t *testing.T) {
	h := newHarness(t, httpadapter.Options{
		Readiness: []httpadapter.ReadinessCheck{{
			Name:  "postgres",
			Check: func(_ context.Context) error { return errors.New("connection refused") },
		}},
	})

	rec := h.do(http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "NOT_READY", env.Code)
	assert.Contains(t, string(env.Details), "postgres")
}

func TestParticipantOTPFlowAndProfile(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})
	token := h.registerAndLogin("ada@example.com")

	rec := h.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me application.ParticipantView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &me))
	assert.Equal(t, "ada@example.com", me.Email)

	rec = h.do(http.MethodPut, "/api/me", token, map[string]string{"profession": "engineer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &me))
	assert.Equal(t, "engineer", me.Profession)

	rec = h.do(http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWrongOTPIsRejected(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})
	h.registerAndLogin("grace@example.com")

	rec := h.do(http.MethodPost, "/api/verify-otp", "", map[string]string{"email": "grace@example.com", "otp": "000000"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "INVALID_OTP", env.Code)
	assert.Equal(t, "Invalid or expired OTP", env.Message)
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})

	rec := h.do(http.MethodGet, "/api/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec).Code)

	rec = h.do(http.MethodGet, "/api/participants", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestParticipantCannotReachAdminRoutes(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})
	token := h.registerAndLogin("linus@example.com")

	for _, path := range []string{"/api/participants", "/api/admins", "/api/analytics", "/api/export-users"} {
		rec := h.do(http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestAdminPermissionGuards(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})
	h.registerAndLogin("margaret@example.com")
	token := h.adminToken(domain.RoleAdmin, domain.Permissions{ManageParticipants: true})

	rec := h.do(http.MethodGet, "/api/participants?search=margaret", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list application.ListResult[application.ParticipantView]
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
	assert.EqualValues(t, 1, list.Total)

	rec = h.do(http.MethodGet, "/api/analytics", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodGet, "/api/admins", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPut, "/api/branding", token, map[string]string{"site_name": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRefreshIssuesTokenForSameSession(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})
	token := h.registerAndLogin("barbara@example.com")

	rec := h.do(http.MethodPost, "/api/refresh", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/refresh", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var res application.TokenRefreshResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	require.NotEmpty(t, res.Token)
	assert.NotEqual(t, token, res.Token)
	assert.Positive(t, res.ExpiresIn)

	rec = h.do(http.MethodGet, "/api/me", res.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/logout", res.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = h.do(http.MethodPost, "/api/refresh", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_REVOKED", decode(t, rec).Code)
}

func TestSubmissionLifecycle(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})
	participant := h.registerAndLogin("alan@example.com")
	admin := h.adminToken(domain.RoleAdmin, domain.Permissions{ManageSubmissions: true, ManageParticipants: true})

	body := map[string]string{
		"file_name":   "entry.pdf",
		"file_data":   "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 entry")),
		"description": "my entry",
	}
	rec := h.do(http.MethodPost, "/api/submissions", participant, body)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	assert.Equal(t, "UPLOAD_DISABLED", decode(t, rec).Code)

	rec = h.do(http.MethodGet, "/api/me", participant, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me application.ParticipantView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &me))
	require.False(t, me.UploadEnabled)

	rec = h.do(http.MethodPut, "/api/participants/"+me.ID.String(), admin, map[string]bool{"upload_enabled": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/submissions", participant, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sub application.SubmissionView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &sub))
	assert.Equal(t, domain.StatusPending, sub.Status)

	rec = h.do(http.MethodPost, "/api/submissions", participant, body)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_SUBMITTED", decode(t, rec).Code)

	rec = h.do(http.MethodPut, "/api/admin/submissions/"+sub.ID.String(), admin, map[string]string{
		"status":      "approved",
		"admin_notes": "great work",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/submissions/me", participant, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine application.SubmissionView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &mine))
	assert.Equal(t, domain.SubmissionStatus("approved"), mine.Status)
	assert.Equal(t, "great work", mine.AdminNotes)
	assert.Empty(t, mine.InternalRemarks)
}

func TestClosedRegistrationReturnsGateCopy(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})
	admin := h.adminToken(domain.RoleAdmin, domain.Permissions{ManageSettings: true})

	rec := h.do(http.MethodPut, "/api/registration-control", admin, map[string]any{
		"enabled":        false,
		"closed_title":   "See you next year",
		"closed_message": "Entries have closed.",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/register", "", map[string]any{
		"name":         "Late Comer",
		"email":        "late@example.com",
		"profession":   "student",
		"gender":       "female",
		"contest_type": "photography",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "REGISTRATION_CLOSED", env.Code)
	assert.Equal(t, "Entries have closed.", env.Message)
	assert.Contains(t, string(env.Details), "See you next year")
}

func TestLastSuperadminCannotBeDeleted(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})
	token := h.adminToken(domain.RoleSuperadmin, domain.Permissions{})

	rec := h.do(http.MethodGet, "/api/admins", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var admins []application.AdminView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &admins))
	require.Len(t, admins, 1)

	rec = h.do(http.MethodDelete, "/api/admins/"+admins[0].ID.String(), token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "LAST_SUPERADMIN", decode(t, rec).Code)
}

func TestExportUsersStreamsWorkbook(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})
	h.registerAndLogin("barbara@example.com")
	token := h.adminToken(domain.RoleAdmin, domain.Permissions{ExportData: true})

	rec := h.do(http.MethodGet, "/api/export-users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestPublicContentHidesDrafts(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})
	token := h.adminToken(domain.RoleAdmin, domain.Permissions{ManageSettings: true, ManageAnnouncements: true})

	published, draft := true, false
	rec := h.do(http.MethodPost, "/api/cms", token, map[string]any{"slug": "rules", "title": "Rules", "body": "Be kind", "published": published})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = h.do(http.MethodPost, "/api/cms", token, map[string]any{"slug": "faq", "title": "FAQ", "body": "Soon", "published": draft})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/cms/rules", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/cms/faq", "", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/admin/cms/faq", token, nil).Code)

	rec = h.do(http.MethodPost, "/api/announcements", token, map[string]any{"title": "Welcome", "body": "Hello", "published": draft})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ann domain.Announcement
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &ann))
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/announcements/"+ann.ID.String(), "", nil).Code)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})

	rec := h.do(http.MethodPost, "/api/generate-otp", "", map[string]string{"email": "a@example.com", "role": "admin"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec).Code)
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	h := newHarness(t, httpadapter.Options{AuthRatePerMinute: 1, AuthBurst: 1})

	first := h.do(http.MethodPost, "/api/generate-otp", "", map[string]string{"email": "nobody@example.com"})
	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)

	second := h.do(http.MethodPost, "/api/generate-otp", "", map[string]string{"email": "nobody@example.com"})
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestMagicLinkCallbackRedirects(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})
	h.registerAndLogin("katherine@example.com")

	rec := h.do(http.MethodPost, "/api/participant-login", "", map[string]string{"email": "katherine@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	msg, ok := h.mailer.Last("katherine@example.com")
	require.True(t, ok)
	m := regexp.MustCompile(`token=([0-9a-f]+)`).FindStringSubmatch(msg.Body)
	require.Len(t, m, 2)

	rec = h.do(http.MethodGet, "/auth/callback?token="+m[1], "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://contest.test/dashboard"))
	assert.Contains(t, rec.Header().Get("Location"), "token=")

	rec = h.do(http.MethodGet, "/auth/callback?token="+m[1], "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://contest.test/dashboard#error=INVALID_LOGIN_LINK", rec.Header().Get("Location"))
}

func TestMagicLinkFailureReplacesDefaultFragment(t *testing.T) {
	h := newHarnessWithConfig(t, application.Config{
		ContestName:        "Test Contest",
		PublicBaseURL:      "https://api.contest.test",
		DefaultRedirectURI: "https://contest.test/dashboard#/home",
	}, httpadapter.Options{})

	rec := h.do(http.MethodGet, "/auth/callback?token=deadbeef", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	assert.Equal(t, 1, strings.Count(location, "#"), location)
	assert.Equal(t, "https://contest.test/dashboard#error=INVALID_LOGIN_LINK", location)
}

func TestMagicLinkFailureWithoutDefaultIsJSON(t *testing.T) {
	h := newHarnessWithConfig(t, application.Config{ContestName: "Test Contest"}, httpadapter.Options{})

	rec := h.do(http.MethodGet, "/auth/callback?token=deadbeef", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "INVALID_LOGIN_LINK", decode(t, rec).Code)
}

func TestAnalyticsSeriesIsDense(t *testing.T) {
	h := newHarness(t, httpadapter.Options{})
	h.registerAndLogin("hedy@example.com")
	token := h.adminToken(domain.RoleAdmin, domain.Permissions{ViewAnalytics: true})

	rec := h.do(http.MethodGet, "/api/analytics?days=5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var snap struct {
		TotalParticipants   int64 `json:"total_participants"`
		RegistrationsPerDay []struct {
			Day   time.Time `json:"day"`
			Count int64     `json:"count"`
		} `json:"registrations_per_day"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &snap))
	assert.Len(t, snap.RegistrationsPerDay, 5)
}
