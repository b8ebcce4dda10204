package domain_test

import (
	"testing"

	"github.com/nischalstumbeti/contestzen/internal/domain"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		password  string
		wantError bool
	}{
		{name: "valid", password: "StrongPass123", wantError: false},
		{name: "too short", password: "Ab1", wantError: true},
		{name: "no digit", password: "StrongPassWord", wantError: true},
		{name: "weak pattern", password: "Password123X", wantError: true},
		{name: "too long", password: "Aa1" + string(make([]byte, 80)), wantError: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := domain.ValidatePassword(tc.password)
			if tc.wantError && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantError && err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
		})
	}
}

func TestSuperadminCanEverything(t *testing.T) {
	t.Parallel()

	root := domain.Admin{Role: domain.RoleSuperadmin}
	staff := domain.Admin{Role: domain.RoleAdmin, Permissions: domain.Permissions{ViewAnalytics: true}}
	for _, perm := range []domain.Permission{domain.PermManageSettings, domain.PermExportData, domain.PermViewAnalytics} {
		if !root.Can(perm) {
			t.Fatalf("superadmin denied %s", perm)
		}
	}
	if !staff.Can(domain.PermViewAnalytics) || staff.Can(domain.PermExportData) {
		t.Fatalf("admin permissions not honoured: %+v", staff.Permissions)
	}
	if staff.Can("unknown") {
		t.Fatalf("unknown permission granted")
	}
}
