package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
)

const (
	SheetAllUsers       = "All Users"
	SheetParticipants   = "Participants"
	SheetAdministrators = "Administrators"
)

// ExportFileName names the workbook for download.
func (s *Service) ExportFileName() string {
	return fmt.Sprintf("contestzen-users-%s.xlsx", s.nowFn().Format("20060102-150405"))
}

// ExportUsers writes the three-sheet user workbook to w. Admin credentials are never exported.
func (s *Service) ExportUsers(ctx context.Context, w io.Writer) error {
	sheets, err := s.UserExportSheets(ctx)
	if err != nil {
		return err
	}
	return s.workbook.Write(w, sheets)
}

// UserExportSheets builds the rows behind ExportUsers.
func (s *Service) UserExportSheets(ctx context.Context) ([]ports.Sheet, error) {
	participants, err := s.participants.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load admins: %w", err)
	}

	all := ports.Sheet{
		Name:   SheetAllUsers,
		Header: []string{"User Type", "ID", "Name", "Email", "Phone", "Profession", "Gender", "Age", "Contest Type", "Department", "Government", "Place", "Role", "Login Enabled", "Upload Enabled", "Created At"},
	}
	parts := ports.Sheet{
		Name:   SheetParticipants,
		Header: []string{"ID", "Name", "Email", "Profession", "Profession Other", "Gender", "Age", "Contest Type", "Photo URL", "Login Enabled", "Upload Enabled", "Extra Fields", "Last Login", "Created At"},
	}
	adms := ports.Sheet{
		Name:   SheetAdministrators,
		Header: []string{"ID", "Name", "Email", "Phone", "Department", "Government", "Place", "Role", "Permissions", "Last Login", "Created At"},
	}

	for _, p := range participants {
		age := ""
		if p.Age != nil {
			age = strconv.Itoa(*p.Age)
		}
		all.Rows = append(all.Rows, []string{
			"Participant", p.ID.String(), p.Name, p.Email, "", professionLabel(p), string(p.Gender), age, p.ContestType,
			"", "", "", "", yesNo(p.LoginEnabled), yesNo(p.UploadEnabled), formatTime(&p.CreatedAt),
		})
		parts.Rows = append(parts.Rows, []string{
			p.ID.String(), p.Name, p.Email, p.Profession, p.ProfessionOther, string(p.Gender), age, p.ContestType, p.PhotoURL,
			yesNo(p.LoginEnabled), yesNo(p.UploadEnabled), extraFieldsText(p.ExtraFields), formatTime(p.LastLoginAt), formatTime(&p.CreatedAt),
		})
	}
	for _, a := range admins {
		all.Rows = append(all.Rows, []string{
			"Administrator", a.ID.String(), a.Name, a.Email, a.Phone, "", "", "", "",
			a.Department, string(a.Government), a.Place, string(a.Role), "", "", formatTime(&a.CreatedAt),
		})
		adms.Rows = append(adms.Rows, []string{
			a.ID.String(), a.Name, a.Email, a.Phone, a.Department, string(a.Government), a.Place, string(a.Role),
			permissionsText(toAdminView(a).Permissions), formatTime(a.LastLoginAt), formatTime(&a.CreatedAt),
		})
	}
	return []ports.Sheet{all, parts, adms}, nil
}

func professionLabel(p domain.Participant) string {
	if strings.EqualFold(p.Profession, domain.ProfessionOther) && p.ProfessionOther != "" {
		return p.ProfessionOther
	}
	return p.Profession
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func extraFieldsText(extra map[string]any) string {
	if len(extra) == 0 {
		return ""
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		return ""
	}
	return string(raw)
}

func permissionsText(p domain.Permissions) string {
	var out []string
	for _, perm := range []domain.Permission{
		domain.PermManageParticipants,
		domain.PermManageSubmissions,
		domain.PermManageAnnouncements,
		domain.PermManageSettings,
		domain.PermViewAnalytics,
		domain.PermExportData,
	} {
		if p.Has(perm) {
			out = append(out, string(perm))
		}
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}
