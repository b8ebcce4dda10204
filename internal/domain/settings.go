package domain

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Setting keys of the configuration singletons.
const (
	SettingRegistrationControl = "registration_control"
	SettingSubmissionControl   = "submission_control"
	SettingBranding            = "branding"
	SettingEnhancedBranding    = "enhanced_branding"
)

type CollectionMode string

const (
	CollectionDriveLink    CollectionMode = "drive_link"
	CollectionFileUpload   CollectionMode = "file_upload"
	CollectionExternalForm CollectionMode = "external_form"
)

// RegistrationControl gates public registration.
type RegistrationControl struct {
	Enabled       bool      `json:"enabled"`
	ClosedTitle   string    `json:"closed_title"`
	ClosedMessage string    `json:"closed_message"`
	ContactEmail  string    `json:"contact_email"`
	ContactPhone  string    `json:"contact_phone"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func DefaultRegistrationControl() RegistrationControl {
	return RegistrationControl{
		Enabled:       true,
		ClosedTitle:   "Registration Closed",
		ClosedMessage: "Registration for this contest is currently closed.",
	}
}

// SubmissionControl gates the submission portal.
type SubmissionControl struct {
	Enabled           bool           `json:"enabled"`
	ClosedTitle       string         `json:"closed_title"`
	ClosedMessage     string         `json:"closed_message"`
	MaxFileSizeMB     int            `json:"max_file_size_mb"`
	AllowedFormats    []string       `json:"allowed_formats"`
	Deadline          *time.Time     `json:"deadline,omitempty"`
	CollectionMode    CollectionMode `json:"collection_mode"`
	ExternalFormURL   string         `json:"external_form_url"`
	DriveInstructions string         `json:"drive_instructions"`
	SuccessMessage    string         `json:"success_message"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func DefaultSubmissionControl() SubmissionControl {
	return SubmissionControl{
		Enabled:        true,
		ClosedTitle:    "Submissions Closed",
		ClosedMessage:  "The submission window is currently closed.",
		MaxFileSizeMB:  10,
		AllowedFormats: []string{"pdf", "doc", "docx", "ppt", "pptx", "zip", "jpg", "jpeg", "png", "mp4"},
		CollectionMode: CollectionFileUpload,
		SuccessMessage: "Your submission has been received.",
	}
}

// Open reports whether submissions are accepted at now.
func (c SubmissionControl) Open(now time.Time) bool {
	if !c.Enabled {
		return false
	}
	return c.Deadline == nil || now.Before(*c.Deadline)
}

// AllowsFile checks the file extension against the allowed formats. An empty list allows everything.
func (c SubmissionControl) AllowsFile(fileName string) bool {
	if len(c.AllowedFormats) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if ext == "" {
		return false
	}
	for _, f := range c.AllowedFormats {
		if strings.TrimPrefix(strings.ToLower(strings.TrimSpace(f)), ".") == ext {
			return true
		}
	}
	return false
}

func (c SubmissionControl) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

func (c *SubmissionControl) Normalize() error {
	switch c.CollectionMode {
	case "":
		c.CollectionMode = CollectionFileUpload
	case CollectionDriveLink, CollectionFileUpload:
	case CollectionExternalForm:
		if _, err := ValidateDriveLink(c.ExternalFormURL); err != nil {
			return fmt.Errorf("%w: external_form_url must be an http(s) URL", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: collection_mode must be drive_link, file_upload or external_form", ErrInvalidInput)
	}
	if c.MaxFileSizeMB < 0 || c.MaxFileSizeMB > 1024 {
		return fmt.Errorf("%w: max_file_size_mb must be between 0 and 1024", ErrInvalidInput)
	}
	if c.MaxFileSizeMB == 0 {
		c.MaxFileSizeMB = DefaultSubmissionControl().MaxFileSizeMB
	}
	formats := make([]string, 0, len(c.AllowedFormats))
	for _, f := range c.AllowedFormats {
		f = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(f)), ".")
		if f != "" {
			formats = append(formats, f)
		}
	}
	c.AllowedFormats = formats
	return nil
}

var hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Branding is the basic site identity.
type Branding struct {
	SiteTitle    string    `json:"site_title"`
	Tagline      string    `json:"tagline"`
	LogoURL      string    `json:"logo_url"`
	PrimaryColor string    `json:"primary_color"`
	FooterText   string    `json:"footer_text"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func DefaultBranding() Branding {
	return Branding{SiteTitle: "ContestZen", PrimaryColor: "#2563eb"}
}

func (b Branding) Validate() error {
	if strings.TrimSpace(b.SiteTitle) == "" {
		return fmt.Errorf("%w: site_title is required", ErrInvalidInput)
	}
	if b.PrimaryColor != "" && !hexColorPattern.MatchString(b.PrimaryColor) {
		return fmt.Errorf("%w: primary_color must be a hex color", ErrInvalidInput)
	}
	return validateOptionalURL("logo_url", b.LogoURL)
}

// EnhancedBranding carries the landing page and theme extras.
type EnhancedBranding struct {
	HeroTitle      string            `json:"hero_title"`
	HeroSubtitle   string            `json:"hero_subtitle"`
	HeroImageURL   string            `json:"hero_image_url"`
	SecondaryColor string            `json:"secondary_color"`
	AccentColor    string            `json:"accent_color"`
	FaviconURL     string            `json:"favicon_url"`
	SocialLinks    map[string]string `json:"social_links"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (b EnhancedBranding) Validate() error {
	for name, c := range map[string]string{"secondary_color": b.SecondaryColor, "accent_color": b.AccentColor} {
		if c != "" && !hexColorPattern.MatchString(c) {
			return fmt.Errorf("%w: %s must be a hex color", ErrInvalidInput, name)
		}
	}
	if err := validateOptionalURL("hero_image_url", b.HeroImageURL); err != nil {
		return err
	}
	if err := validateOptionalURL("favicon_url", b.FaviconURL); err != nil {
		return err
	}
	for name, link := range b.SocialLinks {
		if err := validateOptionalURL("social_links."+name, link); err != nil {
			return err
		}
	}
	return nil
}

func validateOptionalURL(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute URL", ErrInvalidInput, field)
	}
	return nil
}
