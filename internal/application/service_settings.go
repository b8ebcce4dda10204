package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
)

// loadSetting reads a configuration singleton through the cache, falling back to the
// default when it was never written.
func loadSetting[T any](ctx context.Context, s *Service, key string, fallback T) (T, error) {
	if s.settingsCache != nil {
		raw, ok, err := s.settingsCache.Get(ctx, key)
		if err != nil {
			logWarn(ctx, "load_setting", "settings cache unavailable", err, "key", key)
		} else if ok {
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	value := fallback
	raw, err := s.settings.Get(ctx, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// never written; serve the default
	case err != nil:
		return value, fmt.Errorf("load %s: %w", key, err)
	default:
		if err := json.Unmarshal(raw, &value); err != nil {
			return fallback, fmt.Errorf("decode %s: %w", key, err)
		}
	}

	if s.settingsCache != nil {
		encoded, err := json.Marshal(value)
		if err == nil {
			err = s.settingsCache.Set(ctx, key, encoded, s.cfg.SettingsCacheTTL)
		}
		if err != nil {
			logWarn(ctx, "load_setting", "settings cache fill failed", err, "key", key)
		}
	}
	return value, nil
}

// storeSetting writes the singleton and drops the cached copy so the next gate check sees it.
func storeSetting(ctx context.Context, s *Service, key string, actorID uuid.UUID, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	actor := actorID
	if err := s.settings.Put(ctx, key, raw, &actor, s.nowFn()); err != nil {
		return err
	}
	if s.settingsCache != nil {
		if err := s.settingsCache.Invalidate(ctx, key); err != nil {
			logWarn(ctx, "store_setting", "settings cache invalidation failed", err, "key", key)
		}
	}
	s.enqueueEvent(ctx, "settings.updated", key, map[string]any{
		"key":        key,
		"updated_by": actorID,
	})
	return nil
}

func (s *Service) RegistrationControl(ctx context.Context) (domain.RegistrationControl, error) {
	return loadSetting(ctx, s, domain.SettingRegistrationControl, domain.DefaultRegistrationControl())
}

func (s *Service) UpdateRegistrationControl(ctx context.Context, actorID uuid.UUID, in domain.RegistrationControl) (domain.RegistrationControl, error) {
	if in.ContactEmail != "" {
		email, err := normalizeEmail(in.ContactEmail)
		if err != nil {
			return domain.RegistrationControl{}, fmt.Errorf("%w: contact_email is invalid", domain.ErrInvalidInput)
		}
		in.ContactEmail = email
	}
	in.UpdatedAt = s.nowFn()
	if err := storeSetting(ctx, s, domain.SettingRegistrationControl, actorID, in); err != nil {
		return domain.RegistrationControl{}, err
	}
	return in, nil
}

func (s *Service) SubmissionControl(ctx context.Context) (domain.SubmissionControl, error) {
	return loadSetting(ctx, s, domain.SettingSubmissionControl, domain.DefaultSubmissionControl())
}

func (s *Service) UpdateSubmissionControl(ctx context.Context, actorID uuid.UUID, in domain.SubmissionControl) (domain.SubmissionControl, error) {
	if err := in.Normalize(); err != nil {
		return domain.SubmissionControl{}, err
	}
	in.UpdatedAt = s.nowFn()
	if err := storeSetting(ctx, s, domain.SettingSubmissionControl, actorID, in); err != nil {
		return domain.SubmissionControl{}, err
	}
	return in, nil
}

func (s *Service) Branding(ctx context.Context) (domain.Branding, error) {
	return loadSetting(ctx, s, domain.SettingBranding, domain.DefaultBranding())
}

func (s *Service) UpdateBranding(ctx context.Context, actorID uuid.UUID, in domain.Branding) (domain.Branding, error) {
	if err := in.Validate(); err != nil {
		return domain.Branding{}, err
	}
	in.UpdatedAt = s.nowFn()
	if err := storeSetting(ctx, s, domain.SettingBranding, actorID, in); err != nil {
		return domain.Branding{}, err
	}
	return in, nil
}

func (s *Service) EnhancedBranding(ctx context.Context) (domain.EnhancedBranding, error) {
	return loadSetting(ctx, s, domain.SettingEnhancedBranding, domain.EnhancedBranding{})
}

func (s *Service) UpdateEnhancedBranding(ctx context.Context, actorID uuid.UUID, in domain.EnhancedBranding) (domain.EnhancedBranding, error) {
	if err := in.Validate(); err != nil {
		return domain.EnhancedBranding{}, err
	}
	in.UpdatedAt = s.nowFn()
	if err := storeSetting(ctx, s, domain.SettingEnhancedBranding, actorID, in); err != nil {
		return domain.EnhancedBranding{}, err
	}
	return in, nil
}
