package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
)

func toAdminView(a domain.Admin) AdminView {
	perms := a.Permissions
	if a.Role == domain.RoleSuperadmin {
		perms = domain.AllPermissions()
	}
	return AdminView{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		Phone:       a.Phone,
		Department:  a.Department,
		Government:  a.Government,
		Place:       a.Place,
		Role:        a.Role,
		Permissions: perms,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (s *Service) ListAdmins(ctx context.Context) ([]AdminView, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AdminView, 0, len(admins))
	for _, a := range admins {
		out = append(out, toAdminView(a))
	}
	return out, nil
}

func (s *Service) GetAdmin(ctx context.Context, id uuid.UUID) (AdminView, error) {
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return AdminView{}, err
	}
	return toAdminView(admin), nil
}

// CreateAdmin adds a back-office account. Only the hash of the password is kept.
func (s *Service) CreateAdmin(ctx context.Context, actorID uuid.UUID, req CreateAdminRequest) (AdminView, error) {
	if err := s.validateStruct(req); err != nil {
		return AdminView{}, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return AdminView{}, err
	}
	government, err := domain.ParseGovernment(req.Government)
	if err != nil {
		return AdminView{}, err
	}
	role, err := domain.ParseAdminRole(req.Role)
	if err != nil {
		return AdminView{}, err
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return AdminView{}, err
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return AdminView{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.nowFn()
	admin, err := s.admins.Create(ctx, domain.Admin{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		Department:   strings.TrimSpace(req.Department),
		Government:   government,
		Place:        strings.TrimSpace(req.Place),
		Role:         role,
		PasswordHash: hash,
		Permissions:  req.Permissions,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return AdminView{}, fmt.Errorf("%w: an admin with this email already exists", domain.ErrConflict)
		}
		return AdminView{}, err
	}
	s.enqueueEvent(ctx, "admin.created", admin.ID.String(), map[string]any{
		"admin_id":   admin.ID,
		"role":       admin.Role,
		"created_by": actorID,
	})
	return toAdminView(admin), nil
}

// BootstrapSuperadmin creates a superadmin without an acting session. It is used by the operator CLI.
func (s *Service) BootstrapSuperadmin(ctx context.Context, req CreateAdminRequest) (AdminView, error) {
	req.Role = string(domain.RoleSuperadmin)
	if req.Government == "" {
		req.Government = string(domain.GovernmentOther)
	}
	req.Permissions = domain.AllPermissions()
	return s.CreateAdmin(ctx, uuid.Nil, req)
}

func (s *Service) UpdateAdmin(ctx context.Context, actorID, id uuid.UUID, req UpdateAdminRequest) (AdminView, error) {
	if err := s.validateStruct(req); err != nil {
		return AdminView{}, err
	}
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return AdminView{}, err
	}
	if v := trimPtr(req.Name); v != nil {
		admin.Name = *v
	}
	if v := trimPtr(req.Phone); v != nil {
		admin.Phone = *v
	}
	if v := trimPtr(req.Department); v != nil {
		admin.Department = *v
	}
	if v := trimPtr(req.Place); v != nil {
		admin.Place = *v
	}
	if req.Government != nil {
		if admin.Government, err = domain.ParseGovernment(*req.Government); err != nil {
			return AdminView{}, err
		}
	}
	if req.Role != nil {
		if admin.Role, err = domain.ParseAdminRole(*req.Role); err != nil {
			return AdminView{}, err
		}
	}
	if req.Permissions != nil {
		admin.Permissions = *req.Permissions
	}
	if req.Password != nil {
		if err := domain.ValidatePassword(*req.Password); err != nil {
			return AdminView{}, err
		}
		if admin.PasswordHash, err = s.hasher.Hash(*req.Password); err != nil {
			return AdminView{}, fmt.Errorf("hash password: %w", err)
		}
	}
	admin.UpdatedAt = s.nowFn()

	updated, err := s.admins.Update(ctx, admin)
	if err != nil {
		return AdminView{}, err
	}
	if req.Password != nil && id != actorID {
		s.revokeSubjectSessions(ctx, id)
	}
	return toAdminView(updated), nil
}

// DeleteAdmin removes an admin. The repository refuses to remove the last superadmin
// in the same statement that deletes.
func (s *Service) DeleteAdmin(ctx context.Context, actorID, id uuid.UUID) error {
	if err := s.admins.DeleteGuarded(ctx, id); err != nil {
		return err
	}
	s.revokeSubjectSessions(ctx, id)
	s.enqueueEvent(ctx, "admin.deleted", id.String(), map[string]any{
		"admin_id":   id,
		"deleted_by": actorID,
	})
	return nil
}
