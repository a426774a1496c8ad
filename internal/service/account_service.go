package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"property-portal/internal/apperr"
	"property-portal/internal/model"
	"property-portal/internal/store"
)

// AccountService provisions agencies and users. Sign-up itself happens at the
// identity provider; this only links a provider subject to a role.
type AccountService struct {
	users    store.UserStore
	agencies store.AgencyStore
}

func NewAccountService(us store.UserStore, as store.AgencyStore) *AccountService {
	return &AccountService{users: us, agencies: as}
}

func (s *AccountService) CreateAgency(ctx context.Context, name string) (*model.Agency, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("invalid agency", apperr.FieldErrors{"name": "is required"})
	}
	a := &model.Agency{ID: uuid.NewString(), Name: name, Active: true, CreatedAt: time.Now().UTC()}
	if err := s.agencies.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("AccountService.CreateAgency: %w", err)
	}
	return a, nil
}

type NewUser struct {
	AuthID   string
	Email    string
	Name     string
	Role     model.Role
	AgencyID string
}

// CreateUser enforces that agents and agency admins belong to an existing
// agency and that super admins belong to none.
func (s *AccountService) CreateUser(ctx context.Context, in NewUser) (*model.User, error) {
	fields := apperr.FieldErrors{}
	if strings.TrimSpace(in.AuthID) == "" {
		fields["authId"] = "is required"
	}
	if strings.TrimSpace(in.Email) == "" {
		fields["email"] = "is required"
	}
	if !in.Role.Valid() {
		fields["role"] = "must be one of SUPER_ADMIN, AGENCY_ADMIN, AGENT"
	}
	switch {
	case in.Role == model.RoleSuperAdmin && in.AgencyID != "":
		fields["agencyId"] = "must be empty for super admins"
	case in.Role != model.RoleSuperAdmin && in.AgencyID == "":
		fields["agencyId"] = "is required"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid user", fields)
	}

	u := &model.User{
		ID:        uuid.NewString(),
		AuthID:    strings.TrimSpace(in.AuthID),
		Email:     strings.TrimSpace(in.Email),
		Name:      strings.TrimSpace(in.Name),
		Role:      in.Role,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if in.AgencyID != "" {
		if _, err := s.agencies.GetByID(ctx, in.AgencyID); err != nil {
			return nil, err
		}
		agencyID := in.AgencyID
		u.AgencyID = &agencyID
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("AccountService.CreateUser: %w", err)
	}
	return u, nil
}
