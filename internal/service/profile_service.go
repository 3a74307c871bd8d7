package service

import (
	"context"
	"strings"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

// ProfileService reads and edits the caller's own profile.
type ProfileService struct {
	profiles repository.ProfileRepository
}

// NewProfileService constructs the service.
func NewProfileService(profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// ProfileInput replaces every editable profile field. Blank strings clear a field.
type ProfileInput struct {
	EmployeeName string
	Department   string
	PhoneNumber  string
	LaptopModel  string
	LaptopSerial string
}

// Get returns the profile, or an empty one when the user has none yet.
func (s *ProfileService) Get(ctx context.Context, userID int64) (*domain.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return &domain.Profile{UserID: userID}, nil
		}
		return nil, err
	}
	return profile, nil
}

// Update stores the profile. Existing incidents keep the snapshot taken when they were created.
func (s *ProfileService) Update(ctx context.Context, userID int64, input ProfileInput) (*domain.Profile, error) {
	profile := &domain.Profile{
		UserID:       userID,
		EmployeeName: nonBlank(input.EmployeeName),
		PhoneNumber:  nonBlank(input.PhoneNumber),
		LaptopModel:  nonBlank(input.LaptopModel),
		LaptopSerial: nonBlank(input.LaptopSerial),
	}
	if raw := strings.TrimSpace(input.Department); raw != "" {
		dept, ok := domain.ParseDepartment(raw)
		if !ok {
			return nil, apperrors.NewValidationError("unknown department",
				map[string]any{"field": "department", "value": raw})
		}
		profile.Department = &dept
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
