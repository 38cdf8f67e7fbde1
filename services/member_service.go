package services

import (
	"context"
	"fmt"

	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
	"github.com/akinalp/gaduly/repository"
)

// MemberService updates the caller's own profile and preferences.
type MemberService interface {
	UpdateProfile(ctx context.Context, userID int64, req *models.UpdateProfileRequest) (*models.PublicUser, error)
}

type memberService struct {
	userRepo repository.UserRepository
}

// NewMemberService is the constructor.
func NewMemberService(userRepo repository.UserRepository) MemberService {
	return &memberService{userRepo: userRepo}
}

func (s *memberService) UpdateProfile(ctx context.Context, userID int64, req *models.UpdateProfileRequest) (*models.PublicUser, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}
