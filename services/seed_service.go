package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
)

// SeedService bulk-imports accounts from a YAML file:
//
//	- username: alice
//	  password: secret1
//	  nickname: Alice
type SeedService interface {
	SeedUsers(ctx context.Context, path string) (created int, err error)
}

type seedService struct {
	auth AuthService
}

func NewSeedService(auth AuthService) SeedService {
	return &seedService{auth: auth}
}

// SeedUsers registers every entry through the normal registration path.
// Usernames that already exist are skipped, so the import can be re-run.
func (s *seedService) SeedUsers(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	var users []models.SeedUser
	if err := yaml.Unmarshal(raw, &users); err != nil {
		return 0, fmt.Errorf("failed to parse seed file: %w", err)
	}

	created := 0
	for i, u := range users {
		err := s.auth.Register(ctx, &models.CreateUserRequest{
			Username: u.Username,
			Password: u.Password,
			Nickname: u.Nickname,
		})
		switch {
		case err == nil:
			created++
		case errors.Is(err, pkg.ErrAlreadyExists):
			log.Printf("[seed] skipping existing user %q", u.Username)
		default:
			return created, fmt.Errorf("seed entry %d (%q): %w", i+1, u.Username, err)
		}
	}

	log.Printf("[seed] %d of %d users created", created, len(users))
	return created, nil
}
