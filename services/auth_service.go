// Package services holds the business rules between the HTTP handlers and
// the repositories.
//
// Every mutation is two explicit steps: commit through a repository, then
// notify through ws.EventPublisher. Both run under the channel's keylock
// so events of one channel leave in commit order.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/gaduly/database"
	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
	"github.com/akinalp/gaduly/repository"
)

// bcryptCost is lowered by tests.
var bcryptCost = 12

// AuthService registers accounts and issues bearer tokens.
type AuthService interface {
	Register(ctx context.Context, req *models.CreateUserRequest) error
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

type authService struct {
	db        *sql.DB
	userRepo  repository.UserRepository
	jwtSecret []byte
	expiry    time.Duration
}

// NewAuthService is the constructor.
//
// db is needed directly because Register runs inside WithTx with
// tx-bound repositories.
func NewAuthService(db *sql.DB, userRepo repository.UserRepository, jwtSecret string, expiryHours int) AuthService {
	return &authService{
		db:        db,
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		expiry:    time.Duration(expiryHours) * time.Hour,
	}
}

// Register creates the account and makes it a member of the workspace with
// the workspace's default role. Both writes commit together.
func (s *authService) Register(ctx context.Context, req *models.CreateUserRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var nickname *string
	if req.Nickname != "" {
		nickname = &req.Nickname
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Nickname:     nickname,
	}

	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		txUsers := repository.NewSQLiteUserRepo(tx)
		txServers := repository.NewSQLiteServerRepo(tx)
		txRoles := repository.NewSQLiteRoleRepo(tx)

		if err := txUsers.Create(ctx, user); err != nil {
			return err
		}

		server, err := txServers.GetFirst(ctx)
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		member := &models.ServerMember{ServerID: server.ID, UserID: user.ID}
		role, err := txRoles.GetDefaultByServer(ctx, server.ID)
		switch {
		case err == nil:
			member.RoleID = &role.ID
		case !errors.Is(err, pkg.ErrNotFound):
			return err
		}

		return txServers.AddMember(ctx, member)
	})
}

// Login checks the credentials and returns a signed token. Unknown
// usernames and wrong passwords produce the same error.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResult{Token: token, User: user.Public()}, nil
}

func (s *authService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := models.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken verifies signature and expiry and returns the claims.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	return claims, nil
}
