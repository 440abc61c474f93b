package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/security"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo   domain.UserRepository
	directory  *UserDirectory
	jwtManager *security.JWTManager
	passwords  *security.PasswordHasher
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	directory *UserDirectory,
	jwtManager *security.JWTManager,
	passwords *security.PasswordHasher,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		directory:  directory,
		jwtManager: jwtManager,
		passwords:  passwords,
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, input domain.UserCreate) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// Check if email already exists
	_, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.Conflict("email already registered")
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	// Hash password
	hashedPassword, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// Create user
	now := time.Now().UTC()
	user := &domain.User{
		ID:           primitive.NewObjectID(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input domain.UserLogin) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthenticated("invalid credentials")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Verify password
	if err := s.passwords.Compare(user.PasswordHash, input.Password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return nil, domain.Unauthenticated("invalid credentials")
		}
		return nil, err
	}

	return s.issue(user)
}

// Refresh refreshes the access token using a refresh token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.Unauthenticated("invalid refresh token")
	}

	user, err := s.directory.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthenticated("user no longer exists")
		}
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*domain.TokenPair, error) {
	accessToken, refreshToken, expiresIn, err := s.jwtManager.GenerateTokenPair(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// Authenticate resolves the actor behind an access token
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (domain.Actor, error) {
	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		return domain.Actor{}, domain.Unauthenticated("invalid or expired token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return domain.Actor{}, domain.Unauthenticated("invalid or expired token")
	}

	user, err := s.directory.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Actor{}, domain.Unauthenticated("user no longer exists")
		}
		return domain.Actor{}, err
	}

	return domain.Actor{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// Me returns the profile of the actor
func (s *AuthService) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	return s.directory.Get(ctx, actor.ID)
}
