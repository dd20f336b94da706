// Package auth handles registration, login, and token lifecycle.
package auth

import (
	"errors"
	"log"
	"time"

	"blizz/internal/models"
	"blizz/internal/repositories"
	"blizz/internal/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// RegisterInput is what a new user signs up with.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Phone    string
	Country  string
}

type Service struct {
	users repositories.UserRepository
}

func NewService(users repositories.UserRepository) *Service {
	if users == nil {
		panic("auth: nil user repository")
	}
	return &Service{users: users}
}

func (s *Service) Register(in RegisterInput) (*models.User, error) {
	if len(in.Password) < 8 {
		return nil, ErrWeakPassword
	}

	if existing, err := s.users.FindByEmail(in.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:             in.Email,
		Username:          in.Username,
		Password:          string(hashed),
		Phone:             in.Phone,
		Country:           in.Country,
		Role:              models.RoleUser,
		Status:            "active",
		PreferredCurrency: "EUR",
		TokenVersion:      1,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Login(email, password string) (*models.User, string, string, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		log.Printf("auth: login failed for %s: user not found", email)
		return nil, "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		user.FailedLoginAttempts++
		if err := s.users.Update(user); err != nil {
			log.Printf("auth: failed to record login attempt for user %d: %v", user.ID, err)
		}
		return nil, "", "", ErrInvalidCredentials
	}

	user.FailedLoginAttempts = 0
	user.LastLoginAt = time.Now()
	if err := s.users.Update(user); err != nil {
		log.Printf("auth: failed to record login for user %d: %v", user.ID, err)
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		log.Println("auth: error generating tokens:", err)
		return nil, "", "", errors.New("error generating tokens")
	}

	return user, accessToken, refreshToken, nil
}

func (s *Service) RefreshTokens(refreshToken string) (string, string, error) {
	_, claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}

	user, err := s.users.FindByID(claims.UserID)
	if err != nil {
		return "", "", errors.New("user not found")
	}

	if user.TokenVersion != claims.TokenVersion {
		return "", "", errors.New("token version mismatch")
	}

	return utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
}

// GetUserTokenVersion returns the current token version for a user, used
// by the auth middleware to reject revoked tokens.
func (s *Service) GetUserTokenVersion(userID uint) (int, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}

// Logout bumps the token version, invalidating every outstanding token.
func (s *Service) Logout(userID uint) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return err
	}
	user.TokenVersion++
	return s.users.Update(user)
}
