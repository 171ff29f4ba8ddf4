package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"good-morning-backend/internal/models"
	"good-morning-backend/internal/oauth"
	"good-morning-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	codeLength        = 6
	codeChars         = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxUsernameLength = 50
)

// UserService handles identity, session token and profile logic
type UserService struct {
	userRepo  UserStore
	jwtSecret string
	jwtTTL    time.Duration
}

// NewUserService creates a new user service
func NewUserService(userRepo UserStore, jwtSecret string, jwtTTL time.Duration) *UserService {
	return &UserService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
	}
}

// GenerateUniqueCode generates a unique 6-character code
func (s *UserService) GenerateUniqueCode(ctx context.Context) (string, error) {
	maxAttempts := 10
	for i := 0; i < maxAttempts; i++ {
		code := generateCode()
		exists, err := s.userRepo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code existence: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique code after %d attempts", maxAttempts)
}

// generateCode generates a random 6-character code
func generateCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.jwtTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// LoginWithGoogle returns the identity for a Google account, creating it on
// first login, together with a fresh session token
func (s *UserService) LoginWithGoogle(ctx context.Context, gu *oauth.GoogleUser) (*models.User, string, error) {
	user, err := s.userRepo.GetByGoogleID(ctx, gu.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("failed to look up google user: %w", err)
		}
		user, err = s.createFromGoogle(ctx, gu)
		if err != nil {
			return nil, "", err
		}
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

func (s *UserService) createFromGoogle(ctx context.Context, gu *oauth.GoogleUser) (*models.User, error) {
	var picture *string
	if gu.Picture != "" {
		picture = &gu.Picture
	}

	username := strings.TrimSpace(gu.Name)
	if username == "" {
		username, _, _ = strings.Cut(gu.Email, "@")
	}

	// A code can still collide between CodeExists and the insert; the unique
	// index rejects it and a fresh code is tried.
	const maxAttempts = 3
	for i := 0; i < maxAttempts; i++ {
		code, err := s.GenerateUniqueCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		now := time.Now()
		user := &models.User{
			ID:         uuid.New().String(),
			GoogleID:   gu.ID,
			Username:   username,
			Email:      gu.Email,
			UniqueCode: code,
			Picture:    picture,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		err = s.userRepo.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		// the same Google account may have logged in concurrently
		if existing, getErr := s.userRepo.GetByGoogleID(ctx, gu.ID); getErr == nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("failed to create user after %d attempts", maxAttempts)
}

// GetUser loads the requesting identity
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// GetProfile returns the user and their partner, or a nil partner when unpaired
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, *models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !user.HasPartner() {
		return user, nil, nil
	}

	partner, err := s.userRepo.GetByID(ctx, *user.PartnerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return user, nil, nil
		}
		return nil, nil, err
	}
	return user, partner, nil
}

// UpdateUsername changes the display name
func (s *UserService) UpdateUsername(ctx context.Context, userID, username string) error {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLength {
		return ErrInvalidUsername
	}

	if err := s.userRepo.UpdateUsername(ctx, userID, username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	return nil
}

// SetNotificationsEnabled toggles whether the user receives push notifications
func (s *UserService) SetNotificationsEnabled(ctx context.Context, userID string, enabled bool) error {
	if err := s.userRepo.SetNotificationsEnabled(ctx, userID, enabled); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	return nil
}
