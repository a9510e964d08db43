package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
)

const (
	minPasswordLength = 8
	minNameLength     = 2
)

type AuthConfig struct {
	JWTSecret       []byte
	GoogleClientID  string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

type AuthService struct {
	userRepo            ports.UserRepository
	authRepo            ports.AuthRepository
	googleTokenVerifier ports.TokenVerifier
	notifier            ports.SessionNotifier
	cfg                 AuthConfig
	now                 func() time.Time
}

func NewAuthService(userRepo ports.UserRepository, authRepo ports.AuthRepository, googleTokenVerifier ports.TokenVerifier, notifier ports.SessionNotifier, cfg AuthConfig) *AuthService {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	return &AuthService{
		userRepo:            userRepo,
		authRepo:            authRepo,
		googleTokenVerifier: googleTokenVerifier,
		notifier:            notifier,
		cfg:                 cfg,
		now:                 time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, domain.Tokens, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, domain.Tokens{}, err
	}
	if utf8.RuneCountInString(input.Password) < minPasswordLength {
		return nil, domain.Tokens{}, domain.NewValidationError("password", "password must be at least 8 characters")
	}
	name := strings.TrimSpace(input.Name)
	if utf8.RuneCountInString(name) < minNameLength {
		return nil, domain.Tokens{}, domain.NewValidationError("name", "name must be at least 2 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, domain.Tokens{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, domain.Tokens{}, err
	}

	tokens, err := s.issue(ctx, user, ports.SessionSignedIn)
	if err != nil {
		return nil, domain.Tokens{}, err
	}
	return user, tokens, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.User, domain.Tokens, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.Tokens{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, domain.Tokens{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Tokens{}, domain.ErrInvalidCredentials
	}

	tokens, err := s.issue(ctx, user, ports.SessionSignedIn)
	if err != nil {
		return nil, domain.Tokens{}, err
	}
	return user, tokens, nil
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, googleToken string) (*domain.User, domain.Tokens, error) {
	if s.googleTokenVerifier == nil || s.cfg.GoogleClientID == "" {
		return nil, domain.Tokens{}, errors.New("google sign-in is not configured")
	}

	payload, err := s.googleTokenVerifier.Verify(ctx, googleToken, s.cfg.GoogleClientID)
	if err != nil {
		return nil, domain.Tokens{}, fmt.Errorf("invalid google token: %w", errors.Join(domain.ErrUnauthenticated, err))
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.Tokens{}, fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		user = &domain.User{
			Email:     email,
			Name:      payload.Name,
			AvatarURL: payload.Picture,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			if !errors.Is(err, domain.ErrEmailTaken) {
				return nil, domain.Tokens{}, fmt.Errorf("failed to create user: %w", err)
			}
			// A concurrent first sign-in created the account.
			user, err = s.userRepo.GetByEmail(ctx, email)
			if err != nil {
				return nil, domain.Tokens{}, fmt.Errorf("failed to get user: %w", err)
			}
			if user == nil {
				return nil, domain.Tokens{}, fmt.Errorf("user vanished after create: %w", domain.ErrEmailTaken)
			}
		}
	}

	tokens, err := s.issue(ctx, user, ports.SessionSignedIn)
	if err != nil {
		return nil, domain.Tokens{}, err
	}
	return user, tokens, nil
}

func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (domain.Tokens, error) {
	rtEntity, err := s.authRepo.GetRefreshTokenByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if rtEntity == nil {
		return domain.Tokens{}, fmt.Errorf("refresh token not found: %w", domain.ErrUnauthenticated)
	}
	if rtEntity.Revoked {
		return domain.Tokens{}, fmt.Errorf("refresh token revoked: %w", domain.ErrUnauthenticated)
	}
	if rtEntity.ExpiresAt.Before(s.now()) {
		return domain.Tokens{}, fmt.Errorf("refresh token expired: %w", domain.ErrUnauthenticated)
	}

	user, err := s.userRepo.GetByID(ctx, rtEntity.UserID)
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return domain.Tokens{}, fmt.Errorf("user not found: %w", domain.ErrUnauthenticated)
	}

	// Rotate: the presented token is single use. Only the caller that flips
	// revoked gets a new pair.
	revoked, err := s.authRepo.RevokeRefreshToken(ctx, rtEntity.ID)
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !revoked {
		return domain.Tokens{}, fmt.Errorf("refresh token revoked: %w", domain.ErrUnauthenticated)
	}

	return s.issue(ctx, user, ports.SessionRefreshed)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	rtEntity, err := s.authRepo.GetRefreshTokenByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return fmt.Errorf("failed to get refresh token: %w", err)
	}
	if rtEntity == nil {
		return nil
	}

	if _, err := s.authRepo.RevokeRefreshToken(ctx, rtEntity.ID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	s.publish(ctx, ports.SessionEvent{Kind: ports.SessionSignedOut, UserID: rtEntity.UserID})
	return nil
}

func (s *AuthService) GetSession(ctx context.Context, accessToken string) (*domain.User, error) {
	userID, ok := s.parseAccessToken(accessToken)
	if !ok {
		return nil, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *domain.User, kind ports.SessionEventKind) (domain.Tokens, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	rtEntity := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: s.now().Add(s.cfg.RefreshTokenTTL),
	}
	if err := s.authRepo.StoreRefreshToken(ctx, rtEntity); err != nil {
		return domain.Tokens{}, fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.publish(ctx, ports.SessionEvent{Kind: kind, UserID: user.ID, User: user})

	return domain.Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) publish(ctx context.Context, event ports.SessionEvent) {
	if s.notifier != nil {
		s.notifier.Publish(ctx, event)
	}
}

func (s *AuthService) generateAccessToken(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"name":  user.Name,
		"exp":   now.Add(s.cfg.AccessTokenTTL).Unix(),
		"iat":   now.Unix(),
		"jti":   uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.JWTSecret)
}

func (s *AuthService) parseAccessToken(accessToken string) (uuid.UUID, bool) {
	if accessToken == "" {
		return uuid.Nil, false
	}

	token, err := jwt.Parse(accessToken, func(t *jwt.Token) (interface{}, error) {
		return s.cfg.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.NewValidationError("email", "invalid email address")
	}
	return email, nil
}

func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
