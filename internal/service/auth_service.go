package service

import (
	"context"
	"errors"
	"time"

	"ai-assessment-be/internal/dto"
	"ai-assessment-be/internal/pkg/logger"
	"ai-assessment-be/internal/pkg/serverutils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthNotConfigured  = errors.New("no application password is configured")
)

type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Authenticate(password string) bool
}

type authService struct {
	passwordHash  []byte
	jwtSecret     []byte
	credentialTTL time.Duration
	logger        logger.ILogger
	now           func() time.Time
}

// NewAuthService gates the app behind one shared password. A bcrypt hash
// takes precedence; a plain password is hashed once at startup.
func NewAuthService(password, passwordHash, jwtSecret string, credentialTTL time.Duration, log logger.ILogger) (IAuthService, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	var hash []byte
	switch {
	case passwordHash != "":
		hash = []byte(passwordHash)
	case password != "":
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = h
	default:
		return nil, ErrAuthNotConfigured
	}

	if jwtSecret == "" {
		jwtSecret = "default_secret"
	}
	if credentialTTL <= 0 {
		credentialTTL = 24 * time.Hour
	}

	return &authService{
		passwordHash:  hash,
		jwtSecret:     []byte(jwtSecret),
		credentialTTL: credentialTTL,
		logger:        log,
		now:           time.Now,
	}, nil
}

func (s *authService) Authenticate(password string) bool {
	if password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	if !s.Authenticate(req.Password) {
		s.logger.Warn("Auth", "Login rejected", nil)
		return nil, ErrInvalidCredentials
	}

	// One login starts one workflow session
	sessionId := uuid.New().String()
	expiresAt := s.now().Add(s.credentialTTL)

	claims := jwt.MapClaims{
		serverutils.LocalSessionId: sessionId,
		"iat":                      s.now().Unix(),
		"exp":                      expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Auth", "Login succeeded", map[string]interface{}{
		"session_id": sessionId,
		"expires_at": expiresAt,
	})

	return &dto.LoginResponse{
		AccessToken: signedToken,
		SessionId:   sessionId,
		ExpiresAt:   expiresAt,
	}, nil
}
