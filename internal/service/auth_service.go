package service

import (
	"context"
	"errors"
	"strings"

	"pricing-agent/internal/dto"
	"pricing-agent/internal/models"
	"pricing-agent/pkg/auth"

	"go.uber.org/zap"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// LoadCredentials collects username:password pairs from environ entries
// whose name starts with prefix. Entries that do not split into exactly two
// non-empty fields are skipped with a warning.
func LoadCredentials(environ []string, prefix string, logger *zap.Logger) map[string]models.Credential {
	creds := make(map[string]models.Credential)

	for _, entry := range environ {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}

		parts := strings.Split(value, ":")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			logger.Warn("Skipping malformed credential entry",
				zap.String("variable", name),
				zap.Int("fields", len(parts)),
			)
			continue
		}

		username := strings.TrimSpace(parts[0])
		if _, dup := creds[username]; dup {
			logger.Warn("Duplicate credential entry, keeping the first", zap.String("variable", name))
			continue
		}
		creds[username] = models.Credential{
			Username: username,
			Password: parts[1],
			Source:   name,
		}
	}

	return creds
}

type AuthService struct {
	credentials map[string]models.Credential
	jwtManager  *auth.JWTManager
	logger      *zap.Logger
}

func NewAuthService(credentials map[string]models.Credential, jwtManager *auth.JWTManager, logger *zap.Logger) *AuthService {
	if len(credentials) == 0 {
		logger.Warn("No login credentials configured; every login will be rejected")
	}
	return &AuthService{
		credentials: credentials,
		jwtManager:  jwtManager,
		logger:      logger,
	}
}

// Authenticate checks a username/password pair against the configured
// credentials.
func (s *AuthService) Authenticate(username, password string) error {
	cred, ok := s.credentials[username]
	if !ok {
		// burn comparable time for unknown users
		auth.VerifyPassword(password, "")
		return ErrInvalidCredentials
	}
	if !auth.VerifyPassword(password, cred.Password) {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := s.Authenticate(req.Username, req.Password); err != nil {
		s.logger.Warn("Login rejected", zap.String("username", req.Username))
		return nil, err
	}

	s.logger.Info("User logged in", zap.String("username", req.Username))
	return s.issueTokens(req.Username)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if _, ok := s.credentials[claims.Username]; !ok {
		return nil, ErrUserNotFound
	}

	return s.issueTokens(claims.Username)
}

func (s *AuthService) issueTokens(username string) (*dto.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateToken(username)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(username)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtManager.GetTokenDuration().Seconds()),
		User: dto.UserResponse{
			Username: username,
		},
	}, nil
}
