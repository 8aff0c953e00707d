package service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cinehub/cinehub/internal/api"
	"github.com/cinehub/cinehub/internal/domain"
)

// Auth endpoints
const (
	pathLogin         = "/auth/login-jwt/"
	pathRegister      = "/auth/register/"
	pathProfile       = "/auth/profile/"
	pathProfileUpdate = "/profile/update/"
)

// AuthService maps account operations onto the backend. It holds no state
// and never touches the response cache.
type AuthService struct {
	do     api.RequestFunc
	logger *slog.Logger
}

// NewAuthService creates an AuthService issuing requests through do
func NewAuthService(do api.RequestFunc, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{do: do, logger: logger}
}

// Login exchanges email and password for an access/refresh token pair
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Credentials, error) {
	data, err := s.do(ctx, &api.Request{
		Method:    http.MethodPost,
		Path:      pathLogin,
		Body:      map[string]string{"email": email, "password": password},
		Anonymous: true,
	})
	if err != nil {
		return domain.Credentials{}, domain.Classify(err)
	}
	return decodeCredentials(data)
}

// Register creates an account and returns the new profile
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (*domain.UserProfile, error) {
	s.logger.Debug("registering account", "email", reg.Email)

	data, err := s.do(ctx, &api.Request{
		Method:    http.MethodPost,
		Path:      pathRegister,
		Body:      reg,
		Anonymous: true,
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	return decodeProfile(data)
}

// Profile fetches the signed-in user's profile
func (s *AuthService) Profile(ctx context.Context) (*domain.UserProfile, error) {
	data, err := s.do(ctx, &api.Request{Method: http.MethodGet, Path: pathProfile})
	if err != nil {
		return nil, domain.Classify(err)
	}
	return decodeProfile(data)
}

// UpdateProfile sends the edited fields and returns the stored profile
func (s *AuthService) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*domain.UserProfile, error) {
	data, err := s.do(ctx, &api.Request{
		Method: http.MethodPut,
		Path:   pathProfileUpdate,
		Body:   upd,
	})
	if err != nil {
		return nil, domain.Classify(err)
	}
	return decodeProfile(data)
}

