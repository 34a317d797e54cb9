package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/molo/molo-go/internal/crypto"
	"github.com/molo/molo-go/internal/events"
	"github.com/molo/molo-go/internal/model"
	"github.com/molo/molo-go/internal/repository"
)

// CredentialStore persists the singleton credential. Create must fail with
// repository.ErrCredentialExists when a credential is already stored.
type CredentialStore interface {
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context, cred *model.Credential) error
	Get(ctx context.Context) (*model.Credential, error)
}

// AuthService handles initialization and login of the diary owner.
type AuthService struct {
	store     CredentialStore
	hasher    *crypto.Hasher
	jwtSecret string
	jwtExpiry time.Duration
	events    events.Publisher
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(store CredentialStore, hasher *crypto.Hasher, secret string, expiry time.Duration, pub events.Publisher) *AuthService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &AuthService{
		store:     store,
		hasher:    hasher,
		jwtSecret: secret,
		jwtExpiry: expiry,
		events:    pub,
		now:       time.Now,
	}
}

// CheckInitStatus reports whether a credential exists.
func (s *AuthService) CheckInitStatus(ctx context.Context) (model.InitStatus, error) {
	ok, err := s.store.Exists(ctx)
	if err != nil {
		return model.InitStatus{}, err
	}
	return model.InitStatus{Initialized: ok}, nil
}

// Initialize hashes and stores the secret. It succeeds at most once.
func (s *AuthService) Initialize(ctx context.Context, req model.SecretRequest) error {
	if strings.TrimSpace(req.Password) == "" {
		return ErrSecretRequired
	}

	exists, err := s.store.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInitialized
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return err
	}

	// A concurrent Initialize may have won between Exists and Create; the
	// store's uniqueness constraint decides.
	if err := s.store.Create(ctx, &model.Credential{SecretHash: hash}); err != nil {
		if errors.Is(err, repository.ErrCredentialExists) {
			return ErrAlreadyInitialized
		}
		return err
	}

	s.publish(ctx, events.Event{Type: events.TypeInitialized})
	return nil
}

// Login verifies the secret and returns a signed bearer token.
func (s *AuthService) Login(ctx context.Context, req model.SecretRequest) (model.LoginResponse, error) {
	if strings.TrimSpace(req.Password) == "" {
		return model.LoginResponse{}, ErrSecretRequired
	}

	cred, err := s.store.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return model.LoginResponse{}, ErrNotInitialized
		}
		return model.LoginResponse{}, err
	}

	match, err := s.hasher.Verify(req.Password, cred.SecretHash)
	if err != nil {
		return model.LoginResponse{}, err
	}
	if !match {
		return model.LoginResponse{}, ErrInvalidCredentials
	}

	token, err := crypto.SignToken(crypto.NewClaims(s.now()), s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.LoginResponse{}, err
	}

	return model.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.jwtExpiry / time.Second),
	}, nil
}

// Authenticate verifies a bearer token issued by Login.
func (s *AuthService) Authenticate(token string) (*crypto.Claims, error) {
	return crypto.VerifyToken(token, s.jwtSecret)
}

func (s *AuthService) publish(ctx context.Context, ev events.Event) {
	ev.OccurredAt = s.now().UTC()
	publishEvent(ctx, s.events, ev)
}
