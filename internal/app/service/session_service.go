package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pailler/qrlink/internal/app/model"
	"github.com/pailler/qrlink/internal/app/repository"
)

// DefaultSessionHours is the lifetime used when Create is called with a
// non-positive duration... except zero, which is honored literally so an
// immediately-expired session can be produced on purpose.
const DefaultSessionHours = 24

// SessionService manages the anonymous principals that own links created
// without authentication.
type SessionService interface {
	// Create mints a session with an unguessable token, valid for
	// durationHours from now. A negative duration falls back to the
	// default.
	Create(ctx context.Context, userAgent, ipAddress string, durationHours int) (*model.Session, error)
	// Validate reports whether the token maps to a usable session.
	// Unknown or expired tokens are a negative answer, not an error.
	Validate(ctx context.Context, token string) (bool, error)
	// Find returns the usable session for the token, or nil when there
	// is none.
	Find(ctx context.Context, token string) (*model.Session, error)
	// Deactivate soft-deletes the session; calling it again is a no-op.
	Deactivate(ctx context.Context, token string) error
	// SweepExpired hard-deletes expired and deactivated sessions.
	SweepExpired(ctx context.Context) (int64, error)
}

type sessionService struct {
	repo repository.SessionRepository
	now  func() time.Time
}

// NewSessionService returns a repository-backed SessionService.
func NewSessionService(repo repository.SessionRepository) SessionService {
	return &sessionService{repo: repo, now: time.Now}
}

func (s *sessionService) Create(ctx context.Context, userAgent, ipAddress string, durationHours int) (*model.Session, error) {
	if durationHours < 0 {
		durationHours = DefaultSessionHours
	}

	now := s.now()
	session := &model.Session{
		ID: uuid.New().String(),
		// A full UUIDv4: 122 random bits, far beyond guessable.
		SessionToken: uuid.New().String(),
		UserAgent:    userAgent,
		IPAddress:    ipAddress,
		ExpiresAt:    now.Add(time.Duration(durationHours) * time.Hour),
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *sessionService) Validate(ctx context.Context, token string) (bool, error) {
	session, err := s.Find(ctx, token)
	if err != nil {
		return false, err
	}
	return session != nil, nil
}

func (s *sessionService) Find(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if !session.Usable(s.now()) {
		return nil, nil
	}
	return session, nil
}

func (s *sessionService) Deactivate(ctx context.Context, token string) error {
	if err := s.repo.Deactivate(ctx, token); err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	return nil
}

func (s *sessionService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.SweepExpired(ctx, s.now())
}
