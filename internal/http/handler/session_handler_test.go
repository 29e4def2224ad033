package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pailler/qrlink/internal/app/model"
	"github.com/pailler/qrlink/internal/app/repository"
	"github.com/pailler/qrlink/internal/app/service"
	"github.com/pailler/qrlink/internal/http/middleware"
)

// stubSessionRepository keeps sessions in memory.
type stubSessionRepository struct {
	sessions map[string]*model.Session
}

func newStubSessionRepository() *stubSessionRepository {
	return &stubSessionRepository{sessions: map[string]*model.Session{}}
}

func (s *stubSessionRepository) Create(ctx context.Context, session *model.Session) error {
	s.sessions[session.SessionToken] = session
	return nil
}

func (s *stubSessionRepository) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	if session, ok := s.sessions[token]; ok {
		return session, nil
	}
	return nil, repository.ErrSessionNotFound
}

func (s *stubSessionRepository) Deactivate(ctx context.Context, token string) error {
	if session, ok := s.sessions[token]; ok {
		session.IsActive = false
	}
	return nil
}

func (s *stubSessionRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func newSessionApp(repo repository.SessionRepository) *fiber.App {
	app := fiber.New()
	api := app.Group("/api")
	NewSessionHandler(SessionDeps{
		Sessions: service.NewSessionService(repo),
	}).Register(api)
	return app
}

func TestSessionHandler_CreateAndRevoke(t *testing.T) {
	repo := newStubSessionRepository()
	app := newSessionApp(repo)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/sessions", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var created SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if created.SessionToken == "" {
		t.Fatal("expected a session token")
	}
	if time.Until(created.ExpiresAt) <= 0 {
		t.Fatal("expected a future expiry")
	}

	req := httptest.NewRequest(fiber.MethodDelete, "/api/sessions", nil)
	req.Header.Set(middleware.SessionHeader, created.SessionToken)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if repo.sessions[created.SessionToken].IsActive {
		t.Fatal("expected session deactivated")
	}
}

func TestSessionHandler_CreateWithDuration(t *testing.T) {
	app := newSessionApp(newStubSessionRepository())

	req := httptest.NewRequest(fiber.MethodPost, "/api/sessions", strings.NewReader(`{"duration_hours": 48}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var created SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	until := time.Until(created.ExpiresAt)
	if until < 47*time.Hour || until > 49*time.Hour {
		t.Fatalf("expected ~48h lifetime, got %v", until)
	}
}

func TestSessionHandler_RevokeWithoutToken(t *testing.T) {
	app := newSessionApp(newStubSessionRepository())

	resp, err := app.Test(httptest.NewRequest(fiber.MethodDelete, "/api/sessions", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
