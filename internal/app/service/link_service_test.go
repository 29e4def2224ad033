package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pailler/qrlink/internal/app/model"
	"github.com/pailler/qrlink/internal/app/repository"
	"golang.org/x/crypto/bcrypt"
)

type mockLinkRepository struct {
	createFn   func(ctx context.Context, link *model.Link) error
	getCodeFn  func(ctx context.Context, code string) (*model.Link, error)
	getIDFn    func(ctx context.Context, id string) (*model.Link, error)
	listFn     func(ctx context.Context, filter repository.LinkFilter) ([]model.Link, error)
	updateFn   func(ctx context.Context, link *model.Link) error
	deleteFn   func(ctx context.Context, id string) error
	allCodesFn func(ctx context.Context) ([]string, error)
}

func (m *mockLinkRepository) Create(ctx context.Context, link *model.Link) error {
	if m.createFn != nil {
		return m.createFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	if m.getCodeFn != nil {
		return m.getCodeFn(ctx, code)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) GetByID(ctx context.Context, id string) (*model.Link, error) {
	if m.getIDFn != nil {
		return m.getIDFn(ctx, id)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) List(ctx context.Context, filter repository.LinkFilter) ([]model.Link, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockLinkRepository) Update(ctx context.Context, link *model.Link) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockLinkRepository) AllCodes(ctx context.Context) ([]string, error) {
	if m.allCodesFn != nil {
		return m.allCodesFn(ctx)
	}
	return nil, nil
}

func sessionPrincipal(id string) Principal {
	return Principal{SessionID: &id}
}

func TestLinkService_CreateLink_GeneratesCode(t *testing.T) {
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			if len(link.ShortCode) != codeLength {
				t.Fatalf("expected %d-char code, got %q", codeLength, link.ShortCode)
			}
			if link.SessionID == nil || *link.SessionID != "sess-1" {
				t.Fatal("expected session ownership to be recorded")
			}
			return nil
		},
	}

	svc := NewLinkService(repo, nil, nil)
	link, err := svc.CreateLink(context.Background(), sessionPrincipal("sess-1"), CreateLinkInput{
		DestinationURL: "https://example.com/page",
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if link.ShortCode == "" {
		t.Fatal("expected generated short code")
	}
}

func TestLinkService_CreateLink_CustomAlias(t *testing.T) {
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			if link.ShortCode != "my-link" {
				t.Fatalf("expected custom alias, got %q", link.ShortCode)
			}
			return nil
		},
	}

	svc := NewLinkService(repo, nil, nil)
	_, err := svc.CreateLink(context.Background(), sessionPrincipal("sess-1"), CreateLinkInput{
		DestinationURL: "https://example.com",
		CustomAlias:    "my-link",
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
}

func TestLinkService_CreateLink_AliasTaken(t *testing.T) {
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			return repository.ErrShortCodeTaken
		},
	}

	svc := NewLinkService(repo, nil, nil)
	_, err := svc.CreateLink(context.Background(), sessionPrincipal("sess-1"), CreateLinkInput{
		DestinationURL: "https://example.com",
		CustomAlias:    "taken",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for taken alias, got %v", err)
	}
}

func TestLinkService_CreateLink_RetriesOnCollision(t *testing.T) {
	calls := 0
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			calls++
			if calls < 3 {
				return repository.ErrShortCodeTaken
			}
			return nil
		},
	}

	svc := NewLinkService(repo, nil, nil)
	_, err := svc.CreateLink(context.Background(), sessionPrincipal("sess-1"), CreateLinkInput{
		DestinationURL: "https://example.com",
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 create attempts, got %d", calls)
	}
}

func TestLinkService_CreateLink_Validation(t *testing.T) {
	svc := NewLinkService(&mockLinkRepository{}, nil, nil)
	principal := sessionPrincipal("sess-1")
	zero := 0

	cases := []struct {
		name  string
		input CreateLinkInput
	}{
		{"empty destination", CreateLinkInput{}},
		{"relative destination", CreateLinkInput{DestinationURL: "/local/path"}},
		{"bad scheme", CreateLinkInput{DestinationURL: "ftp://example.com"}},
		{"alias too short", CreateLinkInput{DestinationURL: "https://example.com", CustomAlias: "ab"}},
		{"alias bad chars", CreateLinkInput{DestinationURL: "https://example.com", CustomAlias: "has space"}},
		{"non-positive cap", CreateLinkInput{DestinationURL: "https://example.com", MaxClicks: &zero}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateLink(context.Background(), principal, tc.input); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestLinkService_CreateLink_RequiresIdentity(t *testing.T) {
	svc := NewLinkService(&mockLinkRepository{}, nil, nil)
	_, err := svc.CreateLink(context.Background(), Principal{}, CreateLinkInput{
		DestinationURL: "https://example.com",
	})
	if !errors.Is(err, ErrSessionRequired) {
		t.Fatalf("expected ErrSessionRequired, got %v", err)
	}
}

func TestLinkService_GetLink_OwnershipHidesForeignLinks(t *testing.T) {
	other := "sess-other"
	repo := &mockLinkRepository{
		getIDFn: func(ctx context.Context, id string) (*model.Link, error) {
			return &model.Link{ID: id, SessionID: &other}, nil
		},
	}

	svc := NewLinkService(repo, nil, nil)
	_, err := svc.GetLink(context.Background(), sessionPrincipal("sess-1"), "link-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign link, got %v", err)
	}
}

func TestLinkService_UpdateLink(t *testing.T) {
	owner := "sess-1"
	expires := time.Now().Add(time.Hour)
	repo := &mockLinkRepository{
		getIDFn: func(ctx context.Context, id string) (*model.Link, error) {
			return &model.Link{ID: id, ShortCode: "abc123", SessionID: &owner, DestinationURL: "https://old.example.com"}, nil
		},
		updateFn: func(ctx context.Context, link *model.Link) error {
			if link.DestinationURL != "https://new.example.com" {
				t.Fatalf("expected updated URL, got %s", link.DestinationURL)
			}
			if link.ExpiresAt == nil || !link.ExpiresAt.Equal(expires) {
				t.Fatal("expected expiresAt to be set")
			}
			return nil
		},
	}

	svc := NewLinkService(repo, nil, nil)
	dest := "https://new.example.com"
	_, err := svc.UpdateLink(context.Background(), sessionPrincipal(owner), "link-1", UpdateLinkInput{
		DestinationURL: &dest,
		ExpiresAt:      &expires,
	})
	if err != nil {
		t.Fatalf("UpdateLink error: %v", err)
	}
}

func TestLinkService_CreateLink_PasswordStoredAsHash(t *testing.T) {
	repo := &mockLinkRepository{}

	svc := NewLinkService(repo, nil, nil)
	link, err := svc.CreateLink(context.Background(), sessionPrincipal("sess-1"), CreateLinkInput{
		DestinationURL: "https://example.com/page",
		Password:       "open-sesame",
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if link.PasswordHash == nil || *link.PasswordHash == "open-sesame" {
		t.Fatal("expected a stored hash, not the raw password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*link.PasswordHash), []byte("open-sesame")); err != nil {
		t.Fatalf("stored hash does not verify the password: %v", err)
	}
}

func TestLinkService_CreateLink_PasswordTooLong(t *testing.T) {
	svc := NewLinkService(&mockLinkRepository{}, nil, nil)
	_, err := svc.CreateLink(context.Background(), sessionPrincipal("sess-1"), CreateLinkInput{
		DestinationURL: "https://example.com/page",
		Password:       strings.Repeat("x", 73),
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for an oversized password, got %v", err)
	}
}

// Clear flags reset optional fields, so a capped or expiring link can be
// made open-ended again over PATCH.
func TestLinkService_UpdateLink_ClearFlags(t *testing.T) {
	owner := "sess-1"
	expires := time.Now().Add(time.Hour)
	maxClicks := 10
	hash := "$2a$04$notarealhashbutpresent"
	repo := &mockLinkRepository{
		getIDFn: func(ctx context.Context, id string) (*model.Link, error) {
			return &model.Link{
				ID:           id,
				ShortCode:    "abc123",
				SessionID:    &owner,
				ExpiresAt:    &expires,
				MaxClicks:    &maxClicks,
				PasswordHash: &hash,
			}, nil
		},
		updateFn: func(ctx context.Context, link *model.Link) error {
			if link.ExpiresAt != nil {
				t.Fatal("expected expiry to be cleared")
			}
			if link.MaxClicks != nil {
				t.Fatal("expected click cap to be cleared")
			}
			if link.PasswordHash != nil {
				t.Fatal("expected password to be cleared")
			}
			return nil
		},
	}

	svc := NewLinkService(repo, nil, nil)
	_, err := svc.UpdateLink(context.Background(), sessionPrincipal(owner), "link-1", UpdateLinkInput{
		ClearExpiry:    true,
		ClearMaxClicks: true,
		ClearPassword:  true,
	})
	if err != nil {
		t.Fatalf("UpdateLink error: %v", err)
	}
}

func TestLinkService_DeleteLink(t *testing.T) {
	owner := "sess-1"
	deleted := false
	repo := &mockLinkRepository{
		getIDFn: func(ctx context.Context, id string) (*model.Link, error) {
			return &model.Link{ID: id, ShortCode: "abc123", SessionID: &owner}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}

	svc := NewLinkService(repo, nil, nil)
	if err := svc.DeleteLink(context.Background(), sessionPrincipal(owner), "link-1"); err != nil {
		t.Fatalf("DeleteLink error: %v", err)
	}
	if !deleted {
		t.Fatal("expected repository delete to be called")
	}
}

func TestLinkService_ListLinks(t *testing.T) {
	repo := &mockLinkRepository{
		listFn: func(ctx context.Context, filter repository.LinkFilter) ([]model.Link, error) {
			if filter.SessionID == nil || *filter.SessionID != "sess-1" {
				t.Fatal("expected list to be scoped to the caller")
			}
			return []model.Link{{ShortCode: "a"}, {ShortCode: "b"}}, nil
		},
	}

	svc := NewLinkService(repo, nil, nil)
	list, err := svc.ListLinks(context.Background(), sessionPrincipal("sess-1"), 10, 0)
	if err != nil {
		t.Fatalf("ListLinks error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 links, got %d", len(list))
	}
}
