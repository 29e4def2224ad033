package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pailler/qrlink/internal/app/model"
	"github.com/pailler/qrlink/internal/app/repository"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeCharset    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength     = 6
	codeMaxRetries = 5
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// Principal identifies who owns a link: an authenticated user id (passed
// through by the upstream gateway) or a validated anonymous session.
type Principal struct {
	UserID    *string
	SessionID *string
}

// Empty reports whether no identity is present.
func (p Principal) Empty() bool {
	return p.UserID == nil && p.SessionID == nil
}

// owns reports whether the principal may manage the link.
func (p Principal) owns(link *model.Link) bool {
	if p.UserID != nil && link.OwnerID != nil && *p.UserID == *link.OwnerID {
		return true
	}
	if p.SessionID != nil && link.SessionID != nil && *p.SessionID == *link.SessionID {
		return true
	}
	return false
}

// LinkService defines behaviour-level operations on links.
type LinkService interface {
	CreateLink(ctx context.Context, principal Principal, input CreateLinkInput) (*model.Link, error)
	GetLink(ctx context.Context, principal Principal, id string) (*model.Link, error)
	ListLinks(ctx context.Context, principal Principal, limit, offset int) ([]model.Link, error)
	UpdateLink(ctx context.Context, principal Principal, id string, input UpdateLinkInput) (*model.Link, error)
	DeleteLink(ctx context.Context, principal Principal, id string) error
}

type linkService struct {
	repo  repository.LinkRepository
	codes *CodeFilter
	cache *LinkCache
}

// NewLinkService returns a service implementation backed by the given
// repository. Codes and cache may be nil.
func NewLinkService(repo repository.LinkRepository, codes *CodeFilter, cache *LinkCache) LinkService {
	return &linkService{repo: repo, codes: codes, cache: cache}
}

// CreateLinkInput captures data required to create a link. A non-empty
// Password gates resolution; only its bcrypt hash is stored.
type CreateLinkInput struct {
	DestinationURL string
	CustomAlias    string
	Title          string
	Description    string
	ExpiresAt      *time.Time
	MaxClicks      *int
	Password       string
}

// UpdateLinkInput captures fields that can be changed on an existing
// link. The short code itself is immutable. Nil pointers leave a field
// untouched; the Clear flags reset their optional field to unset and
// win over a pointer supplied in the same request.
type UpdateLinkInput struct {
	DestinationURL *string
	Title          *string
	Description    *string
	ExpiresAt      *time.Time
	MaxClicks      *int
	Password       *string
	ClearExpiry    bool
	ClearMaxClicks bool
	ClearPassword  bool
}

func (s *linkService) CreateLink(ctx context.Context, principal Principal, input CreateLinkInput) (*model.Link, error) {
	if principal.Empty() {
		return nil, ErrSessionRequired
	}
	if err := validateDestination(input.DestinationURL); err != nil {
		return nil, err
	}
	if input.MaxClicks != nil && *input.MaxClicks < 1 {
		return nil, fmt.Errorf("%w: max_clicks must be positive", ErrValidation)
	}
	if input.CustomAlias != "" && !aliasPattern.MatchString(input.CustomAlias) {
		return nil, fmt.Errorf("%w: alias must be 3-32 chars of [A-Za-z0-9_-]", ErrValidation)
	}
	passwordHash, err := hashLinkPassword(input.Password)
	if err != nil {
		return nil, err
	}

	link := &model.Link{
		ID:             uuid.New().String(),
		OwnerID:        principal.UserID,
		SessionID:      principal.SessionID,
		DestinationURL: input.DestinationURL,
		Title:          input.Title,
		Description:    input.Description,
		ExpiresAt:      input.ExpiresAt,
		MaxClicks:      input.MaxClicks,
		PasswordHash:   passwordHash,
	}

	if input.CustomAlias != "" {
		link.ShortCode = input.CustomAlias
		if err := s.repo.Create(ctx, link); err != nil {
			if errors.Is(err, repository.ErrShortCodeTaken) {
				return nil, fmt.Errorf("%w: alias %q already taken", ErrValidation, input.CustomAlias)
			}
			return nil, fmt.Errorf("create link: %w", err)
		}
	} else if err := s.createWithGeneratedCode(ctx, link); err != nil {
		return nil, err
	}

	if s.codes != nil {
		s.codes.Add(link.ShortCode)
	}
	return link, nil
}

// createWithGeneratedCode retries on the rare random-code collision.
func (s *linkService) createWithGeneratedCode(ctx context.Context, link *model.Link) error {
	for attempt := 0; attempt < codeMaxRetries; attempt++ {
		code, err := generateShortCode()
		if err != nil {
			return fmt.Errorf("generate short code: %w", err)
		}

		link.ShortCode = code
		err = s.repo.Create(ctx, link)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrShortCodeTaken) {
			return fmt.Errorf("create link: %w", err)
		}
	}
	return fmt.Errorf("%w: could not allocate a unique short code", ErrStorage)
}

func (s *linkService) GetLink(ctx context.Context, principal Principal, id string) (*model.Link, error) {
	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get link: %w", err)
	}
	if !principal.owns(link) {
		return nil, ErrNotFound
	}
	return link, nil
}

func (s *linkService) ListLinks(ctx context.Context, principal Principal, limit, offset int) ([]model.Link, error) {
	if principal.Empty() {
		return nil, ErrSessionRequired
	}

	filter := repository.LinkFilter{
		OwnerID:   principal.UserID,
		SessionID: principal.SessionID,
		Limit:     limit,
		Offset:    offset,
	}
	links, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *linkService) UpdateLink(ctx context.Context, principal Principal, id string, input UpdateLinkInput) (*model.Link, error) {
	link, err := s.GetLink(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if input.DestinationURL != nil {
		if err := validateDestination(*input.DestinationURL); err != nil {
			return nil, err
		}
		link.DestinationURL = *input.DestinationURL
	}
	if input.Title != nil {
		link.Title = *input.Title
	}
	if input.Description != nil {
		link.Description = *input.Description
	}
	if input.ExpiresAt != nil {
		link.ExpiresAt = input.ExpiresAt
	}
	if input.MaxClicks != nil {
		if *input.MaxClicks < 1 {
			return nil, fmt.Errorf("%w: max_clicks must be positive", ErrValidation)
		}
		link.MaxClicks = input.MaxClicks
	}
	if input.Password != nil {
		hash, err := hashLinkPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		link.PasswordHash = hash
	}
	if input.ClearExpiry {
		link.ExpiresAt = nil
	}
	if input.ClearMaxClicks {
		link.MaxClicks = nil
	}
	if input.ClearPassword {
		link.PasswordHash = nil
	}

	if err := s.repo.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}
	s.cache.Invalidate(ctx, link.ShortCode)
	return link, nil
}

func (s *linkService) DeleteLink(ctx context.Context, principal Principal, id string) error {
	link, err := s.GetLink(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	s.cache.Invalidate(ctx, link.ShortCode)
	return nil
}

func validateDestination(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: destination_url is required", ErrValidation)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: destination_url must be an absolute http(s) URL", ErrValidation)
	}
	return nil
}

// hashLinkPassword bcrypt-hashes a non-empty password. Empty means the
// link is not gated and stores no hash.
func hashLinkPassword(password string) (*string, error) {
	if password == "" {
		return nil, nil
	}
	// bcrypt refuses inputs over 72 bytes.
	if len(password) > 72 {
		return nil, fmt.Errorf("%w: password must be at most 72 bytes", ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	value := string(hash)
	return &value, nil
}

func generateShortCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[n.Int64()]
	}
	return string(code), nil
}
