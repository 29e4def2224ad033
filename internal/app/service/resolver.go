package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pailler/qrlink/internal/app/model"
	"github.com/pailler/qrlink/internal/app/repository"
	"github.com/pailler/qrlink/internal/classify"
	infraProm "github.com/pailler/qrlink/internal/infra/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RequestContext carries the best-effort request attributes a
// resolution enriches the click event with.
type RequestContext struct {
	IPAddress string
	UserAgent string
	Referrer  string
	// Password is the caller-supplied secret for password-gated links.
	Password string
	// QRCodeID is set when the request arrived through a QR scan, so
	// the click is attributed to that code as well.
	QRCodeID *string
}

// Resolution is a successful redirect decision.
type Resolution struct {
	DestinationURL string
}

// ResolverDeps groups what the resolver needs.
type ResolverDeps struct {
	Links    repository.LinkRepository
	Recorder ClickRecorder
	Geo      *classify.GeoClassifier
	Codes    *CodeFilter
	Cache    *LinkCache
	Logger   *zap.Logger
}

// Resolver validates a short code against link policy, records the
// click, and returns the destination. The expiry check always runs
// before the cap check so simultaneous violations report Expired.
type Resolver struct {
	links    repository.LinkRepository
	recorder ClickRecorder
	geo      *classify.GeoClassifier
	codes    *CodeFilter
	cache    *LinkCache
	logger   *zap.Logger
	now      func() time.Time
}

// NewResolver builds a resolver. Codes and Cache may be nil; both are
// pure accelerations of the repository lookup.
func NewResolver(deps ResolverDeps) *Resolver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		links:    deps.Links,
		recorder: deps.Recorder,
		geo:      deps.Geo,
		codes:    deps.Codes,
		cache:    deps.Cache,
		logger:   logger,
		now:      time.Now,
	}
}

// Resolve maps a short code to its destination, recording exactly one
// click event and one counter increment per success.
func (r *Resolver) Resolve(ctx context.Context, shortCode string, req RequestContext) (*Resolution, error) {
	if shortCode == "" {
		return nil, fmt.Errorf("%w: empty short code", ErrValidation)
	}

	if r.codes != nil && !r.codes.MightContain(shortCode) {
		infraProm.RedirectsTotal.WithLabelValues(infraProm.ResultNotFound).Inc()
		return nil, ErrNotFound
	}

	link := r.cache.Get(ctx, shortCode)
	if link == nil {
		var err error
		link, err = r.links.GetByCode(ctx, shortCode)
		if err != nil {
			if errors.Is(err, repository.ErrLinkNotFound) {
				infraProm.RedirectsTotal.WithLabelValues(infraProm.ResultNotFound).Inc()
				return nil, ErrNotFound
			}
			infraProm.RedirectsTotal.WithLabelValues(infraProm.ResultError).Inc()
			return nil, fmt.Errorf("%w: load link: %v", ErrStorage, err)
		}
		r.cache.Set(ctx, link)
	}

	now := r.now()
	if link.Expired(now) {
		infraProm.RedirectsTotal.WithLabelValues(infraProm.ResultExpired).Inc()
		return nil, ErrExpired
	}
	// The counter only grows, so a cap observed on a stale cached row is
	// already final. The authoritative guard is the conditional consume
	// below; this just skips a doomed write.
	if link.CapReached() {
		infraProm.RedirectsTotal.WithLabelValues(infraProm.ResultLimitReached).Inc()
		return nil, ErrLimitReached
	}
	if link.PasswordProtected() {
		if req.Password == "" ||
			bcrypt.CompareHashAndPassword([]byte(*link.PasswordHash), []byte(req.Password)) != nil {
			infraProm.RedirectsTotal.WithLabelValues(infraProm.ResultPasswordDenied).Inc()
			return nil, ErrPasswordRequired
		}
	}

	event := r.buildEvent(link, req, now)
	if err := r.recorder.ConsumeAndRecord(ctx, event); err != nil {
		switch {
		case errors.Is(err, repository.ErrLinkCapReached):
			infraProm.RedirectsTotal.WithLabelValues(infraProm.ResultLimitReached).Inc()
			return nil, ErrLimitReached
		case errors.Is(err, repository.ErrLinkNotFound):
			// The link vanished between the policy read and the consume.
			infraProm.RedirectsTotal.WithLabelValues(infraProm.ResultNotFound).Inc()
			return nil, ErrNotFound
		}
		infraProm.RedirectsTotal.WithLabelValues(infraProm.ResultError).Inc()
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	infraProm.RedirectsTotal.WithLabelValues(infraProm.ResultResolved).Inc()
	r.logger.Debug("resolved short link",
		zap.String("code", shortCode),
		zap.String("target", link.DestinationURL))
	return &Resolution{DestinationURL: link.DestinationURL}, nil
}

// buildEvent enriches the raw request into a click event. Classification
// never fails; unknown attributes stay nil.
func (r *Resolver) buildEvent(link *model.Link, req RequestContext, now time.Time) *model.ClickEvent {
	var geo classify.Geo
	if r.geo != nil {
		geo = r.geo.Classify(req.IPAddress)
	}
	device := classify.ClassifyDevice(req.UserAgent)

	var referrer *string
	if req.Referrer != "" {
		value := req.Referrer
		referrer = &value
	}
	deviceType := device.DeviceType

	return &model.ClickEvent{
		ID:            uuid.New().String(),
		LinkID:        link.ID,
		QRCodeID:      req.QRCodeID,
		IPAddress:     req.IPAddress,
		UserAgent:     req.UserAgent,
		Referrer:      referrer,
		Country:       geo.Country,
		City:          geo.City,
		DeviceType:    &deviceType,
		Browser:       device.Browser,
		OS:            device.OS,
		ReferrerClass: classify.ClassifyReferrer(req.Referrer),
		OccurredAt:    now,
	}
}
