package v1

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/portfolio-service/internal/core/domain"
	"github.com/duynhne/portfolio-service/middleware"
)

// ProfileCache is the read-through cache in front of profile lookups.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (*domain.Profile, bool, error)
	Set(ctx context.Context, userID string, profile *domain.Profile) error
	Invalidate(ctx context.Context, userID string) error
}

// HealthChecker reports whether the document store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ProfileService implements profile reads and user/portfolio edits
type ProfileService struct {
	users      domain.UserRepository
	portfolios domain.PortfolioRepository
	cache      ProfileCache
	health     HealthChecker
}

// NewProfileService creates a profile service. cache may be nil.
// A cached profile is only served while health reports the store reachable,
// so an outage surfaces the same way with or without the cache.
func NewProfileService(users domain.UserRepository, portfolios domain.PortfolioRepository, cache ProfileCache, health HealthChecker) *ProfileService {
	return &ProfileService{
		users:      users,
		portfolios: portfolios,
		cache:      cache,
		health:     health,
	}
}

// GetProfile returns the user and the portfolio whose userId references it.
// A user without a portfolio yields a profile with a nil Portfolio.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, span := middleware.StartSpan(ctx, "profile.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", userID),
	))
	defer span.End()

	if userID == "" {
		return nil, fmt.Errorf("get profile: %w", domain.ErrInvalidID)
	}

	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, userID)
		switch {
		case err != nil:
			// cache trouble degrades to a database read
			span.AddEvent("cache.error", trace.WithAttributes(attribute.String("error", err.Error())))
		case found:
			if err := s.ping(ctx); err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("get profile %q: %w", userID, err)
			}
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
		span.SetAttributes(attribute.Bool("cache.hit", false))
	}

	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		span.SetAttributes(attribute.Bool("user.found", false))
		if !errors.Is(err, domain.ErrUserNotFound) {
			span.RecordError(err)
		}
		return nil, fmt.Errorf("get user %q: %w", userID, err)
	}
	span.SetAttributes(attribute.Bool("user.found", true))

	portfolio, err := s.portfolios.FindPortfolioByUserID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrPortfolioNotFound):
		span.SetAttributes(attribute.Bool("portfolio.found", false))
		portfolio = nil
	case err != nil:
		span.RecordError(err)
		return nil, fmt.Errorf("get portfolio of user %q: %w", userID, err)
	default:
		span.SetAttributes(attribute.Bool("portfolio.found", true))
	}

	profile := &domain.Profile{Result: user, Portfolio: portfolio}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, profile); err != nil {
			span.AddEvent("cache.error", trace.WithAttributes(attribute.String("error", err.Error())))
		}
	}

	return profile, nil
}

// EditUser applies every field of edit except _id to the user identified by
// edit's _id and returns the stored user after the update.
func (s *ProfileService) EditUser(ctx context.Context, edit domain.Document) (domain.Document, error) {
	ctx, span := middleware.StartSpan(ctx, "user.edit", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	id, ok := edit.ID()
	if !ok {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, fmt.Errorf("edit user: %w", domain.ErrInvalidID)
	}
	span.SetAttributes(
		attribute.String("user.id", id),
		attribute.Int("edit.fields", len(edit.Fields())),
	)

	updated, err := s.users.UpdateUser(ctx, id, edit)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			span.RecordError(err)
		}
		return nil, fmt.Errorf("edit user %q: %w", id, err)
	}

	s.invalidate(ctx, span, id)
	span.SetAttributes(attribute.Bool("user.updated", true))
	return updated, nil
}

// EditPortfolio applies every field of edit except _id to the portfolio
// identified by edit's _id and returns the stored portfolio after the update.
func (s *ProfileService) EditPortfolio(ctx context.Context, edit domain.Document) (domain.Document, error) {
	ctx, span := middleware.StartSpan(ctx, "portfolio.edit", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	id, ok := edit.ID()
	if !ok {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, fmt.Errorf("edit portfolio: %w", domain.ErrInvalidID)
	}
	span.SetAttributes(
		attribute.String("portfolio.id", id),
		attribute.Int("edit.fields", len(edit.Fields())),
	)

	// an edit that moves the portfolio must also drop the previous owner's profile
	var previousOwner string
	if _, moves := edit[domain.PortfolioOwnerField]; moves && s.cache != nil {
		current, err := s.portfolios.FindPortfolioByID(ctx, id)
		switch {
		case err == nil:
			previousOwner, _ = current.Owner()
		case !errors.Is(err, domain.ErrPortfolioNotFound):
			span.RecordError(err)
			return nil, fmt.Errorf("edit portfolio %q: %w", id, err)
		}
	}

	updated, err := s.portfolios.UpdatePortfolio(ctx, id, edit)
	if err != nil {
		if !errors.Is(err, domain.ErrPortfolioNotFound) {
			span.RecordError(err)
		}
		return nil, fmt.Errorf("edit portfolio %q: %w", id, err)
	}

	owner, ok := updated.Owner()
	if ok {
		s.invalidate(ctx, span, owner)
	}
	if previousOwner != "" && previousOwner != owner {
		s.invalidate(ctx, span, previousOwner)
	}
	span.SetAttributes(attribute.Bool("portfolio.updated", true))
	return updated, nil
}

// ping checks the store before a cached profile is served.
func (s *ProfileService) ping(ctx context.Context) error {
	if s.health == nil {
		return nil
	}
	err := s.health.Ping(ctx)
	if err == nil || errors.Is(err, domain.ErrDatabaseUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrDatabaseUnavailable, err)
}

func (s *ProfileService) invalidate(ctx context.Context, span trace.Span, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		span.AddEvent("cache.error", trace.WithAttributes(attribute.String("error", err.Error())))
	}
}
