// Package memory provides an in-process document store implementing the
// domain repositories. It backs local runs (DB_DRIVER=memory) and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

// Store keeps users and portfolios in separate maps keyed by _id.
// After Close every operation fails with domain.ErrDatabaseUnavailable.
type Store struct {
	mu         sync.RWMutex
	users      map[string]domain.Document
	portfolios map[string]domain.Document
	closed     bool
}

// NewStore creates an empty, open store
func NewStore() *Store {
	return &Store{
		users:      make(map[string]domain.Document),
		portfolios: make(map[string]domain.Document),
	}
}

// FindUserByID implements domain.UserRepository
func (s *Store) FindUserByID(ctx context.Context, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.usable(ctx); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, domain.ErrInvalidID
	}
	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user.Clone(), nil
}

// UpdateUser implements domain.UserRepository
func (s *Store) UpdateUser(ctx context.Context, id string, fields domain.Document) (domain.Document, error) {
	return s.update(ctx, s.users, id, fields, domain.ErrUserNotFound)
}

// FindPortfolioByID implements domain.PortfolioRepository
func (s *Store) FindPortfolioByID(ctx context.Context, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.usable(ctx); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, domain.ErrInvalidID
	}
	p, ok := s.portfolios[id]
	if !ok {
		return nil, domain.ErrPortfolioNotFound
	}
	return p.Clone(), nil
}

// FindPortfolioByUserID implements domain.PortfolioRepository
func (s *Store) FindPortfolioByUserID(ctx context.Context, userID string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.usable(ctx); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, domain.ErrInvalidID
	}
	for _, p := range s.portfolios {
		if owner, ok := p.Owner(); ok && owner == userID {
			return p.Clone(), nil
		}
	}
	return nil, domain.ErrPortfolioNotFound
}

// UpdatePortfolio implements domain.PortfolioRepository
func (s *Store) UpdatePortfolio(ctx context.Context, id string, fields domain.Document) (domain.Document, error) {
	return s.update(ctx, s.portfolios, id, fields, domain.ErrPortfolioNotFound)
}

// InsertUser stores a user, generating an _id when the document has none
func (s *Store) InsertUser(ctx context.Context, user domain.Document) (string, error) {
	return s.insert(ctx, s.users, user)
}

// InsertPortfolio stores a portfolio, generating an _id when the document has none
func (s *Store) InsertPortfolio(ctx context.Context, portfolio domain.Document) (string, error) {
	return s.insert(ctx, s.portfolios, portfolio)
}

// ClearUsers removes every user; portfolios are untouched
func (s *Store) ClearUsers(ctx context.Context) (int64, error) {
	return s.truncate(ctx, s.users)
}

// ClearPortfolios removes every portfolio; users are untouched
func (s *Store) ClearPortfolios(ctx context.Context) (int64, error) {
	return s.truncate(ctx, s.portfolios)
}

// Ping reports whether the store still serves requests
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usable(ctx)
}

// Close marks the store unavailable. Data is kept so a test can inspect it.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// usable must be called with s.mu held
func (s *Store) usable(ctx context.Context) error {
	if s.closed {
		return domain.ErrDatabaseUnavailable
	}
	return ctx.Err()
}

func (s *Store) update(ctx context.Context, coll map[string]domain.Document, id string, fields domain.Document, notFound error) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(ctx); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, domain.ErrInvalidID
	}
	current, ok := coll[id]
	if !ok {
		return nil, notFound
	}

	next := current.Clone()
	for k, v := range fields.Fields() {
		next[k] = v
	}
	coll[id] = next
	return next.Clone(), nil
}

func (s *Store) insert(ctx context.Context, coll map[string]domain.Document, doc domain.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(ctx); err != nil {
		return "", err
	}

	stored := doc.Clone()
	if stored == nil {
		stored = domain.Document{}
	}
	id, ok := stored.ID()
	if !ok {
		if _, present := stored[domain.IDField]; present {
			return "", fmt.Errorf("insert: %w", domain.ErrInvalidID)
		}
		id = uuid.NewString()
	}
	if _, exists := coll[id]; exists {
		return "", fmt.Errorf("insert: duplicate _id %q", id)
	}
	stored[domain.IDField] = id
	coll[id] = stored
	return id, nil
}

func (s *Store) truncate(ctx context.Context, coll map[string]domain.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(ctx); err != nil {
		return 0, err
	}
	n := int64(len(coll))
	clear(coll)
	return n, nil
}
