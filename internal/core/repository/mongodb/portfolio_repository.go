package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	database "github.com/duynhne/portfolio-service/internal/core"
	"github.com/duynhne/portfolio-service/internal/core/domain"
)

// PortfolioRepository implements domain.PortfolioRepository on the investorportfolios collection
type PortfolioRepository struct {
	portfolios documentCollection
}

// NewPortfolioRepository creates a portfolio repository on db
func NewPortfolioRepository(db *mongo.Database) *PortfolioRepository {
	return &PortfolioRepository{
		portfolios: newDocumentCollection(db, database.PortfoliosCollection, domain.ErrPortfolioNotFound),
	}
}

// FindPortfolioByID retrieves the portfolio with the given _id
func (r *PortfolioRepository) FindPortfolioByID(ctx context.Context, id string) (domain.Document, error) {
	if id == "" {
		return nil, domain.ErrInvalidID
	}
	return r.portfolios.findOne(ctx, "find_by_id", matchID(domain.IDField, id))
}

// FindPortfolioByUserID retrieves the portfolio whose userId references the user
func (r *PortfolioRepository) FindPortfolioByUserID(ctx context.Context, userID string) (domain.Document, error) {
	if userID == "" {
		return nil, domain.ErrInvalidID
	}
	return r.portfolios.findOne(ctx, "find_by_user", matchID(domain.PortfolioOwnerField, userID))
}

// UpdatePortfolio sets fields on the portfolio with the given _id
func (r *PortfolioRepository) UpdatePortfolio(ctx context.Context, id string, fields domain.Document) (domain.Document, error) {
	return r.portfolios.updateByID(ctx, "update", id, fields)
}

// Insert stores a new portfolio and returns its id
func (r *PortfolioRepository) Insert(ctx context.Context, portfolio domain.Document) (string, error) {
	return r.portfolios.insert(ctx, portfolio)
}

// Clear deletes every portfolio and returns how many were removed
func (r *PortfolioRepository) Clear(ctx context.Context) (int64, error) {
	return r.portfolios.clear(ctx)
}
