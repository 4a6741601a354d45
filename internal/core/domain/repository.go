package domain

import "context"

// UserRepository defines data access for the users collection.
type UserRepository interface {
	FindUserByID(ctx context.Context, id string) (Document, error)
	// UpdateUser sets fields on the user and returns the stored document after the update.
	UpdateUser(ctx context.Context, id string, fields Document) (Document, error)
}

// PortfolioRepository defines data access for the investorportfolios collection.
type PortfolioRepository interface {
	FindPortfolioByID(ctx context.Context, id string) (Document, error)
	FindPortfolioByUserID(ctx context.Context, userID string) (Document, error)
	// UpdatePortfolio sets fields on the portfolio and returns the stored document after the update.
	UpdatePortfolio(ctx context.Context, id string, fields Document) (Document, error)
}
