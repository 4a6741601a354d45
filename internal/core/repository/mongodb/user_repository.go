package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	database "github.com/duynhne/portfolio-service/internal/core"
	"github.com/duynhne/portfolio-service/internal/core/domain"
)

// UserRepository implements domain.UserRepository on the users collection
type UserRepository struct {
	users documentCollection
}

// NewUserRepository creates a user repository on db
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users: newDocumentCollection(db, database.UsersCollection, domain.ErrUserNotFound),
	}
}

// FindUserByID retrieves a user by _id
func (r *UserRepository) FindUserByID(ctx context.Context, id string) (domain.Document, error) {
	if id == "" {
		return nil, domain.ErrInvalidID
	}
	return r.users.findOne(ctx, "find_by_id", matchID(domain.IDField, id))
}

// UpdateUser sets fields on the user with the given _id
func (r *UserRepository) UpdateUser(ctx context.Context, id string, fields domain.Document) (domain.Document, error) {
	return r.users.updateByID(ctx, "update", id, fields)
}

// Insert stores a new user and returns its id
func (r *UserRepository) Insert(ctx context.Context, user domain.Document) (string, error) {
	return r.users.insert(ctx, user)
}

// Clear deletes every user and returns how many were removed
func (r *UserRepository) Clear(ctx context.Context) (int64, error) {
	return r.users.clear(ctx)
}
