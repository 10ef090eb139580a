package repositories

import (
	"context"
	"errors"

	"github.com/rohits-web03/docvault/internal/models"
	"gorm.io/gorm"
)

var ErrUsernameTaken = errors.New("username already exists")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user. The unique index on username makes this the
// atomic "insert if not taken" check.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUsernameTaken
	}
	// Not every driver error is translated; fall back to a lookup.
	var existing models.User
	if lookupErr := r.db.WithContext(ctx).Where("username = ?", user.Username).First(&existing).Error; lookupErr == nil {
		return ErrUsernameTaken
	}
	return err
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureUser creates the user unless the username already exists. It reports
// whether a row was inserted.
func (r *UserRepository) EnsureUser(ctx context.Context, user *models.User) (bool, error) {
	err := r.Create(ctx, user)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUsernameTaken):
		return false, nil
	default:
		return false, err
	}
}
