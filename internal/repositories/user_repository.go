package repositories

import (
	"context"

	"github.com/mroshb/friends_api/internal/models"
	"github.com/mroshb/friends_api/pkg/errors"
	"gorm.io/gorm"
)

type UserRepository struct {
	db       *gorm.DB
	users    *Repository[models.User]
	requests *Repository[models.FriendRequest]
	friends  *Repository[models.Friendship]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db:       db,
		users:    NewRepository[models.User](db),
		requests: NewRepository[models.FriendRequest](db),
		friends:  NewRepository[models.Friendship](db),
	}
}

// AddUser creates a new user. The password must already be hashed.
func (r *UserRepository) AddUser(ctx context.Context, user *models.User) error {
	return r.users.Add(ctx, user)
}

// FindUser retrieves a user by email, nil when absent
func (r *UserRepository) FindUser(ctx context.Context, email string) (*models.User, error) {
	return r.users.FindOne(ctx, models.Filter{"email": email})
}

// FindUserByUsername retrieves a user by username, nil when absent
func (r *UserRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.users.FindOne(ctx, models.Filter{"username": username})
}

// FindUserByID retrieves a user by ID, nil when absent
func (r *UserRepository) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	return r.users.FindOne(ctx, models.Filter{"id": id})
}

// MarkEmailVerified flags the account behind email as verified
func (r *UserRepository) MarkEmailVerified(ctx context.Context, email string) error {
	updated, err := r.users.Update(ctx, models.Filter{"email": email}, map[string]any{"email_verified": true})
	if err != nil {
		return err
	}
	if updated == 0 {
		return errors.New(errors.ErrCodeNotFound, "user not found")
	}
	return nil
}

// DeleteUser removes the user together with every friend request and
// friendship row that references it, in one transaction.
func (r *UserRepository) DeleteUser(ctx context.Context, id uint) (int64, error) {
	var deleted int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := r.requests.WithTx(tx)
		friends := r.friends.WithTx(tx)

		owned := []struct {
			delete func(context.Context, models.Filter) (int64, error)
			filter models.Filter
		}{
			{requests.Delete, models.Filter{"from_user_id": id}},
			{requests.Delete, models.Filter{"to_user_id": id}},
			{friends.Delete, models.Filter{"user_id": id}},
			{friends.Delete, models.Filter{"friend_id": id}},
		}
		for _, o := range owned {
			if _, err := o.delete(ctx, o.filter); err != nil {
				return err
			}
		}

		n, err := r.users.WithTx(tx).Delete(ctx, models.Filter{"id": id})
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, translateError(err, "failed to delete user")
	}

	return deleted, nil
}
