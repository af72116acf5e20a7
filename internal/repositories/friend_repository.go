package repositories

import (
	"context"

	"github.com/mroshb/friends_api/internal/models"
	"github.com/mroshb/friends_api/pkg/errors"
	"github.com/mroshb/friends_api/pkg/logger"
	"gorm.io/gorm"
)

type FriendRepository struct {
	db       *gorm.DB
	requests *Repository[models.FriendRequest]
	friends  *Repository[models.Friendship]
}

func NewFriendRepository(db *gorm.DB) *FriendRepository {
	return &FriendRepository{
		db:       db,
		requests: NewRepository[models.FriendRequest](db),
		friends:  NewRepository[models.Friendship](db),
	}
}

// AddRequest creates a new friend request. A second request for the same
// ordered pair fails on the store's unique index.
func (r *FriendRepository) AddRequest(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error) {
	request := &models.FriendRequest{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
	}

	if err := r.requests.Add(ctx, request); err != nil {
		return nil, err
	}

	return request, nil
}

// FindRequest retrieves the pending request from one user to another, nil when absent
func (r *FriendRepository) FindRequest(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error) {
	return r.requests.FindOne(ctx, models.Filter{"from_user_id": fromUserID, "to_user_id": toUserID})
}

// FindIncomingRequest retrieves a request by ID only if it is addressed to toUserID
func (r *FriendRepository) FindIncomingRequest(ctx context.Context, requestID, toUserID uint) (*models.FriendRequest, error) {
	return r.requests.FindOne(ctx, models.Filter{"id": requestID, "to_user_id": toUserID})
}

// ListSentRequests retrieves requests the user has sent
func (r *FriendRepository) ListSentRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return r.requests.FindAll(ctx, models.Filter{"from_user_id": userID})
}

// ListIncomingRequests retrieves requests addressed to the user
func (r *FriendRepository) ListIncomingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return r.requests.FindAll(ctx, models.Filter{"to_user_id": userID})
}

// DeleteIncomingRequest removes a request by ID if it is addressed to toUserID
func (r *FriendRepository) DeleteIncomingRequest(ctx context.Context, requestID, toUserID uint) (int64, error) {
	return r.requests.Delete(ctx, models.Filter{"id": requestID, "to_user_id": toUserID})
}

// DeleteRequest removes the pending request from one user to another
func (r *FriendRepository) DeleteRequest(ctx context.Context, fromUserID, toUserID uint) (int64, error) {
	return r.requests.Delete(ctx, models.Filter{"from_user_id": fromUserID, "to_user_id": toUserID})
}

// AcceptRequest turns a request into a friendship pair. Deleting the request,
// writing both directed rows and dropping any reverse request happen in one
// transaction. Rows that already exist are left alone, so accepting is
// idempotent with respect to the friendship pair.
func (r *FriendRepository) AcceptRequest(ctx context.Context, request *models.FriendRequest) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := r.requests.WithTx(tx)
		friends := r.friends.WithTx(tx)

		deleted, err := requests.Delete(ctx, models.Filter{"id": request.ID})
		if err != nil {
			return err
		}
		if deleted == 0 {
			// Declined or accepted concurrently
			return errors.New(errors.ErrCodeNotFound, "friend request not found or already processed")
		}

		pair := []models.Friendship{
			{UserID: request.FromUserID, FriendID: request.ToUserID},
			{UserID: request.ToUserID, FriendID: request.FromUserID},
		}
		if _, err := friends.AddMissing(ctx, pair); err != nil {
			return err
		}

		_, err = requests.Delete(ctx, models.Filter{"from_user_id": request.ToUserID, "to_user_id": request.FromUserID})
		return err
	})

	return translateError(err, "failed to accept friend request")
}

// AreFriends checks if two users are friends
func (r *FriendRepository) AreFriends(ctx context.Context, userID, friendID uint) (bool, error) {
	count, err := r.friends.Count(ctx, models.Filter{"user_id": userID, "friend_id": friendID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFriends retrieves the users on the other side of userID's friendships
func (r *FriendRepository) ListFriends(ctx context.Context, userID uint) ([]models.User, error) {
	friends := make([]models.User, 0)

	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN friends ON friends.friend_id = users.id").
		Where("friends.user_id = ?", userID).
		Order("friends.since").
		Find(&friends).Error

	if err != nil {
		return nil, translateError(err, "failed to get friends")
	}

	return friends, nil
}

// RemoveFriendship deletes both directed rows of a pair in one transaction
// and returns how many rows were removed. A lone row means the pair was
// asymmetric; it is removed all the same and reported.
func (r *FriendRepository) RemoveFriendship(ctx context.Context, userID, friendID uint) (int64, error) {
	var removed int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		friends := r.friends.WithTx(tx)

		for _, f := range []models.Filter{
			{"user_id": userID, "friend_id": friendID},
			{"user_id": friendID, "friend_id": userID},
		} {
			n, err := friends.Delete(ctx, f)
			if err != nil {
				return err
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		return 0, translateError(err, "failed to remove friend")
	}

	if removed == 1 {
		logger.Warn("Repaired asymmetric friendship", "user_id", userID, "friend_id", friendID)
	}

	return removed, nil
}
