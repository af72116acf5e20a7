package services

import (
	"context"

	"github.com/mroshb/friends_api/internal/models"
)

// UserStore is the subset of the user repository the services need
type UserStore interface {
	AddUser(ctx context.Context, user *models.User) error
	FindUser(ctx context.Context, email string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	MarkEmailVerified(ctx context.Context, email string) error
	DeleteUser(ctx context.Context, id uint) (int64, error)
}

// FriendStore is the subset of the friend repository the services need
type FriendStore interface {
	AddRequest(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error)
	FindRequest(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error)
	FindIncomingRequest(ctx context.Context, requestID, toUserID uint) (*models.FriendRequest, error)
	ListSentRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListIncomingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	DeleteIncomingRequest(ctx context.Context, requestID, toUserID uint) (int64, error)
	DeleteRequest(ctx context.Context, fromUserID, toUserID uint) (int64, error)
	AcceptRequest(ctx context.Context, request *models.FriendRequest) error
	AreFriends(ctx context.Context, userID, friendID uint) (bool, error)
	ListFriends(ctx context.Context, userID uint) ([]models.User, error)
	RemoveFriendship(ctx context.Context, userID, friendID uint) (int64, error)
}

// Limiter reports whether another request for key is allowed
type Limiter interface {
	Allow(key string) bool
}
