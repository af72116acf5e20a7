package services

import (
	"context"

	"github.com/mroshb/friends_api/internal/metrics"
	"github.com/mroshb/friends_api/internal/models"
	"github.com/mroshb/friends_api/internal/security"
	"github.com/mroshb/friends_api/pkg/errors"
	"github.com/mroshb/friends_api/pkg/logger"
)

type FriendService struct {
	friends FriendStore
	users   UserStore
}

func NewFriendService(friends FriendStore, users UserStore) *FriendService {
	return &FriendService{
		friends: friends,
		users:   users,
	}
}

// resolve looks a username up and fails with NOT_FOUND when nobody has it
func (s *FriendService) resolve(ctx context.Context, username string) (*models.User, error) {
	username, _ = security.SanitizeUsername(username)
	if username == "" {
		return nil, errors.New(errors.ErrCodeValidation, "username_to is required")
	}

	user, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	return user, nil
}

func (s *FriendService) SendRequest(ctx context.Context, fromUserID uint, toUsername string) (*models.FriendRequest, error) {
	// A session can outlive its account
	sender, err := s.users.FindUserByID(ctx, fromUserID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, errors.New(errors.ErrCodeUnauthorized, "account no longer exists")
	}

	target, err := s.resolve(ctx, toUsername)
	if err != nil {
		return nil, err
	}

	if target.ID == fromUserID {
		return nil, errors.New(errors.ErrCodeSelfRequest, "you cannot send a friend request to yourself")
	}

	friends, err := s.friends.AreFriends(ctx, fromUserID, target.ID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, errors.New(errors.ErrCodeAlreadyExists, "you are already friends")
	}

	existing, err := s.friends.FindRequest(ctx, fromUserID, target.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New(errors.ErrCodeDuplicateRequest, "friend request already sent")
	}

	request, err := s.friends.AddRequest(ctx, fromUserID, target.ID)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeUniqueViolation) {
			return nil, errors.Wrap(err, errors.ErrCodeDuplicateRequest, "friend request already sent")
		}
		return nil, err
	}

	metrics.FriendEvents.WithLabelValues("request_sent").Inc()
	return request, nil
}

// AcceptRequest accepts a pending request addressed to actingUserID
func (s *FriendService) AcceptRequest(ctx context.Context, requestID, actingUserID uint) error {
	request, err := s.friends.FindIncomingRequest(ctx, requestID, actingUserID)
	if err != nil {
		return err
	}
	if request == nil {
		return errors.New(errors.ErrCodeNotFound, "friend request not found")
	}

	if err := s.friends.AcceptRequest(ctx, request); err != nil {
		return err
	}

	metrics.FriendEvents.WithLabelValues("request_accepted").Inc()
	logger.Debug("Friend request accepted", "request_id", requestID, "from", request.FromUserID, "to", actingUserID)
	return nil
}

// DeclineRequest drops a request addressed to actingUserID. It reports
// whether a request was removed; declining a missing request is not an error.
func (s *FriendService) DeclineRequest(ctx context.Context, requestID, actingUserID uint) (bool, error) {
	deleted, err := s.friends.DeleteIncomingRequest(ctx, requestID, actingUserID)
	if err != nil {
		return false, err
	}
	if deleted > 0 {
		metrics.FriendEvents.WithLabelValues("request_declined").Inc()
	}
	return deleted > 0, nil
}

// CancelRequest withdraws a request fromUserID sent to toUsername
func (s *FriendService) CancelRequest(ctx context.Context, fromUserID uint, toUsername string) (bool, error) {
	target, err := s.resolve(ctx, toUsername)
	if err != nil {
		return false, err
	}

	deleted, err := s.friends.DeleteRequest(ctx, fromUserID, target.ID)
	if err != nil {
		return false, err
	}
	if deleted > 0 {
		metrics.FriendEvents.WithLabelValues("request_cancelled").Inc()
	}
	return deleted > 0, nil
}

func (s *FriendService) RemoveFriend(ctx context.Context, userID uint, friendUsername string) error {
	friend, err := s.resolve(ctx, friendUsername)
	if err != nil {
		return err
	}

	removed, err := s.friends.RemoveFriendship(ctx, userID, friend.ID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return errors.New(errors.ErrCodeNotFound, "you are not friends with this user")
	}

	metrics.FriendEvents.WithLabelValues("friend_removed").Inc()
	return nil
}

func (s *FriendService) ListFriends(ctx context.Context, userID uint) ([]models.User, error) {
	return s.friends.ListFriends(ctx, userID)
}

func (s *FriendService) ListSentRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.friends.ListSentRequests(ctx, userID)
}

func (s *FriendService) ListIncomingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.friends.ListIncomingRequests(ctx, userID)
}
