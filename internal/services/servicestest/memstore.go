// Package servicestest provides an in-memory store for exercising the
// services and handlers without a database.
package servicestest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mroshb/friends_api/internal/models"
	"github.com/mroshb/friends_api/pkg/errors"
)

// MemStore implements services.UserStore and services.FriendStore with
// the same uniqueness rules as the tables.
type MemStore struct {
	mu       sync.Mutex
	nextID   uint
	users    map[uint]*models.User
	requests map[uint]*models.FriendRequest
	friends  map[[2]uint]bool

	// FailWith, when set, is returned by AddUser
	FailWith error
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[uint]*models.User),
		requests: make(map[uint]*models.FriendRequest),
		friends:  make(map[[2]uint]bool),
	}
}

func (m *MemStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *MemStore) AddUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	if !models.IsPasswordHash(user.Password) {
		return errors.New(errors.ErrCodeValidation, "invalid row data")
	}
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return errors.New(errors.ErrCodeUniqueViolation, "unique constraint violation")
		}
	}

	user.ID = m.id()
	user.RegisteredAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MemStore) findUser(match func(*models.User) bool) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if match(u) {
			found := *u
			return &found
		}
	}
	return nil
}

func (m *MemStore) FindUser(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return u.Email == email }), nil
}

func (m *MemStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return u.Username == username }), nil
}

func (m *MemStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return u.ID == id }), nil
}

func (m *MemStore) MarkEmailVerified(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			u.EmailVerified = true
			return nil
		}
	}
	return errors.New(errors.ErrCodeNotFound, "user not found")
}

func (m *MemStore) DeleteUser(ctx context.Context, id uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return 0, nil
	}
	delete(m.users, id)
	for rid, r := range m.requests {
		if r.FromUserID == id || r.ToUserID == id {
			delete(m.requests, rid)
		}
	}
	for pair := range m.friends {
		if pair[0] == id || pair[1] == id {
			delete(m.friends, pair)
		}
	}
	return 1, nil
}

func (m *MemStore) AddRequest(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.requests {
		if r.FromUserID == fromUserID && r.ToUserID == toUserID {
			return nil, errors.New(errors.ErrCodeUniqueViolation, "unique constraint violation")
		}
	}

	request := &models.FriendRequest{ID: m.id(), FromUserID: fromUserID, ToUserID: toUserID, SentAt: time.Now()}
	m.requests[request.ID] = request
	stored := *request
	return &stored, nil
}

func (m *MemStore) findRequest(match func(*models.FriendRequest) bool) *models.FriendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.requests {
		if match(r) {
			found := *r
			return &found
		}
	}
	return nil
}

func (m *MemStore) FindRequest(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error) {
	return m.findRequest(func(r *models.FriendRequest) bool {
		return r.FromUserID == fromUserID && r.ToUserID == toUserID
	}), nil
}

func (m *MemStore) FindIncomingRequest(ctx context.Context, requestID, toUserID uint) (*models.FriendRequest, error) {
	return m.findRequest(func(r *models.FriendRequest) bool {
		return r.ID == requestID && r.ToUserID == toUserID
	}), nil
}

func (m *MemStore) listRequests(match func(*models.FriendRequest) bool) []models.FriendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.FriendRequest, 0)
	for _, r := range m.requests {
		if match(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemStore) ListSentRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return m.listRequests(func(r *models.FriendRequest) bool { return r.FromUserID == userID }), nil
}

func (m *MemStore) ListIncomingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return m.listRequests(func(r *models.FriendRequest) bool { return r.ToUserID == userID }), nil
}

func (m *MemStore) deleteRequests(match func(*models.FriendRequest) bool) int64 {
	var n int64
	for id, r := range m.requests {
		if match(r) {
			delete(m.requests, id)
			n++
		}
	}
	return n
}

func (m *MemStore) DeleteIncomingRequest(ctx context.Context, requestID, toUserID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteRequests(func(r *models.FriendRequest) bool {
		return r.ID == requestID && r.ToUserID == toUserID
	}), nil
}

func (m *MemStore) DeleteRequest(ctx context.Context, fromUserID, toUserID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteRequests(func(r *models.FriendRequest) bool {
		return r.FromUserID == fromUserID && r.ToUserID == toUserID
	}), nil
}

func (m *MemStore) AcceptRequest(ctx context.Context, request *models.FriendRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.requests[request.ID]; !ok {
		return errors.New(errors.ErrCodeNotFound, "friend request not found or already processed")
	}
	delete(m.requests, request.ID)

	m.friends[[2]uint{request.FromUserID, request.ToUserID}] = true
	m.friends[[2]uint{request.ToUserID, request.FromUserID}] = true

	m.deleteRequests(func(r *models.FriendRequest) bool {
		return r.FromUserID == request.ToUserID && r.ToUserID == request.FromUserID
	})
	return nil
}

func (m *MemStore) AreFriends(ctx context.Context, userID, friendID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.friends[[2]uint{userID, friendID}], nil
}

func (m *MemStore) ListFriends(ctx context.Context, userID uint) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.User, 0)
	for pair := range m.friends {
		if pair[0] == userID {
			if u, ok := m.users[pair[1]]; ok {
				out = append(out, *u)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) RemoveFriendship(ctx context.Context, userID, friendID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for _, pair := range [][2]uint{{userID, friendID}, {friendID, userID}} {
		if m.friends[pair] {
			delete(m.friends, pair)
			removed++
		}
	}
	return removed, nil
}

// UserCount returns the number of stored users
func (m *MemStore) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}
