package services

import (
	"context"
	"testing"

	"github.com/mroshb/friends_api/internal/models"
	"github.com/mroshb/friends_api/internal/services/servicestest"
	"github.com/mroshb/friends_api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type friendFixture struct {
	*authFixture
	friends *FriendService
	alice   *models.User
	bob     *models.User
	carol   *models.User
}

func newFriendFixture(t *testing.T) *friendFixture {
	t.Helper()

	auth := newAuthFixture(false)
	f := &friendFixture{
		authFixture: auth,
		friends:     NewFriendService(auth.store, auth.store),
	}

	for _, u := range []struct {
		name string
		dest **models.User
	}{
		{"alice", &f.alice},
		{"bob", &f.bob},
		{"carol", &f.carol},
	} {
		result, err := auth.service.Register(context.Background(), registration(u.name, u.name+"@x.com"))
		require.NoError(t, err)
		*u.dest = result.User
	}

	return f
}

func usernames(users []models.User) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names
}

func TestFriendService_AliceAndBob(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	request, err := f.friends.SendRequest(ctx, f.alice.ID, "bob")
	require.NoError(t, err)

	incoming, err := f.friends.ListIncomingRequests(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, f.alice.ID, incoming[0].FromUserID)

	require.NoError(t, f.friends.AcceptRequest(ctx, request.ID, f.bob.ID))

	aliceFriends, err := f.friends.ListFriends(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, usernames(aliceFriends))

	bobFriends, err := f.friends.ListFriends(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, usernames(bobFriends))

	sent, err := f.friends.ListSentRequests(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, sent)
	incoming, err = f.friends.ListIncomingRequests(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, incoming)
}

func TestFriendService_SendRequest_Errors(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	_, err := f.friends.SendRequest(ctx, f.alice.ID, "bob")
	require.NoError(t, err)

	tests := []struct {
		name     string
		from     uint
		username string
		code     string
	}{
		{name: "Unknown user", from: f.alice.ID, username: "mallory", code: errors.ErrCodeNotFound},
		{name: "Self request", from: f.alice.ID, username: "alice", code: errors.ErrCodeSelfRequest},
		{name: "Duplicate", from: f.alice.ID, username: "bob", code: errors.ErrCodeDuplicateRequest},
		{name: "Blank username", from: f.alice.ID, username: "  ", code: errors.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.friends.SendRequest(ctx, tt.from, tt.username)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}

	sent, _ := f.friends.ListSentRequests(ctx, f.alice.ID)
	assert.Len(t, sent, 1)
}

func TestFriendService_SendRequest_DeletedSender(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.DeleteAccount(ctx, f.alice.ID))

	_, err := f.friends.SendRequest(ctx, f.alice.ID, "bob")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized), "got %v", err)

	incoming, err := f.friends.ListIncomingRequests(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, incoming)
}

func TestFriendService_SendRequest_SelfRejectedEvenWhenFriendsExist(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	request, err := f.friends.SendRequest(ctx, f.alice.ID, "bob")
	require.NoError(t, err)
	require.NoError(t, f.friends.AcceptRequest(ctx, request.ID, f.bob.ID))

	_, err = f.friends.SendRequest(ctx, f.alice.ID, "alice")
	assert.True(t, errors.HasCode(err, errors.ErrCodeSelfRequest))
}

func TestFriendService_SendRequest_AlreadyFriends(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	request, err := f.friends.SendRequest(ctx, f.alice.ID, "bob")
	require.NoError(t, err)
	require.NoError(t, f.friends.AcceptRequest(ctx, request.ID, f.bob.ID))

	_, err = f.friends.SendRequest(ctx, f.bob.ID, "alice")
	assert.True(t, errors.HasCode(err, errors.ErrCodeAlreadyExists), "got %v", err)
}

func TestFriendService_SendRequest_StoreRaceIsDuplicate(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	// A concurrent request landed between the pre-check and the insert
	racing := &racingStore{MemStore: f.store}
	service := NewFriendService(racing, f.store)

	_, err := service.SendRequest(ctx, f.alice.ID, "bob")
	assert.True(t, errors.HasCode(err, errors.ErrCodeDuplicateRequest), "got %v", err)
}

type racingStore struct {
	*servicestest.MemStore
}

func (r *racingStore) FindRequest(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error) {
	if _, err := r.MemStore.AddRequest(ctx, fromUserID, toUserID); err != nil {
		return nil, err
	}
	return nil, nil
}

func TestFriendService_AcceptRequest(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	request, err := f.friends.SendRequest(ctx, f.alice.ID, "bob")
	require.NoError(t, err)

	// Only the recipient can accept
	err = f.friends.AcceptRequest(ctx, request.ID, f.alice.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	err = f.friends.AcceptRequest(ctx, request.ID, f.carol.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	require.NoError(t, f.friends.AcceptRequest(ctx, request.ID, f.bob.ID))

	// A second accept finds nothing to accept
	err = f.friends.AcceptRequest(ctx, request.ID, f.bob.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestFriendService_AcceptRequest_ClearsReverseRequest(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	forward, err := f.friends.SendRequest(ctx, f.alice.ID, "bob")
	require.NoError(t, err)
	_, err = f.friends.SendRequest(ctx, f.bob.ID, "alice")
	require.NoError(t, err)

	require.NoError(t, f.friends.AcceptRequest(ctx, forward.ID, f.bob.ID))

	for _, id := range []uint{f.alice.ID, f.bob.ID} {
		sent, _ := f.friends.ListSentRequests(ctx, id)
		incoming, _ := f.friends.ListIncomingRequests(ctx, id)
		assert.Empty(t, sent)
		assert.Empty(t, incoming)
	}
}

func TestFriendService_DeclineAndCancel(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	toBob, err := f.friends.SendRequest(ctx, f.alice.ID, "bob")
	require.NoError(t, err)
	_, err = f.friends.SendRequest(ctx, f.alice.ID, "carol")
	require.NoError(t, err)

	// The sender cannot decline their own request
	removed, err := f.friends.DeclineRequest(ctx, toBob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = f.friends.DeclineRequest(ctx, toBob.ID, f.bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.friends.DeclineRequest(ctx, toBob.ID, f.bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = f.friends.CancelRequest(ctx, f.alice.ID, "carol")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.friends.CancelRequest(ctx, f.alice.ID, "carol")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = f.friends.CancelRequest(ctx, f.alice.ID, "mallory")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	sent, _ := f.friends.ListSentRequests(ctx, f.alice.ID)
	assert.Empty(t, sent)

	// Declined requests can be sent again
	_, err = f.friends.SendRequest(ctx, f.alice.ID, "bob")
	assert.NoError(t, err)
}

func TestFriendService_RemoveFriend(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	request, err := f.friends.SendRequest(ctx, f.alice.ID, "bob")
	require.NoError(t, err)
	require.NoError(t, f.friends.AcceptRequest(ctx, request.ID, f.bob.ID))

	require.NoError(t, f.friends.RemoveFriend(ctx, f.bob.ID, "alice"))

	for _, id := range []uint{f.alice.ID, f.bob.ID} {
		friends, err := f.friends.ListFriends(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, friends)
	}

	err = f.friends.RemoveFriend(ctx, f.bob.ID, "alice")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	err = f.friends.RemoveFriend(ctx, f.bob.ID, "mallory")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestFriendService_DeleteAccountCascades(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	request, err := f.friends.SendRequest(ctx, f.alice.ID, "bob")
	require.NoError(t, err)
	require.NoError(t, f.friends.AcceptRequest(ctx, request.ID, f.bob.ID))
	_, err = f.friends.SendRequest(ctx, f.carol.ID, "alice")
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteAccount(ctx, f.alice.ID))

	friends, _ := f.friends.ListFriends(ctx, f.bob.ID)
	assert.Empty(t, friends)
	sent, _ := f.friends.ListSentRequests(ctx, f.carol.ID)
	assert.Empty(t, sent)
}

func TestFriendService_ListsAreEmptyNotNil(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	friends, err := f.friends.ListFriends(ctx, f.carol.ID)
	require.NoError(t, err)
	assert.NotNil(t, friends)

	sent, err := f.friends.ListSentRequests(ctx, f.carol.ID)
	require.NoError(t, err)
	assert.NotNil(t, sent)

	incoming, err := f.friends.ListIncomingRequests(ctx, f.carol.ID)
	require.NoError(t, err)
	assert.NotNil(t, incoming)
}
