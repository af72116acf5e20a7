package repositories

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mroshb/friends_api/internal/models"
	"github.com/mroshb/friends_api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendRepository_AddRequest(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`INSERT INTO "friend_requests"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	request, err := repo.AddRequest(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(11), request.ID)
	assert.Equal(t, uint(1), request.FromUserID)
	assert.Equal(t, uint(2), request.ToUserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendRepository_AddRequest_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`INSERT INTO "friend_requests"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_friend_request_pair"})
	mock.ExpectRollback()

	request, err := repo.AddRequest(context.Background(), 1, 2)
	assert.Nil(t, request)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUniqueViolation), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendRepository_AddRequest_MissingUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`INSERT INTO "friend_requests"`)).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "fk_friend_requests_from_user"})
	mock.ExpectRollback()

	request, err := repo.AddRequest(context.Background(), 99, 2)
	assert.Nil(t, request)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendRepository_FindIncomingRequest(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectQuery(q(`SELECT * FROM "friend_requests" WHERE "friend_requests"."id" = $1 AND "friend_requests"."to_user_id" = $2 ORDER BY "friend_requests"."id" LIMIT $3`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_user_id", "to_user_id"}).AddRow(5, 1, 2))

	request, err := repo.FindIncomingRequest(context.Background(), 5, 2)
	require.NoError(t, err)
	require.NotNil(t, request)
	assert.Equal(t, uint(1), request.FromUserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendRepository_AcceptRequest(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(q(`DELETE FROM "friend_requests" WHERE "friend_requests"."id" = $1`)).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "friends" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(20).AddRow(21))
	mock.ExpectExec(q(`DELETE FROM "friend_requests" WHERE "friend_requests"."from_user_id" = $1 AND "friend_requests"."to_user_id" = $2`)).
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.AcceptRequest(context.Background(), &models.FriendRequest{ID: 5, FromUserID: 1, ToUserID: 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendRepository_AcceptRequest_AlreadyProcessed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(q(`DELETE FROM "friend_requests" WHERE "friend_requests"."id" = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.AcceptRequest(context.Background(), &models.FriendRequest{ID: 5, FromUserID: 1, ToUserID: 2})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendRepository_AcceptRequest_RollsBackOnInsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(q(`DELETE FROM "friend_requests" WHERE "friend_requests"."id" = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q(`INSERT INTO "friends"`)).
		WillReturnError(stderrors.New("connection lost"))
	mock.ExpectRollback()

	err := repo.AcceptRequest(context.Background(), &models.FriendRequest{ID: 5, FromUserID: 1, ToUserID: 2})
	assert.True(t, errors.HasCode(err, errors.ErrCodeStore), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendRepository_AreFriends(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectQuery(q(`SELECT count(*) FROM "friends" WHERE "friends"."friend_id" = $1 AND "friends"."user_id" = $2`)).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.AreFriends(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendRepository_ListFriends(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectQuery(q(`JOIN friends ON friends.friend_id = users.id WHERE friends.user_id = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email"}).AddRow(2, "bob", "bob@x.com"))

	friends, err := repo.ListFriends(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendRepository_RemoveFriendship(t *testing.T) {
	tests := []struct {
		name    string
		forward int64
		reverse int64
		want    int64
	}{
		{name: "Symmetric pair", forward: 1, reverse: 1, want: 2},
		{name: "Asymmetric pair is repaired", forward: 1, reverse: 0, want: 1},
		{name: "Not friends", forward: 0, reverse: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewFriendRepository(db)

			mock.ExpectBegin()
			mock.ExpectExec(q(`DELETE FROM "friends" WHERE "friends"."friend_id" = $1 AND "friends"."user_id" = $2`)).
				WithArgs(2, 1).
				WillReturnResult(sqlmock.NewResult(0, tt.forward))
			mock.ExpectExec(q(`DELETE FROM "friends" WHERE "friends"."friend_id" = $1 AND "friends"."user_id" = $2`)).
				WithArgs(1, 2).
				WillReturnResult(sqlmock.NewResult(0, tt.reverse))
			mock.ExpectCommit()

			removed, err := repo.RemoveFriendship(context.Background(), 1, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, removed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFriendRepository_RemoveFriendship_Failure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(q(`DELETE FROM "friends"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`DELETE FROM "friends"`)).
		WillReturnError(stderrors.New("serialization failure"))
	mock.ExpectRollback()

	removed, err := repo.RemoveFriendship(context.Background(), 1, 2)
	assert.Equal(t, int64(0), removed)
	assert.True(t, errors.HasCode(err, errors.ErrCodeStore), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
