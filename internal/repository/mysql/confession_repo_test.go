package mysql

import (
	"context"
	"testing"
	"time"

	"ankahee-backend/internal/model"
	"ankahee-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postRowColumns = []string{
	"id", "user_id", "content", "mood", "parent_post_id", "is_void_question",
	"created_at", "updated_at", "expires_at", "comment_count",
}

func TestListPostsLoadsAggregates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewConfessionRepository(db)

	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	created := now.Add(-time.Hour)
	expires := created.Add(24 * time.Hour)

	mock.ExpectQuery(`FROM posts p\s+WHERE p.expires_at > \?\s+AND p.mood = \?\s+ORDER BY p.created_at DESC`).
		WithArgs(now, "Sad").
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow("p1", "u1", "first confession", "Sad", nil, false, created, created, expires, int64(2)).
			AddRow("p2", "u2", "second confession", "Sad", "p1", false, created, created, expires, int64(0)))
	mock.ExpectQuery(`FROM reactions WHERE post_id IN \(\?, \?\)`).
		WithArgs("p1", "p2").
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "user_id", "reaction", "created_at"}).
			AddRow("p1", "u2", "Heart", created).
			AddRow("p1", "u3", "Support", created))
	mock.ExpectQuery(`FROM polls WHERE post_id IN`).
		WithArgs("p1", "p2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "option_one_text", "option_two_text", "created_at"}).
			AddRow("poll1", "p2", "yes", "no", created))
	mock.ExpectQuery(`FROM poll_votes WHERE poll_id IN \(\?\)`).
		WithArgs("poll1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "poll_id", "user_id", "selected_option", "created_at"}).
			AddRow("v1", "poll1", "u1", int64(1), created))
	mock.ExpectQuery(`FROM bookmarks WHERE user_id = \? AND post_id IN`).
		WithArgs("viewer", "p1", "p2").
		WillReturnRows(sqlmock.NewRows([]string{"post_id"}).AddRow("p2"))

	mood := model.MoodSad
	posts, err := repo.ListPosts(context.Background(), model.PostFilter{Mood: &mood, Viewer: "viewer"}, now)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, 2, posts[0].CommentCount)
	assert.Len(t, posts[0].Reactions, 2)
	assert.Equal(t, 1, posts[0].HeartCount())
	assert.Nil(t, posts[0].Poll)
	assert.Nil(t, posts[0].ParentPostID)
	assert.False(t, posts[0].IsBookmarked)

	require.NotNil(t, posts[1].Poll)
	assert.Len(t, posts[1].Poll.Votes, 1)
	assert.Equal(t, "p1", *posts[1].ParentPostID)
	assert.Empty(t, posts[1].Reactions)
	assert.True(t, posts[1].IsBookmarked)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPostDetailsExpiredIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewConfessionRepository(db)

	now := time.Now()
	mock.ExpectQuery(`WHERE p.id = \? AND p.expires_at > \?`).
		WithArgs("p1", now).
		WillReturnRows(sqlmock.NewRows(postRowColumns))

	_, err = repo.GetPostDetails(context.Background(), "p1", "", now)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostWithPollInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewConfessionRepository(db)

	now := time.Now()
	post := &model.Post{UserID: "u1", Content: "a confession here", CreatedAt: now, UpdatedAt: now, ExpiresAt: now.Add(24 * time.Hour)}
	poll := &model.Poll{OptionOneText: "yes", OptionTwoText: "no", CreatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO posts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO polls").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreatePost(context.Background(), post, poll))
	assert.NotEmpty(t, post.ID)
	assert.NotEmpty(t, poll.ID)
	assert.Equal(t, post.ID, poll.PostID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostRollsBackOnPollFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewConfessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO posts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO polls").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = repo.CreatePost(context.Background(), &model.Post{UserID: "u1"}, &model.Poll{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateVoteDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewConfessionRepository(db)

	mock.ExpectExec("INSERT INTO poll_votes").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'poll1-u1'"})

	err = repo.CreateVote(context.Background(), &model.PollVote{PollID: "poll1", UserID: "u1", SelectedOption: 1})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateVoidAnswerDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewConfessionRepository(db)

	mock.ExpectExec("INSERT INTO void_answers").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err = repo.CreateVoidAnswer(context.Background(), &model.VoidAnswer{PostID: "p1", UserID: "u1", Word: "hope"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePostMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewConfessionRepository(db)

	mock.ExpectExec("DELETE FROM posts WHERE id = ?").WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DeletePost(context.Background(), "gone")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertReaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewConfessionRepository(db)

	now := time.Now()
	mock.ExpectExec("INSERT INTO reactions .* ON DUPLICATE KEY UPDATE").
		WithArgs("p1", "u1", "Insight", now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err = repo.UpsertReaction(context.Background(), &model.Reaction{PostID: "p1", UserID: "u1", Kind: model.ReactionInsight, CreatedAt: now})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
