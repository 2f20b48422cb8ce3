package service

import (
	"context"
	"testing"
	"time"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newConfessionService() (*ConfessionService, *MockConfessionRepository, *recordingPublisher) {
	repo := new(MockConfessionRepository)
	pub := &recordingPublisher{}
	return NewConfessionService(repo, pub, fixedClock(testNow)), repo, pub
}

func alivePost(id, owner string, age time.Duration) *model.Post {
	created := testNow.Add(-age)
	return &model.Post{ID: id, UserID: owner, Content: "an old confession", CreatedAt: created, UpdatedAt: created,
		ExpiresAt: created.Add(24 * time.Hour)}
}

func TestCreatePostSetsExpiryAndPublishes(t *testing.T) {
	svc, repo, pub := newConfessionService()
	mood := model.MoodSecret

	repo.On("CreatePost", mock.Anything, mock.AnythingOfType("*model.Post"), mock.AnythingOfType("*model.Poll")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Post).ID = "p1"
			args.Get(2).(*model.Poll).ID = "poll1"
		}).Return(nil)

	details, err := svc.CreatePost(context.Background(), "u1", CreatePostInput{
		Content: "  I never told anyone this  ",
		Mood:    &mood,
		Poll:    &PollInput{OptionOne: "tell them", OptionTwo: "keep it"},
	})
	require.NoError(t, err)
	assert.Equal(t, "I never told anyone this", details.Content)
	assert.Equal(t, testNow.Add(24*time.Hour), details.ExpiresAt)
	require.NotNil(t, details.Poll)
	assert.Empty(t, details.Poll.Votes)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.CollectionPosts, events[0].Collection)
	assert.Equal(t, model.EventInsert, events[0].Type)
	assert.Equal(t, "p1", events[0].Key)
	repo.AssertExpectations(t)
}

func TestCreatePostRejectsShortContentBeforeStore(t *testing.T) {
	svc, repo, pub := newConfessionService()

	_, err := svc.CreatePost(context.Background(), "u1", CreatePostInput{Content: "too short"})
	assert.True(t, errors.Is(err, errors.ErrValidation))
	repo.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, pub.Events())
}

func TestCreatePostRejectsPollOnVoidQuestion(t *testing.T) {
	svc, _, _ := newConfessionService()

	_, err := svc.CreatePost(context.Background(), "u1", CreatePostInput{
		Content:        "what word describes today?",
		IsVoidQuestion: true,
		Poll:           &PollInput{OptionOne: "a", OptionTwo: "b"},
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestGetPostExpiredIsNotFound(t *testing.T) {
	svc, repo, _ := newConfessionService()
	repo.On("GetPostDetails", mock.Anything, "p1", "u1", testNow).Return(nil, repository.ErrNotFound)

	_, err := svc.GetPost(context.Background(), "p1", "u1")
	assert.True(t, errors.Is(err, errors.ErrResourceNotFound))
}

func TestUpdatePostEditWindow(t *testing.T) {
	tests := []struct {
		name  string
		age   time.Duration
		owner string
		code  errors.ErrorCode
	}{
		{"inside window", 19*time.Minute + 59*time.Second, "u1", 0},
		{"window closed", 20*time.Minute + time.Second, "u1", errors.ErrEditWindowClosed},
		{"not owner", time.Minute, "someone-else", errors.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, pub := newConfessionService()
			repo.On("GetPost", mock.Anything, "p1").Return(alivePost("p1", tt.owner, tt.age), nil)
			repo.On("UpdatePost", mock.Anything, mock.Anything).Return(nil).Maybe()

			post, err := svc.UpdatePost(context.Background(), "u1", "p1", "an edited confession", nil)
			if tt.code == 0 {
				require.NoError(t, err)
				assert.Equal(t, "an edited confession", post.Content)
				assert.Equal(t, testNow, post.UpdatedAt)
				assert.Len(t, pub.Events(), 1)
				return
			}
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
			repo.AssertNotCalled(t, "UpdatePost", mock.Anything, mock.Anything)
			assert.Empty(t, pub.Events())
		})
	}
}

func TestBurnPost(t *testing.T) {
	svc, repo, pub := newConfessionService()
	post := alivePost("p1", "u1", time.Hour)
	repo.On("GetPost", mock.Anything, "p1").Return(post, nil)
	repo.On("DeletePost", mock.Anything, "p1").Return(nil)

	require.NoError(t, svc.BurnPost(context.Background(), "u1", "p1"))
	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventDelete, events[0].Type)

	err := svc.BurnPost(context.Background(), "u2", "p1")
	assert.True(t, errors.Is(err, errors.ErrForbidden))
	repo.AssertNumberOfCalls(t, "DeletePost", 1)
}

func TestCreateCommentKeepsClientID(t *testing.T) {
	svc, repo, pub := newConfessionService()
	repo.On("GetPost", mock.Anything, "p1").Return(alivePost("p1", "u2", time.Hour), nil)
	repo.On("CreateComment", mock.Anything, mock.AnythingOfType("*model.Comment")).Return(nil)

	comment, err := svc.CreateComment(context.Background(), "u1", "p1", "temp-123", "hang in there")
	require.NoError(t, err)
	assert.Equal(t, "temp-123", comment.ID)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "temp-123", events[0].Key)
	assert.Equal(t, "p1", events[0].ParentKey)
}

func TestCreateCommentOnExpiredPost(t *testing.T) {
	svc, repo, _ := newConfessionService()
	repo.On("GetPost", mock.Anything, "p1").Return(alivePost("p1", "u2", 25*time.Hour), nil)

	_, err := svc.CreateComment(context.Background(), "u1", "p1", "", "hello")
	assert.True(t, errors.Is(err, errors.ErrResourceNotFound))
	repo.AssertNotCalled(t, "CreateComment", mock.Anything, mock.Anything)
}

func TestSetReactionReplacesExisting(t *testing.T) {
	svc, repo, pub := newConfessionService()
	repo.On("GetPost", mock.Anything, "p1").Return(alivePost("p1", "u2", time.Hour), nil)
	repo.On("GetReaction", mock.Anything, "p1", "u1").
		Return(&model.Reaction{PostID: "p1", UserID: "u1", Kind: model.ReactionHeart, CreatedAt: testNow.Add(-time.Minute)}, nil)
	repo.On("UpsertReaction", mock.Anything, mock.MatchedBy(func(r *model.Reaction) bool {
		return r.Kind == model.ReactionSupport
	})).Return(nil)

	r, err := svc.SetReaction(context.Background(), "u1", "p1", model.ReactionSupport)
	require.NoError(t, err)
	assert.Equal(t, "p1:u1", r.Key())

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventUpdate, events[0].Type)
	assert.Equal(t, "p1:u1", events[0].Key)
}

func TestSetReactionRejectsUnknownKind(t *testing.T) {
	svc, repo, _ := newConfessionService()
	_, err := svc.SetReaction(context.Background(), "u1", "p1", model.ReactionKind("Angry"))
	assert.True(t, errors.Is(err, errors.ErrValidation))
	repo.AssertNotCalled(t, "GetPost", mock.Anything, mock.Anything)
}

func TestVoteTwiceIsConflict(t *testing.T) {
	svc, repo, pub := newConfessionService()
	repo.On("GetPoll", mock.Anything, "poll1").Return(&model.Poll{ID: "poll1", PostID: "p1"}, nil)
	repo.On("GetPost", mock.Anything, "p1").Return(alivePost("p1", "u2", time.Hour), nil)
	repo.On("CreateVote", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	_, err := svc.Vote(context.Background(), "u1", "poll1", 2)
	assert.True(t, errors.Is(err, errors.ErrAlreadyVoted))
	assert.Equal(t, "You have already voted on this poll.", errors.UserMessage(err))
	assert.Empty(t, pub.Events())
}

func TestVoteRejectsBadOption(t *testing.T) {
	svc, repo, _ := newConfessionService()
	_, err := svc.Vote(context.Background(), "u1", "poll1", 3)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	repo.AssertNotCalled(t, "GetPoll", mock.Anything, mock.Anything)
}

func TestAnswerVoid(t *testing.T) {
	svc, repo, pub := newConfessionService()
	question := alivePost("p1", "u2", time.Hour)
	question.IsVoidQuestion = true
	repo.On("GetPost", mock.Anything, "p1").Return(question, nil)
	repo.On("CreateVoidAnswer", mock.Anything, mock.MatchedBy(func(a *model.VoidAnswer) bool {
		return a.Word == "hope"
	})).Return(nil).Once()
	repo.On("CreateVoidAnswer", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	answer, err := svc.AnswerVoid(context.Background(), "u1", "p1", "  Hope ")
	require.NoError(t, err)
	assert.Equal(t, "hope", answer.Word)
	assert.Len(t, pub.Events(), 1)

	_, err = svc.AnswerVoid(context.Background(), "u1", "p1", "again")
	assert.Equal(t, "You have already answered this question.", errors.UserMessage(err))

	_, err = svc.AnswerVoid(context.Background(), "u1", "p1", "two words")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestAnswerVoidOnRegularPost(t *testing.T) {
	svc, repo, _ := newConfessionService()
	repo.On("GetPost", mock.Anything, "p1").Return(alivePost("p1", "u2", time.Hour), nil)

	_, err := svc.AnswerVoid(context.Background(), "u1", "p1", "hope")
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestVoidAnswersSummary(t *testing.T) {
	svc, repo, _ := newConfessionService()
	repo.On("GetPost", mock.Anything, "p1").Return(alivePost("p1", "u2", time.Hour), nil)
	repo.On("ListVoidAnswers", mock.Anything, "p1").Return([]*model.VoidAnswer{
		{UserID: "a", Word: "calm"}, {UserID: "b", Word: "tired"}, {UserID: "u1", Word: "tired"},
	}, nil)

	summary, err := svc.VoidAnswers(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.True(t, summary.Answered)
	assert.Equal(t, []model.WordCount{{Text: "tired", Value: 2}, {Text: "calm", Value: 1}}, summary.Words)
}

func TestBookmarkIsIdempotent(t *testing.T) {
	svc, repo, pub := newConfessionService()
	repo.On("GetPost", mock.Anything, "p1").Return(alivePost("p1", "u2", time.Hour), nil)
	repo.On("CreateBookmark", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)
	repo.On("DeleteBookmark", mock.Anything, "p1", "u1").Return(repository.ErrNotFound)

	assert.NoError(t, svc.Bookmark(context.Background(), "u1", "p1"))
	assert.NoError(t, svc.RemoveBookmark(context.Background(), "u1", "p1"))
	assert.Empty(t, pub.Events())
}

func TestListPostsSorting(t *testing.T) {
	svc, repo, _ := newConfessionService()
	heart := func(n int) []*model.Reaction {
		out := make([]*model.Reaction, n)
		for i := range out {
			out[i] = &model.Reaction{Kind: model.ReactionHeart}
		}
		return out
	}
	newest := &model.PostDetails{Post: model.Post{ID: "newest"}, CommentCount: 1, Reactions: heart(0)}
	talked := &model.PostDetails{Post: model.Post{ID: "talked"}, CommentCount: 9, Reactions: heart(1)}
	loved := &model.PostDetails{Post: model.Post{ID: "loved"}, CommentCount: 2, Reactions: heart(5)}

	ids := func(posts []*model.PostDetails) []string {
		out := make([]string, len(posts))
		for i, p := range posts {
			out[i] = p.ID
		}
		return out
	}

	for sort, want := range map[model.PostSort][]string{
		model.SortNewest:  {"newest", "talked", "loved"},
		model.SortPopular: {"talked", "loved", "newest"},
		model.SortLoved:   {"loved", "talked", "newest"},
	} {
		filter := model.PostFilter{Sort: sort}
		repo.On("ListPosts", mock.Anything, filter, testNow).
			Return([]*model.PostDetails{newest, talked, loved}, nil).Once()
		posts, err := svc.ListPosts(context.Background(), filter)
		require.NoError(t, err)
		assert.Equal(t, want, ids(posts), string(sort))
	}
}

func TestStoreErrorHidesDatabaseFailure(t *testing.T) {
	svc, repo, _ := newConfessionService()
	repo.On("ListBookmarked", mock.Anything, "u1", testNow).Return(nil, assert.AnError)

	_, err := svc.ListBookmarks(context.Background(), "u1")
	assert.True(t, errors.Is(err, errors.ErrDatabase))
	assert.True(t, errors.IsTransient(err))
}
