package service

import (
	"context"
	"sync"
	"time"

	"ankahee-backend/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockConfessionRepository 是 ConfessionRepository 接口的模拟实现
type MockConfessionRepository struct {
	mock.Mock
}

func (m *MockConfessionRepository) CreatePost(ctx context.Context, post *model.Post, poll *model.Poll) error {
	args := m.Called(ctx, post, poll)
	return args.Error(0)
}

func (m *MockConfessionRepository) GetPost(ctx context.Context, id string) (*model.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockConfessionRepository) GetPostDetails(ctx context.Context, id, viewer string, now time.Time) (*model.PostDetails, error) {
	args := m.Called(ctx, id, viewer, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostDetails), args.Error(1)
}

func (m *MockConfessionRepository) ListPosts(ctx context.Context, filter model.PostFilter, now time.Time) ([]*model.PostDetails, error) {
	args := m.Called(ctx, filter, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PostDetails), args.Error(1)
}

func (m *MockConfessionRepository) ListArchived(ctx context.Context, userID string, now time.Time) ([]*model.Post, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Post), args.Error(1)
}

func (m *MockConfessionRepository) ListAliveContents(ctx context.Context, now time.Time) ([]string, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockConfessionRepository) UpdatePost(ctx context.Context, post *model.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockConfessionRepository) DeletePost(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockConfessionRepository) CreateComment(ctx context.Context, comment *model.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *MockConfessionRepository) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockConfessionRepository) ListComments(ctx context.Context, postID string) ([]*model.Comment, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Comment), args.Error(1)
}

func (m *MockConfessionRepository) UpdateComment(ctx context.Context, comment *model.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *MockConfessionRepository) DeleteComment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockConfessionRepository) UpsertReaction(ctx context.Context, reaction *model.Reaction) error {
	return m.Called(ctx, reaction).Error(0)
}

func (m *MockConfessionRepository) GetReaction(ctx context.Context, postID, userID string) (*model.Reaction, error) {
	args := m.Called(ctx, postID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reaction), args.Error(1)
}

func (m *MockConfessionRepository) DeleteReaction(ctx context.Context, postID, userID string) error {
	return m.Called(ctx, postID, userID).Error(0)
}

func (m *MockConfessionRepository) GetPoll(ctx context.Context, id string) (*model.Poll, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Poll), args.Error(1)
}

func (m *MockConfessionRepository) CreateVote(ctx context.Context, vote *model.PollVote) error {
	return m.Called(ctx, vote).Error(0)
}

func (m *MockConfessionRepository) CreateVoidAnswer(ctx context.Context, answer *model.VoidAnswer) error {
	return m.Called(ctx, answer).Error(0)
}

func (m *MockConfessionRepository) ListVoidAnswers(ctx context.Context, postID string) ([]*model.VoidAnswer, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.VoidAnswer), args.Error(1)
}

func (m *MockConfessionRepository) CreateBookmark(ctx context.Context, bookmark *model.Bookmark) error {
	return m.Called(ctx, bookmark).Error(0)
}

func (m *MockConfessionRepository) DeleteBookmark(ctx context.Context, postID, userID string) error {
	return m.Called(ctx, postID, userID).Error(0)
}

func (m *MockConfessionRepository) ListBookmarked(ctx context.Context, userID string, now time.Time) ([]*model.PostDetails, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PostDetails), args.Error(1)
}

// MockRoomRepository 是 RoomRepository 接口的模拟实现
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) CreateRoom(ctx context.Context, room *model.Room, owner *model.RoomMember) error {
	return m.Called(ctx, room, owner).Error(0)
}

func (m *MockRoomRepository) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomRepository) ListRooms(ctx context.Context, now time.Time) ([]*model.Room, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Room), args.Error(1)
}

func (m *MockRoomRepository) AddMember(ctx context.Context, member *model.RoomMember) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MockRoomRepository) RemoveMember(ctx context.Context, roomID, userID string) error {
	return m.Called(ctx, roomID, userID).Error(0)
}

func (m *MockRoomRepository) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) ListMembers(ctx context.Context, roomID string) ([]*model.RoomMember, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.RoomMember), args.Error(1)
}

func (m *MockRoomRepository) CreateMessage(ctx context.Context, msg *model.RoomMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockRoomRepository) ListMessages(ctx context.Context, roomID string) ([]*model.RoomMessage, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.RoomMessage), args.Error(1)
}

// MockStoryRepository 是 StoryRepository 接口的模拟实现
type MockStoryRepository struct {
	mock.Mock
}

func (m *MockStoryRepository) ListSegments(ctx context.Context, storyID string) ([]*model.StorySegment, error) {
	args := m.Called(ctx, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.StorySegment), args.Error(1)
}

func (m *MockStoryRepository) CreateSegment(ctx context.Context, segment *model.StorySegment) error {
	return m.Called(ctx, segment).Error(0)
}

// MockLetterRepository 是 LetterRepository 接口的模拟实现
type MockLetterRepository struct {
	mock.Mock
}

func (m *MockLetterRepository) CreateLetter(ctx context.Context, letter *model.Letter) error {
	return m.Called(ctx, letter).Error(0)
}

func (m *MockLetterRepository) ListLetters(ctx context.Context, now time.Time) ([]*model.Letter, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Letter), args.Error(1)
}

// MockUserRepository 是 UserRepository 接口的模拟实现
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) (*model.DeletedContent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeletedContent), args.Error(1)
}

// recordingPublisher 记录发布的变更事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ChangeEvent
}

func (p *recordingPublisher) Publish(ev model.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) Events() []model.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.ChangeEvent(nil), p.events...)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
