package service

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"unicode"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/expiry"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/repository"
	"ankahee-backend/internal/repository/interfaces"
	"ankahee-backend/internal/util"

	"go.uber.org/zap"
)

const (
	PostMinLength     = 10
	PostMaxLength     = 500
	CommentMaxLength  = 280
	PollOptionMax     = 80
	VoidWordMaxLength = 30
	VoidTopWords      = 50
)

// PollInput 新建帖子时附带的二选一投票
type PollInput struct {
	OptionOne string `json:"option_one" binding:"required,max=80"`
	OptionTwo string `json:"option_two" binding:"required,max=80"`
}

// CreatePostInput 新建告白的参数
type CreatePostInput struct {
	Content        string         `json:"content" binding:"required,min=10,max=500"`
	Mood           *model.MoodTag `json:"mood" binding:"omitempty,mood"`
	Poll           *PollInput     `json:"poll"`
	IsVoidQuestion bool           `json:"is_void_question"`
	ParentPostID   *string        `json:"parent_post_id"`
}

// ConfessionService 告白、评论、反应、投票、虚空问题和收藏
type ConfessionService struct {
	repo  interfaces.ConfessionRepository
	feed  realtime.Publisher
	clock expiry.Clock
}

func NewConfessionService(repo interfaces.ConfessionRepository, feed realtime.Publisher, clock expiry.Clock) *ConfessionService {
	return &ConfessionService{repo: repo, feed: feed, clock: clock}
}

func (s *ConfessionService) CreatePost(ctx context.Context, userID string, in CreatePostInput) (*model.PostDetails, error) {
	content, err := checkLength("content", in.Content, PostMinLength, PostMaxLength)
	if err != nil {
		return nil, err
	}
	if in.Mood != nil && !model.IsValidMood(string(*in.Mood)) {
		return nil, errors.New(errors.ErrValidation, "invalid mood tag")
	}
	if in.Poll != nil && in.IsVoidQuestion {
		return nil, errors.New(errors.ErrValidation, "a void question cannot carry a poll")
	}

	now := s.clock.Now()
	post := &model.Post{
		UserID:         userID,
		Content:        content,
		Mood:           in.Mood,
		ParentPostID:   in.ParentPostID,
		IsVoidQuestion: in.IsVoidQuestion,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      expiry.ForKind(expiry.KindPost).ExpiresAt(now),
	}

	if in.ParentPostID != nil {
		parent, err := s.repo.GetPost(ctx, *in.ParentPostID)
		if err != nil {
			return nil, storeError(err, "parent post")
		}
		if !expiry.IsAlive(parent.ExpiresAt, now) {
			return nil, errors.New(errors.ErrExpired, "parent post has expired")
		}
	}

	var poll *model.Poll
	if in.Poll != nil {
		one, err := checkLength("poll option", in.Poll.OptionOne, 1, PollOptionMax)
		if err != nil {
			return nil, err
		}
		two, err := checkLength("poll option", in.Poll.OptionTwo, 1, PollOptionMax)
		if err != nil {
			return nil, err
		}
		poll = &model.Poll{OptionOneText: one, OptionTwoText: two, CreatedAt: now}
	}

	if err := s.repo.CreatePost(ctx, post, poll); err != nil {
		return nil, storeError(err, "post")
	}

	details := &model.PostDetails{Post: *post, Reactions: []*model.Reaction{}}
	if poll != nil {
		details.Poll = &model.PollDetails{Poll: *poll, Votes: []*model.PollVote{}}
	}
	realtime.Emit(s.feed, model.CollectionPosts, model.EventInsert, post.ID, "", details)
	util.Logger.Info("告白发布成功", zap.String("post_id", post.ID))
	return details, nil
}

// GetPost 不存在或已过期都返回 404
func (s *ConfessionService) GetPost(ctx context.Context, id, viewer string) (*model.PostDetails, error) {
	details, err := s.repo.GetPostDetails(ctx, id, viewer, s.clock.Now())
	if err != nil {
		return nil, storeError(err, "post")
	}
	return details, nil
}

// ListPosts 按情绪过滤，按最新、评论数或 Heart 数排序
func (s *ConfessionService) ListPosts(ctx context.Context, filter model.PostFilter) ([]*model.PostDetails, error) {
	posts, err := s.repo.ListPosts(ctx, filter, s.clock.Now())
	if err != nil {
		return nil, storeError(err, "posts")
	}
	SortPosts(posts, filter.Sort)
	return posts, nil
}

// SortPosts 在最新优先的基础上稳定排序
func SortPosts(posts []*model.PostDetails, by model.PostSort) {
	switch by {
	case model.SortPopular:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].CommentCount > posts[j].CommentCount
		})
	case model.SortLoved:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].HeartCount() > posts[j].HeartCount()
		})
	}
}

// alivePost 加载帖子并确认未过期
func (s *ConfessionService) alivePost(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, storeError(err, "post")
	}
	if !expiry.IsAlive(post.ExpiresAt, s.clock.Now()) {
		return nil, errors.New(errors.ErrResourceNotFound, "post not found")
	}
	return post, nil
}

func (s *ConfessionService) UpdatePost(ctx context.Context, userID, id, content string, mood *model.MoodTag) (*model.Post, error) {
	post, err := s.alivePost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(post.UserID, userID, "posts"); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !expiry.IsEditable(post.CreatedAt, now) {
		return nil, errors.New(errors.ErrEditWindowClosed, errors.MsgEditWindow)
	}
	if post.Content, err = checkLength("content", content, PostMinLength, PostMaxLength); err != nil {
		return nil, err
	}
	if mood != nil && !model.IsValidMood(string(*mood)) {
		return nil, errors.New(errors.ErrValidation, "invalid mood tag")
	}
	post.Mood = mood
	post.UpdatedAt = now

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		return nil, storeError(err, "post")
	}
	realtime.Emit(s.feed, model.CollectionPosts, model.EventUpdate, post.ID, "", post)
	return post, nil
}

// BurnPost 作者立即永久删除帖子
func (s *ConfessionService) BurnPost(ctx context.Context, userID, id string) error {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return storeError(err, "post")
	}
	if err := requireOwner(post.UserID, userID, "posts"); err != nil {
		return err
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		return storeError(err, "post")
	}
	realtime.Emit(s.feed, model.CollectionPosts, model.EventDelete, post.ID, "", post)
	util.Logger.Info("帖子已焚毁", zap.String("post_id", id))
	return nil
}

// ListArchive 当前用户已过期的帖子
func (s *ConfessionService) ListArchive(ctx context.Context, userID string) ([]*model.Post, error) {
	posts, err := s.repo.ListArchived(ctx, userID, s.clock.Now())
	return posts, storeError(err, "posts")
}

func (s *ConfessionService) ListComments(ctx context.Context, postID string) ([]*model.Comment, error) {
	if _, err := s.alivePost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.repo.ListComments(ctx, postID)
	return comments, storeError(err, "comments")
}

// CreateComment id 可以是客户端生成的临时 UUID，便于乐观插入后按 id 对账
func (s *ConfessionService) CreateComment(ctx context.Context, userID, postID, id, content string) (*model.Comment, error) {
	content, err := checkLength("comment", content, 1, CommentMaxLength)
	if err != nil {
		return nil, err
	}
	if _, err := s.alivePost(ctx, postID); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	comment := &model.Comment{ID: id, PostID: postID, UserID: userID, Content: content, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, storeError(err, "comment")
	}
	realtime.Emit(s.feed, model.CollectionComments, model.EventInsert, comment.ID, postID, comment)
	return comment, nil
}

func (s *ConfessionService) UpdateComment(ctx context.Context, userID, id, content string) (*model.Comment, error) {
	comment, err := s.repo.GetComment(ctx, id)
	if err != nil {
		return nil, storeError(err, "comment")
	}
	if err := requireOwner(comment.UserID, userID, "comments"); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !expiry.IsEditable(comment.CreatedAt, now) {
		return nil, errors.New(errors.ErrEditWindowClosed, errors.MsgEditWindow)
	}
	if comment.Content, err = checkLength("comment", content, 1, CommentMaxLength); err != nil {
		return nil, err
	}
	comment.UpdatedAt = now
	if err := s.repo.UpdateComment(ctx, comment); err != nil {
		return nil, storeError(err, "comment")
	}
	realtime.Emit(s.feed, model.CollectionComments, model.EventUpdate, comment.ID, comment.PostID, comment)
	return comment, nil
}

func (s *ConfessionService) DeleteComment(ctx context.Context, userID, id string) error {
	comment, err := s.repo.GetComment(ctx, id)
	if err != nil {
		return storeError(err, "comment")
	}
	if err := requireOwner(comment.UserID, userID, "comments"); err != nil {
		return err
	}
	if err := s.repo.DeleteComment(ctx, id); err != nil {
		return storeError(err, "comment")
	}
	realtime.Emit(s.feed, model.CollectionComments, model.EventDelete, comment.ID, comment.PostID, comment)
	return nil
}

// SetReaction 新增或替换当前用户在帖子上的反应
func (s *ConfessionService) SetReaction(ctx context.Context, userID, postID string, kind model.ReactionKind) (*model.Reaction, error) {
	if !model.IsValidReaction(string(kind)) {
		return nil, errors.New(errors.ErrValidation, "invalid reaction")
	}
	if _, err := s.alivePost(ctx, postID); err != nil {
		return nil, err
	}

	typ := model.EventInsert
	reaction := &model.Reaction{PostID: postID, UserID: userID, Kind: kind, CreatedAt: s.clock.Now()}
	existing, err := s.repo.GetReaction(ctx, postID, userID)
	switch {
	case err == nil:
		typ = model.EventUpdate
		reaction.CreatedAt = existing.CreatedAt
	case !stderrors.Is(err, repository.ErrNotFound):
		return nil, storeError(err, "reaction")
	}

	if err := s.repo.UpsertReaction(ctx, reaction); err != nil {
		return nil, storeError(err, "reaction")
	}
	realtime.Emit(s.feed, model.CollectionReactions, typ, reaction.Key(), postID, reaction)
	return reaction, nil
}

func (s *ConfessionService) RemoveReaction(ctx context.Context, userID, postID string) error {
	existing, err := s.repo.GetReaction(ctx, postID, userID)
	if err != nil {
		return storeError(err, "reaction")
	}
	if err := s.repo.DeleteReaction(ctx, postID, userID); err != nil {
		return storeError(err, "reaction")
	}
	realtime.Emit(s.feed, model.CollectionReactions, model.EventDelete, existing.Key(), postID, existing)
	return nil
}

// Vote 每人每个投票一次，重复投票返回 ErrAlreadyVoted
func (s *ConfessionService) Vote(ctx context.Context, userID, pollID string, option int) (*model.PollVote, error) {
	if option != 1 && option != 2 {
		return nil, errors.New(errors.ErrValidation, "selected_option must be 1 or 2")
	}
	poll, err := s.repo.GetPoll(ctx, pollID)
	if err != nil {
		return nil, storeError(err, "poll")
	}
	if _, err := s.alivePost(ctx, poll.PostID); err != nil {
		return nil, err
	}

	vote := &model.PollVote{PollID: pollID, UserID: userID, SelectedOption: option, CreatedAt: s.clock.Now()}
	if err := s.repo.CreateVote(ctx, vote); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Wrap(errors.ErrAlreadyVoted, errors.MsgAlreadyVoted, err)
		}
		return nil, storeError(err, "vote")
	}
	realtime.Emit(s.feed, model.CollectionPollVotes, model.EventInsert, vote.ID, pollID, vote)
	return vote, nil
}

// NormalizeWord 虚空问题的回答：去空白、小写、单个词
func NormalizeWord(word string) (string, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return "", errors.New(errors.ErrValidation, "answer cannot be empty")
	}
	if strings.IndexFunc(word, unicode.IsSpace) >= 0 {
		return "", errors.New(errors.ErrValidation, "answer must be a single word")
	}
	if len([]rune(word)) > VoidWordMaxLength {
		return "", errors.New(errors.ErrValidation, "answer is too long")
	}
	return word, nil
}

func (s *ConfessionService) AnswerVoid(ctx context.Context, userID, postID, word string) (*model.VoidAnswer, error) {
	word, err := NormalizeWord(word)
	if err != nil {
		return nil, err
	}
	post, err := s.alivePost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsVoidQuestion {
		return nil, errors.New(errors.ErrBadRequest, "post is not a void question")
	}

	answer := &model.VoidAnswer{PostID: postID, UserID: userID, Word: word, CreatedAt: s.clock.Now()}
	if err := s.repo.CreateVoidAnswer(ctx, answer); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Wrap(errors.ErrAlreadyAnswered, errors.MsgAlreadyAnswered, err)
		}
		return nil, storeError(err, "answer")
	}
	realtime.Emit(s.feed, model.CollectionVoidAnswers, model.EventInsert, answer.ID, postID, answer)
	return answer, nil
}

// VoidSummary 回答词频和当前用户是否已回答
type VoidSummary struct {
	Words    []model.WordCount `json:"words"`
	Answered bool              `json:"answered"`
}

func (s *ConfessionService) VoidAnswers(ctx context.Context, userID, postID string) (*VoidSummary, error) {
	if _, err := s.alivePost(ctx, postID); err != nil {
		return nil, err
	}
	answers, err := s.repo.ListVoidAnswers(ctx, postID)
	if err != nil {
		return nil, storeError(err, "answers")
	}
	words := make([]string, 0, len(answers))
	summary := &VoidSummary{}
	for _, a := range answers {
		words = append(words, a.Word)
		if a.UserID == userID {
			summary.Answered = true
		}
	}
	summary.Words = WordFrequencies(words, VoidTopWords)
	return summary, nil
}

// Bookmark 重复收藏视为成功
func (s *ConfessionService) Bookmark(ctx context.Context, userID, postID string) error {
	if _, err := s.alivePost(ctx, postID); err != nil {
		return err
	}
	b := &model.Bookmark{PostID: postID, UserID: userID, CreatedAt: s.clock.Now()}
	if err := s.repo.CreateBookmark(ctx, b); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return storeError(err, "bookmark")
	}
	realtime.Emit(s.feed, model.CollectionBookmarks, model.EventInsert, postID, userID, b)
	return nil
}

func (s *ConfessionService) RemoveBookmark(ctx context.Context, userID, postID string) error {
	if err := s.repo.DeleteBookmark(ctx, postID, userID); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return storeError(err, "bookmark")
	}
	realtime.Emit(s.feed, model.CollectionBookmarks, model.EventDelete, postID, userID,
		&model.Bookmark{PostID: postID, UserID: userID})
	return nil
}

// ListBookmarks 只返回仍未过期的收藏
func (s *ConfessionService) ListBookmarks(ctx context.Context, userID string) ([]*model.PostDetails, error) {
	posts, err := s.repo.ListBookmarked(ctx, userID, s.clock.Now())
	return posts, storeError(err, "bookmarks")
}

// ConfessionServiceInterface 告白相关处理器依赖的服务接口
type ConfessionServiceInterface interface {
	CreatePost(ctx context.Context, userID string, in CreatePostInput) (*model.PostDetails, error)
	GetPost(ctx context.Context, id, viewer string) (*model.PostDetails, error)
	ListPosts(ctx context.Context, filter model.PostFilter) ([]*model.PostDetails, error)
	UpdatePost(ctx context.Context, userID, id, content string, mood *model.MoodTag) (*model.Post, error)
	BurnPost(ctx context.Context, userID, id string) error
	ListArchive(ctx context.Context, userID string) ([]*model.Post, error)
	ListComments(ctx context.Context, postID string) ([]*model.Comment, error)
	CreateComment(ctx context.Context, userID, postID, id, content string) (*model.Comment, error)
	UpdateComment(ctx context.Context, userID, id, content string) (*model.Comment, error)
	DeleteComment(ctx context.Context, userID, id string) error
	SetReaction(ctx context.Context, userID, postID string, kind model.ReactionKind) (*model.Reaction, error)
	RemoveReaction(ctx context.Context, userID, postID string) error
	Vote(ctx context.Context, userID, pollID string, option int) (*model.PollVote, error)
	AnswerVoid(ctx context.Context, userID, postID, word string) (*model.VoidAnswer, error)
	VoidAnswers(ctx context.Context, userID, postID string) (*VoidSummary, error)
	Bookmark(ctx context.Context, userID, postID string) error
	RemoveBookmark(ctx context.Context, userID, postID string) error
	ListBookmarks(ctx context.Context, userID string) ([]*model.PostDetails, error)
}

var _ ConfessionServiceInterface = (*ConfessionService)(nil)
