package mysql

import (
	"context"
	"database/sql"
	"time"

	"ankahee-backend/internal/model"
	"ankahee-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const postColumns = `p.id, p.user_id, p.content, p.mood, p.parent_post_id, p.is_void_question,
               p.created_at, p.updated_at, p.expires_at`

type confessionRepository struct {
	db *sql.DB
}

func NewConfessionRepository(db *sql.DB) *confessionRepository {
	return &confessionRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner, post *model.Post, extra ...interface{}) error {
	var mood, parent sql.NullString
	dest := []interface{}{
		&post.ID, &post.UserID, &post.Content, &mood, &parent, &post.IsVoidQuestion,
		&post.CreatedAt, &post.UpdatedAt, &post.ExpiresAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	if mood.Valid {
		m := model.MoodTag(mood.String)
		post.Mood = &m
	}
	if parent.Valid {
		p := parent.String
		post.ParentPostID = &p
	}
	return nil
}

func nullMood(m *model.MoodTag) sql.NullString {
	if m == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*m), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *confessionRepository) CreatePost(ctx context.Context, post *model.Post, poll *model.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	query := `INSERT INTO posts (id, user_id, content, mood, parent_post_id, is_void_question, created_at, updated_at, expires_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query, post.ID, post.UserID, post.Content, nullMood(post.Mood),
		nullString(post.ParentPostID), post.IsVoidQuestion, post.CreatedAt, post.UpdatedAt, post.ExpiresAt)
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err))
		return mapError(err)
	}

	if poll != nil {
		if poll.ID == "" {
			poll.ID = uuid.NewString()
		}
		poll.PostID = post.ID
		query = `INSERT INTO polls (id, post_id, option_one_text, option_two_text, created_at) VALUES (?, ?, ?, ?, ?)`
		if _, err = tx.ExecContext(ctx, query, poll.ID, poll.PostID, poll.OptionOneText, poll.OptionTwoText, poll.CreatedAt); err != nil {
			util.Logger.Error("创建投票失败", zap.Error(err))
			return mapError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return err
	}

	util.Logger.Info("帖子创建成功", zap.String("post_id", post.ID))
	return nil
}

func (r *confessionRepository) GetPost(ctx context.Context, id string) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = ?`
	var post model.Post
	if err := scanPost(r.db.QueryRowContext(ctx, query, id), &post); err != nil {
		return nil, mapError(err)
	}
	return &post, nil
}

func (r *confessionRepository) GetPostDetails(ctx context.Context, id, viewer string, now time.Time) (*model.PostDetails, error) {
	query := `SELECT ` + postColumns + `,
               (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
              FROM posts p
              WHERE p.id = ? AND p.expires_at > ?`
	var d model.PostDetails
	if err := scanPost(r.db.QueryRowContext(ctx, query, id, now), &d.Post, &d.CommentCount); err != nil {
		return nil, mapError(err)
	}
	details := []*model.PostDetails{&d}
	if err := r.loadAggregates(ctx, details, viewer); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *confessionRepository) ListPosts(ctx context.Context, filter model.PostFilter, now time.Time) ([]*model.PostDetails, error) {
	query := `SELECT ` + postColumns + `,
               (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
              FROM posts p
              WHERE p.expires_at > ?`
	args := []interface{}{now}
	if filter.Mood != nil {
		query += ` AND p.mood = ?`
		args = append(args, string(*filter.Mood))
	}
	query += ` ORDER BY p.created_at DESC`
	return r.queryDetails(ctx, filter.Viewer, query, args...)
}

func (r *confessionRepository) ListBookmarked(ctx context.Context, userID string, now time.Time) ([]*model.PostDetails, error) {
	query := `SELECT ` + postColumns + `,
               (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
              FROM posts p
              JOIN bookmarks b ON b.post_id = p.id
              WHERE b.user_id = ? AND p.expires_at > ?
              ORDER BY b.created_at DESC`
	return r.queryDetails(ctx, userID, query, userID, now)
}

func (r *confessionRepository) queryDetails(ctx context.Context, viewer, query string, args ...interface{}) ([]*model.PostDetails, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		util.Logger.Error("查询帖子列表失败", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	details := []*model.PostDetails{}
	for rows.Next() {
		var d model.PostDetails
		if err := scanPost(rows, &d.Post, &d.CommentCount); err != nil {
			return nil, err
		}
		details = append(details, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadAggregates(ctx, details, viewer); err != nil {
		return nil, err
	}
	return details, nil
}

// loadAggregates 批量加载反应、投票和当前用户的收藏状态
func (r *confessionRepository) loadAggregates(ctx context.Context, details []*model.PostDetails, viewer string) error {
	if len(details) == 0 {
		return nil
	}
	byID := make(map[string]*model.PostDetails, len(details))
	ids := make([]string, 0, len(details))
	for _, d := range details {
		d.Reactions = []*model.Reaction{}
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}
	in, args := inClause(ids)

	rows, err := r.db.QueryContext(ctx,
		`SELECT post_id, user_id, reaction, created_at FROM reactions WHERE post_id IN `+in, args...)
	if err != nil {
		util.Logger.Error("查询反应失败", zap.Error(err))
		return err
	}
	for rows.Next() {
		var re model.Reaction
		if err := rows.Scan(&re.PostID, &re.UserID, &re.Kind, &re.CreatedAt); err != nil {
			rows.Close()
			return err
		}
		if d, ok := byID[re.PostID]; ok {
			d.Reactions = append(d.Reactions, &re)
		}
	}
	rows.Close()

	polls := make(map[string]*model.PollDetails)
	rows, err = r.db.QueryContext(ctx,
		`SELECT id, post_id, option_one_text, option_two_text, created_at FROM polls WHERE post_id IN `+in, args...)
	if err != nil {
		util.Logger.Error("查询投票失败", zap.Error(err))
		return err
	}
	for rows.Next() {
		pd := &model.PollDetails{Votes: []*model.PollVote{}}
		if err := rows.Scan(&pd.ID, &pd.PostID, &pd.OptionOneText, &pd.OptionTwoText, &pd.CreatedAt); err != nil {
			rows.Close()
			return err
		}
		polls[pd.ID] = pd
		byID[pd.PostID].Poll = pd
	}
	rows.Close()

	if len(polls) > 0 {
		pollIDs := make([]string, 0, len(polls))
		for id := range polls {
			pollIDs = append(pollIDs, id)
		}
		pin, pargs := inClause(pollIDs)
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, poll_id, user_id, selected_option, created_at FROM poll_votes WHERE poll_id IN `+pin, pargs...)
		if err != nil {
			util.Logger.Error("查询选票失败", zap.Error(err))
			return err
		}
		for rows.Next() {
			var v model.PollVote
			if err := rows.Scan(&v.ID, &v.PollID, &v.UserID, &v.SelectedOption, &v.CreatedAt); err != nil {
				rows.Close()
				return err
			}
			if pd, ok := polls[v.PollID]; ok {
				pd.Votes = append(pd.Votes, &v)
			}
		}
		rows.Close()
	}

	if viewer == "" {
		return nil
	}
	rows, err = r.db.QueryContext(ctx,
		`SELECT post_id FROM bookmarks WHERE user_id = ? AND post_id IN `+in, append([]interface{}{viewer}, args...)...)
	if err != nil {
		util.Logger.Error("查询收藏失败", zap.Error(err))
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var postID string
		if err := rows.Scan(&postID); err != nil {
			return err
		}
		if d, ok := byID[postID]; ok {
			d.IsBookmarked = true
		}
	}
	return rows.Err()
}

func (r *confessionRepository) ListArchived(ctx context.Context, userID string, now time.Time) ([]*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p
              WHERE p.user_id = ? AND p.expires_at <= ?
              ORDER BY p.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, now)
	if err != nil {
		util.Logger.Error("查询归档失败", zap.Error(err), zap.String("user_id", userID))
		return nil, err
	}
	defer rows.Close()

	posts := []*model.Post{}
	for rows.Next() {
		var post model.Post
		if err := scanPost(rows, &post); err != nil {
			return nil, err
		}
		posts = append(posts, &post)
	}
	return posts, rows.Err()
}

func (r *confessionRepository) ListAliveContents(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT content FROM posts WHERE expires_at > ?`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}

func (r *confessionRepository) UpdatePost(ctx context.Context, post *model.Post) error {
	query := `UPDATE posts SET content = ?, mood = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, post.Content, nullMood(post.Mood), post.UpdatedAt, post.ID)
	if err != nil {
		util.Logger.Error("更新帖子失败", zap.Error(err), zap.String("post_id", post.ID))
		return err
	}
	return checkAffected(result)
}

// DeletePost 焚毁帖子，评论、反应、投票等由外键级联删除
func (r *confessionRepository) DeletePost(ctx context.Context, id string) error {
	util.Logger.Info("开始删除帖子", zap.String("post_id", id))

	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		util.Logger.Error("删除帖子失败", zap.Error(err), zap.String("post_id", id))
		return err
	}
	if err := checkAffected(result); err != nil {
		return err
	}

	util.Logger.Info("帖子删除成功", zap.String("post_id", id))
	return nil
}

func (r *confessionRepository) CreateComment(ctx context.Context, comment *model.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	query := `INSERT INTO comments (id, post_id, user_id, content, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, comment.ID, comment.PostID, comment.UserID, comment.Content,
		comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		util.Logger.Error("创建评论失败", zap.Error(err), zap.String("post_id", comment.PostID))
		return mapError(err)
	}
	return nil
}

func (r *confessionRepository) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	query := `SELECT id, post_id, user_id, content, created_at, updated_at FROM comments WHERE id = ?`
	var c model.Comment
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *confessionRepository) ListComments(ctx context.Context, postID string) ([]*model.Comment, error) {
	query := `SELECT id, post_id, user_id, content, created_at, updated_at
              FROM comments WHERE post_id = ? ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		util.Logger.Error("查询评论失败", zap.Error(err), zap.String("post_id", postID))
		return nil, err
	}
	defer rows.Close()

	comments := []*model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (r *confessionRepository) UpdateComment(ctx context.Context, comment *model.Comment) error {
	result, err := r.db.ExecContext(ctx, `UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`,
		comment.Content, comment.UpdatedAt, comment.ID)
	if err != nil {
		util.Logger.Error("更新评论失败", zap.Error(err), zap.String("comment_id", comment.ID))
		return err
	}
	return checkAffected(result)
}

func (r *confessionRepository) DeleteComment(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		util.Logger.Error("删除评论失败", zap.Error(err), zap.String("comment_id", id))
		return err
	}
	return checkAffected(result)
}

// UpsertReaction 每个用户每个帖子只保留一个反应
func (r *confessionRepository) UpsertReaction(ctx context.Context, reaction *model.Reaction) error {
	query := `INSERT INTO reactions (post_id, user_id, reaction, created_at) VALUES (?, ?, ?, ?)
              ON DUPLICATE KEY UPDATE reaction = VALUES(reaction)`
	_, err := r.db.ExecContext(ctx, query, reaction.PostID, reaction.UserID, string(reaction.Kind), reaction.CreatedAt)
	if err != nil {
		util.Logger.Error("保存反应失败", zap.Error(err), zap.String("post_id", reaction.PostID))
		return mapError(err)
	}
	return nil
}

func (r *confessionRepository) GetReaction(ctx context.Context, postID, userID string) (*model.Reaction, error) {
	var re model.Reaction
	err := r.db.QueryRowContext(ctx,
		`SELECT post_id, user_id, reaction, created_at FROM reactions WHERE post_id = ? AND user_id = ?`,
		postID, userID).Scan(&re.PostID, &re.UserID, &re.Kind, &re.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &re, nil
}

func (r *confessionRepository) DeleteReaction(ctx context.Context, postID, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reactions WHERE post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		util.Logger.Error("删除反应失败", zap.Error(err), zap.String("post_id", postID))
		return err
	}
	return checkAffected(result)
}

func (r *confessionRepository) GetPoll(ctx context.Context, id string) (*model.Poll, error) {
	var p model.Poll
	err := r.db.QueryRowContext(ctx,
		`SELECT id, post_id, option_one_text, option_two_text, created_at FROM polls WHERE id = ?`, id).
		Scan(&p.ID, &p.PostID, &p.OptionOneText, &p.OptionTwoText, &p.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// CreateVote (poll_id, user_id) 唯一，重复投票返回 ErrDuplicate
func (r *confessionRepository) CreateVote(ctx context.Context, vote *model.PollVote) error {
	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO poll_votes (id, poll_id, user_id, selected_option, created_at) VALUES (?, ?, ?, ?, ?)`,
		vote.ID, vote.PollID, vote.UserID, vote.SelectedOption, vote.CreatedAt)
	if err != nil {
		util.Logger.Warn("投票失败", zap.Error(err), zap.String("poll_id", vote.PollID))
		return mapError(err)
	}
	return nil
}

// CreateVoidAnswer (post_id, user_id) 唯一
func (r *confessionRepository) CreateVoidAnswer(ctx context.Context, answer *model.VoidAnswer) error {
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO void_answers (id, post_id, user_id, word, created_at) VALUES (?, ?, ?, ?, ?)`,
		answer.ID, answer.PostID, answer.UserID, answer.Word, answer.CreatedAt)
	if err != nil {
		util.Logger.Warn("回答虚空问题失败", zap.Error(err), zap.String("post_id", answer.PostID))
		return mapError(err)
	}
	return nil
}

func (r *confessionRepository) ListVoidAnswers(ctx context.Context, postID string) ([]*model.VoidAnswer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, user_id, word, created_at FROM void_answers WHERE post_id = ? ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := []*model.VoidAnswer{}
	for rows.Next() {
		var a model.VoidAnswer
		if err := rows.Scan(&a.ID, &a.PostID, &a.UserID, &a.Word, &a.CreatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, &a)
	}
	return answers, rows.Err()
}

func (r *confessionRepository) CreateBookmark(ctx context.Context, bookmark *model.Bookmark) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO bookmarks (post_id, user_id, created_at) VALUES (?, ?, ?)`,
		bookmark.PostID, bookmark.UserID, bookmark.CreatedAt)
	return mapError(err)
}

func (r *confessionRepository) DeleteBookmark(ctx context.Context, postID, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
