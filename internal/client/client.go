// Package client 调用 Ankahee API 并把变更流合并到本地视图
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/service"
)

// DefaultTimeout 单次请求超时
const DefaultTimeout = 15 * time.Second

// Client HTTP API 客户端，失败统一返回 *errors.AppError
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New baseURL 形如 http://localhost:8080/api
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// WithHTTPClient 替换底层 http.Client
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(errors.ErrBadRequest, "invalid request body", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(errors.ErrBadRequest, "invalid request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrUnavailable, "network error", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	envelope := struct {
		Data interface{} `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.Wrap(errors.ErrUnavailable, "malformed response", err)
	}
	return nil
}

// decodeError 把 {"error":{"code","message"}} 还原成 AppError
func decodeError(resp *http.Response) error {
	var body errors.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Code == 0 {
		return errors.New(errors.ErrUnavailable, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
	return errors.New(body.Error.Code, body.Error.Message)
}

func (c *Client) ListPosts(ctx context.Context, mood *model.MoodTag, sort model.PostSort) ([]*model.PostDetails, error) {
	q := url.Values{}
	if mood != nil {
		q.Set("mood", string(*mood))
	}
	if sort != "" {
		q.Set("sort", string(sort))
	}
	path := "/posts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var posts []*model.PostDetails
	return posts, c.do(ctx, http.MethodGet, path, nil, &posts)
}

func (c *Client) CreatePost(ctx context.Context, in service.CreatePostInput) (*model.PostDetails, error) {
	var post model.PostDetails
	if err := c.do(ctx, http.MethodPost, "/posts", in, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) BurnPost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID), nil, nil)
}

func (c *Client) ListComments(ctx context.Context, postID string) ([]*model.Comment, error) {
	var comments []*model.Comment
	return comments, c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID)+"/comments", nil, &comments)
}

// CreateComment id 是客户端生成的临时ID
func (c *Client) CreateComment(ctx context.Context, postID, id, content string) (*model.Comment, error) {
	var comment model.Comment
	body := map[string]string{"id": id, "content": content}
	if err := c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/comments", body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) SetReaction(ctx context.Context, postID string, kind model.ReactionKind) (*model.Reaction, error) {
	var reaction model.Reaction
	body := map[string]string{"reaction": string(kind)}
	if err := c.do(ctx, http.MethodPut, "/posts/"+url.PathEscape(postID)+"/reaction", body, &reaction); err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (c *Client) RemoveReaction(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID)+"/reaction", nil, nil)
}

func (c *Client) Bookmark(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/bookmark", nil, nil)
}

func (c *Client) RemoveBookmark(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID)+"/bookmark", nil, nil)
}

func (c *Client) Vote(ctx context.Context, pollID string, option int) (*model.PollVote, error) {
	var vote model.PollVote
	body := map[string]int{"option": option}
	if err := c.do(ctx, http.MethodPost, "/polls/"+url.PathEscape(pollID)+"/votes", body, &vote); err != nil {
		return nil, err
	}
	return &vote, nil
}

func (c *Client) AnswerVoid(ctx context.Context, postID, word string) (*model.VoidAnswer, error) {
	var answer model.VoidAnswer
	body := map[string]string{"word": word}
	if err := c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/void-answers", body, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

func (c *Client) VoidAnswers(ctx context.Context, postID string) (*service.VoidSummary, error) {
	var summary service.VoidSummary
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID)+"/void-answers", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) Story(ctx context.Context) (*model.Story, error) {
	var story model.Story
	if err := c.do(ctx, http.MethodGet, "/story", nil, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

func (c *Client) AddSegment(ctx context.Context, content string) (*model.StorySegment, error) {
	var seg model.StorySegment
	if err := c.do(ctx, http.MethodPost, "/story/segments", map[string]string{"content": content}, &seg); err != nil {
		return nil, err
	}
	return &seg, nil
}

func (c *Client) GetRoom(ctx context.Context, roomID string) (*model.RoomDetails, error) {
	var room model.RoomDetails
	if err := c.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(roomID), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) SendMessage(ctx context.Context, roomID, content string) (*model.RoomMessage, error) {
	var msg model.RoomMessage
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/messages", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SuggestMood 返回 nil 表示没有建议
func (c *Client) SuggestMood(ctx context.Context, text string) (*model.MoodTag, error) {
	var out struct {
		Mood *model.MoodTag `json:"mood"`
	}
	if err := c.do(ctx, http.MethodPost, "/mood/suggest", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return out.Mood, nil
}
