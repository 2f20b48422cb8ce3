package model

import "time"

// MoodTag 帖子的情绪标签
type MoodTag string

const (
	MoodSad     MoodTag = "Sad"
	MoodAngry   MoodTag = "Angry"
	MoodLove    MoodTag = "Love"
	MoodAnxiety MoodTag = "Anxiety"
	MoodSecret  MoodTag = "Secret"
)

// MoodTags 所有可用的情绪标签
var MoodTags = []MoodTag{MoodSad, MoodAngry, MoodLove, MoodAnxiety, MoodSecret}

// IsValidMood 判断情绪标签是否合法
func IsValidMood(m string) bool {
	for _, tag := range MoodTags {
		if string(tag) == m {
			return true
		}
	}
	return false
}

// Post 匿名告白
type Post struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Content        string    `json:"content"`
	Mood           *MoodTag  `json:"mood,omitempty"`
	ParentPostID   *string   `json:"parent_post_id,omitempty"`
	IsVoidQuestion bool      `json:"is_void_question"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// PostDetails 列表和详情接口返回的聚合视图
type PostDetails struct {
	Post
	CommentCount int          `json:"comment_count"`
	Reactions    []*Reaction  `json:"reactions"`
	Poll         *PollDetails `json:"poll,omitempty"`
	IsBookmarked bool         `json:"is_bookmarked"`
}

// HeartCount 统计 Heart 反应数量，用于 "most loved" 排序
func (p *PostDetails) HeartCount() int {
	n := 0
	for _, r := range p.Reactions {
		if r.Kind == ReactionHeart {
			n++
		}
	}
	return n
}

// Comment 帖子下的评论
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bookmark 私有收藏标记，帖子过期后自动失效
type Bookmark struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostSort 列表排序方式
type PostSort string

const (
	SortNewest  PostSort = "newest"
	SortPopular PostSort = "popular"
	SortLoved   PostSort = "loved"
)

// PostFilter 列表查询条件
type PostFilter struct {
	Mood   *MoodTag
	Sort   PostSort
	Viewer string
}
