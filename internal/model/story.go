package model

import "time"

// StorySegment 每日故事中的一句话
// story_id 是 UTC 日期 (YYYY-MM-DD)，(story_id, order) 唯一
type StorySegment struct {
	ID        string    `json:"id"`
	StoryID   string    `json:"story_id"`
	Order     int       `json:"order"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Story 当天的故事
type Story struct {
	ID       string          `json:"id"`
	Prompt   string          `json:"prompt"`
	Segments []*StorySegment `json:"segments"`
}
