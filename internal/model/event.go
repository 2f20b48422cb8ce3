package model

import (
	"encoding/json"
	"time"
)

// EventType 变更事件类型
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// 变更流中的集合名
const (
	CollectionPosts        = "posts"
	CollectionComments     = "comments"
	CollectionReactions    = "reactions"
	CollectionPollVotes    = "poll_votes"
	CollectionVoidAnswers  = "void_answers"
	CollectionBookmarks    = "bookmarks"
	CollectionRooms        = "rooms"
	CollectionRoomMembers  = "room_members"
	CollectionRoomMessages = "room_messages"
	CollectionStory        = "story_segments"
	CollectionLetters      = "letters"
)

// ChangeEvent 一次已提交写入的变更通知
// Delete 事件的 Record 为被删除前的记录
type ChangeEvent struct {
	Collection string          `json:"collection"`
	Type       EventType       `json:"type"`
	Key        string          `json:"key"`
	ParentKey  string          `json:"parent_key,omitempty"`
	Record     json.RawMessage `json:"record,omitempty"`
	CommitTime time.Time       `json:"commit_time"`
}

// Decode 把记录解析到 v
func (e *ChangeEvent) Decode(v interface{}) error {
	return json.Unmarshal(e.Record, v)
}
