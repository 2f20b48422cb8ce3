package model

import "time"

// Room 24小时后过期的聊天室
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RoomMember 成员标记
type RoomMember struct {
	RoomID   string    `json:"room_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// Key 成员记录的主键
func (m *RoomMember) Key() string {
	return m.RoomID + ":" + m.UserID
}

// RoomMessage 只追加的聊天消息
type RoomMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomDetails 房间详情
type RoomDetails struct {
	Room
	Members  []*RoomMember  `json:"members"`
	Messages []*RoomMessage `json:"messages"`
	IsMember bool           `json:"is_member"`
}
