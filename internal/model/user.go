package model

import "time"

// User 结构体表示匿名用户的账户
// 对外展示时永远只显示 "Anonymous"，Email 仅用于登录
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"-"`
	PasswordHash string     `json:"-"` // 密码哈希不应在JSON中暴露
	IsVerified   bool       `json:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// DisplayName 匿名平台上所有人的展示名称
const DisplayName = "Anonymous"

// DeletedContent 删除账户时一并删除的内容，用于发布删除事件
type DeletedContent struct {
	Posts     []*Post
	Comments  []*Comment
	Reactions []*Reaction
}
