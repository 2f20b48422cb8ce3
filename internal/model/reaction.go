package model

import "time"

// ReactionKind 反应类型
type ReactionKind string

const (
	ReactionHeart     ReactionKind = "Heart"
	ReactionSupport   ReactionKind = "Support"
	ReactionInsight   ReactionKind = "Insight"
	ReactionRelatable ReactionKind = "Relatable"
)

// ReactionKinds 固定的反应集合
var ReactionKinds = []ReactionKind{ReactionHeart, ReactionSupport, ReactionInsight, ReactionRelatable}

func IsValidReaction(k string) bool {
	for _, kind := range ReactionKinds {
		if string(kind) == k {
			return true
		}
	}
	return false
}

// Reaction 每个用户对每个帖子最多一个反应，(post_id, user_id) 唯一
type Reaction struct {
	PostID    string       `json:"post_id"`
	UserID    string       `json:"user_id"`
	Kind      ReactionKind `json:"reaction"`
	CreatedAt time.Time    `json:"created_at"`
}

// Key 反应的主键
func (r *Reaction) Key() string {
	return r.PostID + ":" + r.UserID
}
