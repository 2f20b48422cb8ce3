package interfaces

import (
	"context"
	"time"

	"ankahee-backend/internal/model"
)

// RoomRepository 聊天室相关的数据库操作
type RoomRepository interface {
	// CreateRoom 在同一事务中创建房间并把创建者加入成员
	CreateRoom(ctx context.Context, room *model.Room, owner *model.RoomMember) error
	GetRoom(ctx context.Context, id string) (*model.Room, error)
	ListRooms(ctx context.Context, now time.Time) ([]*model.Room, error)
	AddMember(ctx context.Context, member *model.RoomMember) error
	RemoveMember(ctx context.Context, roomID, userID string) error
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
	ListMembers(ctx context.Context, roomID string) ([]*model.RoomMember, error)
	CreateMessage(ctx context.Context, msg *model.RoomMessage) error
	ListMessages(ctx context.Context, roomID string) ([]*model.RoomMessage, error)
}
