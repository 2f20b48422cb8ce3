package service

import (
	"context"
	stderrors "errors"

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
	RoomNameMin       = 3
	RoomNameMax       = 50
	RoomMessageMaxLen = 500
)

// RoomService 24小时聊天室
type RoomService struct {
	repo  interfaces.RoomRepository
	feed  realtime.Publisher
	clock expiry.Clock
}

func NewRoomService(repo interfaces.RoomRepository, feed realtime.Publisher, clock expiry.Clock) *RoomService {
	return &RoomService{repo: repo, feed: feed, clock: clock}
}

// CreateRoom 创建房间，创建者自动成为成员
func (s *RoomService) CreateRoom(ctx context.Context, userID, name string) (*model.Room, error) {
	name, err := checkLength("room name", name, RoomNameMin, RoomNameMax)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	room := &model.Room{
		Name:      name,
		OwnerID:   userID,
		CreatedAt: now,
		ExpiresAt: expiry.ForKind(expiry.KindRoom).ExpiresAt(now),
	}
	owner := &model.RoomMember{UserID: userID, JoinedAt: now}
	if err := s.repo.CreateRoom(ctx, room, owner); err != nil {
		return nil, storeError(err, "room")
	}

	realtime.Emit(s.feed, model.CollectionRooms, model.EventInsert, room.ID, "", room)
	realtime.Emit(s.feed, model.CollectionRoomMembers, model.EventInsert, owner.Key(), room.ID, owner)
	util.Logger.Info("房间创建成功", zap.String("room_id", room.ID))
	return room, nil
}

func (s *RoomService) ListRooms(ctx context.Context) ([]*model.Room, error) {
	rooms, err := s.repo.ListRooms(ctx, s.clock.Now())
	return rooms, storeError(err, "rooms")
}

func (s *RoomService) aliveRoom(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		return nil, storeError(err, "room")
	}
	if !expiry.IsAlive(room.ExpiresAt, s.clock.Now()) {
		return nil, errors.New(errors.ErrResourceNotFound, "room not found")
	}
	return room, nil
}

// GetRoom 返回房间、成员、消息和当前用户是否为成员，过期房间返回 404
func (s *RoomService) GetRoom(ctx context.Context, userID, id string) (*model.RoomDetails, error) {
	room, err := s.aliveRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, id)
	if err != nil {
		return nil, storeError(err, "members")
	}
	messages, err := s.repo.ListMessages(ctx, id)
	if err != nil {
		return nil, storeError(err, "messages")
	}

	details := &model.RoomDetails{Room: *room, Members: members, Messages: messages}
	for _, m := range members {
		if m.UserID == userID {
			details.IsMember = true
			break
		}
	}
	return details, nil
}

// Join 重复加入视为成功
func (s *RoomService) Join(ctx context.Context, userID, roomID string) (*model.RoomMember, error) {
	if _, err := s.aliveRoom(ctx, roomID); err != nil {
		return nil, err
	}
	member := &model.RoomMember{RoomID: roomID, UserID: userID, JoinedAt: s.clock.Now()}
	if err := s.repo.AddMember(ctx, member); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return member, nil
		}
		return nil, storeError(err, "member")
	}
	realtime.Emit(s.feed, model.CollectionRoomMembers, model.EventInsert, member.Key(), roomID, member)
	return member, nil
}

func (s *RoomService) Leave(ctx context.Context, userID, roomID string) error {
	if err := s.repo.RemoveMember(ctx, roomID, userID); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return storeError(err, "member")
	}
	member := &model.RoomMember{RoomID: roomID, UserID: userID}
	realtime.Emit(s.feed, model.CollectionRoomMembers, model.EventDelete, member.Key(), roomID, member)
	return nil
}

// SendMessage 只有成员可以在未过期的房间里发言
func (s *RoomService) SendMessage(ctx context.Context, userID, roomID, content string) (*model.RoomMessage, error) {
	content, err := checkLength("message", content, 1, RoomMessageMaxLen)
	if err != nil {
		return nil, err
	}
	if _, err := s.aliveRoom(ctx, roomID); err != nil {
		return nil, err
	}
	ok, err := s.repo.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, storeError(err, "member")
	}
	if !ok {
		return nil, errors.New(errors.ErrNotMember, "join the room to send messages")
	}

	msg := &model.RoomMessage{RoomID: roomID, UserID: userID, Content: content, CreatedAt: s.clock.Now()}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, storeError(err, "message")
	}
	realtime.Emit(s.feed, model.CollectionRoomMessages, model.EventInsert, msg.ID, roomID, msg)
	return msg, nil
}

// IsMember 供实时订阅鉴权使用
func (s *RoomService) IsMember(ctx context.Context, userID, roomID string) (bool, error) {
	ok, err := s.repo.IsMember(ctx, roomID, userID)
	return ok, storeError(err, "member")
}

// RoomServiceInterface 聊天室处理器依赖的服务接口
type RoomServiceInterface interface {
	CreateRoom(ctx context.Context, userID, name string) (*model.Room, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)
	GetRoom(ctx context.Context, userID, id string) (*model.RoomDetails, error)
	Join(ctx context.Context, userID, roomID string) (*model.RoomMember, error)
	Leave(ctx context.Context, userID, roomID string) error
	SendMessage(ctx context.Context, userID, roomID, content string) (*model.RoomMessage, error)
	IsMember(ctx context.Context, userID, roomID string) (bool, error)
}

var _ RoomServiceInterface = (*RoomService)(nil)
