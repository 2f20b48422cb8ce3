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

type roomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) *roomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) CreateRoom(ctx context.Context, room *model.Room, owner *model.RoomMember) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO rooms (id, name, owner_id, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		room.ID, room.Name, room.OwnerID, room.CreatedAt, room.ExpiresAt)
	if err != nil {
		util.Logger.Error("创建房间失败", zap.Error(err))
		return mapError(err)
	}

	owner.RoomID = room.ID
	_, err = tx.ExecContext(ctx, `INSERT INTO room_members (room_id, user_id, joined_at) VALUES (?, ?, ?)`,
		owner.RoomID, owner.UserID, owner.JoinedAt)
	if err != nil {
		util.Logger.Error("房主加入房间失败", zap.Error(err))
		return mapError(err)
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return err
	}
	util.Logger.Info("房间创建成功", zap.String("room_id", room.ID))
	return nil
}

func (r *roomRepository) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	err := r.db.QueryRowContext(ctx, `SELECT id, name, owner_id, created_at, expires_at FROM rooms WHERE id = ?`, id).
		Scan(&room.ID, &room.Name, &room.OwnerID, &room.CreatedAt, &room.ExpiresAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &room, nil
}

func (r *roomRepository) ListRooms(ctx context.Context, now time.Time) ([]*model.Room, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, owner_id, created_at, expires_at FROM rooms WHERE expires_at > ? ORDER BY created_at DESC`, now)
	if err != nil {
		util.Logger.Error("查询房间失败", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	rooms := []*model.Room{}
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.OwnerID, &room.CreatedAt, &room.ExpiresAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, &room)
	}
	return rooms, rows.Err()
}

// AddMember 重复加入返回 ErrDuplicate
func (r *roomRepository) AddMember(ctx context.Context, member *model.RoomMember) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO room_members (room_id, user_id, joined_at) VALUES (?, ?, ?)`,
		member.RoomID, member.UserID, member.JoinedAt)
	return mapError(err)
}

func (r *roomRepository) RemoveMember(ctx context.Context, roomID, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM room_members WHERE room_id = ? AND user_id = ?`, roomID, userID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *roomRepository) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM room_members WHERE room_id = ? AND user_id = ?)`, roomID, userID).Scan(&exists)
	return exists, err
}

func (r *roomRepository) ListMembers(ctx context.Context, roomID string) ([]*model.RoomMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT room_id, user_id, joined_at FROM room_members WHERE room_id = ? ORDER BY joined_at ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []*model.RoomMember{}
	for rows.Next() {
		var m model.RoomMember
		if err := rows.Scan(&m.RoomID, &m.UserID, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (r *roomRepository) CreateMessage(ctx context.Context, msg *model.RoomMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO room_messages (id, room_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.RoomID, msg.UserID, msg.Content, msg.CreatedAt)
	if err != nil {
		util.Logger.Error("发送消息失败", zap.Error(err), zap.String("room_id", msg.RoomID))
		return mapError(err)
	}
	return nil
}

func (r *roomRepository) ListMessages(ctx context.Context, roomID string) ([]*model.RoomMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_id, user_id, content, created_at FROM room_messages WHERE room_id = ? ORDER BY created_at ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*model.RoomMessage{}
	for rows.Next() {
		var m model.RoomMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
