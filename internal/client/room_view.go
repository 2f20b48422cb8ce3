package client

import (
	"context"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/expiry"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/reconcile"
	"ankahee-backend/internal/service"
)

// RoomAPI 发送聊天消息
type RoomAPI interface {
	SendMessage(ctx context.Context, roomID, content string) (*model.RoomMessage, error)
}

// RoomView 聊天室：成员增删，消息只追加
type RoomView struct {
	attachment

	room     model.Room
	viewer   string
	clock    expiry.Clock
	api      RoomAPI
	mutator  *reconcile.Mutator
	members  *reconcile.List[*model.RoomMember]
	messages *reconcile.List[*model.RoomMessage]
}

func NewRoomView(viewer string, details *model.RoomDetails, api RoomAPI, notifier reconcile.Notifier, clock expiry.Clock) *RoomView {
	return &RoomView{
		room:    details.Room,
		viewer:  viewer,
		clock:   clock,
		api:     api,
		mutator: reconcile.NewMutator(notifier),
		members: reconcile.NewList(reconcile.Rules[*model.RoomMember]{
			Key: func(m *model.RoomMember) string { return m.Key() },
		}, details.Members),
		messages: reconcile.NewList(reconcile.Rules[*model.RoomMessage]{
			Key: func(m *model.RoomMessage) string { return m.ID },
		}, details.Messages),
	}
}

func (v *RoomView) Members() []*model.RoomMember {
	return v.members.Items()
}

func (v *RoomView) Messages() []*model.RoomMessage {
	return v.messages.Items()
}

// IsMember 当前用户是否在成员列表中
func (v *RoomView) IsMember() bool {
	return v.members.Has((&model.RoomMember{RoomID: v.room.ID, UserID: v.viewer}).Key())
}

// Alive 房间是否仍在有效期内
func (v *RoomView) Alive() bool {
	return expiry.IsAlive(v.room.ExpiresAt, v.clock.Now())
}

func (v *RoomView) Attach(ctx context.Context, feed realtime.Feed) error {
	return v.attach(ctx, feed,
		route{
			topic: realtime.Topic{Collection: model.CollectionRoomMembers, ParentKey: v.room.ID},
			apply: func(raw model.ChangeEvent) {
				if ev, ok := decode[*model.RoomMember](raw); ok {
					v.members.Apply(ev)
				}
			},
		},
		route{
			topic: realtime.Topic{Collection: model.CollectionRoomMessages, ParentKey: v.room.ID},
			apply: func(raw model.ChangeEvent) {
				if raw.Type != model.EventInsert {
					return
				}
				if ev, ok := decode[*model.RoomMessage](raw); ok {
					v.messages.Apply(ev)
				}
			},
		},
	)
}

// Send 不做乐观插入，成功后按ID插入，与随后到达的事件去重
func (v *RoomView) Send(ctx context.Context, content string) reconcile.Result[*model.RoomMessage] {
	content, err := checkText("message", content, 1, service.RoomMessageMaxLen)
	if err != nil {
		return reconcile.Result[*model.RoomMessage]{Err: err}
	}
	if !v.Alive() {
		return reconcile.Result[*model.RoomMessage]{Err: errors.New(errors.ErrExpired, "this room has expired")}
	}
	if !v.IsMember() {
		return reconcile.Result[*model.RoomMessage]{Err: errors.New(errors.ErrNotMember, "join the room to send messages")}
	}

	res := reconcile.Perform(ctx, v.mutator, reconcile.NoPatch, func(ctx context.Context) (*model.RoomMessage, error) {
		return v.api.SendMessage(ctx, v.room.ID, content)
	})
	if res.OK() && res.Value != nil {
		v.messages.Insert(res.Value)
	}
	return res
}
