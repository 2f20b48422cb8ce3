// Package live 通过 websocket 推送变更流
package live

import (
	"context"
	"net/http"
	"time"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/middleware"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

// writeWait 单帧写超时
const writeWait = 10 * time.Second

// MembershipChecker 房间成员判断
type MembershipChecker interface {
	IsMember(ctx context.Context, userID, roomID string) (bool, error)
}

var collections = map[string]bool{
	model.CollectionPosts:        true,
	model.CollectionComments:     true,
	model.CollectionReactions:    true,
	model.CollectionPollVotes:    true,
	model.CollectionVoidAnswers:  true,
	model.CollectionBookmarks:    true,
	model.CollectionRooms:        true,
	model.CollectionRoomMembers:  true,
	model.CollectionRoomMessages: true,
	model.CollectionStory:        true,
	model.CollectionLetters:      true,
}

// LiveHandler 订阅变更流并以 JSON 帧推送给客户端
type LiveHandler struct {
	feed    realtime.Feed
	members MembershipChecker
	origin  string
}

// NewLiveHandler origin 为空时不校验 Origin 头
func NewLiveHandler(feed realtime.Feed, members MembershipChecker, origin string) *LiveHandler {
	return &LiveHandler{feed: feed, members: members, origin: origin}
}

// authorize 房间内的集合只对成员开放，收藏只能订阅自己的
func (h *LiveHandler) authorize(ctx context.Context, userID string, topic *realtime.Topic) error {
	if !collections[topic.Collection] {
		return errors.New(errors.ErrValidation, "unknown collection")
	}

	switch topic.Collection {
	case model.CollectionBookmarks:
		if topic.ParentKey == "" {
			topic.ParentKey = userID
		}
		if topic.ParentKey != userID {
			return errors.New(errors.ErrForbidden, "bookmarks are private")
		}
	case model.CollectionRoomMembers, model.CollectionRoomMessages:
		if topic.ParentKey == "" {
			return errors.New(errors.ErrValidation, "room id is required")
		}
		ok, err := h.members.IsMember(ctx, userID, topic.ParentKey)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New(errors.ErrNotMember, "join the room to follow it")
		}
	}
	return nil
}

func (h *LiveHandler) handshake(config *websocket.Config, req *http.Request) error {
	if h.origin == "" {
		return nil
	}
	origin, err := websocket.Origin(config, req)
	if err != nil {
		return err
	}
	if origin == nil || origin.Scheme+"://"+origin.Host != h.origin {
		return errors.New(errors.ErrForbidden, "origin not allowed")
	}
	return nil
}

// Stream GET /api/realtime?collection=<name>&parent=<id>
// 订阅在升级前建立，任何退出路径都会释放
func (h *LiveHandler) Stream(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	topic := realtime.Topic{
		Collection: c.Query("collection"),
		ParentKey:  c.Query("parent"),
	}
	if err := h.authorize(c.Request.Context(), userID, &topic); err != nil {
		errors.HandleError(c, err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub, err := h.feed.Subscribe(ctx, topic)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrUnavailable, "change feed unavailable", err))
		return
	}
	defer sub.Close()

	// 退出房间后不再推送该房间的数据
	var left func(model.ChangeEvent) bool
	if topic.Collection == model.CollectionRoomMembers || topic.Collection == model.CollectionRoomMessages {
		key := (&model.RoomMember{RoomID: topic.ParentKey, UserID: userID}).Key()
		left = func(ev model.ChangeEvent) bool {
			return ev.Collection == model.CollectionRoomMembers && ev.Type == model.EventDelete && ev.Key == key
		}
	}
	if topic.Collection == model.CollectionRoomMessages {
		watch, err := h.feed.Subscribe(ctx, realtime.Topic{Collection: model.CollectionRoomMembers, ParentKey: topic.ParentKey})
		if err != nil {
			errors.HandleError(c, errors.Wrap(errors.ErrUnavailable, "change feed unavailable", err))
			return
		}
		defer watch.Close()
		go watchMembership(watch, left, cancel)
	}

	server := websocket.Server{
		Handshake: h.handshake,
		Handler: func(ws *websocket.Conn) {
			h.pump(ctx, cancel, ws, sub, left)
		},
	}
	server.ServeHTTP(c.Writer, c.Request)

	util.Logger.Debug("实时连接结束",
		zap.String("user_id", userID),
		zap.String("collection", topic.Collection),
		zap.Int64("dropped", sub.Dropped()))
}

// watchMembership 看到当前用户退出房间时结束连接
func watchMembership(watch *realtime.Subscription, left func(model.ChangeEvent) bool, cancel context.CancelFunc) {
	for ev := range watch.C {
		if left(ev) {
			cancel()
			return
		}
	}
}

// pump 客户端断开、订阅关闭、写失败或 stop 命中时返回
// stop 命中的事件会先推送给客户端
func (h *LiveHandler) pump(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, sub *realtime.Subscription, stop func(model.ChangeEvent) bool) {
	defer ws.Close()

	// 客户端不发送数据，读循环只用于发现断开
	go func() {
		defer cancel()
		var discard string
		for {
			if err := websocket.Message.Receive(ws, &discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := websocket.JSON.Send(ws, ev); err != nil {
				util.Logger.Debug("推送事件失败", zap.Error(err))
				return
			}
			if stop != nil && stop(ev) {
				util.Logger.Debug("成员已退出房间，结束推送", zap.String("key", ev.Key))
				return
			}
		}
	}
}
