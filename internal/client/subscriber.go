package client

import (
	"context"
	"net/url"
	"strings"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/util"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

// WSFeed 通过 /api/realtime 订阅服务端变更流
type WSFeed struct {
	baseURL string
	token   string
	origin  string
	buffer  int
}

// NewWSFeed baseURL 与 Client 相同（http 或 https），origin 为浏览器来源
func NewWSFeed(baseURL, token, origin string) *WSFeed {
	return &WSFeed{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		origin:  origin,
		buffer:  realtime.DefaultBuffer,
	}
}

func (f *WSFeed) endpoint(topic realtime.Topic) string {
	base := f.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	q := url.Values{}
	q.Set("collection", topic.Collection)
	if topic.ParentKey != "" {
		q.Set("parent", topic.ParentKey)
	}
	if f.token != "" {
		q.Set("token", f.token)
	}
	return base + "/realtime?" + q.Encode()
}

// Subscribe 建立一条 websocket 连接，连接断开时订阅随之关闭
func (f *WSFeed) Subscribe(ctx context.Context, topic realtime.Topic) (*realtime.Subscription, error) {
	ws, err := websocket.Dial(f.endpoint(topic), "", f.origin)
	if err != nil {
		return nil, errors.Wrap(errors.ErrUnavailable, "could not open change feed", err)
	}

	sub := realtime.NewSubscription(ctx, topic, f.buffer, func() { ws.Close() })
	go func() {
		defer sub.Close()
		for {
			var ev model.ChangeEvent
			if err := websocket.JSON.Receive(ws, &ev); err != nil {
				util.Logger.Debug("变更流连接结束",
					zap.String("collection", topic.Collection),
					zap.Error(err))
				return
			}
			if !sub.Deliver(ev) {
				util.Logger.Warn("本地订阅缓冲区已满，丢弃事件",
					zap.String("collection", ev.Collection),
					zap.String("key", ev.Key))
			}
		}
	}()
	return sub, nil
}

var _ realtime.Feed = (*WSFeed)(nil)
