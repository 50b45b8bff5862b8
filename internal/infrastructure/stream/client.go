package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

var log = logrus.WithField("component", "event_stream")

// Handler 事件回调
type Handler func(ctx context.Context, ev domain.Event)

// Client 订阅账本事件流：解码标记帧为闭合域事件后回调。
// 连接断开后按固定间隔重连；事件流只是触发源，丢帧不影响正确性
// （周期调度会重新评估全部候选）。
type Client struct {
	url       string
	handler   Handler
	reconnect time.Duration
}

// NewClient 创建事件流客户端
func NewClient(url string, handler Handler) *Client {
	return &Client{
		url:       url,
		handler:   handler,
		reconnect: 3 * time.Second,
	}
}

// frame 线上帧：type 标记 + 对应负载
type frame struct {
	Type  string `json:"type"`
	Order *struct {
		Market  uint16 `json:"market"`
		Account string `json:"account"`
		OrderID uint32 `json:"order_id"`
	} `json:"order,omitempty"`
	Account string `json:"account,omitempty"`
}

// Start 启动订阅循环（阻塞，直到 ctx 取消）
func (c *Client) Start(ctx context.Context) {
	for {
		if err := c.runConn(ctx); err != nil {
			log.WithError(err).Warn("event stream disconnected")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnect):
		}
	}
}

func (c *Client) runConn(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.WithField("url", c.url).Info("event stream connected")

	// ctx 取消时主动断开，解除 ReadMessage 阻塞
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(ctx, data)
	}
}

func (c *Client) dispatch(ctx context.Context, data []byte) {
	var fr frame
	if err := json.Unmarshal(data, &fr); err != nil {
		log.WithError(err).Debug("undecodable frame, skipping")
		return
	}

	switch fr.Type {
	case "orderCreated":
		if fr.Order == nil {
			return
		}
		c.handler(ctx, &domain.OrderCreatedEvent{
			Order: domain.PendingOrder{
				Market:  domain.MarketIndex(fr.Order.Market),
				Account: domain.AccountRef(fr.Order.Account),
				Order:   domain.OrderID(fr.Order.OrderID),
			},
			Timestamp: time.Now(),
		})
	case "accountCreated":
		if fr.Account == "" {
			return
		}
		c.handler(ctx, &domain.AccountCreatedEvent{
			Account:   domain.AccountRef(fr.Account),
			Timestamp: time.Now(),
		})
	default:
		// 未知帧类型：事件变体是闭合的，不做开放式派发
		log.WithField("type", fr.Type).Debug("ignoring unknown frame type")
	}
}
