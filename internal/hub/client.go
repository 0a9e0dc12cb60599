package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client 代表一个正在查看某房间的 WebSocket 观察者。
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	roomID uint
	userID uint

	// 用于向此客户端发送消息的缓冲通道
	send chan []byte

	// 保护 closed：注销时 send 通道会被关闭，
	// 广播 goroutine 不能再向其写入
	mu     sync.Mutex
	closed bool
}

// 客户端发来的控制消息。载荷不可信，只识别消息类型。
type inboundMessage struct {
	Type string `json:"type"`
}

// NewClient 创建一个新的 Client 实例
func NewClient(hub *Hub, conn *websocket.Conn, roomID uint, userID uint) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		roomID: roomID,
		userID: userID,
		send:   make(chan []byte, 256),
	}
}

func (c *Client) RoomID() uint { return c.roomID }
func (c *Client) UserID() uint { return c.userID }

// Run 启动客户端的读写 goroutine
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// CloseConn 直接关闭底层连接（注册失败等场景）
func (c *Client) CloseConn() {
	_ = c.conn.Close()
}

// trySend 非阻塞投递：客户端已注销或发送队列满时丢弃消息。
// 丢掉一条快照是安全的，下一个信号或手动刷新会带来新的全量状态。
func (c *Client) trySend(message []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- message:
	default:
		logrus.WithFields(logrus.Fields{
			"room_id": c.roomID,
			"user_id": c.userID,
		}).Warn("Client send channel full, dropping message")
	}
}

// markClosed 在关闭 send 通道之前调用，阻止后续 trySend 写入
func (c *Client) markClosed() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// ReadPump 把来自 WebSocket 的控制消息泵送到 Hub。
// 它在自己的 goroutine 中运行，连接断开时触发注销。
func (c *Client) ReadPump() {
	defer func() {
		unregisterMsg := HubMessage{Type: "unregister", Client: c}
		select {
		case c.hub.messageChan <- unregisterMsg:
		case <-time.After(1 * time.Second):
			logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID}).
				Warn("Timeout sending unregister message to Hub channel")
		}
		_ = c.conn.Close()
		logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID}).
			Info("readPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID})
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			break
		}

		var inbound inboundMessage
		if err := json.Unmarshal(message, &inbound); err != nil {
			continue
		}
		// 观察者唯一能发的就是手动刷新请求；其余一律忽略
		if inbound.Type == "refresh" {
			c.hub.QueueMessage(HubMessage{Type: "refresh", Client: c})
		}
	}
}

// WritePump 把 send 通道的消息写到 WebSocket 连接，并维持心跳。
// 它在自己的 goroutine 中运行；send 通道关闭时退出。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 注销了此客户端
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID}).
					WithError(err).Debug("WebSocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
