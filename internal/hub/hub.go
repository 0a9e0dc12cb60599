package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaanque/stanza/internal/domain"
	"github.com/jaanque/stanza/internal/repository"
	"github.com/jaanque/stanza/internal/service"
)

// 包级别的 WebSocket 常量，供 hub 和 client 包内使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// HubMessage 定义了在 Hub 内部通道传递的消息类型
type HubMessage struct {
	Type   string  // "register", "unregister", "refresh"
	Client *Client // 消息关联的客户端
}

// 推送给客户端的消息载荷
type presencePayload struct {
	Type       string              `json:"type"` // "presence"
	Members    []domain.RoomMember `json:"members"`
	SelfStatus domain.Status       `json:"self_status"`
}

type noticePayload struct {
	Type string `json:"type"` // "membership_lost" | "presence_degraded"
}

// Hub 维护每个房间的活跃观察者集合，并把变更通道的信号
// 变成对账后的全量快照推送。
// 订阅的生命周期跟着观察者走：房间出现第一个观察者时打开订阅，
// 最后一个离开时关闭，保证不泄漏通道。
type Hub struct {
	// 内部通道，处理所有来自 Client 的事件
	messageChan chan HubMessage

	// 客户端集合，按 RoomID 组织
	rooms   map[uint]map[*Client]bool
	roomsMu sync.RWMutex

	// 每个房间一条变更订阅
	subs   map[uint]repository.Subscription
	subsMu sync.Mutex

	presence *service.PresenceService
	feed     repository.ChangeFeed
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub(presence *service.PresenceService, feed repository.ChangeFeed) *Hub {
	if presence == nil {
		panic("PresenceService cannot be nil for Hub")
	}
	if feed == nil {
		panic("ChangeFeed cannot be nil for Hub")
	}
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		rooms:       make(map[uint]map[*Client]bool),
		subs:        make(map[uint]repository.Subscription),
		presence:    presence,
		feed:        feed,
	}
}

// Run 启动 Hub 的主事件处理循环。
// 它应该在一个单独的 goroutine 中运行。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for msg := range h.messageChan {
		switch msg.Type {
		case "register":
			h.registerClient(msg.Client)
		case "unregister":
			h.unregisterClient(msg.Client)
		case "refresh":
			// 手动刷新：对该观察者单独做一次对账推送
			go h.sendSnapshot(msg.Client)
		default:
			log.Warnf("Hub: received unknown message type: %s", msg.Type)
		}
	}
	log.Info("Hub is shutting down...")
}

// QueueMessage 将消息放入 Hub 的处理队列 (非阻塞)。
// 返回 true 如果消息成功入队，false 如果队列已满。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

// ActiveRooms 返回当前有观察者的房间 ID 列表，供周期重同步任务使用。
func (h *Hub) ActiveRooms() []uint {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	ids := make([]uint, 0, len(h.rooms))
	for roomID := range h.rooms {
		ids = append(ids, roomID)
	}
	return ids
}

// StopAllSubscriptions 在应用关闭时释放所有变更订阅。
func (h *Hub) StopAllSubscriptions() {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	for roomID, sub := range h.subs {
		if err := sub.Close(); err != nil {
			logrus.WithField("room_id", roomID).WithError(err).Warn("Failed to close change feed subscription")
		}
		delete(h.subs, roomID)
	}
}

// registerClient 处理客户端注册逻辑
func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: attempted to register a nil client")
		return
	}
	roomID := client.RoomID()
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id": roomID,
		"user_id": client.UserID(),
		"action":  "registerClient",
	})

	h.roomsMu.Lock()
	first := false
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]bool)
		first = true
	}
	h.rooms[roomID][client] = true
	h.roomsMu.Unlock()
	logCtx.Info("Client registered to Hub")

	// 房间的第一个观察者负责打开变更订阅
	if first {
		h.openSubscription(roomID)
	}

	// 异步推送初始快照给新客户端
	go h.sendSnapshot(client)
}

// unregisterClient 处理客户端注销逻辑
func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: attempted to unregister a nil client")
		return
	}
	roomID := client.RoomID()
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id": roomID,
		"user_id": client.UserID(),
		"action":  "unregisterClient",
	})

	empty := false
	h.roomsMu.Lock()
	if roomClients, roomExists := h.rooms[roomID]; roomExists {
		if _, clientExists := roomClients[client]; clientExists {
			delete(roomClients, client)
			client.markClosed()
			close(client.send)
			if len(roomClients) == 0 {
				delete(h.rooms, roomID)
				empty = true
			}
		} else {
			logCtx.Warn("Client not found in room during unregister")
		}
	} else {
		logCtx.Warn("Room not found during client unregister")
	}
	h.roomsMu.Unlock()

	// 最后一个观察者离开后关闭订阅，防止通道泄漏
	if empty {
		h.closeSubscription(roomID)
		logCtx.Info("Room empty, change feed subscription closed")
	}
	logCtx.Info("Client unregistered from Hub")
}

// openSubscription 打开房间的变更订阅并启动信号监听
func (h *Hub) openSubscription(roomID uint) {
	logCtx := logrus.WithField("room_id", roomID)

	sub, err := h.feed.Subscribe(context.Background(), roomID)
	if err != nil {
		// 订阅失败只降级，不让房间视图失败：数据过期但依然可用
		logCtx.WithError(err).Warn("Failed to open change feed subscription, room enters stale mode")
		h.broadcastNotice(roomID, "presence_degraded")
		return
	}

	h.subsMu.Lock()
	h.subs[roomID] = sub
	h.subsMu.Unlock()

	go h.watchSubscription(roomID, sub)
	logCtx.Info("Change feed subscription opened")
}

func (h *Hub) closeSubscription(roomID uint) {
	h.subsMu.Lock()
	sub, ok := h.subs[roomID]
	if ok {
		delete(h.subs, roomID)
	}
	h.subsMu.Unlock()
	if ok {
		if err := sub.Close(); err != nil {
			logrus.WithField("room_id", roomID).WithError(err).Warn("Failed to close change feed subscription")
		}
	}
}

// watchSubscription 消费订阅的信号流。
// 每个信号都触发一次全量对账广播，不管信号内容是什么；
// 信号可能乱序、丢失或合并，全量重建保证了处理是幂等的。
func (h *Hub) watchSubscription(roomID uint, sub repository.Subscription) {
	for sig := range sub.Events() {
		switch sig {
		case repository.SignalChanged:
			h.broadcastSnapshot(roomID)
		case repository.SignalDegraded:
			h.broadcastNotice(roomID, "presence_degraded")
		}
	}
}

// snapshotClients 返回房间当前观察者列表的副本，避免广播时长时间持有锁
func (h *Hub) snapshotClients(roomID uint) []*Client {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	roomClients := h.rooms[roomID]
	clients := make([]*Client, 0, len(roomClients))
	for client := range roomClients {
		clients = append(clients, client)
	}
	return clients
}

// broadcastSnapshot 做一次全量对账并推送给房间的每个观察者。
// 同一份成员列表按每个观察者的视角分别重排（自己排最前）。
func (h *Hub) broadcastSnapshot(roomID uint) {
	logCtx := logrus.WithField("room_id", roomID)

	clients := h.snapshotClients(roomID)
	if len(clients) == 0 {
		return
	}

	// 使用后台 context：对账由信号触发，不应被某个请求的取消打断
	members, err := h.presence.ListRoom(context.Background(), roomID)
	if err != nil {
		logCtx.WithError(err).Warn("Reconciliation failed, notifying viewers of stale data")
		h.broadcastNotice(roomID, "presence_degraded")
		return
	}

	for _, client := range clients {
		h.deliverSnapshot(client, members)
	}
	logCtx.WithField("recipient_count", len(clients)).Debug("Snapshot broadcast to viewers")
}

// sendSnapshot 对单个观察者做一次对账推送（初始快照或手动刷新）
func (h *Hub) sendSnapshot(client *Client) {
	if client == nil {
		return
	}
	members, err := h.presence.ListRoom(context.Background(), client.RoomID())
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"room_id": client.RoomID(),
			"user_id": client.UserID(),
		}).WithError(err).Warn("Reconciliation for single viewer failed")
		client.trySend(mustMarshal(noticePayload{Type: "presence_degraded"}))
		return
	}
	h.deliverSnapshot(client, members)
}

// deliverSnapshot 按观察者视角组装快照消息并非阻塞投递。
// 观察者不在成员列表中时改投“成员资格丢失”通知，由客户端退出房间视图。
func (h *Hub) deliverSnapshot(client *Client, members []domain.RoomMember) {
	viewerID := client.UserID()
	var self *domain.RoomMember
	for i := range members {
		if members[i].UserID == viewerID {
			self = &members[i]
			break
		}
	}
	if self == nil {
		client.trySend(mustMarshal(noticePayload{Type: "membership_lost"}))
		return
	}

	payload := presencePayload{
		Type:       "presence",
		Members:    domain.OrderForViewer(members, viewerID),
		SelfStatus: self.Status,
	}
	client.trySend(mustMarshal(payload))
}

// broadcastNotice 向房间所有观察者推送一条无载荷通知
func (h *Hub) broadcastNotice(roomID uint, noticeType string) {
	message := mustMarshal(noticePayload{Type: noticeType})
	for _, client := range h.snapshotClients(roomID) {
		client.trySend(message)
	}
}

// mustMarshal 序列化推送载荷。载荷都是本包定义的固定结构，失败说明程序有 bug。
func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal hub payload")
		return []byte(`{"type":"error"}`)
	}
	return data
}
