package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/welldanyogia/webrana-formmail-backend/internal/metrics"
	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe     MessageType = "subscribe"
	MessageTypeUnsubscribe   MessageType = "unsubscribe"
	MessageTypeAuditRecorded MessageType = "audit_recorded"
	MessageTypeError         MessageType = "error"
)

// Topic selects which audit records a client receives
type Topic string

const (
	TopicSuccess Topic = "success"
	TopicError   Topic = "error"
	TopicAll     Topic = "all"
)

// allTopics are the concrete streams a new client is subscribed to
var allTopics = []Topic{TopicSuccess, TopicError}

// expand resolves "all" to the concrete topics. Unknown topics yield nil.
func (t Topic) expand() []Topic {
	switch t {
	case TopicAll:
		return allTopics
	case TopicSuccess, TopicError:
		return []Topic{t}
	default:
		return nil
	}
}

// TopicFor returns the stream an audit record belongs to
func TopicFor(record *models.EmailAudit) Topic {
	if record.Succeeded() {
		return TopicSuccess
	}
	return TopicError
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type  MessageType `json:"type"`
	Topic Topic       `json:"topic,omitempty"`
	Audit interface{} `json:"audit,omitempty"`
	Error string      `json:"error,omitempty"`
}

// AuditPayload is the feed view of a stored audit record. Form free text is
// left out; dashboards fetch the full row through the history API.
type AuditPayload struct {
	ID               uint   `json:"id"`
	RequestID        string `json:"requestId,omitempty"`
	Recipient        string `json:"recipient"`
	EmailSubject     string `json:"emailSubject"`
	OrganizationName string `json:"organizationName"`
	FileCount        int    `json:"fileCount"`
	FileNames        string `json:"fileNames"`
	SendStatus       string `json:"sendStatus"`
	SendDate         string `json:"sendDate"`
}

// NewAuditPayload converts a stored record to its feed payload
func NewAuditPayload(record *models.EmailAudit) *AuditPayload {
	return &AuditPayload{
		ID:               record.ID,
		RequestID:        record.RequestID,
		Recipient:        record.Recipient,
		EmailSubject:     record.EmailSubject,
		OrganizationName: record.OrganizationName,
		FileCount:        record.FileCount,
		FileNames:        record.FileNames,
		SendStatus:       record.SendStatus,
		SendDate:         record.SendDate.UTC().Format(time.RFC3339),
	}
}

// Hub maintains the set of active feed clients and fans audit records out
// to the clients subscribed to the record's topic
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Topic subscriptions: topic -> set of clients
	subscriptions map[Topic]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Subscribe to topic
	subscribe chan *subscriptionRequest

	// Unsubscribe from topic
	unsubscribeTopic chan *subscriptionRequest

	// Broadcast to topic subscribers
	broadcast chan *broadcastMessage

	// Closed when Run returns
	done chan struct{}

	// Mutex for thread-safe operations
	mu sync.RWMutex

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type subscriptionRequest struct {
	client *Client
	topic  Topic
}

type broadcastMessage struct {
	topic   Topic
	message []byte
}

// NewHub creates a new Hub instance. Both logger and metrics may be nil.
func NewHub(logger *slog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:          make(map[*Client]bool),
		subscriptions:    make(map[Topic]map[*Client]bool),
		register:         make(chan *Client),
		unregister:       make(chan *Client),
		subscribe:        make(chan *subscriptionRequest),
		unsubscribeTopic: make(chan *subscriptionRequest),
		broadcast:        make(chan *broadcastMessage, 256),
		done:             make(chan struct{}),
		logger:           logger,
		metrics:          m,
	}
}

// Run starts the hub's main loop. It returns when ctx is done, after closing
// every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			for _, topic := range allTopics {
				h.addSubscriber(topic, client)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetFeedClients(count)
			h.debug("feed client registered", slog.Int("clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				for topic := range h.subscriptions {
					h.removeSubscriber(topic, client)
				}
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetFeedClients(count)
			h.debug("feed client unregistered", slog.Int("clients", count))

		case req := <-h.subscribe:
			h.mu.Lock()
			if h.clients[req.client] {
				h.addSubscriber(req.topic, req.client)
			}
			h.mu.Unlock()
			h.debug("feed client subscribed", slog.String("topic", string(req.topic)))

		case req := <-h.unsubscribeTopic:
			h.mu.Lock()
			h.removeSubscriber(req.topic, req.client)
			h.mu.Unlock()
			h.debug("feed client unsubscribed", slog.String("topic", string(req.topic)))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.subscriptions[msg.topic] {
				select {
				case client.send <- msg.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// addSubscriber and removeSubscriber must be called with h.mu held
func (h *Hub) addSubscriber(topic Topic, client *Client) {
	if h.subscriptions[topic] == nil {
		h.subscriptions[topic] = make(map[*Client]bool)
	}
	h.subscriptions[topic][client] = true
}

func (h *Hub) removeSubscriber(topic Topic, client *Client) {
	if subscribers, ok := h.subscriptions[topic]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.subscriptions, topic)
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[*Client]bool)
	h.subscriptions = make(map[Topic]map[*Client]bool)
	h.mu.Unlock()
	h.metrics.SetFeedClients(0)
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub, subscribed to every topic
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribe subscribes a client to a topic
func (h *Hub) Subscribe(client *Client, topic Topic) {
	for _, t := range topic.expand() {
		select {
		case h.subscribe <- &subscriptionRequest{client: client, topic: t}:
		case <-h.done:
			return
		}
	}
}

// Unsubscribe unsubscribes a client from a topic
func (h *Hub) Unsubscribe(client *Client, topic Topic) {
	for _, t := range topic.expand() {
		select {
		case h.unsubscribeTopic <- &subscriptionRequest{client: client, topic: t}:
		case <-h.done:
			return
		}
	}
}

// PublishAudit broadcasts a stored audit record to the subscribers of its
// topic. It never blocks the caller: when the broadcast queue is full the
// event is dropped.
func (h *Hub) PublishAudit(record *models.EmailAudit) {
	if record == nil {
		return
	}

	topic := TopicFor(record)
	msg := WSMessage{
		Type:  MessageTypeAuditRecorded,
		Topic: topic,
		Audit: NewAuditPayload(record),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal audit event", slog.Any("error", err))
		}
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{topic: topic, message: data}:
	default:
		if h.logger != nil {
			h.logger.Warn("audit feed queue full, dropping event", slog.Uint64("audit_id", uint64(record.ID)))
		}
	}
}

func (h *Hub) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}
