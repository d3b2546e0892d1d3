package stream

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
)

const (
	TopicSession = "session"
	TopicFeed    = "feed"
	TopicUploads = "uploads"

	authorFeedPrefix = "feed:"
)

// Hub fans state snapshots out to websocket clients by topic. The last
// snapshot of each topic is kept so a new client starts from current state.
type Hub struct {
	clients map[string]map[*Client]struct{}
	last    map[string][]byte
	mu      sync.RWMutex
}

type Client struct {
	Topic string
	Send  chan []byte
}

type Message struct {
	Topic string `json:"topic"`
	Data  any    `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients: map[string]map[*Client]struct{}{},
		last:    map[string][]byte{},
	}
}

func ValidTopic(topic string) bool {
	switch topic {
	case TopicSession, TopicFeed, TopicUploads:
		return true
	}
	return strings.HasPrefix(topic, authorFeedPrefix) && len(topic) > len(authorFeedPrefix)
}

func AuthorTopic(authorID string) string {
	return authorFeedPrefix + authorID
}

// AuthorFromTopic returns the author id of a feed:<id> topic.
func AuthorFromTopic(topic string) (string, bool) {
	if !strings.HasPrefix(topic, authorFeedPrefix) || len(topic) == len(authorFeedPrefix) {
		return "", false
	}
	return topic[len(authorFeedPrefix):], true
}

func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	if payload, ok := h.last[topic]; ok {
		client.Send <- payload
	}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if topicClients, ok := h.clients[client.Topic]; ok {
		if _, registered := topicClients[client]; !registered {
			return
		}
		delete(topicClients, client)
		if len(topicClients) == 0 {
			delete(h.clients, client.Topic)
		}
		close(client.Send)
	}
}

// Publish encodes data as a Message and delivers it to every client of
// topic. Slow clients drop messages rather than block the publisher.
func (h *Hub) Publish(topic string, data any) {
	payload, err := json.Marshal(Message{Topic: topic, Data: data})
	if err != nil {
		log.Printf("stream encode %s: %v", topic, err)
		return
	}

	h.mu.Lock()
	h.last[topic] = payload
	clients := make([]*Client, 0, len(h.clients[topic]))
	for client := range h.clients[topic] {
		clients = append(clients, client)
	}
	// sends happen under the lock so Unregister cannot close a channel
	// mid-send
	for _, client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
	h.mu.Unlock()
}

func (h *Hub) Clients(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}
