package stream

import (
	"encoding/json"
	"testing"
	"time"
)

func readMessage(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case payload := <-client.Send:
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msg
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
	return Message{}
}

func TestHubPublish(t *testing.T) {
	hub := NewHub()
	client := hub.Register(TopicFeed)
	defer hub.Unregister(client)

	hub.Publish(TopicFeed, map[string]int{"posts": 3})

	msg := readMessage(t, client)
	data, _ := msg.Data.(map[string]any)
	if msg.Topic != TopicFeed || data["posts"] != float64(3) {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestHubTopicsAreIsolated(t *testing.T) {
	hub := NewHub()
	feed := hub.Register(TopicFeed)
	defer hub.Unregister(feed)

	hub.Publish(TopicSession, "signed_in")

	select {
	case <-feed.Send:
		t.Fatalf("feed client received a session message")
	default:
	}
}

func TestHubReplaysLastSnapshot(t *testing.T) {
	hub := NewHub()
	hub.Publish(TopicSession, "first")
	hub.Publish(TopicSession, "second")

	client := hub.Register(TopicSession)
	defer hub.Unregister(client)

	if msg := readMessage(t, client); msg.Data != "second" {
		t.Fatalf("expected latest snapshot, got %+v", msg)
	}
	if hub.Clients(TopicSession) != 1 {
		t.Fatalf("expected one client")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub()
	client := hub.Register(TopicUploads)
	hub.Unregister(client)
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
	if hub.Clients(TopicUploads) != 0 {
		t.Fatalf("expected no clients")
	}
	hub.Publish(TopicUploads, "after close")
}

func TestSlowClientDropsMessages(t *testing.T) {
	hub := NewHub()
	client := hub.Register(TopicFeed)
	defer hub.Unregister(client)

	for i := 0; i < cap(client.Send)+10; i++ {
		hub.Publish(TopicFeed, i)
	}
	if len(client.Send) != cap(client.Send) {
		t.Fatalf("expected full buffer, got %d", len(client.Send))
	}
}

func TestTopicHelpers(t *testing.T) {
	for _, topic := range []string{"session", "feed", "uploads", "feed:u1"} {
		if !ValidTopic(topic) {
			t.Fatalf("%s should be valid", topic)
		}
	}
	for _, topic := range []string{"", "feed:", "tracking", "posts"} {
		if ValidTopic(topic) {
			t.Fatalf("%q should be invalid", topic)
		}
	}
	id, ok := AuthorFromTopic(AuthorTopic("u1"))
	if !ok || id != "u1" {
		t.Fatalf("unexpected author %q", id)
	}
	if _, ok := AuthorFromTopic(TopicFeed); ok {
		t.Fatalf("global feed has no author")
	}
}
