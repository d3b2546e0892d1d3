package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/websocket/v2"
)

// OnSubscribe is called before a client of topic is registered, so the
// caller can create the state that topic needs (an author feed, say).
type OnSubscribe func(topic string) error

func RegisterRoutes(r fiber.Router, hub *Hub, onSubscribe OnSubscribe) {
	r.Get("/ws/:topic", func(c *fiber.Ctx) error {
		topic := utils.CopyString(c.Params("topic"))
		if !ValidTopic(topic) {
			return fiber.NewError(fiber.StatusNotFound, "unknown topic")
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if onSubscribe != nil {
			if err := onSubscribe(topic); err != nil {
				return err
			}
		}
		c.Locals("topic", topic)
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		topic, _ := c.Locals("topic").(string)
		client := hub.Register(topic)
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}
