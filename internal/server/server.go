package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Vixs101/Framez/internal/config"
	"github.com/Vixs101/Framez/internal/feed"
	"github.com/Vixs101/Framez/internal/prefs"
	"github.com/Vixs101/Framez/internal/session"
	"github.com/Vixs101/Framez/internal/stream"
	"github.com/Vixs101/Framez/internal/upload"
)

// ObjectReader serves stored objects back so public URLs resolve.
type ObjectReader interface {
	OpenObject(ctx context.Context, bucket, key string) ([]byte, string, error)
}

// Core is the set of client components the bridge drives.
type Core struct {
	Sessions *session.Manager
	Feeds    *feed.Registry
	Uploads  *upload.Pipeline
	Prefs    prefs.Store
	Objects  ObjectReader
}

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	Core   Core
	Stream *stream.Hub

	pending *pendingUploads
	unwatch []func()
}

func NewServer(cfg config.Config, core Core) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:     app,
		Cfg:     cfg,
		Core:    core,
		Stream:  stream.NewHub(),
		pending: newPendingUploads(),
	}

	s.publish()
	registerRoutes(s)
	return s
}

// publish mirrors every core state change onto the stream hub.
func (s *Server) publish() {
	s.Stream.Publish(stream.TopicSession, newSessionView(s.Core.Sessions.Current()))
	s.unwatch = append(s.unwatch,
		s.Core.Sessions.Watch(func(st session.Session) {
			s.Stream.Publish(stream.TopicSession, newSessionView(st))
		}),
		s.Core.Feeds.Watch(func(st feed.State) {
			s.Stream.Publish(st.Scope.String(), newFeedView(st))
		}),
		s.Core.Uploads.Watch(func(p upload.Pending) {
			s.Stream.Publish(stream.TopicUploads, newPendingView(p))
		}),
	)
}

// Close detaches the server from the core components.
func (s *Server) Close() {
	for _, fn := range s.unwatch {
		fn()
	}
	s.unwatch = nil
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authMiddleware := requireSession(s.Core.Sessions)

	registerSessionRoutes(s.App.Group("/session"), s.Core.Sessions)
	registerFeedRoutes(s.App.Group("/feed"), s.Core.Feeds)
	registerPostRoutes(s.App.Group("/posts"), s.Core.Uploads, s.pending, authMiddleware)
	registerPrefsRoutes(s.App.Group("/prefs"), s.Core.Prefs)
	registerStorageRoutes(s.App.Group("/storage"), s.Core.Objects)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, s.subscribeTopic)
}

// subscribeTopic makes sure an author feed exists, is loaded and is live
// before a websocket client starts listening to it.
func (s *Server) subscribeTopic(topic string) error {
	authorID, ok := stream.AuthorFromTopic(topic)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.reloadTimeout())
	defer cancel()

	synchronizer := s.Core.Feeds.Get(feed.ByAuthor(authorID))
	if !synchronizer.State().Loaded {
		if err := synchronizer.Load(ctx); err != nil {
			return err
		}
	}
	return synchronizer.Subscribe(ctx)
}

func (s *Server) reloadTimeout() time.Duration {
	if s.Cfg.ReloadTimeout > 0 {
		return s.Cfg.ReloadTimeout
	}
	return 15 * time.Second
}
