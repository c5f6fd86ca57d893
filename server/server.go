package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/citypulse/pulse/internal/profile"
	"github.com/citypulse/pulse/plugin/ai"
	"github.com/citypulse/pulse/plugin/markdown"
	"github.com/citypulse/pulse/server/middleware"
	apiv1 "github.com/citypulse/pulse/server/router/api/v1"
	"github.com/citypulse/pulse/server/rag"
	"github.com/citypulse/pulse/server/ranking"
	"github.com/citypulse/pulse/server/runner/sweeper"
	"github.com/citypulse/pulse/server/taste"
	"github.com/citypulse/pulse/store"
)

// Server owns the HTTP surface and the background runners.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	sweeper    *sweeper.Runner
}

// NewServer assembles the engines over the store and registers the routes.
// The AI services may be nil; the ask path degrades per its own rules.
func NewServer(_ context.Context, profile *profile.Profile, store *store.Store, embedder ai.EmbeddingService, llm ai.LLMService) (*Server, error) {
	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(
		echomw.Recover(),
		echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: []string{"*"}}),
		echomw.BodyLimit("2M"),
		middleware.RequestLogger(),
	)

	ranker, err := ranking.NewRanker(store, ranking.DefaultConfig())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ranker")
	}

	askEngine := rag.NewEngine(store, embedder, llm, markdown.NewService(), rag.DefaultConfig())

	apiV1Service := apiv1.NewAPIV1Service(profile, store, ranker, taste.NewLearner(store), askEngine)
	apiV1Service.RegisterRoutes(echoServer)

	return &Server{
		Profile:    profile,
		Store:      store,
		echoServer: echoServer,
		sweeper:    sweeper.NewRunner(store),
	}, nil
}

// Start launches the sweeper and serves HTTP until the listener fails or the
// server shuts down.
func (s *Server) Start(ctx context.Context) error {
	go s.sweeper.Run(ctx)

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", slog.String("address", address), slog.String("mode", s.Profile.Mode))
	return s.echoServer.Start(address)
}

// Shutdown drains in-flight requests and closes the store. The deadline is
// independent of the (typically already cancelled) run context.
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}

	slog.Info("pulse stopped properly")
}
