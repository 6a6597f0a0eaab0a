package api

import (
	"context"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/travigo/pushport/pkg/pushport"
)

// Server exposes process health, counters and Prometheus metrics.
type Server struct {
	Stats    *pushport.Stats
	Gatherer prometheus.Gatherer

	// Checks are run by /health; any error fails the check.
	Checks map[string]func(ctx context.Context) error

	// Queues enables the rmq queue overview when set.
	Queues rmq.Connection
}

func (s *Server) App() *fiber.App {
	webApp := fiber.New(fiber.Config{DisableStartupMessage: true})
	webApp.Use(NewLogger())

	webApp.Get("/health", s.health)
	webApp.Get("/stats", s.stats)

	gatherer := s.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	webApp.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if s.Queues != nil {
		webApp.Get("/queues", s.queues)
	}

	return webApp
}

// Listen serves until ctx is done.
func (s *Server) Listen(ctx context.Context, listen string) error {
	webApp := s.App()

	go func() {
		<-ctx.Done()
		if err := webApp.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Error().Err(err).Msg("Failed to shut down status server")
		}
	}()

	log.Info().Str("listen", listen).Msg("Status server listening")

	return webApp.Listen(listen)
}
