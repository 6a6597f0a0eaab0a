package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
)

func (s *Server) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	failed := fiber.Map{}
	for name, check := range s.Checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.Status(fiber.StatusServiceUnavailable)
		return c.JSON(fiber.Map{
			"status": "unavailable",
			"errors": failed,
		})
	}

	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

func (s *Server) stats(c *fiber.Ctx) error {
	groups := []string{"basic"}
	if c.QueryBool("detailed") {
		groups = []string{"detailed"}
	}

	snapshot := s.Stats.Snapshot()

	reduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, snapshot)
	if err != nil {
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sheriff could not reduce stats",
		})
	}

	return c.JSON(reduced)
}

func (s *Server) queues(c *fiber.Ctx) error {
	queues, err := s.Queues.GetOpenQueues()
	if err != nil {
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	stats, err := s.Queues.CollectStats(queues)
	if err != nil {
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Type("html")
	return c.SendString(stats.GetHtml(c.Query("layout"), c.Query("refresh")))
}
