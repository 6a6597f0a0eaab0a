package consumer

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/pushport/pkg/pushport"
	"github.com/travigo/pushport/pkg/pushport/frame"
	"github.com/travigo/pushport/pkg/transport"
	"golang.org/x/exp/slices"
)

// Source delivers frames for one topic until ctx is done.
type Source interface {
	Run(ctx context.Context, topic string, handle transport.Handler) error
}

// Consumer runs one worker per topic. Each worker processes its frames one
// at a time, so per-topic ordering is kept.
type Consumer struct {
	Topics    []string
	Source    Source
	Processor *pushport.Processor

	// MessageTypes, when set, drops frames with any other type tag before
	// they are decoded.
	MessageTypes []string
}

func (c *Consumer) Run(ctx context.Context) error {
	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()

	for _, topic := range c.Topics {
		p.Go(func(ctx context.Context) error {
			log.Info().Str("topic", topic).Msg("Starting consumer")
			return c.Source.Run(ctx, topic, c.Handle)
		})
	}

	return p.Wait()
}

func (c *Consumer) Handle(ctx context.Context, f frame.Frame) error {
	if len(c.MessageTypes) > 0 && !slices.Contains(c.MessageTypes, f.MessageType) {
		return nil
	}

	return c.Processor.Process(ctx, f)
}
