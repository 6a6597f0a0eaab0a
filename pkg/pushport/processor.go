// Package pushport decodes Darwin Push Port frames, routes them to the
// schedule and movement mappers and hands relevant records to the emitter.
package pushport

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/pushport/pkg/pushport/emit"
	"github.com/travigo/pushport/pkg/pushport/failure"
	"github.com/travigo/pushport/pkg/pushport/frame"
	"github.com/travigo/pushport/pkg/pushport/message"
	"github.com/travigo/pushport/pkg/pushport/movement"
	"github.com/travigo/pushport/pkg/pushport/schedule"
)

// Record is the mapped content of one message. Only the batch matching the
// envelope's kind is set; kinds without a mapper carry the envelope alone.
type Record struct {
	Envelope message.Envelope
	Schedule *schedule.Batch
	Movement *movement.Batch
}

// Skipped returns the entry-level errors of the mapped batch.
func (r Record) Skipped() []error {
	switch {
	case r.Schedule != nil:
		return r.Schedule.Skipped
	case r.Movement != nil:
		return r.Movement.Skipped
	}

	return nil
}

// onlySkipped reports whether err is nothing more than the joined skipped
// entries, which are counted on their own.
func (r Record) onlySkipped(err error) bool {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return false
	}

	skipped := r.Skipped()
	errs := joined.Unwrap()
	if len(skipped) == 0 || len(errs) != len(skipped) {
		return false
	}

	for i := range errs {
		if errs[i] != skipped[i] {
			return false
		}
	}

	return true
}

type Processor struct {
	Emitter *emit.Emitter
	Stats   *Stats

	// InferKind classifies frames without a type tag from their content.
	InferKind bool
}

// DecodeAndRoute decodes a payload and maps it according to its type tag.
// It holds no state between calls.
func (p *Processor) DecodeAndRoute(payload []byte, typeTag, envelopeTimestamp string) (Record, error) {
	root, err := frame.Decode(payload)
	if err != nil {
		return Record{}, err
	}

	if typeTag == "" && p.InferKind {
		kind, err := message.InferKind(root)
		if err != nil {
			return Record{}, err
		}
		typeTag = string(kind)
	}

	envelope, err := message.Classify(typeTag, root, envelopeTimestamp)
	if err != nil {
		return Record{}, err
	}

	record := Record{Envelope: envelope}

	switch envelope.Kind {
	case message.KindScheduleUpdate:
		batch, err := schedule.Map(envelope)
		record.Schedule = &batch
		return record, err
	case message.KindTrainStatus:
		batch, err := movement.Map(envelope)
		record.Movement = &batch
		return record, err
	}

	return record, nil
}

// Process handles one frame end to end. Message-level problems are logged
// and counted; only failures that are not failure.Recoverable are returned.
func (p *Processor) Process(ctx context.Context, f frame.Frame) error {
	startTime := time.Now()

	logger := log.With().
		Str("source", f.Source).
		Str("type", f.MessageType).
		Logger()

	record, err := p.DecodeAndRoute(f.Payload, f.MessageType, f.Timestamp)
	p.Stats.Message(string(record.Envelope.Kind))

	for _, skipped := range record.Skipped() {
		p.Stats.Skipped(skipped)
		logger.WithLevel(failure.Level(skipped)).Err(skipped).Msg("Skipped entry")
	}

	if err != nil {
		if !record.onlySkipped(err) {
			p.Stats.Failure(err)
		}
		logger.WithLevel(failure.Level(err)).Err(err).Msg("Dropped message")

		if !failure.Recoverable(err) {
			return err
		}
		return nil
	}

	if err := p.emit(ctx, record, logger); err != nil {
		p.Stats.Failure(err)
		logger.Error().Err(err).Msg("Failed to store records")

		if !failure.Recoverable(err) {
			return err
		}
		return nil
	}

	logger.Debug().
		Str("kind", record.Envelope.Kind.String()).
		Str("origin", record.Envelope.Origin).
		Str("latency", time.Since(startTime).String()).
		Msg("Processed message")

	return nil
}

func (p *Processor) emit(ctx context.Context, record Record, logger zerolog.Logger) error {
	if p.Emitter == nil {
		return nil
	}

	if record.Schedule != nil {
		written, err := p.Emitter.EmitTrains(ctx, record.Schedule.Trains)
		for stream, count := range written {
			p.Stats.Emitted(stream, count)
		}

		return err
	}

	if record.Movement != nil {
		var firstErr error
		for _, update := range record.Movement.Updates {
			relevant, err := p.Emitter.EmitMovement(ctx, update)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			if relevant && err == nil {
				p.Stats.Emitted(emit.StreamMovement, len(update.Locations))
				logger.Debug().Str("rid", update.Service.RID).Int("locations", len(update.Locations)).Msg("Emitted service update")
			}
		}

		return firstErr
	}

	return nil
}
