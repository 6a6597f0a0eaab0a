package emit

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/pushport/pkg/pushport/failure"
	"github.com/travigo/pushport/pkg/pushport/movement"
	"github.com/travigo/pushport/pkg/pushport/schedule"
)

// Emitter filters records and fans them out to every configured sink.
// Sink failures are wrapped in failure.ErrIO and never retried.
type Emitter struct {
	Filter        *Filter
	ScheduleSinks []ScheduleSink
	MovementSinks []MovementSink
}

// EmitTrains stores the relevant trains and returns the number of records
// written per stream. A train counts once at least one sink stored it.
func (e *Emitter) EmitTrains(ctx context.Context, trains []schedule.Train) (map[string]int, error) {
	written := map[string]int{}
	var errs []error

	for _, train := range trains {
		if !e.Filter.Train(train) {
			continue
		}

		kind := string(train.Variant())
		rid := train.ID().RID
		records := train.Records()

		stored := false
		for _, sink := range e.ScheduleSinks {
			if err := sink.AppendScheduleRecords(ctx, kind, rid, records); err != nil {
				errs = append(errs, fmt.Errorf("append %s records for %s: %v: %w", kind, rid, err, failure.ErrIO))
				continue
			}
			stored = true
		}

		if stored {
			written[kind] += len(records)
		}
	}

	return written, errors.Join(errs...)
}

// EmitMovement stores a relevant service update followed by its locations.
// It reports whether the update was relevant.
func (e *Emitter) EmitMovement(ctx context.Context, update movement.Update) (bool, error) {
	if !e.Filter.Movement(update) {
		return false, nil
	}

	var errs []error
	for _, sink := range e.MovementSinks {
		updateID, err := sink.SaveServiceUpdate(ctx, update.ServiceUpdate)
		if err != nil {
			errs = append(errs, fmt.Errorf("save service update for %s: %v: %w", update.Service.RID, err, failure.ErrIO))
			continue
		}

		if err := sink.SaveLocations(ctx, update.Locations, updateID); err != nil {
			errs = append(errs, fmt.Errorf("save locations for %s: %v: %w", update.Service.RID, err, failure.ErrIO))
			continue
		}

		log.Debug().
			Str("rid", update.Service.RID).
			Str("update", string(updateID)).
			Int("locations", len(update.Locations)).
			Msg("Stored service update")
	}

	return true, errors.Join(errs...)
}
