// Package emit hands relevant mapped records to the persistence
// collaborators.
package emit

import (
	"context"

	"github.com/travigo/pushport/pkg/pushport/movement"
	"github.com/travigo/pushport/pkg/pushport/schedule"
)

// StreamMovement is the stream name used for train status rows.
const StreamMovement = "movement"

// UpdateID identifies a persisted service update.
type UpdateID string

// ScheduleSink stores schedule records grouped by stream and rid. Each
// call appends to whatever the sink already holds for that key.
type ScheduleSink interface {
	AppendScheduleRecords(ctx context.Context, kind string, rid string, records []schedule.Record) error
}

// MovementSink stores a service update and then its locations.
type MovementSink interface {
	SaveServiceUpdate(ctx context.Context, update movement.ServiceUpdate) (UpdateID, error)
	SaveLocations(ctx context.Context, locations []movement.Location, updateID UpdateID) error
}

// RecordWriter is the flat-row storage behind RecordSink.
type RecordWriter interface {
	WriteSchedule(ctx context.Context, kind string, rid string, records []schedule.Record) error
	WriteMovement(ctx context.Context, rid string, rows []movement.Row) error
}
