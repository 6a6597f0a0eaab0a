package emit

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/travigo/pushport/pkg/pushport/movement"
	"github.com/travigo/pushport/pkg/pushport/schedule"
)

// RecordSink adapts a RecordWriter to both sink interfaces. Service updates
// are held until their locations arrive and written together as rows.
type RecordSink struct {
	writer RecordWriter

	mu      sync.Mutex
	pending map[UpdateID]movement.ServiceUpdate
}

func NewRecordSink(writer RecordWriter) *RecordSink {
	return &RecordSink{
		writer:  writer,
		pending: map[UpdateID]movement.ServiceUpdate{},
	}
}

func (s *RecordSink) AppendScheduleRecords(ctx context.Context, kind string, rid string, records []schedule.Record) error {
	return s.writer.WriteSchedule(ctx, kind, rid, records)
}

func (s *RecordSink) SaveServiceUpdate(_ context.Context, update movement.ServiceUpdate) (UpdateID, error) {
	id := UpdateID(uuid.NewString())

	s.mu.Lock()
	s.pending[id] = update
	s.mu.Unlock()

	return id, nil
}

func (s *RecordSink) SaveLocations(ctx context.Context, locations []movement.Location, updateID UpdateID) error {
	s.mu.Lock()
	update, ok := s.pending[updateID]
	delete(s.pending, updateID)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("unknown service update %s", updateID)
	}

	return s.writer.WriteMovement(ctx, update.Service.RID, movement.Rows(update, string(updateID), locations))
}
