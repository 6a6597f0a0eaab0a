// Package postgres persists schedules and service updates into the
// relational model: service, service_update, timestamp, platform and
// location, plus a flat schedule_record table.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/travigo/pushport/pkg/pushport/emit"
	"github.com/travigo/pushport/pkg/pushport/movement"
	"github.com/travigo/pushport/pkg/pushport/schedule"
	"github.com/travigo/pushport/pkg/storage/servicecache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// london is the timezone of every Darwin time of day.
var london = loadLondon()

func loadLondon() *time.Location {
	location, err := time.LoadLocation("Europe/London")
	if err != nil {
		log.Warn().Err(err).Msg("Europe/London timezone unavailable, resolving times in UTC")
		return time.UTC
	}

	return location
}

type Store struct {
	db       *gorm.DB
	services *servicecache.Cache
}

// NewStore uses services, when not nil, to skip upserting service rows
// that were already written.
func NewStore(db *gorm.DB, services *servicecache.Cache) *Store {
	return &Store{db: db, services: services}
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(Models...)
}

func (s *Store) AppendScheduleRecords(ctx context.Context, kind string, rid string, records []schedule.Record) error {
	if len(records) == 0 {
		return nil
	}

	rows, err := scheduleRows(kind, records)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Create(&rows).Error
}

func scheduleRows(kind string, records []schedule.Record) ([]ScheduleRecord, error) {
	rows := make([]ScheduleRecord, 0, len(records))
	for _, record := range records {
		var row ScheduleRecord
		if err := copier.Copy(&row, &record); err != nil {
			return nil, err
		}
		row.Kind = kind

		rows = append(rows, row)
	}

	return rows, nil
}

func (s *Store) SaveServiceUpdate(ctx context.Context, update movement.ServiceUpdate) (emit.UpdateID, error) {
	service := update.Service

	row := ServiceUpdate{
		RID:        service.RID,
		Timestamp:  update.Timestamp,
		LateReason: update.LateReason,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !s.services.Seen(ctx, service.RID) {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&Service{
				RID: service.RID,
				UID: service.UID,
				SSD: service.SSD,
			}).Error
			if err != nil {
				return err
			}
		}

		return tx.Omit("Service").Create(&row).Error
	})
	if err != nil {
		return "", err
	}

	if err := s.services.Mark(ctx, service.RID, service.UID); err != nil {
		log.Debug().Err(err).Str("rid", service.RID).Msg("Failed to cache service")
	}

	return emit.UpdateID(strconv.FormatInt(row.UpdateID, 10)), nil
}

func (s *Store) SaveLocations(ctx context.Context, locations []movement.Location, updateID emit.UpdateID) error {
	id, err := strconv.ParseInt(string(updateID), 10, 64)
	if err != nil {
		return fmt.Errorf("service update id %q: %w", updateID, err)
	}

	if len(locations) == 0 {
		return nil
	}

	reference, err := s.startDate(ctx, id)
	if err != nil {
		return err
	}

	rows := make([]Location, 0, len(locations))
	for _, location := range locations {
		row, err := locationRow(location, reference)
		if err != nil {
			return err
		}
		row.UpdateID = id

		rows = append(rows, row)
	}

	return s.db.WithContext(ctx).Create(&rows).Error
}

// startDate returns the start date of the service behind a stored update,
// or the zero time when the service has no usable date.
func (s *Store) startDate(ctx context.Context, updateID int64) (time.Time, error) {
	var ssd string
	err := s.db.WithContext(ctx).
		Model(&ServiceUpdate{}).
		Select("service.ssd").
		Joins("JOIN service ON service.rid = service_update.rid").
		Where("service_update.update_id = ?", updateID).
		Scan(&ssd).Error
	if err != nil {
		return time.Time{}, err
	}

	return serviceStartDate(&movement.Service{SSD: ssd}), nil
}

func serviceStartDate(service *movement.Service) time.Time {
	if service.SSD == "" {
		return time.Time{}
	}

	date, err := service.StartDate(london)
	if err != nil {
		log.Debug().Err(err).Str("ssd", service.SSD).Msg("Unparsable service start date")
		return time.Time{}
	}

	return date
}

func locationRow(location movement.Location, reference time.Time) (Location, error) {
	row := Location{
		Tiploc: location.Tiploc(),
		Type:   string(location.Role()),
	}

	switch l := location.(type) {
	case *movement.StoppingLocation:
		row.WorkingArrival = l.WorkingArrival
		row.WorkingDeparture = l.WorkingDeparture
		row.PublicArrival = l.PublicArrival
		row.PublicDeparture = l.PublicDeparture

		var err error
		if row.Arrival, err = timestampRow(l.Arrival, reference); err != nil {
			return row, err
		}
		if row.Departure, err = timestampRow(l.Departure, reference); err != nil {
			return row, err
		}

		if l.Platform != nil {
			row.Platform = &Platform{}
			if err := copier.Copy(row.Platform, l.Platform); err != nil {
				return row, err
			}
		}
	case *movement.PassingLocation:
		row.WorkingPassing = l.WorkingPassing

		var err error
		if row.Passing, err = timestampRow(&l.Passing, reference); err != nil {
			return row, err
		}
	}

	return row, nil
}

// timestampRow resolves the time of day against reference unless reference
// is zero.
func timestampRow(timestamp *movement.LocationTimestamp, reference time.Time) (*Timestamp, error) {
	if timestamp == nil {
		return nil, nil
	}

	row := &Timestamp{}
	if err := copier.Copy(row, timestamp); err != nil {
		return nil, err
	}

	if !reference.IsZero() && timestamp.Time != "" {
		if at, err := timestamp.At(reference); err == nil {
			row.ResolvedAt = &at
		}
	}

	return row, nil
}
