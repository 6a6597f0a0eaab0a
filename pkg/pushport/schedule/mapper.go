package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/travigo/pushport/pkg/pushport/failure"
	"github.com/travigo/pushport/pkg/pushport/message"
	"github.com/travigo/pushport/pkg/pushport/xmltree"
)

// Origin is the system that produced a schedule update.
type Origin string

const (
	OriginCIS    Origin = "CIS"
	OriginDarwin Origin = "Darwin"
)

type entryParser interface {
	parse(body xmltree.Tree, timestamp time.Time) (trains []Train, skipped []error, err error)
}

var parsers = map[Origin]entryParser{
	OriginCIS:    cisParser{},
	OriginDarwin: darwinParser{},
}

// ResolveOrigin validates an updateOrigin value.
func ResolveOrigin(value string) (Origin, error) {
	if value == "" {
		return "", fmt.Errorf("no updateOrigin: %w", failure.ErrInvalidSchedule)
	}

	origin := Origin(value)
	if _, ok := parsers[origin]; !ok {
		return "", fmt.Errorf("updateOrigin %q: %w", value, failure.ErrUnsupportedScheduleOrigin)
	}

	return origin, nil
}

// Batch is the outcome of mapping one schedule message. Entries that could
// not be mapped are reported in Skipped and do not affect their siblings.
type Batch struct {
	Origin  Origin
	Trains  []Train
	Skipped []error
}

// Map turns an SC envelope into trains. An error is returned when the
// message as a whole cannot be used, including when every entry failed.
func Map(envelope message.Envelope) (Batch, error) {
	if envelope.Kind != message.KindScheduleUpdate {
		return Batch{}, fmt.Errorf("%s message given to schedule mapper: %w", envelope.Kind, failure.ErrMalformedEnvelope)
	}

	origin, err := ResolveOrigin(envelope.Origin)
	if err != nil {
		return Batch{}, err
	}

	trains, skipped, err := parsers[origin].parse(envelope.Body, envelope.Timestamp)
	batch := Batch{Origin: origin, Trains: trains, Skipped: skipped}
	if err != nil {
		return batch, err
	}

	if len(trains) == 0 && len(skipped) > 0 {
		return batch, errors.Join(skipped...)
	}

	return batch, nil
}

type cisParser struct{}

func (cisParser) parse(body xmltree.Tree, timestamp time.Time) ([]Train, []error, error) {
	entries, err := body.Nodes("schedule")
	if err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, failure.ErrInvalidSchedule)
	}
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("CIS update has no schedule: %w", failure.ErrInvalidSchedule)
	}

	var trains []Train
	var skipped []error

	for i, entry := range entries {
		train, err := parseCISEntry(entry, timestamp)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("schedule %d: %w", i, err))
			continue
		}

		trains = append(trains, train)
	}

	return trains, skipped, nil
}

func parseCISEntry(entry xmltree.Tree, timestamp time.Time) (Train, error) {
	rid := entry.AttrOr("rid", "")
	if rid == "" {
		return nil, fmt.Errorf("no rid: %w", failure.ErrInvalidSchedule)
	}

	identity := Identity{
		RID:       rid,
		UID:       entry.AttrOr("uid", ""),
		TrainID:   entry.AttrOr("trainId", ""),
		SSD:       entry.AttrOr("ssd", ""),
		TOC:       entry.AttrOr("toc", ""),
		Timestamp: timestamp,
	}

	if entry.AttrOr("isPassengerSvc", "true") != "true" {
		return &TypedTrain{Identity: identity, Passenger: false}, nil
	}

	train := &LocatedTrain{Identity: identity}

	var err error
	if train.Origin, err = parseLocations(entry, "ns2:OR"); err != nil {
		return nil, fmt.Errorf("rid %s: %w", rid, err)
	}
	if train.Intermediate, err = parseLocations(entry, "ns2:IP"); err != nil {
		return nil, fmt.Errorf("rid %s: %w", rid, err)
	}
	if train.Destination, err = parseLocations(entry, "ns2:DT"); err != nil {
		return nil, fmt.Errorf("rid %s: %w", rid, err)
	}
	if train.Passing, err = parsePassingPoints(entry); err != nil {
		return nil, fmt.Errorf("rid %s: %w", rid, err)
	}

	train.CancelReason, _ = entry.String("cancelReason")

	return train, nil
}

func parseLocations(entry xmltree.Tree, name string) ([]Location, error) {
	nodes, err := entry.Nodes(name)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, failure.ErrInvalidSchedule)
	}

	locations := make([]Location, 0, len(nodes))
	for _, node := range nodes {
		tiploc, ok := node.Attr("tpl")
		if !ok {
			return nil, fmt.Errorf("%s has no tpl: %w", name, failure.ErrInvalidSchedule)
		}

		activity, ok := node.Attr("act")
		if !ok {
			return nil, fmt.Errorf("%s %s has no act: %w", name, tiploc, failure.ErrInvalidSchedule)
		}

		locations = append(locations, Location{
			Tiploc:           tiploc,
			Activity:         activity,
			WorkingArrival:   node.AttrOr("wta", ""),
			WorkingDeparture: node.AttrOr("wtd", ""),
			PublicArrival:    node.AttrOr("pta", ""),
			PublicDeparture:  node.AttrOr("ptd", ""),
			AverageLoading:   node.AttrOr("avg_loading", ""),
			Cancelled:        node.AttrOr("can", "false") == "true",
		})
	}

	return locations, nil
}

func parsePassingPoints(entry xmltree.Tree) ([]PassingPoint, error) {
	nodes, err := entry.Nodes("ns2:PP")
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, failure.ErrInvalidSchedule)
	}

	points := make([]PassingPoint, 0, len(nodes))
	for _, node := range nodes {
		tiploc, hasTiploc := node.Attr("tpl")
		passing, hasPassing := node.Attr("wtp")
		if !hasTiploc || !hasPassing {
			return nil, fmt.Errorf("PP needs tpl and wtp: %w", failure.ErrInvalidSchedule)
		}

		points = append(points, PassingPoint{Tiploc: tiploc, WorkingPassing: passing})
	}

	return points, nil
}

type darwinParser struct{}

func (darwinParser) parse(body xmltree.Tree, timestamp time.Time) ([]Train, []error, error) {
	entries, err := body.Nodes("deactivated")
	if err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, failure.ErrInvalidSchedule)
	}
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("Darwin update has no deactivated entry: %w", failure.ErrInvalidSchedule)
	}

	var trains []Train
	var skipped []error

	for i, entry := range entries {
		rid := entry.AttrOr("rid", "")
		if rid == "" {
			skipped = append(skipped, fmt.Errorf("deactivated %d has no rid: %w", i, failure.ErrInvalidSchedule))
			continue
		}

		trains = append(trains, &DeactivatedTrain{Identity: Identity{
			RID:       rid,
			UID:       entry.AttrOr("uid", ""),
			TrainID:   entry.AttrOr("trainId", ""),
			Timestamp: timestamp,
		}})
	}

	return trains, skipped, nil
}
