package movement

import (
	"errors"
	"fmt"
	"time"

	"github.com/travigo/pushport/pkg/pushport/failure"
	"github.com/travigo/pushport/pkg/pushport/message"
	"github.com/travigo/pushport/pkg/pushport/xmltree"
)

// OriginTD is the only update origin train status messages are taken from.
const OriginTD = "TD"

type locationParser interface {
	parse(node xmltree.Tree, tiploc string) (Location, error)
}

var locationParsers = map[Variant]locationParser{
	VariantStopping: stoppingParser{},
	VariantPassing:  passingParser{},
}

func resolveVariant(node xmltree.Tree) Variant {
	if node.Has("ns5:pass") {
		return VariantPassing
	}

	return VariantStopping
}

// Batch is the outcome of mapping one train status message.
type Batch struct {
	Updates []Update

	// Skipped holds the locations, and any further TS entries, that were
	// rejected while the rest of the message was kept.
	Skipped []error
}

// Map turns a TS envelope into service updates. An error is returned when
// no update could be produced.
func Map(envelope message.Envelope) (Batch, error) {
	if envelope.Kind != message.KindTrainStatus {
		return Batch{}, fmt.Errorf("%s message given to movement mapper: %w", envelope.Kind, failure.ErrMalformedEnvelope)
	}

	if envelope.Origin != OriginTD {
		return Batch{}, fmt.Errorf("updateOrigin %q: %w", envelope.Origin, failure.ErrUnsupportedMovementOrigin)
	}

	nodes, err := envelope.Body.Nodes("TS")
	if err != nil {
		return Batch{}, fmt.Errorf("%v: %w", err, failure.ErrMalformedEnvelope)
	}
	if len(nodes) == 0 {
		return Batch{}, fmt.Errorf("no TS element: %w", failure.ErrMalformedEnvelope)
	}

	var batch Batch
	var failed []error

	for _, node := range nodes {
		update, skipped, err := mapTrainStatus(node, envelope.Timestamp)
		batch.Skipped = append(batch.Skipped, skipped...)
		if err != nil {
			failed = append(failed, err)
			continue
		}

		batch.Updates = append(batch.Updates, update)
	}

	if len(batch.Updates) == 0 {
		return batch, errors.Join(failed...)
	}

	batch.Skipped = append(batch.Skipped, failed...)
	return batch, nil
}

func mapTrainStatus(node xmltree.Tree, timestamp time.Time) (Update, []error, error) {
	rid, uid := node.AttrOr("rid", ""), node.AttrOr("uid", "")
	if rid == "" || uid == "" {
		return Update{}, nil, fmt.Errorf("TS needs rid and uid: %w", failure.ErrMalformedEnvelope)
	}

	update := Update{ServiceUpdate: ServiceUpdate{
		Service:   &Service{RID: rid, UID: uid, SSD: node.AttrOr("ssd", "")},
		Timestamp: timestamp,
	}}
	update.LateReason, _ = node.String("LateReason")

	nodes, err := node.Nodes("ns5:Location")
	if err != nil {
		return Update{}, nil, fmt.Errorf("rid %s: %v: %w", rid, err, failure.ErrInvalidLocation)
	}
	if len(nodes) == 0 {
		return Update{}, nil, fmt.Errorf("rid %s: %w", rid, failure.ErrNoLocationData)
	}

	var skipped []error
	for i, locationNode := range nodes {
		tiploc := locationNode.AttrOr("tpl", "")
		if tiploc == "" {
			skipped = append(skipped, fmt.Errorf("rid %s location %d has no tpl: %w", rid, i, failure.ErrInvalidLocation))
			continue
		}

		location, err := locationParsers[resolveVariant(locationNode)].parse(locationNode, tiploc)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("rid %s location %d %s: %w", rid, i, tiploc, err))
			continue
		}

		update.Locations = append(update.Locations, location)
	}

	if len(update.Locations) == 0 {
		return Update{}, skipped, fmt.Errorf("rid %s: all %d locations rejected: %w", rid, len(nodes), failure.ErrNoLocationData)
	}

	return update, skipped, nil
}

type passingParser struct{}

func (passingParser) parse(node xmltree.Tree, tiploc string) (Location, error) {
	pass, _, err := node.Node("ns5:pass")
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, failure.ErrInvalidTimestamp)
	}

	timestamp, ok := resolveTimestamp(pass)
	if !ok {
		return nil, fmt.Errorf("pass has no time: %w", failure.ErrInvalidTimestamp)
	}

	return &PassingLocation{
		TPL:            tiploc,
		Passing:        timestamp,
		WorkingPassing: node.AttrOr("wtp", ""),
	}, nil
}

type stoppingParser struct{}

func (stoppingParser) parse(node xmltree.Tree, tiploc string) (Location, error) {
	arrival, err := optionalTimestamp(node, "ns5:arr")
	if err != nil {
		return nil, err
	}

	departure, err := optionalTimestamp(node, "ns5:dep")
	if err != nil {
		return nil, err
	}

	if arrival == nil && departure == nil {
		return nil, fmt.Errorf("neither arr nor dep: %w", failure.ErrInvalidTimestamp)
	}

	platform, err := parsePlatform(node)
	if err != nil {
		return nil, err
	}

	return &StoppingLocation{
		TPL:              tiploc,
		Arrival:          arrival,
		Departure:        departure,
		Platform:         platform,
		WorkingArrival:   node.AttrOr("wta", ""),
		WorkingDeparture: node.AttrOr("wtd", ""),
		PublicArrival:    node.AttrOr("pta", ""),
		PublicDeparture:  node.AttrOr("ptd", ""),
	}, nil
}

func optionalTimestamp(node xmltree.Tree, name string) (*LocationTimestamp, error) {
	child, ok, err := node.Node(name)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, failure.ErrInvalidTimestamp)
	}
	if !ok {
		return nil, nil
	}

	timestamp, ok := resolveTimestamp(child)
	if !ok {
		return nil, fmt.Errorf("%s has none of at, et, wet: %w", xmltree.LocalName(name), failure.ErrInvalidTimestamp)
	}

	return &timestamp, nil
}

var timestampPrecedence = []struct {
	attribute string
	status    Status
}{
	{"at", StatusActual},
	{"et", StatusEstimated},
	{"wet", StatusEstimated},
}

func resolveTimestamp(node xmltree.Tree) (LocationTimestamp, bool) {
	for _, candidate := range timestampPrecedence {
		value := node.AttrOr(candidate.attribute, "")
		if value == "" {
			continue
		}

		return LocationTimestamp{
			Time:    value,
			Source:  node.AttrOr("src", ""),
			Delayed: node.AttrOr("delayed", "false") == "true",
			Status:  candidate.status,
		}, true
	}

	return LocationTimestamp{}, false
}

func parsePlatform(node xmltree.Tree) (*Platform, error) {
	value, ok := node.Lookup("ns5:plat")
	if !ok {
		return nil, nil
	}

	// An empty <plat/> carries no platform.
	switch platform := value.(type) {
	case string:
		if platform == "" {
			return nil, nil
		}
		return &Platform{Source: "unknown", Text: platform}, nil
	case xmltree.Tree:
		if len(platform) == 0 {
			return nil, nil
		}
		return &Platform{
			Source:     platform.AttrOr("platsrc", ""),
			Confirmed:  platform.AttrOr("conf", "false") == "true",
			Suppressed: platform.AttrOr("platsup", "false") == "true" || platform.AttrOr("cisPlatsup", "false") == "true",
			Text:       platform.Text(),
		}, nil
	}

	return nil, fmt.Errorf("plat repeated: %w", failure.ErrInvalidLocation)
}
