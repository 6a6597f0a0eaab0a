package message

import (
	"fmt"
	"strings"

	"github.com/travigo/pushport/pkg/pushport/failure"
	"github.com/travigo/pushport/pkg/pushport/xmltree"
)

// Kind is the message type carried in the transport's MessageType header.
type Kind string

const (
	KindTrainStatus       Kind = "TS"
	KindScheduleUpdate    Kind = "SC"
	KindScheduleFormation Kind = "SF"
	KindAssociationUpdate Kind = "AS"
	KindTrainOrder        Kind = "TO"
	KindLoading           Kind = "LO"
	KindStationMessage    Kind = "OW"
	KindNotification      Kind = "NO"
)

// Kinds lists every known kind in header order.
var Kinds = []Kind{
	KindTrainStatus,
	KindScheduleUpdate,
	KindScheduleFormation,
	KindAssociationUpdate,
	KindTrainOrder,
	KindLoading,
	KindStationMessage,
	KindNotification,
}

var containers = map[Kind][]string{
	KindTrainStatus:       {"TS"},
	KindScheduleUpdate:    {"schedule", "deactivated"},
	KindScheduleFormation: {"scheduleFormations"},
	KindAssociationUpdate: {"association"},
	KindTrainOrder:        {"trainOrder"},
	KindLoading:           {"formationLoading"},
	KindStationMessage:    {"OW"},
	KindNotification:      {"trainAlert"},
}

// ParseKind validates a type tag.
func ParseKind(tag string) (Kind, error) {
	kind := Kind(strings.TrimSpace(tag))
	if _, ok := containers[kind]; !ok {
		return "", fmt.Errorf("type tag %q: %w", tag, failure.ErrUnknownMessageKind)
	}

	return kind, nil
}

// Containers returns the element names one of which must appear in the
// update body of a message of this kind.
func (k Kind) Containers() []string {
	return containers[k]
}

func (k Kind) String() string {
	switch k {
	case KindTrainStatus:
		return "TrainStatus"
	case KindScheduleUpdate:
		return "ScheduleUpdate"
	case KindScheduleFormation:
		return "ScheduleFormation"
	case KindAssociationUpdate:
		return "AssociationUpdate"
	case KindTrainOrder:
		return "TrainOrder"
	case KindLoading:
		return "Loading"
	case KindStationMessage:
		return "StationMessage"
	case KindNotification:
		return "Notification"
	}

	return string(k)
}

func (k Kind) accepts(body xmltree.Tree) bool {
	for _, name := range containers[k] {
		if body.Has(name) {
			return true
		}
	}

	return false
}
