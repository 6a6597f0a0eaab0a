package schedule

import "time"

// Location role codes used in persisted rows.
const (
	TypeOrigin       = "O"
	TypeIntermediate = "I"
	TypeDestination  = "D"
	TypePassing      = "P"
)

// Record is the flat persisted shape of a train or one of its locations.
type Record struct {
	RID       string `json:"rid" csv:"rid"`
	UID       string `json:"uid" csv:"uid"`
	TrainID   string `json:"train_id" csv:"train_id"`
	SSD       string `json:"ssd,omitempty" csv:"ssd"`
	TOC       string `json:"toc,omitempty" csv:"toc"`
	Timestamp string `json:"ts" csv:"ts"`

	Type             string `json:"type,omitempty" csv:"type"`
	Tiploc           string `json:"tpl,omitempty" csv:"tpl"`
	Activity         string `json:"act,omitempty" csv:"act"`
	WorkingArrival   string `json:"wta,omitempty" csv:"wta"`
	WorkingDeparture string `json:"wtd,omitempty" csv:"wtd"`
	WorkingPassing   string `json:"wtp,omitempty" csv:"wtp"`
	PublicArrival    string `json:"pta,omitempty" csv:"pta"`
	PublicDeparture  string `json:"ptd,omitempty" csv:"ptd"`
	AverageLoading   string `json:"avg_loading,omitempty" csv:"avg_loading"`
	Cancelled        bool   `json:"cancelled,omitempty" csv:"cancelled"`
	CancelReason     string `json:"cancel_reason,omitempty" csv:"cancel_reason"`

	Passenger   *bool `json:"passenger,omitempty" csv:"passenger,omitempty"`
	Deactivated bool  `json:"deactivated,omitempty" csv:"deactivated"`
}

func (i Identity) record() Record {
	return Record{
		RID:       i.RID,
		UID:       i.UID,
		TrainID:   i.TrainID,
		SSD:       i.SSD,
		TOC:       i.TOC,
		Timestamp: i.Timestamp.Format(time.RFC3339),
	}
}

func (t *LocatedTrain) Records() []Record {
	records := make([]Record, 0, len(t.Origin)+len(t.Intermediate)+len(t.Destination)+len(t.Passing))

	appendGroup := func(locationType string, group []Location) {
		for _, location := range group {
			record := t.record()
			record.Type = locationType
			record.Tiploc = location.Tiploc
			record.Activity = location.Activity
			record.WorkingArrival = location.WorkingArrival
			record.WorkingDeparture = location.WorkingDeparture
			record.PublicArrival = location.PublicArrival
			record.PublicDeparture = location.PublicDeparture
			record.AverageLoading = location.AverageLoading
			record.Cancelled = location.Cancelled
			record.CancelReason = t.CancelReason

			records = append(records, record)
		}
	}

	appendGroup(TypeOrigin, t.Origin)
	appendGroup(TypeIntermediate, t.Intermediate)
	appendGroup(TypeDestination, t.Destination)

	for _, point := range t.Passing {
		record := t.record()
		record.Type = TypePassing
		record.Tiploc = point.Tiploc
		record.WorkingPassing = point.WorkingPassing

		records = append(records, record)
	}

	return records
}

func (t *TypedTrain) Records() []Record {
	record := t.record()
	passenger := t.Passenger
	record.Passenger = &passenger

	return []Record{record}
}

func (t *DeactivatedTrain) Records() []Record {
	record := t.record()
	record.Deactivated = true

	return []Record{record}
}
