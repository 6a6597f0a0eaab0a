package movement

import "time"

// Row is the flat persisted shape of one location of a service update.
type Row struct {
	UpdateID   string `json:"update_id" csv:"update_id"`
	RID        string `json:"rid" csv:"rid"`
	UID        string `json:"uid" csv:"uid"`
	SSD        string `json:"ssd,omitempty" csv:"ssd"`
	Timestamp  string `json:"ts" csv:"ts"`
	LateReason string `json:"late_reason,omitempty" csv:"late_reason"`

	Tiploc string `json:"tpl" csv:"tpl"`
	Type   string `json:"type" csv:"type"`

	WorkingArrival   string `json:"wta,omitempty" csv:"wta"`
	WorkingDeparture string `json:"wtd,omitempty" csv:"wtd"`
	WorkingPassing   string `json:"wtp,omitempty" csv:"wtp"`
	PublicArrival    string `json:"pta,omitempty" csv:"pta"`
	PublicDeparture  string `json:"ptd,omitempty" csv:"ptd"`

	ArrivalTime    string `json:"arrival_time,omitempty" csv:"arrival_time"`
	ArrivalStatus  string `json:"arrival_status,omitempty" csv:"arrival_status"`
	ArrivalSource  string `json:"arrival_src,omitempty" csv:"arrival_src"`
	ArrivalDelayed bool   `json:"arrival_delayed,omitempty" csv:"arrival_delayed"`

	DepartureTime    string `json:"departure_time,omitempty" csv:"departure_time"`
	DepartureStatus  string `json:"departure_status,omitempty" csv:"departure_status"`
	DepartureSource  string `json:"departure_src,omitempty" csv:"departure_src"`
	DepartureDelayed bool   `json:"departure_delayed,omitempty" csv:"departure_delayed"`

	PassingTime    string `json:"passing_time,omitempty" csv:"passing_time"`
	PassingStatus  string `json:"passing_status,omitempty" csv:"passing_status"`
	PassingSource  string `json:"passing_src,omitempty" csv:"passing_src"`
	PassingDelayed bool   `json:"passing_delayed,omitempty" csv:"passing_delayed"`

	Platform          string `json:"platform,omitempty" csv:"platform"`
	PlatformSource    string `json:"platform_src,omitempty" csv:"platform_src"`
	PlatformConfirmed bool   `json:"platform_confirmed,omitempty" csv:"platform_confirmed"`
}

// Rows flattens the locations of a service update.
func Rows(update ServiceUpdate, updateID string, locations []Location) []Row {
	rows := make([]Row, 0, len(locations))

	for _, location := range locations {
		row := Row{
			UpdateID:   updateID,
			RID:        update.Service.RID,
			UID:        update.Service.UID,
			SSD:        update.Service.SSD,
			Timestamp:  update.Timestamp.Format(time.RFC3339),
			LateReason: update.LateReason,
			Tiploc:     location.Tiploc(),
			Type:       string(location.Role()),
		}

		switch l := location.(type) {
		case *StoppingLocation:
			row.WorkingArrival = l.WorkingArrival
			row.WorkingDeparture = l.WorkingDeparture
			row.PublicArrival = l.PublicArrival
			row.PublicDeparture = l.PublicDeparture

			if l.Arrival != nil {
				row.ArrivalTime, row.ArrivalStatus, row.ArrivalSource, row.ArrivalDelayed = l.Arrival.columns()
			}
			if l.Departure != nil {
				row.DepartureTime, row.DepartureStatus, row.DepartureSource, row.DepartureDelayed = l.Departure.columns()
			}
			if l.Platform != nil {
				row.Platform = l.Platform.Text
				row.PlatformSource = l.Platform.Source
				row.PlatformConfirmed = l.Platform.Confirmed
			}
		case *PassingLocation:
			row.WorkingPassing = l.WorkingPassing
			row.PassingTime, row.PassingStatus, row.PassingSource, row.PassingDelayed = l.Passing.columns()
		}

		rows = append(rows, row)
	}

	return rows
}

func (t LocationTimestamp) columns() (string, string, string, bool) {
	return t.Time, string(t.Status), t.Source, t.Delayed
}
