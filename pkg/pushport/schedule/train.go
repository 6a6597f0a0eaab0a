// Package schedule maps SC (schedule update) messages into trains.
package schedule

import (
	"time"
)

// Variant names the persisted stream a train belongs to.
type Variant string

const (
	VariantLocated     Variant = "locations"
	VariantTyped       Variant = "type"
	VariantDeactivated Variant = "deactivated"
)

// Train is one schedule entry of a message.
type Train interface {
	ID() Identity
	Variant() Variant

	// Tiplocs lists every calling location in journey order.
	Tiplocs() []string

	// Calls reports whether the train calls at the given location.
	Calls(tiploc string) bool

	// Records flattens the train into persisted rows.
	Records() []Record
}

type Identity struct {
	RID       string    `json:"rid"`
	UID       string    `json:"uid"`
	TrainID   string    `json:"train_id"`
	SSD       string    `json:"ssd,omitempty"`
	TOC       string    `json:"toc,omitempty"`
	Timestamp time.Time `json:"ts"`
}

func (i Identity) ID() Identity {
	return i
}

// Location is a timetabled calling point. Times are HH:MM or HH:MM:SS
// strings as published; absent times are empty.
type Location struct {
	Tiploc           string `json:"tpl"`
	Activity         string `json:"act"`
	WorkingArrival   string `json:"wta,omitempty"`
	WorkingDeparture string `json:"wtd,omitempty"`
	PublicArrival    string `json:"pta,omitempty"`
	PublicDeparture  string `json:"ptd,omitempty"`
	AverageLoading   string `json:"avg_loading,omitempty"`
	Cancelled        bool   `json:"cancelled"`
}

// PassingPoint is a timetabled location the train passes without calling.
type PassingPoint struct {
	Tiploc         string `json:"tpl"`
	WorkingPassing string `json:"wtp"`
}

// LocatedTrain is a passenger service with its calling points.
type LocatedTrain struct {
	Identity

	Origin       []Location
	Intermediate []Location
	Destination  []Location
	Passing      []PassingPoint

	CancelReason string
}

func (t *LocatedTrain) Variant() Variant {
	return VariantLocated
}

func (t *LocatedTrain) Tiplocs() []string {
	tiplocs := make([]string, 0, len(t.Origin)+len(t.Intermediate)+len(t.Destination))
	for _, group := range [][]Location{t.Origin, t.Intermediate, t.Destination} {
		for _, location := range group {
			tiplocs = append(tiplocs, location.Tiploc)
		}
	}

	return tiplocs
}

func (t *LocatedTrain) Calls(tiploc string) bool {
	for _, candidate := range t.Tiplocs() {
		if candidate == tiploc {
			return true
		}
	}

	return false
}

// TypedTrain records that a service is not a passenger service.
type TypedTrain struct {
	Identity

	Passenger bool
}

func (t *TypedTrain) Variant() Variant {
	return VariantTyped
}

func (t *TypedTrain) Tiplocs() []string {
	return nil
}

func (t *TypedTrain) Calls(string) bool {
	return false
}

// DeactivatedTrain records that a service has been removed from the
// active set.
type DeactivatedTrain struct {
	Identity
}

func (t *DeactivatedTrain) Variant() Variant {
	return VariantDeactivated
}

func (t *DeactivatedTrain) Tiplocs() []string {
	return nil
}

func (t *DeactivatedTrain) Calls(string) bool {
	return false
}
