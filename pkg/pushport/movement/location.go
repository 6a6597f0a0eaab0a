// Package movement maps TS (train status) messages into service updates and
// the locations they report.
package movement

import (
	"errors"
	"time"
)

type Service struct {
	RID string
	UID string
	SSD string
}

// StartDate parses the scheduled start date in the given location.
func (s *Service) StartDate(location *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s.SSD, location)
}

// ServiceUpdate is one train status message for a service. Every location
// of the message refers to the same ServiceUpdate.
type ServiceUpdate struct {
	Service   *Service
	Timestamp time.Time

	// LateReason is the delay reason code, when one is given.
	LateReason string
}

type Status string

const (
	StatusActual    Status = "actual"
	StatusEstimated Status = "estimated"
)

// LocationTimestamp is an actual or forecast time at a location.
type LocationTimestamp struct {
	Time    string
	Source  string
	Delayed bool
	Status  Status
}

// At combines the time of day with the date of reference, in reference's
// location.
func (t LocationTimestamp) At(reference time.Time) (time.Time, error) {
	if t.Time == "" {
		return time.Time{}, errors.New("cannot find time")
	}

	layout := "15:04"
	if len(t.Time) > len(layout) {
		layout = "15:04:05"
	}

	timeOfDay, err := time.Parse(layout, t.Time)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(
		reference.Year(), reference.Month(), reference.Day(),
		timeOfDay.Hour(), timeOfDay.Minute(), timeOfDay.Second(), 0, reference.Location(),
	), nil
}

type Platform struct {
	Source     string
	Confirmed  bool
	Suppressed bool
	Text       string
}

// Variant distinguishes calling points from passing points.
type Variant string

const (
	VariantStopping Variant = "stopping"
	VariantPassing  Variant = "passing"
)

// Role is the position of a location within the reported journey.
type Role string

const (
	RoleOrigin       Role = "O"
	RoleIntermediate Role = "I"
	RoleDestination  Role = "D"
	RolePassing      Role = "P"
)

type Location interface {
	Tiploc() string
	Variant() Variant
	Role() Role
}

// StoppingLocation is a calling point with an arrival, a departure or both.
type StoppingLocation struct {
	TPL       string
	Arrival   *LocationTimestamp
	Departure *LocationTimestamp
	Platform  *Platform

	WorkingArrival   string
	WorkingDeparture string
	PublicArrival    string
	PublicDeparture  string
}

func (l *StoppingLocation) Tiploc() string {
	return l.TPL
}

func (l *StoppingLocation) Variant() Variant {
	return VariantStopping
}

// Role is derived from which of arrival and departure are present.
func (l *StoppingLocation) Role() Role {
	switch {
	case l.Arrival != nil && l.Departure == nil:
		return RoleDestination
	case l.Arrival == nil && l.Departure != nil:
		return RoleOrigin
	default:
		return RoleIntermediate
	}
}

type PassingLocation struct {
	TPL            string
	Passing        LocationTimestamp
	WorkingPassing string
}

func (l *PassingLocation) Tiploc() string {
	return l.TPL
}

func (l *PassingLocation) Variant() Variant {
	return VariantPassing
}

func (l *PassingLocation) Role() Role {
	return RolePassing
}

// Update is one service update with its surviving locations.
type Update struct {
	ServiceUpdate

	Locations []Location
}

// Current is the first reported location.
func (u *Update) Current() (Location, bool) {
	if len(u.Locations) == 0 {
		return nil, false
	}

	return u.Locations[0], true
}

// Destination is the last reported location.
func (u *Update) Destination() (Location, bool) {
	if len(u.Locations) == 0 {
		return nil, false
	}

	return u.Locations[len(u.Locations)-1], true
}

func (u *Update) Tiplocs() []string {
	tiplocs := make([]string, 0, len(u.Locations))
	for _, location := range u.Locations {
		tiplocs = append(tiplocs, location.Tiploc())
	}

	return tiplocs
}

// Calls reports whether any reported location is the given tiploc.
func (u *Update) Calls(tiploc string) bool {
	for _, location := range u.Locations {
		if location.Tiploc() == tiploc {
			return true
		}
	}

	return false
}
