// Package failure holds the error taxonomy shared by the Push Port decoder
// and mappers. Callers wrap these with fmt.Errorf("%w") and test them with
// errors.Is.
package failure

import (
	"errors"

	"github.com/rs/zerolog"
)

var (
	// ErrDecodeFailure is returned when a payload cannot be decompressed or
	// parsed as XML.
	ErrDecodeFailure = errors.New("decode failure")

	// ErrUnknownMessageKind is returned for a type tag outside the known set.
	ErrUnknownMessageKind = errors.New("unknown message kind")

	// ErrMalformedEnvelope is returned when the Pport envelope or the
	// container expected for the message kind is missing.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	ErrUnsupportedScheduleOrigin = errors.New("unsupported schedule update origin")
	ErrUnsupportedMovementOrigin = errors.New("unsupported movement update origin")

	ErrInvalidSchedule  = errors.New("invalid schedule entry")
	ErrInvalidTimestamp = errors.New("invalid location timestamp")
	ErrInvalidLocation  = errors.New("invalid location")
	ErrNoLocationData   = errors.New("no location data")

	// ErrIO wraps failures reported by a persistence collaborator.
	ErrIO = errors.New("persistence failure")
)

type class struct {
	err    error
	level  zerolog.Level
	reason string
}

// Ordered by severity so a joined error reports its worst member.
var classes = []class{
	{ErrIO, zerolog.ErrorLevel, "io"},
	{ErrDecodeFailure, zerolog.ErrorLevel, "decode_failure"},
	{ErrUnknownMessageKind, zerolog.WarnLevel, "unknown_message_kind"},
	{ErrMalformedEnvelope, zerolog.WarnLevel, "malformed_envelope"},
	{ErrInvalidSchedule, zerolog.WarnLevel, "invalid_schedule"},
	{ErrInvalidTimestamp, zerolog.WarnLevel, "invalid_timestamp"},
	{ErrInvalidLocation, zerolog.WarnLevel, "invalid_location"},
	{ErrUnsupportedScheduleOrigin, zerolog.InfoLevel, "unsupported_schedule_origin"},
	{ErrUnsupportedMovementOrigin, zerolog.InfoLevel, "unsupported_movement_origin"},
	{ErrNoLocationData, zerolog.DebugLevel, "no_location_data"},
}

func lookup(err error) (class, bool) {
	for _, c := range classes {
		if errors.Is(err, c.err) {
			return c, true
		}
	}

	return class{}, false
}

// Level returns the log level an error should be reported at.
// Unclassified errors are reported as errors.
func Level(err error) zerolog.Level {
	if err == nil {
		return zerolog.NoLevel
	}

	if c, ok := lookup(err); ok {
		return c.level
	}

	return zerolog.ErrorLevel
}

// Reason returns a short stable label for metrics.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	if c, ok := lookup(err); ok {
		return c.reason
	}

	return "unknown"
}

// Recoverable reports whether processing may continue with the next
// message after err. Only persistence failures are surfaced to the host.
func Recoverable(err error) bool {
	return !errors.Is(err, ErrIO)
}
