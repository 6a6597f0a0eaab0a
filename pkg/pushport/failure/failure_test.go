package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level zerolog.Level
	}{
		{"nil", nil, zerolog.NoLevel},
		{"decode", fmt.Errorf("zlib: %w", ErrDecodeFailure), zerolog.ErrorLevel},
		{"unsupported schedule origin", fmt.Errorf("Trust: %w", ErrUnsupportedScheduleOrigin), zerolog.InfoLevel},
		{"unsupported movement origin", ErrUnsupportedMovementOrigin, zerolog.InfoLevel},
		{"invalid schedule", ErrInvalidSchedule, zerolog.WarnLevel},
		{"no location data", ErrNoLocationData, zerolog.DebugLevel},
		{"unclassified", errors.New("boom"), zerolog.ErrorLevel},
		{"joined takes the worst", errors.Join(ErrNoLocationData, ErrInvalidTimestamp), zerolog.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.level, Level(tt.err))
		})
	}
}

func TestReason(t *testing.T) {
	assert.Equal(t, "", Reason(nil))
	assert.Equal(t, "malformed_envelope", Reason(fmt.Errorf("no Pport: %w", ErrMalformedEnvelope)))
	assert.Equal(t, "unknown", Reason(errors.New("boom")))
}

func TestRecoverable(t *testing.T) {
	assert.True(t, Recoverable(ErrDecodeFailure))
	assert.True(t, Recoverable(ErrInvalidSchedule))
	assert.False(t, Recoverable(fmt.Errorf("write: %w", ErrIO)))
}
