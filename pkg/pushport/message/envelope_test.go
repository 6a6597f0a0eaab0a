package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/pushport/pkg/pushport/failure"
	"github.com/travigo/pushport/pkg/pushport/xmltree"
)

func document(ts string, body xmltree.Tree) xmltree.Tree {
	pport := xmltree.Tree{"uR": body}
	if ts != "" {
		pport["@ts"] = ts
	}

	return xmltree.Tree{"Pport": pport}
}

func TestParseKind(t *testing.T) {
	for _, kind := range Kinds {
		parsed, err := ParseKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	_, err := ParseKind("XX")
	assert.ErrorIs(t, err, failure.ErrUnknownMessageKind)

	_, err = ParseKind("")
	assert.ErrorIs(t, err, failure.ErrUnknownMessageKind)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Time
	}{
		{"2023-03-01T00:05:12", time.Date(2023, 3, 1, 0, 5, 12, 0, time.UTC)},
		{"2023-03-01T00:05:12.5138113", time.Date(2023, 3, 1, 0, 5, 12, 0, time.UTC)},
		{"2023-03-01T00:05:12.5138113Z", time.Date(2023, 3, 1, 0, 5, 12, 0, time.UTC)},
		{"2023-07-01T10:00:00.123+01:00", time.Date(2023, 7, 1, 9, 0, 0, 0, time.UTC)},
		{"2023-07-01T10:00:00+01:00", time.Date(2023, 7, 1, 9, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			parsed, err := ParseTimestamp(tt.value)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(parsed), "got %s", parsed)
			assert.Zero(t, parsed.Nanosecond())
		})
	}

	for _, value := range []string{"", "2023-03-01", "yesterday at noon", "2023-03-01T00:05:12 BST"} {
		_, err := ParseTimestamp(value)
		assert.Error(t, err, value)
	}
}

func TestClassify(t *testing.T) {
	root := document("2023-03-01T00:05:12.51", xmltree.Tree{
		"@updateOrigin": "TD",
		"TS":            xmltree.Tree{"@rid": "202303017654321"},
	})

	envelope, err := Classify("TS", root, "")
	require.NoError(t, err)

	assert.Equal(t, KindTrainStatus, envelope.Kind)
	assert.Equal(t, "TD", envelope.Origin)
	assert.False(t, envelope.Snapshot)
	assert.Equal(t, time.Date(2023, 3, 1, 0, 5, 12, 0, time.UTC), envelope.Timestamp)
	assert.True(t, envelope.Body.Has("TS"))
}

func TestClassifyFallsBackToTransportTimestamp(t *testing.T) {
	root := document("", xmltree.Tree{"@updateOrigin": "Darwin", "deactivated": xmltree.Tree{"@rid": "1"}})

	envelope, err := Classify("SC", root, "2023-03-01T09:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 3, 1, 9, 0, 0, 0, time.UTC), envelope.Timestamp)

	_, err = Classify("SC", root, "")
	assert.ErrorIs(t, err, failure.ErrMalformedEnvelope)
}

func TestClassifySnapshot(t *testing.T) {
	root := xmltree.Tree{"Pport": xmltree.Tree{
		"@ts": "2023-03-01T00:00:00",
		"sR":  xmltree.Tree{"OW": xmltree.Tree{"@id": "1"}},
	}}

	envelope, err := Classify("OW", root, "")
	require.NoError(t, err)
	assert.True(t, envelope.Snapshot)
}

func TestClassifyMalformed(t *testing.T) {
	tests := map[string]xmltree.Tree{
		"no Pport":        {"Other": xmltree.Tree{}},
		"no update body":  {"Pport": xmltree.Tree{"@ts": "2023-03-01T00:00:00"}},
		"wrong container": document("2023-03-01T00:00:00", xmltree.Tree{"schedule": xmltree.Tree{}}),
		"bad timestamp":   document("midnight", xmltree.Tree{"TS": xmltree.Tree{}}),
		"text-only Pport": {"Pport": "nothing here"},
		"repeated uR":     {"Pport": xmltree.Tree{"@ts": "2023-03-01T00:00:00", "uR": []any{xmltree.Tree{}, xmltree.Tree{}}}},
	}

	for name, root := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Classify("TS", root, "")
			assert.ErrorIs(t, err, failure.ErrMalformedEnvelope)
		})
	}
}

func TestInferKind(t *testing.T) {
	kind, err := InferKind(document("2023-03-01T00:00:00", xmltree.Tree{"schedule": xmltree.Tree{}}))
	require.NoError(t, err)
	assert.Equal(t, KindScheduleUpdate, kind)

	_, err = InferKind(document("2023-03-01T00:00:00", xmltree.Tree{"mystery": xmltree.Tree{}}))
	assert.ErrorIs(t, err, failure.ErrUnknownMessageKind)
}
