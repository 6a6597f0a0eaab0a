package pushport

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/travigo/pushport/pkg/pushport/emit"
	"github.com/travigo/pushport/pkg/pushport/emit/mocks"
	"github.com/travigo/pushport/pkg/pushport/failure"
	"github.com/travigo/pushport/pkg/pushport/frame"
	"github.com/travigo/pushport/pkg/pushport/movement"
	"github.com/travigo/pushport/pkg/pushport/schedule"
)

const paddingtonArrival = `<?xml version="1.0" encoding="UTF-8"?>
<Pport xmlns="http://www.thalesgroup.com/rtti/PushPort/v16" xmlns:ns5="http://www.thalesgroup.com/rtti/PushPort/Forecasts/v3" ts="2023-03-01T00:05:12.5138113Z" version="16.0">
  <uR updateOrigin="TD">
    <TS rid="202303017654321" uid="C12345" ssd="2023-02-28">
      <ns5:Location tpl="PADTON" wta="00:07" pta="00:07">
        <ns5:arr et="00:07" src="TD"/>
      </ns5:Location>
    </TS>
  </uR>
</Pport>`

const trustSchedule = `<Pport xmlns:ns2="http://www.thalesgroup.com/rtti/PushPort/Schedules/v3" ts="2023-03-01T00:05:12">
  <uR updateOrigin="Trust">
    <schedule rid="rid1"><ns2:OR tpl="PADTON" act="TB"/></schedule>
  </uR>
</Pport>`

const cisSchedule = `<Pport xmlns:ns2="http://www.thalesgroup.com/rtti/PushPort/Schedules/v3" ts="2024-04-30T23:01:02">
  <uR updateOrigin="CIS">
    <schedule rid="rid1"><ns2:OR tpl="STNBGPK" act="TB"/><ns2:IP tpl="PADTON" act="T"/><ns2:DT tpl="LRDDEAC" act="TF"/></schedule>
    <schedule rid="rid2"><ns2:OR tpl="STNBGPK" act="TB"/><ns2:DT tpl="LRDDEAC" act="TF"/></schedule>
    <schedule rid="rid3"><ns2:OR tpl="PADTON"/></schedule>
  </uR>
</Pport>`

const invalidSchedules = `<Pport xmlns:ns2="http://www.thalesgroup.com/rtti/PushPort/Schedules/v3" ts="2024-04-30T23:01:02">
  <uR updateOrigin="CIS">
    <schedule rid="rid3"><ns2:OR tpl="PADTON"/></schedule>
    <schedule rid="rid4"><ns2:OR tpl="PADTON"/></schedule>
  </uR>
</Pport>`

func compress(t *testing.T, document string) []byte {
	t.Helper()

	var buffer bytes.Buffer
	w := zlib.NewWriter(&buffer)
	_, err := w.Write([]byte(document))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buffer.Bytes()
}

func TestDecodeAndRouteTrainStatus(t *testing.T) {
	processor := &Processor{}

	record, err := processor.DecodeAndRoute(compress(t, paddingtonArrival), "TS", "")
	require.NoError(t, err)
	require.NotNil(t, record.Movement)
	assert.Nil(t, record.Schedule)

	require.Len(t, record.Movement.Updates, 1)
	update := record.Movement.Updates[0]
	assert.Equal(t, "202303017654321", update.Service.RID)

	require.Len(t, update.Locations, 1)
	location := update.Locations[0]
	assert.Equal(t, "PADTON", location.Tiploc())
	assert.Equal(t, movement.RoleDestination, location.Role())

	arrival := location.(*movement.StoppingLocation).Arrival
	assert.Equal(t, "00:07", arrival.Time)
	assert.Equal(t, movement.StatusEstimated, arrival.Status)
}

func TestDecodeAndRouteUnsupportedScheduleOrigin(t *testing.T) {
	processor := &Processor{}

	record, err := processor.DecodeAndRoute(compress(t, trustSchedule), "SC", "")
	assert.ErrorIs(t, err, failure.ErrUnsupportedScheduleOrigin)
	require.NotNil(t, record.Schedule)
	assert.Empty(t, record.Schedule.Trains)
}

func TestDecodeAndRouteUnmappedKind(t *testing.T) {
	processor := &Processor{}

	record, err := processor.DecodeAndRoute([]byte(`<Pport ts="2023-03-01T00:00:00"><uR updateOrigin="CIS"><OW id="1"/></uR></Pport>`), "OW", "")
	require.NoError(t, err)
	assert.Equal(t, "OW", string(record.Envelope.Kind))
	assert.Nil(t, record.Schedule)
	assert.Nil(t, record.Movement)
}

func TestDecodeAndRouteInfersKind(t *testing.T) {
	strict := &Processor{}
	_, err := strict.DecodeAndRoute(compress(t, cisSchedule), "", "")
	assert.ErrorIs(t, err, failure.ErrUnknownMessageKind)

	inferring := &Processor{InferKind: true}
	record, err := inferring.DecodeAndRoute(compress(t, cisSchedule), "", "")
	require.NoError(t, err)
	require.NotNil(t, record.Schedule)
	assert.Len(t, record.Schedule.Trains, 2)
}

func TestProcessLogsAndCountsWithoutFailing(t *testing.T) {
	stats := NewStats(prometheus.NewRegistry())
	processor := &Processor{Stats: stats}

	assert.NoError(t, processor.Process(context.Background(), frame.Frame{Payload: []byte{0x1f, 0x8b, 0x00}, MessageType: "TS"}))
	assert.NoError(t, processor.Process(context.Background(), frame.Frame{Payload: compress(t, trustSchedule), MessageType: "SC"}))
	assert.NoError(t, processor.Process(context.Background(), frame.Frame{Payload: compress(t, paddingtonArrival), MessageType: "XX"}))

	snapshot := stats.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Failures["decode_failure"])
	assert.Equal(t, uint64(1), snapshot.Failures["unsupported_schedule_origin"])
	assert.Equal(t, uint64(1), snapshot.Failures["unknown_message_kind"])
	assert.Equal(t, uint64(1), snapshot.Messages["SC"])
	assert.Equal(t, uint64(2), snapshot.Messages["unknown"])

	assert.Equal(t, float64(1), testutil.ToFloat64(stats.failures.WithLabelValues("decode_failure")))
}

func TestProcessEmitsRelevantRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mocks.NewMockRecordWriter(ctrl)

	filter, err := emit.NewFilter([]string{"PADTON"}, "")
	require.NoError(t, err)

	sink := emit.NewRecordSink(writer)
	stats := NewStats(prometheus.NewRegistry())
	processor := &Processor{
		Emitter: &emit.Emitter{
			Filter:        filter,
			ScheduleSinks: []emit.ScheduleSink{sink},
			MovementSinks: []emit.MovementSink{sink},
		},
		Stats: stats,
	}

	writer.EXPECT().
		WriteSchedule(gomock.Any(), string(schedule.VariantLocated), "rid1", gomock.Len(3)).
		Return(nil)
	writer.EXPECT().
		WriteMovement(gomock.Any(), "202303017654321", gomock.Len(1)).
		Return(nil)

	require.NoError(t, processor.Process(context.Background(), frame.Frame{Payload: compress(t, cisSchedule), MessageType: "SC"}))
	require.NoError(t, processor.Process(context.Background(), frame.Frame{Payload: compress(t, paddingtonArrival), MessageType: "TS"}))

	snapshot := stats.Snapshot()
	assert.Equal(t, uint64(3), snapshot.Emitted["locations"])
	assert.Equal(t, uint64(1), snapshot.Emitted["movement"])
	assert.Equal(t, uint64(1), snapshot.Skipped["invalid_schedule"])
}

func TestProcessCountsSkippedEntriesOnce(t *testing.T) {
	stats := NewStats(prometheus.NewRegistry())
	processor := &Processor{Stats: stats}

	record, err := processor.DecodeAndRoute(compress(t, invalidSchedules), "SC", "")
	assert.ErrorIs(t, err, failure.ErrInvalidSchedule)
	require.NotNil(t, record.Schedule)
	assert.Len(t, record.Schedule.Skipped, 2)
	assert.True(t, record.onlySkipped(err))

	require.NoError(t, processor.Process(context.Background(), frame.Frame{Payload: compress(t, invalidSchedules), MessageType: "SC"}))

	snapshot := stats.Snapshot()
	assert.Equal(t, uint64(2), snapshot.Skipped["invalid_schedule"])
	assert.Zero(t, snapshot.Failures["invalid_schedule"])
}

func TestProcessSurfacesStorageFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockMovementSink(ctrl)

	processor := &Processor{Emitter: &emit.Emitter{MovementSinks: []emit.MovementSink{sink}}}

	sink.EXPECT().SaveServiceUpdate(gomock.Any(), gomock.Any()).Return(emit.UpdateID(""), errors.New("connection refused"))

	err := processor.Process(context.Background(), frame.Frame{Payload: compress(t, paddingtonArrival), MessageType: "TS"})
	assert.ErrorIs(t, err, failure.ErrIO)
	assert.False(t, failure.Recoverable(err))
}
