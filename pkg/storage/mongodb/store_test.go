package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/pushport/pkg/pushport/movement"
	"github.com/travigo/pushport/pkg/pushport/schedule"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("append schedule records upserts", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}})

		store := NewStore(mt.DB)
		records := []schedule.Record{{RID: "rid1", Tiploc: "PADTON", Type: schedule.TypeOrigin}}

		require.NoError(t, store.AppendScheduleRecords(context.Background(), "locations", "rid1", records))

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "update", started.CommandName)
	})

	mt.Run("save service update returns uuid", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		store := NewStore(mt.DB)
		id, err := store.SaveServiceUpdate(context.Background(), movement.ServiceUpdate{
			Service:   &movement.Service{RID: "rid1", UID: "C1"},
			Timestamp: time.Date(2024, 5, 1, 0, 7, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.Len(t, string(id), 36)
	})

	mt.Run("save service update surfaces write errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		store := NewStore(mt.DB)
		_, err := store.SaveServiceUpdate(context.Background(), movement.ServiceUpdate{Service: &movement.Service{RID: "rid1"}})

		assert.Error(t, err)
	})

	mt.Run("save locations inserts many", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		store := NewStore(mt.DB)
		locations := []movement.Location{
			&movement.PassingLocation{TPL: "ACTONW"},
			&movement.StoppingLocation{TPL: "PADTON", Arrival: &movement.LocationTimestamp{Time: "00:07"}},
		}

		require.NoError(t, store.SaveLocations(context.Background(), locations, "abc"))

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "insert", started.CommandName)
	})
}

func TestLocationDocument(t *testing.T) {
	document := locationDocument(&movement.PassingLocation{
		TPL:            "ACTONW",
		Passing:        movement.LocationTimestamp{Time: "00:03", Status: movement.StatusEstimated},
		WorkingPassing: "00:03:30",
	}, "u1")

	assert.Equal(t, "u1", document.UpdateID)
	assert.Equal(t, "P", document.Type)
	require.NotNil(t, document.Passing)
	assert.Equal(t, "00:03", document.Passing.Time)
	assert.Nil(t, document.Arrival)
}
