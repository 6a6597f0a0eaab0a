// Package mongodb keeps one document per schedule (rid, kind) and appends
// service updates and their locations as separate collections.
package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/travigo/pushport/pkg/pushport/emit"
	"github.com/travigo/pushport/pkg/pushport/movement"
	"github.com/travigo/pushport/pkg/pushport/schedule"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	SchedulesCollection      = "schedules"
	ServiceUpdatesCollection = "service_updates"
	LocationsCollection      = "locations"
)

type DataSource struct {
	OriginalFormat string
	Provider       string
	Dataset        string
}

var darwinSource = DataSource{
	OriginalFormat: "DarwinPushPort",
	Provider:       "National Rail",
	Dataset:        "pushport",
}

type ServiceUpdateDocument struct {
	UpdateID   string `bson:"updateid"`
	RID        string `bson:"rid"`
	UID        string `bson:"uid"`
	SSD        string `bson:"ssd,omitempty"`
	Timestamp  time.Time
	LateReason string `bson:"latereason,omitempty"`

	DataSource   DataSource
	CreationDate time.Time
}

type LocationDocument struct {
	UpdateID string `bson:"updateid"`
	Tiploc   string `bson:"tpl"`
	Type     string `bson:"type"`

	WorkingArrival   string `bson:"wta,omitempty"`
	WorkingDeparture string `bson:"wtd,omitempty"`
	WorkingPassing   string `bson:"wtp,omitempty"`
	PublicArrival    string `bson:"pta,omitempty"`
	PublicDeparture  string `bson:"ptd,omitempty"`

	Arrival   *movement.LocationTimestamp `bson:"arrival,omitempty"`
	Departure *movement.LocationTimestamp `bson:"departure,omitempty"`
	Passing   *movement.LocationTimestamp `bson:"passing,omitempty"`
	Platform  *movement.Platform          `bson:"platform,omitempty"`
}

type Store struct {
	database *mongo.Database
}

func NewStore(database *mongo.Database) *Store {
	return &Store{database: database}
}

func (s *Store) AppendScheduleRecords(ctx context.Context, kind string, rid string, records []schedule.Record) error {
	filter := bson.M{"rid": rid, "kind": kind}
	update := bson.M{
		"$push": bson.M{"records": bson.M{"$each": records}},
		"$set":  bson.M{"modificationdatetime": time.Now()},
		"$setOnInsert": bson.M{
			"datasource":   darwinSource,
			"creationdate": time.Now(),
		},
	}

	_, err := s.database.Collection(SchedulesCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (s *Store) SaveServiceUpdate(ctx context.Context, update movement.ServiceUpdate) (emit.UpdateID, error) {
	document := ServiceUpdateDocument{
		UpdateID:     uuid.NewString(),
		RID:          update.Service.RID,
		UID:          update.Service.UID,
		SSD:          update.Service.SSD,
		Timestamp:    update.Timestamp,
		LateReason:   update.LateReason,
		DataSource:   darwinSource,
		CreationDate: time.Now(),
	}

	if _, err := s.database.Collection(ServiceUpdatesCollection).InsertOne(ctx, document); err != nil {
		return "", err
	}

	return emit.UpdateID(document.UpdateID), nil
}

func (s *Store) SaveLocations(ctx context.Context, locations []movement.Location, updateID emit.UpdateID) error {
	if len(locations) == 0 {
		return nil
	}

	documents := make([]any, 0, len(locations))
	for _, location := range locations {
		documents = append(documents, locationDocument(location, string(updateID)))
	}

	_, err := s.database.Collection(LocationsCollection).InsertMany(ctx, documents)
	return err
}

func locationDocument(location movement.Location, updateID string) LocationDocument {
	document := LocationDocument{
		UpdateID: updateID,
		Tiploc:   location.Tiploc(),
		Type:     string(location.Role()),
	}

	switch l := location.(type) {
	case *movement.StoppingLocation:
		document.WorkingArrival = l.WorkingArrival
		document.WorkingDeparture = l.WorkingDeparture
		document.PublicArrival = l.PublicArrival
		document.PublicDeparture = l.PublicDeparture
		document.Arrival = l.Arrival
		document.Departure = l.Departure
		document.Platform = l.Platform
	case *movement.PassingLocation:
		passing := l.Passing
		document.WorkingPassing = l.WorkingPassing
		document.Passing = &passing
	}

	return document
}
