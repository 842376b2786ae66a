package livetracker

import (
	"context"

	"github.com/shuttletrack/shuttletrack/pkg/database"
	"github.com/shuttletrack/shuttletrack/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PositionStore is the durable sink for the latest-position snapshot of
// each shuttle.
type PositionStore interface {
	Upsert(ctx context.Context, location models.LiveLocation) error
	Latest(ctx context.Context, shuttleID string) (*models.LiveLocation, error)
	All(ctx context.Context) ([]models.LiveLocation, error)
}

// MongoPositionStore keeps snapshots in the live_locations collection,
// one document per shuttle. Expiry of stale snapshots is handled by the
// TTL index on lastupdated.
type MongoPositionStore struct{}

func NewMongoPositionStore() *MongoPositionStore {
	return &MongoPositionStore{}
}

func (s *MongoPositionStore) Upsert(ctx context.Context, location models.LiveLocation) error {
	liveLocationsCollection := database.GetCollection("live_locations")

	searchQuery := bson.M{"shuttleid": location.ShuttleID}
	updateMap := bson.M{
		"shuttleid":   location.ShuttleID,
		"driverid":    location.DriverID,
		"location":    location.Location,
		"lastupdated": location.LastUpdated,
	}

	opts := options.FindOneAndUpdate().SetUpsert(true)
	err := liveLocationsCollection.FindOneAndUpdate(ctx, searchQuery, bson.M{"$set": updateMap}, opts).Err()
	if err == mongo.ErrNoDocuments {
		// FindOneAndUpdate reports no document on a fresh upsert
		return nil
	}

	return err
}

func (s *MongoPositionStore) Latest(ctx context.Context, shuttleID string) (*models.LiveLocation, error) {
	liveLocationsCollection := database.GetCollection("live_locations")

	var liveLocation *models.LiveLocation
	err := liveLocationsCollection.FindOne(ctx, bson.M{"shuttleid": shuttleID}).Decode(&liveLocation)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return liveLocation, nil
}

func (s *MongoPositionStore) All(ctx context.Context) ([]models.LiveLocation, error) {
	liveLocationsCollection := database.GetCollection("live_locations")

	cursor, err := liveLocationsCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	liveLocations := []models.LiveLocation{}
	for cursor.Next(ctx) {
		var liveLocation models.LiveLocation
		if err := cursor.Decode(&liveLocation); err != nil {
			return nil, err
		}

		liveLocations = append(liveLocations, liveLocation)
	}

	return liveLocations, cursor.Err()
}

// Freshly written snapshots always carry a server-side timestamp so
// staleness is measurable as now - lastupdated regardless of what the
// client reported.
func snapshotFromUpdate(update models.FleetUpdate) models.LiveLocation {
	return models.LiveLocation{
		ShuttleID: update.ShuttleID,
		DriverID:  update.DriverID,
		Location: models.Location{
			Lat:     update.Lat,
			Lng:     update.Lng,
			Heading: update.Heading,
			Speed:   update.Speed,
		},
		LastUpdated: update.Timestamp,
	}
}

func updateFromSnapshot(snapshot models.LiveLocation) models.FleetUpdate {
	return models.FleetUpdate{
		ShuttleID: snapshot.ShuttleID,
		DriverID:  snapshot.DriverID,
		Lat:       snapshot.Location.Lat,
		Lng:       snapshot.Location.Lng,
		Heading:   snapshot.Location.Heading,
		Speed:     snapshot.Location.Speed,
		Timestamp: snapshot.LastUpdated,
	}
}
