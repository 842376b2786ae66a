package livetracker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/shuttletrack/shuttletrack/pkg/database"
	"github.com/shuttletrack/shuttletrack/pkg/models"
	"github.com/shuttletrack/shuttletrack/pkg/redis_client"
	"go.mongodb.org/mongo-driver/bson"
)

// ErrNoActiveShuttle means a driver reported a position but no active
// trip or shuttle assignment references them. Reports like this are
// dropped by the engine.
var ErrNoActiveShuttle = errors.New("no active shuttle for driver")

// Assignment is the shuttle (and, when known, trip) a driver is
// currently operating.
type Assignment struct {
	ShuttleID string
	TripID    string
}

// ShuttleResolver resolves a driver id to their current assignment.
type ShuttleResolver interface {
	Resolve(ctx context.Context, driverID string) (Assignment, error)
}

const resolverCacheExpiration = 90 * time.Second

// unresolvableMarker is cached for drivers with no assignment so we
// don't hit the database for every ping from a misconfigured client.
const unresolvableMarker = "N/A"

// MongoShuttleResolver looks assignments up in the trips collection
// (active trip for the driver), falling back to the shuttles duty
// roster. Results are cached in redis.
type MongoShuttleResolver struct {
	assignmentCache *cache.Cache[string]
}

func NewMongoShuttleResolver() *MongoShuttleResolver {
	redisStore := redisstore.NewRedis(redis_client.Client, store.WithExpiration(resolverCacheExpiration))

	return &MongoShuttleResolver{
		assignmentCache: cache.New[string](redisStore),
	}
}

func (r *MongoShuttleResolver) Resolve(ctx context.Context, driverID string) (Assignment, error) {
	cacheKey := "driver-assignment/" + driverID

	cachedAssignment, _ := r.assignmentCache.Get(ctx, cacheKey)
	if cachedAssignment == unresolvableMarker {
		return Assignment{}, ErrNoActiveShuttle
	}
	if cachedAssignment != "" {
		var assignment Assignment
		if err := json.Unmarshal([]byte(cachedAssignment), &assignment); err == nil {
			return assignment, nil
		}
	}

	assignment, err := r.lookup(ctx, driverID)
	if err != nil {
		r.assignmentCache.Set(ctx, cacheKey, unresolvableMarker)
		return Assignment{}, err
	}

	marshalled, _ := json.Marshal(assignment)
	r.assignmentCache.Set(ctx, cacheKey, string(marshalled))

	return assignment, nil
}

func (r *MongoShuttleResolver) lookup(ctx context.Context, driverID string) (Assignment, error) {
	tripsCollection := database.GetCollection("trips")

	var trip *models.Trip
	tripsCollection.FindOne(ctx, bson.M{
		"driver": driverID,
		"status": models.TripStatusActive,
	}).Decode(&trip)

	if trip != nil && trip.Shuttle != "" {
		return Assignment{
			ShuttleID: trip.Shuttle,
			TripID:    trip.PrimaryIdentifier,
		}, nil
	}

	shuttlesCollection := database.GetCollection("shuttles")

	var shuttle *models.Shuttle
	shuttlesCollection.FindOne(ctx, bson.M{"driverid": driverID}).Decode(&shuttle)

	if shuttle != nil {
		assignment := Assignment{ShuttleID: shuttle.PrimaryIdentifier}
		if trip != nil {
			assignment.TripID = trip.PrimaryIdentifier
		}

		return assignment, nil
	}

	return Assignment{}, ErrNoActiveShuttle
}
