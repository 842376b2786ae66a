package livetracker

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shuttletrack/shuttletrack/pkg/models"
)

// Deliverer pushes one event towards one connection. Implementations
// must never block: a slow or dead connection is that connection's
// problem, not the engine's.
type Deliverer interface {
	Deliver(id ConnectionID, event OutboundEvent)
}

const defaultPersistTimeout = 3 * time.Second

// Sharded per-shuttle locks. Reports for the same shuttle serialize in
// arrival order; reports for different shuttles proceed in parallel
// (modulo stripe collisions, which only cost a little contention).
const numShuttleLocks = 64

// Engine is the single path through which a raw position report becomes
// a persisted snapshot and zero or more delivered fleet updates.
type Engine struct {
	registry *Registry
	store    PositionStore
	resolver ShuttleResolver
	deliver  Deliverer

	persistTimeout time.Duration

	shuttleLocks [numShuttleLocks]sync.Mutex

	// last driver seen per shuttle, to flag two drivers fighting over
	// one shuttle id
	lastDriver sync.Map
}

func NewEngine(registry *Registry, store PositionStore, resolver ShuttleResolver, deliver Deliverer) *Engine {
	return &Engine{
		registry:       registry,
		store:          store,
		resolver:       resolver,
		deliver:        deliver,
		persistTimeout: defaultPersistTimeout,
	}
}

// Ingest validates and resolves a position report, fans the resulting
// fleet update out to every interested subscriber and upserts the
// latest-position snapshot. Fan-out happens first; a slow or failing
// store never delays delivery. Nothing here is fatal - bad reports are
// dropped and logged.
func (e *Engine) Ingest(ctx context.Context, report LocationReport) {
	shuttleID := report.ShuttleID
	tripID := report.TripID

	if shuttleID == "" {
		if report.DriverID == "" {
			log.Debug().Msg("Dropping location report with no shuttle or driver id")
			return
		}

		assignment, err := e.resolver.Resolve(ctx, report.DriverID)
		if err != nil {
			log.Debug().Err(err).Str("driver", report.DriverID).Msg("Dropping unresolvable location report")
			return
		}

		shuttleID = assignment.ShuttleID
		if tripID == "" {
			tripID = assignment.TripID
		}
	}

	e.flagDriverConflict(shuttleID, report.DriverID)

	lock := e.lockForShuttle(shuttleID)
	lock.Lock()
	defer lock.Unlock()

	update := models.FleetUpdate{
		ShuttleID: shuttleID,
		DriverID:  report.DriverID,
		Lat:       report.Lat,
		Lng:       report.Lng,
		Heading:   report.Heading,
		Speed:     report.Speed,
		Timestamp: time.Now(),
	}

	e.Broadcast(ChannelAdminDashboard, EventFleetUpdate, update)
	if tripID != "" {
		e.Broadcast(TripChannel(tripID), EventLocationUpdate, update)
	}

	persistCtx, cancel := context.WithTimeout(context.Background(), e.persistTimeout)
	defer cancel()

	if err := e.store.Upsert(persistCtx, snapshotFromUpdate(update)); err != nil {
		log.Error().Err(err).Str("shuttle", shuttleID).Msg("Failed to upsert live location")
	}
}

// Broadcast delivers one event to every current member of a channel.
// Each delivery is independent and send-and-forget.
func (e *Engine) Broadcast(channel Channel, event string, data any) {
	outbound := OutboundEvent{
		Event: event,
		Data:  data,
	}

	for _, member := range e.registry.MembersOf(channel) {
		e.deliver.Deliver(member, outbound)
	}
}

// BroadcastNotification fans an admin notification out to its target
// role channel, or to ALL. Satisfies the notify consumer's broadcaster.
func (e *Engine) BroadcastNotification(roleTarget string, notification models.Notification) {
	channel := ChannelAll
	if roleTarget != "" && roleTarget != string(ChannelAll) {
		channel = RoleChannel(roleTarget)
	}

	e.Broadcast(channel, EventNotification, notification)
}

func (e *Engine) lockForShuttle(shuttleID string) *sync.Mutex {
	hasher := fnv.New32a()
	hasher.Write([]byte(shuttleID))

	return &e.shuttleLocks[hasher.Sum32()%numShuttleLocks]
}

// Arrival order at the engine decides the winner when two drivers
// report for one shuttle id. That is a client misconfiguration we can
// only make visible, not resolve.
func (e *Engine) flagDriverConflict(shuttleID string, driverID string) {
	if driverID == "" {
		return
	}

	previous, loaded := e.lastDriver.Swap(shuttleID, driverID)
	if loaded && previous != driverID {
		log.Warn().
			Str("shuttle", shuttleID).
			Str("driver", driverID).
			Str("previousdriver", previous.(string)).
			Msg("Multiple drivers reporting for one shuttle")
	}
}
