package livetracker

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Server owns the websocket endpoint and the connection lifecycle:
// connect, channel joins, event dispatch and disconnect cleanup. The
// realtime transport runs on its own listener, separate from the CRUD
// web API.
type Server struct {
	registry    *Registry
	engine      *Engine
	store       PositionStore
	connections *ConnectionTable

	upgrader websocket.Upgrader
}

func NewServer(registry *Registry, engine *Engine, store PositionStore, connections *ConnectionTable) *Server {
	return &Server{
		registry:    registry,
		engine:      engine,
		store:       store,
		connections: connections,

		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Websocket upgrade failed")
		return
	}

	client := newClient(s, conn)
	s.connections.add(client)

	log.Info().Str("connection", string(client.id)).Int("connections", s.connections.Count()).Msg("Client connected")

	go client.writePump()
	go client.readPump()
}

func (s *Server) Listen(listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)

	log.Info().Str("listen", listen).Msg("Live tracker websocket server listening")

	return http.ListenAndServe(listen, mux)
}

// disconnect is the terminal transition for a connection: membership is
// removed from every channel in one step, the connection is dropped
// from the table and the outbound queue is closed.
func (s *Server) disconnect(client *Client) {
	s.registry.RemoveConnection(client.id)
	s.connections.remove(client.id)
	client.closeSend()
	client.conn.Close()

	log.Info().Str("connection", string(client.id)).Int("connections", s.connections.Count()).Msg("Client disconnected")
}

func (s *Server) handleEvent(client *Client, envelope Envelope) {
	switch envelope.Event {
	case EventJoinChannel:
		s.handleJoinChannel(client, envelope.Data)
	case EventJoinDashboard:
		s.handleJoinDashboard(client)
	case EventJoinTrip:
		s.handleJoinTrip(client, envelope.Data)
	case EventDriverLocation, EventShuttleLocation:
		s.handleLocation(client, envelope.Data)
	default:
		log.Debug().Str("event", envelope.Event).Msg("Ignoring unknown client event")
	}
}

// handleJoinChannel joins the role channel (plus ALL) and/or the
// personal channel. A payload with neither role nor user id leaves the
// connection with no memberships - not an error, the client can retry
// with a valid join.
func (s *Server) handleJoinChannel(client *Client, data json.RawMessage) {
	var payload JoinChannelPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Debug().Err(err).Msg("Ignoring malformed join-channel payload")
		return
	}

	if payload.Role == "" && payload.UserID == "" {
		log.Debug().Str("connection", string(client.id)).Msg("Ignoring empty join-channel")
		return
	}

	if payload.Role != "" {
		s.registry.Join(client.id, RoleChannel(payload.Role))
	}
	if payload.UserID != "" {
		s.registry.Join(client.id, UserChannel(payload.UserID))
	}
	s.registry.Join(client.id, ChannelAll)
}

// handleJoinDashboard joins the fleet monitoring channel and replays
// the current snapshot so the dashboard renders without waiting for
// the next live report.
func (s *Server) handleJoinDashboard(client *Client) {
	s.registry.Join(client.id, ChannelAdminDashboard)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	snapshot, err := s.store.All(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load fleet snapshot for dashboard join")
		return
	}

	for _, liveLocation := range snapshot {
		s.connections.Deliver(client.id, OutboundEvent{
			Event: EventFleetUpdate,
			Data:  updateFromSnapshot(liveLocation),
		})
	}
}

func (s *Server) handleJoinTrip(client *Client, data json.RawMessage) {
	var tripID string
	if err := json.Unmarshal(data, &tripID); err != nil || tripID == "" {
		log.Debug().Err(err).Msg("Ignoring malformed join-trip payload")
		return
	}

	s.registry.Join(client.id, TripChannel(tripID))
}

func (s *Server) handleLocation(client *Client, data json.RawMessage) {
	var report LocationReport
	if err := json.Unmarshal(data, &report); err != nil {
		log.Debug().Err(err).Str("connection", string(client.id)).Msg("Ignoring malformed location report")
		return
	}

	s.engine.Ingest(context.Background(), report)
}
