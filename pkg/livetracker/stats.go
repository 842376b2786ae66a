package livetracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/shuttletrack/shuttletrack/pkg/database"
	"github.com/shuttletrack/shuttletrack/pkg/redis_client"
)

func StartStatsServer(listen string, registry *Registry, connections *ConnectionTable) {
	http.Handle("/livetracker-stats/overview", NewStatsHandler(redis_client.QueueConnection))
	http.Handle("/livetracker-stats/connections", NewConnectionsHandler(registry, connections))
	http.Handle("/health", NewHealthHandler())

	log.Info().Str("listen", listen).Msg("Stats server listening")
	if err := http.ListenAndServe(listen, nil); err != nil {
		panic(err)
	}
}

type StatsServerHandler struct {
	redisConnection rmq.Connection
}

func NewStatsHandler(connection rmq.Connection) *StatsServerHandler {
	return &StatsServerHandler{redisConnection: connection}
}

func (handler *StatsServerHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	layout := request.FormValue("layout")
	refresh := request.FormValue("refresh")

	queues, err := handler.redisConnection.GetOpenQueues()
	if err != nil {
		panic(err)
	}

	stats, err := handler.redisConnection.CollectStats(queues)
	if err != nil {
		panic(err)
	}

	fmt.Fprint(writer, stats.GetHtml(layout, refresh))
}

type ConnectionsHandler struct {
	registry    *Registry
	connections *ConnectionTable
}

func NewConnectionsHandler(registry *Registry, connections *ConnectionTable) *ConnectionsHandler {
	return &ConnectionsHandler{registry: registry, connections: connections}
}

func (handler *ConnectionsHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	subscribed, channels := handler.registry.Stats()

	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(map[string]int{
		"connections": handler.connections.Count(),
		"subscribed":  subscribed,
		"channels":    channels,
	})
}

type HealthHandler struct {
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (handler *HealthHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	testRedis := redis_client.Client.ClientID(context.TODO())
	if testRedis.Err() != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(writer, testRedis.Err())

		return
	}

	testMongo := database.Instance.Client.Ping(context.TODO(), nil)
	if testMongo != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(writer, testMongo)

		return
	}

	writer.WriteHeader(http.StatusOK)
	fmt.Fprint(writer, "OK")
}
