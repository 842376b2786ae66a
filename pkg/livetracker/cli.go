package livetracker

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shuttletrack/shuttletrack/pkg/database"
	"github.com/shuttletrack/shuttletrack/pkg/notify"
	"github.com/shuttletrack/shuttletrack/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "live-tracker",
		Usage: "Realtime engine ingests driver positions and fans them out to subscribers",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run an instance of the live tracker",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":3950",
						Usage: "listen target for the websocket server",
					},
					&cli.StringFlag{
						Name:  "stats-listen",
						Value: ":3333",
						Usage: "listen target for the stats & health server",
					},
				},
				Action: func(c *cli.Context) error {
					connectBackoff := backoff.NewExponentialBackOff()
					connectBackoff.MaxElapsedTime = 2 * time.Minute

					if err := backoff.Retry(database.Connect, connectBackoff); err != nil {
						return err
					}
					if err := backoff.Retry(redis_client.Connect, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 8)); err != nil {
						return err
					}

					registry := NewRegistry()
					connections := NewConnectionTable()
					store := NewMongoPositionStore()
					resolver := NewMongoShuttleResolver()

					engine := NewEngine(registry, store, resolver, connections)
					server := NewServer(registry, engine, store, connections)

					notify.StartConsumers(engine)

					go StartStatsServer(c.String("stats-listen"), registry, connections)

					go func() {
						if err := server.Listen(c.String("listen")); err != nil {
							panic(err)
						}
					}()

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
		},
	}
}
