// Command incrclient is the client half of the binary increment protocol
// demo. It connects to a server, counts up to the target by exchanging
// frames, and reports how long the exchange took. A count of -1 sends the
// shutdown sentinel instead, telling the server to exit.
package main

import (
	"context"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/profile"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/cyberinferno/netproto/cacher"
	"github.com/cyberinferno/netproto/connector"
	"github.com/cyberinferno/netproto/increment"
	"github.com/cyberinferno/netproto/logger"
	"github.com/cyberinferno/netproto/resolver"
	"github.com/cyberinferno/netproto/stats"
)

var (
	server = kingpin.Flag("server", "Name of the server (probably 'localhost')").
		Short('s').
		Default("localhost").
		String()
	port = kingpin.Flag("port", "Port number of the server").
		Short('p').
		Default("9090").
		Int()
	count = kingpin.Flag("count", "The number to count up to; -1 shuts the server down").
		Short('n').
		Default("10").
		Int32()
	showStats = kingpin.Flag("stats", "Print a round-trip latency report").
			Bool()
	showHistogram = kingpin.Flag("histogram", "Print the round-trip latency distribution").
			Bool()
	redisAddr = kingpin.Flag("redis", "Redis address for a shared hostname cache (host:port)").
			String()
	memProfile = kingpin.Flag("memprofile", "Enable memory profiling").
			Bool()
)

func main() {
	kingpin.Parse()
	if *memProfile {
		defer profile.Start(profile.MemProfile).Stop()
	}

	log := logger.NewConsoleLogger("incrclient", zerolog.InfoLevel)

	var hostCache cacher.Cacher[string]
	if *redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: *redisAddr})
		hostCache = cacher.NewRedisCacher[string](client, "netproto:resolve")
	} else {
		hostCache = cacher.NewMemoryCacher[string](cache.NoExpiration, time.Minute)
	}

	res := resolver.New(hostCache, resolver.DefaultTTL)
	dial := connector.New(res, connector.DefaultDialTimeout, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := dial.Connect(ctx, *server, *port)
	if err != nil {
		// Fail-fast default: resolution and connect failures are fatal here.
		log.Error("connection failed", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	defer conn.Close()

	recorder := stats.NewRecorder()
	client := increment.NewClient(increment.ClientConfig{
		Target:          *count,
		RequestShutdown: *count == -1,
		Logger:          log,
		Recorder:        recorder,
	})

	result, err := client.Run(conn)
	if err != nil {
		log.Error("exchange failed", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}

	log.Info("done",
		logger.Field{Key: "round_trips", Value: result.RoundTrips},
		logger.Field{Key: "elapsed_ms", Value: result.ElapsedMs})

	if *showStats && recorder.Count() > 0 {
		if err := recorder.Print(os.Stdout); err != nil {
			log.Error("stats report failed", logger.Field{Key: "error", Value: err})
		}
	}
	if *showHistogram && recorder.Count() > 0 {
		if err := recorder.PrintHistogram(os.Stdout); err != nil {
			log.Error("histogram failed", logger.Field{Key: "error", Value: err})
		}
	}
}
