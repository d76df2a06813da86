// Command echoclient is the text demo client: it connects, sends a short
// greeting, pauses, then sends a farewell longer than the server's read
// chunk. Run a dozen copies with different wait times and the server's log
// shows their chunks interleaving.
package main

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/cyberinferno/netproto/cacher"
	"github.com/cyberinferno/netproto/connector"
	"github.com/cyberinferno/netproto/logger"
	"github.com/cyberinferno/netproto/netio"
	"github.com/cyberinferno/netproto/resolver"
)

var (
	server = kingpin.Flag("server", "Name of the server (probably 'localhost')").
		Short('s').
		Default("localhost").
		String()
	port = kingpin.Flag("port", "Port number of the server").
		Short('p').
		Default("9091").
		Int()
	wait = kingpin.Flag("wait", "Seed for the wait between messages").
		Short('w').
		Default("0").
		Int64()
)

func main() {
	kingpin.Parse()

	log := logger.NewConsoleLogger("echoclient", zerolog.InfoLevel).
		With(logger.Field{Key: "pid", Value: os.Getpid()})

	res := resolver.New(cacher.NewMemoryCacher[string](cache.NoExpiration, time.Minute), resolver.DefaultTTL)
	dial := connector.New(res, connector.DefaultDialTimeout, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := dial.Connect(ctx, *server, *port)
	if err != nil {
		log.Error("connection failed", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	defer conn.Close()

	// A pause of 1-8 seconds, derived from the wait seed, leaves room for
	// other clients to get their chunks in between ours.
	pause := time.Duration(1+rand.New(rand.NewSource(*wait)).Intn(8)) * time.Second

	if err := netio.WriteFull(conn, []byte("Hello")); err != nil {
		log.Error("send failed", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	log.Info("greeting sent", logger.Field{Key: "pause", Value: pause.String()})

	time.Sleep(pause)

	// Longer than the server's 16-byte chunk on purpose.
	if err := netio.WriteFull(conn, []byte("Thanks for all the good times.  Farewell.")); err != nil {
		log.Error("send failed", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	log.Info("farewell sent")
}
