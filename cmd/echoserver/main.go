// Command echoserver is the multiplexed text server demo. Run several
// echoclient processes against it and watch the chunk log: messages longer
// than the read chunk arrive in pieces, and pieces from different clients
// interleave.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/cyberinferno/netproto/echo"
	"github.com/cyberinferno/netproto/logger"
	"github.com/cyberinferno/netproto/muxserver"
)

var (
	port = kingpin.Flag("port", "Port to listen on").
		Short('p').
		Default("9091").
		Int()
	chunkSize = kingpin.Flag("chunk", "Bounded read size in bytes").
			Default("16").
			Int()
	echoBack = kingpin.Flag("echo", "Echo each chunk back to the sender").
			Bool()
)

func main() {
	kingpin.Parse()

	log := logger.NewConsoleLogger("echoserver", zerolog.InfoLevel)
	handler := echo.NewHandler(log, *echoBack)
	srv := muxserver.New(muxserver.Config{
		Addr:      fmt.Sprintf(":%d", *port),
		ChunkSize: *chunkSize,
		Logger:    log,
	}, handler)

	if err := srv.Start(); err != nil {
		log.Error("failed to start", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	srv.Stop()
	log.Info("server exited")
}
