// Command incrserver is the server half of the binary increment protocol
// demo. It services any number of clients from a single processing
// goroutine, echoing each frame incremented, until a client sends the
// shutdown sentinel or the process receives an interrupt.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/cyberinferno/netproto/increment"
	"github.com/cyberinferno/netproto/logger"
	"github.com/cyberinferno/netproto/muxserver"
)

var (
	port = kingpin.Flag("port", "Port to listen on").
		Short('p').
		Default("9090").
		Int()
	chunkSize = kingpin.Flag("chunk", "Bounded read size in bytes").
			Default("16").
			Int()
	debug = kingpin.Flag("debug", "Log every frame").
		Bool()
	memProfile = kingpin.Flag("memprofile", "Enable memory profiling").
			Bool()
)

func main() {
	kingpin.Parse()
	if *memProfile {
		defer profile.Start(profile.MemProfile).Stop()
	}

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := logger.NewConsoleLogger("incrserver", level)

	handler := increment.NewServerHandler(log)
	srv := muxserver.New(muxserver.Config{
		Addr:      fmt.Sprintf(":%d", *port),
		ChunkSize: *chunkSize,
		Logger:    log,
	}, handler)

	if err := srv.Start(); err != nil {
		log.Error("failed to start", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		srv.Stop()
	}()

	srv.Wait()
	log.Info("server exited")
}
