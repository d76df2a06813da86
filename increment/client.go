package increment

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cyberinferno/netproto/logger"
	"github.com/cyberinferno/netproto/netio"
	"github.com/cyberinferno/netproto/perfmonitor"
	"github.com/cyberinferno/netproto/protocol"
	"github.com/cyberinferno/netproto/stats"
)

// ErrEchoMismatch is returned when the server's echo frame carries two
// different values, which a conformant server never sends.
var ErrEchoMismatch = errors.New("increment: echo frame halves differ")

// ClientConfig holds the settings for one protocol run.
type ClientConfig struct {
	// Target is the echoed value at which the client stops: once an echo
	// reaches or exceeds it, the next frame sent is the close sentinel.
	Target int32

	// RequestShutdown makes the run send the shutdown sentinel instead of
	// counting: the frame is fired and the connection closed with no reply
	// awaited.
	RequestShutdown bool

	// Logger receives the send/recv trace. Defaults to a silent logger.
	Logger logger.Logger

	// Recorder, when non-nil, collects one latency sample per round trip for
	// the diagnostic report.
	Recorder *stats.Recorder
}

// Result describes a finished run. Timing is diagnostic only; it is not part
// of the protocol contract.
type Result struct {
	// RoundTrips counts echoes received before termination.
	RoundTrips int

	// ElapsedMs is the wall-clock duration of the whole exchange.
	ElapsedMs float64
}

// Client drives the increment protocol over an established connection. The
// state machine is send, await echo, then either continue with the echoed
// value or terminate with a sentinel.
type Client struct {
	cfg ClientConfig
	log logger.Logger
}

// NewClient creates a Client with the given configuration.
//
// Parameters:
//   - cfg: Target value, shutdown flag, logger, and optional latency recorder
//
// Returns:
//   - A new Client
func NewClient(cfg ClientConfig) *Client {
	log := cfg.Logger
	if log == nil {
		log = logger.NewSilentLogger()
	}

	return &Client{cfg: cfg, log: log}
}

// Run executes the protocol on conn until a sentinel terminates it. The
// caller keeps ownership of conn and closes it afterwards.
//
// A peer-initiated close at any point is clean termination, not an error:
// Run returns the rounds completed so far and a nil error. An echo whose
// halves differ returns ErrEchoMismatch; transport failures are returned
// wrapped.
//
// Parameters:
//   - conn: The established connection to the server
//
// Returns:
//   - The Result of the run and an error as described above
func (c *Client) Run(conn net.Conn) (Result, error) {
	pm := perfmonitor.NewPerformanceMonitor()
	pm.Start()

	var res Result
	finish := func() Result {
		pm.Stop()
		res.ElapsedMs = pm.ElapsedMilliseconds()
		return res
	}

	frame := protocol.NewFrame(1)
	if c.cfg.RequestShutdown {
		frame = protocol.NewFrame(protocol.ShutdownValue)
	}

	for {
		c.log.Info("send", logger.Field{Key: "frame", Value: frame.String()})
		if err := protocol.WriteFrame(conn, frame); err != nil {
			if errors.Is(err, netio.ErrPeerClosed) {
				c.log.Info("server closed connection")
				return finish(), nil
			}

			return finish(), fmt.Errorf("increment: send %s: %w", frame, err)
		}

		// Neither sentinel is answered; the exchange is over as soon as the
		// frame is on the wire.
		if frame.IsShutdown() {
			c.log.Info("shutdown requested, not awaiting a reply")
			return finish(), nil
		}
		if frame.IsClose() {
			res := finish()
			c.log.Info("exchange complete",
				logger.Field{Key: "round_trips", Value: res.RoundTrips},
				logger.Field{Key: "elapsed_ms", Value: res.ElapsedMs})
			return res, nil
		}

		roundStart := time.Now()
		echo, err := protocol.ReadFrame(conn)
		if err != nil {
			if errors.Is(err, netio.ErrPeerClosed) {
				c.log.Info("server closed connection mid-exchange")
				return finish(), nil
			}

			return finish(), fmt.Errorf("increment: receive echo: %w", err)
		}
		if err := echo.Validate(); err != nil {
			return finish(), fmt.Errorf("%w: got %s", ErrEchoMismatch, echo)
		}

		if c.cfg.Recorder != nil {
			c.cfg.Recorder.Record(time.Since(roundStart))
		}
		res.RoundTrips++
		c.log.Info("recv", logger.Field{Key: "frame", Value: echo.String()})

		if echo.First >= c.cfg.Target {
			frame = protocol.NewFrame(protocol.CloseValue)
		} else {
			frame = echo
		}
	}
}
