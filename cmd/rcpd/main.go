package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/openlowpan/rcpd/internal/config"
	"github.com/openlowpan/rcpd/internal/events"
	"github.com/openlowpan/rcpd/internal/logging"
	"github.com/openlowpan/rcpd/internal/rcp"
	"github.com/openlowpan/rcpd/internal/server"
	"github.com/openlowpan/rcpd/internal/spinel"
	"github.com/openlowpan/rcpd/internal/trace"
	"github.com/openlowpan/rcpd/internal/transport"
)

func main() {
	configPath := flag.String("config", "/etc/rcpd/config.yaml", "Path to config file")
	sim := flag.Bool("sim", false, "Run against a simulated RCP instead of a serial port")
	listenAddr := flag.String("listen", "", "Override monitor listen address (e.g. :8710)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logging.Init("info", true)
		bootLog.Fatal().Err(err).Msg("config load failed")
	}
	if *listenAddr != "" {
		cfg.Monitor.ListenAddr = *listenAddr
	}

	log := logging.Init(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().Str("config", *configPath).Bool("sim", *sim).Msg("rcpd starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Stringer("signal", sig).Msg("shutting down")
		cancel()
	}()

	// Transport: real UART or the in-process simulator.
	var link transport.Transport
	if *sim {
		link = transport.NewSim()
	} else {
		link, err = transport.OpenSerial(cfg.Serial, logging.Component(log, "serial"))
		if err != nil {
			log.Fatal().Err(err).Msg("serial open failed")
		}
	}

	// Notification fan-out: the monitor always listens; NATS joins when
	// configured.
	feed := events.NewChanSink(256)
	sinks := events.MultiSink{feed}
	if cfg.NATS.Enabled {
		natsSink, err := events.NewNATSSink(cfg.NATS.NATSConfig, logging.Component(log, "nats"))
		if err != nil {
			log.Fatal().Err(err).Msg("NATS connect failed")
		}
		defer natsSink.Close()
		sinks = append(sinks, natsSink)
	}

	tracer := trace.New(cfg.Trace, logging.Component(log, "trace"))
	defer tracer.Close()

	// The monitor exists only after the client does, so state changes reach
	// it through this indirection.
	var srv atomic.Pointer[server.Server]
	opts := rcp.Options{
		RequestTimeout: cfg.Client.RequestTimeout(),
		ResetTimeout:   cfg.Client.ResetTimeout(),
		Sink:           sinks,
		Logger:         logging.Component(log, "rcp"),
		OnState: func(s rcp.State) {
			if m := srv.Load(); m != nil {
				m.NotifyState(s)
			}
		},
	}
	if cfg.Trace.Enabled {
		opts.Trace = func(dir rcp.Direction, f spinel.Frame) {
			tracer.Record(dir.String(), f)
		}
	}

	client := rcp.New(link, opts)
	defer client.Close()

	// Bring the firmware to a known state before serving anything.
	go resetWithRetry(ctx, client, log)

	if cfg.Monitor.Enabled {
		srv.Store(server.New(cfg, client, feed, logging.Component(log, "monitor")))
	}

	if m := srv.Load(); m != nil {
		if err := m.Run(ctx); err != nil {
			log.Error().Err(err).Msg("monitor exited")
		}
	} else {
		<-ctx.Done()
	}
}

// resetWithRetry brings the RCP to Ready with exponential backoff. Starts at
// 1s, doubles up to 30s, and keeps trying until it succeeds or ctx ends.
func resetWithRetry(ctx context.Context, client *rcp.Client, log zerolog.Logger) {
	delay := 1 * time.Second
	maxDelay := 30 * time.Second
	attempt := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		attempt++
		if err := client.Reset(ctx); err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("reset failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
			continue
		}

		if ver, err := client.GetNCPVersion(ctx); err == nil {
			log.Info().Str("version", ver).Int("attempt", attempt).Msg("RCP ready")
		} else {
			log.Info().Int("attempt", attempt).Msg("RCP ready")
		}
		return
	}
}
