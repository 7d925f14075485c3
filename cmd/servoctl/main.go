package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/servoctl/internal/board"
	"codeberg.org/mutker/servoctl/internal/config"
	"codeberg.org/mutker/servoctl/internal/errors"
	"codeberg.org/mutker/servoctl/internal/logger"
	"codeberg.org/mutker/servoctl/internal/loop"
	"codeberg.org/mutker/servoctl/internal/metrics"
	"codeberg.org/mutker/servoctl/internal/pid"
	"codeberg.org/mutker/servoctl/internal/servo"
	"go.uber.org/multierr"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse log level: %v\n", err)
		return 1
	}
	logger.Init(level, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(cfg.PIDDir); err != nil {
		logger.ErrorWithCode(asError(errors.ErrAlreadyRunning, err)).Msg("Failed to write PID file")
		return 1
	}
	defer func() {
		if err := pid.Remove(cfg.PIDDir); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	a, err := newApp(cfg, logger.Default())
	if err != nil {
		logger.ErrorWithCode(asError(errors.ErrInitApp, err)).Msg("Failed to initialize")
		return 1
	}

	code := 0
	if err := a.run(ctx); err != nil {
		logger.ErrorWithCode(asError(errors.ErrMainLoop, err)).Msg("Error in main loop")
		code = 1
	}

	if err := a.shutdown(); err != nil {
		logger.ErrorWithCode(asError(errors.ErrShutdownFailed, err)).Msg("Shutdown incomplete")
		code = 1
	}

	logger.Info().Msg("Exiting...")

	return code
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// asError keeps coded errors as they are and wraps anything else in code
func asError(code errors.ErrorCode, err error) errors.Error {
	var coded errors.Error
	if errors.As(err, &coded) {
		return coded
	}
	return errors.New().Wrap(code, err)
}

type app struct {
	cfg      *config.Config
	log      logger.Logger
	board    board.Board
	loop     *loop.Loop
	registry *servo.Registry
	group    *servo.Group
	metrics  metrics.Collector
}

func newApp(cfg *config.Config, log logger.Logger) (*app, error) {
	errFactory := errors.New()

	mcfg := metrics.DefaultConfig()
	mcfg.Enabled = cfg.Metrics
	mcfg.DBPath = cfg.MetricsDB

	collector, err := metrics.NewService(mcfg, log.With("component", "metrics"))
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitMetrics, err)
	}

	b, err := board.Open(board.Config{Driver: cfg.Board, PWMPins: cfg.PWMPins}, log.With("component", "board"))
	if err != nil {
		return nil, multierr.Append(err, collector.Close())
	}

	registry := servo.NewRegistry()

	return &app{
		cfg:      cfg,
		log:      log,
		board:    b,
		loop:     loop.New(nil, log),
		registry: registry,
		group:    servo.NewGroup(registry, log),
		metrics:  collector,
	}, nil
}

// run starts the loop and every configured actuator, then blocks until ctx
// is done and the actuators are stopped.
func (a *app) run(ctx context.Context) error {
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- a.loop.Run(loopCtx)
	}()

	err := a.startActuators()
	if err == nil {
		a.log.Info().Int("actuators", a.group.Len()).Msg("Actuators ready")
		<-ctx.Done()
	}

	a.group.Stop()

	// Let the stop events reach their listeners before the loop goes away
	flushed := make(chan struct{})
	a.loop.Post(func() { close(flushed) })
	<-flushed

	stopLoop()
	return multierr.Append(err, <-loopDone)
}

func (a *app) startActuators() error {
	errFactory := errors.New()

	deps := servo.Deps{
		Board:    a.board,
		Loop:     a.loop,
		Registry: a.registry,
		Logger:   a.log,
	}

	for i, ac := range a.cfg.Actuators {
		opts := actuatorOptions(ac, a.cfg.CancelNotifyOnStop)

		sv, err := servo.New(deps, opts, servo.WithListener(a.listener(opts.Pin)))
		if err != nil {
			return errFactory.WithData(errors.ErrInitActuator, fmt.Sprintf("actuator %d: %v", i, err))
		}

		if a.cfg.Sweep || ac.Sweep {
			if err := sv.Sweep(); err != nil {
				a.log.Warn().Err(err).Str("actuator", sv.ID()).Msg("Failed to start sweep")
			}
		}
	}

	return nil
}

func actuatorOptions(ac config.ActuatorConfig, cancelNotifyOnStop bool) servo.Options {
	opts := servo.Options{
		Pin:                pinOf(ac),
		Type:               servo.Type(ac.Type),
		ID:                 ac.ID,
		StartAt:            servo.StartAt(ac.StartAt),
		Center:             ac.Center,
		HistoryLimit:       ac.HistoryLimit,
		CancelNotifyOnStop: cancelNotifyOnStop,
	}
	if ac.HasRange() {
		opts.Range = &servo.Range{Min: ac.Range[0], Max: ac.Range[1]}
	}
	return opts
}

// pinOf returns the configured pin; Load rejects actuators without one
func pinOf(ac config.ActuatorConfig) int {
	if ac.Pin == nil {
		return -1
	}
	return *ac.Pin
}

// listener feeds movements into the metrics collector and logs errors
func (a *app) listener(pin int) servo.Listener {
	return func(ev servo.Event) {
		var kind metrics.EventKind
		switch ev.Type {
		case servo.EventError:
			a.log.Warn().Err(ev.Err).Str("actuator", ev.ActuatorID).Msg("Actuator reported an error")
			return
		case servo.EventPosition:
			kind = metrics.KindPosition
		case servo.EventMove:
			kind = metrics.KindMove
			a.log.Debug().Str("actuator", ev.ActuatorID).Float64("degrees", ev.Degrees).Msg("Move completed")
		default:
			return
		}

		if err := a.metrics.Record(context.Background(), &metrics.MoveSnapshot{
			Timestamp:  ev.Timestamp,
			ActuatorID: ev.ActuatorID,
			Pin:        pin,
			Kind:       kind,
			Degrees:    ev.Degrees,
		}); err != nil {
			a.log.Warn().Err(err).Str("actuator", ev.ActuatorID).Msg("Failed to record movement")
		}
	}
}

func (a *app) shutdown() error {
	return multierr.Combine(
		a.metrics.Close(),
		a.board.Close(),
	)
}
