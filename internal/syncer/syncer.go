// Package syncer performs bulk fetches from the relay backend and issues
// CRUD and control calls, resynchronizing the store after every successful
// mutation.
package syncer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/five82/relaydash/internal/relay"
)

// DefaultLogLimit is how many recent log entries a bulk fetch requests.
const DefaultLogLimit = 50

// FetchFailedMessage is the banner shown when a bulk fetch fails.
const FetchFailedMessage = "Failed to fetch data"

// Sink receives bulk fetch results. *state.Store satisfies it.
type Sink interface {
	ReplaceAll(devices []relay.Device, schedules []relay.Schedule, logs []relay.LogEntry, stats relay.Stats) bool
	SetLoading(loading bool)
	SetError(message string)
}

// FetchError reports a failed bulk fetch. The store is left untouched.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return "fetch all: " + e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

// Syncer couples the REST client with the store.
type Syncer struct {
	api      relay.API
	sink     Sink
	logLimit int
	log      logrus.FieldLogger
}

// Options configure a Syncer.
type Options struct {
	LogLimit int // zero uses DefaultLogLimit
	Logger   logrus.FieldLogger
}

// New builds a Syncer.
func New(api relay.API, sink Sink, opts Options) (*Syncer, error) {
	if api == nil {
		return nil, fmt.Errorf("syncer requires an api client")
	}
	if sink == nil {
		return nil, fmt.Errorf("syncer requires a sink")
	}
	s := &Syncer{api: api, sink: sink, logLimit: opts.LogLimit, log: opts.Logger}
	if s.logLimit <= 0 {
		s.logLimit = DefaultLogLimit
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.log = s.log.WithField("component", "syncer")
	return s, nil
}

// FetchAll reads devices, schedules, recent logs and stats concurrently and
// replaces the store's contents when all four succeed. On any failure the
// store keeps its previous data and the fetch banner is raised. The loading
// indicator is cleared exactly once either way.
func (s *Syncer) FetchAll(ctx context.Context) error {
	s.sink.SetLoading(true)
	defer s.sink.SetLoading(false)

	var (
		devices   []relay.Device
		schedules []relay.Schedule
		logs      []relay.LogEntry
		stats     relay.Stats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		devices, err = s.api.FetchDevices(gctx)
		if err != nil {
			err = fmt.Errorf("devices: %w", err)
		}
		return err
	})
	g.Go(func() (err error) {
		schedules, err = s.api.FetchSchedules(gctx)
		if err != nil {
			err = fmt.Errorf("schedules: %w", err)
		}
		return err
	})
	g.Go(func() (err error) {
		logs, err = s.api.FetchLogs(gctx, relay.LogQuery{Limit: s.logLimit})
		if err != nil {
			err = fmt.Errorf("logs: %w", err)
		}
		return err
	})
	g.Go(func() (err error) {
		stats, err = s.api.FetchStats(gctx)
		if err != nil {
			err = fmt.Errorf("stats: %w", err)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.WithError(err).Error("bulk fetch failed")
		s.sink.SetError(FetchFailedMessage)
		return &FetchError{Err: err}
	}

	if !s.sink.ReplaceAll(devices, schedules, logs, stats) {
		s.log.Debug("bulk fetch result dropped, store closed")
		return nil
	}
	s.log.WithFields(logrus.Fields{
		"devices":   len(devices),
		"schedules": len(schedules),
		"logs":      len(logs),
	}).Debug("bulk fetch applied")
	return nil
}

// ControlDevice switches a relay. It does not refetch: the backend echoes the
// change as a device_update push frame.
func (s *Syncer) ControlDevice(ctx context.Context, deviceID string, state relay.RelayState) error {
	return s.api.ControlDevice(ctx, relay.Control{DeviceID: deviceID, State: state})
}

// AddDevice creates a device, then refetches. The created record is not
// inserted locally; it appears once the refetched list includes it.
func (s *Syncer) AddDevice(ctx context.Context, in relay.NewDevice) error {
	return s.mutate(ctx, func(ctx context.Context) error {
		_, err := s.api.CreateDevice(ctx, in)
		return err
	})
}

// UpdateDevice edits a device, then refetches.
func (s *Syncer) UpdateDevice(ctx context.Context, id string, in relay.DeviceUpdate) error {
	return s.mutate(ctx, func(ctx context.Context) error {
		_, err := s.api.UpdateDevice(ctx, id, in)
		return err
	})
}

// DeleteDevice removes a device, then refetches.
func (s *Syncer) DeleteDevice(ctx context.Context, id string) error {
	return s.mutate(ctx, func(ctx context.Context) error {
		return s.api.DeleteDevice(ctx, id)
	})
}

// AddSchedule creates a schedule, then refetches.
func (s *Syncer) AddSchedule(ctx context.Context, in relay.NewSchedule) error {
	return s.mutate(ctx, func(ctx context.Context) error {
		_, err := s.api.CreateSchedule(ctx, in)
		return err
	})
}

// UpdateSchedule replaces a schedule definition, then refetches.
func (s *Syncer) UpdateSchedule(ctx context.Context, id string, in relay.NewSchedule) error {
	return s.mutate(ctx, func(ctx context.Context) error {
		_, err := s.api.UpdateSchedule(ctx, id, in)
		return err
	})
}

// ToggleSchedule flips a schedule's active flag, then refetches.
func (s *Syncer) ToggleSchedule(ctx context.Context, id string) error {
	return s.mutate(ctx, func(ctx context.Context) error {
		return s.api.ToggleSchedule(ctx, id)
	})
}

// DeleteSchedule removes a schedule, then refetches.
func (s *Syncer) DeleteSchedule(ctx context.Context, id string) error {
	return s.mutate(ctx, func(ctx context.Context) error {
		return s.api.DeleteSchedule(ctx, id)
	})
}

// mutate runs call and, only when it succeeds, one FetchAll. A failing
// refetch is reported through the fetch banner, not as a mutation error.
func (s *Syncer) mutate(ctx context.Context, call func(context.Context) error) error {
	if err := call(ctx); err != nil {
		return err
	}
	_ = s.FetchAll(ctx)
	return nil
}
