// Package gateway is the single entry point for user intents. Each call
// clears the current error banner, validates its input, forwards to the
// sync client and, on failure, raises an operation-specific banner.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/five82/relaydash/internal/relay"
)

// Op names a user intent.
type Op string

const (
	OpRefresh        Op = "refresh"
	OpControlDevice  Op = "control device"
	OpAddDevice      Op = "add device"
	OpUpdateDevice   Op = "update device"
	OpDeleteDevice   Op = "delete device"
	OpAddSchedule    Op = "add schedule"
	OpUpdateSchedule Op = "update schedule"
	OpToggleSchedule Op = "toggle schedule"
	OpDeleteSchedule Op = "delete schedule"
)

// Banner returns the message shown when op fails.
func (o Op) Banner() string {
	if o == OpRefresh {
		return "Failed to fetch data"
	}
	return "Failed to " + string(o)
}

// MutationError reports a failed intent.
type MutationError struct {
	Op  Op
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// ErrInvalidInput wraps validation failures that never reach the backend.
var ErrInvalidInput = errors.New("invalid input")

// Syncer is the subset of *syncer.Syncer the gateway drives.
type Syncer interface {
	FetchAll(ctx context.Context) error
	ControlDevice(ctx context.Context, deviceID string, state relay.RelayState) error
	AddDevice(ctx context.Context, in relay.NewDevice) error
	UpdateDevice(ctx context.Context, id string, in relay.DeviceUpdate) error
	DeleteDevice(ctx context.Context, id string) error
	AddSchedule(ctx context.Context, in relay.NewSchedule) error
	UpdateSchedule(ctx context.Context, id string, in relay.NewSchedule) error
	ToggleSchedule(ctx context.Context, id string) error
	DeleteSchedule(ctx context.Context, id string) error
}

// Banner is where failures are surfaced. *state.Store satisfies it.
type Banner interface {
	ClearError()
	SetError(message string)
}

// Gateway wraps a Syncer with the intent lifecycle.
type Gateway struct {
	sync   Syncer
	banner Banner
	log    logrus.FieldLogger
}

// New builds a Gateway. A nil logger uses the logrus standard logger.
func New(sync Syncer, banner Banner, logger logrus.FieldLogger) (*Gateway, error) {
	if sync == nil {
		return nil, fmt.Errorf("gateway requires a syncer")
	}
	if banner == nil {
		return nil, fmt.Errorf("gateway requires a banner")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Gateway{sync: sync, banner: banner, log: logger.WithField("component", "gateway")}, nil
}

// Refresh re-reads everything. The sync client raises its own banner.
func (g *Gateway) Refresh(ctx context.Context) error {
	g.banner.ClearError()
	if err := g.sync.FetchAll(ctx); err != nil {
		return &MutationError{Op: OpRefresh, Err: err}
	}
	return nil
}

// ControlDevice switches a relay on or off.
func (g *Gateway) ControlDevice(ctx context.Context, deviceID string, state relay.RelayState) error {
	fields := logrus.Fields{"device_id": deviceID, "state": state}
	return g.run(ctx, OpControlDevice, fields, func() error {
		if strings.TrimSpace(deviceID) == "" {
			return errors.New("device id is required")
		}
		if !state.Valid() {
			return fmt.Errorf("invalid relay state %q", state)
		}
		return nil
	}, func(ctx context.Context) error {
		return g.sync.ControlDevice(ctx, deviceID, state)
	})
}

// AddDevice registers a device.
func (g *Gateway) AddDevice(ctx context.Context, in relay.NewDevice) error {
	fields := logrus.Fields{"name": in.Name, "room": in.Room, "gpio_pin": in.GPIOPin}
	return g.run(ctx, OpAddDevice, fields, in.Validate, func(ctx context.Context) error {
		return g.sync.AddDevice(ctx, in)
	})
}

// UpdateDevice edits a device.
func (g *Gateway) UpdateDevice(ctx context.Context, id string, in relay.DeviceUpdate) error {
	return g.run(ctx, OpUpdateDevice, logrus.Fields{"device_id": id}, func() error {
		if strings.TrimSpace(id) == "" {
			return errors.New("device id is required")
		}
		if in.Empty() {
			return errors.New("nothing to update")
		}
		return nil
	}, func(ctx context.Context) error {
		return g.sync.UpdateDevice(ctx, id, in)
	})
}

// DeleteDevice removes a device.
func (g *Gateway) DeleteDevice(ctx context.Context, id string) error {
	return g.run(ctx, OpDeleteDevice, logrus.Fields{"device_id": id}, requireID("device", id), func(ctx context.Context) error {
		return g.sync.DeleteDevice(ctx, id)
	})
}

// AddSchedule creates a schedule.
func (g *Gateway) AddSchedule(ctx context.Context, in relay.NewSchedule) error {
	fields := logrus.Fields{"device_id": in.DeviceID, "name": in.Name, "schedule_type": in.ScheduleType}
	return g.run(ctx, OpAddSchedule, fields, in.Validate, func(ctx context.Context) error {
		return g.sync.AddSchedule(ctx, in)
	})
}

// UpdateSchedule replaces a schedule definition.
func (g *Gateway) UpdateSchedule(ctx context.Context, id string, in relay.NewSchedule) error {
	fields := logrus.Fields{"schedule_id": id, "device_id": in.DeviceID}
	return g.run(ctx, OpUpdateSchedule, fields, func() error {
		if err := requireID("schedule", id)(); err != nil {
			return err
		}
		return in.Validate()
	}, func(ctx context.Context) error {
		return g.sync.UpdateSchedule(ctx, id, in)
	})
}

// ToggleSchedule flips a schedule's active flag.
func (g *Gateway) ToggleSchedule(ctx context.Context, id string) error {
	return g.run(ctx, OpToggleSchedule, logrus.Fields{"schedule_id": id}, requireID("schedule", id), func(ctx context.Context) error {
		return g.sync.ToggleSchedule(ctx, id)
	})
}

// DeleteSchedule removes a schedule.
func (g *Gateway) DeleteSchedule(ctx context.Context, id string) error {
	return g.run(ctx, OpDeleteSchedule, logrus.Fields{"schedule_id": id}, requireID("schedule", id), func(ctx context.Context) error {
		return g.sync.DeleteSchedule(ctx, id)
	})
}

func (g *Gateway) run(ctx context.Context, op Op, fields logrus.Fields, validate func() error, call func(context.Context) error) error {
	g.banner.ClearError()
	log := g.log.WithFields(fields).WithField("op", string(op))

	if err := validate(); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidInput, err)
		log.WithError(err).Warn("intent rejected")
		g.banner.SetError(op.Banner())
		return &MutationError{Op: op, Err: err}
	}
	if err := call(ctx); err != nil {
		log.WithError(err).Error("intent failed")
		g.banner.SetError(op.Banner())
		return &MutationError{Op: op, Err: err}
	}
	log.Info("intent applied")
	return nil
}

func requireID(kind, id string) func() error {
	return func() error {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%s id is required", kind)
		}
		return nil
	}
}
