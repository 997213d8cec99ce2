package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/relaydash/internal/relay"
	"github.com/five82/relaydash/internal/state"
)

const defaultWatchInterval = time.Second

// WatchOptions configure headless mode.
type WatchOptions struct {
	Interval     time.Duration // how often the store is compared; zero uses 1s
	RefreshEvery time.Duration // periodic bulk refetch; zero disables
}

// Watch runs the sync pipeline without the dashboard and logs every change
// that reaches the store until ctx is cancelled.
func Watch(ctx context.Context, core *Core, opts WatchOptions) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	log := core.Log.WithField("component", "watch")

	channel, err := core.NewChannel(func(msg relay.Message) {
		log.WithField("type", msg.MessageType()).Debug("push frame applied")
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	wait := core.StartChannel(ctx, channel)
	defer func() {
		cancel()
		wait()
	}()

	log.WithField("backend", core.Config.BackendURL).Info("watching")
	if err := core.Syncer.FetchAll(ctx); err != nil {
		log.WithError(err).Warn("initial fetch failed")
	}

	var refresh <-chan time.Time
	if opts.RefreshEvery > 0 {
		t := time.NewTicker(opts.RefreshEvery)
		defer t.Stop()
		refresh = t.C
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var prev state.Snapshot
	for {
		next := core.Store.Snapshot()
		for _, c := range diffSnapshots(prev, next) {
			log.WithFields(c.fields).Info(c.message)
		}
		prev = next

		select {
		case <-ctx.Done():
			return nil
		case <-refresh:
			if err := core.Syncer.FetchAll(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Warn("periodic fetch failed")
			}
		case <-ticker.C:
		}
	}
}

type change struct {
	message string
	fields  logrus.Fields
}

// diffSnapshots lists what changed between two store snapshots, in device
// then schedule order.
func diffSnapshots(prev, next state.Snapshot) []change {
	var out []change

	if prev.Connected != next.Connected {
		if next.Connected {
			out = append(out, change{message: "push channel connected"})
		} else {
			out = append(out, change{message: "push channel disconnected"})
		}
	}
	if next.Error != "" && next.Error != prev.Error {
		out = append(out, change{message: "error banner raised", fields: logrus.Fields{"banner": next.Error}})
	}
	if !next.HasData {
		return out
	}
	if !prev.HasData {
		return append(out, change{
			message: "initial sync complete",
			fields: logrus.Fields{
				"devices":   len(next.Devices),
				"schedules": len(next.Schedules),
				"online":    next.Stats.OnlineDevices,
			},
		})
	}

	out = append(out, diffDevices(prev.Devices, next.Devices)...)
	out = append(out, diffSchedules(prev, next)...)
	return out
}

func diffDevices(prev, next []relay.Device) []change {
	var out []change
	old := make(map[string]relay.Device, len(prev))
	for _, d := range prev {
		old[d.ID] = d
	}
	seen := make(map[string]bool, len(next))
	for _, d := range next {
		seen[d.ID] = true
		o, ok := old[d.ID]
		if !ok {
			out = append(out, change{message: "device added", fields: deviceFields(d)})
			continue
		}
		if o.Status != d.Status {
			f := deviceFields(d)
			f["from"], f["to"] = string(o.Status), string(d.Status)
			out = append(out, change{message: "device status changed", fields: f})
		}
		if o.RelayState != d.RelayState {
			f := deviceFields(d)
			f["from"], f["to"] = string(o.RelayState), string(d.RelayState)
			out = append(out, change{message: "relay switched", fields: f})
		}
		if o.Name != d.Name || o.Room != d.Room || o.GPIOPin != d.GPIOPin {
			out = append(out, change{message: "device edited", fields: deviceFields(d)})
		}
	}
	for _, d := range prev {
		if !seen[d.ID] {
			out = append(out, change{message: "device removed", fields: deviceFields(d)})
		}
	}
	return out
}

func diffSchedules(prev, next state.Snapshot) []change {
	var out []change
	old := make(map[string]relay.Schedule, len(prev.Schedules))
	for _, s := range prev.Schedules {
		old[s.ID] = s
	}
	seen := make(map[string]bool, len(next.Schedules))
	for _, s := range next.Schedules {
		seen[s.ID] = true
		o, ok := old[s.ID]
		switch {
		case !ok:
			out = append(out, change{message: "schedule added", fields: scheduleFields(next, s)})
		case o.IsActive != s.IsActive:
			f := scheduleFields(next, s)
			f["active"] = s.IsActive
			out = append(out, change{message: "schedule toggled", fields: f})
		case o.TriggerTime != s.TriggerTime || o.TargetState != s.TargetState || o.Name != s.Name || o.ScheduleType != s.ScheduleType:
			out = append(out, change{message: "schedule edited", fields: scheduleFields(next, s)})
		}
	}
	for _, s := range prev.Schedules {
		if !seen[s.ID] {
			out = append(out, change{message: "schedule removed", fields: scheduleFields(prev, s)})
		}
	}
	return out
}

func deviceFields(d relay.Device) logrus.Fields {
	return logrus.Fields{"device_id": d.ID, "device": d.Name}
}

func scheduleFields(snap state.Snapshot, s relay.Schedule) logrus.Fields {
	return logrus.Fields{"schedule_id": s.ID, "schedule": s.Name, "device": snap.DeviceName(s.DeviceID)}
}
