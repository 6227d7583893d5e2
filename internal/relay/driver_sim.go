package relay

import "log/slog"

// simDriver stands in for the relay board when no GPIO hardware exists.
type simDriver struct {
	logger *slog.Logger
}

func newSimDriver(logger *slog.Logger) *simDriver {
	return &simDriver{logger: logger}
}

func (d *simDriver) Set(channel int, on bool) error {
	d.logger.Debug("simulated relay switch", "channel", channel, "on", on)
	return nil
}

func (d *simDriver) Close() error { return nil }
