package dispatch

import (
	"delwatch/internal/logger"
	"delwatch/internal/metrics"
	"delwatch/pkg/models"
)

// Channel delivers one alert to a single destination.
type Channel interface {
	Name() string
	Send(alert *models.Alert) error
	Close() error
}

// Dispatcher fans alerts out to every configured channel. Channels are
// independent: one failing never stops the others, and Dispatch never
// reports an error to its caller. There is no retry; a failed send is logged
// and counted.
type Dispatcher struct {
	channels []Channel
}

// NewDispatcher creates a dispatcher over the given channels.
func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// Dispatch attempts delivery on every channel.
func (d *Dispatcher) Dispatch(alert *models.Alert) {
	if alert == nil {
		return
	}
	for _, ch := range d.channels {
		d.send(ch, alert)
	}
}

func (d *Dispatcher) send(ch Channel, alert *models.Alert) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ChannelErrors.WithLabelValues(ch.Name()).Inc()
			logger.Errorf("Alert channel %s panicked: %v", ch.Name(), r)
		}
	}()

	metrics.AlertsDispatched.WithLabelValues(ch.Name()).Inc()
	if err := ch.Send(alert); err != nil {
		metrics.ChannelErrors.WithLabelValues(ch.Name()).Inc()
		logger.Errorf("Alert channel %s failed for %s: %v", ch.Name(), alert.AlertID, err)
	}
}

// Close closes all channels, returning the first error.
func (d *Dispatcher) Close() error {
	var firstErr error
	for _, ch := range d.channels {
		if err := ch.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
