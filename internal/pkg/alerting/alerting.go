// Package alerting reports conditions that need an operator, such as a
// partially written enrollment ledger.
package alerting

import (
	"os"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/rs/zerolog"
)

// Alerter raises critical, human-actionable alerts
type Alerter interface {
	Critical(err error, extras map[string]interface{})
	Close()
}

// Config holds Rollbar settings. An empty token disables reporting.
type Config struct {
	Token       string
	Environment string
	CodeVersion string
}

// New returns a Rollbar-backed alerter, or a logging-only one when no token is configured
func New(cfg Config, logger zerolog.Logger) Alerter {
	if cfg.Token == "" {
		return NewNop(logger)
	}
	return NewRollbarAlerter(cfg, logger)
}

// RollbarAlerter forwards alerts to Rollbar and mirrors them to the log
type RollbarAlerter struct {
	logger zerolog.Logger
}

var _ Alerter = (*RollbarAlerter)(nil)

// NewRollbarAlerter configures the global Rollbar client
func NewRollbarAlerter(cfg Config, logger zerolog.Logger) *RollbarAlerter {
	host, _ := os.Hostname()

	rollbar.SetToken(cfg.Token)
	rollbar.SetEnvironment(cfg.Environment)
	rollbar.SetCodeVersion(cfg.CodeVersion)
	rollbar.SetServerHost(host)
	rollbar.SetStackTracer(errors.StackTracer)

	return &RollbarAlerter{logger: logger.With().Str("component", "alerting").Logger()}
}

// Critical reports err with extras at critical level
func (a *RollbarAlerter) Critical(err error, extras map[string]interface{}) {
	rollbar.Critical(err, extras)
	a.logger.Error().Err(err).Fields(extras).Bool("alert", true).Msg("Critical alert sent")
}

// Close flushes queued reports
func (a *RollbarAlerter) Close() {
	rollbar.Wait()
}

// NopAlerter only logs alerts
type NopAlerter struct {
	logger zerolog.Logger
}

var _ Alerter = (*NopAlerter)(nil)

// NewNop creates an alerter that writes alerts to the log only
func NewNop(logger zerolog.Logger) *NopAlerter {
	return &NopAlerter{logger: logger.With().Str("component", "alerting").Logger()}
}

// Critical logs the alert
func (a *NopAlerter) Critical(err error, extras map[string]interface{}) {
	a.logger.Error().Err(err).Fields(extras).Bool("alert", true).Msg("Critical alert (reporting disabled)")
}

// Close is a no-op
func (a *NopAlerter) Close() {}
