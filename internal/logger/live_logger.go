package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LiveLogger logs the live timing feed.
type LiveLogger struct {
	*logrus.Entry
}

// NewLiveLogger creates a new live timing logger.
func NewLiveLogger(baseLogger *logrus.Logger) *LiveLogger {
	return &LiveLogger{
		Entry: baseLogger.WithField("component", "live"),
	}
}

// LogConnected logs a successful feed connection.
func (ll *LiveLogger) LogConnected(feedURL string, attempt int) {
	ll.WithFields(logrus.Fields{
		"feed_url": feedURL,
		"attempt":  attempt,
	}).Info("Live feed connected")
}

// LogDisconnected logs a dropped feed connection and the wait before retrying.
func (ll *LiveLogger) LogDisconnected(feedURL string, err error, retryIn time.Duration) {
	ll.WithFields(logrus.Fields{
		"feed_url": feedURL,
		"retry_in": retryIn.String(),
	}).WithError(err).Warn("Live feed disconnected")
}

// LogUnknownCommand logs a protocol command the state does not handle.
func (ll *LiveLogger) LogUnknownCommand(command string) {
	ll.WithField("command", command).Debug("Unknown live command ignored")
}

// LogSnapshot logs a persisted state snapshot.
func (ll *LiveLogger) LogSnapshot(sessionID string, sequence uint64, rows int) {
	ll.WithFields(logrus.Fields{
		"session_id": sessionID,
		"sequence":   sequence,
		"rows":       rows,
	}).Debug("Live snapshot saved")
}

// LogStaleRelay logs a relay response older than the applied state.
func (ll *LiveLogger) LogStaleRelay(received, applied uint64) {
	ll.WithFields(logrus.Fields{
		"received_sequence": received,
		"applied_sequence":  applied,
	}).Debug("Stale relay response dropped")
}

// LogRelayEpoch logs a relay snapshot from a new epoch, as after a relay restart.
func (ll *LiveLogger) LogRelayEpoch(previous, current string, sequence uint64) {
	ll.WithFields(logrus.Fields{
		"previous_epoch": previous,
		"epoch":          current,
		"sequence":       sequence,
	}).Info("Relay epoch changed")
}
