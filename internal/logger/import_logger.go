package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ImportLogger logs the document import pipeline.
type ImportLogger struct {
	*logrus.Entry
}

// NewImportLogger creates a new import logger.
func NewImportLogger(baseLogger *logrus.Logger) *ImportLogger {
	return &ImportLogger{
		Entry: baseLogger.WithField("component", "import"),
	}
}

// LogDocumentLoaded logs a document read from a source.
func (il *ImportLogger) LogDocumentLoaded(source, kind string, chars int) {
	il.WithFields(logrus.Fields{
		"source": source,
		"kind":   kind,
		"chars":  chars,
	}).Debug("Document loaded")
}

// LogParseResult logs the outcome of parsing one race.
func (il *ImportLogger) LogParseResult(raceName string, teams, stints, laps, warnings int, duration time.Duration) {
	il.WithFields(logrus.Fields{
		"race":        raceName,
		"teams":       teams,
		"stints":      stints,
		"laps":        laps,
		"warnings":    warnings,
		"duration_ms": duration.Milliseconds(),
	}).Info("Race documents parsed")
}

// LogWarning logs a parse warning.
func (il *ImportLogger) LogWarning(raceName, warning string) {
	il.WithFields(logrus.Fields{
		"race":    raceName,
		"warning": warning,
	}).Warn("Parse warning")
}

// LogImportComplete logs a persisted import.
func (il *ImportLogger) LogImportComplete(raceID, raceName string, teams int, dryRun bool) {
	il.WithFields(logrus.Fields{
		"race_id": raceID,
		"race":    raceName,
		"teams":   teams,
		"dry_run": dryRun,
	}).Info("Import completed")
}

// LogImportFailed logs a failed import.
func (il *ImportLogger) LogImportFailed(raceName, stage string, err error) {
	il.WithFields(logrus.Fields{
		"race":  raceName,
		"stage": stage,
	}).WithError(err).Error("Import failed")
}
