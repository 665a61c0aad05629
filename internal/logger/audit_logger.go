// Package logger provides audit logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger records changes made by the pit crew.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogDriverAssignment logs a driver being attached to a stint.
func (al *AuditLogger) LogDriverAssignment(raceID string, kartNumber, stintNumber int, driverID string) {
	al.WithFields(logrus.Fields{
		"race_id":      raceID,
		"kart_number":  kartNumber,
		"stint_number": stintNumber,
		"driver_id":    driverID,
	}).Info("Driver assigned to stint")
}

// LogDriverChange logs a driver being created or updated.
func (al *AuditLogger) LogDriverChange(teamID, driverID, name string, weightKg string) {
	al.WithFields(logrus.Fields{
		"team_id":   teamID,
		"driver_id": driverID,
		"name":      name,
		"weight_kg": weightKg,
	}).Info("Driver saved")
}

// LogOnboardMessage logs a message sent to a driver's onboard display.
func (al *AuditLogger) LogOnboardMessage(sessionID string, kartNumber int, text string) {
	al.WithFields(logrus.Fields{
		"session_id":  sessionID,
		"kart_number": kartNumber,
		"text":        text,
	}).Info("Onboard message sent")
}
