package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		return nil
	}
	return logEntry
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLoggerWithOutput("debug", "production", buf)

	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log.Info("hello")
	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "hello", entry["msg"])
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	log := NewLoggerWithOutput("loud", "development", &bytes.Buffer{})

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestImportLoggerParseResult(t *testing.T) {
	log, buf := setupTestLogger()

	NewImportLogger(log).LogParseResult("24h Mans", 32, 410, 12000, 3, 1500*time.Millisecond)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "import", entry["component"])
	assert.Equal(t, "24h Mans", entry["race"])
	assert.Equal(t, float64(32), entry["teams"])
	assert.Equal(t, float64(1500), entry["duration_ms"])
}

func TestImportLoggerFailure(t *testing.T) {
	log, buf := setupTestLogger()

	NewImportLogger(log).LogImportFailed("24h Mans", "parse", errors.New("no teams"))

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "no teams", entry["error"])
	assert.Equal(t, "parse", entry["stage"])
}

func TestLiveLoggerDisconnected(t *testing.T) {
	log, buf := setupTestLogger()

	NewLiveLogger(log).LogDisconnected("wss://feed", errors.New("eof"), 2*time.Second)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "live", entry["component"])
	assert.Equal(t, "2s", entry["retry_in"])
	assert.Equal(t, "warning", entry["level"])
}

func TestAuditLoggerDriverAssignment(t *testing.T) {
	log, buf := setupTestLogger()

	NewAuditLogger(log).LogDriverAssignment("race-1", 19, 3, "driver-1")

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "audit", entry["component"])
	assert.Equal(t, float64(19), entry["kart_number"])
	assert.Equal(t, float64(3), entry["stint_number"])
}
