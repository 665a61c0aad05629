package service

import (
	"fmt"
	"sync"
	"time"
)

// ImportMetrics tracks statistics about race imports
type ImportMetrics struct {
	mu                sync.RWMutex
	StartTime         time.Time
	LastDuration      time.Duration
	TotalImports      int
	SuccessfulImports int
	DryRuns           int
	TotalTeams        int
	Warnings          int
	ValidationErrors  int
	Errors            int
}

// ImportStats is a copy of the counters of ImportMetrics
type ImportStats struct {
	StartTime         time.Time     `json:"start_time"`
	LastDuration      time.Duration `json:"last_duration"`
	TotalImports      int           `json:"total_imports"`
	SuccessfulImports int           `json:"successful_imports"`
	DryRuns           int           `json:"dry_runs"`
	TotalTeams        int           `json:"total_teams"`
	Warnings          int           `json:"warnings"`
	ValidationErrors  int           `json:"validation_errors"`
	Errors            int           `json:"errors"`
}

// NewImportMetrics creates a new metrics tracker
func NewImportMetrics() *ImportMetrics {
	return &ImportMetrics{
		StartTime: time.Now(),
	}
}

// Reset resets all metrics
func (m *ImportMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartTime = time.Now()
	m.LastDuration = 0
	m.TotalImports = 0
	m.SuccessfulImports = 0
	m.DryRuns = 0
	m.TotalTeams = 0
	m.Warnings = 0
	m.ValidationErrors = 0
	m.Errors = 0
}

// RecordStart increments the import attempt count
func (m *ImportMetrics) RecordStart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalImports++
}

// RecordSuccess records a finished import
func (m *ImportMetrics) RecordSuccess(teams, warnings int, dryRun bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessfulImports++
	m.TotalTeams += teams
	m.Warnings += warnings
	m.LastDuration = duration
	if dryRun {
		m.DryRuns++
	}
}

// RecordError increments error count
func (m *ImportMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

// RecordValidationError increments validation error count
func (m *ImportMetrics) RecordValidationError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidationErrors++
}

// Stats returns a copy of the counters
func (m *ImportMetrics) Stats() ImportStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ImportStats{
		StartTime:         m.StartTime,
		LastDuration:      m.LastDuration,
		TotalImports:      m.TotalImports,
		SuccessfulImports: m.SuccessfulImports,
		DryRuns:           m.DryRuns,
		TotalTeams:        m.TotalTeams,
		Warnings:          m.Warnings,
		ValidationErrors:  m.ValidationErrors,
		Errors:            m.Errors,
	}
}

// String returns a formatted string representation of metrics
func (m *ImportMetrics) String() string {
	s := m.Stats()

	successRate := float64(0)
	if s.TotalImports > 0 {
		successRate = float64(s.SuccessfulImports) / float64(s.TotalImports) * 100
	}

	return fmt.Sprintf(
		"ImportMetrics{Total=%d, Successful=%d (%.1f%%), DryRuns=%d, Teams=%d, Warnings=%d, ValidationErrors=%d, Errors=%d, LastDuration=%v}",
		s.TotalImports,
		s.SuccessfulImports,
		successRate,
		s.DryRuns,
		s.TotalTeams,
		s.Warnings,
		s.ValidationErrors,
		s.Errors,
		s.LastDuration,
	)
}
