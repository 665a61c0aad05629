package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yesmonga/karting-sub000/internal/apex"
	"github.com/yesmonga/karting-sub000/internal/logger"
	"github.com/yesmonga/karting-sub000/internal/metrics"
	"github.com/yesmonga/karting-sub000/internal/models"
	"github.com/yesmonga/karting-sub000/internal/repository"
	"github.com/yesmonga/karting-sub000/internal/scheduler"
)

// Scheduled job names
const (
	JobLiveSnapshot = "live-snapshot"
	JobRelayPoll    = "relay-poll"
)

const (
	defaultMessageLimit = 50
	endSessionTimeout   = 10 * time.Second
)

// LiveOptions configures one live run
type LiveOptions struct {
	Name             string
	FeedURL          string
	SnapshotInterval time.Duration
	PollInterval     time.Duration
	// Persist enables the periodic snapshot job
	Persist bool
}

// LiveService follows a timing feed for the crew: it applies feed messages
// to the live state, keeps a live session with periodic snapshots and
// stores the onboard messages sent to drivers
type LiveService struct {
	sessions  repository.LiveSessionRepository
	messages  repository.OnboardMessageRepository
	state     *apex.State
	validator *DataValidator
	logger    *logger.LiveLogger
	audit     *logger.AuditLogger
	base      *logrus.Logger
	now       func() time.Time

	mu        sync.RWMutex
	session   *models.LiveSession
	lastSaved uint64
}

// NewLiveService creates a new live service
func NewLiveService(
	sessions repository.LiveSessionRepository,
	messages repository.OnboardMessageRepository,
	log *logrus.Logger,
) *LiveService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &LiveService{
		sessions:  sessions,
		messages:  messages,
		state:     apex.NewState(),
		validator: NewDataValidator(log),
		logger:    logger.NewLiveLogger(log),
		audit:     logger.NewAuditLogger(log),
		base:      log,
		now:       time.Now,
	}
}

// State returns the live state fed by this service
func (s *LiveService) State() *apex.State {
	return s.state
}

// Logger returns the live component logger
func (s *LiveService) Logger() *logger.LiveLogger {
	return s.logger
}

// HandleMessage applies one feed message to the live state. It is the
// handler given to stream clients and replay sources.
func (s *LiveService) HandleMessage(msg string) {
	result := s.state.ApplyMessage(msg)
	for _, cmd := range result.Applied {
		metrics.RecordLiveMessage(cmd)
	}
	for _, cmd := range result.Unknown {
		metrics.RecordUnknownCommand()
		s.logger.LogUnknownCommand(cmd)
	}
	if result.Changed {
		snap := s.state.Snapshot()
		metrics.UpdateLiveState(snap.Sequence, len(snap.Rows))
	}
}

// StartSession opens a new live session
func (s *LiveService) StartSession(ctx context.Context, name, feedURL string) (*models.LiveSession, error) {
	session := &models.LiveSession{
		ID:        uuid.New(),
		Name:      name,
		FeedURL:   feedURL,
		StartedAt: s.now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create live session: %w", err)
	}

	s.mu.Lock()
	s.session = session
	s.lastSaved = 0
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID.String(),
		"name":       name,
	}).Info("Live session started")
	return session, nil
}

// Session returns the current session, or nil when none is open
func (s *LiveService) Session() *models.LiveSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	c := *s.session
	return &c
}

// PersistSnapshot stores the current state in the session when it changed
// since the last save
func (s *LiveService) PersistSnapshot(ctx context.Context) error {
	s.mu.RLock()
	session, lastSaved := s.session, s.lastSaved
	s.mu.RUnlock()
	if session == nil {
		return models.ErrNoActiveSession
	}

	snap := s.state.Snapshot()
	if snap.Sequence == 0 || snap.Sequence == lastSaved {
		return nil
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.sessions.SaveSnapshot(ctx, session.ID, snap.Sequence, snap.Title1, snap.Title2, data); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.mu.Lock()
	if s.session != nil && s.session.ID == session.ID && snap.Sequence > s.lastSaved {
		s.lastSaved = snap.Sequence
	}
	s.mu.Unlock()

	s.logger.LogSnapshot(session.ID.String(), snap.Sequence, len(snap.Rows))
	return nil
}

// EndSession saves a final snapshot and closes the session
func (s *LiveService) EndSession(ctx context.Context) error {
	s.mu.RLock()
	session := s.session
	s.mu.RUnlock()
	if session == nil {
		return nil
	}

	if err := s.PersistSnapshot(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to save final snapshot")
	}
	if err := s.sessions.End(ctx, session.ID, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to end live session: %w", err)
	}

	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	s.logger.WithField("session_id", session.ID.String()).Info("Live session ended")
	return nil
}

// PostMessage stores an onboard message for a kart of the current session
func (s *LiveService) PostMessage(ctx context.Context, kartNumber int, text string) (*models.OnboardMessage, error) {
	session := s.Session()
	if session == nil {
		return nil, models.ErrNoActiveSession
	}

	msg := &models.OnboardMessage{
		ID:         uuid.New(),
		SessionID:  session.ID,
		KartNumber: kartNumber,
		Text:       collapseSpaces(text),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.validator.ValidateOnboardMessage(msg); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store onboard message: %w", err)
	}

	metrics.RecordOnboardMessage()
	s.audit.LogOnboardMessage(session.ID.String(), kartNumber, msg.Text)
	return msg, nil
}

// Messages lists the latest onboard messages of the current session
func (s *LiveService) Messages(ctx context.Context, limit int) ([]*models.OnboardMessage, error) {
	session := s.Session()
	if session == nil {
		return nil, models.ErrNoActiveSession
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	return s.messages.ListBySession(ctx, session.ID, limit)
}

// Run opens a session and follows the feed until ctx is cancelled. Either
// feed or relay may be nil, not both. Snapshots are saved on a schedule when
// opts.Persist is set, and the relay is polled every opts.PollInterval.
func (s *LiveService) Run(ctx context.Context, feed apex.Feed, relay *apex.RelayClient, opts LiveOptions) error {
	if feed == nil && relay == nil {
		return fmt.Errorf("%w: a feed or a relay is required", models.ErrInvalidInput)
	}

	name := opts.Name
	if name == "" && feed != nil {
		name = feed.Name()
	}
	if _, err := s.StartSession(ctx, name, opts.FeedURL); err != nil {
		return err
	}
	defer func() {
		endCtx, cancel := context.WithTimeout(context.Background(), endSessionTimeout)
		defer cancel()
		if err := s.EndSession(endCtx); err != nil {
			s.logger.WithError(err).Error("Failed to end live session")
		}
	}()

	sched := scheduler.NewScheduler(s.base)
	if opts.Persist {
		if err := sched.ScheduleEvery(JobLiveSnapshot, opts.SnapshotInterval, s.PersistSnapshot); err != nil {
			return fmt.Errorf("failed to schedule snapshots: %w", err)
		}
	}
	if relay != nil {
		poll := func(ctx context.Context) error {
			_, err := relay.Poll(ctx)
			return err
		}
		if err := sched.ScheduleEvery(JobRelayPoll, opts.PollInterval, poll); err != nil {
			return fmt.Errorf("failed to schedule relay polling: %w", err)
		}
	}
	if len(sched.Jobs()) > 0 {
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				s.logger.WithError(err).Warn("Scheduler did not stop cleanly")
			}
		}()
	}

	if feed == nil {
		<-ctx.Done()
		return nil
	}

	err := feed.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("live feed %s failed: %w", feed.Name(), err)
	}
	return nil
}
