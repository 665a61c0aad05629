package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yesmonga/karting-sub000/internal/database"
	"github.com/yesmonga/karting-sub000/internal/models"
)

const (
	errScanMessage = "failed to scan onboard message: %w"

	sessionColumns = `id, name, feed_url, title1, title2, sequence, snapshot, started_at, ended_at`
)

// PostgresLiveSessionRepository implements LiveSessionRepository for PostgreSQL
type PostgresLiveSessionRepository struct {
	db *database.DB
}

// NewPostgresLiveSessionRepository creates a new live session repository
func NewPostgresLiveSessionRepository(db *database.DB) LiveSessionRepository {
	return &PostgresLiveSessionRepository{db: db}
}

// Create inserts a new live session
func (r *PostgresLiveSessionRepository) Create(ctx context.Context, s *models.LiveSession) error {
	_, err := r.db.GetPool().Exec(ctx, `
		INSERT INTO live_sessions (id, name, feed_url, title1, title2, sequence, snapshot, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.Name, s.FeedURL, s.Title1, s.Title2, int64(s.Sequence), []byte(s.Snapshot), s.StartedAt, s.EndedAt)
	if err != nil {
		return fmt.Errorf("failed to create live session: %w", mapPgError(err))
	}
	return nil
}

// GetByID retrieves a live session by ID
func (r *PostgresLiveSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LiveSession, error) {
	session, err := scanSession(r.db.GetPool().QueryRow(ctx, `SELECT `+sessionColumns+` FROM live_sessions WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get live session: %w", err)
	}
	return session, nil
}

// GetActive retrieves the most recently started session that has not ended
func (r *PostgresLiveSessionRepository) GetActive(ctx context.Context) (*models.LiveSession, error) {
	session, err := scanSession(r.db.GetPool().QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM live_sessions
		WHERE ended_at IS NULL ORDER BY started_at DESC LIMIT 1`))
	if isNoRows(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active live session: %w", err)
	}
	return session, nil
}

// SaveSnapshot stores a state snapshot unless a newer one is already stored
func (r *PostgresLiveSessionRepository) SaveSnapshot(ctx context.Context, id uuid.UUID, sequence uint64, title1, title2 string, snapshot json.RawMessage) error {
	result, err := r.db.GetPool().Exec(ctx, `
		UPDATE live_sessions SET sequence = $2, title1 = $3, title2 = $4, snapshot = $5
		WHERE id = $1 AND sequence <= $2`,
		id, int64(sequence), title1, title2, []byte(snapshot))
	if err != nil {
		return fmt.Errorf("failed to save live snapshot: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// End marks a session as ended
func (r *PostgresLiveSessionRepository) End(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	result, err := r.db.GetPool().Exec(ctx, `UPDATE live_sessions SET ended_at = $2 WHERE id = $1`, id, endedAt)
	if err != nil {
		return fmt.Errorf("failed to end live session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanSession(row pgx.Row) (*models.LiveSession, error) {
	s := &models.LiveSession{}
	var sequence int64
	var snapshot []byte
	err := row.Scan(&s.ID, &s.Name, &s.FeedURL, &s.Title1, &s.Title2, &sequence, &snapshot, &s.StartedAt, &s.EndedAt)
	if err != nil {
		return nil, err
	}
	s.Sequence = uint64(sequence)
	s.Snapshot = snapshot
	return s, nil
}

// PostgresOnboardMessageRepository implements OnboardMessageRepository for PostgreSQL
type PostgresOnboardMessageRepository struct {
	db *database.DB
}

// NewPostgresOnboardMessageRepository creates a new onboard message repository
func NewPostgresOnboardMessageRepository(db *database.DB) OnboardMessageRepository {
	return &PostgresOnboardMessageRepository{db: db}
}

// Create inserts a new onboard message
func (r *PostgresOnboardMessageRepository) Create(ctx context.Context, msg *models.OnboardMessage) error {
	_, err := r.db.GetPool().Exec(ctx, `
		INSERT INTO onboard_messages (id, session_id, kart_number, text, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.SessionID, msg.KartNumber, msg.Text, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create onboard message: %w", mapPgError(err))
	}
	return nil
}

// ListBySession retrieves the latest messages of a session, newest first
func (r *PostgresOnboardMessageRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.OnboardMessage, error) {
	rows, err := r.db.GetPool().Query(ctx, `
		SELECT id, session_id, kart_number, text, created_at
		FROM onboard_messages WHERE session_id = $1
		ORDER BY created_at DESC LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query onboard messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.OnboardMessage
	for rows.Next() {
		msg := &models.OnboardMessage{}
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.KartNumber, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf(errScanMessage, err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
