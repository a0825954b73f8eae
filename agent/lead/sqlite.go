package lead

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the default durable store: a single-file database that fits
// the one-process deployment this service targets.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writers; a single connection avoids
	// SQLITE_BUSY churn under concurrent sessions.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS leads (
	session_id     TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	company        TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	interest_area  TEXT NOT NULL DEFAULT '',
	budget_signal  TEXT NOT NULL DEFAULT '',
	urgency_signal TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'NEW',
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS routing_decisions (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	destination  TEXT NOT NULL,
	matched_rule TEXT NOT NULL DEFAULT '',
	fingerprint  TEXT NOT NULL,
	sent_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_routing_decisions_session
	ON routing_decisions (session_id, sent_at);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	row := s.db.QueryRowContext(ctx, `
SELECT session_id, name, email, company, phone, interest_area,
       budget_signal, urgency_signal, status, created_at, updated_at
FROM leads
WHERE session_id = ?`, sessionID)

	var rec Record
	err := row.Scan(
		&rec.SessionID, &rec.Name, &rec.Email, &rec.Company, &rec.Phone,
		&rec.InterestArea, &rec.BudgetSignal, &rec.UrgencySignal, &rec.Status,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan lead: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}
	if strings.TrimSpace(rec.SessionID) == "" {
		return ErrInvalidSession
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO leads (session_id, name, email, company, phone, interest_area,
                   budget_signal, urgency_signal, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id) DO UPDATE SET
	name = excluded.name,
	email = excluded.email,
	company = excluded.company,
	phone = excluded.phone,
	interest_area = excluded.interest_area,
	budget_signal = excluded.budget_signal,
	urgency_signal = excluded.urgency_signal,
	status = excluded.status,
	updated_at = excluded.updated_at`,
		rec.SessionID, rec.Name, rec.Email, rec.Company, rec.Phone,
		rec.InterestArea, rec.BudgetSignal, rec.UrgencySignal, string(rec.Status),
		rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert lead: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, name, email, company, phone, interest_area,
       budget_signal, urgency_signal, status, created_at, updated_at
FROM leads
ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.SessionID, &rec.Name, &rec.Email, &rec.Company, &rec.Phone,
			&rec.InterestArea, &rec.BudgetSignal, &rec.UrgencySignal, &rec.Status,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM routing_decisions`); err != nil {
		return fmt.Errorf("clear decisions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM leads`); err != nil {
		return fmt.Errorf("clear leads: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestDecision(ctx context.Context, sessionID string) (*Decision, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	row := s.db.QueryRowContext(ctx, `
SELECT id, session_id, destination, matched_rule, fingerprint, sent_at
FROM routing_decisions
WHERE session_id = ?
ORDER BY sent_at DESC, id DESC
LIMIT 1`, sessionID)

	var d Decision
	err := row.Scan(&d.ID, &d.SessionID, &d.Destination, &d.MatchedRule, &d.Fingerprint, &d.SentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoDecision
	}
	if err != nil {
		return nil, fmt.Errorf("scan decision: %w", err)
	}
	return &d, nil
}

func (s *SQLiteStore) AddDecision(ctx context.Context, d *Decision) error {
	if d == nil {
		return ErrNilDecision
	}
	if strings.TrimSpace(d.SessionID) == "" {
		return ErrInvalidSession
	}
	if strings.TrimSpace(d.ID) == "" {
		return errors.New("decision id is empty")
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO routing_decisions (id, session_id, destination, matched_rule, fingerprint, sent_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.SessionID, d.Destination, d.MatchedRule, d.Fingerprint, d.SentAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListDecisions(ctx context.Context, sessionID string) ([]*Decision, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, destination, matched_rule, fingerprint, sent_at
FROM routing_decisions
WHERE session_id = ?
ORDER BY sent_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []*Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Destination, &d.MatchedRule, &d.Fingerprint, &d.SentAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
