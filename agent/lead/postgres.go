package lead

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// PostgresStore backs the lead store with Postgres for deployments that have
// outgrown the single-file default.
type PostgresStore struct {
	db *bun.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	for _, model := range []any{(*Record)(nil), (*Decision)(nil)} {
		if _, err := s.db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	if _, err := s.db.NewCreateIndex().
		Model((*Decision)(nil)).
		IfNotExists().
		Index("idx_routing_decisions_session").
		Column("session_id", "sent_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("create decision index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	rec := new(Record)
	err := s.db.NewSelect().
		Model(rec).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select lead: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Put(ctx context.Context, rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}
	if strings.TrimSpace(rec.SessionID) == "" {
		return ErrInvalidSession
	}

	_, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (session_id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("email = EXCLUDED.email").
		Set("company = EXCLUDED.company").
		Set("phone = EXCLUDED.phone").
		Set("interest_area = EXCLUDED.interest_area").
		Set("budget_signal = EXCLUDED.budget_signal").
		Set("urgency_signal = EXCLUDED.urgency_signal").
		Set("status = EXCLUDED.status").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert lead: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Record, error) {
	var recs []*Record
	err := s.db.NewSelect().
		Model(&recs).
		Order("updated_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return recs, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Decision)(nil)).
			Where("TRUE").
			Exec(ctx); err != nil {
			return fmt.Errorf("clear decisions: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*Record)(nil)).
			Where("TRUE").
			Exec(ctx); err != nil {
			return fmt.Errorf("clear leads: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) LatestDecision(ctx context.Context, sessionID string) (*Decision, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	d := new(Decision)
	err := s.db.NewSelect().
		Model(d).
		Where("session_id = ?", sessionID).
		Order("sent_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoDecision
	}
	if err != nil {
		return nil, fmt.Errorf("select decision: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) AddDecision(ctx context.Context, d *Decision) error {
	if d == nil {
		return ErrNilDecision
	}
	if strings.TrimSpace(d.SessionID) == "" {
		return ErrInvalidSession
	}

	if _, err := s.db.NewInsert().Model(d).Exec(ctx); err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDecisions(ctx context.Context, sessionID string) ([]*Decision, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	var out []*Decision
	err := s.db.NewSelect().
		Model(&out).
		Where("session_id = ?", sessionID).
		Order("sent_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
