package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

// LeadRepository writes leads into the sales team's contact table. Only the
// contact, the quoted range and how it was gated are kept; selections and
// addresses stay with the homeowner's session.
type LeadRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *LeadRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker replicas.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, leadSchemaDDL); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Save stores the lead once. Redelivered leads with a known id are ignored
// and reported as not inserted.
func (r *LeadRepository) Save(ctx context.Context, lead domain.Lead) (bool, error) {
	var rangeMin, rangeMax sql.NullInt64
	if lead.Range != nil {
		rangeMin = sql.NullInt64{Int64: lead.Range.Min, Valid: true}
		rangeMax = sql.NullInt64{Int64: lead.Range.Max, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, insertLeadQuery,
		lead.ID, lead.QuoteID, lead.Contact.Name, lead.Contact.Email, lead.Contact.PhonePrefix, lead.Contact.Phone,
		rangeMin, rangeMax, string(lead.GatingMode), lead.SubmittedAt, r.now(),
	)
	if err != nil {
		return false, fmt.Errorf("insert lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("lead rows affected: %w", err)
	}
	return n > 0, nil
}

const leadSchemaDDL = `
CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	quote_id TEXT,
	name TEXT NOT NULL,
	email TEXT,
	phone_prefix TEXT,
	phone TEXT,
	range_min BIGINT,
	range_max BIGINT,
	gating_mode TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL,
	received_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_submitted_at ON leads(submitted_at DESC);
`

const insertLeadQuery = `
INSERT INTO leads (
	id, quote_id, name, email, phone_prefix, phone, range_min, range_max, gating_mode, submitted_at, received_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO NOTHING
`
