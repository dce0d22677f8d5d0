package records

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
	"github.com/Tejas-dj/OneStopMed-v1/prescription"
)

var (
	_ interfaces.RecordStore = (*PGStore)(nil)
	_ interfaces.RecordStore = NoopStore{}
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS visit_summaries (
	visit_id       UUID PRIMARY KEY,
	doctor_id      TEXT NOT NULL,
	patient_name   TEXT NOT NULL,
	age            TEXT NOT NULL,
	gender         TEXT NOT NULL,
	diagnosis      TEXT NOT NULL DEFAULT '',
	medicines      TEXT[] NOT NULL DEFAULT '{}',
	follow_up_date TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS visit_summaries_doctor_created_idx
	ON visit_summaries (doctor_id, created_at DESC);
`

const insertSQL = `
INSERT INTO visit_summaries
	(visit_id, doctor_id, patient_name, age, gender, diagnosis, medicines, follow_up_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (visit_id) DO NOTHING`

// execer is the subset of *pgxpool.Pool used by PGStore
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGStore writes visit summaries to PostgreSQL
type PGStore struct {
	db    execer
	close func()
}

// NewPGStore wraps an open pool. Close closes the pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{db: pool, close: pool.Close}
}

// EnsureSchema creates the visit_summaries table if it does not exist
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create visit_summaries: %w", err)
	}
	return nil
}

// Save implements the RecordStore interface
func (s *PGStore) Save(ctx context.Context, summary prescription.VisitSummary) error {
	medicines := summary.MedicineNames
	if medicines == nil {
		medicines = []string{}
	}

	_, err := s.db.Exec(ctx, insertSQL,
		summary.VisitID,
		summary.DoctorID,
		summary.PatientName,
		summary.Age,
		summary.Gender,
		summary.Diagnosis,
		medicines,
		summary.FollowUpDate,
		summary.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert visit summary %s: %w", summary.VisitID, err)
	}
	return nil
}

// Close releases the pool
func (s *PGStore) Close() {
	if s.close != nil {
		s.close()
	}
}

// NoopStore discards summaries when no record store is configured
type NoopStore struct{}

// Save implements the RecordStore interface
func (NoopStore) Save(ctx context.Context, summary prescription.VisitSummary) error {
	logging.Debug("Record store disabled, dropping visit summary", "visit_id", summary.VisitID.String())
	return nil
}

// Close implements the RecordStore interface
func (NoopStore) Close() {}
