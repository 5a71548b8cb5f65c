package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/resourcegraph"
	"github.com/Azure/aimbiztalk-sub006/internal/results"
)

//go:embed schema.sql
var schemaDDL string

var _ results.Store = (*Store)(nil)

// ErrRunNotFound is returned when no run exists for an ID.
var ErrRunNotFound = errors.New("run not found")

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store persists analyze runs to PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if pool == nil {
		return nil, errors.New("store requires a database pool")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the run tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const sqlInsertRun = `
        INSERT INTO aim_runs (run_id, title, input, started_at, finished_at, failed, summary)
        VALUES ($1, $2, $3, $4, $5, $6, $7);
    `

const sqlInsertRelationship = `
        INSERT INTO aim_relationships (run_id, source_id, source_key, source_type, target_id, kind)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (run_id, source_id, target_id, kind) DO NOTHING;
    `

var diagnosticColumns = []string{"run_id", "seq", "severity", "code", "subject", "subject_type", "text"}

// PersistRun writes the run header, its diagnostics and every relationship
// edge of its resource graph in one transaction.
func (s *Store) PersistRun(ctx context.Context, report *results.Report) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	summary, err := json.Marshal(report.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if _, err := tx.Exec(ctx, sqlInsertRun,
		report.RunID, report.Title, report.Input,
		report.StartedAt.UTC(), report.FinishedAt.UTC(),
		report.Failed(), summary,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(report.Diagnostics) > 0 {
		if err := s.persistDiagnostics(ctx, tx, report.RunID, report.Diagnostics); err != nil {
			return err
		}
	}

	if err := s.persistRelationships(ctx, tx, report.RunID, report.Resources); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info("Run persisted", zap.String("run_id", report.RunID), zap.Int("diagnostics", len(report.Diagnostics)))
	return nil
}

func (s *Store) persistDiagnostics(ctx context.Context, tx pgx.Tx, runID string, diags []diagnostics.Diagnostic) error {
	rows := make([][]any, len(diags))
	for i, d := range diags {
		rows[i] = []any{runID, i, string(d.Severity), string(d.Code), d.Subject, d.SubjectType, d.Text}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"aim_diagnostics"}, diagnosticColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy diagnostics: %w", err)
	}
	if int(copyCount) != len(diags) {
		return fmt.Errorf("mismatch in copied diagnostics count: expected %d, got %d", len(diags), copyCount)
	}
	return nil
}

func (s *Store) persistRelationships(ctx context.Context, tx pgx.Tx, runID string, roots []*resourcegraph.ResourceNode) error {
	type edge struct {
		from *resourcegraph.ResourceNode
		rel  resourcegraph.Relationship
	}
	var edges []edge
	for _, n := range resourcegraph.FindAllResources(roots...) {
		for _, r := range n.Relationships {
			edges = append(edges, edge{from: n, rel: r})
		}
	}
	if len(edges) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range edges {
		batch.Queue(sqlInsertRelationship, runID, e.from.ID, e.from.Key, string(e.from.Type), e.rel.TargetID, string(e.rel.Kind))
	}

	br := tx.SendBatch(ctx, batch)
	if br == nil {
		return fmt.Errorf("failed to send batch: batch results is nil")
	}
	defer func() {
		_ = br.Close()
	}()

	for i, e := range edges {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert relationship %s -[%s]-> %s (index %d): %w",
				e.from.Key, e.rel.Kind, e.rel.TargetID, i, err)
		}
	}
	return nil
}

// GetRun loads the header of a persisted run.
func (s *Store) GetRun(ctx context.Context, runID string) (*results.RunRecord, error) {
	query := `
        SELECT run_id, title, input, started_at, finished_at, failed
        FROM aim_runs
        WHERE run_id = $1;
    `
	var r results.RunRecord
	err := s.pool.QueryRow(ctx, query, runID).Scan(&r.RunID, &r.Title, &r.Input, &r.StartedAt, &r.FinishedAt, &r.Failed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return &r, nil
}

// GetDiagnosticsByRunID loads the diagnostics of a run in recorded order.
func (s *Store) GetDiagnosticsByRunID(ctx context.Context, runID string) ([]diagnostics.Diagnostic, error) {
	query := `
        SELECT severity, code, subject, subject_type, text
        FROM aim_diagnostics
        WHERE run_id = $1
        ORDER BY seq ASC;
    `
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []diagnostics.Diagnostic
	for rows.Next() {
		var d diagnostics.Diagnostic
		var severity, code string
		if err := rows.Scan(&severity, &code, &d.Subject, &d.SubjectType, &d.Text); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic row: %w", err)
		}
		d.Severity = diagnostics.Severity(severity)
		d.Code = diagnostics.Code(code)
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return out, nil
}
