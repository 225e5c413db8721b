package repository

import (
	"context"
	"fmt"
	"time"

	"rotchain-bot/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	insertProbeRun = `INSERT INTO probe_runs (id, started_at, finished_at, total, succeeded)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`
	insertProbeResult = `INSERT INTO probe_results (run_id, position, url, method, status, ok, elapsed_ms, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (run_id, position) DO NOTHING`
)

// ProbeRunRepository persists faucet probe reports.
type ProbeRunRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewProbeRunRepository(pool PgxPool, tracer trace.Tracer) *ProbeRunRepository {
	return &ProbeRunRepository{pool: pool, tracer: tracer}
}

// SaveReport writes the run and its results in one batch.
func (r *ProbeRunRepository) SaveReport(ctx context.Context, report domain.ProbeReport) error {
	if r.pool == nil {
		return ErrNoPool
	}

	ctx, span := r.tracer.Start(ctx, "probe-run-repo.save-report")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", report.ID.String()), attribute.Int("results", len(report.Results)))

	batch := &pgx.Batch{}
	batch.Queue(insertProbeRun,
		report.ID.String(), report.StartedAt, report.FinishedAt, len(report.Results), report.Succeeded())
	for i, res := range report.Results {
		batch.Queue(insertProbeResult,
			report.ID.String(), i, res.URL, res.Method, res.Status, res.OK, res.Elapsed.Milliseconds(), res.Error)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save probe run %s: %w", report.ID, err)
		}
	}
	return nil
}

// RecentReports returns the latest runs, newest first, with their results in
// probe order.
func (r *ProbeRunRepository) RecentReports(ctx context.Context, limit int) ([]domain.ProbeReport, error) {
	if r.pool == nil {
		return nil, ErrNoPool
	}
	if limit <= 0 {
		limit = 10
	}

	ctx, span := r.tracer.Start(ctx, "probe-run-repo.recent-reports")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id::text, started_at, finished_at
		 FROM probe_runs
		 ORDER BY started_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query probe runs: %w", err)
	}

	var reports []domain.ProbeReport
	index := make(map[string]int)
	var ids []string
	for rows.Next() {
		var id string
		var rep domain.ProbeReport
		if err := rows.Scan(&id, &rep.StartedAt, &rep.FinishedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan probe run: %w", err)
		}
		if rep.ID, err = uuid.Parse(id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse probe run id %q: %w", id, err)
		}
		rep.StartedAt = rep.StartedAt.UTC()
		rep.FinishedAt = rep.FinishedAt.UTC()
		rep.Results = []domain.ProbeResult{}
		index[id] = len(reports)
		ids = append(ids, id)
		reports = append(reports, rep)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read probe runs: %w", err)
	}
	if len(ids) == 0 {
		return reports, nil
	}

	rows, err = r.pool.Query(ctx,
		`SELECT run_id::text, url, method, status, ok, elapsed_ms, error
		 FROM probe_results
		 WHERE run_id = ANY($1::uuid[])
		 ORDER BY run_id, position`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("query probe results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var runID string
		var res domain.ProbeResult
		var elapsedMS int64
		if err := rows.Scan(&runID, &res.URL, &res.Method, &res.Status, &res.OK, &elapsedMS, &res.Error); err != nil {
			return nil, fmt.Errorf("scan probe result: %w", err)
		}
		res.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if i, ok := index[runID]; ok {
			reports[i].Results = append(reports[i].Results, res)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read probe results: %w", err)
	}
	return reports, nil
}
