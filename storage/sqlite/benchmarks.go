package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexchoi0/driftwatch/benchmarks"
	apperrors "github.com/alexchoi0/driftwatch/internal/errors"
)

var _ benchmarks.Repo = (*BenchmarkRepo)(nil)

// BenchmarkRepo serves the bulk reads behind the request-scoped loaders.
type BenchmarkRepo struct {
	db *sql.DB
}

// CreateProject inserts a project row. Used by seeding and tests.
func (r *BenchmarkRepo) CreateProject(ctx context.Context, p benchmarks.Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, user_id, slug, name, description, public, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Slug, p.Name, p.Description, p.Public, toMillis(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// CreateNamed inserts a branch, testbed or benchmark row, selected by table.
func (r *BenchmarkRepo) CreateNamed(ctx context.Context, table, id, projectID, name string) error {
	switch table {
	case "branches", "testbeds", "benchmarks":
	default:
		return fmt.Errorf("create %s: %w", table, apperrors.ErrUnsupported)
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO `+table+` (id, project_id, name) VALUES (?, ?, ?)`, id, projectID, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	return nil
}

func (r *BenchmarkRepo) CreateMeasure(ctx context.Context, m benchmarks.Measure) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO measures (id, project_id, name, units) VALUES (?, ?, ?, ?)`,
		m.ID, m.ProjectID, m.Name, m.Units)
	if err != nil {
		return fmt.Errorf("create measure: %w", err)
	}
	return nil
}

func (r *BenchmarkRepo) CreateThreshold(ctx context.Context, t benchmarks.Threshold) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO thresholds (id, project_id, branch_id, testbed_id, measure_id, upper_boundary, lower_boundary, min_sample_size)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, nullString(t.BranchID), nullString(t.TestbedID), t.MeasureID,
		nullFloat(t.UpperBoundary), nullFloat(t.LowerBoundary), t.MinSampleSize)
	if err != nil {
		return fmt.Errorf("create threshold: %w", err)
	}
	return nil
}

func (r *BenchmarkRepo) ProjectBySlug(ctx context.Context, slug string) (*benchmarks.Project, error) {
	var (
		p         benchmarks.Project
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, slug, name, description, public, created_at FROM projects WHERE slug = ?`, slug,
	).Scan(&p.ID, &p.UserID, &p.Slug, &p.Name, &p.Description, &p.Public, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}

const thresholdColumns = `id, project_id, branch_id, testbed_id, measure_id, upper_boundary, lower_boundary, min_sample_size`

func (r *BenchmarkRepo) ThresholdsByProject(ctx context.Context, projectID string) ([]benchmarks.Threshold, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+thresholdColumns+` FROM thresholds WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list thresholds: %w", err)
	}
	return collect(rows, scanThreshold)
}

func (r *BenchmarkRepo) BranchesByIDs(ctx context.Context, ids []string) ([]benchmarks.Branch, error) {
	return queryByIDs(ctx, r.db, "branches", "id, project_id, name", ids, func(row rowScanner) (benchmarks.Branch, error) {
		var b benchmarks.Branch
		err := row.Scan(&b.ID, &b.ProjectID, &b.Name)
		return b, err
	})
}

func (r *BenchmarkRepo) TestbedsByIDs(ctx context.Context, ids []string) ([]benchmarks.Testbed, error) {
	return queryByIDs(ctx, r.db, "testbeds", "id, project_id, name", ids, func(row rowScanner) (benchmarks.Testbed, error) {
		var t benchmarks.Testbed
		err := row.Scan(&t.ID, &t.ProjectID, &t.Name)
		return t, err
	})
}

func (r *BenchmarkRepo) BenchmarksByIDs(ctx context.Context, ids []string) ([]benchmarks.Benchmark, error) {
	return queryByIDs(ctx, r.db, "benchmarks", "id, project_id, name", ids, func(row rowScanner) (benchmarks.Benchmark, error) {
		var b benchmarks.Benchmark
		err := row.Scan(&b.ID, &b.ProjectID, &b.Name)
		return b, err
	})
}

func (r *BenchmarkRepo) MeasuresByIDs(ctx context.Context, ids []string) ([]benchmarks.Measure, error) {
	return queryByIDs(ctx, r.db, "measures", "id, project_id, name, units", ids, func(row rowScanner) (benchmarks.Measure, error) {
		var m benchmarks.Measure
		err := row.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Units)
		return m, err
	})
}

func (r *BenchmarkRepo) MetricsByIDs(ctx context.Context, ids []string) ([]benchmarks.Metric, error) {
	return queryByIDs(ctx, r.db, "metrics", "id, report_id, benchmark_id, measure_id, value, lower_value, upper_value", ids,
		func(row rowScanner) (benchmarks.Metric, error) {
			var (
				m            benchmarks.Metric
				lower, upper sql.NullFloat64
			)
			if err := row.Scan(&m.ID, &m.ReportID, &m.BenchmarkID, &m.MeasureID, &m.Value, &lower, &upper); err != nil {
				return m, err
			}
			m.LowerValue = fromNullFloat(lower)
			m.UpperValue = fromNullFloat(upper)
			return m, nil
		})
}

func (r *BenchmarkRepo) ThresholdsByIDs(ctx context.Context, ids []string) ([]benchmarks.Threshold, error) {
	return queryByIDs(ctx, r.db, "thresholds", thresholdColumns, ids, scanThreshold)
}

func scanThreshold(row rowScanner) (benchmarks.Threshold, error) {
	var (
		t                 benchmarks.Threshold
		branchID, testbed sql.NullString
		upperB, lowerB    sql.NullFloat64
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &branchID, &testbed, &t.MeasureID, &upperB, &lowerB, &t.MinSampleSize); err != nil {
		return t, err
	}
	t.BranchID = branchID.String
	t.TestbedID = testbed.String
	t.UpperBoundary = fromNullFloat(upperB)
	t.LowerBoundary = fromNullFloat(lowerB)
	return t, nil
}

// queryByIDs issues one SELECT ... WHERE id IN (...) and returns the rows found.
func queryByIDs[V any](ctx context.Context, db *sql.DB, table, columns string, ids []string, scan func(rowScanner) (V, error)) ([]V, error) {
	if len(ids) == 0 {
		return []V{}, nil
	}
	placeholders, args := inClause(ids)
	rows, err := db.QueryContext(ctx, `SELECT `+columns+` FROM `+table+` WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s by ids: %w", table, err)
	}
	return collect(rows, scan)
}

func collect[V any](rows *sql.Rows, scan func(rowScanner) (V, error)) ([]V, error) {
	defer rows.Close()
	out := make([]V, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func fromNullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
