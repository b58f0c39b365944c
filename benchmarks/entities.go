// Package benchmarks defines the tracked entities the request-scoped loaders
// resolve by ID. Creation and alerting live outside this package.
package benchmarks

import (
	"context"
	"time"
)

type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Public      bool      `json:"public"`
	CreatedAt   time.Time `json:"created_at"`
}

type Branch struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

type Testbed struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

type Benchmark struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

type Measure struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Units     string `json:"units,omitempty"`
}

type Metric struct {
	ID          string   `json:"id"`
	ReportID    string   `json:"report_id"`
	BenchmarkID string   `json:"benchmark_id"`
	MeasureID   string   `json:"measure_id"`
	Value       float64  `json:"value"`
	LowerValue  *float64 `json:"lower_value,omitempty"`
	UpperValue  *float64 `json:"upper_value,omitempty"`
}

// Threshold bounds a measure, optionally narrowed to one branch and testbed.
type Threshold struct {
	ID            string   `json:"id"`
	ProjectID     string   `json:"project_id"`
	BranchID      string   `json:"branch_id,omitempty"`
	TestbedID     string   `json:"testbed_id,omitempty"`
	MeasureID     string   `json:"measure_id"`
	UpperBoundary *float64 `json:"upper_boundary,omitempty"`
	LowerBoundary *float64 `json:"lower_boundary,omitempty"`
	MinSampleSize int      `json:"min_sample_size"`
}

// Repo is the read side of benchmark storage. The *ByIDs methods return only
// the rows that exist, in no particular order.
type Repo interface {
	ProjectBySlug(ctx context.Context, slug string) (*Project, error)
	ThresholdsByProject(ctx context.Context, projectID string) ([]Threshold, error)

	BranchesByIDs(ctx context.Context, ids []string) ([]Branch, error)
	TestbedsByIDs(ctx context.Context, ids []string) ([]Testbed, error)
	BenchmarksByIDs(ctx context.Context, ids []string) ([]Benchmark, error)
	MeasuresByIDs(ctx context.Context, ids []string) ([]Measure, error)
	MetricsByIDs(ctx context.Context, ids []string) ([]Metric, error)
	ThresholdsByIDs(ctx context.Context, ids []string) ([]Threshold, error)
}
