package repofake

import (
	"context"
	"sort"
	"sync"

	"github.com/alexchoi0/driftwatch/benchmarks"
	apperrors "github.com/alexchoi0/driftwatch/internal/errors"
)

var _ benchmarks.Repo = (*FakeBenchmarkRepo)(nil)

// Fetch records one bulk read issued against the fake.
type Fetch struct {
	Kind string
	IDs  []string
}

type FakeBenchmarkRepo struct {
	Projects   map[string]benchmarks.Project // slug to project
	Branches   map[string]benchmarks.Branch
	Testbeds   map[string]benchmarks.Testbed
	Benchmarks map[string]benchmarks.Benchmark
	Measures   map[string]benchmarks.Measure
	Metrics    map[string]benchmarks.Metric
	Thresholds map[string]benchmarks.Threshold

	// Err, when set, is returned by every bulk read.
	Err error

	fetches []Fetch
	lock    sync.Mutex
}

func NewFakeBenchmarkRepo() *FakeBenchmarkRepo {
	return &FakeBenchmarkRepo{
		Projects:   make(map[string]benchmarks.Project),
		Branches:   make(map[string]benchmarks.Branch),
		Testbeds:   make(map[string]benchmarks.Testbed),
		Benchmarks: make(map[string]benchmarks.Benchmark),
		Measures:   make(map[string]benchmarks.Measure),
		Metrics:    make(map[string]benchmarks.Metric),
		Thresholds: make(map[string]benchmarks.Threshold),
	}
}

// Fetches returns the bulk reads issued so far.
func (r *FakeBenchmarkRepo) Fetches() []Fetch {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Fetch(nil), r.fetches...)
}

func (r *FakeBenchmarkRepo) record(kind string, ids []string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	r.fetches = append(r.fetches, Fetch{Kind: kind, IDs: sorted})
	return r.Err
}

func (r *FakeBenchmarkRepo) ProjectBySlug(_ context.Context, slug string) (*benchmarks.Project, error) {
	p, ok := r.Projects[slug]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (r *FakeBenchmarkRepo) ThresholdsByProject(_ context.Context, projectID string) ([]benchmarks.Threshold, error) {
	out := make([]benchmarks.Threshold, 0)
	for _, t := range r.Thresholds {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *FakeBenchmarkRepo) BranchesByIDs(_ context.Context, ids []string) ([]benchmarks.Branch, error) {
	if err := r.record("branch", ids); err != nil {
		return nil, err
	}
	return pick(r.Branches, ids), nil
}

func (r *FakeBenchmarkRepo) TestbedsByIDs(_ context.Context, ids []string) ([]benchmarks.Testbed, error) {
	if err := r.record("testbed", ids); err != nil {
		return nil, err
	}
	return pick(r.Testbeds, ids), nil
}

func (r *FakeBenchmarkRepo) BenchmarksByIDs(_ context.Context, ids []string) ([]benchmarks.Benchmark, error) {
	if err := r.record("benchmark", ids); err != nil {
		return nil, err
	}
	return pick(r.Benchmarks, ids), nil
}

func (r *FakeBenchmarkRepo) MeasuresByIDs(_ context.Context, ids []string) ([]benchmarks.Measure, error) {
	if err := r.record("measure", ids); err != nil {
		return nil, err
	}
	return pick(r.Measures, ids), nil
}

func (r *FakeBenchmarkRepo) MetricsByIDs(_ context.Context, ids []string) ([]benchmarks.Metric, error) {
	if err := r.record("metric", ids); err != nil {
		return nil, err
	}
	return pick(r.Metrics, ids), nil
}

func (r *FakeBenchmarkRepo) ThresholdsByIDs(_ context.Context, ids []string) ([]benchmarks.Threshold, error) {
	if err := r.record("threshold", ids); err != nil {
		return nil, err
	}
	return pick(r.Thresholds, ids), nil
}

func pick[V any](rows map[string]V, ids []string) []V {
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		if v, ok := rows[id]; ok {
			out = append(out, v)
		}
	}
	return out
}
