package loaders

import (
	"context"
	"net/http"

	"github.com/alexchoi0/driftwatch/benchmarks"
)

// Loaders holds one loader per entity kind for a single request.
type Loaders struct {
	Branch    *Loader[benchmarks.Branch]
	Testbed   *Loader[benchmarks.Testbed]
	Benchmark *Loader[benchmarks.Benchmark]
	Measure   *Loader[benchmarks.Measure]
	Metric    *Loader[benchmarks.Metric]
	Threshold *Loader[benchmarks.Threshold]
}

// New builds a fresh set of loaders over repo.
func New(repo benchmarks.Repo) *Loaders {
	return &Loaders{
		Branch:    NewLoader("branch", byID(repo.BranchesByIDs, func(b benchmarks.Branch) string { return b.ID })),
		Testbed:   NewLoader("testbed", byID(repo.TestbedsByIDs, func(t benchmarks.Testbed) string { return t.ID })),
		Benchmark: NewLoader("benchmark", byID(repo.BenchmarksByIDs, func(b benchmarks.Benchmark) string { return b.ID })),
		Measure:   NewLoader("measure", byID(repo.MeasuresByIDs, func(m benchmarks.Measure) string { return m.ID })),
		Metric:    NewLoader("metric", byID(repo.MetricsByIDs, func(m benchmarks.Metric) string { return m.ID })),
		Threshold: NewLoader("threshold", byID(repo.ThresholdsByIDs, func(t benchmarks.Threshold) string { return t.ID })),
	}
}

func byID[V any](list func(context.Context, []string) ([]V, error), key func(V) string) BatchFunc[V] {
	return func(ctx context.Context, ids []string) (map[string]V, error) {
		rows, err := list(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[string]V, len(rows))
		for _, r := range rows {
			out[key(r)] = r
		}
		return out, nil
	}
}

type loadersKey struct{}

// WithLoaders stores loaders on the context.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey{}, l)
}

// FromContext returns the loaders installed for the current request.
func FromContext(ctx context.Context) (*Loaders, bool) {
	l, ok := ctx.Value(loadersKey{}).(*Loaders)
	return l, ok && l != nil
}

// Middleware installs a fresh set of loaders on every request.
func Middleware(repo benchmarks.Repo) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			next(w, r.WithContext(WithLoaders(r.Context(), New(repo))))
		}
	}
}
