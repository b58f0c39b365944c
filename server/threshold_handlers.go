package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/alexchoi0/driftwatch/benchmarks"
	apperrors "github.com/alexchoi0/driftwatch/internal/errors"
	"github.com/alexchoi0/driftwatch/loaders"
)

// ThresholdView is a threshold with its related names resolved.
type ThresholdView struct {
	benchmarks.Threshold
	Branch  string `json:"branch,omitempty"`
	Testbed string `json:"testbed,omitempty"`
	Measure string `json:"measure,omitempty"`
	Units   string `json:"units,omitempty"`
}

// ThresholdsHandler lists a project's thresholds, resolving branch, testbed
// and measure names with one bulk read per kind (GET /api/projects/{slug}/thresholds)
func (s *Server) ThresholdsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := mustIdentity(w, r)
		if identity == nil {
			return
		}
		ld, ok := loaders.FromContext(r.Context())
		if !ok {
			ld = loaders.New(s.repos.Benchmarks)
		}

		project, err := s.repos.Benchmarks.ProjectBySlug(r.Context(), r.PathValue("slug"))
		if errors.Is(err, apperrors.ErrNotFound) || (err == nil && !canView(identity.User, project.UserID, project.Public)) {
			writeJSONError(w, "not_found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Err(err).Msg("failed to load project")
			writeJSONError(w, "internal_error", http.StatusInternalServerError)
			return
		}

		thresholds, err := s.repos.Benchmarks.ThresholdsByProject(r.Context(), project.ID)
		if err != nil {
			log.Err(err).Msg("failed to list thresholds")
			writeJSONError(w, "internal_error", http.StatusInternalServerError)
			return
		}

		views, err := resolveThresholds(r, ld, thresholds)
		if err != nil {
			log.Err(err).Str("project", project.Slug).Msg("failed to resolve threshold references")
			writeJSONError(w, "internal_error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"project": project, "thresholds": views})
	}
}

func resolveThresholds(r *http.Request, ld *loaders.Loaders, thresholds []benchmarks.Threshold) ([]ThresholdView, error) {
	var branchIDs, testbedIDs, measureIDs []string
	for _, t := range thresholds {
		if t.BranchID != "" {
			branchIDs = append(branchIDs, t.BranchID)
		}
		if t.TestbedID != "" {
			testbedIDs = append(testbedIDs, t.TestbedID)
		}
		measureIDs = append(measureIDs, t.MeasureID)
	}

	ctx := r.Context()
	branches, err := ld.Branch.Load(ctx, branchIDs)
	if err != nil {
		return nil, err
	}
	testbeds, err := ld.Testbed.Load(ctx, testbedIDs)
	if err != nil {
		return nil, err
	}
	measures, err := ld.Measure.Load(ctx, measureIDs)
	if err != nil {
		return nil, err
	}

	views := make([]ThresholdView, 0, len(thresholds))
	for _, t := range thresholds {
		v := ThresholdView{Threshold: t}
		if b, ok := branches[t.BranchID]; ok {
			v.Branch = b.Name
		}
		if tb, ok := testbeds[t.TestbedID]; ok {
			v.Testbed = tb.Name
		}
		if m, ok := measures[t.MeasureID]; ok {
			v.Measure = m.Name
			v.Units = m.Units
		}
		views = append(views, v)
	}
	return views, nil
}
