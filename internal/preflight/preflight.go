package preflight

import (
	"context"
	"fmt"
	"strings"

	"omnisync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Service checks only run for capabilities with a configured URL.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckModelFile("Model weights", cfg.Paths.ModelPath),
	}
	for _, st := range CheckSystemDeps(cfg) {
		if st.Optional {
			continue
		}
		r := Result{Name: st.Name, Passed: st.Available, Detail: st.Command}
		if !st.Available {
			r.Detail = st.Detail
		}
		results = append(results, r)
	}
	if strings.TrimSpace(cfg.Detector.URL) != "" {
		results = append(results, CheckService(ctx, "Face detector", cfg.Detector.URL))
	}
	if strings.TrimSpace(cfg.Predictor.URL) != "" {
		results = append(results, CheckService(ctx, "Predictor", cfg.Predictor.URL))
	}
	return results
}

// Failures returns the checks that did not pass.
func Failures(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// Summary joins failed checks into one line.
func Summary(failures []Result) string {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Name, f.Detail))
	}
	return strings.Join(parts, "; ")
}
