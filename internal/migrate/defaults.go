package migrate

import "github.com/roach88/jobstate/internal/state"

// Default returns the registry of every migration this build knows about.
func Default() *Registry {
	r := &Registry{}
	if err := r.Register(Migration{
		From:      state.LegacySchemaVersion,
		To:        state.SchemaVersion,
		Transform: v090to100,
	}); err != nil {
		panic(err)
	}
	return r
}

// v090to100 upgrades pre-release records:
//   - ui is created when missing; isLoading is always reset to false
//   - jobs and each job's jobMaterials/uploads become arrays when null or missing
//   - the legacy per-job "materials" key is renamed to "jobMaterials"
//   - a missing currentJob becomes null
func v090to100(raw map[string]any) (map[string]any, error) {
	ui, _ := raw["ui"].(map[string]any)
	if ui == nil {
		ui = map[string]any{}
	}
	ui["isLoading"] = false
	raw["ui"] = ui

	jobs, _ := raw["jobs"].([]any)
	if jobs == nil {
		jobs = []any{}
	}
	for _, j := range jobs {
		if job, ok := j.(map[string]any); ok {
			upgradeJob(job)
		}
	}
	raw["jobs"] = jobs

	if cj, ok := raw["currentJob"].(map[string]any); ok {
		upgradeJob(cj)
	} else {
		raw["currentJob"] = nil
	}
	return raw, nil
}

func upgradeJob(job map[string]any) {
	if legacy, ok := job["materials"]; ok {
		if _, has := job["jobMaterials"]; !has {
			job["jobMaterials"] = legacy
		}
		delete(job, "materials")
	}
	for _, k := range []string{"jobMaterials", "uploads"} {
		if _, ok := job[k].([]any); !ok {
			job[k] = []any{}
		}
	}
}
