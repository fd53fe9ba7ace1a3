// Package config defines the pipeline configuration file format and its
// validation. The file is plain JSON; every section that used to be a
// hardcoded constant in the legacy datamart job (date window, department
// seed sets, attribution anchor, display labels) is configurable here, with
// defaults that reproduce the legacy values exactly.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Pipeline is the root configuration object.
type Pipeline struct {
	Job         string      `json:"job"`
	Source      Source      `json:"source"`
	Staging     Staging     `json:"staging"`
	Storage     Storage     `json:"storage"`
	Window      Window      `json:"window"`
	Attribution Attribution `json:"attribution"`
	Departments Departments `json:"departments"`
	Labels      Labels      `json:"labels"`
}

// Source selects the operational-store backend the extraction reads from.
type Source struct {
	Kind string `json:"kind"` // "mssql" | "sqlite"
	DSN  string `json:"dsn"`
}

// Staging locates the intermediate CSV artifact bridging extract and load.
type Staging struct {
	Dir     string  `json:"dir"`
	Prefix  string  `json:"prefix"`
	Options Options `json:"options"`
}

// Storage selects the analytic destination backend.
type Storage struct {
	Kind  string `json:"kind"` // "postgres" | "sqlite"
	DSN   string `json:"dsn"`
	Table string `json:"table"`
}

// Window is the extraction date window: Start inclusive, End exclusive,
// both formatted YYYY-MM-DD.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Range parses the window bounds.
func (w Window) Range() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", w.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("window.start: %w", err)
	}
	end, err = time.Parse("2006-01-02", w.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("window.end: %w", err)
	}
	return start, end, nil
}

// Attribution holds the anchor the changed-realization branch keys on: a
// shipment is only re-attributed when its department descends from this root.
type Attribution struct {
	RootDepartmentID int64 `json:"root_department_id"`
}

// Departments defines the two disjoint seed sets of the organizational
// forest plus the ids emitted as a synthetic top level.
type Departments struct {
	// SeedSetAParents: closure A starts from the direct children of these ids.
	SeedSetAParents []int64 `json:"seed_set_a_parents"`
	// SeedSetBRoots: closure B starts from these ids themselves.
	SeedSetBRoots []int64 `json:"seed_set_b_roots"`
	// SyntheticTopIDs are emitted as their own single-level hierarchy rows.
	SyntheticTopIDs []int64 `json:"synthetic_top_ids"`
}

// Labels carries the human-facing strings the datamart emits. Defaults are
// the legacy Russian labels; reports downstream key on them verbatim.
type Labels struct {
	RepresentativeOffices []string `json:"representative_offices"`
	Unknown               string   `json:"unknown"`
	UnknownFeminine       string   `json:"unknown_feminine"`
	RootRepresentatives   string   `json:"root_representatives"`
	RootOffice            string   `json:"root_office"`
}

// Defaults reproducing the legacy job's constants.
var (
	defaultSeedSetAParents = []int64{2831576, 2831586, 42561, 42560, 2124383, 2743029, 2743027}
	defaultSeedSetBRoots   = []int64{2831542, 2831543, 59044, 2743041, 2831574, 2831602, 2831609, 2831612, 3081821}
	defaultSyntheticTopIDs = []int64{2831576, 2831586, 2831572, 42561, 42560, 2124383, 2743029, 2743027}
	defaultRepOffices      = []string{"Представители Киров", "Представители Ижевск", "Рефералы"}
)

const (
	defaultWindowStart     = "2025-01-01"
	defaultWindowEnd       = "2025-08-01"
	defaultAttributionRoot = 59041
	defaultTable           = "rop_sales"
	defaultStagingDir      = "/tmp/salesmart"
	defaultStagingPrefix   = "vitrina_sales"
	defaultUnknown         = "Не известен"
	defaultUnknownFeminine = "Не известна"
	defaultRootReps        = "Представители"
	defaultRootOffice      = "Офис"
)

// ApplyDefaults fills every omitted section with the legacy constants, so a
// minimal config only needs source and storage DSNs.
func (p *Pipeline) ApplyDefaults() {
	if p.Job == "" {
		p.Job = "salesmart"
	}
	if p.Staging.Dir == "" {
		p.Staging.Dir = defaultStagingDir
	}
	if p.Staging.Prefix == "" {
		p.Staging.Prefix = defaultStagingPrefix
	}
	if p.Storage.Table == "" {
		p.Storage.Table = defaultTable
	}
	if p.Window.Start == "" {
		p.Window.Start = defaultWindowStart
	}
	if p.Window.End == "" {
		p.Window.End = defaultWindowEnd
	}
	if p.Attribution.RootDepartmentID == 0 {
		p.Attribution.RootDepartmentID = defaultAttributionRoot
	}
	if len(p.Departments.SeedSetAParents) == 0 {
		p.Departments.SeedSetAParents = append([]int64(nil), defaultSeedSetAParents...)
	}
	if len(p.Departments.SeedSetBRoots) == 0 {
		p.Departments.SeedSetBRoots = append([]int64(nil), defaultSeedSetBRoots...)
	}
	if len(p.Departments.SyntheticTopIDs) == 0 {
		p.Departments.SyntheticTopIDs = append([]int64(nil), defaultSyntheticTopIDs...)
	}
	if len(p.Labels.RepresentativeOffices) == 0 {
		p.Labels.RepresentativeOffices = append([]string(nil), defaultRepOffices...)
	}
	if p.Labels.Unknown == "" {
		p.Labels.Unknown = defaultUnknown
	}
	if p.Labels.UnknownFeminine == "" {
		p.Labels.UnknownFeminine = defaultUnknownFeminine
	}
	if p.Labels.RootRepresentatives == "" {
		p.Labels.RootRepresentatives = defaultRootReps
	}
	if p.Labels.RootOffice == "" {
		p.Labels.RootOffice = defaultRootOffice
	}
}

// Load reads, decodes and default-fills a pipeline config file.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var p Pipeline
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	p.ApplyDefaults()
	return p, nil
}
