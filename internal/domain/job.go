package domain

import "time"

// StateKind names a stage in a job's download lifecycle.
type StateKind string

const (
	StateIdle            StateKind = "idle"
	StateMetadataLoading StateKind = "metadata_loading"
	StateLoading         StateKind = "loading"
	StateFinished        StateKind = "finished"
	StateFailure         StateKind = "failure"
)

// State is a job's current lifecycle state. Percent is only meaningful for
// StateLoading.
type State struct {
	Kind    StateKind `json:"kind"`
	Percent uint8     `json:"percent"`
}

func Idle() State            { return State{Kind: StateIdle} }
func MetadataLoading() State { return State{Kind: StateMetadataLoading} }
func Finished() State        { return State{Kind: StateFinished} }
func Failure() State         { return State{Kind: StateFailure} }

// Loading returns a loading state, clamping percent to 100.
func Loading(percent uint8) State {
	if percent > 100 {
		percent = 100
	}
	return State{Kind: StateLoading, Percent: percent}
}

// Accepts reports whether next may replace s. Progress inside one run never
// goes backwards; every other transition is left to the caller.
func (s State) Accepts(next State) bool {
	if s.Kind == StateLoading && next.Kind == StateLoading {
		return next.Percent >= s.Percent
	}
	return true
}

// Metadata describes the media behind a URL.
type Metadata struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	Thumbnail string `json:"thumbnail"`
	Loading   bool   `json:"loading"`
}

// Job is one user-requested download.
type Job struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Metadata Metadata  `json:"metadata"`
	State    State     `json:"state"`
	AddedAt  time.Time `json:"added_at"`
}

// Key identifies the job: its id once metadata is known, its URL before.
func (j *Job) Key() string {
	if j.ID != "" {
		return j.ID
	}
	return j.URL
}

// Matches reports whether key names this job by id or by URL.
func (j *Job) Matches(key string) bool {
	return key != "" && (j.ID == key || j.URL == key)
}

// Settings is the subset of user settings the core reads.
type Settings struct {
	OutputDir    string `json:"output_dir" toml:"output_dir"`
	OutputFormat string `json:"output_format" toml:"output_format"`
	DarkTheme    bool   `json:"dark_theme" toml:"dark_theme"`
}

// RunStatus is the outcome of one extraction run.
type RunStatus string

const (
	RunRunning  RunStatus = "running"
	RunFinished RunStatus = "finished"
	RunFailed   RunStatus = "failed"
)

// Run records one extraction attempt for history.
type Run struct {
	ID         string     `json:"id"`
	JobKey     string     `json:"job_key"`
	URL        string     `json:"url"`
	Title      string     `json:"title"`
	Format     string     `json:"format"`
	Status     RunStatus  `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
