package domain

import "sync"

// JobStore is the in-memory collection of jobs, newest first. A single mutex
// guards the whole collection; job counts are small.
type JobStore struct {
	mu       sync.Mutex
	jobs     []*Job
	inFlight map[string]struct{}
}

// NewJobStore creates an empty store.
func NewJobStore() *JobStore {
	return &JobStore{inFlight: make(map[string]struct{})}
}

// Insert puts job at the front and returns a snapshot of all jobs. Returns
// false if a job with the same URL exists.
func (s *JobStore) Insert(job Job) ([]Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexByURL(job.URL) >= 0 {
		return nil, false
	}
	j := job
	s.jobs = append([]*Job{&j}, s.jobs...)
	return s.snapshot(), true
}

// Find returns a copy of the job matching key by id or URL.
func (s *JobStore) Find(key string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexByKey(key); i >= 0 {
		return *s.jobs[i], true
	}
	return Job{}, false
}

// UpdateState sets the state of the job matching key. Unknown keys and
// backwards progress are silently ignored; the return value reports whether
// the state was applied.
func (s *JobStore) UpdateState(key string, state State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByKey(key)
	if i < 0 {
		return false
	}
	job := s.jobs[i]
	if !job.State.Accepts(state) {
		return false
	}
	job.State = state
	return true
}

// SetMetadataLoading toggles the metadata loading flag and moves the job into
// or out of StateMetadataLoading.
func (s *JobStore) SetMetadataLoading(key string, loading bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByKey(key)
	if i < 0 {
		return false
	}
	job := s.jobs[i]
	job.Metadata.Loading = loading
	if loading {
		job.State = MetadataLoading()
	} else if job.State.Kind == StateMetadataLoading {
		job.State = Idle()
	}
	return true
}

// UpdateMetadata attaches md to the job with url. The job takes md.ID as its id.
func (s *JobStore) UpdateMetadata(url string, md Metadata) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByURL(url)
	if i < 0 {
		return false
	}
	job := s.jobs[i]
	md.URL = url
	md.Loading = false
	job.Metadata = md
	job.ID = md.ID
	if job.State.Kind == StateMetadataLoading {
		job.State = Idle()
	}
	return true
}

// List returns a snapshot of all jobs, newest first.
func (s *JobStore) List() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Len returns the number of jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Clear removes every job. In-flight runs keep their markers until they end.
func (s *JobStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = nil
}

// BeginRun marks the job with url as having an extraction in flight and
// resets it to Loading(0). Runs are tracked by URL since a job's id changes
// when metadata arrives. Returns false if a run is already in flight.
func (s *JobStore) BeginRun(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inFlight[url]; ok {
		return false
	}
	s.inFlight[url] = struct{}{}
	if i := s.indexByURL(url); i >= 0 {
		s.jobs[i].State = Loading(0)
	}
	return true
}

// EndRun clears the in-flight marker for url.
func (s *JobStore) EndRun(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, url)
}

// Running reports whether the job matching key by id or URL has an
// extraction in flight.
func (s *JobStore) Running(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[key]; ok {
		return true
	}
	if i := s.indexByKey(key); i >= 0 {
		_, ok := s.inFlight[s.jobs[i].URL]
		return ok
	}
	return false
}

func (s *JobStore) snapshot() []Job {
	out := make([]Job, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = *j
	}
	return out
}

func (s *JobStore) indexByURL(url string) int {
	for i, j := range s.jobs {
		if j.URL == url {
			return i
		}
	}
	return -1
}

func (s *JobStore) indexByKey(key string) int {
	for i, j := range s.jobs {
		if j.Matches(key) {
			return i
		}
	}
	return -1
}
