package domain

import (
	"fmt"
	"sync"
	"testing"
)

func TestJobStore_Insert(t *testing.T) {
	s := NewJobStore()

	if _, ok := s.Insert(Job{URL: "https://a"}); !ok {
		t.Fatal("Insert() first = false, want true")
	}
	if _, ok := s.Insert(Job{URL: "https://a"}); ok {
		t.Error("Insert() duplicate = true, want false")
	}
	jobs, ok := s.Insert(Job{URL: "https://b"})
	if !ok {
		t.Fatal("Insert() second = false, want true")
	}

	if len(jobs) != 2 {
		t.Fatalf("Insert() snapshot len = %d, want 2", len(jobs))
	}
	if jobs[0].URL != "https://b" || jobs[1].URL != "https://a" {
		t.Errorf("snapshot order = [%s %s], want newest first", jobs[0].URL, jobs[1].URL)
	}
}

func TestJobStore_UpdateState_UnknownKey(t *testing.T) {
	s := NewJobStore()
	s.Insert(Job{URL: "https://a"})

	if s.UpdateState("missing", Finished()) {
		t.Error("UpdateState() on unknown key = true, want false")
	}
	job, _ := s.Find("https://a")
	if job.State != (State{}) {
		t.Errorf("unrelated job state changed to %+v", job.State)
	}
}

func TestJobStore_UpdateState_IgnoresBackwardsProgress(t *testing.T) {
	s := NewJobStore()
	s.Insert(Job{URL: "https://a", State: Idle()})

	s.UpdateState("https://a", Loading(45))
	s.UpdateState("https://a", Loading(10))

	job, _ := s.Find("https://a")
	if job.State != Loading(45) {
		t.Errorf("State = %+v, want Loading(45)", job.State)
	}
}

func TestJobStore_UpdateMetadata(t *testing.T) {
	s := NewJobStore()
	s.Insert(Job{URL: "https://a"})
	s.SetMetadataLoading("https://a", true)

	job, _ := s.Find("https://a")
	if !job.Metadata.Loading || job.State.Kind != StateMetadataLoading {
		t.Fatalf("after SetMetadataLoading: %+v", job)
	}

	ok := s.UpdateMetadata("https://a", Metadata{ID: "abc", Title: "Song", Loading: true})
	if !ok {
		t.Fatal("UpdateMetadata() = false, want true")
	}

	job, found := s.Find("abc")
	if !found {
		t.Fatal("Find(id) after metadata = not found")
	}
	if job.ID != "abc" || job.Metadata.Title != "Song" || job.Metadata.URL != "https://a" {
		t.Errorf("job = %+v", job)
	}
	if job.Metadata.Loading {
		t.Error("Metadata.Loading = true, want false")
	}
	if job.State.Kind != StateIdle {
		t.Errorf("State = %v, want idle", job.State.Kind)
	}

	if s.UpdateMetadata("https://missing", Metadata{ID: "x"}) {
		t.Error("UpdateMetadata() unknown url = true, want false")
	}
}

func TestJobStore_ListIsSnapshot(t *testing.T) {
	s := NewJobStore()
	s.Insert(Job{URL: "https://a"})

	jobs := s.List()
	jobs[0].URL = "mutated"

	if _, ok := s.Find("https://a"); !ok {
		t.Error("mutating snapshot changed the store")
	}
}

func TestJobStore_Clear(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("%d jobs", n), func(t *testing.T) {
			s := NewJobStore()
			for i := 0; i < n; i++ {
				s.Insert(Job{URL: fmt.Sprintf("https://%d", i)})
			}
			s.Clear()
			if got := s.List(); len(got) != 0 {
				t.Errorf("List() after Clear() len = %d, want 0", len(got))
			}
			s.Clear()
			if s.Len() != 0 {
				t.Errorf("Len() after second Clear() = %d", s.Len())
			}
		})
	}
}

func TestJobStore_BeginRun(t *testing.T) {
	s := NewJobStore()
	s.Insert(Job{URL: "https://a", State: Finished()})

	if !s.BeginRun("https://a") {
		t.Fatal("BeginRun() = false, want true")
	}
	job, _ := s.Find("https://a")
	if job.State != Loading(0) {
		t.Errorf("State after BeginRun = %+v, want Loading(0)", job.State)
	}
	if s.BeginRun("https://a") {
		t.Error("second BeginRun() = true, want false")
	}
	if !s.Running("https://a") {
		t.Error("Running() = false during run")
	}

	s.UpdateMetadata("https://a", Metadata{ID: "abc"})
	if !s.Running("abc") {
		t.Error("Running(id) = false after metadata arrived mid-run")
	}
	if s.BeginRun("https://a") {
		t.Error("BeginRun() after id change = true, want false")
	}

	s.EndRun("https://a")
	if s.Running("https://a") || s.Running("abc") {
		t.Error("Running() = true after EndRun")
	}
	if !s.BeginRun("https://a") {
		t.Error("BeginRun() after EndRun = false, want true")
	}
}

func TestJobStore_ConcurrentAccess(t *testing.T) {
	s := NewJobStore()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url := fmt.Sprintf("https://%d", i%5)
			s.Insert(Job{URL: url})
			for p := uint8(0); p <= 100; p += 10 {
				s.UpdateState(url, Loading(p))
			}
			_ = s.List()
		}(i)
	}
	wg.Wait()

	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5 distinct URLs", s.Len())
	}
}
