package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultLinkPrefix is the canonical prefix accepted by link intake.
const DefaultLinkPrefix = "https://www.youtube.com/"

// LinkIntake validates candidate links and creates jobs for them. The prefix
// check is a fast filter; malformed URLs are caught by metadata retrieval.
type LinkIntake struct {
	store  *JobStore
	prefix string
	now    func() time.Time
}

// NewLinkIntake creates an intake accepting links that start with prefix.
// An empty prefix means DefaultLinkPrefix.
func NewLinkIntake(store *JobStore, prefix string) *LinkIntake {
	if prefix == "" {
		prefix = DefaultLinkPrefix
	}
	return &LinkIntake{store: store, prefix: prefix, now: time.Now}
}

// TryAdd adds candidate as a new idle job. readErr is the error from the link
// source, if any. On success it returns the URL and a snapshot of all jobs.
func (in *LinkIntake) TryAdd(candidate string, readErr error) (string, []Job, error) {
	if readErr != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrClipboardRead, readErr)
	}

	url := strings.TrimSpace(candidate)
	if !strings.HasPrefix(url, in.prefix) {
		return "", nil, ErrNoValidLink
	}

	job := Job{
		URL:      url,
		Metadata: Metadata{URL: url},
		State:    Idle(),
		AddedAt:  in.now(),
	}

	jobs, ok := in.store.Insert(job)
	if !ok {
		return "", nil, ErrAlreadyAdded
	}
	return url, jobs, nil
}

// AddFrom reads a candidate from src and adds it.
func (in *LinkIntake) AddFrom(ctx context.Context, src LinkSource) (string, []Job, error) {
	text, err := src.ReadText(ctx)
	return in.TryAdd(text, err)
}
