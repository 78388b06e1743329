package domain

// EventKind tags an Event.
type EventKind string

const (
	EventDownloadProgress EventKind = "download-progress"
	EventUpdateProgress   EventKind = "update-progress"
	EventUpdateFinished   EventKind = "update-finished"
)

// Event is a fire-and-forget notification for observers. JobID is set only
// for download progress.
type Event struct {
	Kind    EventKind `json:"kind"`
	JobID   string    `json:"job_id,omitempty"`
	Percent uint8     `json:"percent"`
}

func DownloadProgress(jobID string, percent uint8) Event {
	return Event{Kind: EventDownloadProgress, JobID: jobID, Percent: percent}
}

func UpdateProgress(percent uint8) Event {
	return Event{Kind: EventUpdateProgress, Percent: percent}
}

func UpdateFinished() Event {
	return Event{Kind: EventUpdateFinished, Percent: 100}
}
