package domain

import "context"

// MetadataFetcher is the driven port for metadata retrieval.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, url string) (Metadata, error)
}

// ExtractRequest describes one extraction run.
type ExtractRequest struct {
	JobID        string
	URL          string
	OutputDir    string
	OutputFormat string
}

// Extractor is the driven port for audio extraction. onProgress is called for
// every parsed progress line.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest, onProgress func(percent uint8)) error
}

// LinkSource yields candidate links, typically from the clipboard.
type LinkSource interface {
	ReadText(ctx context.Context) (string, error)
}

// SettingsReader is the read side of the settings collaborator.
type SettingsReader interface {
	Get() Settings
}

// EventSink receives notifications for observers.
type EventSink interface {
	Emit(Event)
}

// RunRepository is the driven port for run history.
type RunRepository interface {
	Begin(ctx context.Context, run *Run) error
	Finish(ctx context.Context, id string, status RunStatus, reason string) error
	Get(ctx context.Context, id string) (*Run, error)
	Recent(ctx context.Context, limit int) ([]Run, error)
	RecoverStale(ctx context.Context) (int64, error)
}
