package domain

import "errors"

// Link intake.
var (
	ErrAlreadyAdded  = errors.New("link already added")
	ErrNoValidLink   = errors.New("no valid link found")
	ErrClipboardRead = errors.New("could not read clipboard")
)

// Metadata retrieval.
var (
	ErrRetrievalFailed = errors.New("metadata retrieval failed")
	ErrParsingFailed   = errors.New("metadata parsing failed")
	ErrMissingFields   = errors.New("metadata is missing fields")
)

// Self-update.
var (
	ErrCheckFailed              = errors.New("update check failed")
	ErrBuildFailed              = errors.New("could not build updater")
	ErrDownloadAndInstallFailed = errors.New("update download and install failed")
)

var (
	ErrUTF8Conversion     = errors.New("output is not valid UTF-8")
	ErrUnsupportedOS      = errors.New("unsupported operating system")
	ErrProcessSpawnFailed = errors.New("failed to spawn process")
	ErrOutputDir          = errors.New("output directory unavailable")

	ErrJobNotFound    = errors.New("job not found")
	ErrRunNotFound    = errors.New("run not found")
	ErrAlreadyRunning = errors.New("job is already running")
	ErrQueueFull      = errors.New("work queue is full")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrAlreadyAdded, "AlreadyAdded"},
	{ErrNoValidLink, "NoValidLink"},
	{ErrClipboardRead, "ClipboardRead"},
	{ErrRetrievalFailed, "RetreivalFailed"},
	{ErrParsingFailed, "ParsingFailed"},
	{ErrMissingFields, "MissingFields"},
	{ErrCheckFailed, "CheckFailed"},
	{ErrBuildFailed, "BuildFailed"},
	{ErrDownloadAndInstallFailed, "DownloadAndInstallFailed"},
	{ErrUTF8Conversion, "Utf8Conversion"},
	{ErrUnsupportedOS, "UnsupportedOs"},
	{ErrProcessSpawnFailed, "ProcessSpawnFailed"},
	{ErrOutputDir, "OutputDir"},
	{ErrJobNotFound, "JobNotFound"},
	{ErrRunNotFound, "RunNotFound"},
	{ErrAlreadyRunning, "AlreadyRunning"},
	{ErrQueueFull, "QueueFull"},
}

// Kind returns the wire name of the first known error kind in err's chain,
// or "Internal".
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}
