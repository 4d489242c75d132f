package ui

import "github.com/pkarhu/ferry/internal/event"

// Event is re-exported so presenter signatures stay short.
type Event = event.Event

// Re-export event types for convenience.
const (
	ScanStarted   = event.ScanStarted
	ScanComplete  = event.ScanComplete
	FileStarted   = event.FileStarted
	FileProgress  = event.FileProgress
	FileCompleted = event.FileCompleted
	FileFailed    = event.FileFailed
	FileSkipped   = event.FileSkipped
	DirCreated    = event.DirCreated
	VerifyStarted = event.VerifyStarted
	VerifyOK      = event.VerifyOK
	VerifyFailed  = event.VerifyFailed
)
