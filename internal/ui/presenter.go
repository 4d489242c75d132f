package ui

import (
	"io"

	"github.com/pkarhu/ferry/internal/stats"
)

// Presenter renders the event feed for one run.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Summary is the line printed once the run finishes, empty for none.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer     io.Writer
	ErrWriter  io.Writer
	Stats      *stats.Collector
	DstRoot    string
	Width      int // terminal width, 0 for default
	IsTTY      bool
	Quiet      bool
	Verbose    bool
	NoProgress bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	switch {
	case cfg.Quiet:
		return &quietPresenter{}
	case !cfg.IsTTY || cfg.NoProgress:
		return &plainPresenter{
			w:         cfg.Writer,
			errW:      cfg.ErrWriter,
			collector: cfg.Stats,
			root:      cfg.DstRoot,
			verbose:   cfg.Verbose,
		}
	default:
		return &progressPresenter{
			w:         cfg.ErrWriter, // progress renders to stderr (the TTY)
			collector: cfg.Stats,
			root:      cfg.DstRoot,
			width:     cfg.Width,
			verbose:   cfg.Verbose,
		}
	}
}
