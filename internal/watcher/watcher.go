// Package watcher turns foreground-app changes into resolver calls. It
// replaces the background service that listens for task-stack changes.
package watcher

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"thermalctl/internal/logging"
)

// Handler receives foreground package changes. *thermal.Resolver
// implements it.
type Handler interface {
	OnForegroundPackageChanged(pkg string) error
}

// Source reports the package currently in the foreground.
type Source interface {
	Foreground(ctx context.Context) (string, error)
}

// DefaultInterval is the polling period used when none is configured.
const DefaultInterval = 2 * time.Second

// Watcher polls a Source and forwards changes to a Handler.
type Watcher struct {
	src      Source
	handler  Handler
	interval time.Duration
	last     string
	log      zerolog.Logger
}

// New creates a Watcher. A non-positive interval means DefaultInterval.
func New(src Source, h Handler, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		src:      src,
		handler:  h,
		interval: interval,
		log:      logging.With("watcher"),
	}
}

// Run polls until ctx is cancelled. Source and handler failures are logged
// and polling continues.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.Poll(ctx); err != nil && ctx.Err() == nil {
			w.log.Warn().Err(err).Msg("poll failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll queries the source once and notifies the handler if the foreground
// package changed since the last successful notification.
func (w *Watcher) Poll(ctx context.Context) error {
	pkg, err := w.src.Foreground(ctx)
	if err != nil {
		return err
	}
	if pkg == "" || pkg == w.last {
		return nil
	}
	w.log.Debug().Str("pkg", pkg).Msg("foreground changed")
	if err := w.handler.OnForegroundPackageChanged(pkg); err != nil {
		return err
	}
	w.last = pkg
	return nil
}

// Lines feeds one package name per line from r to h. Blank lines and lines
// starting with '#' are skipped. Handler errors are logged; reading stops at
// EOF, on a read error or when ctx is cancelled.
func Lines(ctx context.Context, r io.Reader, h Handler) error {
	log := logging.With("watcher")

	// The scanning goroutine stays blocked in Read until r returns; on cancel
	// Lines returns without waiting for it.
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r)
		defer func() {
			errc <- sc.Err()
			close(lines)
		}()
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-lines:
			if !ok {
				if err := <-errc; err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				return nil
			}
			line := strings.TrimSpace(raw)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if err := h.OnForegroundPackageChanged(line); err != nil {
				log.Warn().Err(err).Str("pkg", line).Msg("apply failed")
			}
		}
	}
}
