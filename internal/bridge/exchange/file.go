package exchange

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/autopeer-io/efls/internal/bridge/core"
	"github.com/autopeer-io/efls/pkg/log"
)

var (
	_ core.ExchangeChannel = (*File)(nil)
	_ core.ChangeNotifier  = (*File)(nil)
)

// File exchanges messages through two files on a shared filesystem.
type File struct {
	inbound  string
	outbound string

	changes chan struct{}
}

// NewFile returns a channel reading plans from inbound and writing telemetry
// to outbound.
func NewFile(inbound, outbound string) *File {
	return &File{
		inbound:  inbound,
		outbound: outbound,
		changes:  make(chan struct{}, 1),
	}
}

// WriteOutbound atomically replaces the outbound file.
func (f *File) WriteOutbound(ctx context.Context, snap core.TelemetrySnapshot) error {
	payload, err := MarshalTelemetry(snap)
	if err != nil {
		return fmt.Errorf("failed to encode telemetry: %w", err)
	}

	dir := filepath.Dir(f.outbound)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.outbound)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrChannelUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", core.ErrChannelUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrChannelUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), f.outbound); err != nil {
		return fmt.Errorf("%w: %w", core.ErrChannelUnavailable, err)
	}
	return nil
}

// ReadInbound decodes the inbound file. A missing or empty file, or one whose
// groups carry no points, yields a nil plan.
func (f *File) ReadInbound(ctx context.Context) (*core.LandingPlan, error) {
	b, err := os.ReadFile(f.inbound)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrChannelUnavailable, err)
	}
	return decodeInbound(b)
}

// ClearInbound truncates the inbound file.
func (f *File) ClearInbound(ctx context.Context) error {
	err := os.Truncate(f.inbound, 0)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", core.ErrChannelUnavailable, err)
	}
	return nil
}

// Changes signals writes to the inbound file while Start is running.
// Signals are coalesced.
func (f *File) Changes() <-chan struct{} {
	return f.changes
}

// Start watches the directory of the inbound file until ctx is done. If the
// directory cannot be watched the channel still works by polling on ticks.
func (f *File) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create inbound watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(f.inbound)
	if err := watcher.Add(dir); err != nil {
		log.Warn("Inbound watch unavailable, relying on ticks", "dir", dir, "error", err)
		<-ctx.Done()
		return nil
	}
	log.Info("Watching inbound exchange file", "path", f.inbound)

	name := filepath.Clean(f.inbound)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			select {
			case f.changes <- struct{}{}:
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(err, "Inbound watcher error", "path", f.inbound)
		}
	}
}

func decodeInbound(b []byte) (*core.LandingPlan, error) {
	if len(b) == 0 {
		return nil, nil
	}
	plan, err := UnmarshalPlan(b)
	if err != nil {
		return nil, err
	}
	if plan.Empty() {
		return nil, nil
	}
	return plan, nil
}
