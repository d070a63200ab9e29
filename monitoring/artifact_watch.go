package monitoring

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ArtifactWatcher logs a warning whenever a loaded model artifact changes on
// disk. Loaded models are never reloaded; a restart picks up the new files.
type ArtifactWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]struct{}
	logger  *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewArtifactWatcher watches the directories holding paths. Directories are
// watched instead of the files so that atomic replaces are still seen.
func NewArtifactWatcher(paths []string, logger *zap.Logger) (*ArtifactWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create artifact watcher")
	}

	aw := &ArtifactWatcher{
		watcher: watcher,
		files:   make(map[string]struct{}, len(paths)),
		logger:  logger,
		done:    make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, errors.Wrapf(err, "resolve %s", p)
		}
		aw.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, errors.Wrapf(err, "watch %s", dir)
		}
	}
	return aw, nil
}

// Start consumes filesystem events until ctx is done or Close is called.
func (aw *ArtifactWatcher) Start(ctx context.Context) {
	go aw.loop(ctx)
}

func (aw *ArtifactWatcher) loop(ctx context.Context) {
	defer close(aw.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-aw.watcher.Events:
			if !ok {
				return
			}
			aw.handle(event)
		case err, ok := <-aw.watcher.Errors:
			if !ok {
				return
			}
			aw.logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}

func (aw *ArtifactWatcher) handle(event fsnotify.Event) {
	if _, ok := aw.files[filepath.Clean(event.Name)]; !ok {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	aw.logger.Warn("model artifact changed on disk; restart to load it",
		zap.String("path", event.Name),
		zap.String("op", event.Op.String()),
	)
}

// Close stops the watcher and waits for the event loop to exit if it was
// started.
func (aw *ArtifactWatcher) Close() error {
	var err error
	aw.closeOnce.Do(func() {
		err = aw.watcher.Close()
	})
	return err
}

// Done is closed once the event loop has exited.
func (aw *ArtifactWatcher) Done() <-chan struct{} {
	return aw.done
}
