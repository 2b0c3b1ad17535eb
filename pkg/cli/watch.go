package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/manifestcheck/manifestcheck/pkg/console"
)

const debounceDelay = 300 * time.Millisecond

// WatchCommand watches a directory tree and revalidates manifests as they
// change. Events are debounced so editors that write in bursts trigger a
// single validation pass.
func WatchCommand(dir string, opts Options) error {
	if dir == "" {
		dir = "."
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, dir); err != nil {
		return err
	}

	fmt.Println(console.FormatLocationMessage(fmt.Sprintf("Watching for manifest changes in %s...", dir)))
	if opts.Verbose {
		fmt.Println("Press Ctrl+C to stop watching.")
	}

	// Validate everything once up front so the first feedback does not wait
	// for an edit.
	if _, err := ValidateCommand([]string{dir}, opts); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(fmt.Sprintf("initial validation failed: %v", err)))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var mu sync.Mutex
	var debounceTimer *time.Timer
	pending := make(map[string]struct{})

	flush := func() {
		mu.Lock()
		files := make([]string, 0, len(pending))
		for f := range pending {
			files = append(files, f)
		}
		pending = make(map[string]struct{})
		mu.Unlock()

		if len(files) == 0 {
			return
		}
		if _, err := ValidateCommand(files, opts); err != nil {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		}
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case event.Has(fsnotify.Remove):
				// Nothing to revalidate for deleted files.
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				if event.Has(fsnotify.Create) && watchNewDir(watcher, event.Name) {
					continue
				}
				if !hasManifestExtension(event.Name) {
					continue
				}
				mu.Lock()
				pending[event.Name] = struct{}{}
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, flush)
				mu.Unlock()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, console.FormatWarningMessage(fmt.Sprintf("watch error: %v", err)))
		case <-sigChan:
			fmt.Println()
			fmt.Println(console.FormatInfoMessage("stopped watching"))
			return nil
		}
	}
}

// watchNewDir registers a directory that appeared after the watcher started,
// so manifests created inside it are picked up. It reports whether name is a
// directory; hidden directories count as handled but are not watched.
func watchNewDir(watcher *fsnotify.Watcher, name string) bool {
	info, err := os.Stat(name)
	if err != nil || !info.IsDir() {
		return false
	}
	if strings.HasPrefix(filepath.Base(name), ".") {
		return true
	}
	if err := addWatchDirs(watcher, name); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatWarningMessage(fmt.Sprintf("watch error: %v", err)))
	}
	return true
}

// addWatchDirs registers dir and its non-hidden subdirectories.
func addWatchDirs(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); name != "." && name != dir && len(name) > 1 && name[0] == '.' {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
}
