// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package orchestrator walks file trees, routes each unit through the
// preprocessors and the content scanner, and streams progress events to the
// caller. Traversal is depth-first over name-sorted entries, so results are
// reproducible for a given filesystem snapshot.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"keysweep/internal/artifact"
	"keysweep/internal/observability"
	"keysweep/internal/preprocess"
	"keysweep/internal/resilience"
	"keysweep/internal/scanner"
	"keysweep/internal/store"
)

// Options are the traversal limits and filters, provided by the external
// configuration loader.
type Options struct {
	// MaxFileSize is the per-file ceiling in bytes. Oversized files are
	// skipped whole, never truncated: cutting a buffer risks splitting a seed
	// phrase across the cut point.
	MaxFileSize int64
	// IncludePaths, when non-empty, restricts scanning to paths containing at
	// least one of the substrings. ExcludePaths always wins over includes.
	IncludePaths []string
	ExcludePaths []string
	// Extensions is the allowlist; empty means scan every extension.
	Extensions []string
	// FollowSymlinks is off by default to avoid link cycles.
	FollowSymlinks bool
	// MaxDepth bounds recursion against adversarial directory structures.
	MaxDepth int
	// ReadTimeout bounds a single file read; a stuck network mount becomes a
	// skipped unit instead of a stalled scan.
	ReadTimeout time.Duration
	// MaxWarnings bounds the warning list carried on the result.
	MaxWarnings int
}

// DefaultOptions returns the traversal defaults.
func DefaultOptions() Options {
	return Options{
		MaxFileSize: 50 * 1024 * 1024,
		MaxDepth:    16,
		ReadTimeout: 30 * time.Second,
		MaxWarnings: 100,
	}
}

// Result is the terminal outcome of one scan invocation. On cancellation it
// carries everything discovered up to the stop point.
type Result struct {
	Phase           artifact.Phase
	Root            string
	FilesScanned    int
	TotalFiles      int
	BytesProcessed  int64
	Artifacts       []artifact.Artifact
	Warnings        []artifact.Warning
	WarningsDropped int
	Elapsed         time.Duration
}

// Orchestrator drives one scan session. Traversal state is owned here
// exclusively; artifacts live in the session store.
type Orchestrator struct {
	scanner  *scanner.ContentScanner
	store    *store.Store
	observer *observability.StandardObserver
	opts     Options
}

// New creates an orchestrator bound to a session store.
func New(sc *scanner.ContentScanner, st *store.Store, observer *observability.StandardObserver, opts Options) *Orchestrator {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultOptions().MaxDepth
	}
	if opts.MaxWarnings <= 0 {
		opts.MaxWarnings = DefaultOptions().MaxWarnings
	}
	return &Orchestrator{scanner: sc, store: st, observer: observer, opts: opts}
}

// ScanPath scans the directory tree rooted at root. Progress events are sent
// on events (may be nil) after every file and completed directory.
// Cancellation via ctx is cooperative, checked between files; partial results
// are returned with phase Cancelled, not discarded. Only configuration-level
// faults (bad root) return an error.
func (o *Orchestrator) ScanPath(ctx context.Context, root string, events chan<- artifact.Progress) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %q is a file, directory required", root)
	}

	var finish func(bool, map[string]any)
	if o.observer != nil {
		finish = o.observer.StartTiming("orchestrator", "scan_path", root)
	}

	w := &walk{
		orch:   o,
		ctx:    ctx,
		events: events,
		start:  time.Now(),
	}
	w.total = o.countCandidates(root)
	w.emit(artifact.PhaseStarting, root)

	err = w.dir(root, 0)

	result := &Result{
		Root:            root,
		FilesScanned:    w.files,
		TotalFiles:      w.total,
		BytesProcessed:  w.bytes,
		Artifacts:       o.store.Snapshot(),
		Warnings:        w.warnings,
		WarningsDropped: w.droppedWarnings,
		Elapsed:         time.Since(w.start),
	}

	switch {
	case err != nil && errors.Is(err, context.Canceled):
		result.Phase = artifact.PhaseCancelled
	case err != nil:
		result.Phase = artifact.PhaseFailed
		if finish != nil {
			finish(false, map[string]any{"error": err.Error()})
		}
		return result, err
	default:
		result.Phase = artifact.PhaseCompleted
	}

	if finish != nil {
		finish(true, map[string]any{
			"files":     result.FilesScanned,
			"artifacts": len(result.Artifacts),
			"warnings":  len(result.Warnings),
			"phase":     result.Phase.String(),
		})
	}
	return result, nil
}

// ScanText scans pasted text synchronously. No side effects beyond store
// insertion.
func (o *Orchestrator) ScanText(input string) *Result {
	start := time.Now()
	for _, raw := range o.scanner.ScanDirect(input) {
		o.store.Insert(raw)
	}
	return &Result{
		Phase:          artifact.PhaseCompleted,
		BytesProcessed: int64(len(input)),
		Artifacts:      o.store.Snapshot(),
		Elapsed:        time.Since(start),
	}
}

// walk holds mutable traversal state for one invocation.
type walk struct {
	orch            *Orchestrator
	ctx             context.Context
	events          chan<- artifact.Progress
	start           time.Time
	files           int
	total           int
	bytes           int64
	warnings        []artifact.Warning
	droppedWarnings int
}

func (w *walk) dir(dir string, depth int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directory (permissions, vanished): skip, never fatal.
		w.warn(dir, fmt.Sprintf("cannot read directory: %v", err))
		return nil
	}

	// os.ReadDir sorts by name, which keeps traversal deterministic.
	for _, entry := range entries {
		if err := w.ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, entry.Name())
		if w.orch.excluded(path) {
			continue
		}

		isSymlink := entry.Type()&fs.ModeSymlink != 0
		if isSymlink && !w.orch.opts.FollowSymlinks {
			continue
		}

		isDir := entry.IsDir()
		if isSymlink && w.orch.opts.FollowSymlinks {
			target, err := os.Stat(path)
			if err != nil {
				w.warn(path, fmt.Sprintf("broken symlink: %v", err))
				continue
			}
			isDir = target.IsDir()
		}

		if isDir {
			if depth+1 > w.orch.opts.MaxDepth {
				w.warn(path, fmt.Sprintf("max directory depth %d exceeded", w.orch.opts.MaxDepth))
				continue
			}
			if err := w.dir(path, depth+1); err != nil {
				return err
			}
			continue
		}

		if !w.orch.wanted(path) {
			continue
		}
		w.file(path)
		w.emit(artifact.PhaseScanning, path)
	}

	w.emit(artifact.PhaseScanning, dir)
	return nil
}

func (w *walk) file(path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.warn(path, fmt.Sprintf("cannot stat: %v", err))
		return
	}
	if !info.Mode().IsRegular() {
		return
	}
	if w.orch.opts.MaxFileSize > 0 && info.Size() > w.orch.opts.MaxFileSize {
		w.warn(path, fmt.Sprintf("file size %d exceeds limit %d, skipped", info.Size(), w.orch.opts.MaxFileSize))
		return
	}

	data, err := readFileWithTimeout(w.ctx, path, w.orch.opts.ReadTimeout)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.warn(path, fmt.Sprintf("cannot read: %v", err))
		return
	}

	content, err := preprocess.ForFile(path, data)
	if err != nil {
		w.warn(path, fmt.Sprintf("cannot decode: %v", err))
		return
	}

	// Structured provenance first so field-path sources win deduplication,
	// then extracted text, then the dual-pass over the raw bytes.
	if content.Structured != nil {
		w.insert(w.orch.scanner.ScanStructured(content.Structured, path))
	}
	if content.Text != "" {
		w.insert(w.orch.scanner.ScanFileText(content.Text, path))
	}
	w.insert(w.orch.scanner.ScanBytes(content.Raw, path))

	w.files++
	w.bytes += int64(len(data))
}

func (w *walk) insert(raws []scanner.RawArtifact) {
	for _, raw := range raws {
		w.orch.store.Insert(raw)
	}
}

func (w *walk) warn(path, message string) {
	if len(w.warnings) >= w.orch.opts.MaxWarnings {
		w.droppedWarnings++
		return
	}
	w.warnings = append(w.warnings, artifact.Warning{Path: path, Message: message})
}

func (w *walk) emit(phase artifact.Phase, current string) {
	if w.events == nil {
		return
	}
	p := artifact.Progress{
		Phase:          phase,
		FilesScanned:   w.files,
		TotalFiles:     w.total,
		ArtifactsFound: w.orch.store.Len(),
		BytesProcessed: w.bytes,
		Elapsed:        time.Since(w.start),
		CurrentPath:    current,
	}
	select {
	case w.events <- p:
	case <-w.ctx.Done():
	}
}

// excluded reports whether the path is filtered out entirely.
func (o *Orchestrator) excluded(path string) bool {
	for _, sub := range o.opts.ExcludePaths {
		if sub != "" && strings.Contains(path, sub) {
			return true
		}
	}
	return false
}

// wanted applies the include-substring and extension-allowlist filters to a
// file path.
func (o *Orchestrator) wanted(path string) bool {
	if len(o.opts.IncludePaths) > 0 {
		found := false
		for _, sub := range o.opts.IncludePaths {
			if sub != "" && strings.Contains(path, sub) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(o.opts.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range o.opts.Extensions {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if !strings.HasPrefix(allowed, ".") {
			allowed = "." + allowed
		}
		if ext == allowed {
			return true
		}
	}
	return false
}

// countCandidates walks the tree once without reading file contents so
// progress events can carry a total. Errors are ignored here; the real
// traversal reports them.
func (o *Orchestrator) countCandidates(root string) int {
	count := 0
	var visit func(dir string, depth int)
	visit = func(dir string, depth int) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			if o.excluded(path) {
				continue
			}
			if entry.Type()&fs.ModeSymlink != 0 && !o.opts.FollowSymlinks {
				continue
			}
			if entry.IsDir() {
				if depth+1 <= o.opts.MaxDepth {
					visit(path, depth+1)
				}
				continue
			}
			if o.wanted(path) {
				count++
			}
		}
	}
	visit(root, 0)
	return count
}

// readFileWithTimeout reads a file, bounding the wall-clock time. On timeout
// the reader goroutine is abandoned to finish against the buffered channel;
// the scan moves on rather than stalling on a dead mount.
func readFileWithTimeout(ctx context.Context, path string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		return os.ReadFile(path)
	}

	type readResult struct {
		data []byte
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		data, err := os.ReadFile(path)
		ch <- readResult{data: data, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, resilience.NewTimeoutError(fmt.Sprintf("read timed out after %s", timeout), context.DeadlineExceeded)
	}
}
