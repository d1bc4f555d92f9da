package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/linker"
	"github.com/DonovanMods/mc-mod-manager/internal/ratelimit"
	"github.com/DonovanMods/mc-mod-manager/internal/source"
	"github.com/DonovanMods/mc-mod-manager/internal/storage/cache"

	"go.uber.org/zap"
)

// ActionState is the lifecycle state of one update action
type ActionState int

const (
	StateQueued ActionState = iota
	StatePreparing
	StateDownloading
	StatePaused
	StateVerifying
	StateCompleted
	StateFailed
)

func (s ActionState) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StatePreparing:
		return "preparing"
	case StateDownloading:
		return "downloading"
	case StatePaused:
		return "paused"
	case StateVerifying:
		return "verifying"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions follow
func (s ActionState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// FailureReason classifies why an action failed
type FailureReason int

const (
	FailureNone FailureReason = iota
	FailureVerificationMismatch
	FailureCancelled
	FailureIO
	FailureSource   // The catalog could not resolve the file
	FailureDownload // Transfer failed after retries
)

func (r FailureReason) String() string {
	switch r {
	case FailureNone:
		return ""
	case FailureVerificationMismatch:
		return "verification mismatch"
	case FailureCancelled:
		return "cancelled"
	case FailureIO:
		return "io error"
	case FailureSource:
		return "source error"
	case FailureDownload:
		return "download error"
	default:
		return "unknown"
	}
}

// ProgressEvent reports a state change or byte progress for one action.
// Events for the same action arrive in state-machine order.
type ProgressEvent struct {
	ActionID string
	ModID    string
	State    ActionState
	Attempt  int // 1 on the first run, incremented by Retry

	Downloaded int64
	Total      int64 // 0 if unknown

	Reason FailureReason
	Err    error

	// Set on StateCompleted
	Record  *domain.ModRecord // The newly placed file
	Demoted *domain.ModRecord // The superseded file, nil if it was deleted or absent
}

// ExecuteOptions bounds a batch
type ExecuteOptions struct {
	MaxParallel        int // Actions downloading at once
	ThreadsPerDownload int // Ranged parts per download
	MaxPerHost         int // Concurrent downloads per host; <= 0 is unbounded
	Retention          domain.RetentionPolicy
}

// RetentionStore records superseded files kept until an explicit purge
type RetentionStore interface {
	RegisterRetained(path, modID, version string) error
}

// FileSourceStore remembers which catalog a placed file came from
type FileSourceStore interface {
	SaveFileSource(fileHash string, site domain.SourceSite) error
}

// ActionResult is the final outcome of one action in a batch
type ActionResult struct {
	Action  domain.UpdateAction
	State   ActionState
	Attempt int
	Reason  FailureReason
	Err     error
	Record  *domain.ModRecord
	Demoted *domain.ModRecord
}

// Summary is the terminal report of a batch
type Summary struct {
	Completed []ActionResult
	Failed    []ActionResult
	Pending   []ActionResult // Never dispatched because the batch was cancelled
}

// Err joins the failures, or returns nil when every action completed
func (s Summary) Err() error {
	if len(s.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(s.Failed))
	for _, r := range s.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", r.Action.Source.Name(), r.Err))
	}
	return fmt.Errorf("%d update(s) failed: %w", len(s.Failed), errors.Join(errs...))
}

// Orchestrator downloads, verifies and places update actions
type Orchestrator struct {
	registry   *source.Registry
	downloader *Downloader
	staging    *cache.Cache
	linker     linker.Linker
	index      *Index
	retained   RetentionStore
	sources    FileSourceStore
	limiter    *ratelimit.HostLimiter
	logger     *zap.Logger
}

// OrchestratorConfig holds the collaborators of an Orchestrator.
// Retained, Sources, Limiter and Logger may be nil.
type OrchestratorConfig struct {
	Registry   *source.Registry
	Downloader *Downloader
	Staging    *cache.Cache
	Linker     linker.Linker
	Index      *Index
	Retained   RetentionStore
	Sources    FileSourceStore
	Limiter    *ratelimit.HostLimiter
	Logger     *zap.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	o := &Orchestrator{
		registry:   cfg.Registry,
		downloader: cfg.Downloader,
		staging:    cfg.Staging,
		linker:     cfg.Linker,
		index:      cfg.Index,
		retained:   cfg.Retained,
		sources:    cfg.Sources,
		limiter:    cfg.Limiter,
		logger:     cfg.Logger,
	}
	if o.downloader == nil {
		o.downloader = NewDownloader(nil)
	}
	if o.linker == nil {
		o.linker = linker.NewMove()
	}
	if o.index == nil {
		o.index = NewIndex(cfg.Logger)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// Execute starts a batch. It returns immediately; progress is delivered on
// Batch.Events and the outcome by Batch.Wait.
func (o *Orchestrator) Execute(ctx context.Context, actions []domain.UpdateAction, opts ExecuteOptions) *Batch {
	jobs := make([]job, len(actions))
	for i, a := range actions {
		jobs[i] = job{action: a, attempt: 1}
	}
	return o.start(ctx, jobs, opts)
}

// Retry re-runs the failed actions of a previous batch without replanning.
// Results that did not fail are ignored.
func (o *Orchestrator) Retry(ctx context.Context, results []ActionResult, opts ExecuteOptions) *Batch {
	var jobs []job
	for _, r := range results {
		if r.State != StateFailed {
			continue
		}
		jobs = append(jobs, job{action: r.Action, attempt: r.Attempt + 1})
	}
	return o.start(ctx, jobs, opts)
}

type job struct {
	action  domain.UpdateAction
	attempt int
}

func (o *Orchestrator) start(parent context.Context, jobs []job, opts ExecuteOptions) *Batch {
	ctx, cancel := context.WithCancel(parent)
	b := &Batch{
		o:       o,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		events:  make(chan ProgressEvent, 64),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		slots:   ratelimit.New(0, 1, opts.MaxPerHost),
		results: make(map[string]*ActionResult, len(jobs)),
		gates:   make(map[string]*PauseGate, len(jobs)),
	}

	queue := make(chan job, len(jobs))
	for _, j := range jobs {
		b.order = append(b.order, j.action.ID)
		b.results[j.action.ID] = &ActionResult{Action: j.action, State: StateQueued, Attempt: j.attempt}
		b.gates[j.action.ID] = NewPauseGate()
		b.enqueue(b.eventFor(j.action.ID))
		queue <- j
	}
	close(queue)

	workers := max(opts.MaxParallel, 1)
	o.logger.Debug("starting update batch", zap.Int("actions", len(jobs)), zap.Int("workers", workers))
	for range workers {
		b.wg.Add(1)
		go b.worker(queue)
	}

	go b.emit()
	go func() {
		b.wg.Wait()
		b.mu.Lock()
		b.finished = true
		b.mu.Unlock()
		b.signal()
		close(b.done)
	}()
	return b
}

// Batch is one running execution of update actions
type Batch struct {
	o      *Orchestrator
	opts   ExecuteOptions
	ctx    context.Context //nolint:containedctx // Owned by the batch's worker lifecycle
	cancel context.CancelFunc
	slots  *ratelimit.HostLimiter
	wg     sync.WaitGroup
	done   chan struct{}

	events chan ProgressEvent
	notify chan struct{}

	mu       sync.Mutex
	pending  []ProgressEvent
	finished bool
	order    []string
	results  map[string]*ActionResult
	gates    map[string]*PauseGate
}

// Events returns the batch's progress stream. It is closed after the last event.
// The stream must be drained; state changes are never dropped.
func (b *Batch) Events() <-chan ProgressEvent {
	return b.events
}

// Cancel stops dispatching queued actions and aborts in-flight transfers
func (b *Batch) Cancel() {
	b.cancel()
}

// Pause suspends a downloading action. Returns false if it is not downloading.
func (b *Batch) Pause(actionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.results[actionID]
	if !ok || r.State != StateDownloading {
		return false
	}
	b.gates[actionID].Pause()
	r.State = StatePaused
	b.pushLocked(b.eventLocked(actionID))
	return true
}

// Resume continues a paused action. Returns false if it is not paused.
func (b *Batch) Resume(actionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.results[actionID]
	if !ok || r.State != StatePaused {
		return false
	}
	b.gates[actionID].Resume()
	r.State = StateDownloading
	b.pushLocked(b.eventLocked(actionID))
	return true
}

// Wait blocks until every dispatched action has finished and returns the summary
func (b *Batch) Wait() Summary {
	<-b.done
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()
	var s Summary
	for _, id := range b.order {
		r := *b.results[id]
		switch r.State {
		case StateCompleted:
			s.Completed = append(s.Completed, r)
		case StateFailed:
			s.Failed = append(s.Failed, r)
		default:
			s.Pending = append(s.Pending, r)
		}
	}
	return s
}

func (b *Batch) worker(queue <-chan job) {
	defer b.wg.Done()
	for j := range queue {
		if b.ctx.Err() != nil {
			// Leave the rest Queued; Wait reports them as pending
			continue
		}
		b.run(j.action)
	}
}

// run drives one action from Preparing to a terminal state
func (b *Batch) run(action domain.UpdateAction) {
	log := b.o.logger.With(zap.String("action", action.ID), zap.String("mod", action.Source.ModID))
	_ = b.transition(action.ID, StatePreparing)

	stagedPath, ref, err := b.prepare(action)
	if err != nil {
		b.fail(action.ID, err)
		b.o.staging.Release(action.ID)
		log.Warn("preparing update failed", zap.Error(err))
		return
	}

	result, err := b.download(action, ref, stagedPath)
	if err != nil {
		b.fail(action.ID, err)
		b.o.staging.Release(action.ID)
		log.Warn("download failed", zap.Error(err))
		return
	}

	if err := b.transition(action.ID, StateVerifying); err != nil {
		b.fail(action.ID, err)
		b.o.staging.Release(action.ID)
		return
	}
	if err := verify(ref, result); err != nil {
		b.fail(action.ID, err)
		b.o.staging.Release(action.ID)
		log.Warn("verification failed", zap.Error(err))
		return
	}

	record, demoted, err := b.commit(action, stagedPath)
	b.o.staging.Release(action.ID)
	if err != nil {
		b.fail(action.ID, err)
		log.Warn("placing update failed", zap.Error(err))
		return
	}

	b.mu.Lock()
	r := b.results[action.ID]
	r.State = StateCompleted
	r.Record = record
	r.Demoted = demoted
	b.pushLocked(b.eventLocked(action.ID))
	b.mu.Unlock()
	log.Info("update completed", zap.String("version", record.Version), zap.String("path", record.Path))
}

func (b *Batch) prepare(action domain.UpdateAction) (string, source.FileRef, error) {
	client, err := b.o.registry.Get(action.Candidate.Site)
	if err != nil {
		return "", source.FileRef{}, err
	}
	ref, err := client.ResolveFile(b.ctx, action.Candidate)
	if err != nil {
		return "", source.FileRef{}, fmt.Errorf("%w: resolving %s: %w", domain.ErrSourceNotFound, action.Candidate.FileName, err)
	}
	if ref.FileName == "" {
		ref.FileName = action.Candidate.FileName
	}
	stagedPath, err := b.o.staging.Stage(action.ID, ref.FileName)
	if err != nil {
		return "", source.FileRef{}, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return stagedPath, ref, nil
}

func (b *Batch) download(action domain.UpdateAction, ref source.FileRef, stagedPath string) (*DownloadResult, error) {
	host := ratelimit.HostOf(ref.URL)
	release, err := b.slots.Acquire(b.ctx, host)
	if err != nil {
		return nil, err
	}
	defer release()
	if err := b.o.limiter.Wait(b.ctx, host); err != nil {
		return nil, err
	}

	b.mu.Lock()
	gate := b.gates[action.ID]
	b.mu.Unlock()

	_ = b.transition(action.ID, StateDownloading)
	return b.o.downloader.Download(b.ctx, DownloadRequest{
		URL:      ref.URL,
		DestPath: stagedPath,
		Threads:  b.opts.ThreadsPerDownload,
		Gate:     gate,
		Progress: func(p DownloadProgress) { b.progress(action.ID, p) },
	})
}

// verify checks the download against the catalog's sha1, or its size when no hash is published
func verify(ref source.FileRef, result *DownloadResult) error {
	if ref.SHA1 != "" {
		if !strings.EqualFold(ref.SHA1, result.SHA1) {
			return fmt.Errorf("%w: sha1 %s, expected %s", domain.ErrVerificationMismatch, result.SHA1, strings.ToLower(ref.SHA1))
		}
		return nil
	}
	if ref.Size > 0 && ref.Size != result.Size {
		return fmt.Errorf("%w: size %d, expected %d", domain.ErrVerificationMismatch, result.Size, ref.Size)
	}
	return nil
}

// commit demotes the superseded file, places the staged one and applies retention.
// A placement failure restores the superseded file.
func (b *Batch) commit(action domain.UpdateAction, stagedPath string) (*domain.ModRecord, *domain.ModRecord, error) {
	oldPath := action.Source.Path
	demotedPath := ""
	if oldPath != "" {
		if _, err := os.Stat(oldPath); err == nil {
			demotedPath = domain.PathForState(oldPath, domain.StateOld)
			if err := os.Rename(oldPath, demotedPath); err != nil {
				return nil, nil, fmt.Errorf("%w: demoting %s: %w", domain.ErrIO, action.Source.FileName, err)
			}
		}
	}

	if err := b.o.linker.Place(stagedPath, action.TargetPath); err != nil {
		if demotedPath != "" {
			if rerr := os.Rename(demotedPath, oldPath); rerr != nil {
				err = errors.Join(err, fmt.Errorf("restoring %s: %w", action.Source.FileName, rerr))
			}
		}
		return nil, nil, fmt.Errorf("%w: placing %s: %w", domain.ErrIO, action.TargetPath, err)
	}

	record, err := b.o.index.Parse(action.TargetPath)
	if err != nil {
		return nil, nil, err
	}
	record.Version = action.Candidate.Version
	record.Source = action.Candidate.Site
	if record.ModID == "" || !record.HasMetadata {
		record.ModID = action.Source.ModID
	}
	if b.o.sources != nil {
		if err := b.o.sources.SaveFileSource(record.FileHash, record.Source); err != nil {
			b.o.logger.Warn("recording file source", zap.String("path", record.Path), zap.Error(err))
		}
	}

	var demoted *domain.ModRecord
	if demotedPath != "" {
		demoted, err = b.retain(action.Source, demotedPath)
		if err != nil {
			return &record, nil, err
		}
	}
	return &record, demoted, nil
}

func (b *Batch) retain(old domain.ModRecord, demotedPath string) (*domain.ModRecord, error) {
	switch b.opts.Retention {
	case domain.RetainDelete:
		if err := os.Remove(demotedPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: removing superseded file: %w", domain.ErrIO, err)
		}
		return nil, nil
	case domain.RetainUntilConfirm:
		if b.o.retained != nil {
			if err := b.o.retained.RegisterRetained(demotedPath, old.ModID, old.Version); err != nil {
				b.o.logger.Warn("registering retained file", zap.String("path", demotedPath), zap.Error(err))
			}
		}
	}

	demoted := old
	demoted.Path = demotedPath
	demoted.FileName = filepath.Base(demotedPath)
	demoted.State = domain.StateOld
	return &demoted, nil
}

// transition records a state change. Leaving Paused waits for Resume.
func (b *Batch) transition(actionID string, state ActionState) error {
	for {
		b.mu.Lock()
		r := b.results[actionID]
		if r.State == StatePaused && state != StateFailed {
			gate := b.gates[actionID]
			b.mu.Unlock()
			if err := gate.Wait(b.ctx); err != nil {
				return err
			}
			continue
		}
		r.State = state
		b.pushLocked(b.eventLocked(actionID))
		b.mu.Unlock()
		return nil
	}
}

func (b *Batch) fail(actionID string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.results[actionID]
	r.State = StateFailed
	r.Err = err
	r.Reason = reasonFor(err)
	b.pushLocked(b.eventLocked(actionID))
}

func reasonFor(err error) FailureReason {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, domain.ErrCancelled):
		return FailureCancelled
	case errors.Is(err, domain.ErrVerificationMismatch):
		return FailureVerificationMismatch
	case errors.Is(err, domain.ErrIO):
		return FailureIO
	case errors.Is(err, domain.ErrSourceNotFound), errors.Is(err, domain.ErrAuthRequired):
		return FailureSource
	default:
		return FailureDownload
	}
}

// maxPendingProgress caps queued byte-progress events; state changes are never dropped
const maxPendingProgress = 256

func (b *Batch) progress(actionID string, p DownloadProgress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.results[actionID]
	if r.State != StateDownloading || len(b.pending) >= maxPendingProgress {
		return
	}
	ev := b.eventLocked(actionID)
	ev.Downloaded = p.Downloaded
	ev.Total = p.TotalBytes
	b.pushLocked(ev)
}

func (b *Batch) eventFor(actionID string) ProgressEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.eventLocked(actionID)
}

func (b *Batch) eventLocked(actionID string) ProgressEvent {
	r := b.results[actionID]
	return ProgressEvent{
		ActionID: actionID,
		ModID:    r.Action.Source.ModID,
		State:    r.State,
		Attempt:  r.Attempt,
		Reason:   r.Reason,
		Err:      r.Err,
		Record:   r.Record,
		Demoted:  r.Demoted,
	}
}

func (b *Batch) enqueue(ev ProgressEvent) {
	b.mu.Lock()
	b.pushLocked(ev)
	b.mu.Unlock()
}

func (b *Batch) pushLocked(ev ProgressEvent) {
	b.pending = append(b.pending, ev)
	b.signal()
}

func (b *Batch) signal() {
	select {
	case b.notify <- struct{}{}:
	default:
		// Already notified
	}
}

// emit forwards queued events to the consumer in order and closes the stream
// once the batch has finished
func (b *Batch) emit() {
	defer close(b.events)
	for {
		b.mu.Lock()
		batch := b.pending
		b.pending = nil
		finished := b.finished
		b.mu.Unlock()

		for _, ev := range batch {
			b.events <- ev
		}
		if finished && len(batch) == 0 {
			return
		}
		if len(batch) == 0 {
			<-b.notify
		}
	}
}
