package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"docprompt/internal/contextutil"
	"docprompt/internal/service"
	"docprompt/internal/sources"
	"docprompt/internal/storage"
)

// MaxConcurrentItems bounds the items of one source processed at once.
const MaxConcurrentItems = 5

// ItemLister resolves the item set of a source.
type ItemLister interface {
	Items(ctx context.Context, src storage.SourceRecord) (*sources.ItemSet, error)
}

// Syncer triggers the remote sync of a connector source.
type Syncer interface {
	Sync(ctx context.Context, src storage.SourceRecord) error
}

// GenerateParams describes one source sweep.
type GenerateParams struct {
	SourceID     string
	SourceType   string
	ItemCount    int
	ForceRetrain bool
	PathOf       func(i int) string
	Resolve      func(ctx context.Context, i int) (*sources.Content, error)
	// OnItemDone is called with the path of every attempted item that was not
	// filtered out, cancelled or fatal. May be nil.
	OnItemDone func(path string)
	// Filter selects the indexed paths. A nil Filter passes everything.
	Filter *sources.Filter
}

// Orchestrator drives ingestion runs for one project. At most one run is active at a time.
type Orchestrator struct {
	projectID   string
	checksums   storage.ChecksumStore
	sourceStore storage.SourceStore
	lister      ItemLister
	syncer      Syncer
	indexer     Indexer
	concurrency int

	mu    sync.Mutex
	state TrainingState

	running   atomic.Bool
	cancelled atomic.Bool
}

// NewOrchestrator creates an idle Orchestrator.
func NewOrchestrator(
	projectID string,
	checksums storage.ChecksumStore,
	sourceStore storage.SourceStore,
	lister ItemLister,
	syncer Syncer,
	indexer Indexer,
) *Orchestrator {
	return &Orchestrator{
		projectID:   projectID,
		checksums:   checksums,
		sourceStore: sourceStore,
		lister:      lister,
		syncer:      syncer,
		indexer:     indexer,
		concurrency: MaxConcurrentItems,
		state:       Idle{},
	}
}

// State returns the current training state.
func (o *Orchestrator) State() TrainingState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s TrainingState) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// setFetching publishes FetchingData unless a cancel already landed.
func (o *Orchestrator) setFetching() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancelled.Load() {
		return
	}
	o.state = FetchingData{}
}

// Busy reports whether a run is active.
func (o *Orchestrator) Busy() bool {
	return o.running.Load()
}

// Cancel asks the active run to stop starting new items. Items already
// resolving finish normally. It reports whether a run was active.
func (o *Orchestrator) Cancel() bool {
	if !o.running.Load() {
		return false
	}
	o.cancelled.Store(true)
	o.setState(CancelRequested{})
	return true
}

func (o *Orchestrator) begin() error {
	if !o.running.CompareAndSwap(false, true) {
		return fmt.Errorf("training already in progress: %w", service.ErrConflict)
	}
	o.cancelled.Store(false)
	return nil
}

func (o *Orchestrator) end() {
	o.running.Store(false)
}

// Checksum is the hex SHA-256 of resolved item content.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// sweep holds the shared state of one GenerateEmbeddings run.
type sweep struct {
	params  GenerateParams
	known   map[string]string
	aborted atomic.Bool
	fatal   chan *service.QuotaExceededError

	indexed atomic.Int64
	skipped atomic.Int64

	mu     sync.Mutex
	errors []ItemError
}

func (s *sweep) fail(p string, err error) {
	s.mu.Lock()
	s.errors = append(s.errors, ItemError{Path: p, Error: err.Error()})
	s.mu.Unlock()
}

func (s *sweep) done(p string) {
	if s.params.OnItemDone != nil {
		s.params.OnItemDone(p)
	}
}

// GenerateEmbeddings indexes the changed items of one source with bounded concurrency.
// Unchanged items are skipped unless ForceRetrain is set. Recoverable item failures
// are collected in the result; a fatal one aborts the run at once with a
// *service.QuotaExceededError, leaving in-flight items to finish on their own.
func (o *Orchestrator) GenerateEmbeddings(ctx context.Context, params GenerateParams) (*RunResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	known, err := o.checksums.ListBySource(ctx, params.SourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load checksums: %w", err)
	}

	s := &sweep{
		params: params,
		known:  known,
		fatal:  make(chan *service.QuotaExceededError, 1),
	}

	logger.InfoContext(ctx, "starting source sweep",
		"source_id", params.SourceID,
		"source_type", params.SourceType,
		"items", params.ItemCount,
		"force", params.ForceRetrain)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	finished := make(chan error, 1)
	go func() {
		for i := 0; i < params.ItemCount; i++ {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				return o.processItem(ctx, gctx, s, i)
			})
		}
		finished <- g.Wait()
	}()

	var runErr error
	select {
	case qerr := <-s.fatal:
		o.setState(Idle{})
		logger.WarnContext(ctx, "source sweep aborted", "source_id", params.SourceID, "error", qerr)
		return s.result(false), qerr
	case runErr = <-finished:
	}

	select {
	case qerr := <-s.fatal:
		o.setState(Idle{})
		return s.result(false), qerr
	default:
	}

	cancelled := o.cancelled.Load()
	result := s.result(cancelled)

	switch {
	case cancelled:
		o.setState(Idle{})
	case ctx.Err() != nil:
		o.setState(Idle{})
		return result, ctx.Err()
	case runErr != nil:
		o.setState(Idle{})
		return result, runErr
	default:
		o.setState(Complete{Errors: result.Errors})
	}

	logger.InfoContext(ctx, "source sweep finished",
		"source_id", params.SourceID,
		"indexed", result.Indexed,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
		"cancelled", cancelled)

	return result, nil
}

func (s *sweep) result(cancelled bool) *RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &RunResult{
		Indexed:   int(s.indexed.Load()),
		Skipped:   int(s.skipped.Load()),
		Cancelled: cancelled,
		Errors:    append([]ItemError(nil), s.errors...),
	}
}

// processItem handles item i. It only returns an error for fatal results, which cancels gate.
// gate only decides whether the item starts; the work itself runs on ctx so a fatal
// result elsewhere never preempts an item already being indexed.
func (o *Orchestrator) processItem(ctx, gate context.Context, s *sweep, i int) error {
	logger := contextutil.LoggerFromContext(ctx)
	p := s.params

	if s.aborted.Load() || gate.Err() != nil {
		return nil
	}
	if o.cancelled.Load() {
		s.skipped.Add(1)
		return nil
	}

	itemPath := p.PathOf(i)
	o.reportProgress(s, Loading{Progress: i + 1, Total: p.ItemCount, Filename: lastSegment(itemPath)})

	if !p.Filter.Match(itemPath) {
		logger.DebugContext(ctx, "item filtered out", "path", itemPath)
		return nil
	}

	content, err := p.Resolve(ctx, i)
	if err != nil {
		logger.WarnContext(ctx, "failed to resolve item", "path", itemPath, "error", err)
		s.fail(itemPath, err)
		s.done(itemPath)
		return nil
	}
	if content == nil {
		s.skipped.Add(1)
		s.done(itemPath)
		return nil
	}

	sum := Checksum(content.Content)
	if !p.ForceRetrain && s.known[itemPath] == sum {
		logger.DebugContext(ctx, "skipping unchanged item", "path", itemPath)
		s.skipped.Add(1)
		s.done(itemPath)
		return nil
	}

	res := o.indexer.IndexItem(ctx, Item{
		SourceID:   p.SourceID,
		SourceType: p.SourceType,
		Path:       itemPath,
		Checksum:   sum,
		Content:    content,
	})

	switch res.Kind {
	case ResultFatal:
		qerr := &service.QuotaExceededError{SourceID: p.SourceID, Path: itemPath, Err: res.Err}
		if s.aborted.CompareAndSwap(false, true) {
			s.fatal <- qerr
		}
		return qerr
	case ResultRecoverable:
		logger.WarnContext(ctx, "failed to index item", "path", itemPath, "error", res.Err)
		s.fail(itemPath, res.Err)
	default:
		if err := o.checksums.Upsert(ctx, p.SourceID, itemPath, sum); err != nil {
			s.fail(itemPath, fmt.Errorf("failed to store checksum: %w", err))
		} else {
			s.indexed.Add(1)
		}
	}

	s.done(itemPath)
	return nil
}

// reportProgress publishes a Loading state unless the run is cancelling or aborted.
func (o *Orchestrator) reportProgress(s *sweep, st Loading) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s.aborted.Load() || o.cancelled.Load() {
		return
	}
	o.state = st
}

func lastSegment(p string) string {
	return path.Base(strings.TrimRight(p, "/"))
}

// TrainSource runs one source and returns its result.
func (o *Orchestrator) TrainSource(ctx context.Context, sourceID string, force bool) (*RunResult, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.end()

	src, err := o.loadSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	return o.trainSource(ctx, *src, force)
}

// StartSource trains one source in the background, failing fast when a run is
// active or the source does not exist.
func (o *Orchestrator) StartSource(ctx context.Context, sourceID string, force bool) error {
	if err := o.begin(); err != nil {
		return err
	}

	src, err := o.loadSource(ctx, sourceID)
	if err != nil {
		o.end()
		return err
	}

	go func() {
		defer o.end()
		if _, err := o.trainSource(ctx, *src, force); err != nil {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "source training failed", "source_id", sourceID, "error", err)
		}
	}()
	return nil
}

func (o *Orchestrator) loadSource(ctx context.Context, sourceID string) (*storage.SourceRecord, error) {
	src, err := o.sourceStore.Get(ctx, o.projectID, sourceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("source %s: %w", sourceID, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load source: %w", err)
	}
	return src, nil
}

// trainSource runs one source, leaving Complete on success and Idle otherwise.
func (o *Orchestrator) trainSource(ctx context.Context, src storage.SourceRecord, force bool) (*RunResult, error) {
	result, err := o.trainOne(ctx, src, force, nil)
	if err != nil || src.Type == sources.TypeConnector {
		o.setState(Idle{})
	}
	return result, err
}

// TrainAllSources trains every source of the project in order, one at a time.
// Per-source failures go to onError and the sequence continues; a quota error
// stops the sequence and is returned. The state is idle afterwards.
func (o *Orchestrator) TrainAllSources(ctx context.Context, force bool, onItemDone func(path string), onError func(src storage.SourceRecord, err error)) error {
	if err := o.begin(); err != nil {
		return err
	}
	defer o.end()
	defer o.setState(Idle{})

	return o.trainAll(ctx, force, onItemDone, onError)
}

// StartAllSources begins TrainAllSources in the background, failing fast when a run is active.
func (o *Orchestrator) StartAllSources(ctx context.Context, force bool) error {
	if err := o.begin(); err != nil {
		return err
	}

	go func() {
		defer o.end()
		defer o.setState(Idle{})

		logger := contextutil.LoggerFromContext(ctx)
		err := o.trainAll(ctx, force, nil, func(src storage.SourceRecord, err error) {
			logger.ErrorContext(ctx, "source training failed", "source_id", src.ID, "source", src.Name, "error", err)
		})
		if err != nil {
			logger.ErrorContext(ctx, "training run aborted", "error", err)
		}
	}()
	return nil
}

func (o *Orchestrator) trainAll(ctx context.Context, force bool, onItemDone func(string), onError func(storage.SourceRecord, error)) error {
	logger := contextutil.LoggerFromContext(ctx)

	o.setFetching()
	srcs, err := o.sourceStore.ListByProject(ctx, o.projectID)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	for _, src := range srcs {
		if o.cancelled.Load() || ctx.Err() != nil {
			logger.InfoContext(ctx, "training cancelled", "remaining_from", src.Name)
			break
		}

		_, err := o.trainOne(ctx, src, force, onItemDone)
		if err == nil {
			continue
		}

		var quotaErr *service.QuotaExceededError
		if errors.As(err, &quotaErr) {
			return err
		}
		if onError != nil {
			onError(src, err)
		}
	}

	logger.InfoContext(ctx, "training finished", "sources", len(srcs))
	return ctx.Err()
}

// trainOne dispatches a source: connector sources are synced remotely, others swept locally.
func (o *Orchestrator) trainOne(ctx context.Context, src storage.SourceRecord, force bool, onItemDone func(string)) (*RunResult, error) {
	logger := contextutil.LoggerFromContext(ctx).With("source_id", src.ID, "source", src.Name)
	ctx = contextutil.WithLogger(ctx, logger)

	if src.Type == sources.TypeConnector {
		if err := o.syncer.Sync(ctx, src); err != nil {
			return nil, fmt.Errorf("failed to sync connector source: %w", err)
		}
		return &RunResult{}, nil
	}

	filter, err := sources.NewFilter(src.Config)
	if err != nil {
		return nil, fmt.Errorf("invalid source filter: %w", err)
	}

	o.setFetching()
	set, err := o.lister.Items(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to list source items: %w", err)
	}

	return o.GenerateEmbeddings(ctx, GenerateParams{
		SourceID:     src.ID,
		SourceType:   src.Type,
		ItemCount:    set.Count,
		ForceRetrain: force,
		PathOf:       set.PathOf,
		Resolve:      set.Resolve,
		OnItemDone:   onItemDone,
		Filter:       filter,
	})
}
