package build

import (
	"context"
	"errors"
	"fmt"

	"github.com/gekko3d/chunks/chunkrt/rt/section"
	"github.com/gekko3d/chunks/chunkrt/rt/world"
	"golang.org/x/sync/errgroup"
)

const DefaultTasksPerWorker = 2

type Config struct {
	// Workers is the number of build goroutines. Zero runs every build on the caller.
	Workers        int
	TasksPerWorker int
	// Budget caps normal-priority submissions per frame. Zero derives it from the pool size.
	Budget int
}

type Deps struct {
	World     world.Source
	Mesher    Mesher
	Lookup    func(id int) (*section.Render, bool)
	Uploader  Uploader
	OnApplied func(r *section.Render)
	Logger    Logger
}

type Stats struct {
	Submitted uint64
	Inline    uint64
	Applied   uint64
	Discarded uint64
	Failed    uint64
}

type job struct {
	task  Task
	reply chan Result
}

// Builder runs section builds on a fixed worker pool. Apart from Future.Wait results
// only reach the frame goroutine through the completed channel.
type Builder struct {
	cfg  Config
	deps Deps
	log  Logger

	ctx    context.Context
	cancel context.CancelFunc
	eg     *errgroup.Group

	tasks     chan job
	completed chan Result
	ready     []Result

	pending int
	stopped bool
	stats   Stats
}

func NewBuilder(cfg Config, deps Deps) (*Builder, error) {
	if deps.World == nil || deps.Mesher == nil || deps.Lookup == nil {
		return nil, fmt.Errorf("build: world, mesher and lookup are required")
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("build: invalid worker count %d", cfg.Workers)
	}
	if cfg.TasksPerWorker <= 0 {
		cfg.TasksPerWorker = DefaultTasksPerWorker
	}

	b := &Builder{cfg: cfg, deps: deps, log: deps.Logger}
	if b.log == nil {
		b.log = nopLogger{}
	}

	queue := cfg.Workers * cfg.TasksPerWorker
	b.tasks = make(chan job, queue)
	b.completed = make(chan Result, queue+cfg.Workers)

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.eg, b.ctx = errgroup.WithContext(ctx)
	for i := 0; i < cfg.Workers; i++ {
		b.eg.Go(func() error {
			b.work(b.ctx)
			return nil
		})
	}

	return b, nil
}

func (b *Builder) work(ctx context.Context) {
	for j := range b.tasks {
		res := b.run(ctx, j.task)
		if j.reply != nil {
			j.reply <- res
			continue
		}
		select {
		case b.completed <- res:
		case <-ctx.Done():
		}
	}
}

func (b *Builder) run(ctx context.Context, t Task) Result {
	res := Result{ID: t.ID, Token: t.Token, Seq: t.Seq, Pos: t.Pos}
	if ctx.Err() != nil {
		res.Err = ErrStopped
		return res
	}

	out, err := b.deps.Mesher.Build(ctx, t.Snapshot)
	if err != nil {
		res.Err = fmt.Errorf("build section %d,%d,%d: %w", t.Pos.X, t.Pos.Y, t.Pos.Z, err)
		return res
	}
	res.Output = out
	return res
}

func (b *Builder) prepare(r *section.Render) Task {
	seq := r.BeginBuild()
	b.pending++
	b.stats.Submitted++
	return Task{
		ID:       r.ID(),
		Token:    r.Token(),
		Seq:      seq,
		Pos:      r.Pos(),
		Snapshot: b.deps.World.Snapshot(r.Pos()),
	}
}

func (b *Builder) submit(j job) bool {
	if b.cfg.Workers == 0 {
		return false
	}
	select {
	case b.tasks <- j:
		return true
	default:
		return false
	}
}

// ScheduleAsync starts a build whose result the caller collects through the future.
// When the pool is saturated the build runs on the caller instead.
func (b *Builder) ScheduleAsync(r *section.Render) *Future {
	if b.stopped {
		return nil
	}
	t := b.prepare(r)
	f := newFuture()
	if !b.submit(job{task: t, reply: f.ch}) {
		b.stats.Inline++
		f.ch <- b.run(b.ctx, t)
	}
	return f
}

// Defer starts a build whose result is picked up by a later PerformPendingUploads.
func (b *Builder) Defer(r *section.Render) bool {
	if b.stopped {
		return false
	}
	t := b.prepare(r)
	if !b.submit(job{task: t}) {
		b.stats.Inline++
		b.ready = append(b.ready, b.run(b.ctx, t))
	}
	return true
}

// Budget is the number of normal-priority submissions allowed this frame.
func (b *Builder) Budget() int {
	if b.cfg.Budget > 0 {
		return b.cfg.Budget
	}
	workers := max(1, b.cfg.Workers)
	return max(0, workers*b.cfg.TasksPerWorker-b.pending)
}

// PerformPendingUploads applies every deferred result available without blocking.
func (b *Builder) PerformPendingUploads() bool {
	results := b.ready
	b.ready = nil

drain:
	for {
		select {
		case res := <-b.completed:
			results = append(results, res)
		default:
			break drain
		}
	}

	if len(results) == 0 {
		return false
	}
	b.apply(results)
	return true
}

// UploadFutures waits for the given futures and applies their results.
func (b *Builder) UploadFutures(futures []*Future) bool {
	if len(futures) == 0 {
		return false
	}
	results := make([]Result, 0, len(futures))
	for _, f := range futures {
		results = append(results, f.Wait())
	}
	b.apply(results)
	return true
}

func (b *Builder) apply(results []Result) {
	uploads := make([]Upload, 0, len(results))

	for _, res := range results {
		b.pending--

		r, ok := b.deps.Lookup(res.ID)
		if !ok || r.Token() != res.Token {
			b.stats.Discarded++
			b.log.Debugf("discarding build result for unloaded section %d,%d,%d", res.Pos.X, res.Pos.Y, res.Pos.Z)
			continue
		}
		if res.Err != nil {
			r.CancelBuild()
			b.stats.Failed++
			if !errors.Is(res.Err, ErrStopped) {
				b.log.Warnf("%v", res.Err)
			}
			continue
		}
		if !r.FinishBuild(res.Seq) {
			b.stats.Discarded++
			b.log.Debugf("discarding outdated build result for section %d,%d,%d", res.Pos.X, res.Pos.Y, res.Pos.Z)
			continue
		}

		r.SetData(res.Output.Data)
		uploads = append(uploads, Upload{Render: r, Meshes: res.Output.Meshes})
	}

	if len(uploads) == 0 {
		return
	}
	if b.deps.Uploader != nil {
		if err := b.deps.Uploader.Upload(uploads); err != nil {
			b.log.Warnf("upload %d section meshes: %v", len(uploads), err)
		}
	}
	b.stats.Applied += uint64(len(uploads))
	if b.deps.OnApplied != nil {
		for _, u := range uploads {
			b.deps.OnApplied(u.Render)
		}
	}
}

// IsBuildQueueEmpty reports whether no submitted build is waiting to be applied.
func (b *Builder) IsBuildQueueEmpty() bool {
	return b.pending == 0 && len(b.ready) == 0
}

func (b *Builder) Pending() int {
	return b.pending
}

func (b *Builder) Stats() Stats {
	return b.stats
}

// Stop cancels outstanding builds and waits for the workers to exit.
func (b *Builder) Stop() error {
	if b.stopped {
		return nil
	}
	b.stopped = true
	b.cancel()
	close(b.tasks)
	if err := b.eg.Wait(); err != nil {
		return fmt.Errorf("stop builder: %w", err)
	}
	b.ready = nil
	b.pending = 0
	return nil
}
