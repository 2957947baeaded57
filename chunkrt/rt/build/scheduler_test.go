package build

import (
	"testing"

	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/gekko3d/chunks/chunkrt/rt/section"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	budget   int
	async    []*section.Render
	deferred []*section.Render
	pending  bool
	uploaded int
}

func (f *fakeRunner) ScheduleAsync(r *section.Render) *Future {
	r.BeginBuild()
	f.async = append(f.async, r)
	fut := newFuture()
	fut.ch <- Result{ID: r.ID()}
	return fut
}

func (f *fakeRunner) Defer(r *section.Render) bool {
	r.BeginBuild()
	f.deferred = append(f.deferred, r)
	return true
}

func (f *fakeRunner) Budget() int { return f.budget }

func (f *fakeRunner) PerformPendingUploads() bool { return f.pending }

func (f *fakeRunner) UploadFutures(futures []*Future) bool {
	for _, fut := range futures {
		fut.Wait()
	}
	f.uploaded += len(futures)
	return len(futures) > 0
}

// far places sections well beyond the nearby threshold of a camera at the origin.
func far(x int32) *section.Render {
	col := section.NewColumn(x+100, 0)
	return section.NewRender(col, core.SectionPos{X: x + 100, Y: 0, Z: 0})
}

func TestBudgetLimitsNormalQueue(t *testing.T) {
	runner := &fakeRunner{budget: 4}
	s := NewScheduler(runner, false)

	var renders []*section.Render
	for i := int32(0); i < 10; i++ {
		r := far(i)
		r.ScheduleRebuild(false)
		require.True(t, s.Enqueue(r, false))
		renders = append(renders, r)
	}
	require.Equal(t, 10, s.NormalLen())
	require.Equal(t, 0, s.UrgentLen())

	assert.True(t, s.Run())
	assert.Len(t, runner.deferred, 4)
	assert.Empty(t, runner.async)
	assert.Equal(t, 6, s.NormalLen(), "excess work stays queued")
	assert.Equal(t, 6, s.Stats().Remaining)

	// FIFO within the queue
	assert.Equal(t, renders[:4], runner.deferred)
	for _, r := range renders[4:] {
		assert.True(t, r.NeedsRebuild(), "carried renders keep their dirty state")
	}
}

func TestNearbyPromotedAndAsync(t *testing.T) {
	runner := &fakeRunner{budget: 4}
	s := NewScheduler(runner, false)

	r := section.NewRender(section.NewColumn(0, 0), core.SectionPos{})
	center := r.Pos().Center()
	// squared distance 10 from the section centre
	s.SetCamera(center.Add(mgl32.Vec3{1, 0, 3}))
	require.InDelta(t, 10, r.SquaredDistance(s.Camera()), 1e-4)

	r.ScheduleRebuild(false)
	require.True(t, s.Enqueue(r, false))
	assert.Equal(t, 1, s.UrgentLen())
	assert.Equal(t, 0, s.NormalLen())

	assert.True(t, s.Run())
	assert.Equal(t, []*section.Render{r}, runner.async)
	assert.Equal(t, 1, runner.uploaded)
	assert.Equal(t, 1, s.Stats().Async)
}

func TestImportantFarSectionIsDeferred(t *testing.T) {
	runner := &fakeRunner{budget: 0}
	s := NewScheduler(runner, false)

	r := far(0)
	r.ScheduleRebuild(true)
	s.Enqueue(r, true)

	assert.True(t, s.Run())
	assert.Empty(t, runner.async)
	assert.Equal(t, []*section.Render{r}, runner.deferred, "urgent work ignores the budget")
}

func TestEnqueueDedup(t *testing.T) {
	s := NewScheduler(&fakeRunner{}, false)
	r := far(1)

	assert.True(t, s.Enqueue(r, false))
	assert.False(t, s.Enqueue(r, false))
	assert.Equal(t, 1, s.NormalLen())

	// escalation moves it to the urgent queue once
	assert.True(t, s.Enqueue(r, true))
	assert.False(t, s.Enqueue(r, true))
	assert.False(t, s.Enqueue(r, false))
	assert.Equal(t, 1, s.UrgentLen())
}

func TestPromotedEntryBuiltOnce(t *testing.T) {
	runner := &fakeRunner{budget: 10}
	s := NewScheduler(runner, false)
	r := far(2)
	r.ScheduleRebuild(true)
	s.Enqueue(r, false)
	s.Enqueue(r, true)

	s.Run()
	assert.Len(t, runner.deferred, 1)
	assert.Equal(t, 0, s.NormalLen())
}

func TestUrgentBeforeNormal(t *testing.T) {
	runner := &fakeRunner{budget: 10}
	s := NewScheduler(runner, false)

	n1, n2, u1 := far(1), far(2), far(3)
	s.Enqueue(n1, false)
	s.Enqueue(u1, true)
	s.Enqueue(n2, false)

	s.Run()
	assert.Equal(t, []*section.Render{u1, n1, n2}, runner.deferred)
}

func TestSkipNonRebuildable(t *testing.T) {
	runner := &fakeRunner{budget: 10}
	s := NewScheduler(runner, true)

	r := far(1) // column without neighbours
	s.Enqueue(r, true)
	flying := far(2)
	flying.BeginBuild()
	s.Enqueue(flying, false)

	assert.False(t, s.Run())
	assert.Empty(t, runner.deferred)
	assert.Equal(t, 2, s.Stats().Skipped)
}

func TestSetRequireNeighbors(t *testing.T) {
	runner := &fakeRunner{budget: 10}
	s := NewScheduler(runner, true)

	lonely := far(1)
	lonely.ScheduleRebuild(true)
	s.Enqueue(lonely, true)
	assert.False(t, s.Run())
	assert.Empty(t, runner.deferred)

	s.Reset()
	s.SetRequireNeighbors(false)
	s.Enqueue(lonely, true)
	assert.True(t, s.Run())
	assert.Equal(t, []*section.Render{lonely}, runner.deferred)
}

func TestResetClearsQueues(t *testing.T) {
	s := NewScheduler(&fakeRunner{}, false)
	a, b := far(1), far(2)
	s.Enqueue(a, false)
	s.Enqueue(b, true)

	s.Reset()
	assert.Equal(t, 0, s.UrgentLen())
	assert.Equal(t, 0, s.NormalLen())
	assert.Equal(t, section.QueueNone, a.QueueState())
	assert.Equal(t, section.QueueNone, b.QueueState())
	assert.True(t, s.Enqueue(a, false))
}

func TestRunReportsPendingUploads(t *testing.T) {
	runner := &fakeRunner{pending: true}
	s := NewScheduler(runner, false)
	assert.True(t, s.Run())

	runner.pending = false
	assert.False(t, s.Run())
}
