package build

import (
	"github.com/gammazero/deque"
	"github.com/gekko3d/chunks/chunkrt/rt/section"
	"github.com/go-gl/mathgl/mgl32"
)

// NearbySectionDistance is the squared block distance under which a section is always
// rebuilt urgently and asynchronously.
const NearbySectionDistance = 48.0 * 48.0

// Runner executes the builds the scheduler selects. Builder implements it.
type Runner interface {
	ScheduleAsync(r *section.Render) *Future
	Defer(r *section.Render) bool
	Budget() int
	PerformPendingUploads() bool
	UploadFutures(futures []*Future) bool
}

// RunStats describes the last Run.
type RunStats struct {
	Async     int
	Deferred  int
	Skipped   int
	Remaining int
}

// Scheduler owns the urgent and normal rebuild queues.
type Scheduler struct {
	runner           Runner
	requireNeighbors bool

	urgent deque.Deque[*section.Render]
	normal deque.Deque[*section.Render]

	camera  mgl32.Vec3
	futures []*Future
	stats   RunStats
}

func NewScheduler(runner Runner, requireNeighbors bool) *Scheduler {
	return &Scheduler{runner: runner, requireNeighbors: requireNeighbors}
}

func (s *Scheduler) SetCamera(p mgl32.Vec3) {
	s.camera = p
}

func (s *Scheduler) Camera() mgl32.Vec3 {
	return s.camera
}

func (s *Scheduler) SetRequireNeighbors(v bool) {
	s.requireNeighbors = v
}

func (s *Scheduler) IsNearby(r *section.Render) bool {
	return r.SquaredDistance(s.camera) <= NearbySectionDistance
}

// Enqueue adds r to the queue matching its urgency. Nearby sections are always urgent.
// A render already queued at the same or higher urgency is ignored.
func (s *Scheduler) Enqueue(r *section.Render, important bool) bool {
	urgent := important || s.IsNearby(r)

	switch r.QueueState() {
	case section.QueueUrgent:
		return false
	case section.QueueNormal:
		if !urgent {
			return false
		}
	}

	if urgent {
		r.SetQueueState(section.QueueUrgent)
		s.urgent.PushBack(r)
	} else {
		r.SetQueueState(section.QueueNormal)
		s.normal.PushBack(r)
	}
	return true
}

// Reset empties both queues.
func (s *Scheduler) Reset() {
	for s.urgent.Len() > 0 {
		s.urgent.PopFront().SetQueueState(section.QueueNone)
	}
	for s.normal.Len() > 0 {
		s.normal.PopFront().SetQueueState(section.QueueNone)
	}
}

func (s *Scheduler) UrgentLen() int { return s.urgent.Len() }
func (s *Scheduler) NormalLen() int { return s.normal.Len() }

func (s *Scheduler) Stats() RunStats {
	return s.stats
}

// Run submits this frame's builds and applies whatever finished. It reports whether
// any work was done.
func (s *Scheduler) Run() bool {
	s.stats = RunStats{}
	s.futures = s.futures[:0]
	budget := s.runner.Budget()
	submitted := 0

	for s.urgent.Len() > 0 {
		r := s.urgent.PopFront()
		r.SetQueueState(section.QueueNone)

		if !r.CanRebuild(s.requireNeighbors) {
			s.stats.Skipped++
			continue
		}

		if s.IsNearby(r) {
			if f := s.runner.ScheduleAsync(r); f != nil {
				s.futures = append(s.futures, f)
				s.stats.Async++
			}
		} else if s.runner.Defer(r) {
			s.stats.Deferred++
		}
		submitted++
	}

	for submitted < budget && s.normal.Len() > 0 {
		r := s.normal.PopFront()
		if r.QueueState() != section.QueueNormal {
			// promoted and handled through the urgent queue
			continue
		}
		r.SetQueueState(section.QueueNone)

		if !r.CanRebuild(s.requireNeighbors) {
			s.stats.Skipped++
			continue
		}
		if s.runner.Defer(r) {
			s.stats.Deferred++
		}
		submitted++
	}
	s.stats.Remaining = s.normal.Len()

	didWork := submitted > 0
	if s.runner.PerformPendingUploads() {
		didWork = true
	}
	if s.runner.UploadFutures(s.futures) {
		didWork = true
	}
	for i := range s.futures {
		s.futures[i] = nil
	}
	s.futures = s.futures[:0]

	return didWork
}
