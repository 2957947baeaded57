// Package build schedules section mesh builds and hands completed results back to the
// frame goroutine.
package build

import (
	"context"
	"errors"

	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/gekko3d/chunks/chunkrt/rt/section"
	"github.com/gekko3d/chunks/chunkrt/rt/world"
	"github.com/google/uuid"
)

var ErrStopped = errors.New("build: builder stopped")

// Mesher turns a block snapshot into render data and per-pass geometry.
// It is called from worker goroutines and must not retain the snapshot.
type Mesher interface {
	Build(ctx context.Context, snap *world.Snapshot) (*Output, error)
}

type Output struct {
	Data   *section.RenderData
	Meshes [core.PassCount]*core.MeshData
}

// Task is the immutable input of one build.
type Task struct {
	ID       int
	Token    uuid.UUID
	Seq      uint64
	Pos      core.SectionPos
	Snapshot *world.Snapshot
}

type Result struct {
	ID     int
	Token  uuid.UUID
	Seq    uint64
	Pos    core.SectionPos
	Output *Output
	Err    error
}

// Upload pairs a live render with the geometry of its newest build.
type Upload struct {
	Render *section.Render
	Meshes [core.PassCount]*core.MeshData
}

// Uploader turns build geometry into graphics states on the render.
type Uploader interface {
	Upload(uploads []Upload) error
}

// Future yields the result of an asynchronously submitted task.
type Future struct {
	ch   chan Result
	res  Result
	done bool
}

func newFuture() *Future {
	return &Future{ch: make(chan Result, 1)}
}

// Wait blocks until the result is available. Later calls return the same result.
func (f *Future) Wait() Result {
	if !f.done {
		f.res = <-f.ch
		f.done = true
	}
	return f.res
}

type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}
