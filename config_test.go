package chunks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOptions(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOptionsDefaults(t *testing.T) {
	t.Setenv(configEnv, "")
	t.Setenv("CHUNKS_WORKERS", "")
	t.Setenv("CHUNKS_RENDER_DISTANCE", "")

	opts, err := LoadOptions("")
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)
}

func TestLoadOptionsFile(t *testing.T) {
	t.Setenv("CHUNKS_WORKERS", "")
	t.Setenv("CHUNKS_RENDER_DISTANCE", "")
	path := writeOptions(t, `
render_distance: 12
face_culling: false
fog_culling: true
workers: 3
scheduling_budget: 5
require_neighbors: true
`)

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, 12, opts.RenderDistance)
	assert.False(t, opts.FaceCulling)
	assert.True(t, opts.FogCulling)
	assert.True(t, opts.OcclusionCulling, "unset keys keep their defaults")
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, 2, opts.TasksPerWorker)
	assert.Equal(t, 5, opts.SchedulingBudget)
	assert.True(t, opts.RequireNeighbors)
}

func TestLoadOptionsEnv(t *testing.T) {
	path := writeOptions(t, "render_distance: 12\nworkers: 3\n")
	t.Setenv(configEnv, path)
	t.Setenv("CHUNKS_WORKERS", "0")
	t.Setenv("CHUNKS_RENDER_DISTANCE", "bogus")

	opts, err := LoadOptions("")
	require.NoError(t, err)
	assert.Equal(t, 0, opts.Workers)
	assert.Equal(t, 12, opts.RenderDistance)
}

func TestLoadOptionsErrors(t *testing.T) {
	t.Setenv("CHUNKS_WORKERS", "")
	t.Setenv("CHUNKS_RENDER_DISTANCE", "")

	_, err := LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadOptions(writeOptions(t, "render_distance: [1"))
	assert.Error(t, err)

	_, err = LoadOptions(writeOptions(t, "render_distance: 500\n"))
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		ok     bool
	}{
		{"defaults", func(*Options) {}, true},
		{"inline workers", func(o *Options) { o.Workers = 0 }, true},
		{"zero distance", func(o *Options) { o.RenderDistance = 0 }, false},
		{"too far", func(o *Options) { o.RenderDistance = MaxRenderDistance + 1 }, false},
		{"negative workers", func(o *Options) { o.Workers = -1 }, false},
		{"no tasks per worker", func(o *Options) { o.TasksPerWorker = 0 }, false},
		{"negative budget", func(o *Options) { o.SchedulingBudget = -2 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidOptions)
			}
		})
	}
}
