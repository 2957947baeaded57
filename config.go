package chunks

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

var ErrInvalidOptions = errors.New("invalid chunk render options")

const (
	MaxRenderDistance = 64
	configEnv         = "CHUNKS_CONFIG"
)

// Options is read once at startup and snapshotted at the start of every frame.
type Options struct {
	// RenderDistance is the horizontal view radius in sections.
	RenderDistance   int  `yaml:"render_distance"`
	FaceCulling      bool `yaml:"face_culling"`
	FogCulling       bool `yaml:"fog_culling"`
	OcclusionCulling bool `yaml:"occlusion_culling"`

	Workers          int  `yaml:"workers"`
	TasksPerWorker   int  `yaml:"tasks_per_worker"`
	SchedulingBudget int  `yaml:"scheduling_budget"`
	RequireNeighbors bool `yaml:"require_neighbors"`

	Debug bool `yaml:"debug"`
}

func DefaultOptions() Options {
	return Options{
		RenderDistance:   8,
		FaceCulling:      true,
		OcclusionCulling: true,
		Workers:          max(1, runtime.NumCPU()-1),
		TasksPerWorker:   2,
	}
}

// LoadOptions reads YAML options on top of the defaults. An empty path falls back to
// $CHUNKS_CONFIG; with neither set the defaults are returned.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	if path == "" {
		path = os.Getenv(configEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return opts, fmt.Errorf("read options: %w", err)
		}
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return opts, fmt.Errorf("parse options %s: %w", path, err)
		}
	}

	opts.Workers = intWithEnvFallback(opts.Workers, "CHUNKS_WORKERS")
	opts.RenderDistance = intWithEnvFallback(opts.RenderDistance, "CHUNKS_RENDER_DISTANCE")

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// intWithEnvFallback lets an environment variable override a configured value.
func intWithEnvFallback(value int, env string) int {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return value
}

func (o Options) Validate() error {
	switch {
	case o.RenderDistance < 1 || o.RenderDistance > MaxRenderDistance:
		return fmt.Errorf("%w: render_distance %d not in [1, %d]", ErrInvalidOptions, o.RenderDistance, MaxRenderDistance)
	case o.Workers < 0:
		return fmt.Errorf("%w: workers %d", ErrInvalidOptions, o.Workers)
	case o.TasksPerWorker < 1:
		return fmt.Errorf("%w: tasks_per_worker %d", ErrInvalidOptions, o.TasksPerWorker)
	case o.SchedulingBudget < 0:
		return fmt.Errorf("%w: scheduling_budget %d", ErrInvalidOptions, o.SchedulingBudget)
	}
	return nil
}
