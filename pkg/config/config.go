// Package config loads bake jobs from TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Job describes a headless bake run.
//
//	scene = "fountain.lisp"
//	instancers = ["instancer1"]
//	start = 1
//	end = 24
//	step = 1
//	log_level = "info"
//	output = "baked.json"
//
// Start and End default to the scene's playback range when both are zero.
type Job struct {
	Scene      string   `toml:"scene"`
	Instancers []string `toml:"instancers"`
	Start      float64  `toml:"start"`
	End        float64  `toml:"end"`
	Step       float64  `toml:"step"`
	Resume     bool     `toml:"resume"`
	LogLevel   string   `toml:"log_level"`
	Output     string   `toml:"output"`
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid job")

// Default returns a job with step 1 and info logging.
func Default() Job {
	return Job{Step: 1, LogLevel: "info"}
}

// Load reads and validates the job at path. A relative scene or output path
// is resolved against the job file's directory.
func Load(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("config: %w", err)
	}
	job, err := Parse(data)
	if err != nil {
		return Job{}, fmt.Errorf("config: %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	job.Scene = relativeTo(dir, job.Scene)
	job.Output = relativeTo(dir, job.Output)
	return job, nil
}

// Parse decodes a job from TOML, filling defaults for omitted keys.
// Unknown keys are rejected.
func Parse(data []byte) (Job, error) {
	job := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&job); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Job{}, fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return Job{}, err
	}
	if err := job.Validate(); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Validate checks the job's fields.
func (j Job) Validate() error {
	var errs []error
	if j.Scene == "" {
		errs = append(errs, fmt.Errorf("%w: scene is required", ErrInvalid))
	}
	if j.Step <= 0 {
		errs = append(errs, fmt.Errorf("%w: step must be positive, got %g", ErrInvalid, j.Step))
	}
	if j.End < j.Start {
		errs = append(errs, fmt.Errorf("%w: end %g before start %g", ErrInvalid, j.End, j.Start))
	}
	if j.Start < 0 || j.End < 0 {
		errs = append(errs, fmt.Errorf("%w: frames must be non-negative", ErrInvalid))
	}
	if _, err := ParseLevel(j.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// HasRange reports whether the job names an explicit frame range.
func (j Job) HasRange() bool {
	return j.Start != 0 || j.End != 0
}

// ParseLevel maps a log level name to a slog level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if name == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, name)
	}
	return l, nil
}

func relativeTo(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
