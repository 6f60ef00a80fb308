package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	job, err := Parse([]byte(`
scene = "fountain.lisp"
instancers = ["instancer1", "instancer2"]
start = 1
end = 24
step = 0.5
resume = true
log_level = "debug"
output = "out.json"
`))
	require.NoError(t, err)
	assert.Equal(t, Job{
		Scene:      "fountain.lisp",
		Instancers: []string{"instancer1", "instancer2"},
		Start:      1,
		End:        24,
		Step:       0.5,
		Resume:     true,
		LogLevel:   "debug",
		Output:     "out.json",
	}, job)
	assert.True(t, job.HasRange())
}

func TestParseDefaults(t *testing.T) {
	job, err := Parse([]byte(`scene = "a.lisp"`))
	require.NoError(t, err)
	assert.Equal(t, 1.0, job.Step)
	assert.Equal(t, "info", job.LogLevel)
	assert.False(t, job.HasRange())
	assert.Empty(t, job.Instancers)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing scene", `step = 1`},
		{"zero step", "scene = \"a\"\nstep = 0"},
		{"inverted range", "scene = \"a\"\nstart = 10\nend = 2"},
		{"negative frames", "scene = \"a\"\nstart = -3\nend = 2"},
		{"bad level", "scene = \"a\"\nlog_level = \"loud\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("scene = \"a\"\nframes = 3"))
	assert.Error(t, err)
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse([]byte("scene = "))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestLoadResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.toml")
	require.NoError(t, os.WriteFile(path, []byte("scene = \"scene.lisp\"\noutput = \"/tmp/out.json\"\n"), 0o644))

	job, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scene.lisp"), job.Scene)
	assert.Equal(t, "/tmp/out.json", job.Output)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)
	l, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, l)
}
