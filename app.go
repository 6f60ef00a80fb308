package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/chazu/instbake/pkg/bake"
	"github.com/chazu/instbake/pkg/engine"
	"github.com/chazu/instbake/pkg/scene"
)

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx    context.Context
	engine *engine.Engine
	logger *slog.Logger

	// mu serializes scene access: bakes move the scene's time cursor.
	mu    sync.Mutex
	setup *engine.Setup
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// LoadResult is returned to the frontend after a scene script is loaded.
type LoadResult struct {
	Instancers []string        `json:"instancers"`
	Start      float64         `json:"start"`
	End        float64         `json:"end"`
	Errors     []EvalErrorData `json:"errors"`
}

// BakeRequest is the panel state submitted with the bake button. Start,
// End and Step are the raw text of the panel's fields.
type BakeRequest struct {
	Instancers    []string `json:"instancers"`
	UseTimeSlider bool     `json:"useTimeSlider"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	Step          string   `json:"step"`
}

// UserInputError flags a panel field the frontend should blink.
type UserInputError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e UserInputError) Error() string {
	return e.Field + ": " + e.Message
}

// Panel field names reported in UserInputError.
const (
	FieldStart      = "start"
	FieldEnd        = "end"
	FieldStep       = "step"
	FieldInstancers = "instancers"
)

// BakeResult is the full result returned to the frontend.
type BakeResult struct {
	Reports []bake.Report    `json:"reports"`
	Invalid []UserInputError `json:"invalid"`
	Errors  []string         `json:"errors"`
}

var errNoScene = errors.New("no scene loaded")

// NewApp creates a new App with an engine and no scene.
func NewApp(logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		engine: engine.NewEngine(),
		logger: logger,
	}
}

// startup is called by Wails on app startup.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// LoadScene evaluates a scene script and makes it the current scene. On
// errors the previous scene is kept.
func (a *App) LoadScene(source string) LoadResult {
	result := LoadResult{
		Instancers: []string{},
		Errors:     []EvalErrorData{},
	}

	setup, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.logger.Error("evaluate failed", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	a.mu.Lock()
	a.setup = setup
	a.mu.Unlock()

	result.Instancers = append(result.Instancers, bake.Instancers(setup.Scene)...)
	result.Start, result.End = setup.Scene.PlaybackRange()
	a.logger.Info("scene loaded", "instancers", len(result.Instancers),
		"start", result.Start, "end", result.End)
	return result
}

// LoadSceneFile reads and loads the scene script at path.
func (a *App) LoadSceneFile(path string) (LoadResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("load scene: %w", err)
	}
	res := a.LoadScene(string(src))
	if len(res.Errors) > 0 {
		msgs := make([]string, len(res.Errors))
		for i, e := range res.Errors {
			msgs[i] = engine.EvalError{Line: e.Line, Col: e.Col, Message: e.Message}.Error()
		}
		return res, fmt.Errorf("%s: %s", path, strings.Join(msgs, "; "))
	}
	return res, nil
}

// ListInstancers returns the instancers of the current scene. It is the
// panel's refresh binding.
func (a *App) ListInstancers() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.setup == nil {
		return []string{}
	}
	return append([]string{}, bake.Instancers(a.setup.Scene)...)
}

// Bake validates the panel request and bakes every selected instancer in
// order. The first failing instancer stops the request.
func (a *App) Bake(req BakeRequest) BakeResult {
	result := BakeResult{
		Reports: []bake.Report{},
		Invalid: []UserInputError{},
		Errors:  []string{},
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.setup == nil {
		result.Errors = append(result.Errors, errNoScene.Error())
		return result
	}

	r, invalid := parseRequest(req, a.setup.Scene)
	if len(invalid) > 0 {
		for _, e := range invalid {
			a.logger.Warn("invalid bake request", "field", e.Field, "reason", e.Message)
		}
		result.Invalid = invalid
		return result
	}

	reports, err := a.bakeLocked(req.Instancers, r)
	for _, rep := range reports {
		result.Reports = append(result.Reports, *rep)
	}
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	return result
}

// BakeInstancers bakes instancers over r, or over the playback range when
// r is nil.
func (a *App) BakeInstancers(instancers []string, r *bake.Range) ([]*bake.Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.setup == nil {
		return nil, errNoScene
	}
	rng := bake.PlaybackRange(a.setup.Scene)
	if r != nil {
		rng = *r
	}
	return a.bakeLocked(instancers, rng)
}

func (a *App) bakeLocked(instancers []string, r bake.Range) ([]*bake.Report, error) {
	b := bake.New(a.setup.Scene, a.setup.Source(), bake.WithLogger(a.logger))
	var reports []*bake.Report
	for _, inst := range instancers {
		rep, err := b.Bake(inst, r)
		if err != nil {
			a.logger.Error("bake failed", "instancer", inst, "err", err)
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// Dump returns the hierarchy under path in the current scene.
func (a *App) Dump(path string) (*scene.DumpNode, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.setup == nil {
		return nil, errNoScene
	}
	return a.setup.Scene.Dump(path)
}

// parseRequest turns panel fields into a frame range. The explicit range
// takes non-negative integers with start < end; the step is any positive
// number.
func parseRequest(req BakeRequest, sc *scene.Scene) (bake.Range, []UserInputError) {
	var invalid []UserInputError
	r := bake.PlaybackRange(sc)

	if !req.UseTimeSlider {
		start, err := parseFrame(req.Start)
		if err != nil {
			invalid = append(invalid, UserInputError{Field: FieldStart, Message: err.Error()})
		}
		end, err := parseFrame(req.End)
		if err != nil {
			invalid = append(invalid, UserInputError{Field: FieldEnd, Message: err.Error()})
		}
		if len(invalid) == 0 && start >= end {
			invalid = append(invalid, UserInputError{Field: FieldEnd, Message: "end must be after start"})
		}
		r.Start, r.End = float64(start), float64(end)
	}

	if s := strings.TrimSpace(req.Step); s != "" {
		step, err := strconv.ParseFloat(s, 64)
		switch {
		case err != nil:
			invalid = append(invalid, UserInputError{Field: FieldStep, Message: "not a number"})
		case step <= 0:
			invalid = append(invalid, UserInputError{Field: FieldStep, Message: "must be positive"})
		default:
			r.Step = step
		}
	}

	if len(invalid) == 0 {
		if err := r.Validate(); err != nil {
			invalid = append(invalid, UserInputError{Field: FieldStep, Message: err.Error()})
		}
	}

	if len(req.Instancers) == 0 {
		invalid = append(invalid, UserInputError{Field: FieldInstancers, Message: "no instancer selected"})
	}
	return r, invalid
}

func parseFrame(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("required")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("not a whole frame number")
	}
	if n < 0 {
		return 0, errors.New("must not be negative")
	}
	return n, nil
}
