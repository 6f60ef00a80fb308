// Package engine evaluates scene scripts. A script is a zygomys Lisp
// program that declares source shapes, particle systems and instancers; the
// result is a populated scene together with the particle systems that feed
// its instancers.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/instbake/pkg/scene"
	"github.com/chazu/instbake/pkg/sim"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Setup is the product of a successful evaluation.
type Setup struct {
	Scene   *scene.Scene
	Systems []*sim.System
}

// Source returns a simulation query adapter over the setup's scene.
func (s *Setup) Source() *sim.SceneSource {
	return sim.NewSceneSource(s.Scene, s.Systems...)
}

// System returns the particle system with the given name, or nil.
func (s *Setup) System(name string) *sim.System {
	for _, sys := range s.Systems {
		if sys.Name == name {
			return sys
		}
	}
	return nil
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs a scene script.
//
// Return semantics:
//   - On success: returns setup + nil errors + nil error
//   - On parse/eval failure: returns nil setup + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Setup, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		setup, evalErrs, err := e.evaluate(source)
		ch <- evalResult{setup: setup, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

func (e *Engine) evaluate(source string) (*Setup, []EvalError, error) {
	setup := &Setup{Scene: scene.New()}
	if strings.TrimSpace(source) == "" {
		return setup, nil, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, setup)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return setup, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values,
// extracting line information when the message carries it.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
