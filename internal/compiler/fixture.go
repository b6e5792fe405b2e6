package compiler

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/fascicolo/internal/workflow"
)

//go:embed schema.cue
var schemaSource []byte

// Compiler turns CUE or YAML fixture sources into cases. Every source is
// unified with the embedded #Fixtures schema before decoding, so unknown
// fields, bad state codes and malformed times are rejected with a
// position.
type Compiler struct {
	ctx    *cue.Context
	schema cue.Value
}

// New builds a Compiler around the embedded schema.
func New() (*Compiler, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile fixture schema: %w", formatCUEError(err))
	}
	return &Compiler{
		ctx:    ctx,
		schema: schema.LookupPath(cue.ParsePath("#Fixtures")),
	}, nil
}

// CompileCUE compiles CUE fixture source.
//
//	cases: [{
//		id: "c1"
//		createdAt: "2026-01-15T09:00:00Z"
//		updatedAt: "2026-01-15T09:00:00Z"
//		workflow: overall: "S00"
//	}]
func (c *Compiler) CompileCUE(src []byte, filename string) ([]*workflow.Case, error) {
	v := c.ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return c.CompileValue(v)
}

// CompileYAML compiles YAML (or JSON) fixture source with the same
// top-level shape as CompileCUE.
func (c *Compiler) CompileYAML(src []byte, filename string) ([]*workflow.Case, error) {
	var doc any
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, &CompileError{Field: filename, Message: err.Error()}
	}
	if doc == nil {
		return nil, &CompileError{Field: filename, Message: "empty fixture file"}
	}
	v := c.ctx.Encode(doc)
	if err := v.Err(); err != nil {
		return nil, &CompileError{Field: filename, Message: err.Error()}
	}
	cases, err := c.CompileValue(v)
	if err != nil {
		var ce *CompileError
		if errors.As(err, &ce) && !ce.Pos.IsValid() && !strings.HasPrefix(ce.Message, filename) {
			ce.Message = filename + ": " + ce.Message
		}
		return nil, err
	}
	return cases, nil
}

// CompileValue unifies v with the schema and decodes its cases in
// source order.
func (c *Compiler) CompileValue(v cue.Value) ([]*workflow.Case, error) {
	unified := c.schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	list, err := unified.LookupPath(cue.ParsePath("cases")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	cases := []*workflow.Case{}
	for i := 0; list.Next(); i++ {
		item := list.Value()
		data, err := item.MarshalJSON()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var wc workflow.Case
		if err := json.Unmarshal(data, &wc); err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("cases[%d]", i),
				Message: err.Error(),
				Pos:     item.Pos(),
			}
		}
		cases = append(cases, &wc)
	}
	return cases, nil
}

// LoadPath compiles a fixture file or every fixture in a directory.
// A directory's .cue files form one CUE instance; each .yaml, .yml and
// .json file is compiled on its own. Cases keep file order.
func (c *Compiler) LoadPath(path string) ([]*workflow.Case, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat fixtures: %w", err)
	}
	if !info.IsDir() {
		return c.loadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures dir: %w", err)
	}

	var hasCUE bool
	var others []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".cue":
			hasCUE = true
		case ".yaml", ".yml", ".json":
			others = append(others, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(others)
	if !hasCUE && len(others) == 0 {
		return nil, fmt.Errorf("no fixture files found in %s", path)
	}

	cases := []*workflow.Case{}
	if hasCUE {
		got, err := c.loadInstance(path)
		if err != nil {
			return nil, err
		}
		cases = append(cases, got...)
	}
	for _, f := range others {
		got, err := c.loadFile(f)
		if err != nil {
			return nil, err
		}
		cases = append(cases, got...)
	}
	return cases, nil
}

func (c *Compiler) loadFile(path string) ([]*workflow.Case, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return c.CompileCUE(src, path)
	case ".yaml", ".yml", ".json":
		return c.CompileYAML(src, path)
	default:
		return nil, fmt.Errorf("unsupported fixture file %s", path)
	}
}

// loadInstance builds the CUE package in dir.
func (c *Compiler) loadInstance(dir string) ([]*workflow.Case, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}
	v := c.ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return c.CompileValue(v)
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	field := "cue"
	if path := firstErr.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   field,
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return &CompileError{Field: field, Message: firstErr.Error()}
}
