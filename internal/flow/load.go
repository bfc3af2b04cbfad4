package flow

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

var (
	schemaOnce sync.Once
	schemaVal  cue.Value
	schemaErr  error
)

// workflowSchema compiles the embedded CUE schema once and returns the
// #Workflow definition.
func workflowSchema() (cue.Value, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile workflow schema: %w", err)
			return
		}
		schemaVal = v.LookupPath(cue.ParsePath("#Workflow"))
		if err := schemaVal.Err(); err != nil {
			schemaErr = fmt.Errorf("lookup #Workflow: %w", err)
		}
	})
	return schemaVal, schemaErr
}

// Parse decodes a workflow document (YAML or JSON; JSON is a subset of
// YAML), validates it against the CUE schema, and applies the per-kind
// parameter checks.
func Parse(data []byte) (*Workflow, error) {
	// Decode once into a generic tree for schema validation.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode workflow document: %w", err)
	}

	schema, err := workflowSchema()
	if err != nil {
		return nil, err
	}
	doc := schema.Context().Encode(raw)
	if err := doc.Err(); err != nil {
		return nil, fmt.Errorf("encode workflow document: %w", err)
	}
	if err := schema.Unify(doc).Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("workflow document does not match schema: %w", err)
	}

	// Decode again into the typed model.
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	if err := Validate(&wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// Load reads and parses a single workflow file.
func Load(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}
	wf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wf, nil
}

// LoadDir loads every *.yaml, *.yml, and *.json workflow in a directory,
// sorted by filename for a deterministic registration order.
func LoadDir(dir string) ([]*Workflow, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read workflow directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	workflows := make([]*Workflow, 0, len(names))
	for _, name := range names {
		wf, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, nil
}
