// Package hcl provides the concrete HCL implementation for loading workload
// files into the format-agnostic config model. It is responsible for file
// discovery, parsing, expression evaluation, and HCL-to-model translation.
package hcl

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
)

// fileSchema is the gohcl binding for a workload file.
type fileSchema struct {
	Tasks []*taskBlock `hcl:"task,block"`
}

type taskBlock struct {
	Name            string   `hcl:"name,label"`
	Command         []string `hcl:"command"`
	DependsOn       []string `hcl:"depends_on,optional"`
	Exclusive       []string `hcl:"exclusive,optional"`
	RequireEnv      []string `hcl:"require_env,optional"`
	AllowFailedDeps bool     `hcl:"allow_failed_deps,optional"`
	Timeout         string   `hcl:"timeout,optional"`
}

// Loader parses HCL workload files.
type Loader struct{}

// NewLoader creates an HCL workload loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the workload at path, which may be a single .hcl file or a
// directory searched recursively for .hcl files, and translates it into the
// config model. Expressions in the files may reference process environment
// variables through the `env` object.
func (l *Loader) Load(ctx context.Context, path string) (*config.Workload, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findWorkloadFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl workload files found at %q", path)
	}
	logger.Debug("Found workload files.", "count", len(files), "files", files)

	parser := hclparse.NewParser()
	evalCtx := buildEvalContext()
	workload := &config.Workload{}

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		var schema fileSchema
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &schema); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}

		for _, block := range schema.Tasks {
			t, err := translateTask(block)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			workload.Tasks = append(workload.Tasks, t)
		}
	}

	logger.Debug("Workload translated into unified model.", "task_count", len(workload.Tasks))
	return workload, nil
}

// translateTask converts an HCL block into the agnostic model.
func translateTask(block *taskBlock) (*config.Task, error) {
	t := &config.Task{
		Name:            block.Name,
		Command:         block.Command,
		DependsOn:       block.DependsOn,
		Exclusive:       block.Exclusive,
		RequireEnv:      block.RequireEnv,
		AllowFailedDeps: block.AllowFailedDeps,
	}
	if block.Timeout != "" {
		d, err := time.ParseDuration(block.Timeout)
		if err != nil {
			return nil, fmt.Errorf("task %q: invalid timeout %q: %w", block.Name, block.Timeout, err)
		}
		t.Timeout = d
	}
	return t, nil
}

// buildEvalContext exposes the process environment to workload expressions
// as the `env` object, e.g. command = ["sh", "-c", env.BUILD_SCRIPT].
func buildEvalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	envVal := cty.EmptyObjectVal
	if len(vars) > 0 {
		envVal = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envVal},
	}
}

// findWorkloadFiles resolves path to the list of .hcl files it denotes: the
// file itself, or every .hcl file under the directory, recursively.
func findWorkloadFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".hcl") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
