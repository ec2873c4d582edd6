// Package api provides the public API for the shader cross-compiler.
//
// This package is intended for programmatic use of the compiler.
// For CLI usage, see cmd/shadercross.
package api

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/generator"
	"github.com/HugoDaniel/shadercross/internal/parser"
	"github.com/HugoDaniel/shadercross/internal/preprocess"
	"github.com/HugoDaniel/shadercross/internal/reflect"
	"github.com/HugoDaniel/shadercross/internal/shader"
)

// CompileOptions controls compilation.
type CompileOptions struct {
	// Targets names the output languages: "hlsl", "glsl", "metal" and
	// "default". Empty means hlsl, glsl and metal.
	Targets []string

	// Toolchain is the C preprocessor run on files: "none", "gcc",
	// "clang" or "msvc". Sources passed to CompileSource are never
	// preprocessed.
	Toolchain string

	// IncludeDirs are passed to the preprocessor.
	IncludeDirs []string

	// GLSLVersion is the #version of generated GLSL: 330, 400 to 460, or
	// 300, 310 and 320 for ES. 0 means 450.
	GLSLVersion int

	// HLSLSystemValues emits SV_Position, SV_Target and SV_Depth in HLSL.
	HLSLSystemValues bool

	// Reflect fills CompileResult.Reflection.
	Reflect bool

	// Jobs limits how many files CompileFiles compiles at once. 0 means
	// the CPU count.
	Jobs int

	// Logger receives debug progress. Nil means slog.Default().
	Logger *slog.Logger
}

// CompileResult contains the compilation output for one shader.
type CompileResult struct {
	// Name is the shader name, derived from its path.
	Name string `json:"name"`

	// Outputs maps target name to stage name to generated source. Stages
	// without an entry point are absent.
	Outputs map[string]map[string]string `json:"outputs"`

	// Reflection holds binding information when requested.
	Reflection *ReflectResult `json:"reflection,omitempty"`

	// Errors contains the formatted compile error, with source context.
	// If non-empty, Outputs is empty.
	Errors []string `json:"errors,omitempty"`
}

// ReflectResult contains binding, layout and entry point information.
type ReflectResult = reflect.Result

// CompileSource compiles already preprocessed source held in memory.
// name identifies the shader in errors and in the result.
func CompileSource(name, source string, opts CompileOptions) CompileResult {
	shaderOpts, err := opts.shaderOptions()
	if err != nil {
		return CompileResult{Name: shader.Name(name), Errors: []string{err.Error()}}
	}
	s, err := shader.CompileSource(context.Background(), name, source, shaderOpts)
	return opts.result(name, s, err)
}

// CompileShader preprocesses and compiles the file at path.
func CompileShader(ctx context.Context, path string, opts CompileOptions) CompileResult {
	shaderOpts, err := opts.shaderOptions()
	if err != nil {
		return CompileResult{Name: shader.Name(path), Errors: []string{err.Error()}}
	}
	s, err := shader.Compile(ctx, path, shaderOpts)
	return opts.result(path, s, err)
}

// CompileFiles compiles paths in parallel, at most opts.Jobs at a time.
// Results are in input order. Compilation stops at the first failing file;
// its error is returned along with the results gathered so far.
func CompileFiles(ctx context.Context, paths []string, opts CompileOptions) ([]CompileResult, error) {
	shaderOpts, err := opts.shaderOptions()
	if err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([]CompileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			s, err := shader.Compile(ctx, path, shaderOpts)
			results[i] = opts.result(path, s, err)
			return err
		})
	}
	err = g.Wait()
	return results, err
}

// Reflect extracts binding, layout and entry point information from
// source without generating any output.
func Reflect(source string) (*ReflectResult, error) {
	prog, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	return reflect.Reflect(prog), nil
}

func (opts *CompileOptions) shaderOptions() (shader.Options, error) {
	names := opts.Targets
	if len(names) == 0 {
		names = []string{"hlsl", "glsl", "metal"}
	}
	var targets []generator.Target
	for _, name := range names {
		t, err := generator.ParseTarget(name)
		if err != nil {
			return shader.Options{}, err
		}
		targets = append(targets, t)
	}

	toolchain, err := preprocess.ParseToolchain(opts.Toolchain)
	if err != nil {
		return shader.Options{}, err
	}
	if err := generator.CheckGLSLVersion(opts.GLSLVersion); err != nil {
		return shader.Options{}, err
	}

	return shader.Options{
		Targets:     targets,
		Toolchain:   toolchain,
		IncludeDirs: opts.IncludeDirs,
		Generator: generator.Options{
			SystemValues: opts.HLSLSystemValues,
			GLSLVersion:  opts.GLSLVersion,
		},
		Logger: opts.Logger,
	}, nil
}

func (opts *CompileOptions) result(path string, s *shader.Shader, err error) CompileResult {
	result := CompileResult{Name: shader.Name(path)}
	if err != nil {
		var compileErr *shader.Error
		if errors.As(err, &compileErr) {
			result.Errors = []string{compileErr.Detail()}
		} else {
			result.Errors = []string{err.Error()}
		}
		return result
	}

	result.Outputs = make(map[string]map[string]string)
	for _, target := range generator.Targets {
		for _, stage := range ast.Stages {
			out := s.Output(target, stage)
			if out == "" {
				continue
			}
			if result.Outputs[target.String()] == nil {
				result.Outputs[target.String()] = make(map[string]string)
			}
			result.Outputs[target.String()][stage.String()] = out
		}
	}
	if opts.Reflect {
		result.Reflection = reflect.Reflect(s.Program)
	}
	return result
}
