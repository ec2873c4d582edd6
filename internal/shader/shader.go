// Package shader compiles one shader source file into per-stage, per-target
// source text and packs compiled shaders into binary blobs.
package shader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/diagnostic"
	"github.com/HugoDaniel/shadercross/internal/generator"
	"github.com/HugoDaniel/shadercross/internal/optimizer"
	"github.com/HugoDaniel/shadercross/internal/parser"
	"github.com/HugoDaniel/shadercross/internal/preprocess"
	"github.com/HugoDaniel/shadercross/internal/validator"
)

// Options controls compilation.
type Options struct {
	// Targets lists the outputs to generate. Empty means every target.
	Targets []generator.Target

	// Toolchain preprocesses the file before parsing.
	Toolchain preprocess.Toolchain

	// IncludeDirs are passed to the preprocessor as include paths.
	IncludeDirs []string

	// Generator is passed to every target generator.
	Generator generator.Options

	// Logger receives progress at debug level. Nil means slog.Default().
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) targets() []generator.Target {
	if len(o.Targets) > 0 {
		return o.Targets
	}
	return generator.Targets[:]
}

// Shader is one compiled source file.
type Shader struct {
	Name    string
	Path    string
	Program *ast.Program

	// Outputs holds the generated text per target and stage. Stages without
	// an entry point and targets not requested stay empty.
	Outputs [generator.TargetCount][ast.StageCount]string
}

// HasStage reports whether the shader defines an entry point for stage.
func (s *Shader) HasStage(stage ast.Stage) bool {
	return s.Program.EntryPoint(stage) != ast.NoFunction
}

// Output returns the generated text for target and stage.
func (s *Shader) Output(target generator.Target, stage ast.Stage) string {
	return s.Outputs[target][stage]
}

// Name derives a shader name from its file path: the base name without
// extension.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Error is a compile failure in one file. It keeps the source so the
// failure can be shown in context.
type Error struct {
	Path   string
	Source string
	Err    error
}

func (e *Error) Error() string {
	if d, ok := diagnostic.FromError(e.Err, e.Path, e.Source); ok {
		return d.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Detail renders the failure with the offending source line and a caret
// when the error carries a position.
func (e *Error) Detail() string {
	d, ok := diagnostic.FromError(e.Err, e.Path, e.Source)
	if !ok {
		return e.Error() + "\n"
	}
	return diagnostic.NewDiagnosticList(e.Path, e.Source).FormatDiagnostic(d)
}

// Compile preprocesses, parses, validates and generates the shader at
// path. It stops at the first error.
func Compile(ctx context.Context, path string, opts Options) (*Shader, error) {
	source, err := preprocess.Run(ctx, opts.Toolchain, path, opts.IncludeDirs)
	if err != nil {
		return nil, err
	}
	return CompileSource(ctx, path, source, opts)
}

// CompileSource compiles already preprocessed source. path names the
// shader and is used in error messages.
func CompileSource(ctx context.Context, path, source string, opts Options) (*Shader, error) {
	log := opts.logger().With("shader", path)

	prog, err := parser.Parse(source)
	if err != nil {
		return nil, &Error{Path: path, Source: source, Err: err}
	}
	if err := validator.Validate(prog); err != nil {
		return nil, &Error{Path: path, Source: source, Err: err}
	}

	s := &Shader{Name: Name(path), Path: path, Program: prog}

	// Stages share the program's Seen flags, so they run one at a time.
	for _, stage := range ast.Stages {
		if !s.HasStage(stage) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stats, err := optimizer.Optimize(prog, stage)
		if err != nil {
			return nil, &Error{Path: path, Source: source, Err: err}
		}
		log.Debug("optimized", "stage", stage, "functions", stats.Functions, "types", stats.Types, "textures", stats.Textures)

		for _, target := range opts.targets() {
			out, err := generator.Generate(prog, stage, target, opts.Generator)
			if err != nil {
				return nil, &Error{Path: path, Source: source, Err: fmt.Errorf("%s %s: %w", stage, target, err)}
			}
			s.Outputs[target][stage] = out
			log.Debug("generated", "stage", stage, "target", target, "bytes", len(out))
		}
	}

	return s, nil
}

// IsCompileError reports whether err is a failure in shader source rather
// than in the environment (a missing file or preprocessor).
func IsCompileError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
