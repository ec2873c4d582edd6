package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/config"
	"github.com/HugoDaniel/shadercross/internal/generator"
	"github.com/HugoDaniel/shadercross/internal/reflect"
	"github.com/HugoDaniel/shadercross/internal/shader"
)

// SourceExt is the extension directories are searched for.
const SourceExt = ".shader"

// DumpExt names the default dialect dump, "<name>.generated.shdr".
const DumpExt = ".generated.shdr"

var targetExt = [generator.TargetCount]string{
	generator.TargetHLSL:  "hlsl",
	generator.TargetGLSL:  "glsl",
	generator.TargetMetal: "metal",
}

// discover expands args into a sorted list of shader files. Files are
// taken as given; directories contribute every SourceExt file below them.
func discover(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == SourceExt {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(paths)
	paths = slices.Compact(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s files found", SourceExt)
	}

	seen := make(map[string]string)
	for _, path := range paths {
		name := shader.Name(path)
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("shaders %s and %s have the same name %q", prev, path, name)
		}
		seen[name] = path
	}
	return paths, nil
}

// compileAll compiles every path with at most settings.Jobs running at
// once. The first failure cancels the rest. Shaders come back in path
// order.
func compileAll(ctx context.Context, paths []string, settings config.Settings, log *slog.Logger) ([]*shader.Shader, error) {
	opts := shader.Options{
		Targets:     settings.Targets,
		Toolchain:   settings.Toolchain,
		IncludeDirs: settings.IncludeDirs,
		Generator:   settings.Generator,
		Logger:      log,
	}

	shaders := make([]*shader.Shader, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(settings.Jobs)
	for i, path := range paths {
		g.Go(func() error {
			s, err := shader.Compile(ctx, path, opts)
			if err != nil {
				return err
			}
			shaders[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return shaders, nil
}

// writeOutputs writes one blob per target, the per-stage sources and the
// optional reflection files. The default dialect only gets its debug dump.
// It returns the number of files written.
func writeOutputs(settings config.Settings, blobName string, shaders []*shader.Shader) (int, error) {
	written := 0
	write := func(path string, data []byte) error {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		written++
		return nil
	}

	for _, target := range settings.Targets {
		if target == generator.TargetDefault {
			for _, s := range shaders {
				if err := write(filepath.Join(settings.OutDir, s.Name+DumpExt), []byte(dump(s))); err != nil {
					return written, err
				}
			}
			continue
		}

		blob, err := shader.EncodeBlob(shaders, target)
		if err != nil {
			return written, err
		}
		if err := write(filepath.Join(settings.OutDir, fmt.Sprintf("%s.%s.bin", blobName, target)), blob); err != nil {
			return written, err
		}

		for _, s := range shaders {
			for _, stage := range ast.Stages {
				out := s.Output(target, stage)
				if out == "" {
					continue
				}
				name := fmt.Sprintf("%s.%s.%s", s.Name, stage, targetExt[target])
				if err := write(filepath.Join(settings.OutDir, target.String(), name), []byte(out)); err != nil {
					return written, err
				}
			}
		}
	}

	if settings.Reflect {
		for _, s := range shaders {
			data, err := reflect.Reflect(s.Program).JSON()
			if err != nil {
				return written, err
			}
			if err := write(filepath.Join(settings.OutDir, s.Name+".reflect.json"), append(data, '\n')); err != nil {
				return written, err
			}
		}
	}

	return written, nil
}

// dump joins the default dialect output of every stage of s.
func dump(s *shader.Shader) string {
	var sb strings.Builder
	for _, stage := range ast.Stages {
		out := s.Output(generator.TargetDefault, stage)
		if out == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "// %s\n", stage)
		sb.WriteString(out)
	}
	return sb.String()
}
