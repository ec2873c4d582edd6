// Command shadercross cross-compiles shaders to HLSL, GLSL and Metal.
//
// Usage:
//
//	shadercross [options] <file.shader | dir>...
//
// Directories are searched recursively for .shader files. Every shader is
// compiled in parallel; the first failure stops the build and nothing is
// written.
//
// Options:
//
//	-o <dir>               Output directory (default: config outDir or .)
//	-config <file>         Use specific config file
//	-no-config             Ignore config files
//	-targets <list>        Comma-separated targets: hlsl,glsl,metal,default
//	-dump-default          Also emit the default dialect
//	-toolchain <name>      Preprocessor: none, gcc, clang, msvc
//	-I <dir>               Add a preprocessor include directory (repeatable)
//	-glsl-version <n>      GLSL #version: 330, 400-460, or 300, 310, 320 for ES
//	-hlsl-sv               Emit SV_ semantics in HLSL
//	-j <n>                 Compile at most n shaders at once
//	-reflect               Write <name>.reflect.json per shader
//	-blob <name>           Blob file prefix (default: shaders)
//	-v                     Verbose logging
//	-version               Print version and exit
//
// Outputs, for each of the hlsl, glsl and metal targets T:
//
//	<out>/<blob>.T.bin                 every shader's stages packed in one blob
//	<out>/T/<name>.<stage>.<ext>       one source file per shader stage
//
// The default dialect is a debug dump, written as <out>/<name>.generated.shdr
// with every stage of the shader in one file.
//
// Config file:
//
//	shadercross looks for shadercross.json or .shadercrossrc in the current
//	directory and parent directories. Config file options are overridden by
//	CLI flags.
//
// Example shadercross.json:
//
//	{
//	    "targets": ["hlsl", "metal"],
//	    "outDir": "build/shaders",
//	    "toolchain": "clang",
//	    "includeDirs": ["include"],
//	    "glslVersion": 450,
//	    "jobs": 4
//	}
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/HugoDaniel/shadercross/internal/config"
	"github.com/HugoDaniel/shadercross/internal/shader"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		var compileErr *shader.Error
		if errors.As(err, &compileErr) {
			fmt.Fprint(os.Stderr, compileErr.Detail())
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("shadercross", flag.ContinueOnError)

	// Flags
	var (
		outDir           string
		configFile       string
		noConfig         bool
		targets          string
		dumpDefault      bool
		toolchain        string
		includeDirs      stringList
		glslVersion      int
		hlslSystemValues bool
		jobs             int
		reflectJSON      bool
		blobName         string
		verbose          bool
		showVersion      bool
	)

	fs.StringVar(&outDir, "o", "", "Output `dir`")
	fs.StringVar(&configFile, "config", "", "Use specific config `file`")
	fs.BoolVar(&noConfig, "no-config", false, "Ignore config files")
	fs.StringVar(&targets, "targets", "", "Comma-separated `targets`: hlsl,glsl,metal,default")
	fs.BoolVar(&dumpDefault, "dump-default", false, "Also emit the default dialect")
	fs.StringVar(&toolchain, "toolchain", "", "Preprocessor: none, gcc, clang, msvc")
	fs.Var(&includeDirs, "I", "Add a preprocessor include `dir`")
	fs.IntVar(&glslVersion, "glsl-version", 0, "GLSL #version")
	fs.BoolVar(&hlslSystemValues, "hlsl-sv", false, "Emit SV_ semantics in HLSL")
	fs.IntVar(&jobs, "j", 0, "Compile at most `n` shaders at once")
	fs.BoolVar(&reflectJSON, "reflect", false, "Write reflection JSON per shader")
	fs.StringVar(&blobName, "blob", "shaders", "Blob file `prefix`")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "shadercross - shader cross-compiler v%s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: shadercross [options] <file.shader | dir>...\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nConfig file:\n")
		fmt.Fprintf(os.Stderr, "  Searches for shadercross.json or .shadercrossrc in current and parent directories.\n")
		fmt.Fprintf(os.Stderr, "  CLI flags override config file settings.\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  shadercross -o build shaders/\n")
		fmt.Fprintf(os.Stderr, "  shadercross -targets glsl -glsl-version 310 sprite.shader\n")
		fmt.Fprintf(os.Stderr, "  shadercross -toolchain clang -I include -reflect shaders/\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("shadercross v%s (%s)\n", version, commit)
		return nil
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no input specified")
	}

	// Load config file
	var cfg *config.Config
	if !noConfig {
		var err error
		if configFile != "" {
			cfg, err = config.LoadFile(configFile)
			if err != nil {
				return fmt.Errorf("loading config file %s: %w", configFile, err)
			}
			log.Debug("using config", "path", configFile)
		} else {
			startDir, _ := os.Getwd()
			var configPath string
			cfg, configPath, err = config.Load(startDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if configPath != "" {
				log.Debug("using config", "path", configPath)
			}
		}
	}

	// Build CLI overrides - only set if explicitly specified
	cliOpts := config.MergeOptions{
		OutDir:      outDir,
		Toolchain:   toolchain,
		IncludeDirs: includeDirs,
	}
	if targets != "" {
		for _, t := range strings.Split(targets, ",") {
			cliOpts.Targets = append(cliOpts.Targets, strings.TrimSpace(t))
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dump-default":
			cliOpts.DumpDefault = &dumpDefault
		case "glsl-version":
			cliOpts.GLSLVersion = &glslVersion
		case "hlsl-sv":
			cliOpts.HLSLSystemValues = &hlslSystemValues
		case "j":
			cliOpts.Jobs = &jobs
		case "reflect":
			cliOpts.Reflect = &reflectJSON
		}
	})

	settings, err := cfg.Merge(cliOpts)
	if err != nil {
		return err
	}

	paths, err := discover(fs.Args())
	if err != nil {
		return err
	}
	log.Debug("discovered shaders", "count", len(paths), "jobs", settings.Jobs)

	shaders, err := compileAll(ctx, paths, settings, log)
	if err != nil {
		return err
	}

	written, err := writeOutputs(settings, blobName, shaders)
	if err != nil {
		return err
	}
	log.Info("compiled", "shaders", len(shaders), "files", written, "out", settings.OutDir)
	return nil
}
