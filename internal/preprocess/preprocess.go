// Package preprocess runs shader sources through an external C
// preprocessor before parsing.
//
// Every invocation force-includes shader_api.h, which defines the
// SHADERCROSS marker and the slot limits the parser enforces, so shaders
// can share headers with host code and branch on #ifdef SHADERCROSS.
package preprocess

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

//go:embed shader_api.h
var apiHeader []byte

// HeaderName is the file name the embedded API header is written under.
const HeaderName = "shader_api.h"

// Header returns the contents of the API header included into every
// preprocessed shader.
func Header() string { return string(apiHeader) }

// Toolchain selects the preprocessor to run.
type Toolchain uint8

const (
	None Toolchain = iota
	GCC
	Clang
	MSVC
)

var toolchainNames = [...]string{
	None:  "none",
	GCC:   "gcc",
	Clang: "clang",
	MSVC:  "msvc",
}

func (t Toolchain) String() string {
	if int(t) < len(toolchainNames) {
		return toolchainNames[t]
	}
	return "unknown"
}

// ParseToolchain resolves a toolchain by name. The empty string is None.
func ParseToolchain(name string) (Toolchain, error) {
	if name == "" {
		return None, nil
	}
	for t, n := range toolchainNames {
		if strings.EqualFold(n, name) {
			return Toolchain(t), nil
		}
	}
	return None, fmt.Errorf("unknown toolchain %q", name)
}

// Command returns the executable and arguments that preprocess path with
// header force-included.
func Command(toolchain Toolchain, header, path string, includeDirs []string) (string, []string) {
	switch toolchain {
	case GCC, Clang:
		args := []string{"-E", "-P", "-x", "c", "-include", header}
		for _, dir := range includeDirs {
			args = append(args, "-I", dir)
		}
		return toolchain.String(), append(args, path)
	case MSVC:
		args := []string{"/EP", "/nologo", "/FI", header}
		for _, dir := range includeDirs {
			args = append(args, "/I", dir)
		}
		return "cl", append(args, path)
	}
	return "", nil
}

// Run preprocesses the file at path and returns the expanded source. With
// the None toolchain the file is returned unchanged.
func Run(ctx context.Context, toolchain Toolchain, path string, includeDirs []string) (string, error) {
	if toolchain == None {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if toolchain > MSVC {
		return "", fmt.Errorf("preprocess: unknown toolchain %d", toolchain)
	}

	dir, err := os.MkdirTemp("", "shadercross-")
	if err != nil {
		return "", fmt.Errorf("preprocess: %w", err)
	}
	defer os.RemoveAll(dir)

	header := filepath.Join(dir, HeaderName)
	if err := os.WriteFile(header, apiHeader, 0644); err != nil {
		return "", fmt.Errorf("preprocess: %w", err)
	}

	name, args := Command(toolchain, header, path, includeDirs)
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("preprocess %s with %s: %w\n%s", path, toolchain, err, msg)
		}
		return "", fmt.Errorf("preprocess %s with %s: %w", path, toolchain, err)
	}
	return stdout.String(), nil
}
