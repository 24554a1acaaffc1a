package tools

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Binaries built by Install, keyed by package path.
var Binaries = []struct {
	Pkg  string
	Name string
}{
	{"./cmd/fp", "fp"},
	{"./cmd/fp-lsp", "fp-lsp"},
}

type InstallOptions struct {
	BinDir string
	// Output receives go build's output; nil means os.Stderr.
	Output io.Writer
}

// Install builds the CLI and the language server into BinDir. It must run
// from the module root.
func Install(opts InstallOptions) ([]string, error) {
	if opts.BinDir == "" {
		opts.BinDir = "bin"
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	if err := os.MkdirAll(opts.BinDir, 0o755); err != nil {
		return nil, err
	}

	var built []string
	for _, b := range Binaries {
		out := filepath.Join(opts.BinDir, b.Name)
		if err := goBuild(b.Pkg, out, opts.Output); err != nil {
			return built, fmt.Errorf("build %s: %w", b.Name, err)
		}
		built = append(built, out)
	}
	return built, nil
}

func goBuild(pkg, out string, w io.Writer) error {
	cmd := exec.Command("go", "build", "-o", out, pkg)
	cmd.Stdout = w
	cmd.Stderr = w
	return cmd.Run()
}
