package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"fp/internal/chunkfile"
	"fp/internal/code"
	"fp/internal/compiler"
	"fp/internal/config"
	"fp/internal/diag"
	"fp/internal/lexer"
	"fp/internal/parser"
	"fp/internal/repl"
	"fp/internal/runtimeio"
	"fp/internal/tools"
	"fp/internal/vm"
)

const usage = `usage: fp [flags] [command] [args]

commands:
  repl                 start the interactive prompt (default)
  run [file.fp]        compile and run a source file, or the project entry
  build [-o out] file  compile a source file to a chunk file
  exec file.fpc        run a compiled chunk file
  dis file             print the bytecode of a source or chunk file
  tools install        build fp and fp-lsp into ./bin (run from the module root)

With no command and a non-terminal stdin, fp runs stdin as a program.

flags:
`

// options holds the global flags after fp.toml defaults are applied.
type options struct {
	tokens   bool
	ast      bool
	dis      bool
	trace    bool
	maxStack int
	maxSteps int64
	manifest *config.Manifest
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	tokensMode := fs.Bool("tokens", false, "print tokens instead of running")
	astMode := fs.Bool("ast", false, "print the parsed program instead of running")
	disMode := fs.Bool("dis", false, "dump constants and bytecode before running")
	traceMode := fs.Bool("trace", false, "log every executed instruction")
	configPath := fs.String("config", "", "path to fp.toml (default: search upward from the working directory)")
	maxStack := fs.Int("max-stack", 0, "operand stack limit (0 = use fp.toml or the VM default)")
	maxSteps := fs.Int64("max-steps", 0, "instruction limit per run (0 = use fp.toml or unlimited)")
	verbosity := fs.Int("v", -1, "log verbosity (-1 = use fp.toml)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	manifest, err := loadManifest(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "config error:", err)
		return 1
	}

	opts := options{
		tokens:   *tokensMode,
		ast:      *astMode,
		dis:      *disMode,
		trace:    *traceMode || manifest.VM.Trace,
		maxStack: firstNonZero(*maxStack, manifest.VM.MaxStack),
		maxSteps: firstNonZero(*maxSteps, manifest.VM.MaxSteps),
		manifest: manifest,
	}

	level := manifest.Log.Verbosity
	if *verbosity >= 0 {
		level = *verbosity
	}
	if opts.trace && level < 2 {
		level = 2
	}
	var logPath *string
	if p := manifest.LogPath(); p != "" {
		logPath = &p
	}
	commonlog.Configure(level, logPath)

	rest := fs.Args()
	cmd := "repl"
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	} else if !runtimeio.IsInteractive(stdin) {
		b, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintln(stderr, "read error:", err)
			return 1
		}
		return runText(string(b), "<stdin>", opts, stdout, stderr)
	}

	switch cmd {
	case "repl":
		if opts.tokens || opts.ast {
			fmt.Fprintln(stderr, "repl does not support -tokens or -ast")
			return 1
		}
		if len(rest) != 0 {
			fmt.Fprintln(stderr, "usage: fp repl")
			return 1
		}
		repl.Start(stdin, stdout, repl.Options{
			Prompt:   manifest.REPL.Prompt,
			MaxStack: opts.maxStack,
			MaxSteps: opts.maxSteps,
			Trace:    opts.trace,
			Dis:      opts.dis,
		})
		return 0
	case "run":
		return runSource(rest, opts, stdout, stderr)
	case "build":
		return buildChunk(rest, stdout, stderr)
	case "exec":
		return execChunk(rest, opts, stdout, stderr)
	case "dis":
		return disassemble(rest, stdout, stderr)
	case "tools":
		return installTools(rest, stdout, stderr)
	default:
		fmt.Fprintln(stderr, "unknown command:", cmd)
		fs.Usage()
		return 2
	}
}

func loadManifest(path string) (*config.Manifest, error) {
	if path != "" {
		return config.LoadManifest(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return config.FindAndLoad(cwd)
}

func firstNonZero[T int | int64](a, b T) T {
	if a != 0 {
		return a
	}
	return b
}

// resolveEntry picks the file argument, or the project entry when none is
// given.
func resolveEntry(args []string, manifest *config.Manifest, verb string) (string, error) {
	switch len(args) {
	case 0:
		if entry := manifest.EntryPath(); entry != "" {
			return entry, nil
		}
		return "", fmt.Errorf("usage: fp %s <file> (or set project.entry in %s)", verb, config.FileName)
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("usage: fp %s <file>", verb)
	}
}

func runSource(args []string, opts options, stdout, stderr io.Writer) int {
	path, err := resolveEntry(args, opts.manifest, "run")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stderr, "read error:", err)
		return 1
	}
	return runText(string(b), path, opts, stdout, stderr)
}

func runText(src, path string, opts options, stdout, stderr io.Writer) int {
	if opts.tokens {
		for _, tok := range lexer.Tokenize(src) {
			fmt.Fprintf(stdout, "%4d:%-3d  %-10s  %q\n", tok.Line, tok.Col, tok.Type, tok.Literal)
		}
		return 0
	}

	program, diags := parser.Parse(src)
	if diag.HasErrors(diags) {
		for _, d := range diags {
			fmt.Fprintln(stderr, d.Format(path))
		}
		return 1
	}
	if opts.ast {
		fmt.Fprintln(stdout, program.String())
		return 0
	}

	chunk, err := compiler.Compile(program)
	if err != nil {
		printCompileError(stderr, path, err)
		return 1
	}
	if opts.dis {
		fmt.Fprint(stdout, compiler.FormatChunk(chunk))
		fmt.Fprintln(stdout)
	}
	return execute(chunk, path, opts, stdout, stderr)
}

func installTools(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] != "install" {
		fmt.Fprintln(stderr, "usage: fp tools install [-bin <dir>]")
		return 2
	}
	fs := flag.NewFlagSet("tools install", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	binDir := fs.String("bin", "bin", "output directory for tools")
	if err := fs.Parse(args[1:]); err != nil || fs.NArg() != 0 {
		fmt.Fprintln(stderr, "usage: fp tools install [-bin <dir>]")
		return 2
	}

	built, err := tools.Install(tools.InstallOptions{BinDir: *binDir, Output: stderr})
	if err != nil {
		fmt.Fprintln(stderr, "install error:", err)
		return 1
	}
	fmt.Fprintf(stdout, "installed: %s\n", strings.Join(built, ", "))
	return 0
}

func buildChunk(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("o", "", "output path (default: source path with "+chunkfile.Ext+")")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: fp build [-o out.fpc] <file.fp>")
		return 2
	}
	path := fs.Arg(0)

	chunk, err := compileFile(path, stderr)
	if err != nil {
		return 1
	}

	target := *out
	if target == "" {
		target = strings.TrimSuffix(path, filepath.Ext(path)) + chunkfile.Ext
	}
	if err := chunkfile.WriteFile(target, chunk); err != nil {
		fmt.Fprintln(stderr, "build error:", err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote %s (%d bytes of code, %d constants)\n", target, len(chunk.Code), len(chunk.Constants))
	return 0
}

func execChunk(args []string, opts options, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: fp exec <file.fpc>")
		return 2
	}
	chunk, err := chunkfile.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(stderr, "load error:", err)
		return 1
	}
	if opts.dis {
		fmt.Fprint(stdout, compiler.FormatChunk(chunk))
		fmt.Fprintln(stdout)
	}
	return execute(chunk, args[0], opts, stdout, stderr)
}

func disassemble(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: fp dis <file>")
		return 2
	}
	path := args[0]

	var chunk *code.Chunk
	var err error
	if strings.EqualFold(filepath.Ext(path), chunkfile.Ext) {
		chunk, err = chunkfile.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stderr, "load error:", err)
			return 1
		}
	} else if chunk, err = compileFile(path, stderr); err != nil {
		return 1
	}
	fmt.Fprint(stdout, compiler.FormatChunk(chunk))
	return 0
}

// compileFile reports its own diagnostics on stderr.
func compileFile(path string, stderr io.Writer) (*code.Chunk, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stderr, "read error:", err)
		return nil, err
	}
	program, diags := parser.Parse(string(b))
	if diag.HasErrors(diags) {
		for _, d := range diags {
			fmt.Fprintln(stderr, d.Format(path))
		}
		return nil, errors.New("parse failed")
	}
	chunk, err := compiler.Compile(program)
	if err != nil {
		printCompileError(stderr, path, err)
		return nil, err
	}
	return chunk, nil
}

func execute(chunk *code.Chunk, path string, opts options, stdout, stderr io.Writer) int {
	m := vm.New()
	if opts.maxStack > 0 {
		m.SetMaxStack(opts.maxStack)
	}
	m.SetMaxSteps(opts.maxSteps)
	if opts.trace {
		m.SetLogger(commonlog.GetLogger("fp.vm"))
	}

	err := m.Interpret(chunk)
	if opts.trace {
		commonlog.GetLogger("fp.vm").Infof("%s: %d instructions, depth %d, %d globals", path, m.Steps(), m.StackDepth(), m.GlobalCount())
	}
	if err != nil {
		var rerr *vm.RuntimeError
		if errors.As(err, &rerr) {
			fmt.Fprintln(stderr, rerr.Diagnostic().Format(path))
		} else {
			fmt.Fprintln(stderr, "vm error:", err)
		}
		return 1
	}
	if result, ok := m.Result(); ok && !result.IsNil() {
		fmt.Fprintln(stdout, result.Inspect())
	}
	return 0
}

func printCompileError(w io.Writer, path string, err error) {
	var cerr *compiler.Error
	if errors.As(err, &cerr) {
		fmt.Fprintln(w, cerr.Diagnostic().Format(path))
		return
	}
	fmt.Fprintln(w, "compile error:", err)
}
