package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tliron/commonlog"

	"fp/internal/code"
	"fp/internal/compiler"
	"fp/internal/lexer"
	"fp/internal/parser"
	"fp/internal/value"
	"fp/internal/vm"
)

const (
	DefaultPrompt = ">> "
	prompt2       = ".. "
)

type Options struct {
	Prompt   string
	MaxStack int
	MaxSteps int64
	// Trace logs every executed instruction at debug level.
	Trace bool
	// Dis prints each compiled line before running it.
	Dis bool
}

// Session keeps globals alive between inputs: one name table for the
// compiler and one VM whose global cells outlive each Interpret.
type Session struct {
	globals *compiler.GlobalTable
	machine *vm.VM
	log     commonlog.Logger
}

func NewSession(opts Options) *Session {
	s := &Session{
		globals: compiler.NewGlobalTable(),
		machine: vm.New(),
		log:     commonlog.GetLogger("fp.repl"),
	}
	if opts.MaxStack > 0 {
		s.machine.SetMaxStack(opts.MaxStack)
	}
	s.machine.SetMaxSteps(opts.MaxSteps)
	if opts.Trace {
		s.machine.SetLogger(commonlog.GetLogger("fp.vm"))
	}
	return s
}

// ParseError carries every parser message for one input.
type ParseError struct {
	Messages []string
}

func (e *ParseError) Error() string {
	return "parse error: " + strings.Join(e.Messages, "; ")
}

// Compile parses and compiles src against the session's globals.
func (s *Session) Compile(src string) (*code.Chunk, error) {
	p := parser.New(lexer.New(src))
	program := p.ParseProgram()
	if len(p.Errors()) > 0 {
		return nil, &ParseError{Messages: p.Errors()}
	}
	return compiler.NewWithGlobals(s.globals).CompileProgram(program)
}

// Eval compiles and runs one input. ok is false when the input left no
// value, e.g. a trailing declaration.
func (s *Session) Eval(src string) (result value.Value, ok bool, err error) {
	chunk, err := s.Compile(src)
	if err != nil {
		return value.Nil, false, err
	}
	return s.Run(chunk)
}

func (s *Session) Run(chunk *code.Chunk) (value.Value, bool, error) {
	if err := s.machine.Interpret(chunk); err != nil {
		s.log.Debugf("interpret failed: %s", err)
		return value.Nil, false, err
	}
	result, ok := s.machine.Result()
	return result, ok, nil
}

func Start(in io.Reader, out io.Writer, opts Options) {
	scanner := bufio.NewScanner(in)
	session := NewSession(opts)
	prompt1 := opts.Prompt
	if prompt1 == "" {
		prompt1 = DefaultPrompt
	}

	fmt.Fprint(out, "fp REPL (Ctrl+D to exit)\n")

	var buf strings.Builder
	depthBraces := 0
	depthParens := 0
	inString := false
	escaped := false
	inBlockComment := false

	for {
		if buf.Len() == 0 {
			fmt.Fprint(out, prompt1)
		} else {
			fmt.Fprint(out, prompt2)
		}

		if !scanner.Scan() {
			fmt.Fprint(out, "\n")
			return
		}

		line := scanner.Text()
		trim := strings.TrimSpace(line)

		if buf.Len() == 0 && (trim == "exit" || trim == "quit") {
			return
		}

		buf.WriteString(line)
		buf.WriteString("\n")

		depthBraces, depthParens, inString, escaped, inBlockComment = updateBalance(line, depthBraces, depthParens, inString, escaped, inBlockComment)

		// keep reading until brackets, strings and comments are closed
		if depthBraces > 0 || depthParens > 0 || inString || inBlockComment {
			continue
		}

		src := buf.String()
		buf.Reset()
		if strings.TrimSpace(src) == "" {
			continue
		}

		chunk, err := session.Compile(src)
		if err != nil {
			printError(out, err)
			continue
		}
		if opts.Dis {
			fmt.Fprint(out, compiler.FormatChunk(chunk))
		}

		result, ok, err := session.Run(chunk)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if ok && !result.IsNil() {
			fmt.Fprintln(out, result.Inspect())
		}
	}
}

func updateBalance(line string, braces, parens int, inString, escaped, inBlockComment bool) (int, int, bool, bool, bool) {
	for i := 0; i < len(line); i++ {
		ch := line[i]

		if inBlockComment {
			if ch == '*' && i+1 < len(line) && line[i+1] == '/' {
				inBlockComment = false
				i++
			}
			continue
		}

		if inString {
			if escaped {
				escaped = false
				continue
			}
			if ch == '\\' {
				escaped = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '/' && i+1 < len(line) && line[i+1] == '/' {
			break
		}
		if ch == '/' && i+1 < len(line) && line[i+1] == '*' {
			inBlockComment = true
			i++
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			braces++
		case '}':
			if braces > 0 {
				braces--
			}
		case '(':
			parens++
		case ')':
			if parens > 0 {
				parens--
			}
		}
	}
	return braces, parens, inString, escaped, inBlockComment
}

func printError(out io.Writer, err error) {
	if pe, ok := err.(*ParseError); ok {
		for _, e := range pe.Messages {
			fmt.Fprintf(out, "parse error: %s\n", e)
		}
		return
	}
	fmt.Fprintf(out, "compile error: %s\n", err)
}
