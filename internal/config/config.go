package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the project configuration file looked up by the CLI.
const FileName = "fp.toml"

const DefaultPrompt = ">> "

type Manifest struct {
	Project Project `toml:"project"`
	VM      VM      `toml:"vm"`
	Log     Log     `toml:"log"`
	REPL    REPL    `toml:"repl"`

	// Dir is the directory holding the file, set at load time.
	Dir string `toml:"-"`
}

type Project struct {
	Name  string `toml:"name"`
	Entry string `toml:"entry"`
}

// VM limits; zero keeps the VM default.
type VM struct {
	MaxStack int   `toml:"max_stack"`
	MaxSteps int64 `toml:"max_steps"`
	Trace    bool  `toml:"trace"`
}

type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

type REPL struct {
	Prompt string `toml:"prompt"`
}

func Default() *Manifest {
	return &Manifest{REPL: REPL{Prompt: DefaultPrompt}}
}

// LoadManifest reads one fp.toml file. Unknown keys are rejected so typos do
// not silently fall back to defaults.
func LoadManifest(path string) (*Manifest, error) {
	m := Default()
	meta, err := toml.DecodeFile(path, m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	if m.REPL.Prompt == "" {
		m.REPL.Prompt = DefaultPrompt
	}
	return m, nil
}

// FindAndLoad walks up from startDir to the first fp.toml. When none exists
// it returns the defaults with an empty Dir.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return LoadManifest(path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// EntryPath resolves project.entry against the manifest directory.
func (m *Manifest) EntryPath() string {
	if m.Project.Entry == "" {
		return ""
	}
	if filepath.IsAbs(m.Project.Entry) || m.Dir == "" {
		return m.Project.Entry
	}
	return filepath.Join(m.Dir, m.Project.Entry)
}

// LogPath resolves log.file the same way; "" means stderr.
func (m *Manifest) LogPath() string {
	if m.Log.File == "" || filepath.IsAbs(m.Log.File) || m.Dir == "" {
		return m.Log.File
	}
	return filepath.Join(m.Dir, m.Log.File)
}

func (m *Manifest) validate() error {
	if m.VM.MaxStack < 0 {
		return fmt.Errorf("vm.max_stack must not be negative, got %d", m.VM.MaxStack)
	}
	if m.VM.MaxSteps < 0 {
		return fmt.Errorf("vm.max_steps must not be negative, got %d", m.VM.MaxSteps)
	}
	if m.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must not be negative, got %d", m.Log.Verbosity)
	}
	return nil
}
