package compiler

import "fp/internal/code"

type SymbolScope string

const GlobalScope SymbolScope = "GLOBAL"
const LocalScope SymbolScope = "LOCAL"

type Symbol struct {
	Name  string
	Scope SymbolScope
	Index int
}

// MaxGlobals is the number of addressable global slots (2-byte index).
const MaxGlobals = code.MaxLongOperand + 1

// GlobalTable maps top-level names to dense slot indexes. Slots are never
// reused: redeclaring a name allocates a new slot and rebinds the name.
type GlobalTable struct {
	store          map[string]Symbol
	numDefinitions int
}

func NewGlobalTable() *GlobalTable {
	return &GlobalTable{store: map[string]Symbol{}}
}

func (gt *GlobalTable) Define(name string) (Symbol, error) {
	if gt.numDefinitions >= MaxGlobals {
		return Symbol{}, ErrGlobalOverflow
	}
	sym := Symbol{Name: name, Scope: GlobalScope, Index: gt.numDefinitions}
	gt.store[name] = sym
	gt.numDefinitions++
	return sym, nil
}

func (gt *GlobalTable) Resolve(name string) (Symbol, bool) {
	sym, ok := gt.store[name]
	return sym, ok
}

// Len is the number of slots allocated so far.
func (gt *GlobalTable) Len() int { return gt.numDefinitions }

// Names returns the name bound to each live slot; shadowed slots are "".
func (gt *GlobalTable) Names() []string {
	names := make([]string, gt.numDefinitions)
	for name, sym := range gt.store {
		names[sym.Index] = name
	}
	return names
}

type globalSnapshot struct {
	store          map[string]Symbol
	numDefinitions int
}

func (gt *GlobalTable) snapshot() globalSnapshot {
	store := make(map[string]Symbol, len(gt.store))
	for k, v := range gt.store {
		store[k] = v
	}
	return globalSnapshot{store: store, numDefinitions: gt.numDefinitions}
}

func (gt *GlobalTable) restore(s globalSnapshot) {
	gt.store = s.store
	gt.numDefinitions = s.numDefinitions
}

// localScope is one block's name map. Slots are absolute operand stack
// indexes.
type localScope struct {
	store map[string]Symbol
	count int
}

// scopeStack holds the active block scopes, innermost last.
type scopeStack []*localScope

func (s *scopeStack) push() {
	*s = append(*s, &localScope{store: map[string]Symbol{}})
}

// pop drops the innermost scope and returns how many locals it declared.
func (s *scopeStack) pop() int {
	old := *s
	top := old[len(old)-1]
	*s = old[:len(old)-1]
	return top.count
}

func (s scopeStack) depth() int { return len(s) }

func (s scopeStack) define(name string, slot int) Symbol {
	top := s[len(s)-1]
	sym := Symbol{Name: name, Scope: LocalScope, Index: slot}
	top.store[name] = sym
	top.count++
	return sym
}

func (s scopeStack) resolve(name string) (Symbol, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if sym, ok := s[i].store[name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}
