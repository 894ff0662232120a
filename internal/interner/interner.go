// Package interner provides a cheap comparable handle per unique string,
// used for identifiers and string literals throughout the pipeline. A
// process-wide table is sufficient; nothing in the design requires
// per-compile isolation.
package interner

import "sync"

// Symbol is a cheap, comparable handle for a unique interned string.
type Symbol uint32

var global = New()

// Interner owns one string<->Symbol table.
type Interner struct {
	mu    sync.Mutex
	table map[string]Symbol
	byID  []string
}

// New returns a fresh, empty Interner.
func New() *Interner {
	return &Interner{table: map[string]Symbol{}}
}

// Intern returns the Symbol for s, assigning a new one on first sight.
func (in *Interner) Intern(s string) Symbol {
	in.mu.Lock()
	defer in.mu.Unlock()
	if sym, ok := in.table[s]; ok {
		return sym
	}
	sym := Symbol(len(in.byID))
	in.byID = append(in.byID, s)
	in.table[s] = sym
	return sym
}

// Lookup returns the original string for sym.
func (in *Interner) Lookup(sym Symbol) string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.byID[sym]
}

// Intern interns s against the process-wide global table.
func Intern(s string) Symbol {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.intern(s)
}

// Lookup resolves sym against the process-wide global table.
func Lookup(sym Symbol) string {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.byID[sym]
}

func (in *Interner) intern(s string) Symbol {
	if sym, ok := in.table[s]; ok {
		return sym
	}
	sym := Symbol(len(in.byID))
	in.byID = append(in.byID, s)
	in.table[s] = sym
	return sym
}
