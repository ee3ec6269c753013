// This file is part of pl0c.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package symtab implements the PL/0C symbol table: a multi-map from
// identifier to meaning, disambiguated by lexical nesting level
// (spec.md §3 "Symbol meaning", §4.2).
package symtab

// Kind classifies what a symbol table entry denotes.
type Kind int

const (
	Constant Kind = iota
	Variable
	Procedure
	Function
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Variable:
		return "variable"
	case Procedure:
		return "procedure"
	case Function:
		return "function"
	default:
		return "unknown"
	}
}

// Entry is a symbol table record: what a name denotes, at what lexical
// level, and its associated value.
//
//   - Constant: Value holds the literal integer.
//   - Variable: Value holds the word offset from the containing frame's
//     base (positive for locals, negative for parameters).
//   - Procedure/Function: Value holds the code address of the callee's
//     prologue, patched in after the body is laid out. NArgs holds the
//     declared parameter count (spec.md §9 "Argument-count checking").
type Entry struct {
	Name  string
	Kind  Kind
	Level int
	Value int32
	NArgs int
}

// Table is the lexically-scoped symbol table. Entries are kept in
// insertion order per name; Lookup scans for the innermost (greatest
// level <= current) visible binding, matching the teacher's preference
// for simple, explicit data structures over a stack-of-maps (spec.md §9
// records the stack-of-scopes refactor as an alternative; this
// implementation keeps the multimap described in §4.2 since it is what
// the spec's lookup/purge contract directly describes).
type Table struct {
	entries []Entry
}

// New creates a Table with the bootstrap {"main", procedure, level 0,
// value 0} entry installed (spec.md §4.2), so that the top-level block is
// treated as the body of an implicit procedure.
func New() *Table {
	t := &Table{}
	t.Insert(Entry{Name: "main", Kind: Procedure, Level: 0, Value: 0})
	return t
}

// Insert adds an entry. It does not check for duplicates; the caller is
// responsible for checking same-level collisions before calling (spec.md
// §4.2).
func (t *Table) Insert(e Entry) {
	t.entries = append(t.entries, e)
}

// Lookup returns the innermost entry for name visible at or below level,
// i.e. the entry with the greatest Level <= level. The bool result
// reports whether any entry was found.
func (t *Table) Lookup(name string, level int) (Entry, bool) {
	best := -1
	var bestEntry Entry
	for _, e := range t.entries {
		if e.Name == name && e.Level <= level && e.Level > best {
			best = e.Level
			bestEntry = e
		}
	}
	return bestEntry, best != -1
}

// LookupAny is Lookup with no upper bound on the lexical level, returning
// the innermost entry for name regardless of nesting. Kept as general
// Table API for callers (diagnostics, tooling) that want "does this name
// exist anywhere" without tracking a current level; the compiler itself
// always calls Lookup with its own level, since visibility is
// level-bounded per spec.md §4.2.
func (t *Table) LookupAny(name string) (Entry, bool) {
	return t.Lookup(name, int(^uint(0)>>1))
}

// DeclaredAtLevel reports whether name already has an entry at exactly
// level, the same-level collision check spec.md §4.2 requires callers to
// perform before Insert.
func (t *Table) DeclaredAtLevel(name string, level int) bool {
	for _, e := range t.entries {
		if e.Name == name && e.Level == level {
			return true
		}
	}
	return false
}

// PurgeLevel removes all entries with Level == level, conceptually
// "leaving" that lexical scope (spec.md §4.2 "enter_level / purge_level").
func (t *Table) PurgeLevel(level int) {
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.Level != level {
			kept = append(kept, e)
		}
	}
	t.entries = kept
}

// SetValue patches the Value of the most recently inserted entry matching
// name at level, used by the compiler to back-patch a procedure/function's
// entry address once its body has been laid out (spec.md §4.3 block
// emission step 3).
func (t *Table) SetValue(name string, level int, value int32) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Name == name && t.entries[i].Level == level {
			t.entries[i].Value = value
			return
		}
	}
}
