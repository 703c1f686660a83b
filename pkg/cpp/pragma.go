// pragma.go implements the pragma namespace registry: a two-level trie
// (namespace -> leaf) matching how GCC registers "#pragma GCC poison"
// under the "GCC" namespace while "#pragma once" lives at the top level.
package cpp

import "fmt"

// PragmaHandler processes one recognized pragma's trailing tokens.
type PragmaHandler func(p *Preprocessor, buf *Buffer, toks []Token, loc SourceLoc) error

// pragmaEntry is either a leaf (Handler set) or a namespace (Sub set).
type pragmaEntry struct {
	Handler PragmaHandler
	Sub     map[string]*pragmaEntry
}

// PragmaRegistry is the root of the two-level trie.
type PragmaRegistry struct {
	root map[string]*pragmaEntry
}

// NewPragmaRegistry creates a registry with the four built-in pragmas
// cpplib itself registers: once, poison (and its GCC-namespaced alias),
// GCC system_header, and GCC dependency.
func NewPragmaRegistry() *PragmaRegistry {
	r := &PragmaRegistry{root: make(map[string]*pragmaEntry)}
	r.RegisterNamespace("GCC")
	_ = r.RegisterLeaf([]string{"once"}, pragmaOnce)
	_ = r.RegisterLeaf([]string{"poison"}, pragmaPoison)
	_ = r.RegisterLeaf([]string{"GCC", "poison"}, pragmaPoison)
	_ = r.RegisterLeaf([]string{"GCC", "system_header"}, pragmaSystemHeader)
	_ = r.RegisterLeaf([]string{"GCC", "dependency"}, pragmaDependency)
	return r
}

// RegisterNamespace declares name as a namespace, idempotently: calling
// it twice for the same name is not an error, matching GCC allowing
// multiple independent registration sites to share a namespace.
func (r *PragmaRegistry) RegisterNamespace(name string) {
	if e, ok := r.root[name]; ok {
		if e.Sub == nil {
			e.Sub = make(map[string]*pragmaEntry)
		}
		return
	}
	r.root[name] = &pragmaEntry{Sub: make(map[string]*pragmaEntry)}
}

// RegisterLeaf registers a handler at path (e.g. []string{"GCC",
// "poison"}). Registering the same leaf twice is an internal
// consistency error: it is returned as an "internal error" Go error and
// nothing is reported through a DiagnosticSink.
func (r *PragmaRegistry) RegisterLeaf(path []string, handler PragmaHandler) error {
	if len(path) == 0 {
		return fmt.Errorf("pragma registration: empty path")
	}
	m := r.root
	for i, seg := range path {
		last := i == len(path)-1
		entry, ok := m[seg]
		if !ok {
			entry = &pragmaEntry{}
			m[seg] = entry
		}
		if last {
			if entry.Handler != nil {
				return fmt.Errorf("internal error: duplicate pragma registration for %v", path)
			}
			entry.Handler = handler
			return nil
		}
		if entry.Sub == nil {
			entry.Sub = make(map[string]*pragmaEntry)
		}
		m = entry.Sub
	}
	return nil
}

// Lookup walks toks (already split into whitespace-free identifier/
// other tokens) looking for the longest registered namespace/leaf path,
// returning the handler and the tokens remaining after the pragma name.
func (r *PragmaRegistry) Lookup(toks []Token) (PragmaHandler, []Token) {
	m := r.root
	i := 0
	for i < len(toks) {
		tok := toks[i]
		if tok.Type != PP_IDENTIFIER {
			break
		}
		entry, ok := m[tok.Text]
		if !ok {
			break
		}
		if entry.Handler != nil && (entry.Sub == nil || len(entry.Sub) == 0) {
			return entry.Handler, toks[i+1:]
		}
		if entry.Sub != nil {
			// Prefer the deeper namespace match if the next token continues
			// it; otherwise fall back to this entry's own handler.
			if i+1 < len(toks) {
				if next, ok := entry.Sub[peekIdentifier(toks[i+1:])]; ok && next != nil {
					m = entry.Sub
					i++
					continue
				}
			}
			if entry.Handler != nil {
				return entry.Handler, toks[i+1:]
			}
			m = entry.Sub
			i++
			continue
		}
		break
	}
	return nil, toks
}

func peekIdentifier(toks []Token) string {
	if len(toks) == 0 || toks[0].Type != PP_IDENTIFIER {
		return ""
	}
	return toks[0].Text
}

func pragmaOnce(p *Preprocessor, buf *Buffer, toks []Token, loc SourceLoc) error {
	p.resolver.MarkPragmaOnce(buf.RealPath)
	return nil
}

func pragmaPoison(p *Preprocessor, buf *Buffer, toks []Token, loc SourceLoc) error {
	for _, tok := range toks {
		if tok.Type == PP_IDENTIFIER {
			p.macros.Poison(tok.Text)
		}
	}
	return nil
}

func pragmaSystemHeader(p *Preprocessor, buf *Buffer, toks []Token, loc SourceLoc) error {
	buf.IsSystemHeader = true
	return nil
}

func pragmaDependency(p *Preprocessor, buf *Buffer, toks []Token, loc SourceLoc) error {
	if p.Callbacks.Dependency != nil {
		p.Callbacks.Dependency(TokensToString(toks))
	}
	return nil
}
