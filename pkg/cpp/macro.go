// macro.go implements the macro table: storage and lookup for object-like,
// function-like, and built-in macros, plus the directives and command-line
// flags that populate it.
package cpp

import (
	"fmt"
	"time"
)

// MacroKind distinguishes the three flavors of macro cpplib recognizes.
type MacroKind int

const (
	MacroObject MacroKind = iota
	MacroFunction
	MacroBuiltin
)

// BuiltinFunc computes the expansion of a built-in macro at a use site.
type BuiltinFunc func(loc SourceLoc) []Token

// Macro is one entry in the macro table.
type Macro struct {
	Kind        MacroKind
	Name        string
	Params      []string // function-like macro parameter names
	IsVariadic  bool
	Replacement []Token // object/function-like replacement list
	BuiltinFunc BuiltinFunc
	Loc         SourceLoc // definition site, for diagnostics
}

// MacroTable stores every macro currently defined, plus enough state
// (start time, poisoned identifiers) to compute the handful of built-ins
// cpplib provides for free.
type MacroTable struct {
	macros    map[string]*Macro
	startTime time.Time
	poisoned  map[string]bool
}

// NewMacroTable creates an empty macro table seeded with the built-ins.
func NewMacroTable() *MacroTable {
	mt := &MacroTable{
		macros:    make(map[string]*Macro),
		startTime: time.Now(),
		poisoned:  make(map[string]bool),
	}
	mt.registerBuiltins()
	return mt
}

func (mt *MacroTable) registerBuiltins() {
	mt.macros["__FILE__"] = &Macro{Kind: MacroBuiltin, Name: "__FILE__"}
	mt.macros["__LINE__"] = &Macro{Kind: MacroBuiltin, Name: "__LINE__"}
	mt.macros["__DATE__"] = &Macro{Kind: MacroBuiltin, Name: "__DATE__", BuiltinFunc: func(loc SourceLoc) []Token {
		text := "\"" + mt.startTime.Format("Jan  2 2006") + "\""
		return []Token{{Type: PP_STRING, Text: text, Loc: loc}}
	}}
	mt.macros["__TIME__"] = &Macro{Kind: MacroBuiltin, Name: "__TIME__", BuiltinFunc: func(loc SourceLoc) []Token {
		text := "\"" + mt.startTime.Format("15:04:05") + "\""
		return []Token{{Type: PP_STRING, Text: text, Loc: loc}}
	}}
	mt.macros["__STDC__"] = &Macro{Kind: MacroObject, Name: "__STDC__", Replacement: []Token{{Type: PP_NUMBER, Text: "1"}}}
	mt.macros["__STDC_VERSION__"] = &Macro{Kind: MacroObject, Name: "__STDC_VERSION__", Replacement: []Token{{Type: PP_NUMBER, Text: "201112L"}}}
	mt.macros["__COUNTER__"] = &Macro{Kind: MacroBuiltin, Name: "__COUNTER__", BuiltinFunc: mt.nextCounter()}
}

func (mt *MacroTable) nextCounter() BuiltinFunc {
	n := 0
	return func(loc SourceLoc) []Token {
		tok := Token{Type: PP_NUMBER, Text: fmt.Sprintf("%d", n), Loc: loc}
		n++
		return []Token{tok}
	}
}

// GetFileToken produces the token __FILE__ expands to at loc.
func (mt *MacroTable) GetFileToken(loc SourceLoc) []Token {
	return []Token{{Type: PP_STRING, Text: "\"" + loc.File + "\"", Loc: loc}}
}

// GetLineToken produces the token __LINE__ expands to at loc.
func (mt *MacroTable) GetLineToken(loc SourceLoc) []Token {
	return []Token{{Type: PP_NUMBER, Text: fmt.Sprintf("%d", loc.Line), Loc: loc}}
}

// Lookup returns the macro named name, or nil if undefined.
func (mt *MacroTable) Lookup(name string) *Macro {
	return mt.macros[name]
}

// IsDefined reports whether name currently has a definition.
func (mt *MacroTable) IsDefined(name string) bool {
	_, ok := mt.macros[name]
	return ok
}

// Undefine removes name's definition, if any. Built-ins can be undefined
// like any other macro, matching GCC's behavior for -U.
func (mt *MacroTable) Undefine(name string) {
	delete(mt.macros, name)
}

// IsPoisoned reports whether name was named in a #pragma GCC poison.
func (mt *MacroTable) IsPoisoned(name string) bool {
	return mt.poisoned[name]
}

// Poison marks name so that any later reference is an error.
func (mt *MacroTable) Poison(name string) {
	mt.poisoned[name] = true
}

// DefineSimple defines an object-like macro from NAME=VALUE style text,
// lexing value as a replacement list. An empty value defines the macro
// with replacement "1", matching -DNAME with no '=' in GCC.
func (mt *MacroTable) DefineSimple(name, value string, loc SourceLoc) error {
	if !IsIdentifier(name) {
		return fmt.Errorf("invalid macro name %q", name)
	}
	if value == "" {
		value = "1"
	}
	lex := NewLexer(value, loc.File)
	var body []Token
	for {
		tok := lex.NextToken()
		if tok.Type == PP_EOF || tok.Type == PP_NEWLINE {
			break
		}
		if tok.Type == PP_WHITESPACE {
			continue
		}
		tok.Loc = loc
		body = append(body, tok)
	}
	mt.macros[name] = &Macro{Kind: MacroObject, Name: name, Replacement: body, Loc: loc}
	return nil
}

// DefineObject defines an object-like macro from an already-lexed body.
func (mt *MacroTable) DefineObject(name string, body []Token, loc SourceLoc) error {
	if !IsIdentifier(name) {
		return fmt.Errorf("invalid macro name %q", name)
	}
	mt.macros[name] = &Macro{Kind: MacroObject, Name: name, Replacement: trimWhitespace(body), Loc: loc}
	return nil
}

// DefineFunction defines a function-like macro.
func (mt *MacroTable) DefineFunction(name string, params []string, variadic bool, body []Token, loc SourceLoc) error {
	if !IsIdentifier(name) {
		return fmt.Errorf("invalid macro name %q", name)
	}
	mt.macros[name] = &Macro{
		Kind:        MacroFunction,
		Name:        name,
		Params:      params,
		IsVariadic:  variadic,
		Replacement: trimWhitespace(body),
		Loc:         loc,
	}
	return nil
}

// DefineFromDirective installs the macro described by a parsed #define
// directive.
func (mt *MacroTable) DefineFromDirective(dir *Directive) error {
	if dir.MacroParams != nil || dir.IsVariadic {
		return mt.DefineFunction(dir.MacroName, dir.MacroParams, dir.IsVariadic, dir.MacroBody, dir.Loc)
	}
	return mt.DefineObject(dir.MacroName, dir.MacroBody, dir.Loc)
}
