// dispatch.go implements the directive descriptor table and the dispatch
// algorithm: given a parsed Directive, decide whether it is honored in the
// current context (conditional skip state, -fpreprocessed mode) and, if
// so, hand it to the matching handler in handlers.go.
package cpp

import "fmt"

// directiveInfo is one row of the descriptor table cpplib keeps per
// directive: which dialect introduced it and the flag bits that govern
// dispatch.
type directiveInfo struct {
	Name   string
	Origin DirectiveOrigin
	Flags  DirectiveFlags
}

var directiveTable = map[DirectiveType]directiveInfo{
	DIR_DEFINE:       {"define", OriginTraditional, 0},
	DIR_UNDEF:        {"undef", OriginTraditional, 0},
	DIR_INCLUDE:      {"include", OriginTraditional, FlagIncl},
	DIR_INCLUDE_NEXT: {"include_next", OriginExtension, FlagIncl},
	DIR_IMPORT:       {"import", OriginExtension, FlagIncl},
	DIR_IF:           {"if", OriginTraditional, FlagCond | FlagIfCond},
	DIR_IFDEF:        {"ifdef", OriginTraditional, FlagCond},
	DIR_IFNDEF:       {"ifndef", OriginTraditional, FlagCond},
	DIR_ELIF:         {"elif", OriginC89, FlagCond | FlagIfCond},
	DIR_ELSE:         {"else", OriginTraditional, FlagCond},
	DIR_ENDIF:        {"endif", OriginTraditional, FlagCond},
	DIR_LINE:         {"line", OriginTraditional, FlagInI},
	DIR_LINEMARKER:   {"linemarker", OriginExtension, FlagInI},
	DIR_ERROR:        {"error", OriginC89, 0},
	DIR_WARNING:      {"warning", OriginExtension, 0},
	DIR_PRAGMA:       {"pragma", OriginC89, FlagInI},
	DIR_IDENT:        {"ident", OriginExtension, 0},
	DIR_SCCS:         {"sccs", OriginExtension, 0},
	DIR_ASSERT:       {"assert", OriginExtension, 0},
	DIR_UNASSERT:     {"unassert", OriginExtension, 0},
	DIR_EMPTY:        {"", OriginTraditional, FlagInI},
}

// handlerTable is populated by handlers.go's init; kept as a separate map
// (rather than folding Handler into directiveInfo) so dispatch.go's
// descriptor table reads as pure data, matching cpplib's own separation of
// the directive table from the dispatch function.
var handlerTable = map[DirectiveType]func(p *Preprocessor, buf *Buffer, dir *Directive) error{}

func registerHandler(t DirectiveType, fn func(p *Preprocessor, buf *Buffer, dir *Directive) error) {
	handlerTable[t] = fn
}

// Dispatch processes one parsed directive against buf's current state.
//
// Order of operations:
//  1. Look up the directive's descriptor; an unknown type is a parser bug.
//  2. Feed the directive to the MI-guard automaton unconditionally: the
//     guard's own #ifndef/#define must be seen even though nothing else
//     about them is special-cased here.
//  3. If buf is currently skipping and the directive isn't flagged Cond,
//     it is invisible: conditional nesting trackers (#if/#ifdef/.../#endif)
//     are the only things that still run while skipping.
//  4. In -fpreprocessed mode, only #line, line markers, pragmas, and the empty
//     directive survive; anything else is a no-op, since a -fpreprocessed
//     input is expected to have already had its directives resolved.
//  5. Under -Wtraditional, warn if a Traditional-era directive is indented
//     or a post-Traditional (C89/Extension) directive is not.
//  6. Hand off to the registered handler.
func Dispatch(p *Preprocessor, buf *Buffer, dir *Directive) error {
	info, ok := directiveTable[dir.Type]
	if !ok {
		return fmt.Errorf("%s:%d: unrecognized directive #%s", dir.Loc.File, dir.Loc.Line, dir.Type)
	}

	noteDirectiveForMIGuard(buf, dir)

	if buf.Skip != skipEmit && info.Flags&FlagCond == 0 {
		return nil
	}

	if p.opts.Preprocessed && info.Flags&FlagInI == 0 {
		return nil
	}

	if p.opts.Pedantic && info.Origin == OriginExtension && p.sink != nil {
		p.sink.Report(DiagPedwarn, dir.Loc, "#%s is a GCC extension", info.Name)
	}

	if p.opts.TraditionalWarnings && p.sink != nil {
		if dir.Indented && info.Origin == OriginTraditional {
			p.sink.Report(DiagWarning, dir.Loc, "traditional C ignores #%s with the # indented", info.Name)
		} else if !dir.Indented && info.Origin != OriginTraditional {
			p.sink.Report(DiagWarning, dir.Loc, "suggest hiding #%s from traditional C with an indented #", info.Name)
		}
	}

	handler, ok := handlerTable[dir.Type]
	if !ok {
		return fmt.Errorf("%s:%d: #%s not implemented", dir.Loc.File, dir.Loc.Line, info.Name)
	}
	return handler(p, buf, dir)
}
