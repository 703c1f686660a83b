// handlers.go implements the per-directive behavior dispatch.go delegates
// to, one function per DirectiveType, registered into handlerTable so
// dispatch.go's table stays pure data.
package cpp

import (
	"fmt"
	"os"
)

func init() {
	registerHandler(DIR_DEFINE, handleDefine)
	registerHandler(DIR_UNDEF, handleUndef)
	registerHandler(DIR_INCLUDE, handleInclude)
	registerHandler(DIR_INCLUDE_NEXT, handleIncludeNext)
	registerHandler(DIR_IMPORT, handleImport)
	registerHandler(DIR_IF, handleIf)
	registerHandler(DIR_IFDEF, handleIfdef)
	registerHandler(DIR_IFNDEF, handleIfndef)
	registerHandler(DIR_ELIF, handleElif)
	registerHandler(DIR_ELSE, handleElse)
	registerHandler(DIR_ENDIF, handleEndif)
	registerHandler(DIR_LINE, handleLine)
	registerHandler(DIR_LINEMARKER, handleLinemarker)
	registerHandler(DIR_ERROR, handleError)
	registerHandler(DIR_WARNING, handleWarning)
	registerHandler(DIR_PRAGMA, handlePragma)
	registerHandler(DIR_IDENT, handleIdent)
	registerHandler(DIR_SCCS, handleIdent)
	registerHandler(DIR_ASSERT, handleAssert)
	registerHandler(DIR_UNASSERT, handleUnassert)
	registerHandler(DIR_EMPTY, handleEmpty)
}

func filterWhitespace(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Type != PP_WHITESPACE {
			out = append(out, t)
		}
	}
	return out
}

func handleEmpty(p *Preprocessor, buf *Buffer, dir *Directive) error {
	return nil
}

func handleDefine(p *Preprocessor, buf *Buffer, dir *Directive) error {
	if p.macros.IsPoisoned(dir.MacroName) {
		return fmt.Errorf("%s:%d: attempt to use poisoned %q", dir.Loc.File, dir.Loc.Line, dir.MacroName)
	}
	if err := p.macros.DefineFromDirective(dir); err != nil {
		return fmt.Errorf("%s:%d: %w", dir.Loc.File, dir.Loc.Line, err)
	}
	if p.Callbacks.Define != nil {
		p.Callbacks.Define(dir.MacroName, dir.Loc)
	}
	return nil
}

func handleUndef(p *Preprocessor, buf *Buffer, dir *Directive) error {
	if p.macros.IsPoisoned(dir.Identifier) {
		return fmt.Errorf("%s:%d: attempt to use poisoned %q", dir.Loc.File, dir.Loc.Line, dir.Identifier)
	}
	p.macros.Undefine(dir.Identifier)
	if p.Callbacks.Undef != nil {
		p.Callbacks.Undef(dir.Identifier, dir.Loc)
	}
	return nil
}

func handleIf(p *Preprocessor, buf *Buffer, dir *Directive) error {
	if err := p.conditional.ProcessIf(buf, dir.Expression, dir.Loc); err != nil {
		return fmt.Errorf("%s:%d: %w", dir.Loc.File, dir.Loc.Line, err)
	}
	return nil
}

func handleIfdef(p *Preprocessor, buf *Buffer, dir *Directive) error {
	return p.conditional.ProcessIfdef(buf, dir.Identifier, dir.Loc)
}

func handleIfndef(p *Preprocessor, buf *Buffer, dir *Directive) error {
	return p.conditional.ProcessIfndef(buf, dir.Identifier, dir.Loc)
}

func handleElif(p *Preprocessor, buf *Buffer, dir *Directive) error {
	if err := p.conditional.ProcessElif(buf, dir.Expression); err != nil {
		return fmt.Errorf("%s:%d: %w", dir.Loc.File, dir.Loc.Line, err)
	}
	return nil
}

func handleElse(p *Preprocessor, buf *Buffer, dir *Directive) error {
	if err := p.conditional.ProcessElse(buf); err != nil {
		return fmt.Errorf("%s:%d: %w", dir.Loc.File, dir.Loc.Line, err)
	}
	return nil
}

func handleEndif(p *Preprocessor, buf *Buffer, dir *Directive) error {
	_, err := p.conditional.ProcessEndif(buf)
	if err != nil {
		return fmt.Errorf("%s:%d: %w", dir.Loc.File, dir.Loc.Line, err)
	}
	return nil
}

// lineNumCapC89 and lineNumCapC99 are the #line bounds cpplib enforces
// under -pedantic: C89 limits line numbers to 32767, C99 (or later, via
// -std=) raises the cap to INT_MAX.
const (
	lineNumCapC89 = 32767
	lineNumCapC99 = 2147483647
)

// lineNumberCap returns the #line bound for the configured -std, defaulting
// to the C89 cap when no standard (or a pre-C99 one) was requested.
func lineNumberCap(std string) int {
	switch std {
	case "", "c89", "gnu89", "ansi", "iso9899:1990":
		return lineNumCapC89
	default:
		return lineNumCapC99
	}
}

// handleLine implements #line n ["filename"]: it sets the nominal line
// number and filename reported for the physical line following the
// directive, per C89 6.8.4. dir.Loc.Line is the directive's nominal line
// (already shifted by any earlier #line), so the current buf.LineDelta is
// subtracted to recover the physical line it occupies; the lexer's own
// line counter is never rewritten by #line.
func handleLine(p *Preprocessor, buf *Buffer, dir *Directive) error {
	lineNum := dir.LineNum
	filename := dir.FileName

	if dir.Expression != nil {
		expanded, err := p.expander.Expand(dir.Expression)
		if err != nil {
			return fmt.Errorf("%s:%d: #line: %w", dir.Loc.File, dir.Loc.Line, err)
		}
		toks := filterWhitespace(expanded)
		if len(toks) == 0 || toks[0].Type != PP_NUMBER {
			return fmt.Errorf("%s:%d: #line requires a line number", dir.Loc.File, dir.Loc.Line)
		}
		lineNum = parseIntNumber(toks[0].Text)
		if len(toks) > 1 && toks[1].Type == PP_STRING {
			filename = unquoteString(toks[1].Text)
		}
	}

	if p.opts.Pedantic && p.sink != nil {
		if lineNum == 0 {
			p.sink.Report(DiagPedwarn, dir.Loc, "#line requires a positive integer argument")
		} else if cap := lineNumberCap(p.opts.Std); lineNum > cap {
			p.sink.Report(DiagPedwarn, dir.Loc, "#line number %d is greater than %d", lineNum, cap)
		}
	}

	buf.LineDelta = lineNum - (dir.Loc.Line - buf.LineDelta + 1)
	if filename != "" {
		buf.Filename = filename
	}
	return nil
}

func handleLinemarker(p *Preprocessor, buf *Buffer, dir *Directive) error {
	buf.LineDelta = dir.LineNum - (dir.Loc.Line - buf.LineDelta + 1)
	if dir.FileName != "" {
		buf.Filename = dir.FileName
	}
	for _, flag := range dir.LinemarkerFlags {
		switch flag {
		case 1, 2:
			buf.IsSystemHeader = false
		case 3:
			buf.IsSystemHeader = true
		}
	}
	return nil
}

func handleError(p *Preprocessor, buf *Buffer, dir *Directive) error {
	if p.sink != nil {
		p.sink.Report(DiagError, dir.Loc, "#error %s", dir.Message)
	}
	p.hadError = true
	return fmt.Errorf("%s:%d: #error %s", dir.Loc.File, dir.Loc.Line, dir.Message)
}

func handleWarning(p *Preprocessor, buf *Buffer, dir *Directive) error {
	if p.sink != nil {
		p.sink.Report(DiagWarning, dir.Loc, "#warning %s", dir.Message)
	}
	return nil
}

func handlePragma(p *Preprocessor, buf *Buffer, dir *Directive) error {
	toks := filterWhitespace(dir.PragmaTokens)
	handler, rest := p.pragmas.Lookup(toks)
	if handler != nil {
		return handler(p, buf, rest, dir.Loc)
	}
	if p.Callbacks.DefPragma != nil {
		p.Callbacks.DefPragma(toks, dir.Loc)
	}
	return nil
}

func handleIdent(p *Preprocessor, buf *Buffer, dir *Directive) error {
	if p.Callbacks.Ident != nil {
		p.Callbacks.Ident(dir.Message, dir.Loc)
	}
	return nil
}

func handleAssert(p *Preprocessor, buf *Buffer, dir *Directive) error {
	if duplicate := p.asserts.Assert(dir.Predicate, dir.AnswerTokens); duplicate && p.sink != nil {
		p.sink.Report(DiagWarning, dir.Loc, "%q re-asserted", dir.Predicate)
	}
	return nil
}

func handleUnassert(p *Preprocessor, buf *Buffer, dir *Directive) error {
	answer := dir.AnswerTokens
	if !dir.HasAnswerForm {
		answer = nil
	}
	p.asserts.Unassert(dir.Predicate, answer)
	return nil
}

func handleInclude(p *Preprocessor, buf *Buffer, dir *Directive) error {
	return includeCommon(p, buf, dir, false)
}

func handleIncludeNext(p *Preprocessor, buf *Buffer, dir *Directive) error {
	return includeCommon(p, buf, dir, true)
}

func handleImport(p *Preprocessor, buf *Buffer, dir *Directive) error {
	if p.opts.WarnImport && p.sink != nil {
		p.sink.Report(DiagPedwarn, dir.Loc, "#import is a deprecated GCC extension")
	}
	return includeCommon(p, buf, dir, false)
}

func includeCommon(p *Preprocessor, buf *Buffer, dir *Directive, next bool) error {
	headerName := dir.HeaderName
	if headerName == "" {
		expanded, err := p.expander.Expand(dir.Expression)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", dir.Loc.File, dir.Loc.Line, err)
		}
		toks := filterWhitespace(expanded)
		headerName = TokensToString(toks)
	}
	if len(headerName) < 2 {
		return fmt.Errorf("%s:%d: invalid header name %q", dir.Loc.File, dir.Loc.Line, headerName)
	}

	kind := IncludeQuoted
	if headerName[0] == '<' {
		kind = IncludeAngled
	}
	name := headerName[1 : len(headerName)-1]

	var record *IncludeRecord
	var err error
	if next {
		fromIdx := -1
		if buf.IncludeRecord != nil {
			fromIdx = buf.IncludeRecord.FoundIndex
		}
		record, err = p.resolver.ResolveNext(name, kind, fromIdx)
	} else {
		record, err = p.resolver.ResolveRecord(name, kind)
	}
	if err != nil {
		return fmt.Errorf("%s:%d: %w", dir.Loc.File, dir.Loc.Line, err)
	}

	if guard, ok := p.includeGuards[record.ResolvedPath]; ok && p.macros.IsDefined(guard) {
		return nil
	}
	if p.resolver.IsAlreadyIncluded(record.ResolvedPath) {
		return nil
	}
	if dir.Type == DIR_IMPORT && p.imported[record.ResolvedPath] {
		return nil
	}

	data, err := os.ReadFile(record.ResolvedPath)
	if err != nil {
		return fmt.Errorf("%s:%d: cannot read %s: %w", dir.Loc.File, dir.Loc.Line, record.ResolvedPath, err)
	}

	if err := p.resolver.PushFile(record.ResolvedPath); err != nil {
		return fmt.Errorf("%s:%d: %w", dir.Loc.File, dir.Loc.Line, err)
	}

	nb := NewBuffer(string(data), record.ResolvedPath)
	nb.RealPath = record.ResolvedPath
	nb.IncludeRecord = record
	p.resolver.SetCurrentFile(record.ResolvedPath)

	if dir.Type == DIR_IMPORT {
		if p.imported == nil {
			p.imported = make(map[string]bool)
		}
		p.imported[record.ResolvedPath] = true
	}

	if err := p.bufs.Push(nb); err != nil {
		p.resolver.PopFile()
		return fmt.Errorf("%s:%d: %w", dir.Loc.File, dir.Loc.Line, err)
	}

	if p.Callbacks.Include != nil {
		p.Callbacks.Include(record, dir.Loc)
	}
	if p.Callbacks.EnterFile != nil {
		p.Callbacks.EnterFile(nb)
	}
	return nil
}
