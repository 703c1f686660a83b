// cmdline.go implements -D/-U/-A command-line injection: each flag is
// turned into a synthetic directive line and run through the same
// Dispatch path a real directive in the file would take, rather than
// poking the macro table or assertion store directly, so command-line
// definitions see the same poisoning checks and Callbacks notifications
// an in-file #define would.
package cpp

import (
	"fmt"
	"strings"
)

// ApplyCommandLine injects -D/-U macro definitions and -A assertions as a
// synthetic "<command line>" buffer processed before the main input.
// defines/undefines follow GCC's "NAME" / "NAME=VALUE" convention; asserts
// follow "predicate=answer" to assert or "predicate-" to cancel every
// answer for predicate.
func ApplyCommandLine(p *Preprocessor, defines, undefines, asserts []string) error {
	loc := SourceLoc{File: "<command line>", Line: 1}

	cmdBuf := NewBuffer("", "<command line>")
	cmdBuf.RealPath = "<command line>"
	cmdBuf.IsCommandLine = true
	if err := p.bufs.Push(cmdBuf); err != nil {
		return err
	}
	defer p.bufs.Pop()

	for _, d := range defines {
		name, value := d, "1"
		if idx := strings.IndexByte(d, '='); idx >= 0 {
			name, value = d[:idx], d[idx+1:]
		}
		if err := injectDirective(p, cmdBuf, fmt.Sprintf("#define %s %s\n", name, value), loc); err != nil {
			return err
		}
	}

	for _, name := range undefines {
		if err := injectDirective(p, cmdBuf, fmt.Sprintf("#undef %s\n", name), loc); err != nil {
			return err
		}
	}

	for _, a := range asserts {
		if strings.HasSuffix(a, "-") {
			pred := strings.TrimSuffix(a, "-")
			if err := injectDirective(p, cmdBuf, fmt.Sprintf("#unassert %s\n", pred), loc); err != nil {
				return err
			}
			continue
		}
		pred, answer := a, ""
		if idx := strings.IndexByte(a, '='); idx >= 0 {
			pred, answer = a[:idx], a[idx+1:]
		}
		if answer == "" {
			continue
		}
		if err := injectDirective(p, cmdBuf, fmt.Sprintf("#assert %s(%s)\n", pred, answer), loc); err != nil {
			return err
		}
	}

	return nil
}

func injectDirective(p *Preprocessor, buf *Buffer, line string, loc SourceLoc) error {
	lex := NewLexer(line, "<command line>")
	toks := lex.AllTokens()
	if len(toks) == 0 || toks[0].Type != PP_HASH {
		return fmt.Errorf("internal error: malformed synthetic directive %q", line)
	}
	parser := NewDirectiveParser(toks[1:])
	dir, err := parser.ParseDirective(loc)
	if err != nil {
		return fmt.Errorf("<command line>: %w", err)
	}
	return Dispatch(p, buf, dir)
}
