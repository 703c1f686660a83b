// preprocess.go implements the main preprocessor driver: it owns the
// buffer stack and drives it line by line, handing # lines to Dispatch
// and macro-expanding everything else, the way cpplib's cpp_get_token
// loop drives its own buffer stack.
package cpp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Callbacks are optional hooks a caller can set on a Preprocessor to
// observe directive processing without having to parse the output text
// back out, mirroring cpplib's cpp_callbacks table.
type Callbacks struct {
	Define     func(name string, loc SourceLoc)
	Undef      func(name string, loc SourceLoc)
	Include    func(record *IncludeRecord, loc SourceLoc)
	Ident      func(text string, loc SourceLoc)
	EnterFile  func(buf *Buffer)
	LeaveFile  func(buf *Buffer)
	RenameFile func(buf *Buffer)
	DefPragma  func(toks []Token, loc SourceLoc)

	// Dependency is invoked by #pragma GCC dependency; it is not one of
	// cpplib's own named callbacks but a natural extension of this table,
	// since dependency tracking is otherwise unobservable from outside.
	Dependency func(text string)
}

// Preprocessor is the main driver for directive processing.
type Preprocessor struct {
	macros        *MacroTable
	conditional   *ConditionalProcessor
	expander      *Expander
	resolver      *IncludeResolver
	pragmas       *PragmaRegistry
	asserts       *AssertionStore
	bufs          *BufferStack
	opts          PreprocessorOptions
	includeGuards map[string]string // resolved path -> guard macro name
	imported      map[string]bool   // resolved path -> seen via #import

	sink     DiagnosticSink
	hadError bool

	Callbacks Callbacks
}

// PreprocessorOptions configures the preprocessor.
type PreprocessorOptions struct {
	Defines      []string // -D definitions
	Undefines    []string // -U undefinitions
	Asserts      []string // -A predicate=answer / predicate-
	IncludePaths []string // -I directories
	SystemPaths  []string // -isystem directories
	KeepComments bool     // preserve comments in output
	LineMarkers  bool     // generate # line markers

	Pedantic            bool   // -pedantic: promote extension warnings
	TraditionalWarnings bool   // -Wtraditional
	WarnImport          bool   // -Wimport
	Preprocessed        bool   // -fpreprocessed: input already went through cpp once
	Std                 string // -std=...

	Sink DiagnosticSink // defaults to a WriterSink over os.Stderr
}

// NewPreprocessor creates a new preprocessor instance and applies any
// command-line -D/-U/-A options as synthetic directives.
func NewPreprocessor(opts PreprocessorOptions) *Preprocessor {
	macros := NewMacroTable()

	resolver := NewIncludeResolver()
	for _, path := range opts.IncludePaths {
		resolver.AddUserPath(path)
	}
	for _, path := range opts.SystemPaths {
		resolver.AddSystemPath(path)
	}

	sink := opts.Sink
	if sink == nil {
		sink = &WriterSink{W: os.Stderr, Pedantic: opts.Pedantic}
	}

	p := &Preprocessor{
		macros:        macros,
		conditional:   NewConditionalProcessor(macros),
		expander:      NewExpander(macros),
		resolver:      resolver,
		pragmas:       NewPragmaRegistry(),
		asserts:       NewAssertionStore(),
		bufs:          NewBufferStack(),
		opts:          opts,
		includeGuards: make(map[string]string),
		sink:          sink,
	}

	if err := ApplyCommandLine(p, opts.Defines, opts.Undefines, opts.Asserts); err != nil {
		sink.Report(DiagError, SourceLoc{File: "<command line>", Line: 1}, "%s", err)
		p.hadError = true
	}

	return p
}

// PreprocessFile preprocesses a file on disk and returns the result.
func (p *Preprocessor) PreprocessFile(filename string) (string, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		absPath = filename
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filename, err)
	}

	p.resolver.SetCurrentFile(absPath)
	if err := p.resolver.PushFile(absPath); err != nil {
		return "", err
	}
	defer p.resolver.PopFile()

	root := NewBuffer(string(content), filename)
	root.RealPath = absPath
	if err := p.bufs.Push(root); err != nil {
		p.resolver.PopFile()
		return "", err
	}

	return p.run(filename)
}

// PreprocessString preprocesses in-memory source, using filename only for
// diagnostics and __FILE__.
func (p *Preprocessor) PreprocessString(source, filename string) (string, error) {
	root := NewBuffer(source, filename)
	root.RealPath = filename
	if err := p.bufs.Push(root); err != nil {
		return "", err
	}
	return p.run(filename)
}

// run drives the buffer stack to exhaustion, honoring pushes (#include,
// _Pragma, command line) and pops (EOF, with diagnostics for unbalanced
// conditionals) along the way.
func (p *Preprocessor) run(rootName string) (string, error) {
	var output strings.Builder
	if p.opts.LineMarkers {
		fmt.Fprintf(&output, "# 1 %q\n", rootName)
	}

	for p.bufs.Depth() > 0 {
		buf := p.bufs.Top()
		depthBefore := p.bufs.Depth()

		line, done, err := p.nextLine(buf)
		if err != nil {
			return output.String(), err
		}

		if done {
			p.CommitMIGuard(buf)
			popped, err := p.bufs.Pop()
			if err != nil {
				return output.String(), err
			}
			if popped.IncludeRecord != nil {
				p.resolver.PopFile()
				if p.bufs.Depth() > 0 {
					p.resolver.SetCurrentFile(p.bufs.Top().RealPath)
				}
			}
			if p.Callbacks.LeaveFile != nil {
				p.Callbacks.LeaveFile(popped)
			}
			if p.bufs.Depth() > 0 && popped.IncludeRecord != nil && p.opts.LineMarkers {
				parent := p.bufs.Top()
				fmt.Fprintf(&output, "# %d %q 2\n", parent.NominalLine(parent.Lexer.Line()), parent.Filename)
			}
			continue
		}

		if p.bufs.Depth() > depthBefore && p.opts.LineMarkers {
			newTop := p.bufs.Top()
			if newTop.IncludeRecord != nil {
				fmt.Fprintf(&output, "# 1 %q 1\n", newTop.Filename)
			}
		}

		output.WriteString(line)

		if p.hadError {
			return output.String(), ErrFatal
		}
	}

	return output.String(), nil
}

// nextLine reads one physical line's worth of tokens from buf and
// processes it. done is true once buf has nothing left at all.
func (p *Preprocessor) nextLine(buf *Buffer) (string, bool, error) {
	var lineTokens []Token
	for {
		tok := buf.Lexer.NextToken()
		if tok.Type == PP_EOF {
			if len(lineTokens) == 0 {
				return "", true, nil
			}
			out, err := p.processLine(buf, lineTokens)
			return out, false, err
		}
		lineTokens = append(lineTokens, tok)
		if tok.Type == PP_NEWLINE {
			out, err := p.processLine(buf, lineTokens)
			return out, false, err
		}
	}
}

// processLine handles one line: directive lines go to Dispatch and never
// contribute text; everything else is macro-expanded (when buf is active)
// and emitted.
func (p *Preprocessor) processLine(buf *Buffer, tokens []Token) (string, error) {
	if len(tokens) == 0 {
		return "", nil
	}

	firstNonWS := 0
	for firstNonWS < len(tokens) && tokens[firstNonWS].Type == PP_WHITESPACE {
		firstNonWS++
	}

	if firstNonWS < len(tokens) && tokens[firstNonWS].Type == PP_HASH {
		return "", p.processDirectiveLine(buf, tokens[firstNonWS:], firstNonWS > 0)
	}

	if hasNonTrivialTokens(tokens) {
		noteContentForMIGuard(buf)
	}

	if buf.Skip != skipEmit {
		return "", nil
	}

	loc := SourceLoc{File: buf.Filename, Line: buf.NominalLine(tokens[0].Loc.Line)}
	expanded, err := p.expander.ExpandWithLoc(tokens, loc)
	if err != nil {
		return "", fmt.Errorf("%s:%d: %w", buf.Filename, loc.Line, err)
	}

	expanded, err = ApplyPragmaOperators(p, expanded)
	if err != nil {
		return "", err
	}

	return TokensToString(expanded), nil
}

// processDirectiveLine parses one "#..." line and hands it to Dispatch.
// tokens[0] is the PP_HASH token; indented reports whether whitespace
// preceded it on the physical line, for dispatch.go's -Wtraditional check.
func (p *Preprocessor) processDirectiveLine(buf *Buffer, tokens []Token, indented bool) error {
	loc := tokens[0].Loc
	loc.File = buf.Filename
	loc.Line = buf.NominalLine(loc.Line)

	dir, err := ParseDirectiveFromTokens(tokens[1:], loc)
	if err != nil {
		if buf.Skip != skipEmit {
			// Malformed content inside a skipped block is not fatal;
			// cpp never fully parses text it isn't going to emit.
			return nil
		}
		return err
	}

	dir.Indented = indented
	return Dispatch(p, buf, dir)
}

// GetMacros returns the macro table for inspection.
func (p *Preprocessor) GetMacros() *MacroTable {
	return p.macros
}

// SetLineMarkers enables or disables line marker output.
func (p *Preprocessor) SetLineMarkers(enabled bool) {
	p.opts.LineMarkers = enabled
}
