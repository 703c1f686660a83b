// miguard.go implements the "multiple-inclusion guard" automaton: the
// recognizer for the #ifndef X / #define X ... #endif pattern that wraps
// an entire header, so a later #include of the same file can be
// short-circuited once X is known to be defined. This generalizes the
// teacher's preprocess.go detectIncludeGuard (a one-shot pattern match
// over the first handful of tokens) into a running automaton that
// tracks the pattern across the whole file and fails closed the moment
// anything breaks it.
package cpp

// noteDirectiveForMIGuard updates buf's MI-guard automaton as each
// directive is dispatched. It must be called for every directive,
// including ones processed while skipping, since the guard's own
// #ifndef/#define live at depth 1 and are never themselves skipped.
func noteDirectiveForMIGuard(buf *Buffer, dir *Directive) {
	if buf.MIGuard == MIFailed {
		return
	}

	first := !buf.sawAnyDirStart
	buf.sawAnyDirStart = true

	switch buf.MIGuard {
	case MIOutside:
		if first && dir.Type == DIR_IFNDEF {
			buf.MIGuard = MIInsideOuterIfndef
			buf.MICandidate = dir.Identifier
			return
		}
		// Anything else as the first directive (or content before any
		// directive at all) rules out a whole-file guard.
		buf.MIGuard = MIFailed

	case MIInsideOuterIfndef:
		depth := len(buf.CondStack)
		switch {
		case depth == 1 && dir.Type == DIR_DEFINE && dir.MacroName == buf.MICandidate && !buf.MIDefineSeen:
			buf.MIDefineSeen = true
		case depth == 1 && dir.Type == DIR_ENDIF:
			// The outer #ifndef is about to close (its frame is still on
			// the stack here; ProcessEndif pops it after we return). Valid
			// only if we saw the matching #define and nothing appears
			// after this point; that final check happens in CommitMIGuard
			// at EOF.
			if !buf.MIDefineSeen {
				buf.MIGuard = MIFailed
				return
			}
			buf.MIOuterClosed = true
		case buf.MIOuterClosed:
			// Content after the guard's #endif: not a whole-file guard.
			buf.MIGuard = MIFailed
		default:
			// Any other directive/content at depth 1 before the #define
			// breaks the simple pattern; once the #define is seen, further
			// content inside the guard is allowed.
			if depth == 1 && !buf.MIDefineSeen {
				buf.MIGuard = MIFailed
			}
		}
	}
}

// noteContentForMIGuard updates buf's MI-guard automaton for a line that
// is not a directive but does carry real (non-whitespace) tokens. Without
// this, only directive lines ever reached the automaton, so plain code
// before the guarding #ifndef, between it and its #define, or after the
// guard's #endif, was invisible to it — letting a file that is NOT
// actually wrapped end-to-end in the guard still be recorded as guarded.
func noteContentForMIGuard(buf *Buffer) {
	if buf.MIGuard == MIFailed {
		return
	}

	buf.sawAnyDirStart = true

	switch buf.MIGuard {
	case MIOutside:
		// Real content before any #ifndef at all rules out a whole-file guard.
		buf.MIGuard = MIFailed
	case MIInsideOuterIfndef:
		depth := len(buf.CondStack)
		switch {
		case buf.MIOuterClosed:
			// Content after the guard's #endif: not a whole-file guard.
			buf.MIGuard = MIFailed
		case depth == 1 && !buf.MIDefineSeen:
			// Content between the #ifndef and its #define breaks the pattern.
			buf.MIGuard = MIFailed
		}
	}
}

// hasNonTrivialTokens reports whether tokens contains anything other than
// whitespace, newlines, or EOF.
func hasNonTrivialTokens(tokens []Token) bool {
	for _, t := range tokens {
		if t.Type != PP_WHITESPACE && t.Type != PP_NEWLINE && t.Type != PP_EOF {
			return true
		}
	}
	return false
}

// CommitMIGuard is called at EOF; if buf's automaton completed
// successfully it installs the guard macro into p's per-file table so a
// later #include of the same path can be skipped outright.
func (p *Preprocessor) CommitMIGuard(buf *Buffer) {
	if buf.MIGuard == MIInsideOuterIfndef && buf.MIOuterClosed && buf.MICandidate != "" {
		p.includeGuards[buf.RealPath] = buf.MICandidate
	}
}
