// assert.go implements the #assert/#unassert predicate database, a GCC
// extension (origin Extension in the directive descriptor table) that
// predates and is largely superseded by #if/defined, but is still part
// of the directive surface this processor recognizes.
package cpp

// AssertionStore maps predicate names to the list of answers asserted
// for them. Two answers are the same answer if their token sequences
// are structurally equal (same Type/Text pairs, location ignored),
// matching cpplib's equiv_tokens.
type AssertionStore struct {
	answers map[string][][]Token
}

// NewAssertionStore creates an empty assertion database.
func NewAssertionStore() *AssertionStore {
	return &AssertionStore{answers: make(map[string][][]Token)}
}

// Assert adds predicate(answer) to the database. Re-asserting an
// identical answer is a no-op, matching GCC's behavior; it reports back
// whether the answer was already present so the caller can warn.
func (a *AssertionStore) Assert(predicate string, answer []Token) (duplicate bool) {
	existing := a.answers[predicate]
	for _, ans := range existing {
		if equivTokens(ans, answer) {
			return true
		}
	}
	a.answers[predicate] = append(existing, answer)
	return false
}

// Unassert removes one answer from predicate, or every answer for
// predicate if answer is nil (the bare #unassert predicate form).
// Returns true if anything was removed.
func (a *AssertionStore) Unassert(predicate string, answer []Token) bool {
	existing, ok := a.answers[predicate]
	if !ok {
		return false
	}
	if answer == nil {
		delete(a.answers, predicate)
		return true
	}
	removed := false
	kept := existing[:0]
	for _, ans := range existing {
		if !removed && equivTokens(ans, answer) {
			removed = true
			continue
		}
		kept = append(kept, ans)
	}
	if len(kept) == 0 {
		delete(a.answers, predicate)
	} else {
		a.answers[predicate] = kept
	}
	return removed
}

// IsAsserted reports whether predicate has any answer (used by
// `#if #predicate`), or whether the specific answer was asserted, when
// answer is non-nil.
func (a *AssertionStore) IsAsserted(predicate string, answer []Token) bool {
	existing, ok := a.answers[predicate]
	if !ok {
		return false
	}
	if answer == nil {
		return len(existing) > 0
	}
	for _, ans := range existing {
		if equivTokens(ans, answer) {
			return true
		}
	}
	return false
}

// equivTokens compares two token sequences structurally, ignoring
// location, matching cpplib's notion of "the same answer".
func equivTokens(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || a[i].Text != b[i].Text {
			return false
		}
	}
	return true
}
