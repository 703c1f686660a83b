package cpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func answerTokens(text string) []Token {
	return filterWhitespace(tokenize(text))
}

// TestHandleAssertWarnsOnDuplicate covers the handler-level wiring for a
// re-asserted answer: the store itself just reports back whether the
// answer was already there, and handleAssert is responsible for turning
// that into a diagnostic.
func TestHandleAssertWarnsOnDuplicate(t *testing.T) {
	sink := &recordingSink{}
	p := NewPreprocessor(PreprocessorOptions{Sink: sink})
	buf := NewBuffer("", "test.c")

	first := &Directive{Type: DIR_ASSERT, Predicate: "system", AnswerTokens: answerTokens("posix"), Loc: SourceLoc{File: "test.c", Line: 1}}
	if err := Dispatch(p, buf, first); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(sink.messages) != 0 {
		t.Errorf("did not expect a warning on the first assertion, got %v", sink.messages)
	}

	second := &Directive{Type: DIR_ASSERT, Predicate: "system", AnswerTokens: answerTokens("posix"), Loc: SourceLoc{File: "test.c", Line: 2}}
	if err := Dispatch(p, buf, second); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !sink.has("system") || !sink.has("re-asserted") {
		t.Errorf("expected a warning about the duplicate assertion, got %v", sink.messages)
	}
}

func TestAssertAndIsAsserted(t *testing.T) {
	store := NewAssertionStore()
	store.Assert("system", answerTokens("posix"))

	assert.True(t, store.IsAsserted("system", nil), "expected system to be asserted at all")
	assert.True(t, store.IsAsserted("system", answerTokens("posix")), "expected system(posix) to be asserted")
	assert.False(t, store.IsAsserted("system", answerTokens("unix")), "did not expect system(unix) to be asserted")
	assert.False(t, store.IsAsserted("cpu", nil), "did not expect unrelated predicate to be asserted")
}

func TestAssertDuplicateAnswerIsNoOp(t *testing.T) {
	store := NewAssertionStore()

	first := store.Assert("system", answerTokens("posix"))
	assert.False(t, first, "first assertion of an answer should not be reported as a duplicate")

	second := store.Assert("system", answerTokens("posix"))
	assert.True(t, second, "re-asserting the same answer should be reported as a duplicate")

	assert.Len(t, store.answers["system"], 1, "duplicate answer should not be appended")
}

func TestAssertMultipleAnswers(t *testing.T) {
	store := NewAssertionStore()
	store.Assert("system", answerTokens("posix"))
	store.Assert("system", answerTokens("unix"))

	assert.True(t, store.IsAsserted("system", answerTokens("posix")))
	assert.True(t, store.IsAsserted("system", answerTokens("unix")))
}

func TestUnassertSpecificAnswer(t *testing.T) {
	store := NewAssertionStore()
	store.Assert("system", answerTokens("posix"))
	store.Assert("system", answerTokens("unix"))

	assert.True(t, store.Unassert("system", answerTokens("posix")), "expected Unassert to report a removal")
	assert.False(t, store.IsAsserted("system", answerTokens("posix")), "posix answer should be gone")
	assert.True(t, store.IsAsserted("system", answerTokens("unix")), "unix answer should remain")
}

func TestUnassertBareRemovesAll(t *testing.T) {
	store := NewAssertionStore()
	store.Assert("system", answerTokens("posix"))
	store.Assert("system", answerTokens("unix"))

	assert.True(t, store.Unassert("system", nil), "expected Unassert to report a removal")
	assert.False(t, store.IsAsserted("system", nil), "expected no answers left for system")
}

func TestUnassertUnknownPredicateNoOp(t *testing.T) {
	store := NewAssertionStore()
	assert.False(t, store.Unassert("nope", nil), "did not expect a removal for an unknown predicate")
}

func TestEquivTokensIgnoresLocation(t *testing.T) {
	a := []Token{{Type: PP_IDENTIFIER, Text: "posix", Loc: SourceLoc{File: "a.c", Line: 1}}}
	b := []Token{{Type: PP_IDENTIFIER, Text: "posix", Loc: SourceLoc{File: "b.c", Line: 99}}}
	assert.True(t, equivTokens(a, b), "expected tokens differing only in location to be equivalent")

	c := []Token{{Type: PP_IDENTIFIER, Text: "unix"}}
	assert.False(t, equivTokens(a, c), "did not expect different text to be equivalent")
}
