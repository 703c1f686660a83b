package cpp

import "testing"

func TestDestringizePragmaBasic(t *testing.T) {
	got, err := destringizePragma(`"GCC system_header"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "GCC system_header" {
		t.Errorf("got %q, want %q", got, "GCC system_header")
	}
}

func TestDestringizePragmaWidePrefix(t *testing.T) {
	got, err := destringizePragma(`L"once"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "once" {
		t.Errorf("got %q, want once", got)
	}
}

func TestDestringizePragmaUnescapes(t *testing.T) {
	got, err := destringizePragma(`"message(\"hi\")"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `message("hi")` {
		t.Errorf("got %q, want %q", got, `message("hi")`)
	}
}

func TestDestringizePragmaRequiresQuotes(t *testing.T) {
	if _, err := destringizePragma("once"); err == nil {
		t.Fatal("expected an error for a non-string argument")
	}
}

func TestProcessPragmaOperatorTriggersOnce(t *testing.T) {
	p := newTestPreprocessor(t)
	strTok := Token{Type: PP_STRING, Text: `"once"`, Loc: SourceLoc{File: "header.h", Line: 1}}

	synthPath := "<_Pragma>"
	_ = synthPath
	if err := ProcessPragmaOperator(p, strTok); err != nil {
		t.Fatalf("ProcessPragmaOperator: %v", err)
	}
	if !p.resolver.IsAlreadyIncluded("<_Pragma>") {
		t.Error("expected the synthetic _Pragma buffer's path to be marked via pragma once")
	}
}

func TestApplyPragmaOperatorsStripsFromOutput(t *testing.T) {
	p := newTestPreprocessor(t)
	tokens := tokenize(`_Pragma("once") int z;`)

	out, err := ApplyPragmaOperators(p, tokens)
	if err != nil {
		t.Fatalf("ApplyPragmaOperators: %v", err)
	}
	if got := TokensToString(out); containsStr(got, "_Pragma") {
		t.Errorf("expected _Pragma tokens to be removed, got %q", got)
	}
	if got := TokensToString(out); !containsStr(got, "int z;") {
		t.Errorf("expected surrounding tokens to survive, got %q", got)
	}
}

func TestApplyPragmaOperatorsLeavesNonPragmaAlone(t *testing.T) {
	p := newTestPreprocessor(t)
	tokens := tokenize(`int x = 1;`)

	out, err := ApplyPragmaOperators(p, tokens)
	if err != nil {
		t.Fatalf("ApplyPragmaOperators: %v", err)
	}
	if got := TokensToString(out); got != TokensToString(tokens) {
		t.Errorf("expected tokens unchanged, got %q want %q", got, TokensToString(tokens))
	}
}
