package cpp

import "testing"

func identTokens(names ...string) []Token {
	toks := make([]Token, len(names))
	for i, n := range names {
		toks[i] = Token{Type: PP_IDENTIFIER, Text: n}
	}
	return toks
}

func TestPragmaRegistryBuiltins(t *testing.T) {
	r := NewPragmaRegistry()

	handler, rest := r.Lookup(identTokens("once"))
	if handler == nil {
		t.Fatal("expected a handler for #pragma once")
	}
	if len(rest) != 0 {
		t.Errorf("rest = %v, want empty", rest)
	}

	handler, _ = r.Lookup(identTokens("poison"))
	if handler == nil {
		t.Fatal("expected a handler for #pragma poison")
	}

	handler, rest = r.Lookup(identTokens("GCC", "poison", "FORBIDDEN"))
	if handler == nil {
		t.Fatal("expected a handler for #pragma GCC poison")
	}
	if len(rest) != 1 || rest[0].Text != "FORBIDDEN" {
		t.Errorf("rest = %v, want [FORBIDDEN]", rest)
	}

	handler, _ = r.Lookup(identTokens("GCC", "system_header"))
	if handler == nil {
		t.Fatal("expected a handler for #pragma GCC system_header")
	}

	handler, rest = r.Lookup(identTokens("GCC", "dependency", "foo.h"))
	if handler == nil {
		t.Fatal("expected a handler for #pragma GCC dependency")
	}
	if len(rest) != 1 {
		t.Errorf("rest = %v, want 1 token", rest)
	}
}

func TestPragmaRegistryUnknown(t *testing.T) {
	r := NewPragmaRegistry()
	handler, rest := r.Lookup(identTokens("unknown_vendor", "thing"))
	if handler != nil {
		t.Error("did not expect a handler for an unregistered pragma")
	}
	if len(rest) != 2 {
		t.Errorf("rest = %v, want the tokens unconsumed", rest)
	}
}

func TestRegisterLeafDuplicateIsError(t *testing.T) {
	r := NewPragmaRegistry()
	err := r.RegisterLeaf([]string{"once"}, pragmaOnce)
	if err == nil {
		t.Fatal("expected an error re-registering an existing leaf")
	}
}

func TestRegisterNamespaceIdempotent(t *testing.T) {
	r := NewPragmaRegistry()
	r.RegisterNamespace("VENDOR")
	r.RegisterNamespace("VENDOR")
	if err := r.RegisterLeaf([]string{"VENDOR", "thing"}, pragmaOnce); err != nil {
		t.Fatalf("unexpected error registering under a re-declared namespace: %v", err)
	}
}

func TestPragmaOnceMarksResolver(t *testing.T) {
	p := newTestPreprocessor(t)
	buf := NewBuffer("", "header.h")
	buf.RealPath = "/abs/header.h"

	if err := pragmaOnce(p, buf, nil, SourceLoc{}); err != nil {
		t.Fatalf("pragmaOnce: %v", err)
	}
	if !p.resolver.IsAlreadyIncluded("/abs/header.h") {
		t.Error("expected pragma once to mark the file as already included")
	}
}

func TestPragmaPoisonDisallowsMacro(t *testing.T) {
	p := newTestPreprocessor(t)
	buf := NewBuffer("", "header.h")

	if err := pragmaPoison(p, buf, identTokens("FORBIDDEN"), SourceLoc{}); err != nil {
		t.Fatalf("pragmaPoison: %v", err)
	}
	if !p.macros.IsPoisoned("FORBIDDEN") {
		t.Error("expected FORBIDDEN to be poisoned")
	}
}

func TestHandlePragmaDispatchesRegisteredPragma(t *testing.T) {
	p := newTestPreprocessor(t)
	buf := NewBuffer("", "header.h")
	buf.RealPath = "/abs/header.h"

	dir := &Directive{Type: DIR_PRAGMA, PragmaTokens: identTokens("once")}
	if err := handlePragma(p, buf, dir); err != nil {
		t.Fatalf("handlePragma: %v", err)
	}
	if !p.resolver.IsAlreadyIncluded("/abs/header.h") {
		t.Error("expected #pragma once to mark the file via the dispatch path")
	}
}

func TestHandlePragmaUnknownFallsToDefPragmaCallback(t *testing.T) {
	p := newTestPreprocessor(t)
	buf := NewBuffer("", "test.c")

	var seen []Token
	p.Callbacks.DefPragma = func(toks []Token, loc SourceLoc) {
		seen = toks
	}

	dir := &Directive{Type: DIR_PRAGMA, PragmaTokens: identTokens("pack", "push")}
	if err := handlePragma(p, buf, dir); err != nil {
		t.Fatalf("handlePragma: %v", err)
	}
	if len(seen) != 2 {
		t.Errorf("DefPragma callback saw %v, want 2 tokens", seen)
	}
}
