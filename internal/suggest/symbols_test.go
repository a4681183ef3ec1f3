package suggest

import (
	"context"
	"testing"
)

func symbolNames(symbols []Symbol) map[string]string {
	m := make(map[string]string, len(symbols))
	for _, s := range symbols {
		m[s.Name] = s.Kind
	}
	return m
}

func TestSymbolsGo(t *testing.T) {
	source := `package main

import "fmt"

const Version = "1.0"

func hello() {
	fmt.Println("Hello")
}

type User struct {
	Name string
}

func (u *User) Greet() string {
	return "hi " + u.Name
}
`
	e := NewSymbolExtractor()
	defer e.Close()

	symbols, err := e.Symbols(context.Background(), []byte(source), "main.go")
	if err != nil {
		t.Fatalf("Symbols failed: %v", err)
	}

	got := symbolNames(symbols)
	want := map[string]string{
		"Version": "const",
		"hello":   "function",
		"User":    "type",
		"Greet":   "method",
	}
	for name, kind := range want {
		if got[name] != kind {
			t.Errorf("symbol %q kind = %q, want %q (all: %v)", name, got[name], kind, got)
		}
	}
}

func TestSymbolsPythonNested(t *testing.T) {
	source := `import os

def greet(name):
    print(f"Hello, {name}")

class User:
    def __init__(self, name):
        self.name = name

    def say_hello(self):
        print(f"Hi, I'm {self.name}")
`
	e := NewSymbolExtractor()
	defer e.Close()

	symbols, err := e.Symbols(context.Background(), []byte(source), "app.py")
	if err != nil {
		t.Fatalf("Symbols failed: %v", err)
	}

	got := symbolNames(symbols)
	for _, name := range []string{"greet", "User", "__init__", "say_hello"} {
		if _, ok := got[name]; !ok {
			t.Errorf("missing symbol %q (all: %v)", name, got)
		}
	}
	if got["User"] != "class" {
		t.Errorf("User kind = %q, want class", got["User"])
	}
}

func TestSymbolsC(t *testing.T) {
	source := `#include <stdio.h>

struct point { int x; int y; };

int add(int a, int b) {
	return a + b;
}
`
	e := NewSymbolExtractor()
	defer e.Close()

	symbols, err := e.Symbols(context.Background(), []byte(source), "math.c")
	if err != nil {
		t.Fatalf("Symbols failed: %v", err)
	}
	got := symbolNames(symbols)
	if got["add"] != "function" {
		t.Errorf("add kind = %q, want function (all: %v)", got["add"], got)
	}
	if got["point"] != "struct" {
		t.Errorf("point kind = %q, want struct (all: %v)", got["point"], got)
	}
}

func TestSymbolsLineNumbers(t *testing.T) {
	e := NewSymbolExtractor()
	defer e.Close()

	symbols, err := e.Symbols(context.Background(), []byte("package p\n\nfunc A() {}\n"), "p.go")
	if err != nil {
		t.Fatalf("Symbols failed: %v", err)
	}
	if len(symbols) != 1 || symbols[0].Line != 3 {
		t.Errorf("symbols = %+v, want A at line 3", symbols)
	}
}

func TestSymbolsUnsupported(t *testing.T) {
	e := NewSymbolExtractor()
	defer e.Close()

	if _, err := e.Symbols(context.Background(), []byte("x"), "notes.txt"); err == nil {
		t.Error("expected error for unknown file type")
	}

	// known language without a grammar
	symbols, err := e.Symbols(context.Background(), []byte("<?php echo 1;"), "index.php")
	if err != nil || symbols != nil {
		t.Errorf("php: symbols=%v err=%v, want nil, nil", symbols, err)
	}
}
