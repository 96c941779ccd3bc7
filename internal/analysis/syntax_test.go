package analysis

import "testing"

func TestBracketBalance(t *testing.T) {
	tests := []struct {
		name    string
		checker BracketBalance
		src     string
		wantErr bool
	}{
		{name: "balanced", src: "fn main() { let v = vec![1, 2]; }"},
		{name: "brace in string", src: `fn main() { println!("{"); }`},
		{name: "brace in comment", src: "int main() { // }\n return 0; }"},
		{name: "block comment", src: "int main() { /* ) */ return 0; }"},
		{name: "char literal", src: "char c = '{'; int f() { return 0; }"},
		{name: "rust lifetime", src: "fn f<'a>(x: &'a str) -> &'a str { x }"},
		{name: "template literal", checker: BracketBalance{Backticks: true}, src: "const s = `}`; function f() { return s; }"},
		{name: "unclosed", src: "function f() {", wantErr: true},
		{name: "mismatched", src: "f(];", wantErr: true},
		{name: "stray close", src: "}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.checker.Check("x", tt.src)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCheckerFor(t *testing.T) {
	if _, ok := CheckerFor("Go").(GoSyntax); !ok {
		t.Fatalf("want GoSyntax for go")
	}
	if CheckerFor("python") != nil {
		t.Fatalf("want no checker for python")
	}
	if _, ok := CheckerFor("rust").(BracketBalance); !ok {
		t.Fatalf("want BracketBalance for rust")
	}
}

func TestGoSyntax(t *testing.T) {
	if err := (GoSyntax{}).Check("ok.go", "package x\n\nfunc F() int { return 1 }\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (GoSyntax{}).Check("bad.go", "package x\nfunc {"); err == nil {
		t.Fatalf("expected parse error")
	}
}
