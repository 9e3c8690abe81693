package record

import "testing"

func TestStrAccessors(t *testing.T) {
	r := Str("john doe")
	if !r.IsStr() || r.IsList() {
		t.Fatalf("expected str kind, got %v", r.Kind())
	}
	s, ok := r.Text()
	if !ok || s != "john doe" {
		t.Fatalf("expected john doe, got %q %v", s, ok)
	}
	if r.Items() != nil {
		t.Fatalf("expected nil items for leaf")
	}
}

func TestZeroValueIsEmptyStr(t *testing.T) {
	var r Record
	if !r.Equal(Str("")) {
		t.Fatalf("zero record should equal Str(\"\"), got %v", r)
	}
}

func TestListIsCopiedOnConstruction(t *testing.T) {
	items := []Record{Str("a"), Str("b")}
	r := List(items...)
	items[0] = Str("mutated")
	got := r.Items()
	if s, _ := got[0].Text(); s != "a" {
		t.Fatalf("list aliased caller slice: %v", r)
	}
	if _, ok := r.Text(); ok {
		t.Fatalf("Text on a list should report false")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := List(Str("a"), List(Str("b"), Str("c")))
	cp := orig.Clone()
	if !cp.Equal(orig) {
		t.Fatalf("clone not equal: %v vs %v", cp, orig)
	}
	// Reach into the clone's backing storage; the source must not change.
	cp.items[1].items[0] = Str("zzz")
	if orig.items[1].items[0].str != "b" {
		t.Fatalf("clone shares nested storage with its source")
	}
}

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b Record
		want bool
	}{
		{"same str", Str("x"), Str("x"), true},
		{"different str", Str("x"), Str("y"), false},
		{"str vs list", Str("x"), List(Str("x")), false},
		{"empty lists", List(), List(), true},
		{"nested equal", List(Str("a"), List(Str("b"))), List(Str("a"), List(Str("b"))), true},
		{"nested differ", List(Str("a"), List(Str("b"))), List(Str("a"), List(Str("c"))), false},
		{"length differ", List(Str("a")), List(Str("a"), Str("a")), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.want {
				t.Fatalf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestHashIsStructural(t *testing.T) {
	a := List(Str("a"), List(Str("b")))
	b := List(Str("a"), List(Str("b")))
	if a.Hash() != b.Hash() {
		t.Fatalf("equal records hash differently")
	}
	if List(Str("ab")).Hash() == List(Str("a"), Str("b")).Hash() {
		t.Fatalf("length prefix not applied")
	}
	if Str("x").Hash() == List(Str("x")).Hash() {
		t.Fatalf("kind tag not applied")
	}
}

func TestString(t *testing.T) {
	r := List(Str("a"), List(Str("b c")))
	if got, want := r.String(), `["a", ["b c"]]`; got != want {
		t.Fatalf("String() = %s, want %s", got, want)
	}
}
