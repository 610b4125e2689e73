package sift

import (
	"reflect"
	"testing"
)

func testDoc() map[string]any {
	return map[string]any{
		"id":    "d1",
		"title": "a b c d e",
		"meta": map[string]any{
			"author": "Ada",
			"year":   float64(1843),
		},
		"tags": []any{"x", "y"},
		"sections": []any{
			map[string]any{"name": "intro", "body": "first"},
			map[string]any{"name": "outro", "body": "last"},
		},
		"deleted": nil,
	}
}

func TestResolveLiteral(t *testing.T) {
	got := Resolve(testDoc(), MustParseFieldPath("title"))
	want := []ResolvedField{{Path: "title", Text: "a b c d e"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveNested(t *testing.T) {
	got := Resolve(testDoc(), MustParseFieldPath("meta.author"))
	if len(got) != 1 || got[0].Path != "meta.author" || got[0].Text != "Ada" {
		t.Errorf("got %v", got)
	}
}

func TestResolveWildcard(t *testing.T) {
	got := Resolve(testDoc(), MustParseFieldPath("tags.*"))
	want := []ResolvedField{
		{Path: "tags.0", Text: "x"},
		{Path: "tags.1", Text: "y"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveWildcardThenLiteral(t *testing.T) {
	got := Resolve(testDoc(), MustParseFieldPath("sections.*.name"))
	want := []ResolvedField{
		{Path: "sections.0.name", Text: "intro"},
		{Path: "sections.1.name", Text: "outro"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveMisses(t *testing.T) {
	doc := testDoc()
	cases := []string{
		"missing.field",  // absent key
		"title.*",        // wildcard over a scalar
		"title.nested",   // literal into a scalar
		"meta",           // mapping leaf is not text
		"sections",       // sequence leaf is not text
		"deleted",        // null leaf
		"tags.*.name",    // literal into scalar elements
		"meta.*",         // wildcard over a mapping
	}
	for _, path := range cases {
		if got := Resolve(doc, MustParseFieldPath(path)); len(got) != 0 {
			t.Errorf("Resolve(%q): expected no results, got %v", path, got)
		}
	}
}

func TestResolveScalarConversion(t *testing.T) {
	doc := map[string]any{
		"n":     float64(42),
		"pi":    float64(3.5),
		"ok":    true,
		"label": "text",
	}
	cases := map[string]string{
		"n":     "42",
		"pi":    "3.5",
		"ok":    "true",
		"label": "text",
	}
	for path, want := range cases {
		got := Resolve(doc, MustParseFieldPath(path))
		if len(got) != 1 || got[0].Text != want {
			t.Errorf("Resolve(%q): got %v, want text %q", path, got, want)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	doc := testDoc()
	fp := MustParseFieldPath("sections.*.body")
	first := Resolve(doc, fp)
	for i := 0; i < 10; i++ {
		if got := Resolve(doc, fp); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestResolveNilDocument(t *testing.T) {
	if got := Resolve(nil, MustParseFieldPath("title")); len(got) != 0 {
		t.Errorf("expected no results, got %v", got)
	}
}
