package sift

import (
	"errors"
	"testing"
)

func TestParseFieldPath(t *testing.T) {
	fp, err := ParseFieldPath("tags.*.name")
	if err != nil {
		t.Fatalf("ParseFieldPath: %v", err)
	}
	if fp.String() != "tags.*.name" {
		t.Errorf("String: got %q", fp.String())
	}
	if fp.Len() != 3 {
		t.Errorf("Len: got %d, want 3", fp.Len())
	}
	if !fp.HasWildcard() {
		t.Error("expected wildcard")
	}
}

func TestParseFieldPathSingleSegment(t *testing.T) {
	fp, err := ParseFieldPath("title")
	if err != nil {
		t.Fatalf("ParseFieldPath: %v", err)
	}
	if fp.HasWildcard() {
		t.Error("unexpected wildcard")
	}
	if fp.String() != "title" {
		t.Errorf("String: got %q", fp.String())
	}
}

func TestParseFieldPathRejectsMalformed(t *testing.T) {
	for _, path := range []string{"", "a..b", ".a", "a.", "."} {
		_, err := ParseFieldPath(path)
		if err == nil {
			t.Errorf("ParseFieldPath(%q): expected error", path)
			continue
		}
		var pathErr *PathError
		if !errors.As(err, &pathErr) {
			t.Errorf("ParseFieldPath(%q): expected *PathError, got %T", path, err)
		}
	}
}

func TestMustParseFieldPathPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustParseFieldPath("a..b")
}
