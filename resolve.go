package sift

import (
	"fmt"
	"strconv"
)

// kind classifies a document value into the closed set the resolver
// walks over. Anything encoding/json produces falls into one of these.
type kind int

const (
	kindNull kind = iota
	kindMapping
	kindSequence
	kindScalar
)

func kindOf(v any) kind {
	switch v.(type) {
	case nil:
		return kindNull
	case map[string]any:
		return kindMapping
	case []any:
		return kindSequence
	default:
		return kindScalar
	}
}

// Resolve walks doc along fp and returns every matched text value with
// its concrete path (wildcards replaced by the traversed indices).
//
// A literal segment requires a mapping containing that key; a wildcard
// requires a sequence and forks into every element in order. Any shape
// mismatch or missing key silently yields zero results for that branch —
// an absent optional field is expected, not an error. Leaves must be
// scalars; mappings, sequences, and nulls at the leaf are skipped.
//
// Output order is deterministic: depth-first, element order. Chunk
// indices and identifiers downstream depend on it.
func Resolve(doc any, fp FieldPath) []ResolvedField {
	var out []ResolvedField
	resolve(doc, fp.segments, nil, &out)
	return out
}

func resolve(v any, segments []string, prefix []string, out *[]ResolvedField) {
	if len(segments) == 0 {
		if kindOf(v) != kindScalar {
			return
		}
		*out = append(*out, ResolvedField{
			Path: joinPath(prefix),
			Text: scalarText(v),
		})
		return
	}

	seg, rest := segments[0], segments[1:]
	if seg == Wildcard {
		seq, ok := v.([]any)
		if !ok {
			return
		}
		for i, elem := range seq {
			resolve(elem, rest, append(prefix, strconv.Itoa(i)), out)
		}
		return
	}

	m, ok := v.(map[string]any)
	if !ok {
		return
	}
	child, ok := m[seg]
	if !ok {
		return
	}
	resolve(child, rest, append(prefix, seg), out)
}

func joinPath(segments []string) string {
	n := 0
	for _, s := range segments {
		n += len(s) + 1
	}
	buf := make([]byte, 0, n)
	for i, s := range segments {
		if i > 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, s...)
	}
	return string(buf)
}

// scalarText converts a scalar leaf to its text form. JSON numbers
// arrive as float64; integral values render without a decimal point.
func scalarText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprintf("%v", val)
	}
}
