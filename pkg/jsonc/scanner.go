// Package jsonc turns JSON-with-comments documents into strict JSON.
//
// Community theme files are JSONC in practice: they carry // and /* */
// comments and trailing commas that encoding/json rejects. Strip removes
// both so the result can be handed to a normal JSON decoder. It is a
// textual transform, not a validator; malformed input produces output
// whose errors surface in the downstream parser.
package jsonc

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options selects how Strip rewrites the document.
type Options struct {
	// Whitespace replaces each stripped byte with a space instead of
	// deleting it. Line terminators are kept verbatim either way, so
	// line/column positions in downstream parse errors still point at
	// the original source.
	Whitespace bool

	// TrailingCommas also strips a comma whose next non-whitespace
	// byte, after any stripped comment run, is '}' or ']'.
	TrailingCommas bool
}

// DefaultOptions preserves whitespace and leaves trailing commas alone.
func DefaultOptions() Options {
	return Options{Whitespace: true}
}

type scanState int

const (
	stateNormal scanState = iota
	stateString
	stateLineComment
	stateBlockComment
)

// Strip removes comments from data using DefaultOptions.
func Strip(data []byte) []byte {
	return StripWithOptions(data, DefaultOptions())
}

// StripWithOptions removes comments, and optionally trailing commas,
// from data. It never fails: any input produces some output.
func StripWithOptions(data []byte, opts Options) []byte {
	out := stripComments(data, opts.Whitespace)
	if opts.TrailingCommas {
		out = stripTrailingCommas(out, opts.Whitespace)
	}
	return out
}

// Unmarshal strips comments and trailing commas from data and decodes
// the result into v.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(StripWithOptions(data, Options{Whitespace: true, TrailingCommas: true}), v)
}

func stripComments(data []byte, whitespace bool) []byte {
	out := make([]byte, 0, len(data))
	state := stateNormal

	for i := 0; i < len(data); i++ {
		c := data[i]

		switch state {
		case stateNormal:
			switch {
			case c == '"':
				state = stateString
				out = append(out, c)
			case c == '/' && i+1 < len(data) && data[i+1] == '/':
				state = stateLineComment
				out = appendStripped(out, whitespace, c, data[i+1])
				i++
			case c == '/' && i+1 < len(data) && data[i+1] == '*':
				state = stateBlockComment
				out = appendStripped(out, whitespace, c, data[i+1])
				i++
			default:
				out = append(out, c)
			}

		case stateString:
			// String contents are never rewritten.
			out = append(out, c)
			if c == '"' && !escaped(data, i) {
				state = stateNormal
			}

		case stateLineComment:
			switch {
			case c == '\n':
				out = append(out, c)
				state = stateNormal
			case c == '\r' && i+1 < len(data) && data[i+1] == '\n':
				out = append(out, '\r', '\n')
				i++
				state = stateNormal
			default:
				out = appendStripped(out, whitespace, c)
			}

		case stateBlockComment:
			if c == '*' && i+1 < len(data) && data[i+1] == '/' {
				out = appendStripped(out, whitespace, c, data[i+1])
				i++
				state = stateNormal
			} else {
				// Unclosed comment at EOF strips to the end.
				out = appendStripped(out, whitespace, c)
			}
		}
	}

	return out
}

// stripTrailingCommas runs over already comment-stripped text, so a
// comma separated from its closing bracket by a stripped comment sees
// only whitespace (or nothing) in between.
func stripTrailingCommas(data []byte, whitespace bool) []byte {
	out := make([]byte, 0, len(data))
	inString := false

	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '"' && !escaped(data, i) {
			inString = !inString
		}
		if !inString && c == ',' && closerFollows(data, i+1) {
			if whitespace {
				out = append(out, ' ')
			}
			continue
		}
		out = append(out, c)
	}

	return out
}

// appendStripped emits the stripped form of the given bytes: a space
// each in whitespace mode, nothing otherwise. In whitespace mode line
// terminators keep their original bytes so line counts survive
// stripping.
func appendStripped(out []byte, whitespace bool, bs ...byte) []byte {
	if !whitespace {
		return out
	}
	for _, b := range bs {
		if b == '\n' || b == '\r' {
			out = append(out, b)
		} else {
			out = append(out, ' ')
		}
	}
	return out
}

// escaped reports whether the byte at i sits behind an odd-length run
// of backslashes. An even run (0, 2, 4, ...) means a quote at i is a
// real string delimiter.
func escaped(data []byte, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && data[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// closerFollows reports whether the next non-whitespace byte at or
// after i is '}' or ']'.
func closerFollows(data []byte, i int) bool {
	for ; i < len(data); i++ {
		switch data[i] {
		case ' ', '\t', '\r', '\n':
		default:
			return data[i] == '}' || data[i] == ']'
		}
	}
	return false
}
