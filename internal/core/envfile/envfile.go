// Package envfile models a line-oriented KEY=value environment file.
// This is part of the Functional Core - parsing and edits are pure; the
// only I/O lives in Load and WriteFile.
//
// Values are read with compose-go's dotenv parser, one line at a time, so a
// key means here what it means to docker compose. The lines themselves are
// kept verbatim, including CRLF endings and export prefixes.
package envfile

import (
	"bytes"
	"os"
	"strings"

	"github.com/compose-spec/compose-go/v2/dotenv"
)

// =============================================================================
// Line Model
// =============================================================================

// line is one physical line of the file, without its line ending. Lines that
// do not parse as an assignment (comments, blanks, garbage) keep key == ""
// and are written back untouched.
type line struct {
	raw  string
	key  string
	crlf bool
}

// File is an ordered, edit-preserving view of an environment file. As in
// docker compose, the last assignment of a key is the effective one.
type File struct {
	lines           []line
	trailingNewline bool
	crlf            bool
	dirty           bool
}

// Parse builds a File from raw content. It never fails: lines that are not
// assignments are kept verbatim and their keys are treated as absent.
func Parse(data []byte) *File {
	f := &File{}
	if len(data) == 0 {
		return f
	}

	content := string(data)
	f.trailingNewline = strings.HasSuffix(content, "\n")
	content = strings.TrimSuffix(content, "\n")

	for _, raw := range strings.Split(content, "\n") {
		l := line{raw: raw}
		if strings.HasSuffix(raw, "\r") {
			l.raw, l.crlf = strings.TrimSuffix(raw, "\r"), true
			f.crlf = true
		}
		l.key = parseKey(l.raw)
		f.lines = append(f.lines, l)
	}
	return f
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data), nil
}

// parseKey returns the assignment key of a raw line, or "" when the line is
// not an assignment.
func parseKey(raw string) string {
	_, rest := splitExport(raw)
	trimmed := strings.TrimSpace(rest)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}

	idx := strings.Index(trimmed, "=")
	if idx <= 0 {
		return ""
	}
	key := strings.TrimSpace(trimmed[:idx])
	if !validKey(key) {
		return ""
	}
	return key
}

// splitExport separates leading whitespace and an "export " keyword from the
// rest of the line.
func splitExport(raw string) (prefix, rest string) {
	trimmed := strings.TrimLeft(raw, " \t")
	after, ok := strings.CutPrefix(trimmed, "export")
	if !ok || after == "" || (after[0] != ' ' && after[0] != '\t') {
		return raw[:len(raw)-len(trimmed)], trimmed
	}
	rest = strings.TrimLeft(after, " \t")
	return raw[:len(raw)-len(rest)], rest
}

func validKey(key string) bool {
	for i, r := range key {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return key != ""
}

// value decodes the assignment on l the way compose does: quotes and escapes
// are resolved, inline comments dropped, and ${VAR} references expanded from
// the values assigned above it. A line dotenv rejects falls back to its raw
// text with one layer of quotes removed.
func (l line) value(earlier map[string]string) string {
	parsed, err := dotenv.UnmarshalWithLookup(l.raw, func(k string) (string, bool) {
		v, ok := earlier[k]
		return v, ok
	})
	if v, ok := parsed[l.key]; ok && err == nil {
		return v
	}
	return Unquote(rawValue(l.raw))
}

// rawValue returns everything after the first '=' of a raw line.
func rawValue(raw string) string {
	idx := strings.Index(raw, "=")
	if idx < 0 {
		return ""
	}
	return raw[idx+1:]
}

// Unquote trims surrounding whitespace and strips one layer of matching
// single or double quotes.
func Unquote(value string) string {
	v := strings.TrimSpace(value)
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' || first == '\'') && first == last {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// Quote renders value so that dotenv reads it back unchanged. Plain values
// are left bare; anything with whitespace, comments, quotes, escapes or
// variable references is quoted.
func Quote(value string) string {
	if !strings.ContainsAny(value, " \t\r\n#'\"\\$") {
		return value
	}
	if !strings.ContainsAny(value, "'\\\r\n") {
		return "'" + value + "'"
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "\n", `\n`, "\r", `\r`)
	return `"` + r.Replace(value) + `"`
}

// =============================================================================
// Accessors
// =============================================================================

// Get returns the decoded value of the effective assignment of key.
func (f *File) Get(key string) (string, bool) {
	v, ok := f.Map()[key]
	return v, ok
}

// Value returns the value of key, or "" when it is absent.
func (f *File) Value(key string) string {
	v, _ := f.Get(key)
	return v
}

// Map returns all assignments as a map; the last occurrence of a key wins.
func (f *File) Map() map[string]string {
	m := make(map[string]string)
	for _, l := range f.lines {
		if l.key != "" {
			m[l.key] = l.value(m)
		}
	}
	return m
}

// Dirty reports whether Set changed anything since the last write.
func (f *File) Dirty() bool {
	return f.dirty
}

// =============================================================================
// Mutations
// =============================================================================

// Set replaces the effective assignment of key in place, or appends a new
// one. The replaced line keeps its indentation, export keyword and line
// ending; every other line keeps its content and position.
func (f *File) Set(key, value string) {
	assignment := key + "=" + Quote(value)
	for i := len(f.lines) - 1; i >= 0; i-- {
		l := f.lines[i]
		if l.key != key {
			continue
		}
		prefix, _ := splitExport(l.raw)
		if newRaw := prefix + assignment; newRaw != l.raw {
			f.lines[i].raw = newRaw
			f.dirty = true
		}
		return
	}
	f.lines = append(f.lines, line{raw: assignment, key: key, crlf: f.crlf})
	f.trailingNewline = true
	f.dirty = true
}

// Bytes renders the file back to its on-disk form.
func (f *File) Bytes() []byte {
	var b bytes.Buffer
	for i, l := range f.lines {
		b.WriteString(l.raw)
		if l.crlf {
			b.WriteByte('\r')
		}
		if i < len(f.lines)-1 || f.trailingNewline {
			b.WriteByte('\n')
		}
	}
	return b.Bytes()
}

// WriteFile flushes the file to path, keeping the existing file mode when
// there is one.
func (f *File) WriteFile(path string) error {
	mode := os.FileMode(0o600)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, f.Bytes(), mode); err != nil {
		return err
	}
	f.dirty = false
	return nil
}
