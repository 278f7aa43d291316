// Package manifest reads, edits and writes JAR manifests.
//
// The format follows the JAR file specification: "Name: value" headers,
// lines of at most 72 bytes, continuation lines starting with one space and
// sections separated by blank lines. Output always uses CRLF line endings and
// keeps the attribute order of the input, so rewriting an unchanged manifest
// is byte-stable.
package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// maxLineLength is the longest manifest line in bytes, excluding the line break
const maxLineLength = 72

// Attribute is one manifest header
type Attribute struct {
	Name  string
	Value string
}

// Section is an ordered list of attributes
type Section struct {
	Attributes []Attribute
}

// Get returns the value of the named attribute. Names are case-insensitive.
func (s *Section) Get(name string) (string, bool) {
	for _, a := range s.Attributes {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// Set replaces the value of the named attribute in place, or appends it
func (s *Section) Set(name, value string) {
	for i, a := range s.Attributes {
		if strings.EqualFold(a.Name, name) {
			s.Attributes[i].Value = value
			return
		}
	}
	s.Attributes = append(s.Attributes, Attribute{Name: name, Value: value})
}

// Manifest is a parsed manifest: the main section and the named
// per-entry sections in file order
type Manifest struct {
	Main     Section
	Sections []Section
}

// Parse reads a manifest. LF, CRLF and CR line breaks are accepted.
func Parse(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m := &Manifest{}
	current := &m.Main
	inMain := true
	started := false

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 4096), len(data)+1)
	scanner.Split(scanLines)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		switch {
		case line == "":
			if inMain || started {
				inMain = false
				started = false
			}
		case line[0] == ' ':
			if len(current.Attributes) == 0 || !started {
				return nil, fmt.Errorf("line %d: continuation line without a header", lineNo)
			}
			last := &current.Attributes[len(current.Attributes)-1]
			last.Value += line[1:]
		default:
			name, value, ok := strings.Cut(line, ": ")
			if !ok || name == "" {
				return nil, fmt.Errorf("line %d: invalid header %q", lineNo, line)
			}
			if !inMain && !started {
				m.Sections = append(m.Sections, Section{})
				current = &m.Sections[len(m.Sections)-1]
			}
			started = true
			current.Attributes = append(current.Attributes, Attribute{Name: name, Value: value})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Bytes renders the manifest with CRLF line endings
func (m *Manifest) Bytes() []byte {
	var b bytes.Buffer
	writeSection(&b, m.Main)
	b.WriteString("\r\n")
	for _, s := range m.Sections {
		writeSection(&b, s)
		b.WriteString("\r\n")
	}
	return b.Bytes()
}

func writeSection(b *bytes.Buffer, s Section) {
	for _, a := range s.Attributes {
		writeHeader(b, a.Name+": "+a.Value)
	}
}

// writeHeader wraps a header at 72 bytes without splitting a UTF-8 sequence
func writeHeader(b *bytes.Buffer, line string) {
	limit := maxLineLength
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		limit = maxLineLength - 1
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

// scanLines splits on LF, CRLF or a lone CR
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
