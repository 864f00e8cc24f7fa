package tree

// Package tree reads and writes the external phrase parser's tab-formatted
// analysis: clause unit lines (*), phrase unit lines (+), one line per
// morpheme, EOS-terminated. Units form an arena addressed by index;
// parent/child relations are index fields, never object references.

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	EOS           = "EOS"
	CLAUSE_PREFIX = "* "
	PHRASE_PREFIX = "+ "

	NO_PARENT = -1
)

// A Morpheme is one analyzed surface token; the original line is kept
// verbatim for round-tripping.
type Morpheme struct {
	ID      int
	Surface string
	Line    string
}

// A Unit is one phrase or clause node: the morphemes it directly contains
// and its parent within the same unit list.
type Unit struct {
	ID      int
	Parent  int
	DepType string
	// remainder of the unit line after the parent/type token, verbatim
	Feats     string
	Morphemes []int
	// phrase ids contained in this clause; empty for phrase units
	Phrases []int
}

// LastMorpheme is the highest morpheme id the unit directly contains.
func (u *Unit) LastMorpheme() int {
	last := -1
	for _, id := range u.Morphemes {
		if id > last {
			last = id
		}
	}
	return last
}

type Tree struct {
	Comment   string
	Morphemes []Morpheme
	Phrases   []Unit
	Clauses   []Unit
}

// MorphemeOwner maps every morpheme id to the index of its directly
// containing unit within the given unit list.
func MorphemeOwner(units []Unit) map[int]int {
	owner := make(map[int]int)
	for i, unit := range units {
		for _, id := range unit.Morphemes {
			owner[id] = i
		}
	}
	return owner
}

func parseUnitHeader(header string) (int, string, error) {
	fields := strings.SplitN(header, " ", 2)
	token := fields[0]
	if len(token) < 2 {
		return 0, "", errors.Errorf("malformed unit header %q", header)
	}
	parent, err := strconv.Atoi(token[:len(token)-1])
	if err != nil {
		return 0, "", errors.Wrapf(err, "malformed unit parent in %q", header)
	}
	depType := token[len(token)-1:]
	return parent, depType, nil
}

func unitFeats(header string) string {
	fields := strings.SplitN(header, " ", 2)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// Parse reads one sentence's analysis up to EOS.
func Parse(text string) (*Tree, error) {
	t := new(Tree)
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			t.Comment = line
			continue
		}
		if strings.HasPrefix(line, EOS) {
			break
		}
		switch {
		case strings.HasPrefix(line, CLAUSE_PREFIX):
			parent, depType, err := parseUnitHeader(line[len(CLAUSE_PREFIX):])
			if err != nil {
				return nil, err
			}
			t.Clauses = append(t.Clauses, Unit{
				ID:      len(t.Clauses),
				Parent:  parent,
				DepType: depType,
				Feats:   unitFeats(line[len(CLAUSE_PREFIX):]),
			})
		case strings.HasPrefix(line, PHRASE_PREFIX):
			parent, depType, err := parseUnitHeader(line[len(PHRASE_PREFIX):])
			if err != nil {
				return nil, err
			}
			if len(t.Clauses) == 0 {
				return nil, errors.New("phrase unit before any clause unit")
			}
			t.Phrases = append(t.Phrases, Unit{
				ID:      len(t.Phrases),
				Parent:  parent,
				DepType: depType,
				Feats:   unitFeats(line[len(PHRASE_PREFIX):]),
			})
			clause := &t.Clauses[len(t.Clauses)-1]
			clause.Phrases = append(clause.Phrases, len(t.Phrases)-1)
		default:
			if len(t.Phrases) == 0 {
				return nil, errors.Errorf("morpheme before any phrase unit: %q", line)
			}
			morpheme := Morpheme{
				ID:      len(t.Morphemes),
				Surface: strings.SplitN(line, " ", 2)[0],
				Line:    line,
			}
			t.Morphemes = append(t.Morphemes, morpheme)
			phrase := &t.Phrases[len(t.Phrases)-1]
			phrase.Morphemes = append(phrase.Morphemes, morpheme.ID)
			clause := &t.Clauses[len(t.Clauses)-1]
			clause.Morphemes = append(clause.Morphemes, morpheme.ID)
		}
	}
	if len(t.Morphemes) == 0 {
		return nil, errors.New("empty tree")
	}
	return t, nil
}

func writeUnitLine(writer io.Writer, prefix string, unit Unit) error {
	line := prefix + strconv.Itoa(unit.Parent) + unit.DepType
	if unit.Feats != "" {
		line += " " + unit.Feats
	}
	_, err := io.WriteString(writer, line+"\n")
	return err
}

// Write renders the analysis back into its tab form: clause line, its
// phrase lines, each phrase's morphemes, closing EOS.
func (t *Tree) Write(writer io.Writer) error {
	if t.Comment != "" {
		if _, err := io.WriteString(writer, t.Comment+"\n"); err != nil {
			return err
		}
	}
	for _, clause := range t.Clauses {
		if err := writeUnitLine(writer, CLAUSE_PREFIX, clause); err != nil {
			return err
		}
		for _, phraseID := range clause.Phrases {
			phrase := t.Phrases[phraseID]
			if err := writeUnitLine(writer, PHRASE_PREFIX, phrase); err != nil {
				return err
			}
			for _, morphemeID := range phrase.Morphemes {
				if _, err := io.WriteString(writer, t.Morphemes[morphemeID].Line+"\n"); err != nil {
					return err
				}
			}
		}
	}
	_, err := io.WriteString(writer, EOS+"\n")
	return err
}

// A Stream yields one parsed tree per EOS-terminated block; Next returns
// io.EOF when the input is exhausted.
type Stream struct {
	scanner *bufio.Scanner
}

func NewStream(reader io.Reader) *Stream {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Stream{scanner: scanner}
}

func (s *Stream) Next() (*Tree, error) {
	var buf strings.Builder
	seen := false
	for s.scanner.Scan() {
		line := s.scanner.Text()
		seen = true
		buf.WriteString(line)
		buf.WriteByte('\n')
		if strings.TrimSpace(line) == EOS {
			return Parse(buf.String())
		}
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	if seen {
		return Parse(buf.String())
	}
	return nil, io.EOF
}

// PhraseSurface concatenates the surfaces of one phrase unit.
func (t *Tree) PhraseSurface(phrase Unit) string {
	var surface strings.Builder
	for _, id := range phrase.Morphemes {
		surface.WriteString(t.Morphemes[id].Surface)
	}
	return surface.String()
}

// SprintTree renders the phrase units as an indented tree: one phrase per
// line, children indented under their parent, dependency type appended.
func (t *Tree) SprintTree() string {
	children := make([][]int, len(t.Phrases))
	roots := make([]int, 0, 1)
	for i, phrase := range t.Phrases {
		if phrase.Parent == NO_PARENT {
			roots = append(roots, i)
			continue
		}
		children[phrase.Parent] = append(children[phrase.Parent], i)
	}
	var out strings.Builder
	var render func(id, depth int)
	render = func(id, depth int) {
		phrase := t.Phrases[id]
		out.WriteString(strings.Repeat("  ", depth))
		out.WriteString(t.PhraseSurface(phrase))
		if phrase.Parent != NO_PARENT {
			out.WriteString(" (" + phrase.DepType + ")")
		}
		out.WriteByte('\n')
		for _, child := range children[id] {
			render(child, depth+1)
		}
	}
	for _, root := range roots {
		render(root, 0)
	}
	return out.String()
}
