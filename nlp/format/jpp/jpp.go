package jpp

// Package jpp normalizes a morphological analyzer's tab-separated record
// stream (one record per morpheme, EOS-terminated sentence blocks) into
// the column corpus format read by nlp/format/conll.

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const (
	EOS = "EOS"

	// analyzer record columns
	ID_FIELD      = 1
	SURFACE_FIELD = 5
	LEMMA_FIELD   = 8
	POS_FIELD     = 9
	SUBPOS_FIELD  = 11
	HEAD_FIELD    = 18
	DEPTYPE_FIELD = 19

	// head/deptype defaults when the analyzer emitted no dependency columns
	DEFAULT_HEAD    = "0"
	DEFAULT_DEPTYPE = "D"

	UNDEFINED_POS     = "未定義語"
	UNDEFINED_POS_KEY = "未定義語-その他"
)

var ErrUnknownPOS = errors.New("unknown part of speech")

// A PosTable resolves coarse/fine part-of-speech pairs to corpus POS
// shortcodes. It is built once by the caller and passed into every parse;
// there is no package-level table.
type PosTable struct {
	codes map[string]string
}

func NewPosTable() *PosTable {
	return &PosTable{codes: make(map[string]string)}
}

func (t *PosTable) Add(key, code string) {
	t.codes[key] = code
}

func (t *PosTable) Len() int {
	return len(t.codes)
}

// Resolve looks up a coarse/fine POS pair. The undefined-word coarse
// class always resolves through its fixed key; otherwise the fine value
// "*" selects the coarse-only key. A missing key is fatal, never silently
// defaulted.
func (t *PosTable) Resolve(pos, subpos string) (string, error) {
	var key string
	if pos == UNDEFINED_POS {
		key = UNDEFINED_POS_KEY
	} else if subpos == "*" {
		key = pos
	} else {
		key = pos + "-" + subpos
	}
	code, exists := t.codes[key]
	if !exists {
		return "", errors.Wrapf(ErrUnknownPOS, "%s", key)
	}
	return code, nil
}

// ReadPosTable reads a two-column TSV of POS keys to shortcodes.
func ReadPosTable(reader io.Reader) (*PosTable, error) {
	table := NewPosTable()
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		items := strings.Split(line, "\t")
		if len(items) < 2 {
			return nil, errors.Errorf("pos table row has %d fields: %s", len(items), line)
		}
		table.Add(items[0], items[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

func ReadPosTableFile(filename string) (*PosTable, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadPosTable(file)
}

// ParseSentence converts one EOS-terminated analyzer block into corpus
// format lines. Comment lines pass through verbatim; records repeating the
// previous morpheme id (alternative analyses) are skipped.
func ParseSentence(buf string, table *PosTable) (string, error) {
	var output strings.Builder
	prevID := ""
	for _, line := range strings.Split(buf, "\n") {
		if strings.HasPrefix(line, "#") {
			output.WriteString(line)
			output.WriteByte('\n')
			continue
		}
		if strings.HasPrefix(line, EOS) {
			break
		}
		items := strings.Split(strings.TrimSpace(line), "\t")
		if len(items) <= SUBPOS_FIELD {
			return "", errors.Errorf("analyzer record has %d fields: %s", len(items), line)
		}
		if items[ID_FIELD] == prevID {
			continue
		}
		prevID = items[ID_FIELD]

		pos, err := table.Resolve(items[POS_FIELD], items[SUBPOS_FIELD])
		if err != nil {
			return "", err
		}
		head, depType := DEFAULT_HEAD, DEFAULT_DEPTYPE
		if len(items) > DEPTYPE_FIELD {
			head = items[HEAD_FIELD]
			depType = items[DEPTYPE_FIELD]
		}
		record := []string{
			items[ID_FIELD],
			items[SURFACE_FIELD],
			items[LEMMA_FIELD],
			pos,
			pos,
			"_",
			head,
			depType,
			"_",
			"_",
		}
		output.WriteString(strings.Join(record, "\t"))
		output.WriteByte('\n')
	}
	output.WriteByte('\n')
	return output.String(), nil
}

// A Stream yields one sentence block of corpus-format text per Next call,
// reading analyzer records until EOS. Next returns io.EOF when the input
// is exhausted.
type Stream struct {
	scanner *bufio.Scanner
	table   *PosTable
}

func NewStream(reader io.Reader, table *PosTable) *Stream {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Stream{scanner: scanner, table: table}
}

func (s *Stream) Next() (string, error) {
	var buf strings.Builder
	seen := false
	for s.scanner.Scan() {
		line := s.scanner.Text()
		seen = true
		buf.WriteString(line)
		buf.WriteByte('\n')
		if strings.TrimSpace(line) == EOS {
			return ParseSentence(buf.String(), s.table)
		}
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	if seen {
		return ParseSentence(buf.String(), s.table)
	}
	return "", io.EOF
}

// Read converts an entire analyzer stream to corpus format.
func Read(reader io.Reader, table *PosTable) (string, error) {
	var output strings.Builder
	stream := NewStream(reader, table)
	for {
		block, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		output.WriteString(block)
	}
	return output.String(), nil
}

func ReadFile(filename string, table *PosTable) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return Read(file, table)
}
