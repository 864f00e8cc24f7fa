package conll

// Package conll reads and writes the tab-separated dependency corpus
// format: blank-line-delimited sentence blocks, one 10-column line per
// word, # comment lines preserved verbatim.
// For a description of the column layout see http://ilk.uvt.nl/conll/#dataformat

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"bertdep/nlp/types"

	"github.com/pkg/errors"
	"golang.org/x/text/width"
)

const (
	FIELD_SEPARATOR = '\t'
	NUM_FIELDS      = 10

	FORM_FIELD     = 1
	LEMMA_FIELD    = 2
	CPOS_FIELD     = 3
	POS_FIELD      = 4
	FEATS_FIELD    = 5
	HEAD_FIELD     = 6
	DEPREL_FIELD   = 7
	COMMENT_PREFIX = "#"
)

// A Row is a single parsed row of the corpus
type Row struct {
	ID      int
	Form    string
	Lemma   string
	CPosTag string
	PosTag  string
	FeatStr string
	Head    int
	DepRel  string
}

func (r Row) String() string {
	fields := []string{
		strconv.Itoa(r.ID),
		r.Form,
		r.Lemma,
		r.CPosTag,
		r.PosTag,
		r.FeatStr,
		strconv.Itoa(r.Head),
		r.DepRel,
		"_",
		"_"}
	return strings.Join(fields, string(FIELD_SEPARATOR))
}

func ParseInt(value string) (int, error) {
	if value == "_" {
		return 0, nil
	}
	i, err := strconv.ParseInt(value, 10, 0)
	return int(i), err
}

func ParseRow(record []string) (Row, error) {
	var row Row
	if len(record) < NUM_FIELDS-2 {
		return row, errors.Errorf("expected at least %d fields, got %d", NUM_FIELDS-2, len(record))
	}
	id, err := ParseInt(record[0])
	if err != nil {
		return row, errors.Wrapf(err, "error parsing ID field (%s)", record[0])
	}
	row.ID = id

	if record[FORM_FIELD] == "" {
		return row, errors.New("empty FORM field")
	}
	row.Form = record[FORM_FIELD]
	row.Lemma = record[LEMMA_FIELD]
	row.CPosTag = record[CPOS_FIELD]
	row.PosTag = record[POS_FIELD]
	row.FeatStr = record[FEATS_FIELD]

	head, err := ParseInt(record[HEAD_FIELD])
	if err != nil {
		return row, errors.Wrapf(err, "error parsing HEAD field (%s)", record[HEAD_FIELD])
	}
	row.Head = head
	row.DepRel = record[DEPREL_FIELD]
	return row, nil
}

// Options select the reading mode; see the task flags of the parse and
// prepare commands.
type Options struct {
	// Training keeps gold heads and tags; otherwise heads are forced to
	// unknown and the head column is rewritten in the preserved lines
	Training bool
	// Parsing attaches heads to units (only meaningful combined with the
	// segmentation modes; word mode always carries heads)
	Parsing bool
	// WordSegmentation explodes words into characters with BIE tags
	WordSegmentation bool
	// UseGoldSegmentation forces gold word boundaries at inference
	UseGoldSegmentation bool
	// UseGoldPos keeps gold POS columns and raw lines at inference
	UseGoldPos    bool
	PosTagging    bool
	SubposTagging bool
	FeatsTagging  bool
	DepLabel      bool
	// H2Z widens halfwidth characters, keeping original surfaces for output
	H2Z bool
}

// Characters selects character mode: one unit per character instead of
// one per word.
func (o Options) Characters() bool {
	return o.WordSegmentation || o.UseGoldSegmentation
}

// Tasks returns the labeling tasks active under these options.
func (o Options) Tasks() []string {
	var tasks []string
	if o.WordSegmentation {
		tasks = append(tasks, types.TASK_WORD_SEG)
	}
	if o.PosTagging {
		tasks = append(tasks, types.TASK_POS)
	}
	if o.SubposTagging {
		tasks = append(tasks, types.TASK_SUBPOS)
	}
	if o.FeatsTagging {
		tasks = append(tasks, types.TASK_FEATS)
	}
	if o.DepLabel {
		tasks = append(tasks, types.TASK_DEP_LABEL)
	}
	return tasks
}

type blockReader struct {
	opts        Options
	example     *types.Example
	wordToChar  []int
	numExamples int
}

func newBlockReader(opts Options) *blockReader {
	b := &blockReader{opts: opts}
	b.reset()
	return b
}

func (b *blockReader) reset() {
	b.example = types.NewExample(b.numExamples, b.opts.Tasks())
	b.wordToChar = b.wordToChar[:0]
}

func (b *blockReader) addLine(line string) error {
	if strings.HasPrefix(line, COMMENT_PREFIX) {
		b.example.Comment = line
		return nil
	}
	items := strings.Split(line, string(FIELD_SEPARATOR))
	row, err := ParseRow(items)
	if err != nil {
		return errors.Wrapf(err, "example %d", b.example.ID)
	}

	if b.opts.Characters() {
		b.addCharacters(row, items, line)
		return nil
	}

	// word mode
	head := row.Head
	if !b.opts.Training {
		head = types.UNKNOWN_HEAD
		items[HEAD_FIELD] = strconv.Itoa(types.UNKNOWN_HEAD)
		line = strings.Join(items, string(FIELD_SEPARATOR))
	}
	b.example.Units = append(b.example.Units, row.Form)
	b.example.Heads = append(b.example.Heads, head)
	b.example.Lines = append(b.example.Lines, line)
	return nil
}

// addCharacters explodes one word row into character units: BIE tags per
// character, word-level head attached only to the first character.
func (b *blockReader) addCharacters(row Row, items []string, line string) {
	head := row.Head
	if !b.opts.Training {
		head = types.UNKNOWN_HEAD
		if !b.opts.UseGoldPos {
			items[CPOS_FIELD] = types.UNKNOWN_TAG
			items[POS_FIELD] = types.UNKNOWN_TAG
		}
		if b.opts.DepLabel {
			items[DEPREL_FIELD] = types.UNKNOWN_TAG
		}
	}

	ex := b.example
	chars := []rune(row.Form)
	charOffset := len(ex.Units)
	for i, char := range chars {
		ex.Units = append(ex.Units, string(char))
		if b.opts.WordSegmentation {
			ex.TokenTags[types.TASK_WORD_SEG] = append(ex.TokenTags[types.TASK_WORD_SEG],
				segmentationTag(i, len(chars), b.opts.Training))
		}
		if i == 0 {
			if b.opts.Parsing {
				ex.Heads = append(ex.Heads, head)
			} else {
				ex.Heads = append(ex.Heads, types.UNKNOWN_HEAD)
			}
			b.appendTags(items[CPOS_FIELD], items[POS_FIELD], items[FEATS_FIELD], items[DEPREL_FIELD])
			b.wordToChar = append(b.wordToChar, charOffset)
		} else {
			ex.Heads = append(ex.Heads, types.UNKNOWN_HEAD)
			b.appendTags(types.UNKNOWN_TAG, types.UNKNOWN_TAG, types.UNKNOWN_TAG, types.UNKNOWN_TAG)
		}
	}
	if b.opts.UseGoldSegmentation {
		ex.GoldWords = append(ex.GoldWords, row.Form)
	}
	if b.opts.UseGoldPos {
		ex.Lines = append(ex.Lines, line)
	}
}

func (b *blockReader) appendTags(pos, subpos, feats, depLabel string) {
	ex := b.example
	if b.opts.PosTagging {
		ex.TokenTags[types.TASK_POS] = append(ex.TokenTags[types.TASK_POS], pos)
	}
	if b.opts.SubposTagging {
		ex.TokenTags[types.TASK_SUBPOS] = append(ex.TokenTags[types.TASK_SUBPOS], subpos)
	}
	if b.opts.FeatsTagging {
		ex.TokenTags[types.TASK_FEATS] = append(ex.TokenTags[types.TASK_FEATS], feats)
	}
	if b.opts.DepLabel {
		ex.TokenTags[types.TASK_DEP_LABEL] = append(ex.TokenTags[types.TASK_DEP_LABEL], depLabel)
	}
}

// flush closes the current block and returns the finished Example, or nil
// if the block was empty (consecutive blank lines).
func (b *blockReader) flush() *types.Example {
	ex := b.example
	if len(ex.Units) == 0 && ex.Comment == "" {
		return nil
	}
	if b.opts.Characters() {
		if b.opts.Training {
			// re-target word heads to the absolute character index of the
			// head word's first character, 1-based; root and unknown pass
			// through unchanged
			for i, head := range ex.Heads {
				if head != types.UNKNOWN_HEAD && head != types.ROOT_HEAD {
					ex.Heads[i] = b.wordToChar[head-1] + 1
				}
			}
		} else {
			for i := range ex.Heads {
				ex.Heads[i] = types.UNKNOWN_HEAD
			}
		}
	}
	if b.opts.H2Z {
		ex.UnitsOrig = ex.Units
		widened := make([]string, len(ex.Units))
		for i, unit := range ex.Units {
			widened[i] = width.Widen.String(unit)
		}
		ex.Units = widened
	}
	b.numExamples++
	b.reset()
	return ex
}

func segmentationTag(i, charNum int, training bool) string {
	if !training {
		return types.UNKNOWN_TAG
	}
	switch {
	case i == 0:
		return types.SEG_BEGIN
	case i == charNum-1:
		return types.SEG_END
	default:
		return types.SEG_INSIDE
	}
}

func Read(reader io.Reader, opts Options) ([]*types.Example, error) {
	var examples []*types.Example
	stream := NewStream(reader, opts)
	for {
		example, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		examples = append(examples, example)
	}
	return examples, nil
}

func ReadFile(filename string, opts Options) ([]*types.Example, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file, opts)
}

// A Stream pulls one Example at a time from a live reader; Next returns
// io.EOF when the input is exhausted. Used for chained ingestion where
// sentences arrive indefinitely on stdin.
type Stream struct {
	scanner *bufio.Scanner
	block   *blockReader
	done    bool
}

func NewStream(reader io.Reader, opts Options) *Stream {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Stream{scanner: scanner, block: newBlockReader(opts)}
}

func (s *Stream) Next() (*types.Example, error) {
	if s.done {
		return nil, io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			if example := s.block.flush(); example != nil {
				return example, nil
			}
			continue
		}
		if err := s.block.addLine(line); err != nil {
			return nil, err
		}
	}
	s.done = true
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	// input may end without a trailing blank line
	if example := s.block.flush(); example != nil {
		return example, nil
	}
	return nil, io.EOF
}

// WriteExample writes one decoded sentence block: optional comment line,
// one row per word, and the closing blank line.
func WriteExample(writer io.Writer, comment string, rows []Row) error {
	if comment != "" {
		if _, err := io.WriteString(writer, comment+"\n"); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if _, err := io.WriteString(writer, row.String()+"\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(writer, "\n")
	return err
}

// WriteLines writes a block of preserved raw lines, used by the word-mode
// output path where only the head column was rewritten.
func WriteLines(writer io.Writer, comment string, lines []string) error {
	if comment != "" {
		if _, err := io.WriteString(writer, comment+"\n"); err != nil {
			return err
		}
	}
	for _, line := range lines {
		if _, err := io.WriteString(writer, line+"\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(writer, "\n")
	return err
}
