package decode

// Package decode reconstructs well-formed linguistic structures from raw
// scorer output: word boundaries from character segmentation tags, one
// acyclic head per word from ranked candidate heads, and symbolic tags
// from predicted indices.

import (
	"strconv"
	"strings"

	"bertdep/nlp/features"
	"bertdep/nlp/format/conll"
	"bertdep/nlp/scorer"
	"bertdep/nlp/types"
	"bertdep/nlp/vocab"

	"github.com/pkg/errors"
)

var (
	ErrNoValidHead    = errors.New("no admissible candidate head")
	ErrHeadOutOfRange = errors.New("predicted head outside the sub-token range")
)

// Placeholder column values for tasks that were not decoded
const (
	DUMMY_TAG   = "dummy"
	EMPTY_FIELD = "_"
)

// A Word is the working structure of one segmentation-decode pass: the
// characters accumulated into one surface word and, once head decoding
// ran, its parent word. The char-index lists of all Words of one pass
// partition the character sequence.
type Word struct {
	CharIndex       int
	Form            string
	CharIndices     []int
	ParentWordIndex int
}

func newWord(charIndex int) *Word {
	return &Word{CharIndex: charIndex, ParentWordIndex: -1}
}

// A Decoder turns scorer Results for one corpus run back into sentences.
type Decoder struct {
	Vocabs       vocab.Set
	MaxSeqLength int
	Opts         conll.Options
}

func NewDecoder(vocabs vocab.Set, maxSeqLength int, opts conll.Options) *Decoder {
	return &Decoder{Vocabs: vocabs, MaxSeqLength: maxSeqLength, Opts: opts}
}

func (d *Decoder) vocabulary(task string) (*vocab.Vocabulary, error) {
	v, exists := d.Vocabs[task]
	if !exists {
		return nil, errors.Errorf("no vocabulary for task %s", task)
	}
	return v, nil
}

// Segment reconstructs Words from per-character segmentation predictions,
// or directly from the gold word list when gold segmentation was forced.
// It also returns the character-to-word index map.
func (d *Decoder) Segment(example *types.Example, feature *features.Feature, result *scorer.Result) ([]*Word, []int, error) {
	var words []*Word
	var charToWord []int

	if d.Opts.UseGoldSegmentation {
		charOffset := 0
		for _, goldWord := range example.GoldWords {
			word := newWord(charOffset)
			word.Form = goldWord
			for i := range []rune(goldWord) {
				word.CharIndices = append(word.CharIndices, charOffset+i)
				charToWord = append(charToWord, len(words))
			}
			words = append(words, word)
			charOffset += len([]rune(goldWord))
		}
		return words, charToWord, nil
	}

	segVocab, err := d.vocabulary(types.TASK_WORD_SEG)
	if err != nil {
		return nil, nil, err
	}
	for i, char := range example.Surfaces() {
		tagIndex := result.TokenTags[types.TASK_WORD_SEG][feature.OrigToTok[i]+features.CLS_OFFSET]
		tag, err := segVocab.LabelOf(tagIndex)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "example %d: char %d", example.ID, i)
		}
		if i == 0 || tag == types.SEG_BEGIN {
			words = append(words, newWord(i))
		}
		last := words[len(words)-1]
		last.Form += char
		last.CharIndices = append(last.CharIndices, i)
		charToWord = append(charToWord, len(words)-1)
	}
	return words, charToWord, nil
}

// decodeHead assigns one parent to word i from its ranked candidate heads.
// Returned head id is 1-based with 0 for root; the second value is the
// paired dependency-label index (unknown if labels were not requested).
func (d *Decoder) decodeHead(words []*Word, charToWord []int, feature *features.Feature,
	result *scorer.Result, i int, rootExists *bool) (int, int, error) {
	word := words[i]
	position := feature.OrigToTok[word.CharIndex] + features.CLS_OFFSET
	for k, candidate := range result.TopKHeads[position] {
		if candidate == d.MaxSeqLength-1 {
			// ROOT sentinel; at most one word may take it
			if *rootExists {
				continue
			}
			*rootExists = true
			return types.ROOT_HEAD, d.candidateLabel(result, position, k), nil
		}
		h := candidate - 1
		if h < 0 || h >= len(charToWord) {
			continue
		}
		if containsChar(word.CharIndices, h) {
			continue
		}
		if d.createsCycle(words, charToWord, candidate, i) {
			continue
		}
		word.ParentWordIndex = charToWord[h]
		return charToWord[h] + 1, d.candidateLabel(result, position, k), nil
	}
	return 0, 0, errors.Wrapf(ErrNoValidHead, "word %d (%s)", i, word.Form)
}

func (d *Decoder) candidateLabel(result *scorer.Result, position, k int) int {
	if !d.Opts.DepLabel {
		return types.UNKNOWN_INDEX
	}
	return result.TopKDepLabels[position][k]
}

func containsChar(charIndices []int, h int) bool {
	for _, index := range charIndices {
		if index == h {
			return true
		}
	}
	return false
}

// createsCycle walks the already-finalized parent pointers up from the
// candidate's owning word; reaching the word being assigned means the
// assignment would close a cycle. The walk is bounded by the word count:
// finalized pointers cannot repeat, so exceeding the bound is itself
// treated as a cycle.
func (d *Decoder) createsCycle(words []*Word, charToWord []int, candidate, targetWordIndex int) bool {
	headWord := charToWord[candidate-1]
	for steps := 0; steps <= len(words); steps++ {
		parent := words[headWord].ParentWordIndex
		if parent == -1 {
			return false
		}
		if parent == targetWordIndex {
			return true
		}
		headWord = parent
	}
	return true
}

// Rows decodes one segmented example into output rows: surface words,
// 1-based heads (0 = root), and the configured tag columns.
func (d *Decoder) Rows(example *types.Example, feature *features.Feature, result *scorer.Result) ([]conll.Row, error) {
	words, charToWord, err := d.Segment(example, feature, result)
	if err != nil {
		return nil, err
	}

	rows := make([]conll.Row, 0, len(words))
	rootExists := false
	for i, word := range words {
		var headID, labelIndex int
		if d.Opts.Parsing {
			headID, labelIndex, err = d.decodeHead(words, charToWord, feature, result, i, &rootExists)
			if err != nil {
				return nil, errors.Wrapf(err, "example %d", example.ID)
			}
		} else {
			// segmentation-only runs still emit a well-formed tree: the
			// first word is root, every other word attaches to it
			labelIndex = types.UNKNOWN_INDEX
			if i == 0 {
				headID = types.ROOT_HEAD
			} else {
				headID = 1
			}
		}

		row := conll.Row{
			ID:     i + 1,
			Form:   word.Form,
			Lemma:  word.Form,
			Head:   headID,
			DepRel: DUMMY_TAG,
		}
		if err := d.fillTags(&row, example, feature, result, word, i, labelIndex); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (d *Decoder) fillTags(row *conll.Row, example *types.Example, feature *features.Feature,
	result *scorer.Result, word *Word, i, labelIndex int) error {
	var goldItems []string
	if d.Opts.UseGoldPos {
		goldItems = strings.Split(example.Lines[i], "\t")
	}
	position := feature.OrigToTok[word.CharIndex] + features.CLS_OFFSET

	lookup := func(task string) (string, error) {
		v, err := d.vocabulary(task)
		if err != nil {
			return "", err
		}
		label, err := v.LabelOf(result.TokenTags[task][position])
		if err != nil {
			return "", errors.Wrapf(err, "example %d: word %d", example.ID, i)
		}
		return label, nil
	}

	var err error
	switch {
	case d.Opts.PosTagging:
		if row.CPosTag, err = lookup(types.TASK_POS); err != nil {
			return err
		}
	case d.Opts.UseGoldPos:
		row.CPosTag = goldItems[conll.CPOS_FIELD]
	default:
		row.CPosTag = DUMMY_TAG
	}
	switch {
	case d.Opts.SubposTagging:
		if row.PosTag, err = lookup(types.TASK_SUBPOS); err != nil {
			return err
		}
	case d.Opts.UseGoldPos:
		row.PosTag = goldItems[conll.POS_FIELD]
	default:
		row.PosTag = EMPTY_FIELD
	}
	switch {
	case d.Opts.FeatsTagging:
		if row.FeatStr, err = lookup(types.TASK_FEATS); err != nil {
			return err
		}
	case d.Opts.UseGoldPos:
		row.FeatStr = goldItems[conll.FEATS_FIELD]
	default:
		row.FeatStr = EMPTY_FIELD
	}
	if d.Opts.DepLabel && labelIndex != types.UNKNOWN_INDEX {
		v, err := d.vocabulary(types.TASK_DEP_LABEL)
		if err != nil {
			return err
		}
		if row.DepRel, err = v.LabelOf(labelIndex); err != nil {
			return errors.Wrapf(err, "example %d: word %d", example.ID, i)
		}
	}
	return nil
}

// headUnit resolves a predicted padded-sequence head position to the
// originating unit index. A position outside the sub-token range (the
// start sentinel or the padding region) means the scorer emitted a head
// the sentence cannot realize.
func (d *Decoder) headUnit(example *types.Example, feature *features.Feature, lineNum, predHead int) (int, error) {
	j := predHead - features.CLS_OFFSET
	if j < 0 || j >= len(feature.TokToOrig) {
		return 0, errors.Wrapf(ErrHeadOutOfRange, "example %d: line %d head position %d",
			example.ID, lineNum, predHead)
	}
	return feature.TokToOrig[j], nil
}

// RewriteLines is the word-mode output path: the preserved raw lines with
// the head column replaced by the decoded head (0 for ROOT).
func (d *Decoder) RewriteLines(example *types.Example, feature *features.Feature, result *scorer.Result) ([]string, error) {
	lines := make([]string, len(example.Lines))
	for lineNum, line := range example.Lines {
		items := strings.Split(line, "\t")
		predHead := result.Heads[feature.OrigToTok[lineNum]+features.CLS_OFFSET]
		if predHead == d.MaxSeqLength-1 {
			predHead = types.ROOT_HEAD
		} else {
			unit, err := d.headUnit(example, feature, lineNum, predHead)
			if err != nil {
				return nil, err
			}
			predHead = unit + 1
		}
		items[conll.HEAD_FIELD] = strconv.Itoa(predHead)
		lines[lineNum] = strings.Join(items, "\t")
	}
	return lines, nil
}

// HeadIDs extracts morpheme-level decoded heads and dependency types for
// the phrase-tree merge: per preserved line, the head's morpheme index
// (-1 for ROOT) and the line's dependency-type column.
func (d *Decoder) HeadIDs(example *types.Example, feature *features.Feature, result *scorer.Result) ([]int, []string, error) {
	headIDs := make([]int, len(example.Lines))
	depTypes := make([]string, len(example.Lines))
	for lineNum, line := range example.Lines {
		items := strings.Split(line, "\t")
		predHead := result.Heads[feature.OrigToTok[lineNum]+features.CLS_OFFSET]
		if predHead == d.MaxSeqLength-1 {
			headIDs[lineNum] = -1
		} else {
			unit, err := d.headUnit(example, feature, lineNum, predHead)
			if err != nil {
				return nil, nil, err
			}
			headIDs[lineNum] = unit
		}
		depTypes[lineNum] = items[conll.DEPREL_FIELD]
	}
	return headIDs, depTypes, nil
}
