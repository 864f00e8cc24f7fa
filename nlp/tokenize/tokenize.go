package tokenize

import (
	"bufio"
	"io"
	"os"
	"strings"

	"bertdep/nlp/types"
	"bertdep/util"
)

// A Tokenizer converts one unit (word or character) into sub-tokens and
// sub-tokens into vocabulary ids. Implementations with their own native
// vocabularies can be swapped in behind this interface.
type Tokenizer interface {
	// Tokenize splits one unit into sub-tokens; continuations of a
	// multi-piece unit carry the continuation prefix
	Tokenize(unit string) []string
	// TokenID resolves a sub-token to its vocabulary id
	TokenID(token string) int
	// Len is the vocabulary size; the ROOT sentinel id lives just past it
	Len() int
}

// A Tokenization is the sub-token sequence of one example's units plus the
// index maps between the two coordinate systems.
type Tokenization struct {
	Tokens []string
	// unit index -> index of the unit's first sub-token
	OrigToTok []int
	// sub-token index -> index of the originating unit
	TokToOrig []int
}

// TokenizeUnits runs the tokenizer over every unit in order, recording the
// forward and backward index maps.
func TokenizeUnits(units []string, tokenizer Tokenizer) *Tokenization {
	t := &Tokenization{
		Tokens:    make([]string, 0, len(units)),
		OrigToTok: make([]int, 0, len(units)),
		TokToOrig: make([]int, 0, len(units)),
	}
	for i, unit := range units {
		t.OrigToTok = append(t.OrigToTok, len(t.Tokens))
		for _, token := range tokenizer.Tokenize(unit) {
			t.Tokens = append(t.Tokens, token)
			t.TokToOrig = append(t.TokToOrig, i)
		}
	}
	return t
}

const MAX_UNIT_CHARS = 100

// WordPiece is a greedy longest-match-first sub-word tokenizer over a
// fixed vocabulary, with continuation pieces prefixed by "##".
type WordPiece struct {
	vocab *util.EnumSet
	unkID int
}

func NewWordPiece(vocab *util.EnumSet) *WordPiece {
	unkID, _ := vocab.IndexOf(types.UNK_TOKEN)
	return &WordPiece{vocab: vocab, unkID: unkID}
}

func (wp *WordPiece) Tokenize(unit string) []string {
	runes := []rune(unit)
	if len(runes) > MAX_UNIT_CHARS {
		return []string{types.UNK_TOKEN}
	}
	var pieces []string
	start := 0
	for start < len(runes) {
		end := len(runes)
		piece := ""
		for end > start {
			candidate := string(runes[start:end])
			if start > 0 {
				candidate = types.CONT_PREFIX + candidate
			}
			if _, exists := wp.vocab.IndexOf(candidate); exists {
				piece = candidate
				break
			}
			end--
		}
		if piece == "" {
			// no sub-string of the unit is in the vocabulary
			return []string{types.UNK_TOKEN}
		}
		pieces = append(pieces, piece)
		start = end
	}
	return pieces
}

func (wp *WordPiece) TokenID(token string) int {
	id, exists := wp.vocab.IndexOf(token)
	if !exists {
		return wp.unkID
	}
	return id
}

func (wp *WordPiece) Len() int {
	return wp.vocab.Len()
}

// ReadVocab reads a sub-token vocabulary, one token per line, ids assigned
// by line order.
func ReadVocab(reader io.Reader) (*util.EnumSet, error) {
	vocab := util.NewEnumSet(32000)
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		token := strings.TrimRight(scanner.Text(), "\r\n")
		if token == "" {
			continue
		}
		vocab.Add(token)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vocab, nil
}

func ReadVocabFile(filename string) (*util.EnumSet, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadVocab(file)
}
