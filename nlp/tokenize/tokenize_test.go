package tokenize

import (
	"strings"
	"testing"

	"bertdep/nlp/types"
	"bertdep/util"
)

func testVocab() *util.EnumSet {
	vocab := util.NewEnumSet(16)
	for _, token := range []string{"[PAD]", "[UNK]", "[CLS]", "[SEP]", "un", "##aff", "##able", "aff", "ab", "c"} {
		vocab.Add(token)
	}
	return vocab
}

func TestWordPieceGreedyMatch(t *testing.T) {
	wp := NewWordPiece(testVocab())
	pieces := wp.Tokenize("unaffable")
	expected := []string{"un", "##aff", "##able"}
	if len(pieces) != len(expected) {
		t.Fatalf("expected %v got %v", expected, pieces)
	}
	for i, piece := range expected {
		if pieces[i] != piece {
			t.Errorf("piece %d: expected %s got %s", i, piece, pieces[i])
		}
	}
}

func TestWordPieceUnknown(t *testing.T) {
	wp := NewWordPiece(testVocab())
	pieces := wp.Tokenize("xyz")
	if len(pieces) != 1 || pieces[0] != types.UNK_TOKEN {
		t.Errorf("expected [UNK], got %v", pieces)
	}
	if wp.TokenID("xyz") != wp.TokenID(types.UNK_TOKEN) {
		t.Error("unknown token should resolve to the [UNK] id")
	}
}

func TestTokenizeUnitsMaps(t *testing.T) {
	wp := NewWordPiece(testVocab())
	tokenized := TokenizeUnits([]string{"ab", "unaffable", "c"}, wp)
	if len(tokenized.Tokens) != 5 {
		t.Fatalf("expected 5 sub-tokens, got %v", tokenized.Tokens)
	}
	expectedOrig := []int{0, 1, 4}
	for i, first := range expectedOrig {
		if tokenized.OrigToTok[i] != first {
			t.Errorf("OrigToTok[%d]: expected %d got %d", i, first, tokenized.OrigToTok[i])
		}
	}
	expectedBack := []int{0, 1, 1, 1, 2}
	for j, unit := range expectedBack {
		if tokenized.TokToOrig[j] != unit {
			t.Errorf("TokToOrig[%d]: expected %d got %d", j, unit, tokenized.TokToOrig[j])
		}
	}
}

func TestReadVocab(t *testing.T) {
	vocab, err := ReadVocab(strings.NewReader("[PAD]\n[UNK]\nfoo\nbar\n"))
	if err != nil {
		t.Fatal(err.Error())
	}
	if vocab.Len() != 4 {
		t.Fatalf("expected 4 tokens, got %d", vocab.Len())
	}
	index, exists := vocab.IndexOf("foo")
	if !exists || index != 2 {
		t.Errorf("foo should have line-order id 2, got %d (%v)", index, exists)
	}
}
