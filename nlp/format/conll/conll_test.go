package conll

import (
	"io"
	"strings"
	"testing"

	"bertdep/nlp/types"
)

const wordModeBlock = `# S-ID:1
1	村山	村山	NNP	NNP	_	2	D	_	_
2	富市	富市	NNP	NNP	_	0	D	_	_

`

func TestReadWordMode(t *testing.T) {
	examples, err := Read(strings.NewReader(wordModeBlock), Options{Training: true, Parsing: true})
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(examples) != 1 {
		t.Fatalf("expected 1 example, got %d", len(examples))
	}
	example := examples[0]
	if example.Comment != "# S-ID:1" {
		t.Error("comment not preserved: " + example.Comment)
	}
	if len(example.Units) != 2 || example.Units[0] != "村山" {
		t.Errorf("wrong units: %v", example.Units)
	}
	if example.Heads[0] != 2 || example.Heads[1] != 0 {
		t.Errorf("wrong heads: %v", example.Heads)
	}
}

func TestReadWordModeInference(t *testing.T) {
	examples, err := Read(strings.NewReader(wordModeBlock), Options{Parsing: true})
	if err != nil {
		t.Fatal(err.Error())
	}
	example := examples[0]
	for i, head := range example.Heads {
		if head != types.UNKNOWN_HEAD {
			t.Errorf("head %d not forced to unknown: %d", i, head)
		}
	}
	items := strings.Split(example.Lines[0], "\t")
	if items[HEAD_FIELD] != "-1" {
		t.Error("head column not rewritten in preserved line: " + example.Lines[0])
	}
}

const charModeBlock = `1	ab	ab	N	Nc	_	2	D	_	_
2	cd	cd	N	Nc	_	0	D	_	_
3	efg	efg	V	Vb	_	2	D	_	_

`

func TestReadCharacterModeSegmentationTags(t *testing.T) {
	opts := Options{Training: true, Parsing: true, WordSegmentation: true}
	examples, err := Read(strings.NewReader(charModeBlock), opts)
	if err != nil {
		t.Fatal(err.Error())
	}
	example := examples[0]
	expectedTags := []string{"B", "E", "B", "E", "B", "I", "E"}
	tags := example.TokenTags[types.TASK_WORD_SEG]
	if len(tags) != len(expectedTags) {
		t.Fatalf("expected %d tags, got %d", len(expectedTags), len(tags))
	}
	for i, tag := range expectedTags {
		if tags[i] != tag {
			t.Errorf("tag %d: expected %s got %s", i, tag, tags[i])
		}
	}
}

func TestReadCharacterModeHeadRetargeting(t *testing.T) {
	opts := Options{Training: true, Parsing: true, WordSegmentation: true}
	examples, err := Read(strings.NewReader(charModeBlock), opts)
	if err != nil {
		t.Fatal(err.Error())
	}
	example := examples[0]
	// word heads [2,0,2] over word lengths [2,2,3]: the head of words 1
	// and 3 is word 2, whose first character is absolute index 2, so the
	// 1-based character head is 3; word 2 stays root
	expectedHeads := []int{3, -1, 0, -1, 3, -1, -1}
	if len(example.Heads) != len(expectedHeads) {
		t.Fatalf("expected %d heads, got %d: %v", len(expectedHeads), len(example.Heads), example.Heads)
	}
	for i, head := range expectedHeads {
		if example.Heads[i] != head {
			t.Errorf("head %d: expected %d got %d", i, head, example.Heads[i])
		}
	}
}

func TestReadCharacterModeInference(t *testing.T) {
	opts := Options{Parsing: true, WordSegmentation: true}
	examples, err := Read(strings.NewReader(charModeBlock), opts)
	if err != nil {
		t.Fatal(err.Error())
	}
	example := examples[0]
	for i, head := range example.Heads {
		if head != types.UNKNOWN_HEAD {
			t.Errorf("head %d not unknown at inference: %d", i, head)
		}
	}
	for i, tag := range example.TokenTags[types.TASK_WORD_SEG] {
		if tag != types.UNKNOWN_TAG {
			t.Errorf("segmentation tag %d not unknown at inference: %s", i, tag)
		}
	}
}

func TestReadGoldSegmentation(t *testing.T) {
	opts := Options{Parsing: true, UseGoldSegmentation: true}
	examples, err := Read(strings.NewReader(charModeBlock), opts)
	if err != nil {
		t.Fatal(err.Error())
	}
	example := examples[0]
	if len(example.GoldWords) != 3 || example.GoldWords[2] != "efg" {
		t.Errorf("gold words not retained: %v", example.GoldWords)
	}
	if len(example.Units) != 7 {
		t.Errorf("expected 7 character units, got %d", len(example.Units))
	}
}

func TestStream(t *testing.T) {
	stream := NewStream(strings.NewReader(wordModeBlock+charModeBlock), Options{Training: true, Parsing: true})
	first, err := stream.Next()
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(first.Units) != 2 {
		t.Errorf("first example has %d units", len(first.Units))
	}
	second, err := stream.Next()
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(second.Units) != 3 {
		t.Errorf("second example has %d units", len(second.Units))
	}
	if second.ID != 1 {
		t.Errorf("second example id: %d", second.ID)
	}
	if _, err := stream.Next(); err != io.EOF {
		t.Error("expected EOF at end of stream")
	}
}

func TestParseRowRejectsShortRecord(t *testing.T) {
	_, err := ParseRow(strings.Split("1\tform\tlemma", "\t"))
	if err == nil {
		t.Error("expected error for short record")
	}
}

func TestRowString(t *testing.T) {
	row := Row{ID: 1, Form: "村山", Lemma: "村山", CPosTag: "NNP", PosTag: "NNP", FeatStr: "_", Head: 2, DepRel: "D"}
	expected := "1	村山	村山	NNP	NNP	_	2	D	_	_"
	if row.String() != expected {
		t.Errorf("expected %q got %q", expected, row.String())
	}
}
