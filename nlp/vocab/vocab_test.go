package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"bertdep/nlp/types"

	"github.com/pkg/errors"
)

func taggedExample(id int, task string, tags []string) *types.Example {
	example := types.NewExample(id, []string{task})
	example.TokenTags[task] = tags
	return example
}

func TestBuildAndRoundTrip(t *testing.T) {
	examples := []*types.Example{
		taggedExample(0, types.TASK_POS, []string{"N", "V", "-1", "N"}),
		taggedExample(1, types.TASK_POS, []string{"ADV", "V"}),
	}
	v, err := Build(types.TASK_POS, examples, 0)
	if err != nil {
		t.Fatal(err.Error())
	}
	if v.NumLabels != 3 {
		t.Fatalf("expected 3 labels, got %d", v.NumLabels)
	}
	if err := v.IndexExamples(examples); err != nil {
		t.Fatal(err.Error())
	}
	for _, example := range examples {
		tags := example.TokenTags[types.TASK_POS]
		for i, index := range example.TokenTagIndices[types.TASK_POS] {
			if tags[i] == types.UNKNOWN_TAG {
				if index != types.UNKNOWN_INDEX {
					t.Errorf("unknown tag indexed to %d", index)
				}
				continue
			}
			label, err := v.LabelOf(index)
			if err != nil {
				t.Fatal(err.Error())
			}
			if label != tags[i] {
				t.Errorf("round trip of %s gave %s", tags[i], label)
			}
		}
	}
}

func TestBuildAssignsFirstSeenOrder(t *testing.T) {
	examples := []*types.Example{
		taggedExample(0, types.TASK_WORD_SEG, []string{"B", "I", "E", "B", "E"}),
	}
	v, err := Build(types.TASK_WORD_SEG, examples, 3)
	if err != nil {
		t.Fatal(err.Error())
	}
	for i, expected := range []string{"B", "I", "E"} {
		label, err := v.LabelOf(i)
		if err != nil {
			t.Fatal(err.Error())
		}
		if label != expected {
			t.Errorf("index %d: expected %s got %s", i, expected, label)
		}
	}
}

func TestBuildCardinalityMismatch(t *testing.T) {
	examples := []*types.Example{
		taggedExample(0, types.TASK_WORD_SEG, []string{"B", "E"}),
	}
	_, err := Build(types.TASK_WORD_SEG, examples, 3)
	if err == nil {
		t.Fatal("expected cardinality mismatch")
	}
	if errors.Cause(err) != ErrCardinalityMismatch {
		t.Error("wrong error: " + err.Error())
	}
}

func TestIndexExamplesUnknownTag(t *testing.T) {
	train := []*types.Example{taggedExample(0, types.TASK_POS, []string{"N", "V"})}
	v, err := Build(types.TASK_POS, train, 0)
	if err != nil {
		t.Fatal(err.Error())
	}
	unseen := []*types.Example{taggedExample(1, types.TASK_POS, []string{"ADJ"})}
	if err := v.IndexExamples(unseen); err == nil {
		t.Error("expected unknown tag error")
	}
}

func TestLabelOfOutOfRange(t *testing.T) {
	train := []*types.Example{taggedExample(0, types.TASK_POS, []string{"N"})}
	v, err := Build(types.TASK_POS, train, 0)
	if err != nil {
		t.Fatal(err.Error())
	}
	if _, err := v.LabelOf(-1); err == nil {
		t.Error("expected out of range error for negative index")
	}
	if _, err := v.LabelOf(1); err == nil {
		t.Error("expected out of range error past cardinality")
	}
}

func TestSetPersistenceRoundTrip(t *testing.T) {
	examples := []*types.Example{
		taggedExample(0, types.TASK_POS, []string{"N", "V", "ADV"}),
	}
	v, err := Build(types.TASK_POS, examples, 0)
	if err != nil {
		t.Fatal(err.Error())
	}
	vocabs := Set{types.TASK_POS: v}

	filename := filepath.Join(t.TempDir(), "vocab.bin")
	if err := WriteSet(filename, vocabs); err != nil {
		t.Fatal(err.Error())
	}
	loaded, err := ReadSet(filename)
	if err != nil {
		t.Fatal(err.Error())
	}
	reloaded := loaded[types.TASK_POS]
	if reloaded == nil {
		t.Fatal("task vocabulary missing after reload")
	}
	if reloaded.NumLabels != v.NumLabels {
		t.Errorf("cardinality changed across reload: %d != %d", reloaded.NumLabels, v.NumLabels)
	}
	for i := 0; i < v.NumLabels; i++ {
		before, _ := v.LabelOf(i)
		after, err := reloaded.LabelOf(i)
		if err != nil {
			t.Fatal(err.Error())
		}
		if before != after {
			t.Errorf("index %d changed across reload: %s != %s", i, before, after)
		}
	}
	os.Remove(filename)
}
