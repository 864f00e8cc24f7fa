package scorer

import (
	"strings"
	"testing"

	"bertdep/nlp/features"
)

const resultLines = `{"unique_id":1000000002,"heads":[3,1],"token_tags":{"pos":[0,1]}}

{"unique_id":1000000000,"heads":[1,2]}
{"unique_id":1000000001,"heads":[2,3],"topk_heads":[[7,1],[2,7]]}
`

func replayFeatures(ids ...int) []*features.Feature {
	feats := make([]*features.Feature, len(ids))
	for i, id := range ids {
		feats[i] = &features.Feature{UniqueID: id, ExampleID: i}
	}
	return feats
}

func TestScorePreservesFeatureOrder(t *testing.T) {
	s, err := ReadResults(strings.NewReader(resultLines))
	if err != nil {
		t.Fatal(err.Error())
	}
	// dump order differs from feature order; replay must follow the latter
	results, err := s.Score(replayFeatures(1000000000, 1000000001, 1000000002))
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, expected := range []int{1000000000, 1000000001, 1000000002} {
		if results[i].UniqueID != expected {
			t.Errorf("result %d: expected id %d got %d", i, expected, results[i].UniqueID)
		}
	}
	if results[0].Heads[0] != 1 || results[2].Heads[0] != 3 {
		t.Errorf("results matched to wrong features: %v %v", results[0].Heads, results[2].Heads)
	}
	if results[1].TopKHeads[0][0] != 7 {
		t.Errorf("candidate heads lost in replay: %v", results[1].TopKHeads)
	}
	if results[2].TokenTags["pos"][1] != 1 {
		t.Errorf("task tags lost in replay: %v", results[2].TokenTags)
	}
}

func TestScoreMissingResult(t *testing.T) {
	s, err := ReadResults(strings.NewReader(resultLines))
	if err != nil {
		t.Fatal(err.Error())
	}
	if _, err := s.Score(replayFeatures(1000000000, 1000000009)); err == nil {
		t.Error("expected error for feature with no dumped result")
	}
}

func TestReadResultsRejectsMalformedLine(t *testing.T) {
	if _, err := ReadResults(strings.NewReader("{\"unique_id\":1}\nnot json\n")); err == nil {
		t.Error("expected error for malformed result line")
	}
}

func TestWriteFeaturesRoundTrip(t *testing.T) {
	feats := []*features.Feature{{
		UniqueID:  1000000000,
		ExampleID: 0,
		Tokens:    []string{"[CLS]", "ab", "[SEP]"},
		InputIDs:  []int{2, 8, 3},
	}}
	var dump strings.Builder
	if err := WriteFeatures(&dump, feats); err != nil {
		t.Fatal(err.Error())
	}
	line := strings.TrimSpace(dump.String())
	if strings.Contains(line, "\n") {
		t.Error("expected one line per feature")
	}
	for _, field := range []string{"\"UniqueID\":1000000000", "\"ab\""} {
		if !strings.Contains(line, field) {
			t.Error("dump missing " + field + ": " + line)
		}
	}
}
