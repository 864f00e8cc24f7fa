package scorer

// Package scorer is the boundary to the external neural token scorer. The
// model itself runs elsewhere; its per-position predictions arrive here as
// Results, either live or replayed from a JSON-lines dump.

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"bertdep/nlp/features"

	"github.com/pkg/errors"
)

// A Result is the scorer output for one Feature, positionally aligned to
// its padded sequence.
type Result struct {
	UniqueID int `json:"unique_id"`
	// best head per padded position
	Heads []int `json:"heads"`
	// ranked candidate heads per padded position, best first
	TopKHeads [][]int `json:"topk_heads"`
	// dependency-label indices paired 1:1 with the candidate heads
	TopKDepLabels [][]int `json:"topk_dep_labels"`
	// per-task best tag index per padded position
	TokenTags map[string][]int `json:"token_tags"`
}

type Scorer interface {
	// Score returns one Result per Feature, in input order
	Score(feats []*features.Feature) ([]*Result, error)
}

// A FileScorer replays results dumped by the external model, one JSON
// object per line, matched to features by unique id.
type FileScorer struct {
	results map[int]*Result
}

func ReadResults(reader io.Reader) (*FileScorer, error) {
	s := &FileScorer{results: make(map[int]*Result)}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		result := new(Result)
		if err := json.Unmarshal(scanner.Bytes(), result); err != nil {
			return nil, errors.Wrapf(err, "result line %d", line)
		}
		s.results[result.UniqueID] = result
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func ReadResultsFile(filename string) (*FileScorer, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadResults(file)
}

func (s *FileScorer) Score(feats []*features.Feature) ([]*Result, error) {
	results := make([]*Result, len(feats))
	for i, feature := range feats {
		result, exists := s.results[feature.UniqueID]
		if !exists {
			return nil, errors.Errorf("no scorer result for feature %d (example %d)",
				feature.UniqueID, feature.ExampleID)
		}
		results[i] = result
	}
	return results, nil
}

// WriteFeatures dumps features as JSON lines for the external trainer and
// scorer.
func WriteFeatures(writer io.Writer, feats []*features.Feature) error {
	encoder := json.NewEncoder(writer)
	for _, feature := range feats {
		if err := encoder.Encode(feature); err != nil {
			return err
		}
	}
	return nil
}

func WriteFeaturesFile(filename string, feats []*features.Feature) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteFeatures(file, feats)
}
