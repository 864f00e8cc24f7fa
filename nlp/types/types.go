package types

import (
	"fmt"
	"strings"
)

const (
	ROOT_TOKEN = "[ROOT]"
	CLS_TOKEN  = "[CLS]"
	SEP_TOKEN  = "[SEP]"
	UNK_TOKEN  = "[UNK]"

	// Sub-token continuation prefix of a multi-piece unit
	CONT_PREFIX = "##"

	// Head sentinels in word coordinates (1-based heads)
	ROOT_HEAD    = 0
	UNKNOWN_HEAD = -1

	// Tag value standing in for "no gold tag" / inference time
	UNKNOWN_TAG = "-1"

	// Index standing in for "no tag index" in aligned sequences
	UNKNOWN_INDEX = -1
)

// Labeling task names; each task gets its own vocabulary
const (
	TASK_WORD_SEG  = "word_segmentation"
	TASK_POS       = "pos"
	TASK_SUBPOS    = "subpos"
	TASK_FEATS     = "feats"
	TASK_DEP_LABEL = "dep_label"
)

// BIE character segmentation tags
const (
	SEG_BEGIN  = "B"
	SEG_INSIDE = "I"
	SEG_END    = "E"
)

// An Example is one sentence as read from the corpus. Units are surface
// words, or single characters when segmentation mode is active. Every
// aligned field (Units, Heads, per-task tags) has the same length.
type Example struct {
	ID    int
	Units []string
	// Pre-normalization surfaces; nil unless width normalization ran
	UnitsOrig []string
	// Original column-formatted lines, one per source word
	Lines []string
	// 1-based word heads; ROOT_HEAD for root, UNKNOWN_HEAD at inference.
	// In segmentation mode heads are re-targeted to character coordinates
	// by the reader.
	Heads []int
	// Task name -> tag sequence aligned 1:1 with Units. Buffers exist for
	// every active task from creation; tasks are never added mid-scan.
	TokenTags map[string][]string
	// Task name -> tag index sequence, populated by vocab.IndexExamples
	TokenTagIndices map[string][]int
	// Gold word list, retained only when gold segmentation is forced
	GoldWords []string
	// Leading comment line, preserved verbatim (empty if none)
	Comment string
}

func NewExample(id int, tasks []string) *Example {
	ex := &Example{
		ID:              id,
		TokenTags:       make(map[string][]string, len(tasks)),
		TokenTagIndices: make(map[string][]int, len(tasks)),
	}
	for _, task := range tasks {
		ex.TokenTags[task] = make([]string, 0, 8)
	}
	return ex
}

// Tasks returns the active task names in deterministic order.
func (ex *Example) Tasks() []string {
	tasks := make([]string, 0, len(ex.TokenTags))
	for _, task := range []string{TASK_WORD_SEG, TASK_POS, TASK_SUBPOS, TASK_FEATS, TASK_DEP_LABEL} {
		if _, active := ex.TokenTags[task]; active {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// Surfaces returns the units as they appeared in the input, preferring the
// pre-normalization forms when width normalization ran.
func (ex *Example) Surfaces() []string {
	if ex.UnitsOrig != nil {
		return ex.UnitsOrig
	}
	return ex.Units
}

// SentenceString reassembles the plain sentence from the preserved lines.
func (ex *Example) SentenceString() string {
	var sent strings.Builder
	for _, line := range ex.Lines {
		items := strings.Split(line, "\t")
		if len(items) > 1 {
			sent.WriteString(items[1])
		}
	}
	return sent.String()
}

func (ex *Example) String() string {
	return fmt.Sprintf("id: %d, units: %s", ex.ID, strings.Join(ex.Units, " "))
}
