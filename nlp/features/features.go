package features

import (
	"strings"

	"bertdep/nlp/tokenize"
	"bertdep/nlp/types"

	"github.com/pkg/errors"
)

var ErrSequenceTooLong = errors.New("sub-token sequence exceeds maximum length")

// Ids assigned to features in conversion order
const UNIQUE_ID_BASE = 1000000000

// Padding offset for the leading sequence-start sentinel
const CLS_OFFSET = 1

// A Feature is the fixed-length padded representation of one Example:
// sub-tokens with boundary sentinels, index maps to and from the unit
// sequence, and head/tag targets aligned to the padded positions. The
// ROOT sentinel always occupies the final slot.
type Feature struct {
	UniqueID  int
	ExampleID int
	Tokens    []string
	OrigToTok []int
	TokToOrig []int

	InputIDs        []int
	InputMask       []int
	SegmentIDs      []int
	Heads           []int
	TokenTagIndices map[string][]int
}

// A Builder aligns Examples into Features.
type Builder struct {
	Tokenizer    tokenize.Tokenizer
	MaxSeqLength int
	// Numeric id of the ROOT sentinel; its embedding lives just past the
	// sub-token vocabulary
	VocabSize int
	// Reserved trailing slots (the ROOT sentinel)
	NumSpecialTokens int
	// Training emits gold head targets; otherwise all heads are unknown
	Training bool
	// CarryTags aligns per-task tag indices into the padded sequence
	CarryTags bool

	nextID int
}

func NewBuilder(tokenizer tokenize.Tokenizer, maxSeqLength, vocabSize int) *Builder {
	return &Builder{
		Tokenizer:        tokenizer,
		MaxSeqLength:     maxSeqLength,
		VocabSize:        vocabSize,
		NumSpecialTokens: 1,
		nextID:           UNIQUE_ID_BASE,
	}
}

// Convert aligns examples into features. Unique ids keep incrementing
// across calls so streamed batches never collide.
func (b *Builder) Convert(examples []*types.Example) ([]*Feature, error) {
	converted := make([]*Feature, 0, len(examples))
	for _, example := range examples {
		feature, err := b.convertExample(example, b.nextID)
		if err != nil {
			return nil, err
		}
		b.nextID++
		converted = append(converted, feature)
	}
	return converted, nil
}

func (b *Builder) convertExample(example *types.Example, uniqueID int) (*Feature, error) {
	tokenized := tokenize.TokenizeUnits(example.Units, b.Tokenizer)
	maxTokens := b.MaxSeqLength - b.NumSpecialTokens

	feature := &Feature{
		UniqueID:  uniqueID,
		ExampleID: example.ID,
		OrigToTok: tokenized.OrigToTok,
		TokToOrig: tokenized.TokToOrig,
	}
	tasks := example.Tasks()
	if b.CarryTags {
		feature.TokenTagIndices = make(map[string][]int, len(tasks))
	}

	// sequence-start sentinel
	feature.Tokens = append(feature.Tokens, types.CLS_TOKEN)
	feature.SegmentIDs = append(feature.SegmentIDs, 0)
	feature.Heads = append(feature.Heads, types.UNKNOWN_HEAD)
	b.appendTags(feature, tasks, func(string) int { return types.UNKNOWN_INDEX })

	for j, token := range tokenized.Tokens {
		feature.Tokens = append(feature.Tokens, token)
		feature.SegmentIDs = append(feature.SegmentIDs, 0)
		feature.Heads = append(feature.Heads, b.headTarget(example, tokenized, j, token))
		unit := tokenized.TokToOrig[j]
		b.appendTags(feature, tasks, func(task string) int {
			return example.TokenTagIndices[task][unit]
		})
	}

	// sequence-end sentinel
	feature.Tokens = append(feature.Tokens, types.SEP_TOKEN)
	feature.SegmentIDs = append(feature.SegmentIDs, 0)
	feature.Heads = append(feature.Heads, types.UNKNOWN_HEAD)
	b.appendTags(feature, tasks, func(string) int { return types.UNKNOWN_INDEX })

	if len(feature.Tokens) > maxTokens {
		return nil, errors.Wrapf(ErrSequenceTooLong,
			"example %d: %d sub-tokens, maximum %d", example.ID, len(feature.Tokens), maxTokens)
	}

	feature.InputIDs = make([]int, 0, b.MaxSeqLength)
	for _, token := range feature.Tokens {
		feature.InputIDs = append(feature.InputIDs, b.Tokenizer.TokenID(token))
	}
	feature.InputMask = make([]int, len(feature.InputIDs), b.MaxSeqLength)
	for i := range feature.InputMask {
		feature.InputMask[i] = 1
	}

	for len(feature.InputIDs) < maxTokens {
		feature.InputIDs = append(feature.InputIDs, 0)
		feature.InputMask = append(feature.InputMask, 0)
		feature.SegmentIDs = append(feature.SegmentIDs, 0)
		feature.Heads = append(feature.Heads, types.UNKNOWN_HEAD)
		b.appendTags(feature, tasks, func(string) int { return types.UNKNOWN_INDEX })
	}

	// ROOT sentinel, always the final slot
	feature.InputIDs = append(feature.InputIDs, b.VocabSize)
	feature.InputMask = append(feature.InputMask, 1)
	feature.SegmentIDs = append(feature.SegmentIDs, 0)
	feature.Heads = append(feature.Heads, types.UNKNOWN_HEAD)
	b.appendTags(feature, tasks, func(string) int { return types.UNKNOWN_INDEX })

	if err := b.check(feature, tasks); err != nil {
		return nil, errors.Wrapf(err, "example %d", example.ID)
	}
	return feature, nil
}

// headTarget maps one sub-token's originating head into padded-sequence
// coordinates: root to the reserved last slot, unknown and continuation
// sub-tokens to unknown, anything else to the head unit's first sub-token
// shifted past the start sentinel.
func (b *Builder) headTarget(example *types.Example, tokenized *tokenize.Tokenization, j int, token string) int {
	if !b.Training {
		return types.UNKNOWN_HEAD
	}
	head := example.Heads[tokenized.TokToOrig[j]]
	switch {
	// continuations never carry heads, root-headed units included
	case head == types.UNKNOWN_HEAD || strings.HasPrefix(token, types.CONT_PREFIX):
		return types.UNKNOWN_HEAD
	case head == types.ROOT_HEAD:
		return b.MaxSeqLength - 1
	default:
		return tokenized.OrigToTok[head-1] + CLS_OFFSET
	}
}

func (b *Builder) appendTags(feature *Feature, tasks []string, index func(task string) int) {
	if !b.CarryTags {
		return
	}
	for _, task := range tasks {
		feature.TokenTagIndices[task] = append(feature.TokenTagIndices[task], index(task))
	}
}

func (b *Builder) check(feature *Feature, tasks []string) error {
	if len(feature.InputIDs) != b.MaxSeqLength ||
		len(feature.InputMask) != b.MaxSeqLength ||
		len(feature.SegmentIDs) != b.MaxSeqLength ||
		len(feature.Heads) != b.MaxSeqLength {
		return errors.Errorf("padded arrays not at sequence length %d", b.MaxSeqLength)
	}
	for _, task := range tasks {
		if b.CarryTags && len(feature.TokenTagIndices[task]) != b.MaxSeqLength {
			return errors.Errorf("task %s tag array not at sequence length %d", task, b.MaxSeqLength)
		}
	}
	return nil
}
