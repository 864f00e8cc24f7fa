package vocab

import (
	"encoding/gob"
	"os"

	"bertdep/nlp/types"
	"bertdep/util"

	"github.com/pkg/errors"
)

var (
	ErrCardinalityMismatch = errors.New("vocabulary cardinality mismatch")
	ErrUnknownTag          = errors.New("tag not seen during vocabulary build")
	ErrIndexOutOfRange     = errors.New("label index out of range")
)

// A Vocabulary maps one labeling task's tags to dense indices. Built once
// over the training examples, frozen, persisted, and reused at inference.
type Vocabulary struct {
	Namespace string
	NumLabels int
	Labels    *util.EnumSet
}

// Build scans the tag sequences of one task across examples in order,
// assigning each first-seen tag the next index. The unknown marker is
// never enumerated. A declared expected cardinality (> 0) must match the
// resulting size.
func Build(namespace string, examples []*types.Example, numLabels int) (*Vocabulary, error) {
	v := &Vocabulary{
		Namespace: namespace,
		Labels:    util.NewEnumSet(16),
	}
	for _, example := range examples {
		for _, tag := range example.TokenTags[namespace] {
			if tag == types.UNKNOWN_TAG {
				continue
			}
			v.Labels.Add(tag)
		}
	}
	if numLabels > 0 && numLabels != v.Labels.Len() {
		return nil, errors.Wrapf(ErrCardinalityMismatch,
			"task %s: expected %d labels, built %d", namespace, numLabels, v.Labels.Len())
	}
	v.NumLabels = v.Labels.Len()
	v.Labels.Frozen = true
	return v, nil
}

// IndexExamples populates each example's tag-index sequence for this
// vocabulary's task. Unknown-marked tags index to the unknown sentinel;
// any other tag absent from the vocabulary is fatal.
func (v *Vocabulary) IndexExamples(examples []*types.Example) error {
	for _, example := range examples {
		tags := example.TokenTags[v.Namespace]
		indices := make([]int, len(tags))
		for i, tag := range tags {
			if tag == types.UNKNOWN_TAG {
				indices[i] = types.UNKNOWN_INDEX
				continue
			}
			index, exists := v.Labels.IndexOf(tag)
			if !exists {
				return errors.Wrapf(ErrUnknownTag, "example %d: task %s tag %q", example.ID, v.Namespace, tag)
			}
			indices[i] = index
		}
		example.TokenTagIndices[v.Namespace] = indices
	}
	return nil
}

// LabelOf is the inverse lookup of the index assigned during Build.
func (v *Vocabulary) LabelOf(index int) (string, error) {
	label, exists := v.Labels.ValueOf(index)
	if !exists {
		return "", errors.Wrapf(ErrIndexOutOfRange, "task %s: index %d of %d", v.Namespace, index, v.Labels.Len())
	}
	return label, nil
}

// A Set holds the vocabularies of all active tasks.
type Set map[string]*Vocabulary

// IndexExamples runs every vocabulary in the set over the examples.
func (s Set) IndexExamples(examples []*types.Example) error {
	for _, v := range s {
		if err := v.IndexExamples(examples); err != nil {
			return err
		}
	}
	return nil
}

func WriteSet(filename string, s Set) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return gob.NewEncoder(file).Encode(s)
}

func ReadSet(filename string) (Set, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	s := make(Set)
	if err := gob.NewDecoder(file).Decode(&s); err != nil {
		return nil, err
	}
	return s, nil
}
