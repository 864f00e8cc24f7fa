package util

import (
	"fmt"
)

// An EnumSet maintains a bidirectional mapping between string values and
// dense integer indices. Indices are assigned in first-add order, so a set
// rebuilt from the same input always enumerates identically; this is what
// makes persisted vocabularies reproducible across train and predict runs.
type EnumSet struct {
	Enum   map[string]int
	Index  []string
	Frozen bool
}

func NewEnumSet(capacity int) *EnumSet {
	return &EnumSet{
		Enum:  make(map[string]int, capacity),
		Index: make([]string, 0, capacity),
	}
}

func (e *EnumSet) Add(value string) (int, bool) {
	if e.Frozen {
		panic("Cannot add value to frozen enum set")
	}
	enum, exists := e.Enum[value]
	if exists {
		return enum, false
	}
	enum = len(e.Index)
	e.Enum[value] = enum
	e.Index = append(e.Index, value)
	return enum, true
}

func (e *EnumSet) IndexOf(value string) (int, bool) {
	enum, exists := e.Enum[value]
	return enum, exists
}

func (e *EnumSet) ValueOf(index int) (string, bool) {
	if index < 0 || index >= len(e.Index) {
		return "", false
	}
	return e.Index[index], true
}

func (e *EnumSet) Len() int {
	return len(e.Index)
}

func (e *EnumSet) Print() {
	for i, v := range e.Index {
		fmt.Printf("%v: %v\n", i, v)
	}
}
