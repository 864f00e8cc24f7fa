package merge

import (
	"testing"

	"bertdep/nlp/format/tree"
)

const parsedSentence = `* 1D
+ 1D
a a a N
+ 2D
b b b N
* -1D
+ -1D
c c c V
EOS
`

func parsedTree(t *testing.T) *tree.Tree {
	tr, err := tree.Parse(parsedSentence)
	if err != nil {
		t.Fatal(err.Error())
	}
	return tr
}

func TestRewireReassignsOutOfSpanHead(t *testing.T) {
	tr := parsedTree(t)
	// morpheme 0 heads past its phrase into phrase 2
	Rewire(tr.Phrases, []int{2, 2, -1}, []string{"P", "D", "D"})

	if tr.Phrases[0].Parent != 2 {
		t.Errorf("phrase 0 should reattach to phrase 2, parent %d", tr.Phrases[0].Parent)
	}
	if tr.Phrases[0].DepType != "P" {
		t.Error("phrase 0 should take the decoded type, got " + tr.Phrases[0].DepType)
	}
}

func TestRewireKeepsMatchingParent(t *testing.T) {
	tr := parsedTree(t)
	Rewire(tr.Phrases, []int{2, 2, -1}, []string{"P", "D", "D"})

	// morpheme 1 already heads into its current parent
	if tr.Phrases[1].Parent != 2 || tr.Phrases[1].DepType != "D" {
		t.Errorf("phrase 1 changed: parent %d type %s", tr.Phrases[1].Parent, tr.Phrases[1].DepType)
	}
}

func TestRewireKeepsRootAttachment(t *testing.T) {
	tr := parsedTree(t)
	Rewire(tr.Phrases, []int{2, 2, -1}, []string{"P", "D", "X"})

	if tr.Phrases[2].Parent != tree.NO_PARENT || tr.Phrases[2].DepType != "D" {
		t.Errorf("root phrase changed: parent %d type %s", tr.Phrases[2].Parent, tr.Phrases[2].DepType)
	}
}

func TestRewireSkipsInSpanHeads(t *testing.T) {
	tr := parsedTree(t)
	// every head lies within its own unit's span: nothing to rewire
	Rewire(tr.Phrases, []int{0, 1, 2}, []string{"P", "P", "P"})

	if tr.Phrases[0].Parent != 1 || tr.Phrases[0].DepType != "D" {
		t.Errorf("phrase 0 changed: parent %d type %s", tr.Phrases[0].Parent, tr.Phrases[0].DepType)
	}
}

func TestMergeRewiresBothUnitLists(t *testing.T) {
	tr := parsedTree(t)
	Merge(tr, []int{2, 2, -1}, []string{"P", "D", "D"})

	if tr.Phrases[0].Parent != 2 {
		t.Errorf("phrase pass missing: parent %d", tr.Phrases[0].Parent)
	}
	// clause 0 already attaches to clause 1, the head's owner: only the
	// type column is touched, and morpheme 1 restores it
	if tr.Clauses[0].Parent != 1 || tr.Clauses[0].DepType != "D" {
		t.Errorf("clause 0: parent %d type %s", tr.Clauses[0].Parent, tr.Clauses[0].DepType)
	}
	if tr.Clauses[1].Parent != tree.NO_PARENT {
		t.Errorf("root clause changed: parent %d", tr.Clauses[1].Parent)
	}
}
