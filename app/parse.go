package app

import (
	"io"
	"log"
	"os"
	"strings"

	"bertdep/nlp/decode"
	"bertdep/nlp/features"
	"bertdep/nlp/format/conll"
	"bertdep/nlp/format/jpp"
	"bertdep/nlp/format/tree"
	"bertdep/nlp/merge"
	"bertdep/nlp/scorer"
	"bertdep/nlp/tokenize"
	"bertdep/nlp/types"
	"bertdep/nlp/vocab"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/pkg/errors"
)

func ParseConfigOut() {
	log.Println("Configuration")
	if analyzerInput {
		log.Printf("Input:\t\t\tstdin (analyzer records, pos list %s)", posList)
	} else {
		log.Printf("Input:\t\t\t%s", input)
	}
	log.Printf("Scorer Results:\t%s", resultsFile)
	log.Printf("Vocabulary:\t\t%s", vocabFile)
	log.Printf("Sub-token Vocab:\t%s", bertVocab)
	log.Printf("Output:\t\t%s", output)
	if treesFile != "" {
		log.Printf("Phrase Trees:\t\t%s (tree rendering: %v)", treesFile, outputTree)
	}
	log.Printf("Seq Length:\t\t%d", MaxSeqLength)
	log.Println()
}

type parseRun struct {
	opts    conll.Options
	vocabs  vocab.Set
	builder *features.Builder
	scorer  scorer.Scorer
	decoder *decode.Decoder
	trees   *tree.Stream
	writer  io.Writer
}

func (r *parseRun) processBatch(examples []*types.Example) error {
	if r.opts.Characters() {
		if err := r.vocabs.IndexExamples(examples); err != nil {
			return err
		}
	}
	feats, err := r.builder.Convert(examples)
	if err != nil {
		return err
	}
	results, err := r.scorer.Score(feats)
	if err != nil {
		return err
	}
	for i, example := range examples {
		if err := r.writeExample(example, feats[i], results[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *parseRun) writeExample(example *types.Example, feature *features.Feature, result *scorer.Result) error {
	if r.trees != nil {
		return r.writeMerged(example, feature, result)
	}
	if r.opts.Characters() {
		rows, err := r.decoder.Rows(example, feature, result)
		if err != nil {
			return err
		}
		return conll.WriteExample(r.writer, example.Comment, rows)
	}
	lines, err := r.decoder.RewriteLines(example, feature, result)
	if err != nil {
		return err
	}
	return conll.WriteLines(r.writer, example.Comment, lines)
}

// writeMerged folds the decoded heads into the next externally parsed
// phrase tree and renders it.
func (r *parseRun) writeMerged(example *types.Example, feature *features.Feature, result *scorer.Result) error {
	t, err := r.trees.Next()
	if err != nil {
		return err
	}
	if example.Comment != "" {
		t.Comment = example.Comment
	}
	headIDs, depTypes, err := r.decoder.HeadIDs(example, feature, result)
	if err != nil {
		return err
	}
	merge.Merge(t, headIDs, depTypes)
	if outputTree {
		_, err := io.WriteString(r.writer, t.SprintTree())
		return err
	}
	return t.Write(r.writer)
}

func Parse(cmd *commander.Command, args []string) error {
	REQUIRED_FLAGS := []string{"results", "bertvocab"}
	if err := VerifyFlags(cmd, REQUIRED_FLAGS); err != nil {
		return err
	}
	if !analyzerInput {
		if err := VerifyFlags(cmd, []string{"in"}); err != nil {
			return err
		}
	}
	ParseConfigOut()

	opts := TaskOptions(false)
	run := &parseRun{opts: opts}

	var err error
	if opts.Characters() || len(opts.Tasks()) > 0 {
		if err := VerifyFlags(cmd, []string{"vocab"}); err != nil {
			return err
		}
		if run.vocabs, err = vocab.ReadSet(vocabFile); err != nil {
			return errors.Wrap(err, "reading vocabulary")
		}
	}

	subTokens, err := tokenize.ReadVocabFile(bertVocab)
	if err != nil {
		return errors.Wrap(err, "reading sub-token vocabulary")
	}
	run.builder = features.NewBuilder(tokenize.NewWordPiece(subTokens), MaxSeqLength, subTokens.Len())
	run.builder.CarryTags = opts.Characters()

	if run.scorer, err = scorer.ReadResultsFile(resultsFile); err != nil {
		return errors.Wrap(err, "reading scorer results")
	}
	run.decoder = decode.NewDecoder(run.vocabs, MaxSeqLength, opts)

	if treesFile != "" {
		treeFile, err := os.Open(treesFile)
		if err != nil {
			return errors.Wrap(err, "opening phrase trees")
		}
		defer treeFile.Close()
		run.trees = tree.NewStream(treeFile)
	}

	run.writer = os.Stdout
	if output != "" && output != "-" {
		outFile, err := os.Create(output)
		if err != nil {
			return errors.Wrap(err, "creating output file")
		}
		defer outFile.Close()
		run.writer = outFile
	}

	if analyzerInput {
		return parseAnalyzerStream(run)
	}

	examples, err := conll.ReadFile(input, opts)
	if err != nil {
		return errors.Wrap(err, "reading corpus")
	}
	log.Println("Decoding", len(examples), "examples")
	return run.processBatch(examples)
}

// parseAnalyzerStream pulls sentences from stdin one at a time until the
// stream ends, decoding and writing each as it arrives.
func parseAnalyzerStream(run *parseRun) error {
	table, err := jpp.ReadPosTableFile(posList)
	if err != nil {
		return errors.Wrap(err, "reading pos table")
	}
	stream := jpp.NewStream(os.Stdin, table)
	for {
		block, err := stream.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading analyzer input")
		}
		examples, err := conll.Read(strings.NewReader(block), run.opts)
		if err != nil {
			return errors.Wrap(err, "reading sentence")
		}
		if err := run.processBatch(examples); err != nil {
			return err
		}
		if singleSentence {
			return nil
		}
	}
}

func ParseCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Parse,
		UsageLine: "parse <file options> [arguments]",
		Short:     "decode scorer predictions into dependency structures",
		Long: `
decode scorer predictions into dependency structures

	$ ./bertdep parse -in <corpus> -results <results> -bertvocab <vocab> -vocab <vocab> [options]

analyzer-stream mode reads morphological analyzer records from stdin:

	$ ./bertdep parse -jpp -poslist <pos table> -results <results> -bertvocab <vocab> [options]

`,
		Flag: *flag.NewFlagSet("parse", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&input, "in", "", "Input corpus file")
	cmd.Flag.StringVar(&output, "out", "", "Output file ('-' or empty for stdout)")
	cmd.Flag.StringVar(&resultsFile, "results", "", "Scorer results file (JSON lines)")
	cmd.Flag.StringVar(&vocabFile, "vocab", "", "Task vocabulary file from prepare")
	cmd.Flag.StringVar(&bertVocab, "bertvocab", "", "Sub-token vocabulary file")
	cmd.Flag.StringVar(&treesFile, "trees", "", "Externally parsed phrase trees to merge into")
	cmd.Flag.StringVar(&posList, "poslist", "", "POS shortcode table for analyzer input")
	cmd.Flag.BoolVar(&analyzerInput, "jpp", false, "Read analyzer records from stdin")
	cmd.Flag.BoolVar(&singleSentence, "single", false, "Stop after one sentence of analyzer input")
	cmd.Flag.BoolVar(&outputTree, "tree", false, "Render merged trees in indented form")
	TaskFlags(cmd)
	return cmd
}
