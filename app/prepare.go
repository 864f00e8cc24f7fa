package app

import (
	"log"

	"bertdep/nlp/features"
	"bertdep/nlp/format/conll"
	"bertdep/nlp/scorer"
	"bertdep/nlp/tokenize"
	"bertdep/nlp/vocab"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/pkg/errors"
)

func PrepareConfigOut() {
	log.Println("Configuration")
	log.Printf("Train Corpus:\t\t%s", input)
	log.Printf("Sub-token Vocab:\t%s", bertVocab)
	log.Printf("Vocabulary Out:\t%s", vocabFile)
	log.Printf("Features Out:\t\t%s", featuresFile)
	log.Printf("Seq Length:\t\t%d", MaxSeqLength)
	log.Println()
}

func Prepare(cmd *commander.Command, args []string) error {
	REQUIRED_FLAGS := []string{"train", "bertvocab", "vocab", "features"}
	if err := VerifyFlags(cmd, REQUIRED_FLAGS); err != nil {
		return err
	}
	PrepareConfigOut()

	opts := TaskOptions(true)
	log.Println("Reading training corpus")
	examples, err := conll.ReadFile(input, opts)
	if err != nil {
		return errors.Wrap(err, "reading corpus")
	}
	log.Println("Read", len(examples), "examples")

	vocabs, err := BuildVocabularies(opts, examples)
	if err != nil {
		return errors.Wrap(err, "building vocabularies")
	}
	for task, v := range vocabs {
		log.Println("Task", task, "has", v.NumLabels, "labels")
	}
	if err := vocabs.IndexExamples(examples); err != nil {
		return errors.Wrap(err, "indexing examples")
	}
	if err := vocab.WriteSet(vocabFile, vocabs); err != nil {
		return errors.Wrap(err, "writing vocabulary")
	}

	log.Println("Reading sub-token vocabulary")
	subTokens, err := tokenize.ReadVocabFile(bertVocab)
	if err != nil {
		return errors.Wrap(err, "reading sub-token vocabulary")
	}
	builder := features.NewBuilder(tokenize.NewWordPiece(subTokens), MaxSeqLength, subTokens.Len())
	builder.Training = true
	builder.CarryTags = opts.Characters()

	log.Println("Converting examples to features")
	feats, err := builder.Convert(examples)
	if err != nil {
		return errors.Wrap(err, "converting examples")
	}
	if err := scorer.WriteFeaturesFile(featuresFile, feats); err != nil {
		return errors.Wrap(err, "writing features")
	}
	log.Println("Wrote", len(feats), "features")
	return nil
}

func PrepareCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Prepare,
		UsageLine: "prepare <file options> [arguments]",
		Short:     "build task vocabularies and scorer features from a training corpus",
		Long: `
build task vocabularies and scorer features from a training corpus

	$ ./bertdep prepare -train <corpus> -bertvocab <vocab> -vocab <output> -features <output> [options]

`,
		Flag: *flag.NewFlagSet("prepare", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&input, "train", "", "Training corpus file")
	cmd.Flag.StringVar(&bertVocab, "bertvocab", "", "Sub-token vocabulary file (one token per line)")
	cmd.Flag.StringVar(&vocabFile, "vocab", "", "Output task vocabulary file")
	cmd.Flag.StringVar(&featuresFile, "features", "", "Output features file (JSON lines)")
	TaskFlags(cmd)
	return cmd
}
