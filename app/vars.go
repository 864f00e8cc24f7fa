package app

import (
	"log"
	"os"

	"bertdep/nlp/format/conll"
	"bertdep/nlp/types"
	"bertdep/nlp/vocab"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/pkg/errors"
)

var (
	// file names
	input        string
	output       string
	vocabFile    string
	bertVocab    string
	featuresFile string
	resultsFile  string
	posList      string
	treesFile    string

	// processing options
	MaxSeqLength int

	// task options
	parsing          bool
	wordSegmentation bool
	posTagging       bool
	subposTagging    bool
	featsTagging     bool
	depLabel         bool
	useGoldSeg       bool
	useGoldPos       bool
	h2z              bool

	// ingestion/output options
	analyzerInput  bool
	singleSentence bool
	outputTree     bool
)

// Number of BIE segmentation labels
const NUM_SEG_LABELS = 3

const DEFAULT_SEQ_LENGTH = 384

var AppCommands []*commander.Command = []*commander.Command{
	PrepareCmd(),
	ParseCmd(),
	MA2ConllCmd(),
}

func AllCommands() *commander.Command {
	cmd := &commander.Command{
		UsageLine:   os.Args[0],
		Short:       "neural dependency decoding utilities",
		Subcommands: AppCommands,
		Flag:        *flag.NewFlagSet("bertdep", flag.ExitOnError),
	}
	return cmd
}

func VerifyFlags(cmd *commander.Command, required []string) error {
	for _, flagName := range required {
		f := cmd.Flag.Lookup(flagName)
		if f == nil || f.Value.String() == "" {
			return errors.Errorf("required flag -%s not set", flagName)
		}
	}
	return nil
}

func VerifyExists(filename string) bool {
	_, err := os.Stat(filename)
	if err != nil {
		log.Println("Error accessing file", filename)
		log.Println(err)
		return false
	}
	return true
}

// TaskFlags registers the labeling-task flag set shared by prepare and
// parse; both runs must agree on it for the vocabularies to line up.
func TaskFlags(cmd *commander.Command) {
	cmd.Flag.BoolVar(&parsing, "parsing", false, "Decode dependency heads")
	cmd.Flag.BoolVar(&wordSegmentation, "wordseg", false, "Word segmentation from characters")
	cmd.Flag.BoolVar(&posTagging, "pos", false, "POS tagging")
	cmd.Flag.BoolVar(&subposTagging, "subpos", false, "Sub-POS tagging")
	cmd.Flag.BoolVar(&featsTagging, "feats", false, "Features tagging")
	cmd.Flag.BoolVar(&depLabel, "deplabel", false, "Dependency label estimation")
	cmd.Flag.BoolVar(&useGoldSeg, "goldseg", false, "Use gold segmentation at inference")
	cmd.Flag.BoolVar(&useGoldPos, "goldpos", false, "Use gold POS at inference")
	cmd.Flag.BoolVar(&h2z, "h2z", false, "Widen halfwidth characters")
	cmd.Flag.IntVar(&MaxSeqLength, "len", DEFAULT_SEQ_LENGTH, "Padded sequence length")
}

func TaskOptions(training bool) conll.Options {
	return conll.Options{
		Training:            training,
		Parsing:             parsing,
		WordSegmentation:    wordSegmentation,
		UseGoldSegmentation: useGoldSeg,
		UseGoldPos:          useGoldPos,
		PosTagging:          posTagging,
		SubposTagging:       subposTagging,
		FeatsTagging:        featsTagging,
		DepLabel:            depLabel,
		H2Z:                 h2z,
	}
}

// BuildVocabularies builds one vocabulary per active task over the
// training examples; segmentation has its fixed BIE cardinality.
func BuildVocabularies(opts conll.Options, examples []*types.Example) (vocab.Set, error) {
	vocabs := make(vocab.Set)
	for _, task := range opts.Tasks() {
		numLabels := 0
		if task == types.TASK_WORD_SEG {
			numLabels = NUM_SEG_LABELS
		}
		v, err := vocab.Build(task, examples, numLabels)
		if err != nil {
			return nil, err
		}
		vocabs[task] = v
	}
	return vocabs, nil
}
