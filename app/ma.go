package app

import (
	"io"
	"log"
	"os"

	"bertdep/nlp/format/jpp"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/pkg/errors"
)

func MA2ConllConfigOut() {
	log.Println("Configuration")
	log.Printf("Analyzer Input:\t%s", input)
	log.Printf("POS Table:\t\t%s", posList)
	log.Printf("Output:\t\t%s", output)
	log.Println()
}

func MA2Conll(cmd *commander.Command, args []string) error {
	REQUIRED_FLAGS := []string{"poslist"}
	if err := VerifyFlags(cmd, REQUIRED_FLAGS); err != nil {
		return err
	}
	MA2ConllConfigOut()

	table, err := jpp.ReadPosTableFile(posList)
	if err != nil {
		return errors.Wrap(err, "reading pos table")
	}
	log.Println("Read", table.Len(), "POS shortcodes")

	reader := io.Reader(os.Stdin)
	if input != "" && input != "-" {
		inFile, err := os.Open(input)
		if err != nil {
			return errors.Wrap(err, "opening analyzer input")
		}
		defer inFile.Close()
		reader = inFile
	}
	converted, err := jpp.Read(reader, table)
	if err != nil {
		return errors.Wrap(err, "converting analyzer input")
	}

	writer := io.Writer(os.Stdout)
	if output != "" && output != "-" {
		outFile, err := os.Create(output)
		if err != nil {
			return errors.Wrap(err, "creating output file")
		}
		defer outFile.Close()
		writer = outFile
	}
	if _, err := io.WriteString(writer, converted); err != nil {
		return errors.Wrap(err, "writing output")
	}
	return nil
}

func MA2ConllCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       MA2Conll,
		UsageLine: "ma2conll <file options> [arguments]",
		Short:     "normalize morphological analyzer records into the corpus format",
		Long: `
normalize morphological analyzer records into the corpus format

	$ ./bertdep ma2conll -poslist <pos table> [-in <analyzer file>] [-out <corpus file>]

`,
		Flag: *flag.NewFlagSet("ma2conll", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&input, "in", "", "Analyzer record file ('-' or empty for stdin)")
	cmd.Flag.StringVar(&output, "out", "", "Output file ('-' or empty for stdout)")
	cmd.Flag.StringVar(&posList, "poslist", "", "POS shortcode table (two-column TSV)")
	return cmd
}
