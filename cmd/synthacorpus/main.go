package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"synthacorpus/pkg/corpus"
	"synthacorpus/pkg/extract"
	"synthacorpus/pkg/logger"
	"synthacorpus/pkg/querygen"
	"synthacorpus/pkg/report"
	"synthacorpus/pkg/rng"
	"synthacorpus/pkg/starc"
	"synthacorpus/pkg/termrep"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "synthacorpus",
	Short: "Tools for synthesizing text corpora with prescribed statistical properties",
	Long: `synthacorpus generates synthetic text corpora whose term-frequency
distribution, document-length distribution, vocabulary size, n-gram structure
and word-form morphology emulate those of a real reference corpus.

The extract subcommand derives the reference statistics from a real corpus;
generate consumes them (or explicit model parameters) and emits a synthetic
corpus in STARC archive or tab-separated form. The remaining subcommands are
the supporting tools: archive validation and counting, record selection,
known-item query generation and query-log emulation.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(&logger.Config{
			Level:  logger.ParseLevel(viper.GetString("log-level")),
			Format: viper.GetString("log-format"),
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.synthacorpus.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(checkStarcCmd)
	rootCmd.AddCommand(countDocsCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(queriesCmd)
	rootCmd.AddCommand(qlogCmd)
	rootCmd.AddCommand(reportCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".synthacorpus")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// ---------------------------------------------------------------- generate

var genCfg corpus.Config

var (
	termRepMethod    string
	markovLambda     float64
	markovFullBack   bool
	markovVocabProbs bool
	markovByRank     bool
	markovPronounce  bool
	markovModelLens  bool
	outputPath       string
	includeDocnums   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		if genCfg.Seed == 0 {
			genCfg.Seed = uint64(time.Now().UnixNano())
		}
		if err := corpus.ValidateConfig(&genCfg); err != nil {
			return err
		}
		src := rng.New(genCfg.Seed)
		logger.Info("generator seeded", "seed", genCfg.Seed)

		table, vocabSize, err := termrep.Build(src, genCfg.VocabSize, termrep.Options{
			Method:          termRepMethod,
			InputVocab:      genCfg.InputVocab,
			Lambda:          markovLambda,
			FullBackoff:     markovFullBack,
			UseVocabProbs:   markovVocabProbs,
			AssignByRank:    markovByRank,
			FavourPronounce: markovPronounce,
			ModelWordLens:   markovModelLens,
		})
		if err != nil {
			return fmt.Errorf("building term representations: %w", err)
		}
		genCfg.VocabSize = vocabSize

		result, err := corpus.Generate(src, &genCfg)
		if err != nil {
			return fmt.Errorf("generating corpus: %w", err)
		}

		out, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer out.Close()

		if starc.IsTSVPath(outputPath) {
			_, err = starc.WriteTSV(out, result.Occurrences, table, includeDocnums)
		} else {
			_, err = starc.WriteArchive(out, result.Occurrences, table, includeDocnums)
		}
		if err != nil {
			return fmt.Errorf("writing corpus: %w", err)
		}
		return out.Close()
	},
}

func init() {
	f := generateCmd.Flags()
	f.Int64Var(&genCfg.Postings, "postings", 10_000_000, "number of word occurrences to generate")
	f.IntVar(&genCfg.VocabSize, "vocab-size", 1_000_000, "number of distinct words to generate")
	f.Uint64Var(&genCfg.Seed, "seed", 0, "random seed; 0 derives one from the clock")
	f.Float64Var(&genCfg.DocLength, "doc-length", 0, "mean document length for the normal length model")
	f.Float64Var(&genCfg.DocLengthStdev, "doc-length-stdev", 0, "document length standard deviation (default: half the mean)")
	f.Float64Var(&genCfg.GammaShape, "gamma-shape", 0, "shape parameter for a gamma document length model")
	f.Float64Var(&genCfg.GammaScale, "gamma-scale", 0, "scale parameter for the gamma document length model")
	f.StringVar(&genCfg.DLSegments, "dl-segments", "", "piecewise document length model, e.g. \"4:1,0.33;10,0.5;200,0.67;5000,1.0\"")
	f.StringVar(&genCfg.DLHistoPath, "dl-histo", "", "doclenhist file to read document lengths from")
	f.Float64Var(&genCfg.ZipfAlpha, "zipf-alpha", -0.9, "Zipf slope (negative, not -1.0); 0 fits it automatically")
	f.Float64Var(&genCfg.TailPerc, "tail-perc", 0, "desired percentage of the vocabulary occurring exactly once")
	f.StringVar(&genCfg.MiddlePieces, "middle-pieces", "", "explicit middle segments: \"alpha,F,L,probrange,cumprob%...\"")
	f.StringVar(&genCfg.HeadPercentages, "head-percentages", "", "comma-separated head term percentages, descending")
	f.BoolVar(&genCfg.UseBaseVocab, "use-base-vocab", false, "take exact term frequencies from the input vocabulary")
	f.StringVar(&genCfg.InputVocab, "input-vocab", "", "vocab.tsv used for term representations and base frequencies")
	f.StringVar(&genCfg.InputNgrams, "input-ngrams", "", "ngrams.termids file of termid tuples to pre-place")
	f.StringVar(&termRepMethod, "term-rep", "base26", "term representation method: tnum, base26, bubble_babble, simpleWords, from_tsv, markov-<k>[e]")
	f.Float64Var(&markovLambda, "markov-lambda", 0, "probability of sampling a letter from the backoff model")
	f.BoolVar(&markovFullBack, "markov-full-backoff", true, "back off all the way to order zero")
	f.BoolVar(&markovVocabProbs, "markov-use-vocab-probs", true, "weight training words equally rather than by frequency")
	f.BoolVar(&markovByRank, "markov-assign-by-rank", true, "assign word representations in rank rather than length order")
	f.BoolVar(&markovPronounce, "markov-favour-pronounceable", true, "penalise unpronounceable words when sorting by length")
	f.BoolVar(&markovModelLens, "markov-model-word-lens", true, "redistribute self-terminated words so length correlates with rank")
	f.StringVar(&outputPath, "output", "corpus.starc", "output path; a .tsv suffix selects tab-separated output")
	f.BoolVar(&includeDocnums, "include-docnums", true, "include document numbers in the output")

	for _, name := range []string{
		"postings", "vocab-size", "seed", "doc-length", "doc-length-stdev",
		"gamma-shape", "gamma-scale", "dl-segments", "dl-histo", "zipf-alpha",
		"tail-perc", "middle-pieces", "head-percentages", "use-base-vocab",
		"input-vocab", "input-ngrams", "term-rep", "markov-lambda",
		"markov-full-backoff", "markov-use-vocab-probs", "markov-assign-by-rank",
		"markov-favour-pronounceable", "markov-model-word-lens", "output",
		"include-docnums",
	} {
		viper.BindPFlag(name, f.Lookup(name))
	}
}

// ----------------------------------------------------------------- extract

var extractStem string

var extractCmd = &cobra.Command{
	Use:   "extract <corpus>",
	Short: "Extract the statistical properties of a real corpus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stem := extractStem
		if stem == "" {
			stem = args[0]
		}
		return extract.New(args[0], stem).Run()
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractStem, "output-stem", "", "stem for the property files (default: the corpus path)")
}

// ------------------------------------------------------- archive utilities

var checkStarcCmd = &cobra.Command{
	Use:   "checkstarc <archive>",
	Short: "Validate the record structure of a STARC archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, d, t, err := starc.Check(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Checks passed: record counts: H:%d, D:%d, T:%d\n", h, d, t)
		return nil
	},
}

var countDocsCmd = &cobra.Command{
	Use:   "countdocs <corpus>",
	Short: "Count the documents in a corpus file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := starc.CountDocs(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Documents: %d\n", n)
		return nil
	},
}

var (
	selectProportion float64
	selectHead       int64
	selectSeed       uint64
)

var selectCmd = &cobra.Command{
	Use:   "select <infile> <outfile>",
	Short: "Select a subset of records from a corpus file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := starc.SelectOptions{Mode: starc.SelectRandom, Proportion: selectProportion}
		if selectHead > 0 {
			opts = starc.SelectOptions{Mode: starc.SelectHead, HeadCount: selectHead}
		}
		if selectSeed == 0 {
			selectSeed = uint64(time.Now().UnixNano())
		}
		out, err := os.Create(args[1])
		if err != nil {
			return err
		}
		defer out.Close()
		if _, err := starc.SelectRecords(rng.New(selectSeed), args[0], out, opts); err != nil {
			return err
		}
		return out.Close()
	},
}

func init() {
	selectCmd.Flags().Float64Var(&selectProportion, "proportion", 0.1, "random mode: probability each document is selected")
	selectCmd.Flags().Int64Var(&selectHead, "head", 0, "head mode: number of leading documents to select")
	selectCmd.Flags().Uint64Var(&selectSeed, "seed", 0, "random seed; 0 derives one from the clock")
}

// ------------------------------------------------------------- query tools

var (
	queriesVocab  string
	queriesCount  int
	queriesMean   float64
	queriesStdev  float64
	queriesSeed   uint64
	queriesOutput string
)

var queriesCmd = &cobra.Command{
	Use:   "queries <corpus>",
	Short: "Generate known-item queries for a corpus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if queriesSeed == 0 {
			queriesSeed = uint64(time.Now().UnixNano())
		}
		out, err := os.Create(queriesOutput)
		if err != nil {
			return err
		}
		defer out.Close()
		err = querygen.Generate(rng.New(queriesSeed), querygen.Options{
			CorpusPath: args[0],
			VocabPath:  queriesVocab,
			NumQueries: queriesCount,
			MeanLen:    queriesMean,
			StdevLen:   queriesStdev,
		}, out)
		if err != nil {
			return err
		}
		return out.Close()
	},
}

func init() {
	queriesCmd.Flags().StringVar(&queriesVocab, "vocab", "", "descending-frequency vocab TSV for the corpus")
	queriesCmd.Flags().IntVar(&queriesCount, "count", 1000, "number of queries to generate")
	queriesCmd.Flags().Float64Var(&queriesMean, "mean-length", 3.2, "mean query length")
	queriesCmd.Flags().Float64Var(&queriesStdev, "stdev-length", 1.5, "query length standard deviation")
	queriesCmd.Flags().Uint64Var(&queriesSeed, "seed", 0, "random seed; 0 derives one from the clock")
	queriesCmd.Flags().StringVar(&queriesOutput, "output", "queries.tsv", "output path")
	queriesCmd.MarkFlagRequired("vocab")
}

var (
	qlogBaseVocab string
	qlogEmuVocab  string
	qlogOutput    string
)

var qlogCmd = &cobra.Command{
	Use:   "qlog <base-query-log>",
	Short: "Translate a base query log into the emulated vocabulary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.Create(qlogOutput)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := querygen.EmulateLog(in, qlogBaseVocab, qlogEmuVocab, out); err != nil {
			return err
		}
		return out.Close()
	},
}

func init() {
	qlogCmd.Flags().StringVar(&qlogBaseVocab, "base-vocab", "", "descending-frequency vocab TSV of the base corpus")
	qlogCmd.Flags().StringVar(&qlogEmuVocab, "emu-vocab", "", "descending-frequency vocab TSV of the emulated corpus")
	qlogCmd.Flags().StringVar(&qlogOutput, "output", "emulated.qlog", "output path")
	qlogCmd.MarkFlagRequired("base-vocab")
	qlogCmd.MarkFlagRequired("emu-vocab")
}

// ------------------------------------------------------------------ report

var reportOutput string

var reportCmd = &cobra.Command{
	Use:   "report <summary.md>",
	Short: "Render an extracted property summary as HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := os.Create(reportOutput)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := report.RenderHTML(args[0], out); err != nil {
			return err
		}
		return out.Close()
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOutput, "output", "report.html", "output HTML path")
}
