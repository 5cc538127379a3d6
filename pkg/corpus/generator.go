package corpus

import (
	"fmt"
	"math"

	"synthacorpus/pkg/logger"
	"synthacorpus/pkg/rng"
	"synthacorpus/pkg/zipf"
)

// Config collects every knob of a generation run.
type Config struct {
	Postings  int64
	VocabSize int
	Seed      uint64

	// Document length model: histogram file, piecewise segments, gamma,
	// or normal, in that order of precedence.
	DocLength      float64
	DocLengthStdev float64 // 0 defaults to half the mean
	GammaShape     float64
	GammaScale     float64
	DLSegments     string
	DLHistoPath    string

	// Term-frequency distribution. Alpha 0 requests the automatic fit.
	ZipfAlpha       float64
	TailPerc        float64
	MiddlePieces    string
	HeadPercentages string
	UseBaseVocab    bool
	InputVocab      string
	InputNgrams     string
}

// BuildModel assembles the piecewise TFD model from the configuration,
// synthesizing a single middle segment when no explicit pieces are given.
func BuildModel(cfg *Config) (*zipf.Model, error) {
	m := &zipf.Model{TailPerc: cfg.TailPerc}

	headProb := 0.0
	if cfg.HeadPercentages != "" {
		cumprobs, err := zipf.ParseHeadPercentages(cfg.HeadPercentages)
		if err != nil {
			return nil, err
		}
		m.HeadCumProbs = cumprobs
		headProb = cumprobs[len(cumprobs)-1]
	}

	if cfg.MiddlePieces != "" {
		segs, err := zipf.ParseMiddlePieces(cfg.MiddlePieces)
		if err != nil {
			return nil, err
		}
		m.Segments = segs
		return m, nil
	}

	alpha := cfg.ZipfAlpha
	if alpha == 0 {
		var err error
		alpha, err = zipf.FindAlpha(float64(cfg.Postings), float64(cfg.VocabSize))
		if err != nil {
			return nil, err
		}
		logger.Info("zipf alpha fitted automatically", "alpha", alpha)
	}
	m.Segments = []zipf.Segment{zipf.SingleSegment(
		alpha, m.HeadTerms(), headProb,
		float64(cfg.Postings), float64(cfg.VocabSize), cfg.TailPerc)}
	return m, nil
}

// lengthModel derives the document length model from the configuration.
func lengthModel(cfg *Config) (*LengthModel, error) {
	model := &LengthModel{
		Mean:       cfg.DocLength,
		Stdev:      cfg.DocLengthStdev,
		GammaShape: cfg.GammaShape,
		GammaScale: cfg.GammaScale,
	}
	if cfg.DLSegments != "" {
		lengths, cumprobs, err := ParseLengthSegments(cfg.DLSegments)
		if err != nil {
			return nil, err
		}
		model.Lengths = lengths
		model.Cumprobs = cumprobs
	}
	if model.Stdev == 0 {
		model.Stdev = model.Mean / 2.0
	}
	return model, nil
}

// Result is what a generation run hands to the writer.
type Result struct {
	Occurrences []Posting
	NumDocs     int64
}

// Generate runs the placement pipeline: doctable construction, TOFS
// synthesis, n-gram pre-placement, unigram scatter, and the
// within-document shuffle. Each stage reads only finalized outputs of the
// stages before it.
func Generate(src *rng.Source, cfg *Config) (*Result, error) {
	// Document length histogram, doctable, shuffle, pointers.
	var histo *LengthHistogram
	var err error
	if cfg.DLHistoPath != "" {
		histo, err = ReadLengthHistogram(cfg.DLHistoPath, cfg.Postings)
	} else {
		var model *LengthModel
		model, err = lengthModel(cfg)
		if err != nil {
			return nil, err
		}
		histo, err = GenerateLengthHistogram(src, model, cfg.Postings)
	}
	if err != nil {
		return nil, err
	}

	doctable := BuildDoctable(histo, cfg.Postings)
	if err := CheckDoctableBudget(doctable, cfg.Postings); err != nil {
		return nil, err
	}
	ShuffleDoctable(src, doctable)
	PlugInPointers(doctable)
	numDocs := int64(len(doctable))

	// Term occurrence frequencies.
	var tofs []uint64
	if cfg.UseBaseVocab {
		if cfg.InputVocab == "" {
			return nil, fmt.Errorf("base-vocabulary mode needs an input vocabulary file")
		}
		tofs, err = zipf.ReadTOFS(cfg.InputVocab, cfg.Postings, cfg.VocabSize)
	} else {
		var model *zipf.Model
		model, err = BuildModel(cfg)
		if err != nil {
			return nil, err
		}
		tofs, err = zipf.Synthesize(model, cfg.Postings, cfg.VocabSize)
	}
	if err != nil {
		return nil, err
	}

	placer := NewPlacer(src, doctable, cfg.Postings)

	// Multi-word terms go first: a partially filled short document can
	// always take one more unigram but may not fit a tuple.
	var ngramPostings int64
	if cfg.InputNgrams != "" {
		table, err := LoadNgrams(cfg.InputNgrams, cfg.VocabSize)
		if err != nil {
			return nil, err
		}
		ngramPostings, err = table.PrePlace(placer, tofs)
		if err != nil {
			return nil, err
		}
		var stillToGo int64
		for _, tf := range tofs {
			stillToGo += int64(tf)
		}
		if stillToGo+ngramPostings != cfg.Postings {
			return nil, fmt.Errorf("posting counts disagree after n-grams: %d placed + %d pending != %d",
				ngramPostings, stillToGo, cfg.Postings)
		}
	}

	unigramPostings, err := placer.PlaceUnigrams(tofs)
	if err != nil {
		return nil, err
	}
	logger.Info("postings placed",
		"total", ngramPostings+unigramPostings, "requested", cfg.Postings)

	occ := placer.Occurrences()
	if len(occ) > 0 && !occ[len(occ)-1].IsFinal() {
		logger.Warn("final posting flag missing on last occurrence, setting it")
		occ[len(occ)-1] |= FinalPosting
	}
	if placer.NonFull() != 0 {
		logger.Warn("documents remain non-full after placement", "count", placer.NonFull())
	}
	if err := CheckOccurrences(occ, numDocs); err != nil {
		return nil, err
	}

	ShuffleWithinDocs(src, occ)

	return &Result{Occurrences: occ, NumDocs: numDocs}, nil
}

// ValidateConfig rejects contradictory or out-of-range settings before
// any allocation happens.
func ValidateConfig(cfg *Config) error {
	if cfg.Postings < 1 {
		return fmt.Errorf("posting count must be positive")
	}
	if cfg.VocabSize < 1 {
		return fmt.Errorf("vocabulary size must be positive")
	}
	if int64(cfg.VocabSize) > cfg.Postings {
		return fmt.Errorf("vocabulary size %d exceeds posting budget %d", cfg.VocabSize, cfg.Postings)
	}
	if cfg.TailPerc < 0 || cfg.TailPerc > 100 {
		return fmt.Errorf("tail percentage must be in 0..100")
	}
	if math.IsNaN(cfg.ZipfAlpha) || cfg.ZipfAlpha > 0 {
		return fmt.Errorf("zipf alpha must be negative (or 0 for automatic fit)")
	}
	if cfg.ZipfAlpha == -1.0 {
		return fmt.Errorf("zipf alpha of exactly -1.0 is not integrable, use a nearby value")
	}
	if cfg.DLHistoPath == "" && cfg.DLSegments == "" && cfg.GammaShape == 0 && cfg.DocLength < 1 {
		return fmt.Errorf("no document length model: give a mean length, gamma parameters, segments or a histogram")
	}
	return nil
}
