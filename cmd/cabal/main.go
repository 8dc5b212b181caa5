package main

/*
cabal collapses tagged sequencing reads sharing an amplicon barcode down
to one consensus alignment per barcode bin. It reads a reference FASTA,
a YAML layout describing each reference's capture regions, and either
raw FASTQ streams or a pre-aligned BAM, and writes one consensus record
per bin to an output BAM.
*/

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"runtime"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/mckennalab/cabal/internal/align"
	"github.com/mckennalab/cabal/internal/bamio"
	"github.com/mckennalab/cabal/internal/consensus"
	"github.com/mckennalab/cabal/internal/fastaio"
	"github.com/mckennalab/cabal/internal/fastqio"
	"github.com/mckennalab/cabal/internal/fbase"
	"github.com/mckennalab/cabal/internal/layout"
	"github.com/mckennalab/cabal/internal/reference"
	"github.com/mckennalab/cabal/internal/scoring"
	"github.com/mckennalab/cabal/internal/sortdriver"
	"github.com/mckennalab/cabal/internal/sortkey"
	"github.com/mckennalab/cabal/internal/store"
)

var (
	r1Path  = flag.String("r1", "", "Input read-1 FASTQ path (xor -bam)")
	r2Path  = flag.String("r2", "", "Input read-2 FASTQ path, scanned in lockstep with -r1; its sequences are not aligned or staged")
	i1Path  = flag.String("i1", "", "Input index-1 FASTQ path, scanned in lockstep with -r1; its sequences are not aligned or staged")
	i2Path  = flag.String("i2", "", "Input index-2 FASTQ path, scanned in lockstep with -r1; its sequences are not aligned or staged")
	bamPath = flag.String("bam", "", "Input pre-aligned BAM path, in place of -r1/-r2/-i1/-i2; its CIGAR is replayed rather than re-aligned")

	refPath    = flag.String("ref", "", "Reference FASTA path (required)")
	layoutPath = flag.String("layout", "", "Layout YAML path describing each reference's capture regions (required)")
	outPath    = flag.String("out", "", "Output consensus BAM path (required)")
	scratchDir = flag.String("scratch", "", "Directory for the sort driver's intermediate shard stores (default: a temp-dir subdirectory)")
	tempDir    = flag.String("temp-dir", "", "Directory to create -scratch under when -scratch is unset (default os.TempDir())")

	parallelism   = flag.Int("parallelism", 0, "Ingest worker-pool width; 0 = runtime.NumCPU()")
	buckets       = flag.Int("buckets", 0, "Sharded store bucket count; 0 = internal default")
	backend       = flag.String("backend", "dp", "Alignment back-end: 'dp' or 'wavefront'")
	mode          = flag.String("mode", "semiglobal", "Alignment mode: 'global', 'local', or 'semiglobal'")
	minRefRatio   = flag.Float64("min-ref-ratio", 0, "Drop reads shorter than this multiple of their reference's length; 0 disables")
	maxRefRatio   = flag.Float64("max-ref-ratio", 0, "Drop reads longer than this multiple of their reference's length; 0 disables")
	kmerWindow    = flag.Int("kmer-window", 8, "Number of prefix k-mers sampled per read when choosing among multiple references")
	downsampleCap = flag.Int("downsample-cap", 1000, "Maximum bin size threaded through partial-order alignment before consensus; larger bins are randomly downsampled")
	seed          = flag.Int64("seed", 1, "Seed for the consensus builder's downsampling RNG, pinned for reproducible runs")
)

func cabalUsage() {
	fmt.Printf("Usage: %s [OPTIONS] -ref fasta -layout layout.yaml -out out.bam {-r1 fastq [-r2 fastq] [-i1 fastq] [-i2 fastq] | -bam aligned.bam}\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = cabalUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() > 0 {
		log.Fatalf("unparsed flags, please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	if *refPath == "" || *layoutPath == "" || *outPath == "" {
		log.Fatalf("-ref, -layout, and -out are all required")
	}
	if *bamPath == "" && *r1Path == "" {
		log.Fatalf("one of -r1 or -bam is required")
	}
	if *bamPath != "" && *r1Path != "" {
		log.Fatalf("-r1 and -bam are mutually exclusive")
	}

	alignMode, err := parseMode(*mode)
	if err != nil {
		log.Error.Printf("%v", err)
		os.Exit(1)
	}
	alignBackend, err := parseBackend(*backend)
	if err != nil {
		log.Error.Printf("%v", err)
		os.Exit(1)
	}

	refManager, err := loadReferences(*refPath)
	if err != nil {
		log.Error.Printf("loading references: %v", err)
		os.Exit(1)
	}

	lf, err := os.Open(*layoutPath)
	if err != nil {
		log.Error.Printf("opening layout: %v", err)
		os.Exit(1)
	}
	lay, err := layout.Parse(lf)
	lf.Close()
	if err != nil {
		log.Error.Printf("parsing layout: %v", err)
		os.Exit(1)
	}

	scratch, err := resolveScratchDir(*scratchDir, *tempDir)
	if err != nil {
		log.Error.Printf("preparing scratch directory: %v", err)
		os.Exit(1)
	}

	maxRefLen := refManager.LongestRefLen()
	newAligner := func() align.Aligner {
		switch alignBackend {
		case align.BackendWavefront:
			return align.NewWavefrontAligner()
		default:
			return align.NewDPAligner(scoring.DefaultAffine(), maxRefLen)
		}
	}

	opts := sortdriver.Opts{
		Parallelism:    parallelismOrNumCPU(*parallelism),
		ScratchDir:     scratch,
		NumBuckets:     *buckets,
		Mode:           alignMode,
		MinRefLenRatio: *minRefRatio,
		MaxRefLenRatio: *maxRefRatio,
		KmerWindow:     *kmerWindow,
	}
	driver, err := sortdriver.NewDriver(opts, refManager, lay.References, newAligner)
	if err != nil {
		log.Error.Printf("building sort driver: %v", err)
		os.Exit(1)
	}

	finalDir, stats, err := runPipeline(driver, refManager)
	if err != nil {
		log.Error.Printf("%v", err)
		os.Exit(1)
	}
	log.Debug.Printf("sort driver finished: %d read, %d accepted at ingest, %d stage levels",
		stats.Ingest.Input, stats.Ingest.Accepted, len(stats.Stages))

	if err := writeConsensus(finalDir, refManager, *outPath); err != nil {
		log.Error.Printf("writing consensus output: %v", err)
		os.Exit(1)
	}

	log.Debug.Printf("exiting")
}

func parseMode(s string) (align.Mode, error) {
	switch strings.ToLower(s) {
	case "global":
		return align.Global, nil
	case "local":
		return align.Local, nil
	case "semiglobal", "":
		return align.SemiGlobal, nil
	default:
		return 0, fmt.Errorf("unknown -mode %q (want global, local, or semiglobal)", s)
	}
}

func parseBackend(s string) (align.Backend, error) {
	switch strings.ToLower(s) {
	case "dp", "":
		return align.BackendDP, nil
	case "wavefront":
		return align.BackendWavefront, nil
	default:
		return "", fmt.Errorf("unknown -backend %q (want dp or wavefront)", s)
	}
}

func parallelismOrNumCPU(p int) int {
	if p <= 0 {
		return runtime.NumCPU()
	}
	return p
}

func resolveScratchDir(scratch, tmp string) (string, error) {
	if scratch != "" {
		if err := os.MkdirAll(scratch, 0o755); err != nil {
			return "", err
		}
		return scratch, nil
	}
	base := tmp
	if base == "" {
		base = os.TempDir()
	}
	return ioutil.TempDir(base, "cabal-")
}

func loadReferences(path string) (*reference.Manager, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := fastaio.Read(f)
	if err != nil {
		return nil, err
	}
	manager := reference.NewManager()
	for _, rec := range records {
		ref, err := reference.New(rec.Name, rec.ASCII, 12)
		if err != nil {
			return nil, err
		}
		manager.Add(ref)
	}
	return manager, nil
}

// runPipeline feeds the sort driver from either FASTQ streams or a
// pre-aligned BAM, per spec §6's two input contracts.
func runPipeline(driver *sortdriver.Driver, refs *reference.Manager) (string, *sortdriver.RunStats, error) {
	load := func(path string) ([]byte, error) { return ioutil.ReadFile(path) }

	if *bamPath != "" {
		return runFromBAM(driver, refs, load)
	}
	return runFromFASTQ(driver, load)
}

func runFromFASTQ(driver *sortdriver.Driver, load sortdriver.LoadKnownList) (string, *sortdriver.RunStats, error) {
	r1, err := os.Open(*r1Path)
	if err != nil {
		return "", nil, err
	}
	defer r1.Close()

	var r2, i1, i2 *os.File
	if *r2Path != "" {
		if r2, err = os.Open(*r2Path); err != nil {
			return "", nil, err
		}
		defer r2.Close()
	}
	if *i1Path != "" {
		if i1, err = os.Open(*i1Path); err != nil {
			return "", nil, err
		}
		defer i1.Close()
	}
	if *i2Path != "" {
		if i2, err = os.Open(*i2Path); err != nil {
			return "", nil, err
		}
		defer i2.Close()
	}

	scanner := fastqio.NewQuadScanner(r1, fileOrNil(r2), fileOrNil(i1), fileOrNil(i2), fastqio.ID|fastqio.Seq|fastqio.Qual)
	reads := make(chan sortdriver.RawRead, 64)
	var scanErr error
	go func() {
		defer close(reads)
		for {
			q, ok := scanner.Scan()
			if !ok {
				scanErr = scanner.Err()
				return
			}
			seq, err := fbase.FromString(q.R1.Seq)
			if err != nil {
				log.Error.Printf("sortdriver: skipping read %s: %v", q.R1.ID, err)
				continue
			}
			reads <- sortdriver.RawRead{Name: q.R1.ID, Sequence: seq, Quality: []byte(q.R1.Qual)}
		}
	}()

	finalDir, stats, err := driver.Run(reads, load)
	if err != nil {
		return "", stats, err
	}
	if scanErr != nil {
		return "", stats, scanErr
	}
	return finalDir, stats, nil
}

func fileOrNil(f *os.File) io.Reader {
	if f == nil {
		return nil
	}
	return f
}

func runFromBAM(driver *sortdriver.Driver, refs *reference.Manager, load sortdriver.LoadKnownList) (string, *sortdriver.RunStats, error) {
	f, err := os.Open(*bamPath)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	br, err := bam.NewReader(f, 1)
	if err != nil {
		return "", nil, err
	}
	defer br.Close()

	results := make(chan *align.Result, 64)
	var readErr error
	go func() {
		defer close(results)
		for {
			rec, err := br.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				readErr = err
				return
			}
			if rec.Ref == nil {
				log.Error.Printf("sortdriver: skipping unmapped record %s", rec.Name)
				continue
			}
			ref, ok := refs.GetByName(rec.Ref.Name())
			if !ok {
				log.Error.Printf("sortdriver: skipping record %s against unregistered reference %s", rec.Name, rec.Ref.Name())
				continue
			}
			result, err := bamio.ImportRecord(rec, ref.Bases)
			if err != nil {
				log.Error.Printf("sortdriver: skipping record %s: %v", rec.Name, err)
				continue
			}
			results <- result
		}
	}()

	finalDir, stats, err := driver.RunAligned(results, load)
	if err != nil {
		return "", stats, err
	}
	if readErr != nil {
		return "", stats, readErr
	}
	return finalDir, stats, nil
}

// writeConsensus streams the final sorted store's bins (consecutive
// containers comparing equal under sortkey.Compare, per the terminal
// level's fully-resolved SortedKeys) through the consensus builder, and
// writes one BAM record per bin.
func writeConsensus(finalDir string, refs *reference.Manager, outPath string) error {
	finalReader, err := store.NewReader(finalDir)
	if err != nil {
		return err
	}
	defer finalReader.Close()

	newAligner := func() align.Aligner { return align.NewDPAligner(scoring.DefaultAffine(), refs.LongestRefLen()) }
	builder := consensus.NewBuilder(consensus.Opts{DownsampleCap: *downsampleCap}, refs, newAligner, *seed)

	header, byName, err := bamio.NewHeader(refs)
	if err != nil {
		return err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	writer, err := bamio.NewWriter(out, header, byName)
	if err != nil {
		return err
	}

	var bin []*sortkey.Container
	flush := func() error {
		if len(bin) == 0 {
			return nil
		}
		rec, err := builder.Collapse(bin)
		if err != nil {
			return err
		}
		return writer.Write(rec)
	}

	for {
		c, ok, err := finalReader.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if len(bin) > 0 && sortkey.Compare(bin[0], c) != 0 {
			if err := flush(); err != nil {
				return err
			}
			bin = bin[:0]
		}
		bin = append(bin, c)
	}
	if err := flush(); err != nil {
		return err
	}

	return writer.Close()
}

