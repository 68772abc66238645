package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/phonetichybrid/phonetichybrid/pkg/logger"
	"github.com/phonetichybrid/phonetichybrid/pkg/models"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/recognizer"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/spectrogram"
)

// Common flags, registered on every subcommand
type commonFlags struct {
	dbPath     string
	tempDir    string
	sampleRate int
	lang       string
	lexicon    string
	config     string
	backend    string
	jsonOut    bool

	fs *flag.FlagSet
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	c.fs = fs
	fs.StringVar(&c.dbPath, "db", getEnvOrDefault("PHONETIC_DB_PATH", "phonetichybrid.sqlite3"), "Path to the SQLite database file")
	fs.StringVar(&c.tempDir, "temp", getEnvOrDefault("PHONETIC_TEMP_DIR", os.TempDir()), "Directory for temporary audio conversion files")
	fs.IntVar(&c.sampleRate, "rate", audio.DefaultSampleRate, "Analysis sample rate")
	fs.StringVar(&c.lang, "lang", getEnvOrDefault("PHONETIC_LANGUAGE", "tr"), "Language of the target word (tr, en)")
	fs.StringVar(&c.lexicon, "lexicon", getEnvOrDefault("PHONETIC_LEXICON", ""), "Optional TSV pronunciation lexicon")
	fs.StringVar(&c.config, "config", getEnvOrDefault("PHONETIC_CONFIG", "phonetichybrid.yaml"), "Optional YAML config file")
	fs.StringVar(&c.backend, "recognizer", "", "Recognizer backend: azure, whisper, none (default from env)")
	fs.BoolVar(&c.jsonOut, "json", false, "Print JSON instead of text")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createService creates a service from the common flags. The recognizer is
// only configured for commands that analyse audio.
func createService(c *commonFlags, withRecognizer bool) (phonetichybrid.Service, error) {
	fc, err := phonetichybrid.LoadFileConfig(c.config)
	if err != nil {
		return nil, err
	}

	if fc.LogLevel != "" {
		logger.SetLevel(logger.ParseLevel(fc.LogLevel))
	}

	// Explicit flags and environment variables win over the config file.
	opts := fc.Options()
	if c.isSet("db", "PHONETIC_DB_PATH") {
		opts = append(opts, phonetichybrid.WithDBPath(c.dbPath))
	}
	if c.isSet("temp", "PHONETIC_TEMP_DIR") {
		opts = append(opts, phonetichybrid.WithTempDir(c.tempDir))
	}
	if c.isSet("rate", "") {
		opts = append(opts, phonetichybrid.WithSampleRate(c.sampleRate))
	}
	if c.isSet("lang", "PHONETIC_LANGUAGE") {
		opts = append(opts, phonetichybrid.WithLanguage(c.lang))
	}
	if c.lexicon != "" {
		opts = append(opts, phonetichybrid.WithLexicon(c.lexicon))
	}
	opts = append(opts, phonetichybrid.WithLogger(logger.GetLogger().WithPrefix("service")))

	if withRecognizer {
		rc := fc.RecognizerConfig()
		if c.backend != "" {
			rc.Backend = c.backend
		}
		rec, err := recognizer.New(rc)
		if err != nil {
			return nil, err
		}
		opts = append(opts, phonetichybrid.WithRecognizer(rec))
	}

	return phonetichybrid.NewService(opts...)
}

// isSet reports whether the flag was given on the command line or its
// environment variable is present.
func (c *commonFlags) isSet(name, env string) bool {
	if env != "" && os.Getenv(env) != "" {
		return true
	}
	if c.fs == nil {
		return false
	}
	found := false
	c.fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// language returns the requested language, or "" to use the configured one.
func (c *commonFlags) language() string {
	if c.isSet("lang", "PHONETIC_LANGUAGE") {
		return c.lang
	}
	return ""
}

// splitArgs separates leading positional arguments from flags so that
// "analyze file.wav --word ev" works with the flag package.
func splitArgs(args []string) (positional, flags []string) {
	for i, arg := range args {
		if strings.HasPrefix(arg, "-") {
			return positional, args[i:]
		}
		positional = append(positional, arg)
	}
	return positional, nil
}

func main() {
	log := logger.GetLogger()
	if phonetichybrid.LoadEnv() {
		log.Debugf("Loaded environment variables from .env file")
	}

	if len(os.Args) < 2 {
		printBanner()
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "analyze":
		handleAnalyze(os.Args[2:])
	case "batch":
		handleBatch(os.Args[2:])
	case "phonemes":
		handlePhonemes(os.Args[2:])
	case "history":
		handleHistory(os.Args[2:])
	case "show":
		handleShow(os.Args[2:])
	case "delete":
		handleDelete(os.Args[2:])
	case "spectrogram":
		handleSpectrogram(os.Args[2:])
	case "health":
		handleHealth(os.Args[2:])
	case "help", "-h", "--help":
		printBanner()
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 ____  _                      _   _      _   _       _          _     _
|  _ \| |__   ___  _ __   ___| |_(_) ___| | | |_   _| |__  _ __(_) __| |
| |_) | '_ \ / _ \| '_ \ / _ \ __| |/ __| |_| | | | | '_ \| '__| |/ _' |
|  __/| | | | (_) | | | |  __/ |_| | (__|  _  | |_| | |_) | |  | | (_| |
|_|   |_| |_|\___/|_| |_|\___|\__|_|\___|_| |_|\__, |_.__/|_|  |_|\__,_|
                                               |___/
           Pronunciation Analysis CLI Tool
`
	fmt.Println(banner)
}

func fail(format string, args ...any) {
	fmt.Printf("❌ "+format+"\n", args...)
	logger.GetLogger().Errorf(format, args...)
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("Failed to encode JSON: %v", err)
	}
}

func handleAnalyze(args []string) {
	positional, flagArgs := splitArgs(args)

	var common commonFlags
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	common.register(fs)
	word := fs.String("word", "", "Target word (required)")
	fs.Parse(flagArgs)

	if len(positional) != 1 || strings.TrimSpace(*word) == "" {
		fmt.Println("Usage: phonetichybrid analyze <audio_file> --word <word> [--lang tr]")
		os.Exit(1)
	}
	audioPath := positional[0]

	if !common.jsonOut {
		fmt.Println("\n🔧 Initializing service...")
	}
	svc, err := createService(&common, true)
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if !common.jsonOut {
		fmt.Printf("🎙️  Analyzing %q in %s...\n", *word, filepath.Base(audioPath))
		if meta, err := audio.Probe(ctx, audioPath); err == nil {
			fmt.Printf("   Source: %s/%s, %d Hz, %d ch, %.2fs\n", meta.Format, meta.Codec, meta.SampleRate, meta.Channels, meta.DurationSec)
		} else {
			logger.GetLogger().Debugf("probe %s: %v", audioPath, err)
		}
	}

	result, err := svc.Analyze(ctx, audioPath, *word, common.language())
	if err != nil {
		svc.Close()
		fail("Analysis failed: %v", err)
	}

	if common.jsonOut {
		printJSON(result)
		return
	}
	printResult(os.Stdout, result)
}

// printResult writes a human readable report of r.
func printResult(w io.Writer, r *models.AnalysisResult) {
	fmt.Fprintf(w, "\n✅ %s  %.3f  (%s)\n", r.Grade, r.Overall, r.GradeLabel)
	fmt.Fprintf(w, "   Word:      %s [%s]\n", r.Word, r.Language)
	fmt.Fprintf(w, "   Phonemes:  /%s/\n", r.PhonemesTarget)
	if r.RecognizedText != nil {
		conf := 0.0
		if r.RecognitionConfidence != nil {
			conf = *r.RecognitionConfidence
		}
		fmt.Fprintf(w, "   Heard:     %q (confidence %.2f)\n", *r.RecognizedText, conf)
	}
	fmt.Fprintf(w, "   Method:    %s\n", r.AnalysisMethod)
	fmt.Fprintf(w, "   Duration:  %.2fs\n", r.DurationSec)
	if r.ID != "" {
		fmt.Fprintf(w, "   ID:        %s\n", r.ID)
	}

	fmt.Fprintln(w, "\n   Segments:")
	for _, s := range r.Segments {
		fmt.Fprintf(w, "   %2d. %-4s %-9s %5.2f-%5.2fs  %.3f %s\n",
			s.Index+1, s.Phoneme, s.Class, s.Start, s.End, s.Score, scoreBar(s.Score, 20))
	}
	fmt.Fprintln(w)
}

// scoreBar renders a score in [0, 1] as a fixed-width bar.
func scoreBar(score float64, width int) string {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	filled := int(score*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// parseBatchFile reads "audio<TAB>word[<TAB>lang]" lines. Blank lines and
// lines starting with # are skipped. Relative audio paths are resolved
// against baseDir.
func parseBatchFile(r io.Reader, baseDir string) ([]phonetichybrid.BatchItem, error) {
	var items []phonetichybrid.BatchItem
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.Split(text, "\t")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("line %d: want 2 or 3 tab-separated columns, got %d", line, len(parts))
		}
		item := phonetichybrid.BatchItem{
			AudioPath: strings.TrimSpace(parts[0]),
			Word:      strings.TrimSpace(parts[1]),
		}
		if len(parts) == 3 {
			item.Language = strings.TrimSpace(parts[2])
		}
		if item.AudioPath == "" || item.Word == "" {
			return nil, fmt.Errorf("line %d: audio path and word are required", line)
		}
		if !filepath.IsAbs(item.AudioPath) {
			item.AudioPath = filepath.Join(baseDir, item.AudioPath)
		}
		items = append(items, item)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func handleBatch(args []string) {
	positional, flagArgs := splitArgs(args)

	var common commonFlags
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	common.register(fs)
	fs.Parse(flagArgs)

	if len(positional) != 1 {
		fmt.Println("Usage: phonetichybrid batch <list.tsv>   (lines: audio<TAB>word[<TAB>lang])")
		os.Exit(1)
	}

	f, err := os.Open(positional[0])
	if err != nil {
		fail("Failed to open batch file: %v", err)
	}
	items, err := parseBatchFile(f, filepath.Dir(positional[0]))
	f.Close()
	if err != nil {
		fail("Invalid batch file: %v", err)
	}
	if len(items) == 0 {
		fmt.Println("📭 Batch file is empty")
		return
	}
	for i := range items {
		if items[i].Language == "" {
			items[i].Language = common.language()
		}
	}

	svc, err := createService(&common, true)
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(len(items))*2*time.Minute)
	defer cancel()

	if !common.jsonOut {
		fmt.Printf("\n🎙️  Analyzing %d utterance(s)...\n\n", len(items))
	}
	results := svc.AnalyzeBatch(ctx, items)

	if common.jsonOut {
		printJSON(results)
		return
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			fmt.Printf("%3d. %-16s ❌ %s\n", r.Index+1, r.Word, r.Error)
			continue
		}
		fmt.Printf("%3d. %-16s %s %.3f %s\n", r.Index+1, r.Word, r.Result.Grade, r.Overall, scoreBar(r.Overall, 20))
	}
	fmt.Printf("\n✅ %d analysed, %d failed\n", len(results)-failed, failed)
}

func handlePhonemes(args []string) {
	positional, flagArgs := splitArgs(args)

	var common commonFlags
	fs := flag.NewFlagSet("phonemes", flag.ExitOnError)
	common.register(fs)
	fs.Parse(flagArgs)

	if len(positional) == 0 {
		fmt.Println("Usage: phonetichybrid phonemes <word> [<word>...] [--lang tr]")
		os.Exit(1)
	}

	svc, err := createService(&common, false)
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var infos []*models.PhonemeInfo
	for _, word := range positional {
		info, err := svc.Phonemes(ctx, word, common.language())
		if err != nil {
			fmt.Printf("❌ %s: %v\n", word, err)
			continue
		}
		infos = append(infos, info)
	}

	if common.jsonOut {
		printJSON(infos)
		return
	}
	for _, info := range infos {
		fmt.Printf("🔤 %s  /%s/  %d phonemes, ~%d syllables\n", info.Word, info.PhonemeString, info.Count, info.Syllables)
	}
}

func handleHistory(args []string) {
	var common commonFlags
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	common.register(fs)
	word := fs.String("word", "", "Only show analyses of this word")
	limit := fs.Int("limit", 20, "Maximum number of analyses")
	fs.Parse(args)

	svc, err := createService(&common, false)
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	list, err := svc.ListAnalyses(*word, *limit)
	if err != nil {
		svc.Close()
		fail("Failed to list analyses: %v", err)
	}

	if common.jsonOut {
		printJSON(list)
		return
	}
	if len(list) == 0 {
		fmt.Println("\n📭 No analyses in database")
		return
	}

	fmt.Printf("\n📚 %d analysis(es):\n\n", len(list))
	for i, a := range list {
		fmt.Printf("%2d. %-16s %s %.3f  %-16s %s\n", i+1, a.Word, a.Grade, a.Overall, a.AnalysisMethod, humanize.Time(a.CreatedAt))
		fmt.Printf("    ID: %s\n", a.ID)
	}
}

func handleShow(args []string) {
	positional, flagArgs := splitArgs(args)

	var common commonFlags
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	common.register(fs)
	fs.Parse(flagArgs)

	if len(positional) != 1 {
		fmt.Println("Usage: phonetichybrid show <analysis_id>")
		os.Exit(1)
	}

	svc, err := createService(&common, false)
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	result, err := svc.GetAnalysis(positional[0])
	if err != nil {
		svc.Close()
		fail("Analysis not found: %v", err)
	}

	if common.jsonOut {
		printJSON(result)
		return
	}
	printResult(os.Stdout, result)
	fmt.Printf("   Recorded %s\n\n", humanize.Time(result.CreatedAt))
}

func handleDelete(args []string) {
	positional, flagArgs := splitArgs(args)

	var common commonFlags
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	common.register(fs)
	fs.Parse(flagArgs)

	if len(positional) != 1 {
		fmt.Println("Usage: phonetichybrid delete <analysis_id>")
		os.Exit(1)
	}
	id := positional[0]

	svc, err := createService(&common, false)
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	result, err := svc.GetAnalysis(id)
	if err != nil {
		svc.Close()
		fail("Analysis not found (ID: %s)", id)
	}
	if err := svc.DeleteAnalysis(id); err != nil {
		svc.Close()
		fail("Failed to delete analysis: %v", err)
	}

	fmt.Printf("\n✅ Successfully deleted analysis:\n")
	fmt.Printf("   ID:    %s\n", result.ID)
	fmt.Printf("   Word:  %s\n", result.Word)
	fmt.Printf("   Score: %.3f (%s)\n", result.Overall, result.Grade)
}

func handleSpectrogram(args []string) {
	positional, flagArgs := splitArgs(args)

	var common commonFlags
	fs := flag.NewFlagSet("spectrogram", flag.ExitOnError)
	common.register(fs)
	out := fs.String("out", "", "Output PNG path (default: <audio>.png)")
	width := fs.Int("width", 1024, "Image width in pixels")
	height := fs.Int("height", 256, "Image height in pixels (frequency bins)")
	logScale := fs.Bool("log", false, "Use log10 magnitude")
	fs.Parse(flagArgs)

	if len(positional) != 1 {
		fmt.Println("Usage: phonetichybrid spectrogram <audio_file> [--out file.png]")
		os.Exit(1)
	}
	audioPath := positional[0]
	if *out == "" {
		*out = strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".png"
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	wave, err := audio.LoadFile(ctx, audioPath, common.tempDir, common.sampleRate)
	if err != nil {
		fail("Failed to load audio: %v", err)
	}

	opts := spectrogram.Options{Width: *width, Height: *height, Log: *logScale}
	if err := spectrogram.SavePNG(*out, wave, opts); err != nil {
		fail("Failed to render spectrogram: %v", err)
	}

	info, _ := os.Stat(*out)
	size := ""
	if info != nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	fmt.Printf("✅ Saved spectrogram to %s (%s, %.2fs of audio)\n", *out, size, wave.Duration())
}

func handleHealth(args []string) {
	var common commonFlags
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	common.register(fs)
	fs.Parse(args)

	svc, err := createService(&common, true)
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	// Give the recognizer warm-up a moment before reporting.
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	h := waitForRecognizer(ctx, svc)

	if common.jsonOut {
		printJSON(h)
		return
	}
	fmt.Printf("Recognizer: %s (%s)\n", h.RecognizerBackend, readyLabel(h.RecognizerReady))
	fmt.Printf("Phonemizer: %s\n", readyLabel(h.PhonemizerReady))
	fmt.Printf("Database:   %s\n", readyLabel(h.DatabaseReady))
}

func waitForRecognizer(ctx context.Context, svc phonetichybrid.Service) models.HealthStatus {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		h := svc.Health(ctx)
		if h.RecognizerReady || h.RecognizerBackend == recognizer.BackendNone {
			return h
		}
		select {
		case <-ctx.Done():
			return svc.Health(context.Background())
		case <-ticker.C:
		}
	}
}

func readyLabel(ok bool) string {
	if ok {
		return "✅ ready"
	}
	return "❌ unavailable"
}

func printUsage() {
	fmt.Println("PhoneticHybrid - Pronunciation Analysis CLI")
	fmt.Println("\nCommon Options (accepted by every command):")
	fmt.Println("  --db <path>          Path to SQLite database (env: PHONETIC_DB_PATH, default: phonetichybrid.sqlite3)")
	fmt.Println("  --temp <dir>         Temporary directory for audio conversion (env: PHONETIC_TEMP_DIR)")
	fmt.Println("  --rate <hz>          Analysis sample rate (default: 16000)")
	fmt.Println("  --lang <code>        Target language: tr, en (env: PHONETIC_LANGUAGE, default: tr)")
	fmt.Println("  --lexicon <file>     TSV lexicon consulted before espeak-ng (env: PHONETIC_LEXICON)")
	fmt.Println("  --config <file>      YAML config (env: PHONETIC_CONFIG, default: phonetichybrid.yaml)")
	fmt.Println("  --recognizer <name>  azure, whisper or none (env: RECOGNIZER_BACKEND)")
	fmt.Println("  --json               Print JSON")
	fmt.Println("\nUsage:")
	fmt.Println("  phonetichybrid analyze <audio_file> --word <word>")
	fmt.Println("  phonetichybrid batch <list.tsv>")
	fmt.Println("  phonetichybrid phonemes <word> [<word>...]")
	fmt.Println("  phonetichybrid history [--word <word>] [--limit n]")
	fmt.Println("  phonetichybrid show <analysis_id>")
	fmt.Println("  phonetichybrid delete <analysis_id>")
	fmt.Println("  phonetichybrid spectrogram <audio_file> [--out file.png]")
	fmt.Println("  phonetichybrid health")
	fmt.Println("\nExamples:")
	fmt.Println("  # Score a recording of \"pencere\" (Azure credentials from .env)")
	fmt.Println("  phonetichybrid analyze recording.webm --word pencere")
	fmt.Println()
	fmt.Println("  # English word, acoustic scoring only")
	fmt.Println("  phonetichybrid analyze hello.wav --word hello --lang en --recognizer none")
	fmt.Println()
	fmt.Println("  # Transcribe without audio")
	fmt.Println("  phonetichybrid phonemes kitap bilgisayar")
}
