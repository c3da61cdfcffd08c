// poltest compiles every sample program in the test tree and compares the
// result with the checked-in golden file next to it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/polc/pkg/compiler"
	"github.com/xplshn/polc/pkg/config"
)

type FileTestResult struct {
	File     string        `json:"file"`
	Hash     string        `json:"hash"`
	Target   string        `json:"target"`
	Status   string        `json:"status"` // PASS, FAIL, SKIP, ERROR, UPDATED
	Message  string        `json:"message,omitempty"`
	Diff     string        `json:"diff,omitempty"`
	Duration time.Duration `json:"duration"`
}

type TestSuiteResults map[string]*FileTestResult

var (
	testFiles  = flag.String("test-files", "tests/*.pol", "Glob pattern(s) for files to test (space-separated).")
	skipFiles  = flag.String("skip-files", "", "Files to skip (space-separated).")
	target     = flag.String("target", config.BackendNasm, "Backend and target to compile with, as for polc -t.")
	outputJSON = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	update     = flag.Bool("update", false, "Rewrite golden files with the current compiler output.")
	useCache   = flag.Bool("cached", false, "Skip files whose content passed in the previous report.")
	timeout    = flag.Duration("timeout", 5*time.Second, "Timeout for compiling a single file.")
	jobs       = flag.Int("j", 4, "Number of parallel test jobs.")
	verbose    = flag.Bool("v", false, "Enable verbose logging.")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	if *jobs < 1 {
		*jobs = 1
	}

	cfg := config.NewConfig()
	if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, *target); err != nil {
		log.Fatalf("%s[ERROR]%s %v\n", cRed, cNone, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}

	previousResults := make(TestSuiteResults)
	if prevData, err := os.ReadFile(*outputJSON); err == nil {
		if json.Unmarshal(prevData, &previousResults) != nil {
			log.Printf("%s[WARN]%s Could not parse previous results file %s. Cache will not be used.\n", cYellow, cNone, *outputJSON)
			previousResults = make(TestSuiteResults)
		}
	}

	results := runSuite(ctx, files, *target, previousResults)
	printSummary(results)
	resultsMap := writeJSONReport(results)
	if hasFailures(resultsMap) {
		os.Exit(1)
	}
}

func runSuite(ctx context.Context, files []string, target string, previous TestSuiteResults) []*FileTestResult {
	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		skipList[f] = true
	}

	tasks := make(chan string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				if ctx.Err() != nil {
					resultsChan <- &FileTestResult{File: file, Target: target, Status: "SKIP", Message: "Interrupted"}
					continue
				}
				resultsChan <- testFile(ctx, file, target, previous)
			}
		}()
	}

	for _, file := range files {
		if skipList[file] {
			resultsChan <- &FileTestResult{File: file, Target: target, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		tasks <- file
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var allResults []*FileTestResult
	for result := range resultsChan {
		allResults = append(allResults, result)
	}
	sort.Slice(allResults, func(i, j int) bool { return allResults[i].File < allResults[j].File })
	return allResults
}

// goldenPath names the expected-output file for a source file and target,
// e.g. tests/exit.pol -> tests/exit.nasm.golden.
func goldenPath(sourceFile, target string) string {
	base := strings.TrimSuffix(sourceFile, filepath.Ext(sourceFile))
	return base + "." + strings.ReplaceAll(target, "/", "-") + ".golden"
}

// hashInputs keys the result cache on everything that decides the outcome:
// the target, the source and the golden file.
func hashInputs(target string, source, golden []byte) string {
	h := xxhash.New()
	for _, part := range [][]byte{[]byte(target), source, golden} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum64())
}

// compileFile renders a compilation as golden text: the assembly on
// success, or a single "compile error:" line on failure.
func compileFile(ctx context.Context, source []byte, cfg *config.Config) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	done := make(chan string, 1)
	go func() {
		out, err := compiler.Compile(string(source), cfg)
		if err != nil {
			out = "compile error: " + err.Error() + "\n"
		}
		done <- out
	}()

	select {
	case out := <-done:
		return out, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func testFile(ctx context.Context, file, target string, previous TestSuiteResults) *FileTestResult {
	start := time.Now()
	result := &FileTestResult{File: file, Target: target}

	source, err := os.ReadFile(file)
	if err != nil {
		result.Status, result.Message = "ERROR", fmt.Sprintf("Failed to read source file: %v", err)
		return result
	}
	golden := goldenPath(file, target)
	want, goldenErr := os.ReadFile(golden)
	result.Hash = hashInputs(target, source, want)

	if prev, ok := previous[file]; *useCache && !*update && ok && prev.Status == "PASS" && prev.Hash == result.Hash {
		result.Status, result.Message = "PASS", "Cached result"
		return result
	}

	cfg := config.NewConfig()
	if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, target); err != nil {
		result.Status, result.Message = "ERROR", err.Error()
		return result
	}

	got, err := compileFile(ctx, source, cfg)
	result.Duration = time.Since(start)
	if err != nil {
		result.Status, result.Message = "ERROR", fmt.Sprintf("Compilation did not finish: %v", err)
		return result
	}

	if *update {
		if err := os.WriteFile(golden, []byte(got), 0644); err != nil {
			result.Status, result.Message = "ERROR", fmt.Sprintf("Failed to write golden file: %v", err)
			return result
		}
		result.Status, result.Message = "UPDATED", golden
		return result
	}

	if goldenErr != nil {
		result.Status, result.Message = "SKIP", fmt.Sprintf("No golden file %s (run with -update)", golden)
		return result
	}

	if diff := cmp.Diff(string(want), got); diff != "" {
		result.Status, result.Message = "FAIL", "Output differs from "+golden
		result.Diff = diff
		return result
	}
	result.Status = "PASS"
	if *verbose {
		log.Printf("[%s] passed in %v", file, result.Duration)
	}
	return result
}

func expandGlobPatterns(patterns string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range strings.Fields(patterns) {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func printSummary(results []*FileTestResult) {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Status]++
		switch r.Status {
		case "PASS":
			if *verbose {
				fmt.Printf("%s[PASS]%s %s\n", cGreen, cNone, r.File)
			}
		case "UPDATED":
			fmt.Printf("%s[UPDATED]%s %s\n", cCyan, cNone, r.Message)
		case "SKIP":
			fmt.Printf("%s[SKIP]%s %s: %s\n", cYellow, cNone, r.File, r.Message)
		default:
			fmt.Printf("%s[%s]%s %s: %s\n", cRed, r.Status, cNone, r.File, r.Message)
			if r.Diff != "" {
				fmt.Println(r.Diff)
			}
		}
	}
	fmt.Printf("\n%d passed, %d failed, %d errors, %d skipped, %d updated\n",
		counts["PASS"], counts["FAIL"], counts["ERROR"], counts["SKIP"], counts["UPDATED"])
}

func writeJSONReport(results []*FileTestResult) TestSuiteResults {
	resultsMap := make(TestSuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}
	data, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		log.Printf("%s[WARN]%s Failed to marshal results: %v\n", cYellow, cNone, err)
		return resultsMap
	}
	if err := os.WriteFile(*outputJSON, data, 0644); err != nil {
		log.Printf("%s[WARN]%s Failed to write %s: %v\n", cYellow, cNone, *outputJSON, err)
	}
	return resultsMap
}

func hasFailures(results TestSuiteResults) bool {
	for _, r := range results {
		if r.Status == "FAIL" || r.Status == "ERROR" {
			return true
		}
	}
	return false
}
