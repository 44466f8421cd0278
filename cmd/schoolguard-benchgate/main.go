// Command schoolguard-benchgate gates the request-path benchmarks of the
// root package. It reads `go test -bench` output for a candidate build and,
// optionally, a baseline, and fails when a budgeted benchmark regresses
// past its allowed ratio or exceeds its absolute ceiling.
//
//	go test -run '^$' -bench 'Authenticate|Login|Metrics' -count 6 . > new.txt
//	schoolguard-benchgate -baseline old.txt -candidate new.txt
//
// Without -baseline only ceilings are enforced.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Verdicts reported per budget.
const (
	verdictOK        = "ok"
	verdictRegressed = "regressed"
	verdictOverLimit = "over-ceiling"
	verdictMissing   = "missing"
	verdictSkipped   = "no-baseline"
)

type metricKey struct {
	Benchmark string
	Unit      string
}

// samples holds every value seen per benchmark and unit across -count runs.
type samples map[metricKey][]float64

type result struct {
	budget
	Baseline  float64 `json:"baseline,omitempty"`
	Candidate float64 `json:"candidate"`
	Delta     float64 `json:"delta,omitempty"`
	Verdict   string  `json:"verdict"`
}

func (r result) failed() bool {
	return r.Verdict == verdictRegressed || r.Verdict == verdictOverLimit || r.Verdict == verdictMissing
}

func main() {
	var (
		baselinePath  = flag.String("baseline", "", "baseline benchmark output (optional)")
		candidatePath = flag.String("candidate", "", "candidate benchmark output")
		budgetsPath   = flag.String("budgets", "", "YAML budget file; built-in budgets when empty")
		asJSON        = flag.Bool("json", false, "print results as JSON")
	)
	flag.Parse()

	if *candidatePath == "" {
		fmt.Fprintln(os.Stderr, "-candidate is required")
		os.Exit(2)
	}

	budgets := defaultBudgets()
	if *budgetsPath != "" {
		loaded, err := loadBudgets(*budgetsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		budgets = loaded
	}

	candidate, err := parseFile(*candidatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse candidate: %v\n", err)
		os.Exit(1)
	}
	var baseline samples
	if *baselinePath != "" {
		if baseline, err = parseFile(*baselinePath); err != nil {
			fmt.Fprintf(os.Stderr, "parse baseline: %v\n", err)
			os.Exit(1)
		}
	}

	results := evaluate(budgets, baseline, candidate)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	} else {
		printTable(os.Stdout, results)
	}

	failed := 0
	for _, r := range results {
		if r.failed() {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d budgets failed\n", failed, len(results))
		os.Exit(1)
	}
}

// evaluate checks every budget against the candidate medians. A nil
// baseline skips the regression ratio.
func evaluate(budgets []budget, baseline, candidate samples) []result {
	results := make([]result, 0, len(budgets))
	for _, b := range budgets {
		r := result{budget: b, Verdict: verdictOK}
		values := candidate[b.key()]
		if len(values) == 0 {
			r.Verdict = verdictMissing
			results = append(results, r)
			continue
		}
		r.Candidate = median(values)

		if b.Ceiling > 0 && r.Candidate > b.Ceiling {
			r.Verdict = verdictOverLimit
		}
		if b.MaxRegression > 0 {
			base := baseline[b.key()]
			switch {
			case baseline == nil:
				if r.Verdict == verdictOK {
					r.Verdict = verdictSkipped
				}
			case len(base) == 0:
				r.Verdict = verdictMissing
			default:
				r.Baseline = median(base)
				if r.Baseline > 0 {
					r.Delta = (r.Candidate - r.Baseline) / r.Baseline
				} else if r.Candidate > 0 {
					r.Delta = 1
				}
				if r.Delta > b.MaxRegression && r.Verdict == verdictOK {
					r.Verdict = verdictRegressed
				}
			}
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Benchmark != results[j].Benchmark {
			return results[i].Benchmark < results[j].Benchmark
		}
		return results[i].Unit < results[j].Unit
	})
	return results
}

func printTable(w io.Writer, results []result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BENCHMARK\tUNIT\tBASELINE\tCANDIDATE\tDELTA\tLIMIT\tVERDICT")
	for _, r := range results {
		base, delta := "-", "-"
		if r.Baseline > 0 {
			base = strconv.FormatFloat(r.Baseline, 'f', 1, 64)
			delta = fmt.Sprintf("%+.1f%%", r.Delta*100)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%s\t%s\t%s\n",
			r.Benchmark, r.Unit, base, r.Candidate, delta, limitLabel(r.budget), r.Verdict)
	}
	tw.Flush()
}

func limitLabel(b budget) string {
	var parts []string
	if b.MaxRegression > 0 {
		parts = append(parts, fmt.Sprintf("+%.0f%%", b.MaxRegression*100))
	}
	if b.Ceiling > 0 {
		parts = append(parts, "<="+strconv.FormatFloat(b.Ceiling, 'f', -1, 64))
	}
	return strings.Join(parts, " ")
}

func parseFile(path string) (samples, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseBench(f)
}

// parseBench collects "value unit" pairs from benchmark result lines.
func parseBench(r io.Reader) (samples, error) {
	out := samples{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || !strings.HasPrefix(fields[0], "Benchmark") {
			continue
		}
		// fields[1] is the iteration count.
		if _, err := strconv.Atoi(fields[1]); err != nil {
			continue
		}
		name := trimProcs(fields[0])
		for i := 2; i+1 < len(fields); i += 2 {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				continue
			}
			k := metricKey{Benchmark: name, Unit: fields[i+1]}
			out[k] = append(out[k], v)
		}
	}
	return out, scanner.Err()
}

// trimProcs drops the -GOMAXPROCS suffix the testing package appends.
func trimProcs(name string) string {
	if i := strings.LastIndexByte(name, '-'); i > 0 {
		if _, err := strconv.Atoi(name[i+1:]); err == nil {
			return name[:i]
		}
	}
	return name
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
