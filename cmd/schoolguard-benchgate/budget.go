package main

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// budget bounds one unit of one benchmark. MaxRegression is the allowed
// growth of the candidate median over the baseline median (0.25 = +25%);
// Ceiling, when positive, caps the candidate median outright.
type budget struct {
	Benchmark     string  `json:"benchmark"`
	Unit          string  `json:"unit"`
	MaxRegression float64 `json:"maxRegression"`
	Ceiling       float64 `json:"ceiling,omitempty"`
}

func (b budget) key() metricKey {
	return metricKey{Benchmark: b.Benchmark, Unit: b.Unit}
}

// defaultBudgets covers the request-path benchmarks of the root package.
// Bearer verification sits on every protected request, so it gets the
// tightest time budget; login is dominated by argon2 and varies more.
// The enabled counter path must stay allocation free.
func defaultBudgets() []budget {
	return []budget{
		{Benchmark: "BenchmarkAuthenticateJWTOnly", Unit: "ns/op", MaxRegression: 0.20},
		{Benchmark: "BenchmarkAuthenticateJWTOnly", Unit: "allocs/op", MaxRegression: 0.10},
		{Benchmark: "BenchmarkAuthenticateWithRevocation", Unit: "ns/op", MaxRegression: 0.30},
		{Benchmark: "BenchmarkAuthenticateWithRevocation", Unit: "allocs/op", MaxRegression: 0.10},
		{Benchmark: "BenchmarkLogin", Unit: "ns/op", MaxRegression: 0.50},
		{Benchmark: "BenchmarkMetricsInc", Unit: "allocs/op", Ceiling: 0.5},
		{Benchmark: "BenchmarkMetricsIncParallel", Unit: "ns/op", MaxRegression: 0.30},
		{Benchmark: "BenchmarkMetricsIncParallel", Unit: "allocs/op", Ceiling: 0.5},
		{Benchmark: "BenchmarkMetricsObserveLatencyParallel", Unit: "ns/op", MaxRegression: 0.30},
	}
}

// loadBudgets reads a YAML budget list:
//
//	budgets:
//	  - benchmark: BenchmarkAuthenticateJWTOnly
//	    unit: ns/op
//	    max_regression: 0.2
//	    ceiling: 8000
func loadBudgets(path string) ([]budget, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load budgets %s: %w", path, err)
	}
	rows := k.Slices("budgets")
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no budgets defined", path)
	}

	out := make([]budget, 0, len(rows))
	for i, row := range rows {
		b := budget{
			Benchmark:     row.String("benchmark"),
			Unit:          row.String("unit"),
			MaxRegression: row.Float64("max_regression"),
			Ceiling:       row.Float64("ceiling"),
		}
		if err := b.validate(); err != nil {
			return nil, fmt.Errorf("%s: budgets[%d]: %w", path, i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (b budget) validate() error {
	switch {
	case b.Benchmark == "" || b.Unit == "":
		return fmt.Errorf("benchmark and unit are required")
	case b.MaxRegression < 0 || b.Ceiling < 0:
		return fmt.Errorf("%s %s: limits must be >= 0", b.Benchmark, b.Unit)
	case b.MaxRegression == 0 && b.Ceiling == 0:
		return fmt.Errorf("%s %s: set max_regression or ceiling", b.Benchmark, b.Unit)
	}
	return nil
}
