// Command validate checks the risk fusion rules against a file of agronomic
// scenarios. Each scenario lists source readings and the risk levels an
// agronomist expects; the command fuses the readings, compares the outcome,
// and verifies the structural guarantees every forecast must hold.
//
// Usage:
//
//	go run ./cmd/validate -scenarios cmd/validate/testdata/scenarios.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"reflect"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
)

// scenario is one agronomic case with its expected outcome.
type scenario struct {
	Name          string                               `json:"name"`
	Input         domain.FusionInput                   `json:"input"`
	Expect        map[domain.RiskCategory]domain.Level `json:"expect"`
	ExpectOverall *domain.Level                        `json:"expect_overall,omitempty"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("scenarios", "", "path to a JSON array of fusion scenarios")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*path, os.Stdout))
}

func run(path string, out io.Writer) int {
	// Fixed clock so forecasts are comparable across runs.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.June, 1, 6, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Fprintln(out, "=== Risk Fusion Validation ===")

	scenarios, err := loadScenarios(path)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load scenarios: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateExpectations(scenarios),
		validateInvariants(scenarios),
		validateDeterminism(scenarios),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-36s %s\n", p.name, status)
	}
	fmt.Fprintf(out, "\nScenarios: %d\n", len(scenarios))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func loadScenarios(path string) ([]scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []scenario
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// ── Phases ──

func validateExpectations(scenarios []scenario) *phase {
	p := &phase{name: "Phase 1: Expected Levels"}
	for _, s := range scenarios {
		f := domain.Fuse(s.Input)
		for cat, want := range s.Expect {
			if got := f.Categories[cat].Level; got != want {
				p.errorf("%s: %s = %s, want %s (drivers: %v)", s.Name, cat, got, want, f.Categories[cat].Drivers)
			}
		}
		if s.ExpectOverall != nil && f.Overall != *s.ExpectOverall {
			p.errorf("%s: overall = %s, want %s", s.Name, f.Overall, *s.ExpectOverall)
		}
	}
	return p
}

func validateInvariants(scenarios []scenario) *phase {
	p := &phase{name: "Phase 2: Forecast Invariants"}
	for _, s := range scenarios {
		f := domain.Fuse(s.Input)
		if len(f.Categories) != len(domain.AllCategories) {
			p.errorf("%s: %d categories, want %d", s.Name, len(f.Categories), len(domain.AllCategories))
		}
		if f.Overall != domain.MaxLevel(f.Categories) {
			p.errorf("%s: overall %s is not the highest category level", s.Name, f.Overall)
		}
		for cat, a := range f.Categories {
			if len(a.Drivers) == 0 {
				p.errorf("%s: %s has no drivers", s.Name, cat)
			}
			if a.Confidence < 60 || a.Confidence > 95 {
				p.errorf("%s: %s confidence %d outside [60,95]", s.Name, cat, a.Confidence)
			}
			if a.Level == domain.Critical {
				p.errorf("%s: %s fused to Critical", s.Name, cat)
			}
		}
		if want := s.Input.Sources(); !reflect.DeepEqual(f.Sources, want) {
			p.errorf("%s: sources %v, want %v", s.Name, f.Sources, want)
		}
	}
	return p
}

func validateDeterminism(scenarios []scenario) *phase {
	p := &phase{name: "Phase 3: Determinism"}
	for _, s := range scenarios {
		a, b := domain.Fuse(s.Input), domain.Fuse(s.Input)
		if !reflect.DeepEqual(a, b) {
			p.errorf("%s: two fusions of the same input differ", s.Name)
		}
	}
	return p
}
