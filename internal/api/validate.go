package api

import (
	"fmt"
	"strings"

	"linebalance/internal/model"
)

// maxTimeBudgetMs bounds per-request budgets so one request cannot pin a core.
const maxTimeBudgetMs = 120000

func validateBudget(timeBudgetMs, nodeLimit int) error {
	if timeBudgetMs < 0 {
		return fmt.Errorf("timeBudgetMs must be >= 0")
	}
	if timeBudgetMs > maxTimeBudgetMs {
		return fmt.Errorf("timeBudgetMs must be <= %d", maxTimeBudgetMs)
	}
	if nodeLimit < 0 {
		return fmt.Errorf("nodeLimit must be >= 0")
	}
	return nil
}

func validateSolveRequest(req *model.SolveRequest) error {
	return validateBudget(req.TimeBudgetMs, req.NodeLimit)
}

func validateLineSolveRequest(req *model.LineSolveRequest, spec model.LineSpec) error {
	if err := validateBudget(req.TimeBudgetMs, req.NodeLimit); err != nil {
		return err
	}
	known := make(map[string]bool, len(spec.Workers))
	for _, w := range spec.Workers {
		known[w.ID] = true
	}
	for _, id := range append(append([]string(nil), req.Preferred...), req.Exclude...) {
		if !known[id] {
			return fmt.Errorf("unknown worker: %s", id)
		}
	}
	return nil
}

// validateLineInput checks what the solver does not: a saved line must be
// named. Instance structure is checked by solving.
func validateLineInput(in *model.LineInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(in.Name) > 200 {
		return fmt.Errorf("name must be at most 200 characters")
	}
	return nil
}

func validateSolverConfig(cfg model.SolverConfig) error {
	if err := validateBudget(cfg.TimeBudgetMs, cfg.NodeLimit); err != nil {
		return err
	}
	if cfg.MaxDenominator < 0 {
		return fmt.Errorf("maxDenominator must be >= 0")
	}
	return nil
}
