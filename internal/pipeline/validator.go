package pipeline

import (
	"fmt"

	"github.com/jonathan/htmlint/internal/checker"
	"github.com/jonathan/htmlint/internal/config"
)

// NewValidator returns the checker client selected by cfg
func NewValidator(cfg *config.Resolved) (checker.Validator, error) {
	switch cfg.Validator {
	case config.BackendHTTP, "":
		opts := checker.DefaultHTTPOptions()
		if cfg.ValidatorURL != "" {
			opts.ServiceURL = cfg.ValidatorURL
		}
		return checker.NewHTTPClient(opts), nil
	case config.BackendCommand:
		return checker.NewCommandClient(cfg.ValidatorCmd), nil
	default:
		return nil, fmt.Errorf("unknown validator backend %q", cfg.Validator)
	}
}
