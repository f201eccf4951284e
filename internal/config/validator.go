package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New()

// Validate checks cfg for semantic correctness and returns every problem
// found. An empty slice means the config is valid.
//
// Checks performed:
//   - version must be 1
//   - field shapes (struct tags: email, alphanumeric ids, known remediations)
//   - route names and action ids must be unique
//   - at most one action per remediation kind
//
// A route without a bound action is valid: such findings are notify-only.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{fmt.Errorf("config is nil")}
	}

	var errs []error

	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("version: unsupported value %d; must be 1", cfg.Version))
	}

	if err := structValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	routeNames := make(map[string]struct{}, len(cfg.Routes))
	for _, r := range cfg.Routes {
		if _, dup := routeNames[r.Name]; dup {
			errs = append(errs, fmt.Errorf("routes.%s: duplicate route name", r.Name))
		}
		routeNames[r.Name] = struct{}{}
	}

	actionIDs := make(map[string]struct{}, len(cfg.Actions))
	kinds := make(map[string]string, len(cfg.Actions))
	for _, a := range cfg.Actions {
		if _, dup := actionIDs[a.ID]; dup {
			errs = append(errs, fmt.Errorf("actions.%s: duplicate action id", a.ID))
		}
		actionIDs[a.ID] = struct{}{}

		if prev, dup := kinds[a.Remediation]; dup && a.Remediation != "" {
			errs = append(errs, fmt.Errorf("actions.%s: remediation %q already bound to action %s", a.ID, a.Remediation, prev))
		}
		kinds[a.Remediation] = a.ID
	}

	return errs
}
