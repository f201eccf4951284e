// Package router matches findings against declarative exact-match rules and
// delivers every match to the rule's targets.
package router

import (
	"context"

	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
)

// Delivery records the outcome of handing one finding to one target.
type Delivery struct {
	Rule   string `json:"rule"`
	Target string `json:"target"`
	Err    error  `json:"-"`
}

// Router holds the rule set. Rules are evaluated in registration order but
// callers must not rely on delivery order across rules.
type Router struct {
	rules []Rule
	log   *zap.Logger
}

// New returns a Router over rules.
func New(rules []Rule, log *zap.Logger) *Router {
	return &Router{rules: rules, log: logging.OrNop(log).Named("router")}
}

// Rules returns the configured rules.
func (r *Router) Rules() []Rule {
	return r.rules
}

// Match returns the rules f satisfies.
func (r *Router) Match(f models.Finding) []Rule {
	var matched []Rule
	for _, rule := range r.rules {
		if rule.Matches(f) {
			matched = append(matched, rule)
		}
	}
	return matched
}

// Route delivers f to every target of every matching rule and returns one
// Delivery per attempt. A failing target is logged and recorded; it never
// prevents delivery to the remaining targets. A finding matching no rule
// yields no deliveries.
func (r *Router) Route(ctx context.Context, f models.Finding) []Delivery {
	matched := r.Match(f)
	if len(matched) == 0 {
		r.log.Debug("finding matched no rule",
			zap.String("finding_id", f.ID),
			zap.String("source", f.Source),
			zap.String("type", f.Type),
		)
		return nil
	}

	var deliveries []Delivery
	for _, rule := range matched {
		for _, t := range rule.Targets {
			err := t.Deliver(ctx, f)
			if err != nil {
				r.log.Error("delivery failed",
					zap.String("rule", rule.Name),
					zap.String("target", t.Name()),
					zap.String("finding_id", f.ID),
					zap.Error(err),
				)
			}
			deliveries = append(deliveries, Delivery{Rule: rule.Name, Target: t.Name(), Err: err})
		}
	}
	return deliveries
}
