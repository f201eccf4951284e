package router

import (
	"context"
	"encoding/json"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
)

// Target receives findings matched by a rule. The SNS notifier and the
// human gate are the production targets.
type Target interface {
	// Name identifies the target in logs and delivery reports.
	Name() string

	// Deliver hands the finding to the target. Delivery is at-least-once:
	// targets must tolerate seeing the same finding more than once.
	Deliver(ctx context.Context, f models.Finding) error
}

// Rule is one declarative, exact-match route. There are no wildcards: a
// finding matches only when both Source and Type are equal.
type Rule struct {
	Name    string
	Source  string
	Type    string
	Targets []Target
}

// Matches reports whether f satisfies the rule.
func (r Rule) Matches(f models.Finding) bool {
	return f.Source == r.Source && f.Type == r.Type
}

// eventPattern is the EventBridge pattern shape for a finding route.
type eventPattern struct {
	Source []string            `json:"source"`
	Detail map[string][]string `json:"detail"`
}

// Pattern renders the rule as an EventBridge event pattern. The deployed
// rule and the in-process router therefore share one definition.
func (r Rule) Pattern() (string, error) {
	b, err := json.Marshal(eventPattern{
		Source: []string{r.Source},
		Detail: map[string][]string{"type": {r.Type}},
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// customActionPattern is the EventBridge pattern shape for a custom action
// trigger scoped to one action target handle.
type customActionPattern struct {
	Source     []string `json:"source"`
	DetailType []string `json:"detail-type"`
	Resources  []string `json:"resources"`
}

// CustomActionPattern renders the pattern matching "custom action invoked"
// events for exactly one action target.
func CustomActionPattern(handle string) (string, error) {
	b, err := json.Marshal(customActionPattern{
		Source:     []string{models.SourceSecurityHub},
		DetailType: []string{models.CustomActionDetailType},
		Resources:  []string{handle},
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
