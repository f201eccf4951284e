package remediate

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Registry maps custom action ids to their remediators. Each action id is
// bound to exactly one remediator; Register panics on duplicates to catch
// wiring mistakes at startup.
type Registry struct {
	remediators []Remediator
	index       map[string]Remediator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]Remediator)}
}

// Register adds r. Panics if its action id is already bound.
func (reg *Registry) Register(r Remediator) {
	if _, exists := reg.index[r.ActionID()]; exists {
		panic(fmt.Sprintf("duplicate remediation action ID: %q", r.ActionID()))
	}
	reg.remediators = append(reg.remediators, r)
	reg.index[r.ActionID()] = r
}

// Get returns the remediator bound to actionID.
func (reg *Registry) Get(actionID string) (Remediator, bool) {
	r, ok := reg.index[actionID]
	return r, ok
}

// All returns all remediators in registration order.
func (reg *Registry) All() []Remediator {
	return reg.remediators
}

// ActionKind pairs a custom action id with the remediation it runs.
type ActionKind struct {
	ActionID string
	Kind     string
}

// Build registers the production remediator for every action. Two actions
// sharing an id panic like Register does.
func Build(actions []ActionKind, cfg aws.Config, opts Options) (*Registry, error) {
	reg := NewRegistry()
	for _, a := range actions {
		r, err := NewFromConfig(a.Kind, a.ActionID, cfg, opts)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", a.ActionID, err)
		}
		reg.Register(r)
	}
	return reg, nil
}
