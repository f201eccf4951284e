package router

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/config"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
)

// recordingTarget stores every finding it receives.
type recordingTarget struct {
	name string
	err  error

	mu       sync.Mutex
	received []models.Finding
}

func (r *recordingTarget) Name() string { return r.name }

func (r *recordingTarget) Deliver(_ context.Context, f models.Finding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, f)
	return r.err
}

func guardDutyFinding(findingType string) models.Finding {
	return models.Finding{ID: "f-1", Source: models.SourceGuardDuty, Type: findingType}
}

func TestRoute_MatchDeliversToEveryTarget(t *testing.T) {
	notifier := &recordingTarget{name: "sns"}
	gate := &recordingTarget{name: "gate"}
	r := New(RulesFromConfig(config.Default().Routes, notifier, gate), nil)

	deliveries := r.Route(context.Background(), guardDutyFinding(models.TypePasswordPolicyChange))

	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries; got %d", len(deliveries))
	}
	if len(notifier.received) != 1 {
		t.Errorf("notifier must receive exactly one copy; got %d", len(notifier.received))
	}
	if len(gate.received) != 1 {
		t.Errorf("gate must receive exactly one copy; got %d", len(gate.received))
	}
}

func TestRoute_NoMatchNoDelivery(t *testing.T) {
	notifier := &recordingTarget{name: "sns"}
	r := New(RulesFromConfig(config.Default().Routes, notifier), nil)

	cases := []models.Finding{
		guardDutyFinding("UnauthorizedAccess:EC2/SSHBruteForce"),
		{Source: "aws.inspector", Type: models.TypeEC2Portscan},
		{Source: models.SourceGuardDuty, Type: "recon:ec2/portscan"},
		{},
	}
	for _, f := range cases {
		if d := r.Route(context.Background(), f); len(d) != 0 {
			t.Errorf("finding %+v must not be delivered; got %v", f, d)
		}
	}
	if len(notifier.received) != 0 {
		t.Errorf("notifier received %d findings; want 0", len(notifier.received))
	}
}

func TestRoute_FailingTargetDoesNotBlockOthers(t *testing.T) {
	broken := &recordingTarget{name: "broken", err: errors.New("publish failed")}
	healthy := &recordingTarget{name: "healthy"}
	r := New([]Rule{{
		Name:    "portscan",
		Source:  models.SourceGuardDuty,
		Type:    models.TypeEC2Portscan,
		Targets: []Target{broken, healthy},
	}}, nil)

	deliveries := r.Route(context.Background(), guardDutyFinding(models.TypeEC2Portscan))

	if len(healthy.received) != 1 {
		t.Error("healthy target must still receive the finding")
	}
	if len(deliveries) != 2 || deliveries[0].Err == nil || deliveries[1].Err != nil {
		t.Errorf("unexpected delivery report: %+v", deliveries)
	}
}

func TestRoute_MultipleMatchingRules(t *testing.T) {
	a := &recordingTarget{name: "a"}
	b := &recordingTarget{name: "b"}
	r := New([]Rule{
		{Name: "one", Source: models.SourceGuardDuty, Type: models.TypeEC2Portscan, Targets: []Target{a}},
		{Name: "two", Source: models.SourceGuardDuty, Type: models.TypeEC2Portscan, Targets: []Target{b}},
	}, nil)

	if got := len(r.Match(guardDutyFinding(models.TypeEC2Portscan))); got != 2 {
		t.Fatalf("expected 2 matching rules; got %d", got)
	}
	r.Route(context.Background(), guardDutyFinding(models.TypeEC2Portscan))
	if len(a.received) != 1 || len(b.received) != 1 {
		t.Error("each matching rule must deliver to its own targets")
	}
}

func TestRoute_RedeliveryIsNotDeduplicated(t *testing.T) {
	target := &recordingTarget{name: "sns"}
	r := New(RulesFromConfig(config.Default().Routes, target), nil)
	f := guardDutyFinding(models.TypeEC2Portscan)

	r.Route(context.Background(), f)
	r.Route(context.Background(), f)

	if len(target.received) != 2 {
		t.Errorf("expected both deliveries to pass through; got %d", len(target.received))
	}
}
