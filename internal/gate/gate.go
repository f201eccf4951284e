// Package gate models the human approval step between notification and
// remediation as an explicit state machine:
//
//	Detected -> Notified -> Approved -> Remediated | Failed
//
// Remediation is never automatic. A finding can only be approved after it
// was notified, and a completed finding can be approved again because
// remediators are convergent and operators may re-invoke an action.
// Every transition is kept in the finding's audit trail and logged.
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/router"
)

// Stage is a finding's position in the remediation lifecycle.
type Stage string

const (
	StageDetected   Stage = "DETECTED"
	StageNotified   Stage = "NOTIFIED"
	StageApproved   Stage = "APPROVED"
	StageRemediated Stage = "REMEDIATED"
	StageFailed     Stage = "FAILED"
)

var (
	ErrUnknownFinding    = errors.New("unknown finding")
	ErrInvalidTransition = errors.New("invalid stage transition")
)

// allowed lists the legal transitions. Approved -> Approved covers two
// operators triggering the same action concurrently.
var allowed = map[Stage][]Stage{
	StageDetected:   {StageNotified},
	StageNotified:   {StageApproved},
	StageApproved:   {StageApproved, StageRemediated, StageFailed},
	StageRemediated: {StageApproved},
	StageFailed:     {StageApproved},
}

func canMove(from, to Stage) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition is one audit trail entry.
type Transition struct {
	From  Stage     `json:"from,omitempty"`
	To    Stage     `json:"to"`
	Actor string    `json:"actor"`
	At    time.Time `json:"at"`
	Note  string    `json:"note,omitempty"`
}

// Record is the gate's view of one finding.
type Record struct {
	Finding  models.Finding `json:"finding"`
	Stage    Stage          `json:"stage"`
	ActionID string         `json:"action_id,omitempty"`
	Trail    []Transition   `json:"trail"`
}

// Gate tracks findings by ID. It is safe for concurrent use.
type Gate struct {
	mu      sync.Mutex
	records map[string]*Record
	now     func() time.Time
	log     *zap.Logger
}

// New returns an empty Gate.
func New(log *zap.Logger) *Gate {
	return &Gate{
		records: make(map[string]*Record),
		now:     func() time.Time { return time.Now().UTC() },
		log:     logging.OrNop(log).Named("gate"),
	}
}

// Detect records f in the Detected stage. Redelivery of a known finding is a
// no-op: the existing stage is kept.
func (g *Gate) Detect(f models.Finding, actor string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.records[f.ID]; ok {
		return
	}
	rec := &Record{Finding: f}
	g.records[f.ID] = rec
	g.append(rec, StageDetected, actor, "")
}

// Notify moves a Detected finding to Notified. Notifying an already notified
// (or later) finding is a no-op so redelivered notifications are harmless.
func (g *Gate) Notify(id, actor string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[id]
	if !ok {
		return fmt.Errorf("notify %s: %w", id, ErrUnknownFinding)
	}
	if rec.Stage != StageDetected {
		return nil
	}
	g.append(rec, StageNotified, actor, "")
	return nil
}

// Approve records the operator decision to run actionID against a notified
// finding.
func (g *Gate) Approve(id, actionID, actor string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[id]
	if !ok {
		return fmt.Errorf("approve %s: %w", id, ErrUnknownFinding)
	}
	if !canMove(rec.Stage, StageApproved) {
		return fmt.Errorf("approve %s from %s: %w", id, rec.Stage, ErrInvalidTransition)
	}
	rec.ActionID = actionID
	g.append(rec, StageApproved, actor, "action "+actionID)
	return nil
}

// Complete closes an approved finding with the remediation outcome.
func (g *Gate) Complete(id string, result models.RemediationResult) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[id]
	if !ok {
		return fmt.Errorf("complete %s: %w", id, ErrUnknownFinding)
	}
	to := StageRemediated
	note := "converged"
	if result.Changed {
		note = "changed"
	}
	if !result.Success {
		to = StageFailed
		note = result.Error
	}
	if !canMove(rec.Stage, to) {
		return fmt.Errorf("complete %s from %s: %w", id, rec.Stage, ErrInvalidTransition)
	}
	g.append(rec, to, result.ActionID, note)
	return nil
}

// Get returns a copy of the record for id.
func (g *Gate) Get(id string) (Record, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[id]
	if !ok {
		return Record{}, false
	}
	cp := *rec
	cp.Trail = append([]Transition(nil), rec.Trail...)
	return cp, true
}

// append must be called with g.mu held.
func (g *Gate) append(rec *Record, to Stage, actor, note string) {
	tr := Transition{From: rec.Stage, To: to, Actor: actor, At: g.now(), Note: note}
	rec.Trail = append(rec.Trail, tr)
	rec.Stage = to
	g.log.Info("finding stage changed",
		zap.String("finding_id", rec.Finding.ID),
		zap.String("finding_type", rec.Finding.Type),
		zap.String("from", string(tr.From)),
		zap.String("to", string(tr.To)),
		zap.String("actor", actor),
		zap.String("note", note),
	)
}

// notifyingTarget records detection, delegates to the notifier, and marks the
// finding Notified only when the notifier accepted it.
type notifyingTarget struct {
	gate *Gate
	next router.Target
}

// Notifying wraps a notification target so the gate follows the routing
// path: a routed finding becomes Detected, then Notified once delivered.
func (g *Gate) Notifying(next router.Target) router.Target {
	return &notifyingTarget{gate: g, next: next}
}

func (t *notifyingTarget) Name() string { return t.next.Name() }

func (t *notifyingTarget) Deliver(ctx context.Context, f models.Finding) error {
	t.gate.Detect(f, f.Source)
	if err := t.next.Deliver(ctx, f); err != nil {
		return err
	}
	return t.gate.Notify(f.ID, t.next.Name())
}
