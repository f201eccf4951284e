package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/config"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/gate"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/remediate"
)

type stubRemediator struct {
	calls    int
	deadline time.Time
	got      remediate.Invocation
}

func (s *stubRemediator) ActionID() string { return "StopEC2" }
func (s *stubRemediator) Kind() string     { return models.RemediationQuarantineInstance }

func (s *stubRemediator) Remediate(ctx context.Context, inv remediate.Invocation) models.RemediationResult {
	s.calls++
	s.got = inv
	s.deadline, _ = ctx.Deadline()
	return models.RemediationResult{ActionID: "StopEC2", Success: true, Changed: true}
}

func customActionEvent(resource string) events.CloudWatchEvent {
	detail, _ := json.Marshal(map[string]any{
		"actionName": "Stop/Quarantine EC2",
		"findings": []map[string]any{{
			"Id":           "f-1",
			"AwsAccountId": "123456789012",
			"Resources": []map[string]string{{
				"Type": "AwsEc2Instance",
				"Id":   "arn:aws:ec2:us-east-1:123456789012:instance/i-99999999",
			}},
		}},
	})
	return events.CloudWatchEvent{
		ID:         "evt-1",
		Source:     "aws.securityhub",
		DetailType: "Security Hub Findings - Custom Action",
		AccountID:  "123456789012",
		Region:     "us-east-1",
		Resources:  []string{resource},
		Detail:     detail,
	}
}

func testEnv() config.LambdaEnv {
	return config.LambdaEnv{Action: models.RemediationQuarantineInstance, ActionTargetID: "StopEC2", Timeout: 5 * time.Second}
}

func TestHandle_DispatchesMatchingEvent(t *testing.T) {
	rem := &stubRemediator{}
	h := newHandler(rem, testEnv(), nil)

	start := time.Now()
	res, err := h.Handle(context.Background(), customActionEvent("arn:aws:securityhub:us-east-1:123456789012:action/custom/StopEC2"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if rem.calls != 1 || !res.Success {
		t.Fatalf("calls=%d res=%+v", rem.calls, res)
	}
	if len(rem.got.Findings) != 1 || rem.got.Findings[0].Resource.Type != models.ResourceTypeEC2Instance {
		t.Errorf("findings not forwarded: %+v", rem.got.Findings)
	}
	if rem.deadline.IsZero() || rem.deadline.Sub(start) > 5*time.Second+time.Second {
		t.Errorf("deadline = %v; want about 5s from start", rem.deadline)
	}

	rec, ok := h.gate.Get("f-1")
	if !ok || rec.Stage != gate.StageRemediated {
		t.Errorf("gate record = %+v", rec)
	}
}

func TestHandle_IgnoresOtherActionTargets(t *testing.T) {
	rem := &stubRemediator{}
	h := newHandler(rem, testEnv(), nil)

	res, err := h.Handle(context.Background(), customActionEvent("arn:aws:securityhub:us-east-1:123456789012:action/custom/UpdatePassPolicy"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if rem.calls != 0 || res.ActionID != "" {
		t.Errorf("event for another action must be ignored; calls=%d res=%+v", rem.calls, res)
	}
}

func TestHandle_MalformedDetailIsNotRetried(t *testing.T) {
	rem := &stubRemediator{}
	h := newHandler(rem, testEnv(), nil)

	evt := customActionEvent("arn:aws:securityhub:us-east-1:123456789012:action/custom/StopEC2")
	evt.Detail = json.RawMessage(`{"findings": 7}`)

	if _, err := h.Handle(context.Background(), evt); err != nil {
		t.Errorf("malformed events must not return an error (would trigger a retry): %v", err)
	}
	if rem.calls != 0 {
		t.Error("no remediation for a malformed event")
	}
}
