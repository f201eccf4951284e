package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/output"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/provision"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/router"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func oneFinding(overrides ...func(*models.Finding)) models.Finding {
	f := models.Finding{
		ID:       "7cb4ef0c-portscan",
		Type:     models.TypeEC2Portscan,
		Source:   models.SourceGuardDuty,
		Region:   "us-east-1",
		Severity: 7.5,
		Resource: models.ResourceRef{Type: models.ResourceTypeInstance, ID: "i-99999999"},
	}
	for _, fn := range overrides {
		fn(&f)
	}
	return f
}

// ── findings ──────────────────────────────────────────────────────────────────

func TestRenderFindings_Empty(t *testing.T) {
	var buf bytes.Buffer
	output.RenderFindings(&buf, nil, output.TableOptions{})
	if strings.TrimSpace(buf.String()) != "No findings." {
		t.Errorf("got %q", buf.String())
	}
}

func TestRenderFindings_Columns(t *testing.T) {
	var buf bytes.Buffer
	output.RenderFindings(&buf, []models.Finding{oneFinding()}, output.TableOptions{})
	out := buf.String()

	for _, want := range []string{"FINDING ID", "SEVERITY", "HIGH", "Recon:EC2/Portscan", "Instance/i-99999999"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output\ngot:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("uncolored output must not contain ANSI codes\ngot:\n%q", out)
	}
}

func TestRenderFindings_Colored(t *testing.T) {
	var buf bytes.Buffer
	output.RenderFindings(&buf, []models.Finding{oneFinding()}, output.TableOptions{Colored: true})
	if !strings.Contains(buf.String(), "\033[0;31mHIGH\033[0m") {
		t.Errorf("expected red HIGH\ngot:\n%q", buf.String())
	}
}

func TestRenderFindings_NoResource(t *testing.T) {
	var buf bytes.Buffer
	output.RenderFindings(&buf, []models.Finding{oneFinding(func(f *models.Finding) {
		f.Resource = models.ResourceRef{}
	})}, output.TableOptions{})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.HasSuffix(lines[len(lines)-1], "-") {
		t.Errorf("expected '-' placeholder for missing resource\ngot:\n%s", buf.String())
	}
}

// ── ShortenMessage ──────────────────────────────────────────────────────────────

func TestShortenMessage(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is far too long", 10, "this is..."},
		{"abcdef", 1, "a..."},
	}
	for _, tc := range cases {
		if got := output.ShortenMessage(tc.in, tc.max); got != tc.want {
			t.Errorf("ShortenMessage(%q, %d) = %q; want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

// ── deliveries ────────────────────────────────────────────────────────────────

func TestRenderDeliveries(t *testing.T) {
	var buf bytes.Buffer
	output.RenderDeliveries(&buf, []router.Delivery{
		{Rule: "ec2-portscan", Target: "sns"},
		{Rule: "ec2-portscan", Target: "gate", Err: errors.New("boom")},
	})
	out := buf.String()
	if !strings.Contains(out, "ok") || !strings.Contains(out, "failed") || !strings.Contains(out, "boom") {
		t.Errorf("unexpected output\n%s", out)
	}

	buf.Reset()
	output.RenderDeliveries(&buf, nil)
	if !strings.Contains(buf.String(), "No matching route.") {
		t.Errorf("got %q", buf.String())
	}
}

// ── provisioning report ───────────────────────────────────────────────────────

func TestRenderReport(t *testing.T) {
	rep := &provision.Report{
		Operation: "setup",
		Region:    "us-east-1",
		AccountID: "123456789012",
		Steps: []provision.Step{
			{Name: "create topic", Resource: "guardduty-findings", Status: provision.StepOK},
			{Name: "action rule", Resource: "fr-action-StopEC2", Status: provision.StepFailed, Detail: "throttled"},
		},
		Targets: []models.ActionTarget{{ID: "StopEC2", Name: "Stop/Quarantine EC2", Handle: "arn:aws:securityhub:us-east-1:123456789012:action/custom/StopEC2"}},
	}

	var buf bytes.Buffer
	output.RenderReport(&buf, rep)
	out := buf.String()
	for _, want := range []string{"setup in us-east-1", "throttled", "action/custom/StopEC2", "2 step(s), 1 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q\ngot:\n%s", want, out)
		}
	}
}

// ── result ────────────────────────────────────────────────────────────────────

func TestRenderResult(t *testing.T) {
	var buf bytes.Buffer
	output.RenderResult(&buf, models.RemediationResult{ActionID: "StopEC2", Targets: []string{"i-1"}, Success: true})
	if !strings.Contains(buf.String(), "already converged") {
		t.Errorf("converged run must be reported\ngot:\n%s", buf.String())
	}

	buf.Reset()
	output.RenderResult(&buf, models.RemediationResult{ActionID: "StopEC2", Error: "UnauthorizedOperation"})
	if !strings.Contains(buf.String(), "FAILED") || !strings.Contains(buf.String(), "UnauthorizedOperation") {
		t.Errorf("failure must be reported\ngot:\n%s", buf.String())
	}
}

func TestRenderJSON_OmitsResponse(t *testing.T) {
	var buf bytes.Buffer
	res := models.RemediationResult{ActionID: "StopEC2", Success: true, Response: struct{ Secret string }{"x"}}
	if err := output.RenderJSON(&buf, res); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := got["Response"]; ok {
		t.Error("raw provider response must not be serialised")
	}
	if got["action_id"] != "StopEC2" {
		t.Errorf("action_id = %v", got["action_id"])
	}
}
