package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
	awsguardduty "github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/guardduty"
)

// ── fakes ─────────────────────────────────────────────────────────────────────

type fakeProvider struct {
	prof       *common.ProfileConfig
	profErr    error
	regionsErr error

	gotProfile, gotRegion string
}

func (f *fakeProvider) LoadProfile(_ context.Context, profile, region string) (*common.ProfileConfig, error) {
	f.gotProfile, f.gotRegion = profile, region
	return f.prof, f.profErr
}

func (f *fakeProvider) GetActiveRegions(context.Context, *common.ProfileConfig) ([]string, error) {
	if f.regionsErr != nil {
		return nil, f.regionsErr
	}
	return []string{"us-east-1", "eu-west-1"}, nil
}

func healthyProvider() *fakeProvider {
	return &fakeProvider{prof: &common.ProfileConfig{AccountID: "123456789012", Region: "us-east-1"}}
}

func detectorReturning(st awsguardduty.DetectorStatus, err error) detectorStatusFunc {
	return func(context.Context, *common.ProfileConfig) (awsguardduty.DetectorStatus, error) {
		return st, err
	}
}

var enabledDetector = detectorReturning(awsguardduty.DetectorStatus{DetectorID: "d-1", Enabled: true}, nil)

// doctorIn runs doctor with the config file at a temp path. An empty body
// leaves the file absent.
func doctorIn(t *testing.T, p common.AWSClientProvider, det detectorStatusFunc, format, body string) (string, DoctorResult) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "remediator.yaml")
	if body != "" {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	var out bytes.Buffer
	res, err := runDoctor(context.Background(), p, det, &out, format, &rootOptions{configPath: path})
	if err != nil {
		t.Fatalf("runDoctor: %v", err)
	}
	return out.String(), res
}

func findCheck(t *testing.T, r DoctorResult, section, name string) DoctorCheck {
	t.Helper()
	for _, c := range r.Checks {
		if c.Section == section && c.Name == name {
			return c
		}
	}
	t.Fatalf("no %s/%s check in %+v", section, name, r.Checks)
	return DoctorCheck{}
}

// ── table output ──────────────────────────────────────────────────────────────

func TestDoctor_Healthy(t *testing.T) {
	out, res := doctorIn(t, healthyProvider(), enabledDetector, "table", "")

	if !res.Healthy || len(res.Failed()) != 0 {
		t.Fatalf("expected healthy; failed = %+v", res.Failed())
	}
	for _, want := range []string{
		"not found, using defaults",
		"account 123456789012",
		"2 enabled",
		"d-1",
		"ready",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q;\ngot:\n%s", want, out)
		}
	}
}

func TestDoctor_NoCredentialsSkipsGuardDuty(t *testing.T) {
	p := &fakeProvider{profErr: errors.New("no credentials")}
	called := false
	det := func(context.Context, *common.ProfileConfig) (awsguardduty.DetectorStatus, error) {
		called = true
		return awsguardduty.DetectorStatus{}, nil
	}

	out, res := doctorIn(t, p, det, "table", "")
	if res.Healthy {
		t.Error("expected unhealthy")
	}
	if called {
		t.Error("detector must not be queried without credentials")
	}
	if c := findCheck(t, res, sectionGuardDuty, "detector"); c.OK || c.Detail != "skipped" {
		t.Errorf("detector check = %+v", c)
	}
	if !strings.Contains(out, "FAIL (no credentials)") {
		t.Errorf("output:\n%s", out)
	}
}

func TestDoctor_DetectorStates(t *testing.T) {
	tests := []struct {
		name   string
		det    detectorStatusFunc
		detail string
	}{
		{"missing", detectorReturning(awsguardduty.DetectorStatus{}, nil), "no detector in us-east-1"},
		{"disabled", detectorReturning(awsguardduty.DetectorStatus{DetectorID: "d-2"}, nil), "d-2 is disabled"},
		{"error", detectorReturning(awsguardduty.DetectorStatus{}, errors.New("access denied")), "access denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, res := doctorIn(t, healthyProvider(), tt.det, "table", "")
			c := findCheck(t, res, sectionGuardDuty, "detector")
			if c.OK || c.Detail != tt.detail {
				t.Errorf("detector check = %+v; want failed with %q", c, tt.detail)
			}
			if res.Healthy {
				t.Error("expected unhealthy")
			}
		})
	}
}

func TestDoctor_RegionsFailure(t *testing.T) {
	p := healthyProvider()
	p.regionsErr = errors.New("UnauthorizedOperation")

	_, res := doctorIn(t, p, enabledDetector, "table", "")
	if c := findCheck(t, res, sectionAWS, "regions api"); c.OK {
		t.Errorf("regions check = %+v", c)
	}
	if res.Healthy {
		t.Error("expected unhealthy")
	}
}

func TestDoctor_UsesConfigProfileAndRegion(t *testing.T) {
	p := healthyProvider()
	_, res := doctorIn(t, p, enabledDetector, "table", "version: 1\nregion: eu-west-1\nprofile: sec\n")

	if p.gotProfile != "sec" || p.gotRegion != "eu-west-1" {
		t.Errorf("LoadProfile got %q/%q", p.gotProfile, p.gotRegion)
	}
	if c := findCheck(t, res, sectionConfig, "valid"); !c.OK {
		t.Errorf("config check = %+v", c)
	}
}

func TestDoctor_InvalidConfig(t *testing.T) {
	body := "version: 1\nnotification:\n  topic_name: t\n  email: not-an-email\n"
	out, res := doctorIn(t, healthyProvider(), enabledDetector, "table", body)

	if res.Healthy {
		t.Error("invalid config must make the result unhealthy")
	}
	if c := findCheck(t, res, sectionConfig, "valid"); c.OK {
		t.Errorf("config check = %+v", c)
	}
	if !strings.Contains(out, "check(s) failed") {
		t.Errorf("output:\n%s", out)
	}
}

// ── JSON output ───────────────────────────────────────────────────────────────

func TestDoctor_JSON(t *testing.T) {
	out, _ := doctorIn(t, healthyProvider(), enabledDetector, "json", "")

	var parsed DoctorResult
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if !parsed.Healthy || parsed.AccountID != "123456789012" || len(parsed.Checks) != 4 {
		t.Errorf("parsed = %+v", parsed)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected one JSON line; got:\n%s", out)
	}
}
