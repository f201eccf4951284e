package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestPartitionForRegion(t *testing.T) {
	cases := map[string]string{
		"us-east-1":     "aws",
		"eu-west-1":     "aws",
		"cn-north-1":    "aws-cn",
		"us-gov-west-1": "aws-us-gov",
	}
	for region, want := range cases {
		if got := PartitionForRegion(region); got != want {
			t.Errorf("PartitionForRegion(%q) = %q; want %q", region, got, want)
		}
	}
}

func TestBuildARN(t *testing.T) {
	got := BuildARN("securityhub", "cn-north-1", "111122223333", "action/custom/StopEC2")
	want := "arn:aws-cn:securityhub:cn-north-1:111122223333:action/custom/StopEC2"
	if got != want {
		t.Errorf("BuildARN = %q; want %q", got, want)
	}
}

func TestInstanceIDFromARN(t *testing.T) {
	cases := []struct {
		in     string
		wantID string
		wantOK bool
	}{
		{"arn:aws:ec2:us-east-1:111122223333:instance/i-0abc123", "i-0abc123", true},
		{"i-0abc123", "i-0abc123", true},
		{"arn:aws:ec2:us-east-1:111122223333:volume/vol-1", "", false},
		{"arn:aws:iam::111122223333:user/alice", "", false},
		{"AWS::::Account:111122223333", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		id, ok := InstanceIDFromARN(c.in)
		if id != c.wantID || ok != c.wantOK {
			t.Errorf("InstanceIDFromARN(%q) = (%q, %v); want (%q, %v)", c.in, id, ok, c.wantID, c.wantOK)
		}
	}
}

func TestSoftFailure(t *testing.T) {
	if Soft("noop", nil) != nil {
		t.Fatal("Soft(nil) must be nil")
	}
	base := errors.New("throttled")
	err := fmt.Errorf("setup: %w", Soft("create topic", base))
	if !IsSoftFailure(err) {
		t.Error("expected soft failure through wrapping")
	}
	if !errors.Is(err, base) {
		t.Error("soft failure must unwrap to the cause")
	}
	if IsSoftFailure(base) {
		t.Error("plain error must not be soft")
	}
}
