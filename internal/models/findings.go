package models

import "time"

// Severity represents the impact level of a finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// Finding sources and types recognised by the default configuration.
const (
	SourceGuardDuty   = "aws.guardduty"
	SourceSecurityHub = "aws.securityhub"

	TypePasswordPolicyChange = "Stealth:IAMUser/PasswordPolicyChange"
	TypeEC2Portscan          = "Recon:EC2/Portscan"
)

// Resource types a finding may point at. GuardDuty events use the short
// form; Security Hub (ASFF) findings use the Aws-prefixed form.
const (
	ResourceTypeInstance    = "Instance"
	ResourceTypeAccessKey   = "AccessKey"
	ResourceTypeEC2Instance = "AwsEc2Instance"
	ResourceTypeAccount     = "AwsAccount"
)

// ResourceRef identifies the resource a finding was raised against.
// ID is the bare identifier (i-0abc..., a user name) when it can be derived,
// otherwise the raw value reported by the source (usually an ARN).
type ResourceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// IsEC2Instance reports whether the reference names an EC2 instance in
// either the GuardDuty or the ASFF vocabulary.
func (r ResourceRef) IsEC2Instance() bool {
	return r.Type == ResourceTypeInstance || r.Type == ResourceTypeEC2Instance
}

// Finding is a single security finding produced by the detection engine.
// It is decoded once from the inbound event and never mutated afterwards.
type Finding struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Resource  ResourceRef `json:"resource"`
	Region    string      `json:"region"`
	AccountID string      `json:"account_id"`
	// Severity is the numeric score reported by GuardDuty (0.1 - 10.0).
	Severity  float64   `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// SeverityLabel maps the GuardDuty numeric severity onto the label scale.
// GuardDuty publishes LOW as 1.0-3.9, MEDIUM as 4.0-6.9 and HIGH as 7.0-8.9;
// anything above is treated as CRITICAL.
func (f Finding) SeverityLabel() Severity {
	switch {
	case f.Severity >= 9.0:
		return SeverityCritical
	case f.Severity >= 7.0:
		return SeverityHigh
	case f.Severity >= 4.0:
		return SeverityMedium
	case f.Severity >= 1.0:
		return SeverityLow
	default:
		return SeverityInfo
	}
}
