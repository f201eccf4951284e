package config

import "time"

// Config is the top-level deployment configuration. It is loaded from
// ./remediator.yaml by default and describes the finding routes, the
// notification channel and the custom actions with their remediations.
type Config struct {
	Version int `yaml:"version" json:"version"`

	// Profile is the AWS shared-config profile. Empty means the default
	// credential chain.
	Profile string `yaml:"profile" json:"profile"`

	// Region is the region the stack is provisioned into. Falls back to the
	// profile region when empty.
	Region string `yaml:"region" json:"region"`

	// AccountID overrides the STS-resolved account. Used only to derive
	// action target handles.
	AccountID string `yaml:"account_id" json:"account_id" validate:"omitempty,numeric,len=12"`

	Notification NotificationConfig `yaml:"notification" json:"notification"`
	Routes       []RouteConfig      `yaml:"routes"       json:"routes"       validate:"dive"`
	Actions      []ActionConfig     `yaml:"actions"      json:"actions"      validate:"dive"`
	Remediation  RemediationConfig  `yaml:"remediation"  json:"remediation"`
}

// NotificationConfig describes the single email channel findings fan out to.
type NotificationConfig struct {
	TopicName string `yaml:"topic_name" json:"topic_name" validate:"required,max=256"`

	// Email is subscribed to the topic. Empty skips the subscription.
	Email string `yaml:"email" json:"email" validate:"omitempty,email"`
}

// RouteConfig is one exact-match finding route.
type RouteConfig struct {
	Name   string `yaml:"name"   json:"name"   validate:"required,max=64"`
	Source string `yaml:"source" json:"source" validate:"required"`
	Type   string `yaml:"type"   json:"type"   validate:"required"`
}

// ActionConfig binds a Security Hub custom action to one remediation.
type ActionConfig struct {
	// ID is the custom action id; Security Hub limits it to 20 alphanumerics.
	ID          string `yaml:"id"          json:"id"          validate:"required,alphanum,max=20"`
	Name        string `yaml:"name"        json:"name"        validate:"required"`
	Description string `yaml:"description" json:"description" validate:"required"`
	Remediation string `yaml:"remediation" json:"remediation" validate:"required,oneof=quarantine-instance harden-password-policy"`

	// FunctionARN is the remediation Lambda invoked by the custom action rule.
	FunctionARN string `yaml:"function_arn" json:"function_arn"`
}

// RemediationConfig holds the runtime knobs shared by remediators.
type RemediationConfig struct {
	// InstanceID is the fallback quarantine target used only when the
	// triggering event names no EC2 instance.
	InstanceID string `yaml:"instance_id" json:"instance_id" validate:"omitempty,startswith=i-"`

	// Timeout bounds a single remediation invocation.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultTimeout is the per-invocation budget when none is configured.
const DefaultTimeout = 30 * time.Second

// DefaultPath is where the CLI looks for the configuration file.
const DefaultPath = "./remediator.yaml"
