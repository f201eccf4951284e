package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
)

// LoadConfig reads and parses the YAML configuration at path and applies
// defaults. It does not run Validate; callers decide how to report problems.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Version != 1 {
		return nil, errors.New("unsupported config version")
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the stock configuration: both GuardDuty finding types are
// routed to the notification topic, and two custom actions are registered.
// The port-scan route deliberately has no action bound to it.
func Default() *Config {
	cfg := &Config{
		Version: 1,
		Notification: NotificationConfig{
			TopicName: "guardduty-findings",
		},
		Routes: []RouteConfig{
			{Name: "password-policy-change", Source: models.SourceGuardDuty, Type: models.TypePasswordPolicyChange},
			{Name: "ec2-portscan", Source: models.SourceGuardDuty, Type: models.TypeEC2Portscan},
		},
		Actions: []ActionConfig{
			{
				ID:          "StopEC2",
				Name:        "Stop/Quarantine EC2",
				Description: "Stops the EC2 instance named by the selected findings",
				Remediation: models.RemediationQuarantineInstance,
			},
			{
				ID:          "UpdatePassPolicy",
				Name:        "Update Password Policy",
				Description: "Applies the hardened account password policy",
				Remediation: models.RemediationHardenPasswordPolicy,
			},
		},
	}
	applyDefaults(cfg)
	return cfg
}

// Action returns the action with the given id.
func (c *Config) Action(id string) (ActionConfig, bool) {
	for _, a := range c.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return ActionConfig{}, false
}

func applyDefaults(cfg *Config) {
	if cfg.Remediation.Timeout <= 0 {
		cfg.Remediation.Timeout = DefaultTimeout
	}
	if cfg.Notification.TopicName == "" {
		cfg.Notification.TopicName = "guardduty-findings"
	}
}
