package config

import (
	"fmt"
	"os"
	"time"
)

// Environment variable names read by the remediation Lambda.
const (
	EnvAction         = "REMEDIATION_ACTION"
	EnvActionTargetID = "ACTION_TARGET_ID"
	EnvInstanceID     = "INSTANCE_ID"
	EnvLogLevel       = "LOG_LEVEL"
	EnvTimeout        = "REMEDIATION_TIMEOUT"
)

// LambdaEnv is the deploy-time configuration of one remediation Lambda.
type LambdaEnv struct {
	// Action is the remediation kind this function performs.
	Action string

	// ActionTargetID is the custom action the function answers to. When
	// unset it defaults to the stock action bound to Action.
	ActionTargetID string

	// InstanceID is the fallback quarantine target.
	InstanceID string

	LogLevel string
	Timeout  time.Duration
}

// LambdaEnvFromOS reads LambdaEnv from the process environment.
func LambdaEnvFromOS() (LambdaEnv, error) {
	return LambdaEnvFrom(os.LookupEnv)
}

// LambdaEnvFrom reads LambdaEnv through lookup so tests can supply a map.
func LambdaEnvFrom(lookup func(string) (string, bool)) (LambdaEnv, error) {
	env := LambdaEnv{Timeout: DefaultTimeout}

	action, ok := lookup(EnvAction)
	if !ok || action == "" {
		return env, fmt.Errorf("%s is not set", EnvAction)
	}
	env.Action = action

	env.ActionTargetID, _ = lookup(EnvActionTargetID)
	if env.ActionTargetID == "" {
		for _, a := range Default().Actions {
			if a.Remediation == action {
				env.ActionTargetID = a.ID
			}
		}
	}
	if env.ActionTargetID == "" {
		return env, fmt.Errorf("%s is not set and %s %q has no default action", EnvActionTargetID, EnvAction, action)
	}

	env.InstanceID, _ = lookup(EnvInstanceID)
	env.LogLevel, _ = lookup(EnvLogLevel)

	if raw, ok := lookup(EnvTimeout); ok && raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return env, fmt.Errorf("parse %s: %w", EnvTimeout, err)
		}
		if d > 0 {
			env.Timeout = d
		}
	}
	return env, nil
}
