package models

import "time"

// RemediationResult is the outcome of a single remediator invocation.
// Results are never persisted; they are logged and returned to the caller.
type RemediationResult struct {
	ActionID string `json:"action_id"`

	// Targets lists the resources the remediator acted on (instance IDs for
	// quarantine, "account" for the password policy).
	Targets []string `json:"targets,omitempty"`

	// Success is false when the provider call failed or never completed.
	Success bool `json:"success"`

	// Changed is false when the target already matched the desired state and
	// no mutation was issued.
	Changed bool `json:"changed"`

	// Response is the raw provider response, possibly partial or nil.
	Response any `json:"-"`

	// Error carries the provider error text when Success is false.
	Error string `json:"error,omitempty"`

	CompletedAt time.Time `json:"completed_at"`
}

// PasswordPolicy is the account-wide IAM password policy in its desired-state
// form. Zero values mean "not set".
type PasswordPolicy struct {
	MinimumPasswordLength      int32 `json:"minimum_password_length"`
	MaxPasswordAge             int32 `json:"max_password_age"`
	PasswordReusePrevention    int32 `json:"password_reuse_prevention"`
	RequireUppercaseCharacters bool  `json:"require_uppercase_characters"`
	RequireLowercaseCharacters bool  `json:"require_lowercase_characters"`
	RequireNumbers             bool  `json:"require_numbers"`
	RequireSymbols             bool  `json:"require_symbols"`
	AllowUsersToChangePassword bool  `json:"allow_users_to_change_password"`
	HardExpiry                 bool  `json:"hard_expiry"`
}
