package models

// Custom action event constants as emitted by Security Hub onto the default
// event bus when an operator invokes a custom action from the console.
const (
	CustomActionDetailType = "Security Hub Findings - Custom Action"
)

// ActionTarget is the registration record backing a Security Hub custom
// action. ID is chosen by a human and must be unique within the account and
// region; Handle is the ARN derived from ID, region and account.
type ActionTarget struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Handle      string `json:"handle"`
}

// CustomActionEvent is the decoded form of a "custom action invoked" event.
// It is ephemeral: built per invocation and discarded afterwards.
type CustomActionEvent struct {
	Source     string    `json:"source"`
	DetailType string    `json:"detail_type"`
	Resources  []string  `json:"resources"`
	ActionName string    `json:"action_name"`
	Findings   []Finding `json:"findings"`
}

// Targets reports whether the event was raised for the action target with
// the given handle.
func (e CustomActionEvent) Targets(handle string) bool {
	for _, r := range e.Resources {
		if r == handle {
			return true
		}
	}
	return false
}

// Remediation kinds a custom action can be bound to.
const (
	RemediationQuarantineInstance   = "quarantine-instance"
	RemediationHardenPasswordPolicy = "harden-password-policy"
)
