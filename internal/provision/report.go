package provision

import "github.com/pankaj-dahiya-devops/findings-remediator/internal/models"

// StepStatus is the outcome of one provisioning step.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

// Step is one line of a provisioning report.
type Step struct {
	Name     string     `json:"name"`
	Resource string     `json:"resource"`
	Status   StepStatus `json:"status"`
	Detail   string     `json:"detail,omitempty"`
}

// Report summarises a Setup or Teardown run.
type Report struct {
	Operation string                `json:"operation"`
	Region    string                `json:"region"`
	AccountID string                `json:"account_id"`
	Steps     []Step                `json:"steps"`
	Targets   []models.ActionTarget `json:"action_targets,omitempty"`
}

// Failed returns the number of failed steps.
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			n++
		}
	}
	return n
}

func (r *Report) add(name, resource string, err error) {
	st := Step{Name: name, Resource: resource, Status: StepOK}
	if err != nil {
		st.Status = StepFailed
		st.Detail = err.Error()
	}
	r.Steps = append(r.Steps, st)
}

func (r *Report) skip(name, resource, why string) {
	r.Steps = append(r.Steps, Step{Name: name, Resource: resource, Status: StepSkipped, Detail: why})
}
