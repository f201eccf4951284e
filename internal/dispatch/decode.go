package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
)

// customActionDetail is the detail of a Security Hub custom action event.
type customActionDetail struct {
	ActionName        string        `json:"actionName"`
	ActionDescription string        `json:"actionDescription"`
	Findings          []asffFinding `json:"findings"`
}

// asffFinding is the subset of an AWS Security Finding Format record used to
// pick remediation targets.
type asffFinding struct {
	ID           string         `json:"Id"`
	AwsAccountID string         `json:"AwsAccountId"`
	Region       string         `json:"Region"`
	Types        []string       `json:"Types"`
	CreatedAt    time.Time      `json:"CreatedAt"`
	Severity     asffSeverity   `json:"Severity"`
	Resources    []asffResource `json:"Resources"`
}

type asffSeverity struct {
	Product    float64 `json:"Product"`
	Normalized float64 `json:"Normalized"`
}

type asffResource struct {
	Type   string `json:"Type"`
	ID     string `json:"Id"`
	Region string `json:"Region"`
}

// DecodeCloudWatchEvent converts the event delivered to the remediation
// Lambda into a CustomActionEvent.
func DecodeCloudWatchEvent(evt events.CloudWatchEvent) (models.CustomActionEvent, error) {
	return decode(evt.Source, evt.DetailType, evt.Region, evt.Resources, evt.Detail)
}

// DecodeCustomActionEvent decodes a raw EventBridge envelope, as captured
// from the bus or a test fixture.
func DecodeCustomActionEvent(raw []byte) (models.CustomActionEvent, error) {
	var evt events.CloudWatchEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return models.CustomActionEvent{}, fmt.Errorf("decode custom action event: %w", err)
	}
	return DecodeCloudWatchEvent(evt)
}

func decode(source, detailType, region string, resources []string, detail json.RawMessage) (models.CustomActionEvent, error) {
	out := models.CustomActionEvent{
		Source:     source,
		DetailType: detailType,
		Resources:  resources,
	}
	if len(detail) == 0 {
		return out, nil
	}

	var d customActionDetail
	if err := json.Unmarshal(detail, &d); err != nil {
		return out, fmt.Errorf("decode custom action detail: %w", err)
	}
	out.ActionName = d.ActionName
	for _, af := range d.Findings {
		out.Findings = append(out.Findings, af.toFinding(region))
	}
	return out, nil
}

// toFinding maps an ASFF record to a Finding. Only the first resource is
// kept; GuardDuty findings carry the affected resource first.
func (af asffFinding) toFinding(eventRegion string) models.Finding {
	f := models.Finding{
		ID:        af.ID,
		Source:    models.SourceSecurityHub,
		AccountID: af.AwsAccountID,
		Region:    af.Region,
		Timestamp: af.CreatedAt,
		Severity:  af.Severity.Product,
	}
	if f.Severity == 0 {
		f.Severity = af.Severity.Normalized / 10
	}
	if len(af.Types) > 0 {
		f.Type = af.Types[0]
	}
	if len(af.Resources) > 0 {
		r := af.Resources[0]
		f.Resource = models.ResourceRef{Type: r.Type, ID: r.ID}
		if f.Region == "" {
			f.Region = r.Region
		}
	}
	if f.Region == "" {
		f.Region = eventRegion
	}
	return f
}
