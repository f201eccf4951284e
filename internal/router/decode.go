package router

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
)

// guardDutyEvent is the subset of the EventBridge envelope and GuardDuty
// finding detail the router needs.
type guardDutyEvent struct {
	Source  string          `json:"source"`
	Account string          `json:"account"`
	Region  string          `json:"region"`
	Time    time.Time       `json:"time"`
	Detail  guardDutyDetail `json:"detail"`
}

type guardDutyDetail struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	AccountID string            `json:"accountId"`
	Region    string            `json:"region"`
	Severity  float64           `json:"severity"`
	CreatedAt time.Time         `json:"createdAt"`
	Resource  guardDutyResource `json:"resource"`
}

type guardDutyResource struct {
	ResourceType    string `json:"resourceType"`
	InstanceDetails *struct {
		InstanceID string `json:"instanceId"`
	} `json:"instanceDetails"`
	AccessKeyDetails *struct {
		UserName    string `json:"userName"`
		AccessKeyID string `json:"accessKeyId"`
	} `json:"accessKeyDetails"`
}

// DecodeGuardDutyEvent decodes an EventBridge-delivered GuardDuty finding.
// Events without a source or finding type are rejected.
func DecodeGuardDutyEvent(raw []byte) (models.Finding, error) {
	var evt guardDutyEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return models.Finding{}, fmt.Errorf("decode finding event: %w", err)
	}
	if evt.Source == "" || evt.Detail.Type == "" {
		return models.Finding{}, fmt.Errorf("decode finding event: missing source or detail.type")
	}

	f := models.Finding{
		ID:        evt.Detail.ID,
		Type:      evt.Detail.Type,
		Source:    evt.Source,
		Region:    firstNonEmpty(evt.Detail.Region, evt.Region),
		AccountID: firstNonEmpty(evt.Detail.AccountID, evt.Account),
		Severity:  evt.Detail.Severity,
		Timestamp: evt.Detail.CreatedAt,
		Resource:  models.ResourceRef{Type: evt.Detail.Resource.ResourceType},
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = evt.Time
	}

	res := evt.Detail.Resource
	switch {
	case res.InstanceDetails != nil && res.InstanceDetails.InstanceID != "":
		f.Resource.ID = res.InstanceDetails.InstanceID
	case res.AccessKeyDetails != nil:
		f.Resource.ID = firstNonEmpty(res.AccessKeyDetails.UserName, res.AccessKeyDetails.AccessKeyID)
	}
	return f, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
