package awsnotify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	snssvc "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/smithy-go"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
)

const topicARN = "arn:aws:sns:us-east-1:123456789012:security-findings"

type fakeSNS struct {
	publishErr error
	createErr  error
	deleteErr  error

	published  []*snssvc.PublishInput
	attributes []*snssvc.SetTopicAttributesInput
	subscribed []*snssvc.SubscribeInput
	deleted    []string
}

func (f *fakeSNS) Publish(_ context.Context, in *snssvc.PublishInput, _ ...func(*snssvc.Options)) (*snssvc.PublishOutput, error) {
	f.published = append(f.published, in)
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	return &snssvc.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeSNS) CreateTopic(_ context.Context, in *snssvc.CreateTopicInput, _ ...func(*snssvc.Options)) (*snssvc.CreateTopicOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &snssvc.CreateTopicOutput{TopicArn: aws.String("arn:aws:sns:us-east-1:123456789012:" + aws.ToString(in.Name))}, nil
}

func (f *fakeSNS) SetTopicAttributes(_ context.Context, in *snssvc.SetTopicAttributesInput, _ ...func(*snssvc.Options)) (*snssvc.SetTopicAttributesOutput, error) {
	f.attributes = append(f.attributes, in)
	return &snssvc.SetTopicAttributesOutput{}, nil
}

func (f *fakeSNS) Subscribe(_ context.Context, in *snssvc.SubscribeInput, _ ...func(*snssvc.Options)) (*snssvc.SubscribeOutput, error) {
	f.subscribed = append(f.subscribed, in)
	return &snssvc.SubscribeOutput{SubscriptionArn: aws.String("pending confirmation")}, nil
}

func (f *fakeSNS) DeleteTopic(_ context.Context, in *snssvc.DeleteTopicInput, _ ...func(*snssvc.Options)) (*snssvc.DeleteTopicOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.TopicArn))
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &snssvc.DeleteTopicOutput{}, nil
}

func portscan() models.Finding {
	return models.Finding{
		ID:       "f-1",
		Type:     models.TypeEC2Portscan,
		Source:   models.SourceGuardDuty,
		Severity: 5,
		Resource: models.ResourceRef{Type: models.ResourceTypeInstance, ID: "i-99999999"},
	}
}

func TestDeliver_PublishesFindingJSON(t *testing.T) {
	fake := &fakeSNS{}
	n := NewSNSNotifierWithClient(fake, topicARN, nil)

	if err := n.Deliver(context.Background(), portscan()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(fake.published) != 1 {
		t.Fatalf("published %d messages; want 1", len(fake.published))
	}
	in := fake.published[0]
	if aws.ToString(in.TopicArn) != topicARN {
		t.Errorf("topic = %q", aws.ToString(in.TopicArn))
	}
	var got models.Finding
	if err := json.Unmarshal([]byte(aws.ToString(in.Message)), &got); err != nil {
		t.Fatalf("message is not finding JSON: %v", err)
	}
	if got.ID != "f-1" || got.Resource.ID != "i-99999999" {
		t.Errorf("decoded message = %+v", got)
	}
	if want := "[MEDIUM] Recon:EC2/Portscan on i-99999999"; aws.ToString(in.Subject) != want {
		t.Errorf("subject = %q; want %q", aws.ToString(in.Subject), want)
	}
}

func TestDeliver_ErrorIsReturned(t *testing.T) {
	fake := &fakeSNS{publishErr: errors.New("throttled")}
	n := NewSNSNotifierWithClient(fake, topicARN, nil)

	err := n.Deliver(context.Background(), portscan())
	if err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Errorf("expected wrapped publish error; got %v", err)
	}
}

func TestSubject_ClampedAndASCII(t *testing.T) {
	f := models.Finding{Type: strings.Repeat("x", 150) + "é"}
	s := Subject(f)
	if len(s) != maxSubjectLen {
		t.Errorf("len = %d; want %d", len(s), maxSubjectLen)
	}
	short := Subject(models.Finding{Type: "Recon:EC2/Portscan\n"})
	if strings.ContainsAny(short, "\n") {
		t.Errorf("control characters must be replaced: %q", short)
	}
}

func TestTopics_EnsureAndAllowEvents(t *testing.T) {
	fake := &fakeSNS{}
	topics := NewTopicsWithClient(fake, nil)

	arn, err := topics.Ensure(context.Background(), "security-findings")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if arn != topicARN {
		t.Errorf("arn = %q", arn)
	}
	if err := topics.AllowEvents(context.Background(), arn); err != nil {
		t.Fatalf("allow events: %v", err)
	}
	if len(fake.attributes) != 1 || aws.ToString(fake.attributes[0].AttributeName) != "Policy" {
		t.Fatalf("expected one Policy attribute update; got %+v", fake.attributes)
	}

	var doc policyDocument
	if err := json.Unmarshal([]byte(aws.ToString(fake.attributes[0].AttributeValue)), &doc); err != nil {
		t.Fatalf("policy is not JSON: %v", err)
	}
	st := doc.Statement[0]
	if st.Principal["Service"] != "events.amazonaws.com" || st.Action != "sns:Publish" || st.Resource != topicARN {
		t.Errorf("unexpected statement %+v", st)
	}
}

func TestTopics_EnsureFailureIsSoft(t *testing.T) {
	topics := NewTopicsWithClient(&fakeSNS{createErr: &smithy.GenericAPIError{Code: "AuthorizationError"}}, nil)

	_, err := topics.Ensure(context.Background(), "security-findings")
	if !common.IsSoftFailure(err) {
		t.Errorf("expected soft failure; got %v", err)
	}
}

func TestTopics_SubscribeEmail(t *testing.T) {
	fake := &fakeSNS{}
	topics := NewTopicsWithClient(fake, nil)

	if err := topics.Subscribe(context.Background(), topicARN, "secops@example.com"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	in := fake.subscribed[0]
	if aws.ToString(in.Protocol) != "email" || aws.ToString(in.Endpoint) != "secops@example.com" {
		t.Errorf("unexpected subscription %+v", in)
	}
}

func TestTopics_DeleteNotFoundIsBenign(t *testing.T) {
	topics := NewTopicsWithClient(&fakeSNS{deleteErr: &smithy.GenericAPIError{Code: "NotFound"}}, nil)
	if err := topics.Delete(context.Background(), topicARN); err != nil {
		t.Errorf("expected nil for missing topic; got %v", err)
	}

	topics = NewTopicsWithClient(&fakeSNS{deleteErr: errors.New("boom")}, nil)
	if err := topics.Delete(context.Background(), topicARN); !common.IsSoftFailure(err) {
		t.Errorf("expected soft failure; got %v", err)
	}
}
