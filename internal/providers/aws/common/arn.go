package common

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

// PartitionForRegion returns the ARN partition a region belongs to.
func PartitionForRegion(region string) string {
	switch {
	case strings.HasPrefix(region, "cn-"):
		return "aws-cn"
	case strings.HasPrefix(region, "us-gov-"):
		return "aws-us-gov"
	default:
		return "aws"
	}
}

// BuildARN assembles an ARN in the partition of region.
func BuildARN(service, region, accountID, resource string) string {
	return arn.ARN{
		Partition: PartitionForRegion(region),
		Service:   service,
		Region:    region,
		AccountID: accountID,
		Resource:  resource,
	}.String()
}

// InstanceIDFromARN extracts i-xxxx from an EC2 instance ARN
// (arn:aws:ec2:<region>:<account>:instance/i-xxxx). Bare instance IDs are
// returned unchanged. ok is false when s names something else.
func InstanceIDFromARN(s string) (id string, ok bool) {
	if strings.HasPrefix(s, "i-") {
		return s, true
	}
	if !arn.IsARN(s) {
		return "", false
	}
	parsed, err := arn.Parse(s)
	if err != nil || parsed.Service != "ec2" {
		return "", false
	}
	id, found := strings.CutPrefix(parsed.Resource, "instance/")
	if !found || !strings.HasPrefix(id, "i-") {
		return "", false
	}
	return id, true
}
