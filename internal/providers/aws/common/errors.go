package common

import (
	"errors"

	"github.com/aws/smithy-go"
)

// ErrorCode returns the service error code carried by err, or "" when err is
// not an AWS API error.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// HasErrorCode reports whether err is an AWS API error with one of codes.
func HasErrorCode(err error, codes ...string) bool {
	code := ErrorCode(err)
	if code == "" {
		return false
	}
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
