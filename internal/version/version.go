// Package version carries the release identity of the fr CLI and the
// fr-lambda function. Release builds set the variables with -ldflags.
package version

import (
	"fmt"

	"go.uber.org/zap"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the text printed by "fr version".
func Info() string {
	return fmt.Sprintf("fr version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// Fields tags a log line with the build identity. The Lambda logs it once
// per cold start so CloudWatch entries can be tied to a release.
func Fields() []zap.Field {
	return []zap.Field{
		zap.String("version", Version),
		zap.String("commit", Commit),
	}
}
