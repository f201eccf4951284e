// Command fr-lambda is the remediation function invoked by a custom action
// rule. Each deployment performs one remediation kind, chosen by
// REMEDIATION_ACTION.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/config"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/remediate"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/version"
)

func main() {
	env, err := config.LambdaEnvFromOS()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New(logging.FormatJSON, env.LogLevel)
	defer log.Sync() //nolint:errcheck

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal("load aws config", zap.Error(err))
	}
	rem, err := remediate.NewFromConfig(env.Action, env.ActionTargetID, cfg, remediate.Options{
		FallbackInstanceID: env.InstanceID,
		Log:                log,
	})
	if err != nil {
		log.Fatal("build remediator", zap.Error(err))
	}

	log.Info("remediation function starting", append(version.Fields(),
		zap.String("action", env.Action),
		zap.String("action_target", env.ActionTargetID),
		zap.Duration("timeout", env.Timeout),
	)...)
	lambda.Start(newHandler(rem, env, log).Handle)
}
