// Package provision stands up and tears down the deployed form of the
// pipeline: the notification topic, one EventBridge rule per finding route,
// one Security Hub action target per custom action and one EventBridge rule
// per action target invoking the remediation Lambda.
//
// Every step is soft-failing. A failed step is logged and recorded in the
// report and the remaining steps still run, so Setup can simply be re-run
// until it converges.
package provision

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/config"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
	awsevents "github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/events"
	awsnotify "github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/notify"
	awssecurityhub "github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/securityhub"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/router"
)

const (
	routeRulePrefix  = "fr-route-"
	actionRulePrefix = "fr-action-"

	notifyTargetID    = "notify"
	remediateTargetID = "remediate"
)

type topicManager interface {
	Ensure(ctx context.Context, name string) (string, error)
	AllowEvents(ctx context.Context, topicARN string) error
	Subscribe(ctx context.Context, topicARN, email string) error
	Delete(ctx context.Context, topicARN string) error
}

type ruleManager interface {
	Put(ctx context.Context, spec awsevents.RuleSpec) (string, error)
	Delete(ctx context.Context, name string, targetIDs ...string) error
	GrantInvoke(ctx context.Context, functionARN, statementID, ruleARN string) error
	RevokeInvoke(ctx context.Context, functionARN, statementID string) error
}

type actionTargetRegistry interface {
	Handle(id string) string
	Register(ctx context.Context, id, name, description string) (models.ActionTarget, error)
	Unregister(ctx context.Context, id string) error
}

// Provisioner applies a Config to one account and region.
type Provisioner struct {
	cfg       *config.Config
	region    string
	accountID string

	topics  topicManager
	rules   ruleManager
	targets actionTargetRegistry
	log     *zap.Logger
}

// New returns a Provisioner backed by production SDK clients.
func New(profile *common.ProfileConfig, cfg *config.Config, log *zap.Logger) *Provisioner {
	return NewWithDeps(cfg, profile.Region, profile.AccountID,
		awsnotify.NewTopics(profile.Config, log),
		awsevents.NewRules(profile.Config, log),
		awssecurityhub.NewRegistry(profile.Config, profile.AccountID, log),
		log,
	)
}

// NewWithDeps returns a Provisioner over injected managers. Tests pass fakes.
func NewWithDeps(cfg *config.Config, region, accountID string, topics topicManager, rules ruleManager, targets actionTargetRegistry, log *zap.Logger) *Provisioner {
	return &Provisioner{
		cfg:       cfg,
		region:    region,
		accountID: accountID,
		topics:    topics,
		rules:     rules,
		targets:   targets,
		log:       logging.OrNop(log).Named("provision"),
	}
}

// RouteRuleName is the EventBridge rule name for a finding route.
func RouteRuleName(route string) string { return routeRulePrefix + route }

// ActionRuleName is the EventBridge rule name (and Lambda permission
// statement id) for a custom action.
func ActionRuleName(actionID string) string { return actionRulePrefix + actionID }

// TopicARN derives the notification topic ARN from its name.
func (p *Provisioner) TopicARN() string {
	return common.BuildARN("sns", p.region, p.accountID, p.cfg.Notification.TopicName)
}

// Setup creates or converges every resource. The returned error aggregates
// the failed steps; the report is always complete.
func (p *Provisioner) Setup(ctx context.Context) (*Report, error) {
	rep := &Report{Operation: "setup", Region: p.region, AccountID: p.accountID}
	var errs *multierror.Error
	record := func(name, resource string, err error) {
		rep.add(name, resource, err)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	topicName := p.cfg.Notification.TopicName
	topicARN, err := p.topics.Ensure(ctx, topicName)
	record("create topic", topicName, err)
	if topicARN == "" {
		topicARN = p.TopicARN()
	}
	record("topic policy", topicARN, p.topics.AllowEvents(ctx, topicARN))
	if email := p.cfg.Notification.Email; email != "" {
		record("email subscription", email, p.topics.Subscribe(ctx, topicARN, email))
	} else {
		rep.skip("email subscription", topicARN, "no email configured")
	}

	for _, rule := range router.RulesFromConfig(p.cfg.Routes) {
		name := RouteRuleName(rule.Name)
		pattern, err := rule.Pattern()
		if err != nil {
			record("route rule", name, err)
			continue
		}
		_, err = p.rules.Put(ctx, awsevents.RuleSpec{
			Name:        name,
			Description: "Routes " + rule.Type + " findings to " + topicName,
			Pattern:     pattern,
			TargetID:    notifyTargetID,
			TargetARN:   topicARN,
		})
		record("route rule", name, err)
	}

	for _, action := range p.cfg.Actions {
		target, err := p.targets.Register(ctx, action.ID, action.Name, action.Description)
		record("action target", action.ID, err)
		rep.Targets = append(rep.Targets, target)

		name := ActionRuleName(action.ID)
		if action.FunctionARN == "" {
			rep.skip("action rule", name, "no function_arn configured")
			continue
		}
		pattern, err := router.CustomActionPattern(target.Handle)
		if err != nil {
			record("action rule", name, err)
			continue
		}
		ruleARN, err := p.rules.Put(ctx, awsevents.RuleSpec{
			Name:        name,
			Description: "Invokes " + action.Remediation + " for custom action " + action.ID,
			Pattern:     pattern,
			TargetID:    remediateTargetID,
			TargetARN:   action.FunctionARN,
		})
		record("action rule", name, err)
		if ruleARN == "" {
			rep.skip("invoke permission", name, "rule not created")
			continue
		}
		record("invoke permission", name, p.rules.GrantInvoke(ctx, action.FunctionARN, name, ruleARN))
	}

	p.log.Info("setup finished", zap.Int("steps", len(rep.Steps)), zap.Int("failed", rep.Failed()))
	return rep, errs.ErrorOrNil()
}

// Teardown removes everything Setup creates, in reverse order. Missing
// resources are not failures.
func (p *Provisioner) Teardown(ctx context.Context) (*Report, error) {
	rep := &Report{Operation: "teardown", Region: p.region, AccountID: p.accountID}
	var errs *multierror.Error
	record := func(name, resource string, err error) {
		rep.add(name, resource, err)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	for _, action := range p.cfg.Actions {
		name := ActionRuleName(action.ID)
		if action.FunctionARN != "" {
			record("invoke permission", name, p.rules.RevokeInvoke(ctx, action.FunctionARN, name))
			record("action rule", name, p.rules.Delete(ctx, name, remediateTargetID))
		}
		record("action target", action.ID, p.targets.Unregister(ctx, action.ID))
	}

	for _, route := range p.cfg.Routes {
		name := RouteRuleName(route.Name)
		record("route rule", name, p.rules.Delete(ctx, name, notifyTargetID))
	}

	topicARN := p.TopicARN()
	record("delete topic", topicARN, p.topics.Delete(ctx, topicARN))

	p.log.Info("teardown finished", zap.Int("steps", len(rep.Steps)), zap.Int("failed", rep.Failed()))
	return rep, errs.ErrorOrNil()
}
