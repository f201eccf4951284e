package remediate

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"go.uber.org/zap"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/logging"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/providers/aws/common"
)

// iamPasswordPolicyAPIClient is the narrow IAM interface for the account
// password policy.
type iamPasswordPolicyAPIClient interface {
	GetAccountPasswordPolicy(ctx context.Context, params *iamsvc.GetAccountPasswordPolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetAccountPasswordPolicyOutput, error)
	UpdateAccountPasswordPolicy(ctx context.Context, params *iamsvc.UpdateAccountPasswordPolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.UpdateAccountPasswordPolicyOutput, error)
}

// HardenedPasswordPolicy is the fixed desired state applied by the
// password-policy remediator.
func HardenedPasswordPolicy() models.PasswordPolicy {
	return models.PasswordPolicy{
		MinimumPasswordLength:      14,
		MaxPasswordAge:             90,
		PasswordReusePrevention:    24,
		RequireUppercaseCharacters: true,
		RequireLowercaseCharacters: true,
		RequireNumbers:             true,
		RequireSymbols:             true,
		AllowUsersToChangePassword: true,
		HardExpiry:                 true,
	}
}

// PasswordPolicyHardener overwrites the account password policy with
// HardenedPasswordPolicy. It takes no input from the triggering findings.
type PasswordPolicyHardener struct {
	actionID string
	client   iamPasswordPolicyAPIClient
	desired  models.PasswordPolicy
	log      *zap.Logger
}

// NewPasswordPolicyHardener returns a hardener bound to actionID.
func NewPasswordPolicyHardener(actionID string, client iamPasswordPolicyAPIClient, log *zap.Logger) *PasswordPolicyHardener {
	return &PasswordPolicyHardener{
		actionID: actionID,
		client:   client,
		desired:  HardenedPasswordPolicy(),
		log:      logging.OrNop(log).Named("password-policy"),
	}
}

func (p *PasswordPolicyHardener) ActionID() string { return p.actionID }
func (p *PasswordPolicyHardener) Kind() string     { return models.RemediationHardenPasswordPolicy }

// Remediate applies the hardened policy unless the account already has it.
func (p *PasswordPolicyHardener) Remediate(ctx context.Context, _ Invocation) (result models.RemediationResult) {
	result = models.RemediationResult{ActionID: p.actionID, Targets: []string{"account"}}
	defer func() { result.CompletedAt = time.Now().UTC() }()

	if current, ok := p.current(ctx); ok && current == p.desired {
		p.log.Info("password policy already hardened")
		result.Success = true
		return result
	}

	out, err := p.client.UpdateAccountPasswordPolicy(ctx, updateInput(p.desired))
	result.Response = out
	if err != nil {
		p.log.Error("update account password policy failed", zap.Error(err))
		result.Error = err.Error()
		return result
	}

	p.log.Info("password policy hardened",
		zap.Int32("min_length", p.desired.MinimumPasswordLength),
		zap.Int32("max_age", p.desired.MaxPasswordAge),
		zap.Int32("reuse_prevention", p.desired.PasswordReusePrevention),
	)
	result.Success = true
	result.Changed = true
	return result
}

// current reads the existing policy. ok is false when there is none or it
// could not be read; the caller then applies unconditionally.
func (p *PasswordPolicyHardener) current(ctx context.Context) (models.PasswordPolicy, bool) {
	out, err := p.client.GetAccountPasswordPolicy(ctx, &iamsvc.GetAccountPasswordPolicyInput{})
	if err != nil {
		if !common.HasErrorCode(err, "NoSuchEntity") {
			p.log.Warn("read account password policy failed", zap.Error(err))
		}
		return models.PasswordPolicy{}, false
	}
	if out.PasswordPolicy == nil {
		return models.PasswordPolicy{}, false
	}
	return policyFromIAM(out.PasswordPolicy), true
}

func policyFromIAM(pp *iamtypes.PasswordPolicy) models.PasswordPolicy {
	return models.PasswordPolicy{
		MinimumPasswordLength:      aws.ToInt32(pp.MinimumPasswordLength),
		MaxPasswordAge:             aws.ToInt32(pp.MaxPasswordAge),
		PasswordReusePrevention:    aws.ToInt32(pp.PasswordReusePrevention),
		RequireUppercaseCharacters: pp.RequireUppercaseCharacters,
		RequireLowercaseCharacters: pp.RequireLowercaseCharacters,
		RequireNumbers:             pp.RequireNumbers,
		RequireSymbols:             pp.RequireSymbols,
		AllowUsersToChangePassword: pp.AllowUsersToChangePassword,
		HardExpiry:                 aws.ToBool(pp.HardExpiry),
	}
}

func updateInput(pp models.PasswordPolicy) *iamsvc.UpdateAccountPasswordPolicyInput {
	return &iamsvc.UpdateAccountPasswordPolicyInput{
		MinimumPasswordLength:      aws.Int32(pp.MinimumPasswordLength),
		MaxPasswordAge:             aws.Int32(pp.MaxPasswordAge),
		PasswordReusePrevention:    aws.Int32(pp.PasswordReusePrevention),
		RequireUppercaseCharacters: pp.RequireUppercaseCharacters,
		RequireLowercaseCharacters: pp.RequireLowercaseCharacters,
		RequireNumbers:             pp.RequireNumbers,
		RequireSymbols:             pp.RequireSymbols,
		AllowUsersToChangePassword: pp.AllowUsersToChangePassword,
		HardExpiry:                 aws.Bool(pp.HardExpiry),
	}
}
