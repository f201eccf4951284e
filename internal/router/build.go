package router

import (
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/config"
)

// RulesFromConfig builds one Rule per configured route, each bound to the
// same targets (the notification path). Targets may be empty for dry runs.
func RulesFromConfig(routes []config.RouteConfig, targets ...Target) []Rule {
	rules := make([]Rule, 0, len(routes))
	for _, rc := range routes {
		rules = append(rules, Rule{
			Name:    rc.Name,
			Source:  rc.Source,
			Type:    rc.Type,
			Targets: targets,
		})
	}
	return rules
}
