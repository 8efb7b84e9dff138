package hierarchy

import (
	"context"
	"fmt"
	"strings"

	"github.com/WispAyr/overwatch-sub002/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/samber/lo"
)

type ScopeType string

const (
	ScopeGlobal       ScopeType = "global"
	ScopeOrganization ScopeType = "organization"
	ScopeSite         ScopeType = "site"
)

type Scope struct {
	Type ScopeType
	ID   string
}

func (s Scope) String() string {
	if s.Type == ScopeGlobal {
		return string(ScopeGlobal)
	}
	return fmt.Sprintf("%s:%s", s.Type, s.ID)
}

// ParseScope parses "global", "organization:<id>" or "site:<id>".
func ParseScope(value string) (Scope, error) {
	if value == "" || strings.EqualFold(value, string(ScopeGlobal)) {
		return Scope{Type: ScopeGlobal}, nil
	}

	scopeType, id, found := strings.Cut(value, ":")
	if !found || id == "" {
		return Scope{}, fmt.Errorf("malformed scope %q", value)
	}

	switch ScopeType(strings.ToLower(scopeType)) {
	case ScopeOrganization:
		return Scope{Type: ScopeOrganization, ID: id}, nil
	case ScopeSite:
		return Scope{Type: ScopeSite, ID: id}, nil
	}

	return Scope{}, fmt.Errorf("unknown scope type %q", scopeType)
}

//go:generate moq -rm -out registry_mock.go . OrganizationRegistry
type OrganizationRegistry interface {
	Organizations(ctx context.Context) ([]types.Organization, error)
}

// Stats computes a read time projection over the given alarm set. The site
// breakdown is produced for organization scopes when the org tree is known.
func Stats(scope Scope, orgs []types.Organization, alarms []types.Alarm) types.AlarmStats {
	stats := types.AlarmStats{
		Scope: scope.String(),
		Total: len(alarms),
		BySeverity: lo.CountValuesBy(alarms, func(a types.Alarm) types.Severity {
			return a.Severity
		}),
		New: lo.CountBy(alarms, func(a types.Alarm) bool {
			return a.State == types.StateNew
		}),
		Active: lo.CountBy(alarms, func(a types.Alarm) bool {
			return a.State == types.StateActive
		}),
	}

	if scope.Type != ScopeOrganization {
		return stats
	}

	org, found := lo.Find(orgs, func(o types.Organization) bool {
		return o.ID == scope.ID
	})
	if !found {
		return stats
	}

	for _, site := range org.Sites {
		siteAlarms := lo.Filter(alarms, func(a types.Alarm, _ int) bool {
			return a.Site == site.ID
		})

		stats.Sites = append(stats.Sites, types.SiteStats{
			SiteID:   site.ID,
			SiteName: site.Name,
			Total:    len(siteAlarms),
			Critical: lo.CountBy(siteAlarms, func(a types.Alarm) bool {
				return a.Severity == types.SeverityCritical
			}),
		})
	}

	return stats
}

type Service struct {
	registry OrganizationRegistry
}

func New(registry OrganizationRegistry) *Service {
	return &Service{registry: registry}
}

// Stats aggregates the alarm set for the scope. A registry failure degrades
// the result to counts without a site breakdown instead of failing the query.
func (s *Service) Stats(ctx context.Context, scope Scope, alarms []types.Alarm) types.AlarmStats {
	var orgs []types.Organization

	if scope.Type == ScopeOrganization && s.registry != nil {
		var err error

		orgs, err = s.registry.Organizations(ctx)
		if err != nil {
			logging.GetFromContext(ctx).Warn("organization registry unavailable, degrading to counts only", "err", err.Error())
			orgs = nil
		}
	}

	return Stats(scope, orgs, alarms)
}
