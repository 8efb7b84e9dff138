package hierarchy

import (
	"context"
	"errors"
	"testing"

	"github.com/WispAyr/overwatch-sub002/pkg/types"
	"github.com/matryer/is"
)

func TestParseScope(t *testing.T) {
	is := is.New(t)

	scope, err := ParseScope("")
	is.NoErr(err)
	is.Equal(scope.Type, ScopeGlobal)

	scope, err = ParseScope("organization:org-1")
	is.NoErr(err)
	is.Equal(scope.Type, ScopeOrganization)
	is.Equal(scope.ID, "org-1")

	scope, err = ParseScope("site:hq")
	is.NoErr(err)
	is.Equal(scope.Type, ScopeSite)
	is.Equal(scope.ID, "hq")

	_, err = ParseScope("region:north")
	is.True(err != nil)

	_, err = ParseScope("organization:")
	is.True(err != nil)
}

func TestGlobalStats(t *testing.T) {
	is := is.New(t)

	stats := Stats(Scope{Type: ScopeGlobal}, nil, testAlarms())

	is.Equal(stats.Total, 5)
	is.Equal(stats.BySeverity[types.SeverityCritical], 3)
	is.Equal(stats.BySeverity[types.SeverityMinor], 2)
	is.Equal(stats.New, 2)
	is.Equal(stats.Active, 1)
	is.Equal(len(stats.Sites), 0)
}

func TestOrganizationStatsWithSiteBreakdown(t *testing.T) {
	is := is.New(t)

	orgs := []types.Organization{
		{
			ID:   "org-1",
			Name: "Org One",
			Sites: []types.Site{
				{ID: "site-a", Name: "Site A"},
				{ID: "site-b", Name: "Site B"},
			},
		},
	}

	org1Alarms := []types.Alarm{
		{ID: "1", Tenant: "org-1", Site: "site-a", Severity: types.SeverityCritical, State: types.StateNew},
		{ID: "2", Tenant: "org-1", Site: "site-a", Severity: types.SeverityCritical, State: types.StateActive},
		{ID: "3", Tenant: "org-1", Site: "site-b", Severity: types.SeverityCritical, State: types.StateTriage},
	}

	stats := Stats(Scope{Type: ScopeOrganization, ID: "org-1"}, orgs, org1Alarms)

	is.Equal(stats.Total, 3)
	is.Equal(stats.BySeverity[types.SeverityCritical], 3)
	is.Equal(len(stats.Sites), 2)
	is.Equal(stats.Sites[0].SiteID, "site-a")
	is.Equal(stats.Sites[0].Total, 2)
	is.Equal(stats.Sites[0].Critical, 2)
	is.Equal(stats.Sites[1].Total, 1)
}

func TestRegistryFailureDegradesToCountsOnly(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	registry := &OrganizationRegistryMock{
		OrganizationsFunc: func(ctx context.Context) ([]types.Organization, error) {
			return nil, errors.New("registry unavailable")
		},
	}

	svc := New(registry)

	stats := svc.Stats(ctx, Scope{Type: ScopeOrganization, ID: "org-1"}, testAlarms())

	is.Equal(stats.Total, 5)
	is.Equal(len(stats.Sites), 0)
}

func testAlarms() []types.Alarm {
	return []types.Alarm{
		{ID: "1", Tenant: "org-1", Severity: types.SeverityCritical, State: types.StateNew},
		{ID: "2", Tenant: "org-1", Severity: types.SeverityCritical, State: types.StateActive},
		{ID: "3", Tenant: "org-1", Severity: types.SeverityCritical, State: types.StateTriage},
		{ID: "4", Tenant: "org-2", Severity: types.SeverityMinor, State: types.StateNew},
		{ID: "5", Tenant: "org-2", Severity: types.SeverityMinor, State: types.StateContained},
	}
}
