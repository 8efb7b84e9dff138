package storage

import (
	"context"
	"testing"
	"time"

	"github.com/WispAyr/overwatch-sub002/pkg/types"
	"github.com/matryer/is"
)

func apply(fns ...ConditionFunc) *Condition {
	c := &Condition{}
	for _, fn := range fns {
		fn(c)
	}
	return c
}

func TestEmptyConditionMatchesEverything(t *testing.T) {
	is := is.New(t)

	c := apply()

	is.Equal(c.Where(), "TRUE")
	is.Equal(len(c.NamedArgs()), 0)
	is.Equal(c.Limit(), 100)
	is.Equal(c.Offset(), 0)
	is.Equal(c.SortBy(), "created_on")
	is.Equal(c.SortOrder(), "DESC")
}

func TestScopeMatchesEmptyValues(t *testing.T) {
	is := is.New(t)

	c := apply(WithScope("org-1", ""))

	is.Equal(c.Where(), "tenant = @tenant AND site = @site")

	args := c.NamedArgs()
	is.Equal(args["tenant"], "org-1")
	is.Equal(args["site"], "")
}

func TestTenantWithoutScopeSkipsEmptySite(t *testing.T) {
	is := is.New(t)

	c := apply(WithTenant("org-1"))

	is.Equal(c.Where(), "tenant = @tenant")

	_, hasSite := c.NamedArgs()["site"]
	is.True(!hasSite)
}

func TestOpenOnlyExcludesTerminalStates(t *testing.T) {
	is := is.New(t)

	c := apply(WithOpenOnly())

	is.Equal(c.Where(), "state NOT IN ('CLOSED', 'SUPPRESSED')")
}

func TestTenantsAreDeduplicated(t *testing.T) {
	is := is.New(t)

	c := apply(WithTenants([]string{"org-1", "org-2", "org-1"}))

	is.Equal(len(c.Tenants), 2)
	is.Equal(c.Where(), "tenant = ANY(@tenants)")
}

func TestSortByRejectsUnknownColumns(t *testing.T) {
	is := is.New(t)

	c := apply(WithSortBy("assignee; DROP TABLE alarms"))
	is.Equal(c.SortBy(), "created_on")

	c = apply(WithSortBy("deadline"))
	is.Equal(c.SortBy(), "sla_deadline")
}

func TestParseConditions(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	fns := ParseConditions(ctx, map[string][]string{
		"state":        {"active", "triage"},
		"severity":     {"CRITICAL"},
		"open":         {"true"},
		"assignee":     {"alice"},
		"limit":        {"25"},
		"offset":       {"50"},
		"createdafter": {"2026-01-01T00:00:00Z"},
		"bogus":        {"ignored"},
	})

	c := apply(fns...)

	is.Equal(c.States, []types.State{types.StateActive, types.StateTriage})
	is.Equal(c.Severities, []types.Severity{types.SeverityCritical})
	is.True(c.OnlyOpen)
	is.Equal(c.Assignee, "alice")
	is.Equal(c.Limit(), 25)
	is.Equal(c.Offset(), 50)
	is.True(c.CreatedAfter.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}
