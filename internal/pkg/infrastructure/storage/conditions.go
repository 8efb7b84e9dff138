package storage

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/WispAyr/overwatch-sub002/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/jackc/pgx/v5"
)

type ConditionFunc func(*Condition) *Condition

type Condition struct {
	AlarmID  string
	GroupKey string

	Tenant  string
	Tenants []string
	Site    string

	// MatchScope forces exact tenant/site equality, empty values included,
	// so that global alarms only match other global alarms.
	MatchScope bool

	States     []types.State
	Severities []types.Severity
	Assignee   string

	OnlyOpen bool

	CreatedAfter  time.Time
	CreatedBefore time.Time

	sortBy    string
	sortOrder string

	offset *int
	limit  *int
}

func (c Condition) SortBy() string {
	if c.sortBy == "" {
		return "created_on"
	}
	return c.sortBy
}

func (c Condition) SortOrder() string {
	if c.sortOrder == "" {
		return "DESC"
	}
	return c.sortOrder
}

func (c Condition) Offset() int {
	if c.offset != nil {
		return *c.offset
	}
	return 0
}

func (c Condition) Limit() int {
	if c.limit != nil {
		return *c.limit
	}
	return 100
}

func (c Condition) NamedArgs() pgx.NamedArgs {
	args := pgx.NamedArgs{}

	if c.AlarmID != "" {
		args["alarm_id"] = c.AlarmID
	}
	if c.GroupKey != "" {
		args["group_key"] = c.GroupKey
	}
	if c.MatchScope {
		args["tenant"] = c.Tenant
		args["site"] = c.Site
	} else {
		if c.Tenant != "" {
			args["tenant"] = c.Tenant
		}
		if c.Site != "" {
			args["site"] = c.Site
		}
	}
	if len(c.Tenants) > 0 {
		args["tenants"] = c.Tenants
	}
	if len(c.States) > 0 {
		states := make([]string, 0, len(c.States))
		for _, s := range c.States {
			states = append(states, string(s))
		}
		args["states"] = states
	}
	if len(c.Severities) > 0 {
		severities := make([]string, 0, len(c.Severities))
		for _, s := range c.Severities {
			severities = append(severities, string(s))
		}
		args["severities"] = severities
	}
	if c.Assignee != "" {
		args["assignee"] = c.Assignee
	}
	if !c.CreatedAfter.IsZero() {
		args["created_after"] = c.CreatedAfter.UTC()
	}
	if !c.CreatedBefore.IsZero() {
		args["created_before"] = c.CreatedBefore.UTC()
	}

	return args
}

func (c Condition) Where() string {
	where := []string{}

	if c.AlarmID != "" {
		where = append(where, "alarm_id = @alarm_id")
	}
	if c.GroupKey != "" {
		where = append(where, "group_key = @group_key")
	}

	if c.MatchScope {
		where = append(where, "tenant = @tenant", "site = @site")
	} else {
		if c.Tenant != "" {
			where = append(where, "tenant = @tenant")
		}
		if c.Site != "" {
			where = append(where, "site = @site")
		}
	}

	if len(c.Tenants) > 0 {
		where = append(where, "tenant = ANY(@tenants)")
	}

	if len(c.States) > 0 {
		where = append(where, "state = ANY(@states)")
	}
	if c.OnlyOpen {
		where = append(where, "state NOT IN ('CLOSED', 'SUPPRESSED')")
	}

	if len(c.Severities) > 0 {
		where = append(where, "severity = ANY(@severities)")
	}

	if c.Assignee != "" {
		where = append(where, "assignee = @assignee")
	}

	if !c.CreatedAfter.IsZero() {
		where = append(where, "created_on >= @created_after")
	}
	if !c.CreatedBefore.IsZero() {
		where = append(where, "created_on <= @created_before")
	}

	if len(where) == 0 {
		return "TRUE"
	}

	return strings.Join(where, " AND ")
}

func WithAlarmID(alarmID string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.AlarmID = alarmID
		return c
	}
}

func WithGroupKey(groupKey string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.GroupKey = groupKey
		return c
	}
}

func WithTenant(tenant string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.Tenant = tenant
		return c
	}
}

func WithTenants(tenants []string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.Tenants = unique(tenants)
		return c
	}
}

func WithSite(site string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.Site = site
		return c
	}
}

// WithScope matches tenant and site exactly, empty values included.
func WithScope(tenant, site string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.Tenant = tenant
		c.Site = site
		c.MatchScope = true
		return c
	}
}

func WithStates(states []types.State) ConditionFunc {
	return func(c *Condition) *Condition {
		c.States = states
		return c
	}
}

func WithSeverities(severities []types.Severity) ConditionFunc {
	return func(c *Condition) *Condition {
		c.Severities = severities
		return c
	}
}

func WithAssignee(assignee string) ConditionFunc {
	return func(c *Condition) *Condition {
		c.Assignee = assignee
		return c
	}
}

// WithOpenOnly excludes alarms in terminal states.
func WithOpenOnly() ConditionFunc {
	return func(c *Condition) *Condition {
		c.OnlyOpen = true
		return c
	}
}

func WithCreatedAfter(ts time.Time) ConditionFunc {
	return func(c *Condition) *Condition {
		c.CreatedAfter = ts
		return c
	}
}

func WithCreatedBefore(ts time.Time) ConditionFunc {
	return func(c *Condition) *Condition {
		c.CreatedBefore = ts
		return c
	}
}

func WithOffset(offset int) ConditionFunc {
	return func(c *Condition) *Condition {
		c.offset = &offset
		return c
	}
}

func WithLimit(limit int) ConditionFunc {
	return func(c *Condition) *Condition {
		c.limit = &limit
		return c
	}
}

func WithSortBy(sortBy string) ConditionFunc {
	return func(c *Condition) *Condition {
		switch strings.ToLower(sortBy) {
		case "created":
			fallthrough
		case "created_on":
			c.sortBy = "created_on"
		case "updated":
			fallthrough
		case "modified_on":
			c.sortBy = "modified_on"
		case "severity":
			c.sortBy = "severity"
		case "state":
			c.sortBy = "state"
		case "deadline":
			c.sortBy = "sla_deadline"
		}
		return c
	}
}

func WithSortDesc(desc bool) ConditionFunc {
	return func(c *Condition) *Condition {
		if desc {
			c.sortOrder = "DESC"
		} else {
			c.sortOrder = "ASC"
		}
		return c
	}
}

func unique(s []string) []string {
	keys := make(map[string]bool)
	list := []string{}
	for _, entry := range s {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}

func ParseConditions(ctx context.Context, params map[string][]string) []ConditionFunc {
	log := logging.GetFromContext(ctx)

	conditions := make([]ConditionFunc, 0)

	for k, v := range params {
		switch strings.ToLower(k) {
		case "tenant":
			conditions = append(conditions, WithTenant(v[0]))
		case "site":
			conditions = append(conditions, WithSite(v[0]))
		case "state":
			fallthrough
		case "states":
			states := make([]types.State, 0, len(v))
			for _, s := range v {
				states = append(states, types.State(strings.ToUpper(s)))
			}
			conditions = append(conditions, WithStates(states))
		case "severity":
			fallthrough
		case "severities":
			severities := make([]types.Severity, 0, len(v))
			for _, s := range v {
				severities = append(severities, types.Severity(strings.ToLower(s)))
			}
			conditions = append(conditions, WithSeverities(severities))
		case "assignee":
			conditions = append(conditions, WithAssignee(v[0]))
		case "open":
			if open, _ := strconv.ParseBool(v[0]); open {
				conditions = append(conditions, WithOpenOnly())
			}
		case "createdafter":
			if t, err := time.Parse(time.RFC3339, v[0]); err == nil {
				conditions = append(conditions, WithCreatedAfter(t))
			}
		case "createdbefore":
			if t, err := time.Parse(time.RFC3339, v[0]); err == nil {
				conditions = append(conditions, WithCreatedBefore(t))
			}
		case "limit":
			limit, _ := strconv.Atoi(v[0])
			conditions = append(conditions, WithLimit(limit))
		case "offset":
			offset, _ := strconv.Atoi(v[0])
			conditions = append(conditions, WithOffset(offset))
		case "sortby":
			conditions = append(conditions, WithSortBy(v[0]))
		case "sortorder":
			conditions = append(conditions, WithSortDesc(strings.EqualFold(v[0], "desc")))
		default:
			log.Debug("unknown query parameter", "param", k, "value", v[0])
		}
	}

	return conditions
}
