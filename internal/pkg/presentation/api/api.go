package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/WispAyr/overwatch-sub002/internal/pkg/application/alarms"
	"github.com/WispAyr/overwatch-sub002/internal/pkg/application/hierarchy"
	"github.com/WispAyr/overwatch-sub002/internal/pkg/application/webevents"
	"github.com/WispAyr/overwatch-sub002/internal/pkg/infrastructure/router"
	"github.com/WispAyr/overwatch-sub002/internal/pkg/infrastructure/storage"
	"github.com/WispAyr/overwatch-sub002/internal/pkg/presentation/api/auth"
	"github.com/WispAyr/overwatch-sub002/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("alarm-mgmt/api")

// RegisterHandlers mounts the alarm api on the given mux.
func RegisterHandlers(ctx context.Context, mux *http.ServeMux, policies io.Reader, svc alarms.AlarmService, hierarchySvc *hierarchy.Service, we webevents.WebEvents) (*chi.Mux, error) {
	r, err := newRouter(ctx, policies, svc, hierarchySvc, we)
	if err != nil {
		return nil, err
	}

	mux.Handle("/", r)

	return r, nil
}

func newRouter(ctx context.Context, policies io.Reader, svc alarms.AlarmService, hierarchySvc *hierarchy.Service, we webevents.WebEvents) (*chi.Mux, error) {
	rootMux := router.New("alarm-mgmt")

	rootMux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	log := logging.GetFromContext(ctx)

	authenticator, err := auth.NewAuthenticator(ctx, policies)
	if err != nil {
		return nil, fmt.Errorf("failed to create api authenticator: %w", err)
	}

	rootMux.Route("/api/v0", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticator.RequireAccess())

			r.Route("/alarms", func(r chi.Router) {
				r.Get("/", queryAlarmsHandler(log, svc))
				r.Post("/", ingestEventHandler(log, svc))
				r.Get("/export", exportAlarmsHandler(log, svc))

				r.Post("/bulk/transition", bulkTransitionHandler(log, svc))
				r.Post("/bulk/assign", bulkAssignHandler(log, svc))
				r.Post("/bulk/severity", bulkSetSeverityHandler(log, svc))

				r.Route("/{alarmID}", func(r chi.Router) {
					r.Get("/", getAlarmHandler(log, svc))
					r.Post("/transition", transitionHandler(log, svc))
					r.Post("/ack", acknowledgeHandler(log, svc))
					r.Post("/advance", advanceHandler(log, svc))
					r.Post("/snooze", snoozeHandler(log, svc))
					r.Post("/assign", assignHandler(log, svc))
					r.Post("/severity", setSeverityHandler(log, svc))
					r.Post("/notes", addNoteHandler(log, svc))
					r.Put("/runbook", updateRunbookHandler(log, svc))
					r.Put("/escalation", updateEscalationPolicyHandler(log, svc))
					r.Post("/watchers", addWatcherHandler(log, svc))
					r.Delete("/watchers/{watcher}", removeWatcherHandler(log, svc))
				})
			})

			r.Get("/stats", statsHandler(log, svc, hierarchySvc))
		})

		if we != nil {
			r.Get("/events", we.Server().ServeHTTP)
		}
	})

	return rootMux, nil
}

type transitionRequest struct {
	ToState string `json:"toState"`
	User    string `json:"user"`
	Note    string `json:"note,omitempty"`
}

type assignRequest struct {
	Assignee string `json:"assignee"`
	User     string `json:"user"`
}

type severityRequest struct {
	Severity string `json:"severity"`
	User     string `json:"user"`
}

type snoozeRequest struct {
	DurationMinutes int    `json:"durationMinutes"`
	User            string `json:"user"`
}

type noteRequest struct {
	Note string `json:"note"`
	User string `json:"user"`
}

type valueRequest struct {
	Value string `json:"value"`
	User  string `json:"user"`
}

type watcherRequest struct {
	Watcher string `json:"watcher"`
	User    string `json:"user"`
}

type bulkTransitionRequest struct {
	AlarmIDs []string `json:"alarmIDs"`
	ToState  string   `json:"toState"`
	User     string   `json:"user"`
	Note     string   `json:"note,omitempty"`
}

type bulkAssignRequest struct {
	AlarmIDs []string `json:"alarmIDs"`
	Assignee string   `json:"assignee"`
	User     string   `json:"user"`
}

type bulkSeverityRequest struct {
	AlarmIDs []string `json:"alarmIDs"`
	Severity string   `json:"severity"`
	User     string   `json:"user"`
}

type bulkResultItem struct {
	AlarmID string `json:"alarmID"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	State   string   `json:"state,omitempty"`
	Allowed []string `json:"allowedStates,omitempty"`
}

func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var invalidTransition *alarms.InvalidTransitionError

	if errors.As(err, &invalidTransition) {
		allowed := make([]string, 0, len(invalidTransition.Allowed))
		for _, s := range invalidTransition.Allowed {
			allowed = append(allowed, string(s))
		}

		writeJson(w, http.StatusBadRequest, errorResponse{
			Error:   invalidTransition.Error(),
			State:   string(invalidTransition.From),
			Allowed: allowed,
		})
		return
	}

	switch {
	case errors.Is(err, alarms.ErrAlarmNotFound):
		writeJson(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, alarms.ErrInvalidValue):
		writeJson(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, alarms.ErrConcurrentModification):
		writeJson(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		log.Error("request failed", "err", err.Error())
		writeJson(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJson(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func decode(r *http.Request, into any) error {
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("%w: unable to read body", alarms.ErrInvalidValue)
	}

	err = json.Unmarshal(body, into)
	if err != nil {
		return fmt.Errorf("%w: malformed request body", alarms.ErrInvalidValue)
	}

	return nil
}

func queryAlarmsHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		allowedTenants := auth.GetAllowedTenantsFromContext(r.Context())

		ctx, span := tracer.Start(r.Context(), "query-alarms")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		conditions := storage.ParseConditions(ctx, r.URL.Query())

		collection, err := svc.Query(ctx, allowedTenants, conditions...)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusOK, collectionResponse(collection))
	}
}

func collectionResponse(collection types.Collection[types.Alarm]) map[string]any {
	return map[string]any{
		"data":       collection.Data,
		"count":      collection.Count,
		"offset":     collection.Offset,
		"limit":      collection.Limit,
		"totalCount": collection.TotalCount,
	}
}

func getAlarmHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		allowedTenants := auth.GetAllowedTenantsFromContext(r.Context())

		ctx, span := tracer.Start(r.Context(), "get-alarm")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		alarmID := chi.URLParam(r, "alarmID")

		alarm, err := svc.GetByID(ctx, alarmID, allowedTenants)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		if withHistory, _ := strconv.ParseBool(r.URL.Query().Get("history")); withHistory {
			history, err := svc.GetHistory(ctx, alarmID, allowedTenants)
			if err != nil {
				writeError(w, requestLogger, err)
				return
			}
			alarm.History = history
		}

		writeJson(w, http.StatusOK, alarm)
	}
}

func ingestEventHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "ingest-event")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var ev types.DetectionEvent

		err = decode(r, &ev)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		if ev.Timestamp.IsZero() {
			ev.Timestamp = time.Now().UTC()
		}

		alarmID, err := svc.Correlate(ctx, ev)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusCreated, map[string]string{"alarmID": alarmID})
	}
}

func transitionHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "transition-alarm")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var req transitionRequest

		err = decode(r, &req)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		alarm, err := svc.Transition(ctx, chi.URLParam(r, "alarmID"), types.State(req.ToState), req.User, req.Note)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusOK, alarm)
	}
}

func acknowledgeHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "acknowledge-alarm")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var req struct {
			User string `json:"user"`
		}

		err = decode(r, &req)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		alarm, err := svc.Acknowledge(ctx, chi.URLParam(r, "alarmID"), req.User)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusOK, alarm)
	}
}

func advanceHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "advance-alarm")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var req struct {
			User string `json:"user"`
			Note string `json:"note,omitempty"`
		}

		err = decode(r, &req)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		alarm, err := svc.Advance(ctx, chi.URLParam(r, "alarmID"), req.User, req.Note)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusOK, alarm)
	}
}

func snoozeHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "snooze-alarm")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var req snoozeRequest

		err = decode(r, &req)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		alarm, err := svc.Snooze(ctx, chi.URLParam(r, "alarmID"), time.Duration(req.DurationMinutes)*time.Minute, req.User)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusOK, alarm)
	}
}

func assignHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "assign-alarm")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var req assignRequest

		err = decode(r, &req)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		alarm, err := svc.Assign(ctx, chi.URLParam(r, "alarmID"), req.Assignee, req.User)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusOK, alarm)
	}
}

func setSeverityHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "set-severity")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var req severityRequest

		err = decode(r, &req)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		alarm, err := svc.SetSeverity(ctx, chi.URLParam(r, "alarmID"), types.Severity(req.Severity), req.User)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusOK, alarm)
	}
}

func addNoteHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "add-note")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var req noteRequest

		err = decode(r, &req)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		alarm, err := svc.AddNote(ctx, chi.URLParam(r, "alarmID"), req.Note, req.User)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusOK, alarm)
	}
}

func updateRunbookHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "update-runbook")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var req valueRequest

		err = decode(r, &req)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		alarm, err := svc.UpdateRunbook(ctx, chi.URLParam(r, "alarmID"), req.Value, req.User)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusOK, alarm)
	}
}

func updateEscalationPolicyHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "update-escalation-policy")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var req valueRequest

		err = decode(r, &req)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		alarm, err := svc.UpdateEscalationPolicy(ctx, chi.URLParam(r, "alarmID"), req.Value, req.User)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusOK, alarm)
	}
}

func addWatcherHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "add-watcher")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var req watcherRequest

		err = decode(r, &req)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		alarm, err := svc.AddWatcher(ctx, chi.URLParam(r, "alarmID"), req.Watcher, req.User)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusOK, alarm)
	}
}

func removeWatcherHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "remove-watcher")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		alarm, err := svc.RemoveWatcher(ctx, chi.URLParam(r, "alarmID"), chi.URLParam(r, "watcher"), r.URL.Query().Get("user"))
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusOK, alarm)
	}
}

func bulkTransitionHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "bulk-transition")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var req bulkTransitionRequest

		err = decode(r, &req)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		results := svc.BulkTransition(ctx, req.AlarmIDs, types.State(req.ToState), req.User, req.Note)

		writeJson(w, http.StatusMultiStatus, bulkResponse(results))
	}
}

func bulkAssignHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "bulk-assign")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var req bulkAssignRequest

		err = decode(r, &req)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		results := svc.BulkAssign(ctx, req.AlarmIDs, req.Assignee, req.User)

		writeJson(w, http.StatusMultiStatus, bulkResponse(results))
	}
}

func bulkSetSeverityHandler(log *slog.Logger, svc alarms.AlarmService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "bulk-set-severity")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		var req bulkSeverityRequest

		err = decode(r, &req)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		results := svc.BulkSetSeverity(ctx, req.AlarmIDs, types.Severity(req.Severity), req.User)

		writeJson(w, http.StatusMultiStatus, bulkResponse(results))
	}
}

func bulkResponse(results []alarms.BulkResult) []bulkResultItem {
	items := make([]bulkResultItem, 0, len(results))

	for _, result := range results {
		item := bulkResultItem{
			AlarmID: result.AlarmID,
			Success: result.Err == nil,
		}
		if result.Err != nil {
			item.Error = result.Err.Error()
		}
		items = append(items, item)
	}

	return items
}

func statsHandler(log *slog.Logger, svc alarms.AlarmService, hierarchySvc *hierarchy.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		allowedTenants := auth.GetAllowedTenantsFromContext(r.Context())

		ctx, span := tracer.Start(r.Context(), "alarm-stats")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		scope, err := hierarchy.ParseScope(r.URL.Query().Get("scope"))
		if err != nil {
			writeJson(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		conditions := []storage.ConditionFunc{storage.WithOpenOnly(), storage.WithLimit(1000)}

		switch scope.Type {
		case hierarchy.ScopeOrganization:
			conditions = append(conditions, storage.WithTenant(scope.ID))
		case hierarchy.ScopeSite:
			conditions = append(conditions, storage.WithSite(scope.ID))
		}

		collection, err := svc.Query(ctx, allowedTenants, conditions...)
		if err != nil {
			writeError(w, requestLogger, err)
			return
		}

		writeJson(w, http.StatusOK, hierarchySvc.Stats(ctx, scope, collection.Data))
	}
}
