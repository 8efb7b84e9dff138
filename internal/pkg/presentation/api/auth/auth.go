package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"
	"go.opentelemetry.io/otel"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
)

type tenantsContextKey struct{ name string }

var tenantsCtxKey = &tenantsContextKey{"allowed-tenants"}

var tracer = otel.Tracer("alarm-mgmt/authz")

type Authenticator interface {
	RequireAccess() func(http.Handler) http.Handler
}

type impl struct {
	query rego.PreparedEvalQuery
}

// NewAuthenticator prepares the authorization policy for evaluation. The
// policy decides, per token, which tenants the caller may operate on.
func NewAuthenticator(ctx context.Context, policies io.Reader) (Authenticator, error) {
	module, err := io.ReadAll(policies)
	if err != nil {
		return nil, fmt.Errorf("unable to read authz policies: %s", err.Error())
	}

	query, err := rego.New(
		rego.Query("x = data.alarms.authz.allow"),
		rego.Module("authz.rego", string(module)),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}

	return &impl{query: query}, nil
}

func (a *impl) RequireAccess() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var err error

			logger := logging.GetFromContext(r.Context())

			_, span := tracer.Start(r.Context(), "check-auth")
			defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

			token := r.Header.Get("Authorization")

			if token == "" || !strings.HasPrefix(token, "Bearer ") {
				err = errors.New("authorization header missing")
				logger.Info(err.Error())
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			input := map[string]any{
				"token": token[7:],
				"path":  r.URL.Path,
			}

			results, err := a.query.Eval(r.Context(), rego.EvalInput(input))
			if err != nil {
				logger.Error("opa eval failed", "err", err.Error())
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if len(results) == 0 {
				err = errors.New("opa query could not be satisfied")
				logger.Error("auth failed", "err", err.Error())
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			binding := results[0].Bindings["x"]

			// A denied request comes back as a plain false.
			if allowed, ok := binding.(bool); ok && !allowed {
				err = errors.New("authorization failed")
				logger.Warn(err.Error())
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			result, ok := binding.(map[string]any)
			if !ok {
				err = errors.New("unexpected result type")
				logger.Error("opa error", "err", err.Error())
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			anyTenants, ok := result["tenants"].([]any)
			if !ok {
				err = errors.New("bad response from authz policy engine")
				logger.Error("opa error", "err", err.Error())
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			tenants := make([]string, 0, len(anyTenants))
			for _, t := range anyTenants {
				if tenant, ok := t.(string); ok {
					tenants = append(tenants, tenant)
				}
			}

			if len(tenants) == 0 {
				err = errors.New("authorization failed")
				logger.Warn(err.Error())
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAllowedTenants(r.Context(), tenants)))
		})
	}
}

func WithAllowedTenants(ctx context.Context, tenants []string) context.Context {
	return context.WithValue(ctx, tenantsCtxKey, tenants)
}

// GetAllowedTenantsFromContext returns the tenants the caller may operate
// on, or an empty slice when the request was not authenticated.
func GetAllowedTenantsFromContext(ctx context.Context) []string {
	tenants, ok := ctx.Value(tenantsCtxKey).([]string)
	if !ok {
		return []string{}
	}

	return tenants
}
