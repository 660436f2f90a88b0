package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/marketplace-core/internal/auth"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/logging"
)

// Gate denial reasons reported to the observer.
const (
	ReasonTokenMissing      = "token_missing"
	ReasonTokenInvalid      = "token_invalid"
	ReasonTokenExpired      = "token_expired"
	ReasonWrongRole         = "wrong_role"
	ReasonPrincipalNotFound = "principal_not_found"
	ReasonLookupFailed      = "lookup_failed"
)

// GateDecision is one allow or deny outcome of the auth gate.
type GateDecision struct {
	Required    auth.Role // empty when any authenticated principal is accepted
	Allowed     bool
	Reason      string // empty when allowed
	PrincipalID string // set once the token has been verified
	Method      string
	Path        string
}

// GateObserver receives every gate decision. Implementations must be safe
// for concurrent use and must not block.
type GateObserver interface {
	ObserveGate(ctx context.Context, d GateDecision)
}

// defaultGateObserver logs denials at Warn and counts decisions in InfluxDB.
type defaultGateObserver struct {
	logger *logging.Logger
	influx *influxdb.Client
}

func (o *defaultGateObserver) ObserveGate(ctx context.Context, d GateDecision) {
	role := d.Required.String()
	if role == "" {
		role = "any"
	}

	if d.Allowed {
		o.logger.Debug("auth gate allowed", "role", role, "principal_id", d.PrincipalID, "path", d.Path)
		o.influx.WriteGateDecision(role, influxdb.OutcomeAllowed, "")
		return
	}

	o.logger.Warn("auth gate denied",
		"role", role,
		"reason", d.Reason,
		"principal_id", d.PrincipalID,
		"method", d.Method,
		"path", d.Path,
		"request_id", ctx.Value(ctxKeyRequestID),
	)
	o.influx.WriteGateDecision(role, influxdb.OutcomeDenied, d.Reason)
}

// gateDenial is the response written for a denied request.
type gateDenial struct {
	status  int
	code    string
	message string
}

// requireAuth admits any authenticated principal.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return s.requireRole("")(next)
}

// requireRole returns middleware admitting only principals with role, or
// any role when role is empty. The resolved identity is attached to the
// request context.
func (s *Server) requireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, d, denial := s.authenticate(r, role)
			s.observer.ObserveGate(r.Context(), d)

			if denial != nil {
				writeError(w, denial.status, denial.code, denial.message)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), ident)))
		})
	}
}

// authenticate runs the gate steps in order: bearer extraction, token
// verification, role check, principal lookup.
func (s *Server) authenticate(r *http.Request, role auth.Role) (*auth.Identity, GateDecision, *gateDenial) {
	d := GateDecision{Required: role, Method: r.Method, Path: r.URL.Path}

	deny := func(reason string, status int, code, message string) (*auth.Identity, GateDecision, *gateDenial) {
		d.Reason = reason
		return nil, d, &gateDenial{status: status, code: code, message: message}
	}
	forbidden := func(reason string) (*auth.Identity, GateDecision, *gateDenial) {
		return deny(reason, http.StatusForbidden, ErrCodeForbidden, forbiddenMessage(role))
	}

	token, err := auth.ParseBearer(r.Header.Get("Authorization"))
	if errors.Is(err, auth.ErrTokenMissing) {
		return deny(ReasonTokenMissing, http.StatusUnauthorized, ErrCodeUnauthorized, msgTokenRequired)
	}
	if err != nil {
		return deny(ReasonTokenInvalid, http.StatusUnauthorized, ErrCodeUnauthorized, msgInvalidToken)
	}

	claims, err := s.auth.Tokens().Verify(token)
	if err != nil {
		reason := ReasonTokenInvalid
		if errors.Is(err, auth.ErrTokenExpired) {
			reason = ReasonTokenExpired
		}
		return deny(reason, http.StatusUnauthorized, ErrCodeUnauthorized, msgInvalidToken)
	}
	d.PrincipalID = claims.PrincipalID

	if role != "" && claims.Role != role {
		return forbidden(ReasonWrongRole)
	}

	repo, err := s.auth.Repository(claims.Role)
	if err != nil {
		return deny(ReasonTokenInvalid, http.StatusUnauthorized, ErrCodeUnauthorized, msgInvalidToken)
	}

	ident, err := repo.GetIdentity(r.Context(), claims.PrincipalID)
	if err != nil {
		if !errors.Is(err, auth.ErrPrincipalNotFound) {
			s.logger.Error("auth gate principal lookup failed", "principal_id", claims.PrincipalID, "error", err)
			return deny(ReasonLookupFailed, http.StatusInternalServerError, ErrCodeInternal, msgInternal)
		}
		if role != "" {
			return forbidden(ReasonPrincipalNotFound)
		}
		return deny(ReasonPrincipalNotFound, http.StatusUnauthorized, ErrCodeUnauthorized, "Principal not found")
	}

	d.Allowed = true
	return ident, d, nil
}

// forbiddenMessage is the 403 text for a role gate, e.g.
// "Access denied. Vendor only".
func forbiddenMessage(role auth.Role) string {
	name := role.String()
	if name == "" {
		return "Access denied"
	}
	return "Access denied. " + strings.ToUpper(name[:1]) + name[1:] + " only"
}
