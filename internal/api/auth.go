package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/marketplace-core/internal/audit"
	"github.com/nerrad567/marketplace-core/internal/auth"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/influxdb"
)

// credentialsRequest is the body for user signup and both logins.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// vendorSignupRequest is the body for POST /api/vendor/register.
type vendorSignupRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	StoreName string `json:"storeName"`
}

// userView is the public shape of a shopper account.
type userView struct {
	ID    string    `json:"id"`
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

// vendorView is the public shape of a vendor account.
type vendorView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	StoreName string `json:"storeName"`
}

type userAuthResponse struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

type vendorAuthResponse struct {
	Vendor vendorView `json:"vendor"`
	Token  string     `json:"token"`
}

func newUserAuthResponse(res *auth.AuthResult) userAuthResponse {
	p := res.Principal
	return userAuthResponse{
		User:  userView{ID: p.ID, Email: p.Email, Role: p.Role},
		Token: res.Token,
	}
}

func newVendorAuthResponse(res *auth.AuthResult) vendorAuthResponse {
	p := res.Principal
	return vendorAuthResponse{
		Vendor: vendorView{ID: p.ID, Name: p.Name, Email: p.Email, StoreName: p.StoreName},
		Token:  res.Token,
	}
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// handleUserSignup registers a shopper.
func (s *Server) handleUserSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}

	res, err := s.auth.SignupUser(r.Context(), auth.SignupInput{Email: req.Email, Password: req.Password})
	if err != nil {
		s.recordAuthEvent(auth.RoleUser, audit.ActionSignup, false)
		s.writeDomainError(w, r, err)
		return
	}

	s.recordAuthEvent(auth.RoleUser, audit.ActionSignup, true)
	s.auditLog(audit.ActionSignup, audit.EntityUser, res.Principal.ID, res.Principal.ID, nil)
	s.logger.Info("user signed up", "user_id", res.Principal.ID)
	writeJSON(w, http.StatusCreated, newUserAuthResponse(res))
}

// handleUserLogin authenticates a shopper.
func (s *Server) handleUserLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}

	res, err := s.auth.Login(r.Context(), auth.RoleUser, req.Email, req.Password)
	if err != nil {
		s.recordAuthEvent(auth.RoleUser, audit.ActionLogin, false)
		s.writeDomainError(w, r, err)
		return
	}

	s.recordAuthEvent(auth.RoleUser, audit.ActionLogin, true)
	s.auditLog(audit.ActionLogin, audit.EntityUser, res.Principal.ID, res.Principal.ID, nil)
	writeJSON(w, http.StatusOK, newUserAuthResponse(res))
}

// handleVendorSignup registers a vendor and their store.
func (s *Server) handleVendorSignup(w http.ResponseWriter, r *http.Request) {
	var req vendorSignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}

	res, err := s.auth.SignupVendor(r.Context(), auth.SignupInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		StoreName: req.StoreName,
	})
	if err != nil {
		s.recordAuthEvent(auth.RoleVendor, audit.ActionSignup, false)
		s.writeDomainError(w, r, err)
		return
	}

	s.recordAuthEvent(auth.RoleVendor, audit.ActionSignup, true)
	s.auditLog(audit.ActionSignup, audit.EntityVendor, res.Principal.ID, res.Principal.ID,
		map[string]any{"store_name": res.Principal.StoreName})
	s.logger.Info("vendor registered", "vendor_id", res.Principal.ID, "store", res.Principal.StoreName)
	writeJSON(w, http.StatusCreated, newVendorAuthResponse(res))
}

// handleVendorLogin authenticates a vendor.
func (s *Server) handleVendorLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}

	res, err := s.auth.Login(r.Context(), auth.RoleVendor, req.Email, req.Password)
	if err != nil {
		s.recordAuthEvent(auth.RoleVendor, audit.ActionLogin, false)
		s.writeDomainError(w, r, err)
		return
	}

	s.recordAuthEvent(auth.RoleVendor, audit.ActionLogin, true)
	s.auditLog(audit.ActionLogin, audit.EntityVendor, res.Principal.ID, res.Principal.ID, nil)
	writeJSON(w, http.StatusOK, newVendorAuthResponse(res))
}

// handleIdentity returns the identity resolved by the gate. It serves both
// /api/vendor/verify and /api/user/me.
func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r.Context())
	if ident == nil {
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, ident)
}

// recordAuthEvent counts a signup or login attempt in InfluxDB.
func (s *Server) recordAuthEvent(role auth.Role, action string, ok bool) {
	outcome := influxdb.OutcomeSuccess
	if !ok {
		outcome = influxdb.OutcomeFailure
	}
	s.influx.WriteAuthEvent(role.String(), action, outcome)
}
