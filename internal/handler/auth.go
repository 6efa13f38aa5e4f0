package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"librarydesk/internal/auth"
	"librarydesk/internal/middleware"
	"librarydesk/internal/model"
	"librarydesk/internal/notify"
)

// AuthHandler bundles the authenticator, session store and hub behind
// the login endpoints.
type AuthHandler struct {
	Auth     *auth.Authenticator
	Sessions auth.Store
	TTL      time.Duration
	Hub      *notify.Hub
}

func NewAuthHandler(a *auth.Authenticator, store auth.Store, ttl time.Duration, hub *notify.Hub) *AuthHandler {
	return &AuthHandler{Auth: a, Sessions: store, TTL: ttl, Hub: hub}
}

type loginReq struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"` // legacy alias for identifier
	Email      string `json:"email"`    // legacy alias for identifier
	Password   string `json:"password"`
}

type pinLoginReq struct {
	PIN string `json:"pin"`
}

type qrLoginReq struct {
	QRCode string `json:"qr_code"`
	PIN    string `json:"pin"`
}

type sessionReq struct {
	SessionID string `json:"session_id"`
}

// Login handles identifier+password (staff) with member email+PIN
// fallback.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Username
	}
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" || req.Password == "" {
		return badRequest(c, "Identifier and password are required")
	}
	p, err := h.Auth.Authenticate(c.Request().Context(), identifier, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return h.openSession(c, p)
}

// LoginPIN handles PIN-only login at the kiosk.
func (h *AuthHandler) LoginPIN(c echo.Context) error {
	var req pinLoginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.PIN == "" {
		return badRequest(c, "PIN is required")
	}
	p, err := h.Auth.AuthenticateWithPIN(c.Request().Context(), req.PIN)
	if err != nil {
		return fail(c, err)
	}
	return h.openSession(c, p)
}

// LoginQR handles card-scan login, optionally cross-checked with a
// PIN.
func (h *AuthHandler) LoginQR(c echo.Context) error {
	var req qrLoginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.QRCode == "" {
		return badRequest(c, "QR code is required")
	}
	p, err := h.Auth.AuthenticateWithQR(c.Request().Context(), req.QRCode, req.PIN)
	if err != nil {
		return fail(c, err)
	}
	return h.openSession(c, p)
}

func (h *AuthHandler) openSession(c echo.Context, p *model.Principal) error {
	s := auth.NewSession(*p, h.TTL)
	if err := h.Sessions.Put(c.Request().Context(), s); err != nil {
		return fail(c, err)
	}
	if h.Hub != nil && p.Kind == model.PrincipalMember {
		h.Hub.Broadcast("member_login", echo.Map{
			"member_id": p.ID,
			"name":      p.Name,
		})
	}
	return ok(c, echo.Map{
		"session_id": s.ID,
		"expires_at": s.ExpiresAt,
		"user":       p,
	})
}

// ValidateSession reports whether a session id is still live.
func (h *AuthHandler) ValidateSession(c echo.Context) error {
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	s, err := h.Sessions.Get(c.Request().Context(), req.SessionID)
	if err != nil {
		return ok(c, echo.Map{"valid": false})
	}
	return ok(c, echo.Map{
		"valid":      true,
		"expires_at": s.ExpiresAt,
		"user":       s.Principal,
	})
}

// Logout deletes the session.  Unknown ids are fine; logout is
// idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req sessionReq
	_ = c.Bind(&req)
	if req.SessionID == "" {
		if s, okCast := c.Get(middleware.ContextSession).(*auth.Session); okCast {
			req.SessionID = s.ID
		}
	}
	if req.SessionID != "" {
		_ = h.Sessions.Delete(c.Request().Context(), req.SessionID)
	}
	return ok(c, echo.Map{})
}
