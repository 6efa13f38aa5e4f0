package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"librarydesk/internal/apperr"
	"librarydesk/internal/auth"
	"librarydesk/internal/model"
	"librarydesk/internal/repository"
)

// MemberHandler serves the member endpoints.  Credential fields never
// appear in responses; the dedicated credentials endpoint exists so a
// librarian can hand a member their PIN and QR card.
type MemberHandler struct {
	Members *repository.MemberRepo
	Auth    *auth.Authenticator
}

func NewMemberHandler(members *repository.MemberRepo, a *auth.Authenticator) *MemberHandler {
	return &MemberHandler{Members: members, Auth: a}
}

func (h *MemberHandler) List(c echo.Context) error {
	members, err := h.Members.List(c.Request().Context())
	if err != nil {
		return fail(c, apperr.Wrap(apperr.System, "list members failed", err))
	}
	return ok(c, echo.Map{"members": members})
}

func (h *MemberHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	m, err := h.Members.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, notFoundOr(err, "Member not found", "get member failed"))
	}
	return ok(c, echo.Map{"member": m})
}

func (h *MemberHandler) Create(c echo.Context) error {
	var m model.Member
	if err := c.Bind(&m); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if m.Name == "" || m.Email == "" {
		return badRequest(c, "Name and email are required")
	}
	if m.Status == "" {
		m.Status = model.MemberStatusActive
	}
	if err := h.Members.Create(c.Request().Context(), &m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fail(c, apperr.New(apperr.Conflict, "A member with this email already exists"))
		}
		return fail(c, apperr.Wrap(apperr.System, "create member failed", err))
	}
	return ok(c, echo.Map{"member": m})
}

func (h *MemberHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var m model.Member
	if err := c.Bind(&m); err != nil {
		return badRequest(c, "Invalid request body")
	}
	m.ID = id
	if err := h.Members.Update(c.Request().Context(), &m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fail(c, apperr.New(apperr.Conflict, "A member with this email already exists"))
		}
		return fail(c, notFoundOr(err, "Member not found", "update member failed"))
	}
	return ok(c, echo.Map{"member": m})
}

func (h *MemberHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Members.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return fail(c, apperr.New(apperr.Conflict, "Member has loan history"))
		}
		return fail(c, notFoundOr(err, "Member not found", "delete member failed"))
	}
	return ok(c, echo.Map{})
}

// Credentials returns the member's PIN and QR key, generating them on
// first use.  Restricted to staff roles by the router.
func (h *MemberHandler) Credentials(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	m, err := h.Members.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, notFoundOr(err, "Member not found", "get member failed"))
	}
	if err := h.Auth.EnsureCredentials(c.Request().Context(), m); err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{
		"member_id": m.ID,
		"pin":       m.PIN,
		"qr_code":   m.QRCode,
	})
}
