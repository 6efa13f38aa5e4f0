package handler

import (
	"github.com/labstack/echo/v4"

	"librarydesk/internal/apperr"
	"librarydesk/internal/model"
	"librarydesk/internal/repository"
)

// ShelfHandler serves the shelf endpoints.
type ShelfHandler struct {
	Shelves *repository.ShelfRepo
}

func NewShelfHandler(shelves *repository.ShelfRepo) *ShelfHandler {
	return &ShelfHandler{Shelves: shelves}
}

func (h *ShelfHandler) List(c echo.Context) error {
	shelves, err := h.Shelves.List(c.Request().Context())
	if err != nil {
		return fail(c, apperr.Wrap(apperr.System, "list shelves failed", err))
	}
	return ok(c, echo.Map{"shelves": shelves})
}

func (h *ShelfHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	s, err := h.Shelves.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, notFoundOr(err, "Shelf not found", "get shelf failed"))
	}
	return ok(c, echo.Map{"shelf": s})
}

func (h *ShelfHandler) Create(c echo.Context) error {
	var s model.Shelf
	if err := c.Bind(&s); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if s.Name == "" {
		return badRequest(c, "Name is required")
	}
	if err := h.Shelves.Create(c.Request().Context(), &s); err != nil {
		return fail(c, apperr.Wrap(apperr.System, "create shelf failed", err))
	}
	return ok(c, echo.Map{"shelf": s})
}

func (h *ShelfHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var s model.Shelf
	if err := c.Bind(&s); err != nil {
		return badRequest(c, "Invalid request body")
	}
	s.ID = id
	if err := h.Shelves.Update(c.Request().Context(), &s); err != nil {
		return fail(c, notFoundOr(err, "Shelf not found", "update shelf failed"))
	}
	return ok(c, echo.Map{"shelf": s})
}

// Delete removes a shelf; copies on it become unshelved rather than
// deleted.
func (h *ShelfHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Shelves.Delete(c.Request().Context(), id); err != nil {
		return fail(c, notFoundOr(err, "Shelf not found", "delete shelf failed"))
	}
	return ok(c, echo.Map{})
}
