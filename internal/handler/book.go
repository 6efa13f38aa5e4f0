package handler

import (
	"database/sql"
	"errors"

	"github.com/labstack/echo/v4"

	"librarydesk/internal/apperr"
	"librarydesk/internal/model"
	"librarydesk/internal/repository"
)

// BookHandler serves the catalog and per-copy inventory endpoints.
type BookHandler struct {
	Books  *repository.BookRepo
	Copies *repository.CopyRepo
}

func NewBookHandler(books *repository.BookRepo, copies *repository.CopyRepo) *BookHandler {
	return &BookHandler{Books: books, Copies: copies}
}

func (h *BookHandler) List(c echo.Context) error {
	books, err := h.Books.List(c.Request().Context())
	if err != nil {
		return fail(c, apperr.Wrap(apperr.System, "list books failed", err))
	}
	return ok(c, echo.Map{"books": books})
}

func (h *BookHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	b, err := h.Books.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, notFoundOr(err, "Book not found", "get book failed"))
	}
	return ok(c, echo.Map{"book": b})
}

func (h *BookHandler) Create(c echo.Context) error {
	var b model.Book
	if err := c.Bind(&b); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if b.Title == "" {
		return badRequest(c, "Title is required")
	}
	if err := h.Books.Create(c.Request().Context(), &b); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fail(c, apperr.New(apperr.Conflict, "A book with this ISBN already exists"))
		}
		return fail(c, apperr.Wrap(apperr.System, "create book failed", err))
	}
	return ok(c, echo.Map{"book": b})
}

func (h *BookHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var b model.Book
	if err := c.Bind(&b); err != nil {
		return badRequest(c, "Invalid request body")
	}
	b.ID = id
	if err := h.Books.Update(c.Request().Context(), &b); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fail(c, apperr.New(apperr.Conflict, "A book with this ISBN already exists"))
		}
		return fail(c, notFoundOr(err, "Book not found", "update book failed"))
	}
	return ok(c, echo.Map{"book": b})
}

func (h *BookHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Books.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return fail(c, apperr.New(apperr.Conflict, "Book still has copies"))
		}
		return fail(c, notFoundOr(err, "Book not found", "delete book failed"))
	}
	return ok(c, echo.Map{})
}

// Availability reports the derived copy counts and the shelf locations
// of the available copies.
func (h *BookHandler) Availability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if _, err := h.Books.GetByID(c.Request().Context(), id); err != nil {
		return fail(c, notFoundOr(err, "Book not found", "get book failed"))
	}
	av, err := h.Copies.Availability(c.Request().Context(), id)
	if err != nil {
		return fail(c, apperr.Wrap(apperr.System, "availability failed", err))
	}
	return ok(c, echo.Map{"availability": av})
}

func (h *BookHandler) ListCopies(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	copies, err := h.Copies.ListByBook(c.Request().Context(), id)
	if err != nil {
		return fail(c, apperr.Wrap(apperr.System, "list copies failed", err))
	}
	return ok(c, echo.Map{"copies": copies})
}

func (h *BookHandler) CreateCopy(c echo.Context) error {
	var cp model.BookCopy
	if err := c.Bind(&cp); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if cp.BookID == 0 {
		return badRequest(c, "book_id is required")
	}
	if cp.Status == "" {
		cp.Status = model.CopyStatusAvailable
	}
	if err := h.Copies.Create(c.Request().Context(), &cp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fail(c, apperr.New(apperr.Conflict, "A copy with this barcode already exists"))
		}
		return fail(c, apperr.Wrap(apperr.System, "create copy failed", err))
	}
	return ok(c, echo.Map{"copy": cp})
}

func (h *BookHandler) UpdateCopy(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var cp model.BookCopy
	if err := c.Bind(&cp); err != nil {
		return badRequest(c, "Invalid request body")
	}
	cp.ID = id
	if err := h.Copies.Update(c.Request().Context(), &cp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fail(c, apperr.New(apperr.Conflict, "A copy with this barcode already exists"))
		}
		return fail(c, notFoundOr(err, "Copy not found", "update copy failed"))
	}
	return ok(c, echo.Map{"copy": cp})
}

func (h *BookHandler) DeleteCopy(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Copies.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return fail(c, apperr.New(apperr.Conflict, "Copy has loan history"))
		}
		return fail(c, notFoundOr(err, "Copy not found", "delete copy failed"))
	}
	return ok(c, echo.Map{})
}

type moveCopyReq struct {
	ShelfID flexID `json:"shelf_id"`
}

// MoveCopy reshelves a copy, recomputing its location code from the
// destination shelf's section.
func (h *BookHandler) MoveCopy(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req moveCopyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ShelfID == 0 {
		return badRequest(c, "shelf_id is required")
	}
	cp, err := h.Copies.Move(c.Request().Context(), id, req.ShelfID.Int64())
	if err != nil {
		return fail(c, notFoundOr(err, "Copy or shelf not found", "move copy failed"))
	}
	return ok(c, echo.Map{"copy": cp})
}

// notFoundOr maps sql.ErrNoRows to a not-found message and wraps
// anything else as a system error, passing typed errors through.
func notFoundOr(err error, notFoundMsg, sysMsg string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.NotFound, notFoundMsg)
	}
	return apperr.Wrap(apperr.System, sysMsg, err)
}
