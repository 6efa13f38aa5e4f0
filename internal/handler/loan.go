package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"librarydesk/internal/apperr"
	"librarydesk/internal/loan"
	"librarydesk/internal/middleware"
	"librarydesk/internal/model"
	"librarydesk/internal/notify"
	"librarydesk/internal/queue"
	"librarydesk/internal/repository"
)

// LoanHandler serves the borrow/return endpoints and the grouped loan
// queries.  Successful mutations broadcast a notification and publish
// a receipt event; both are fire-and-forget and never fail the call.
type LoanHandler struct {
	Engine  *loan.Engine
	Loans   *repository.LoanRepo
	Hub     *notify.Hub
	AMQPURL string
}

func NewLoanHandler(engine *loan.Engine, loans *repository.LoanRepo, hub *notify.Hub, amqpURL string) *LoanHandler {
	return &LoanHandler{Engine: engine, Loans: loans, Hub: hub, AMQPURL: amqpURL}
}

type borrowReq struct {
	MemberID     flexID   `json:"member_id"`
	CopyIDs      []flexID `json:"copy_ids"`
	CheckoutDate string   `json:"checkout_date"`
	DueDate      string   `json:"due_date"`
}

type returnReq struct {
	LoanIDs []flexID `json:"loan_ids"`
	LoanID  flexID   `json:"loan_id"`
	Rating  *int     `json:"rating"`
	Review  *string  `json:"review"`
}

type returnQRReq struct {
	MemberID      flexID   `json:"member_id"`
	LoanIDs       []flexID `json:"loan_ids"`
	TransactionID string   `json:"transaction_id"`
}

// Borrow lends a batch of copies to a member in one transaction group.
func (h *LoanHandler) Borrow(c echo.Context) error {
	var req borrowReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	loans, err := h.Engine.Borrow(c.Request().Context(), req.MemberID.Int64(), toInt64(req.CopyIDs), req.CheckoutDate, req.DueDate)
	if err != nil {
		return fail(c, err)
	}

	txn := loans[0].TransactionID
	h.notifyAndPrint(queue.ReceiptKindBorrow, txn, req.MemberID.Int64())
	return ok(c, echo.Map{
		"loans":          loans,
		"transaction_id": txn,
	})
}

// Return closes loans.  With a rating or review present it takes the
// single-loan review path; otherwise it closes the named loans plus
// the rest of their transaction group.
func (h *LoanHandler) Return(c echo.Context) error {
	var req returnReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Rating != nil || req.Review != nil {
		p := currentMember(c)
		if p == 0 {
			return fail(c, apperr.New(apperr.Validation, "Review returns require a member session"))
		}
		l, err := h.Engine.ReturnWithReview(c.Request().Context(), req.LoanID.Int64(), p, req.Rating, req.Review)
		if err != nil {
			return fail(c, err)
		}
		h.notifyAndPrint(queue.ReceiptKindReturn, l.TransactionID, l.MemberID)
		return ok(c, echo.Map{"loan": l})
	}

	ids := toInt64(req.LoanIDs)
	if req.LoanID != 0 {
		ids = append(ids, req.LoanID.Int64())
	}
	loans, err := h.Engine.Return(c.Request().Context(), ids)
	if err != nil {
		return fail(c, err)
	}
	if len(loans) > 0 {
		h.notifyAndPrint(queue.ReceiptKindReturn, loans[0].TransactionID, loans[0].MemberID)
	}
	return ok(c, echo.Map{"returned": len(loans), "loans": loans})
}

// ReturnQR is the scan-driven return: already-settled loans are
// skipped silently and a count of zero is still a success.
func (h *LoanHandler) ReturnQR(c echo.Context) error {
	var req returnQRReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	n, err := h.Engine.ReturnScanned(c.Request().Context(), toInt64(req.LoanIDs), req.MemberID.Int64(), req.TransactionID)
	if err != nil {
		return fail(c, err)
	}
	if n > 0 {
		h.notifyAndPrint(queue.ReceiptKindReturn, req.TransactionID, req.MemberID.Int64())
	}
	return ok(c, echo.Map{"returned": n})
}

func (h *LoanHandler) ListAll(c echo.Context) error {
	groups, err := h.Engine.ListAll(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"loans": groups})
}

func (h *LoanHandler) ListActive(c echo.Context) error {
	groups, err := h.Engine.ListActive(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"loans": groups})
}

func (h *LoanHandler) ListOverdue(c echo.Context) error {
	groups, err := h.Engine.ListOverdue(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"loans": groups})
}

func (h *LoanHandler) ListByMember(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	groups, err := h.Engine.ListByMember(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"loans": groups})
}

// notifyAndPrint pushes the websocket notification and queues the
// printable receipt after a committed mutation.  Failures are logged
// inside the publisher and never surface to the API caller.
func (h *LoanHandler) notifyAndPrint(kind, transactionID string, memberID int64) {
	ev, err := h.buildReceipt(kind, transactionID, memberID)
	if err != nil {
		return
	}
	if h.Hub != nil {
		eventType := "book_borrowed"
		if kind == queue.ReceiptKindReturn {
			eventType = "book_returned"
		}
		h.Hub.Broadcast(eventType, ev)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue.PublishLoanReceipt(ctx, h.AMQPURL, ev)
	}()
}

// buildReceipt assembles the receipt payload for one transaction from
// the joined loan rows.
func (h *LoanHandler) buildReceipt(kind, transactionID string, memberID int64) (queue.LoanReceiptEvent, error) {
	ev := queue.LoanReceiptEvent{
		Kind:          kind,
		TransactionID: transactionID,
		MemberID:      memberID,
		IssuedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	rows, err := h.Loans.ListDetails(context.Background(), repository.ListFilter{MemberID: memberID})
	if err != nil {
		return ev, err
	}
	for _, r := range rows {
		if transactionID != "" && r.TransactionID != transactionID {
			continue
		}
		if transactionID == "" && len(ev.Items) > 0 {
			break
		}
		ev.MemberName = r.MemberName
		ev.CheckoutDate = r.CheckoutDate
		ev.DueDate = r.DueDate
		if r.ReturnDate != nil {
			ev.ReturnDate = *r.ReturnDate
		}
		ev.Items = append(ev.Items, queue.ReceiptItem{Barcode: r.Barcode, Title: r.Title})
	}
	return ev, nil
}

// currentMember resolves the member id behind the session principal,
// whether the principal is a member or a staff user wrapping one.
func currentMember(c echo.Context) int64 {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return 0
	}
	if p.Kind == model.PrincipalMember {
		return p.ID
	}
	if p.Member != nil {
		return p.Member.ID
	}
	return 0
}
