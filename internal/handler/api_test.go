package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk/internal/auth"
	"librarydesk/internal/config"
	"librarydesk/internal/database"
	"librarydesk/internal/handler"
	"librarydesk/internal/loan"
	"librarydesk/internal/model"
	"librarydesk/internal/notify"
	"librarydesk/internal/repository"
	"librarydesk/internal/router"
	"librarydesk/internal/utils"
)

type apiEnv struct {
	e       *echo.Echo
	members *repository.MemberRepo
	copies  *repository.CopyRepo
	books   *repository.BookRepo
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.EnsureSchema(db, false))

	books := &repository.BookRepo{DB: db}
	shelves := &repository.ShelfRepo{DB: db}
	copies := &repository.CopyRepo{DB: db}
	members := &repository.MemberRepo{DB: db}
	users := &repository.UserRepo{DB: db}
	loans := &repository.LoanRepo{DB: db}

	hash, err := utils.HashPassword("s3cret", 4)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &model.User{
		Username:     "desk",
		Email:        "desk@example.com",
		PasswordHash: hash,
		Role:         model.RoleLibrarian,
		Status:       model.MemberStatusActive,
	}))

	authenticator := auth.NewAuthenticator(users, members, "api-test-secret")
	engine := loan.NewEngine(db, members, copies, loans)
	hub := notify.NewHub()
	go hub.Run()
	sessions := auth.NewMemoryStore()

	e := echo.New()
	router.Register(e, router.Handlers{
		Auth:    handler.NewAuthHandler(authenticator, sessions, 0, hub),
		Books:   handler.NewBookHandler(books, copies),
		Shelves: handler.NewShelfHandler(shelves),
		Members: handler.NewMemberHandler(members, authenticator),
		Loans:   handler.NewLoanHandler(engine, loans, hub, ""),
		WS:      handler.NewWSHandler(hub),
	}, sessions, config.RateLimitConfig{}, nil)
	return &apiEnv{e: e, members: members, copies: copies, books: books}
}

func (env *apiEnv) do(t *testing.T, method, path, session string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if session != "" {
		req.Header.Set("X-Session-Id", session)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (env *apiEnv) login(t *testing.T) string {
	t.Helper()
	rec, out := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "desk",
		"password":   "s3cret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, out["success"])
	return out["session_id"].(string)
}

func TestLoginWrongPasswordAnswers200WithFailure(t *testing.T) {
	env := newAPI(t)
	rec, out := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "desk",
		"password":   "nope",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.NotEmpty(t, out["message"])
}

func TestProtectedRouteRequiresSession(t *testing.T) {
	env := newAPI(t)
	rec, _ := env.do(t, http.MethodGet, "/api/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookCRUDAndIDCoercion(t *testing.T) {
	env := newAPI(t)
	session := env.login(t)

	rec, out := env.do(t, http.MethodPost, "/api/books", session, map[string]interface{}{
		"title": "Dune", "author": "F. Herbert", "isbn": "9780441013593",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	book := out["book"].(map[string]interface{})
	bookID := int64(book["id"].(float64))

	// Copy create accepts the book id as a string.
	rec, out = env.do(t, http.MethodPost, "/api/copies", session, map[string]interface{}{
		"book_id": bookID, "barcode": "LIB-0000000001",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, out["success"])

	rec, _ = env.do(t, http.MethodGet, "/api/books/999", session, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/books/abc", session, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Duplicate ISBN conflicts.
	rec, _ = env.do(t, http.MethodPost, "/api/books", session, map[string]interface{}{
		"title": "Dune again", "isbn": "9780441013593",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Deleting a book that still has copies conflicts too.
	rec, _ = env.do(t, http.MethodDelete, "/api/books/"+strconv.FormatInt(bookID, 10), session, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBorrowAndReturnFlow(t *testing.T) {
	env := newAPI(t)
	session := env.login(t)

	m := &model.Member{Name: "Dana", Email: "dana-flow@example.com", Status: model.MemberStatusActive}
	require.NoError(t, env.members.Create(context.Background(), m))
	b := &model.Book{Title: "Hyperion", Author: "D. Simmons", ISBN: "hyperion-1"}
	require.NoError(t, env.books.Create(context.Background(), b))
	cp := &model.BookCopy{BookID: b.ID, Barcode: "LIB-FLOW-1", Status: model.CopyStatusAvailable}
	require.NoError(t, env.copies.Create(context.Background(), cp))

	// Ids arrive as strings from the desk UI; they must coerce.
	rec, out := env.do(t, http.MethodPost, "/api/loans/borrow", session, map[string]interface{}{
		"member_id": strconv.FormatInt(m.ID, 10),
		"copy_ids":  []string{strconv.FormatInt(cp.ID, 10)},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, true, out["success"])
	txn := out["transaction_id"].(string)
	assert.NotEmpty(t, txn)

	// Borrowing the same copy again conflicts.
	rec, _ = env.do(t, http.MethodPost, "/api/loans/borrow", session, map[string]interface{}{
		"member_id": m.ID, "copy_ids": []int64{cp.ID},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, out = env.do(t, http.MethodGet, "/api/loans/active", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["loans"], 1)

	rec, out = env.do(t, http.MethodPost, "/api/loans/return-qr", session, map[string]interface{}{
		"member_id": m.ID, "transaction_id": txn,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), out["returned"])

	// Scanning twice is a success with nothing left to return.
	rec, out = env.do(t, http.MethodPost, "/api/loans/return-qr", session, map[string]interface{}{
		"member_id": m.ID, "transaction_id": txn,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), out["returned"])
}
