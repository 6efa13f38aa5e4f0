// Package handler contains the HTTP handlers behind the JSON API.
// Every response uses the {success, ...} envelope; error kinds map to
// HTTP statuses in one place so raw repository errors never escape.
package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"librarydesk/internal/apperr"
)

// flexID accepts a JSON number or a numeric string, since the desk UI
// sends ids both ways depending on where the value originated.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", s)
	}
	*f = flexID(n)
	return nil
}

func (f flexID) Int64() int64 { return int64(f) }

func toInt64(ids []flexID) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Int64())
	}
	return out
}

// pathID parses the :id path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n <= 0 {
		return 0, apperr.Newf(apperr.Validation, "Invalid id %q", c.Param(name))
	}
	return n, nil
}

// ok writes a success envelope, merging the given body fields.
func ok(c echo.Context, body echo.Map) error {
	resp := echo.Map{"success": true}
	for k, v := range body {
		resp[k] = v
	}
	return c.JSON(http.StatusOK, resp)
}

// fail converts an error to its envelope.  Auth failures respond 200
// with success:false so login forms read the message; everything else
// maps kind to status, with unclassified errors treated as internal.
func fail(c echo.Context, err error) error {
	return c.JSON(apperr.HTTPStatus(apperr.KindOf(err)), echo.Map{
		"success": false,
		"message": apperr.MessageOf(err),
	})
}

// badRequest is the shortcut for malformed JSON bodies.
func badRequest(c echo.Context, msg string) error {
	return fail(c, apperr.New(apperr.Validation, msg))
}
