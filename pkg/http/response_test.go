package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAppErrorResponseCarriesStatusInBody(t *testing.T) {
	c, rec := newTestContext(t, "")

	err := AppErrorResponse(c, NotFoundErrorf("no data for %s", "ZZZZ"))
	if err != nil {
		t.Fatalf("write response: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("transport status = %d, want 200", rec.Code)
	}

	var resp struct {
		Status int        `json:"status"`
		Data   []AppError `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Fatalf("body status = %d, want 404", resp.Status)
	}
	if len(resp.Data) != 1 || resp.Data[0].Code != "ERR_NOT_FOUND" {
		t.Fatalf("unexpected error payload: %+v", resp.Data)
	}
}

func TestAppErrorResponseUnwrapsCause(t *testing.T) {
	c, rec := newTestContext(t, "")

	cause := errors.New("provider unreachable")
	wrapped := NotFoundErrorf("no data for AAPL").WithError(cause)
	if err := AppErrorResponse(c, wrapped); err != nil {
		t.Fatalf("write response: %v", err)
	}

	// The cause stays server-side.
	if strings.Contains(rec.Body.String(), "provider unreachable") {
		t.Fatalf("response leaked the underlying cause: %s", rec.Body.String())
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected the cause to stay reachable via errors.Is")
	}
}

func TestAppErrorResponseUnknownErrorIsInternal(t *testing.T) {
	c, rec := newTestContext(t, "")

	if err := AppErrorResponse(c, errors.New("boom")); err != nil {
		t.Fatalf("write response: %v", err)
	}

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Status != http.StatusInternalServerError {
		t.Fatalf("body status = %d, want 500", resp.Status)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("response leaked the error message: %s", rec.Body.String())
	}
}

func TestReadAndValidateRequestReportsFailedFields(t *testing.T) {
	type detectRequest struct {
		Symbol string `json:"symbol" validate:"required"`
		Range  string `json:"range" validate:"omitempty,oneof=1y 2y 5y"`
	}

	c, _ := newTestContext(t, `{"range":"7y"}`)

	verr := ReadAndValidateRequest(c, &detectRequest{})
	if verr == nil {
		t.Fatal("expected validation errors")
	}
	errs, ok := verr.([]ValidationError)
	if !ok {
		t.Fatalf("unexpected validation payload type %T", verr)
	}

	byCode := make(map[string]ValidationError, len(errs))
	for _, e := range errs {
		byCode[e.Code] = e
	}
	if _, ok := byCode["ERR_REQUIRED"]; !ok {
		t.Fatalf("missing required-field error, got %+v", errs)
	}
	oneof, ok := byCode["ERR_ONEOF"]
	if !ok {
		t.Fatalf("missing oneof error, got %+v", errs)
	}
	if opts, ok := oneof.Params["options"].([]string); !ok || len(opts) != 3 {
		t.Fatalf("unexpected oneof params: %+v", oneof.Params)
	}
}

func TestReadAndValidateRequestAcceptsValidBody(t *testing.T) {
	type detectRequest struct {
		Symbol string `json:"symbol" validate:"required"`
		Range  string `json:"range" validate:"omitempty,oneof=1y 2y 5y"`
	}

	c, _ := newTestContext(t, `{"symbol":"AAPL","range":"2y"}`)

	if verr := ReadAndValidateRequest(c, &detectRequest{}); verr != nil {
		t.Fatalf("unexpected validation errors: %+v", verr)
	}
}
