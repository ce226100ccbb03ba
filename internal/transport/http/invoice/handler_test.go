package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lakedesk/lakedesk/internal/blob"
	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/dto"
	"github.com/lakedesk/lakedesk/internal/platform"
	"github.com/lakedesk/lakedesk/internal/service/records"
	"github.com/lakedesk/lakedesk/internal/store/memory"
)

type testBackend struct {
	*memory.Store
}

func (testBackend) Mode() platform.Mode { return platform.ModeMock }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Error   *struct {
		Kind    string         `json:"kind"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestServer(t *testing.T, maxBytes int64) *echo.Echo {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.Seed(context.Background()))

	svc := records.NewService(records.Params{
		Backend: testBackend{Store: st},
		Logger:  zap.NewNop(),
	})

	blobs, err := blob.NewStore(config.Config{Upload: config.Upload{Driver: "local", Dir: t.TempDir()}}, zap.NewNop())
	require.NoError(t, err)

	cfg := config.Config{Upload: config.Upload{MaxBytes: maxBytes}}

	e := echo.New()
	Register(e, NewHandler(svc, blobs, cfg))
	return e
}

func doJSON(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func multipartRequest(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/invoices", body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}

func TestListInvoices(t *testing.T) {
	e := newTestServer(t, 0)

	rec, env := doJSON(e, http.MethodGet, "/invoices", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var invoices []dto.InvoiceResponse
	require.NoError(t, json.Unmarshal(env.Data, &invoices))
	require.Len(t, invoices, 2)
	assert.Equal(t, "INV-0001", invoices[0].Number)
}

func TestListInvoicesByNumber(t *testing.T) {
	e := newTestServer(t, 0)

	rec, env := doJSON(e, http.MethodGet, "/invoices?number=0002", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var invoices []dto.InvoiceResponse
	require.NoError(t, json.Unmarshal(env.Data, &invoices))
	require.Len(t, invoices, 1)
	assert.Equal(t, "INV-0002", invoices[0].Number)
}

func TestListInvoicesByOrder(t *testing.T) {
	e := newTestServer(t, 0)

	rec, env := doJSON(e, http.MethodGet, "/invoices?order_id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var invoices []dto.InvoiceResponse
	require.NoError(t, json.Unmarshal(env.Data, &invoices))
	require.Len(t, invoices, 1)
	assert.Equal(t, int64(1), invoices[0].OrderID)
}

func TestGetInvoiceNotFound(t *testing.T) {
	e := newTestServer(t, 0)

	rec, env := doJSON(e, http.MethodGet, "/invoices/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Kind)
}

func TestCreateInvoiceJSON(t *testing.T) {
	e := newTestServer(t, 0)

	payload := `{"order_id":1,"customer_id":"CUST-001","number":"INV-0003","amount":150}`
	rec, env := doJSON(e, http.MethodPost, "/invoices", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	var invoice dto.InvoiceResponse
	require.NoError(t, json.Unmarshal(env.Data, &invoice))
	assert.Equal(t, int64(3), invoice.ID)
	assert.Equal(t, "Draft", invoice.Status)
	assert.Nil(t, invoice.File)
}

func TestCreateInvoiceMultipartWithFile(t *testing.T) {
	e := newTestServer(t, 1<<20)

	fields := map[string]string{
		"order_id":    "1",
		"customer_id": "CUST-001",
		"number":      "INV-0003",
		"amount":      "150",
	}
	req := multipartRequest(t, fields, "invoice.pdf", []byte("%PDF-1.4 fake invoice"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var invoice dto.InvoiceResponse
	require.NoError(t, json.Unmarshal(env.Data, &invoice))

	require.NotNil(t, invoice.File)
	assert.True(t, strings.HasSuffix(invoice.File.Name, "-invoice.pdf"))
	assert.Equal(t, int64(len("%PDF-1.4 fake invoice")), invoice.File.Size)
	assert.Len(t, invoice.File.SHA256, 64)
}

func TestCreateInvoiceMultipartWithoutFile(t *testing.T) {
	e := newTestServer(t, 1<<20)

	fields := map[string]string{
		"order_id":    "2",
		"customer_id": "CUST-002",
		"number":      "INV-0004",
		"amount":      "75.50",
	}
	req := multipartRequest(t, fields, "", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var invoice dto.InvoiceResponse
	require.NoError(t, json.Unmarshal(env.Data, &invoice))
	assert.Nil(t, invoice.File)
}

func TestCreateInvoiceFileTooLarge(t *testing.T) {
	e := newTestServer(t, 8)

	fields := map[string]string{
		"order_id":    "1",
		"customer_id": "CUST-001",
		"number":      "INV-0003",
		"amount":      "150",
	}
	req := multipartRequest(t, fields, "invoice.pdf", []byte("this is more than eight bytes"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Message, "upload limit")
}

func TestCreateInvoiceDanglingOrder(t *testing.T) {
	e := newTestServer(t, 0)

	payload := `{"order_id":99,"customer_id":"CUST-001","number":"INV-0009","amount":10}`
	rec, env := doJSON(e, http.MethodPost, "/invoices", payload)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Message, "referenced order does not exist")
}

func TestCreateInvoiceValidation(t *testing.T) {
	e := newTestServer(t, 0)

	rec, env := doJSON(e, http.MethodPost, "/invoices", `{"order_id":1,"customer_id":"CUST-001","number":"INV-0003","amount":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "amount")
}

func TestUpdateInvoiceStatus(t *testing.T) {
	e := newTestServer(t, 0)

	// Invoice 2 is Draft; Paid is reachable directly.
	rec, env := doJSON(e, http.MethodPatch, "/invoices/2", `{"status":"Paid"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var invoice dto.InvoiceResponse
	require.NoError(t, json.Unmarshal(env.Data, &invoice))
	assert.Equal(t, "Paid", invoice.Status)
}

func TestUpdateInvoiceTerminalStatus(t *testing.T) {
	e := newTestServer(t, 0)

	// Invoice 1 is already Paid.
	rec, env := doJSON(e, http.MethodPatch, "/invoices/1", `{"status":"Submitted"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Message, "illegal status transition")
}
