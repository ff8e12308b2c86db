package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/oficina/internal/export"
	oficinaHttp "github.com/MrJamesThe3rd/oficina/internal/http"
	"github.com/MrJamesThe3rd/oficina/internal/http/auth"
	ledgerHandler "github.com/MrJamesThe3rd/oficina/internal/http/ledger"
	orderHandler "github.com/MrJamesThe3rd/oficina/internal/http/order"
	registryHandler "github.com/MrJamesThe3rd/oficina/internal/http/registry"
	remoteHandler "github.com/MrJamesThe3rd/oficina/internal/http/remote"
	"github.com/MrJamesThe3rd/oficina/internal/importer"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/mirror"
	"github.com/MrJamesThe3rd/oficina/internal/mirror/memory"
	"github.com/MrJamesThe3rd/oficina/internal/persistence"
	"github.com/MrJamesThe3rd/oficina/internal/storage/file"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

type server struct {
	handler http.Handler
	app     *workshop.App
	dir     string
}

func newServer(t *testing.T, secret string, remote mirror.Remote) *server {
	t.Helper()

	dir := t.TempDir()
	ledgerSvc := ledger.NewService()
	app := workshop.New(ledgerSvc, workorder.NewEngine(ledgerSvc))
	files := file.New()

	saver := persistence.NewCoordinator(files, app, filepath.Join(dir, "oficina.json"), persistence.Options{Debounce: time.Hour})
	require.NoError(t, saver.Load(context.Background()))
	app.OnChange(saver.Notify)

	t.Cleanup(func() { saver.Close(context.Background()) })

	h := oficinaHttp.New(
		orderHandler.NewHandler(app),
		ledgerHandler.NewHandler(app, importer.NewService()),
		registryHandler.NewHandler(app),
		remoteHandler.NewHandler(app, saver, mirror.NewService(remote, app, 10), export.NewService(files, dir)),
		oficinaHttp.Options{AuthSecret: secret},
	)

	return &server{handler: h, app: app, dir: dir}
}

func (s *server) do(t *testing.T, method, path string, body any, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)

	return rec, out
}

func orderBody(number int) map[string]any {
	return map[string]any{
		"order": map[string]any{
			"osNumber":   number,
			"clientName": "Diego",
			"services":   []map[string]any{{"description": "Troca de óleo", "price": 12000}},
			"createdAt":  "2026-05-04T00:00:00Z",
		},
		"vehicleModel": "Corsa",
		"vehiclePlate": "AAA1B23",
	}
}

func TestOrders_Lifecycle(t *testing.T) {
	s := newServer(t, "", nil)

	rec, body := s.do(t, http.MethodPost, "/api/v1/orders", orderBody(0))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := body["order"].(map[string]any)
	id := created["id"].(string)
	assert.Equal(t, "Corsa - AAA1B23", created["vehicle"])
	assert.EqualValues(t, 12000, created["total"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/orders/"+id+"/status", map[string]any{
		"status":  "FINALIZADO",
		"confirm": map[string]bool{"postRevenue": true},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, body["order"].(map[string]any)["financialId"])
	require.Len(t, s.app.Snapshot().Ledger, 1)

	rec, body = s.do(t, http.MethodPost, "/api/v1/orders/"+id+"/regress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["declined"])
	assert.Equal(t, "FINALIZADO", body["order"].(map[string]any)["status"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/orders/"+id+"/regress", map[string]any{
		"confirm": map[string]bool{"removeRevenue": true},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EM_SERVICO", body["order"].(map[string]any)["status"])
	assert.Empty(t, s.app.Snapshot().Ledger)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/orders?status=EM_SERVICO", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []workorder.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/orders/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/orders/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrders_Errors(t *testing.T) {
	type testCase struct {
		name           string
		body           any
		expectedStatus int
	}

	tests := []testCase{
		{
			name:           "DuplicateNumberDeclined",
			body:           orderBody(1),
			expectedStatus: http.StatusConflict,
		},
		{
			name: "DuplicateNumberConfirmed",
			body: func() any {
				b := orderBody(1)
				b["confirm"] = map[string]bool{"duplicateNumber": true}

				return b
			}(),
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "MissingClient",
			body:           map[string]any{"order": map[string]any{"osNumber": 9}},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t, "", nil)

			rec, _ := s.do(t, http.MethodPost, "/api/v1/orders", orderBody(1))
			require.Equal(t, http.StatusCreated, rec.Code)

			rec, _ = s.do(t, http.MethodPost, "/api/v1/orders", tt.body)
			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestOrders_CreateWithKnownID(t *testing.T) {
	s := newServer(t, "", nil)

	rec, body := s.do(t, http.MethodPost, "/api/v1/orders", orderBody(1))
	require.Equal(t, http.StatusCreated, rec.Code)

	id := body["order"].(map[string]any)["id"].(string)

	again := orderBody(2)
	again["order"].(map[string]any)["id"] = id
	again["order"].(map[string]any)["clientName"] = "Outro"

	rec, _ = s.do(t, http.MethodPost, "/api/v1/orders", again)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	o, ok := s.app.Order(id)
	require.True(t, ok)
	assert.Equal(t, "Diego", o.ClientName)
	assert.Equal(t, 1, o.OSNumber)
	assert.Len(t, s.app.Snapshot().WorkOrders, 1)
}

func TestLedger_InstallmentsAndSummary(t *testing.T) {
	s := newServer(t, "", nil)

	rec, body := s.do(t, http.MethodPost, "/api/v1/ledger", map[string]any{
		"description": "Elevador",
		"amount":      100000,
		"type":        "DEBIT",
		"date":        "2026-01-31T00:00:00Z",
		"mode":        "INSTALLMENT",
		"count":       3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, body["entries"], 3)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/ledger?period=2026-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var feb []ledger.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feb))
	require.Len(t, feb, 1)
	assert.Equal(t, 28, feb[0].EffectiveDate.Day())

	rec, body = s.do(t, http.MethodGet, "/api/v1/ledger/summary?period=2026", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, -100000, body["balance"])

	rec, body = s.do(t, http.MethodPatch, "/api/v1/ledger/"+feb[0].ID, map[string]any{"amount": 40000, "reason": "juros"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["changed"])

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/ledger/groups/"+feb[0].GroupID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, s.app.Snapshot().Ledger)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/ledger?type=BOTH", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func (s *server) upload(t *testing.T, path, content string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("format", "statement"))

	fw, err := mw.CreateFormFile("file", "extrato.csv")
	require.NoError(t, err)

	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)

	return rec, out
}

func TestLedger_ImportStatement(t *testing.T) {
	s := newServer(t, "", nil)

	statement := "Data;Histórico;Valor\n05/03/2026;PIX RECEBIDO;450,00\n06/03/2026;TARIFA;-19,90\n"

	rec, body := s.upload(t, "/api/v1/ledger/import", statement)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, body["entries"], 2)

	rec, body = s.upload(t, "/api/v1/ledger/import", statement)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Len(t, body["conflicts"], 2)
	assert.Len(t, s.app.Snapshot().Ledger, 2)

	rec, body = s.do(t, http.MethodPost, "/api/v1/ledger/import/confirm", map[string]any{
		"params": []map[string]any{
			{"description": "TARIFA", "amount": 1990, "type": "DEBIT", "date": "2026-03-06T00:00:00Z"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, body["entries"], 1)
	assert.Len(t, s.app.Snapshot().Ledger, 3)

	rec, _ = s.upload(t, "/api/v1/ledger/import", "nada;aqui\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegistry_ClientCascade(t *testing.T) {
	s := newServer(t, "", nil)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/orders", orderBody(0))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/registry/clients?q=di", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var clients []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clients))
	require.Len(t, clients, 1)

	client := clients[0]
	client["name"] = "Diego Lima"

	rec, _ = s.do(t, http.MethodPut, "/api/v1/registry/clients/"+client["id"].(string), client)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Diego Lima", s.app.Snapshot().WorkOrders[0].ClientName)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/registry/catalog/services", map[string]any{
		"description": "troca de óleo",
		"item":        map[string]any{"description": "Troca de óleo 5W30", "price": 15000},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Troca de óleo 5W30", s.app.Snapshot().WorkOrders[0].Services[0].Description)
	assert.EqualValues(t, 12000, s.app.Snapshot().WorkOrders[0].Services[0].Price)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/registry/catalog/tools", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemote_SyncAndExport(t *testing.T) {
	s := newServer(t, "", memory.New())

	rec, _ := s.do(t, http.MethodPost, "/api/v1/orders", orderBody(0))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := s.do(t, http.MethodPost, "/api/v1/remote/up", map[string]any{"collections": []string{"workOrders", "clients"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, body["results"], 2)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/remote/up", map[string]any{"collections": []string{"invoices"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/api/v1/remote/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["remote"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/remote/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["dirty"])
	assert.FileExists(t, filepath.Join(s.dir, "oficina.json"))

	rec, body = s.do(t, http.MethodPost, "/api/v1/remote/export", map[string]string{"period": "2026-05"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])

	content, err := os.ReadFile(filepath.Join(s.dir, "relatorio_financeiro_2026-05.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Data Competência")
}

func TestRemote_Unavailable(t *testing.T) {
	s := newServer(t, "", nil)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/remote/full", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuth(t *testing.T) {
	s := newServer(t, "s3cret", nil)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := auth.NewToken("s3cret", "balcao", time.Hour)
	require.NoError(t, err)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/orders", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
