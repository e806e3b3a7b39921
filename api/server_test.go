package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sljesus/winm/extractor/common"
)

type stubAnalyzer struct {
	transaction *common.Transaction
	err         error
}

func (s *stubAnalyzer) Name() string { return "stub" }

func (s *stubAnalyzer) AnalyzeEmail(ctx context.Context, email common.RawEmail) (*common.Transaction, error) {
	return s.transaction, s.err
}

func stubTransaction() *common.Transaction {
	return &common.Transaction{
		Amount:      decimal.NewFromFloat(-150),
		Description: "Compra en OXXO Centro",
		Date:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Source:      common.SourceMercadoPago,
		Type:        common.TypeCompra,
		EmailID:     "msg-1",
		Bank:        common.SourceMercadoPago,
		Meta: common.Meta{
			Confidence:   0.9,
			AnalyzerUsed: "regex",
		},
	}
}

func TestNew(t *testing.T) {
	server := New(DefaultConfig(), &stubAnalyzer{})

	assert.NotNil(t, server)
	assert.NotNil(t, server.mux)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestHealthEndpoint(t *testing.T) {
	server := New(DefaultConfig(), &stubAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	err := json.NewDecoder(rec.Body).Decode(&body)
	assert.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestAnalyzeJSONEmail(t *testing.T) {
	server := New(DefaultConfig(), &stubAnalyzer{transaction: stubTransaction()})

	email := common.RawEmail{
		ID:      "msg-1",
		Subject: "Pagaste $150.00",
		Body:    "Pagaste $150.00 en OXXO Centro",
		From:    "notificaciones@mercadopago.com",
	}
	payload, err := json.Marshal(email)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got common.Transaction
	err = json.NewDecoder(rec.Body).Decode(&got)
	assert.NoError(t, err)
	assert.Equal(t, "Compra en OXXO Centro", got.Description)
	assert.Equal(t, common.SourceMercadoPago, got.Source)
	assert.Equal(t, common.TypeCompra, got.Type)
	assert.True(t, got.Amount.Equal(decimal.NewFromFloat(-150)))
	assert.Equal(t, "regex", got.Meta.AnalyzerUsed)
}

func TestAnalyzeEmlUpload(t *testing.T) {
	server := New(DefaultConfig(), &stubAnalyzer{transaction: stubTransaction()})

	raw := "From: notificaciones@mercadopago.com\r\n" +
		"Subject: Pagaste $150.00\r\n" +
		"Date: Wed, 15 Jan 2025 10:00:00 +0000\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Pagaste $150.00 en OXXO Centro\r\n"

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "compra.eml")
	assert.NoError(t, err)
	_, err = io.WriteString(part, raw)
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got common.Transaction
	err = json.NewDecoder(rec.Body).Decode(&got)
	assert.NoError(t, err)
	assert.Equal(t, "Compra en OXXO Centro", got.Description)
}

func TestAnalyzeNotATransaction(t *testing.T) {
	server := New(DefaultConfig(), &stubAnalyzer{})

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"id":"msg-2","body":"Gran oferta"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{}", strings.TrimSpace(rec.Body.String()))
}

func TestAnalyzeMethodNotAllowed(t *testing.T) {
	server := New(DefaultConfig(), &stubAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAnalyzeBadJSON(t *testing.T) {
	server := New(DefaultConfig(), &stubAnalyzer{})

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not read email")
}

func TestAnalyzeAnalyzerError(t *testing.T) {
	server := New(DefaultConfig(), &stubAnalyzer{err: errors.New("model unavailable")})

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"id":"msg-3","body":"Pagaste $10.00"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Analysis failed")
}

func TestCORSPreflight(t *testing.T) {
	server := New(DefaultConfig(), &stubAnalyzer{})

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
