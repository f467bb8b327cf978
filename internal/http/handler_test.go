package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josinaldojr/contract-intel-rag/internal/rag"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type stubLLM struct{ answer string }

func (s stubLLM) Generate(ctx context.Context, pkg rag.PromptPackage, lang string) (string, error) {
	return s.answer, nil
}

func newTestServer(t *testing.T) (http.Handler, *rag.Service) {
	t.Helper()
	svc := rag.NewService(rag.NewMemStore(), stubEmbedder{}, stubLLM{answer: "The commission rate is 25%."}, rag.ServiceConfig{
		SearchTimeout: time.Second,
		RetryBackoff:  time.Millisecond,
	})
	return NewRouter(NewHandler(svc)), svc
}

func seedContract(t *testing.T, svc *rag.Service) {
	t.Helper()
	_, err := svc.IndexDocument(context.Background(), rag.Document{
		Filename: "sushi_express_contract_2024.txt",
		Text:     "Clause 4.2 Commission. The platform commission rate is 25% of gross sales.",
	})
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAskJSON(t *testing.T) {
	srv, svc := newTestServer(t)
	seedContract(t, svc)

	body := `{"question":"list the commission clauses"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp rag.AnswerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "The commission rate is 25%.", resp.Answer)
	assert.NotEmpty(t, resp.CitedChunkIDs)
}

func TestAskEmptyQuestion(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":""}`))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskInvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{nope`))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskMultipartWithUpload(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("question", "explain the commission in this contract"))
	fw, err := mw.CreateFormFile("contract", "sushi_express_contract.txt")
	require.NoError(t, err)
	_, err = io.WriteString(fw, "The platform commission rate is 25% of gross sales.")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp rag.AnswerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "sushi express", resp.Partner)
	assert.NotEmpty(t, resp.CitedChunkIDs)
}

func TestIndexDocumentEndpoint(t *testing.T) {
	srv, svc := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "taco_town_payout_2024.txt")
	require.NoError(t, err)
	_, err = io.WriteString(fw, "Payout statement. Net payout: 2,925.00")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var res rag.IndexResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "taco town", res.Partner)
	assert.Equal(t, rag.DocTypePayoutReport, res.Type)
	assert.Greater(t, res.ChunkCount, 0)

	partners, err := svc.Partners(context.Background())
	require.NoError(t, err)
	assert.Contains(t, partners, "taco town")
}

func TestIndexDocumentPartnerOverride(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("partner", "Casa da Esfiha"))
	fw, err := mw.CreateFormFile("file", "contract.txt")
	require.NoError(t, err)
	_, err = io.WriteString(fw, "Partnership agreement body.")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var res rag.IndexResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "Casa da Esfiha", res.Partner)
}

func TestIndexDocumentMissingFile(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("partner", "x"))
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPartnersEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/partners", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"partners":[]}`, rec.Body.String())
}

func TestPartnersListed(t *testing.T) {
	srv, svc := newTestServer(t)
	seedContract(t, svc)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/partners", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"partners":["sushi express"]}`, rec.Body.String())
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{rag.ErrEmptyQuestion, http.StatusBadRequest},
		{rag.ErrEmptyDocument, http.StatusBadRequest},
		{rag.ErrRetrievalUnavailable, http.StatusServiceUnavailable},
		{rag.ErrGenerationTimeout, http.StatusGatewayTimeout},
		{rag.ErrGenerationFailure, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, tt.err)
		assert.Equal(t, tt.code, rec.Code, "error: %v", tt.err)
	}
}
