package postgrest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/brownie/internal/apperror"
	"github.com/mamadbah2/brownie/internal/config"
)

type row struct {
	ID         int64  `json:"id"`
	Categoria  string `json:"categoria"`
	Quantidade int    `json:"quantidade"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.StoreConfig{URL: srv.URL + "/", Key: "secret", Timeout: 2 * time.Second}, nil)
}

func TestSelect_SendsFiltersAndHeaders(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":1,"categoria":"Pizza","quantidade":4}]`)
	})

	var rows []row
	q := Query{Select: "*", Order: "id.asc", Limit: 20, Offset: 40}.Where(Eq("categoria", "Pizza"))
	err := client.Select(context.Background(), "Estoque", q, &rows)
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, http.MethodGet, captured.Method)
	assert.Equal(t, "/rest/v1/Estoque", captured.URL.Path)
	assert.Equal(t, "eq.Pizza", captured.URL.Query().Get("categoria"))
	assert.Equal(t, "*", captured.URL.Query().Get("select"))
	assert.Equal(t, "id.asc", captured.URL.Query().Get("order"))
	assert.Equal(t, "20", captured.URL.Query().Get("limit"))
	assert.Equal(t, "40", captured.URL.Query().Get("offset"))
	assert.Equal(t, "secret", captured.Header.Get("apikey"))
	assert.Equal(t, "Bearer secret", captured.Header.Get("Authorization"))
	assert.Equal(t, []row{{ID: 1, Categoria: "Pizza", Quantidade: 4}}, rows)
}

func TestUpdate_KeepsBothBoundsOnSameColumn(t *testing.T) {
	var query map[string][]string
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `[{"id":7}]`)
	})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	filters := []Filter{
		Eq("cliente", "Ana"),
		Eq("valor", 50.0),
		Gte("vencimento", start),
		Lt("vencimento", start.AddDate(0, 0, 1)),
	}

	err := client.Update(context.Background(), "Cobranca", filters, map[string]any{"status_pagamento": true}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"eq.Ana"}, query["cliente"])
	assert.Equal(t, []string{"eq.50"}, query["valor"])
	assert.Equal(t, []string{"gte.2025-06-01T00:00:00Z", "lt.2025-06-02T00:00:00Z"}, query["vencimento"])
	assert.Equal(t, true, body["status_pagamento"])
}

func TestUpdate_EmptyResultIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	err := client.Update(context.Background(), "Estoque", []Filter{Eq("categoria", "Nada")}, map[string]any{"quantidade": 1}, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdate_RequiresFilters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	err := client.Update(context.Background(), "Estoque", nil, map[string]any{"quantidade": 1}, nil)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestUpsert_SendsConflictKeyAndResolution(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":3,"categoria":"Brownie","quantidade":10}]`)
	})

	var rows []row
	err := client.Upsert(context.Background(), "Estoque", "categoria", MergeDuplicates, map[string]any{"categoria": "Brownie", "quantidade": 10}, &rows)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "categoria", captured.URL.Query().Get("on_conflict"))
	assert.Equal(t, "resolution=merge-duplicates,return=representation", captured.Header.Get("Prefer"))
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].Quantidade)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantPayload any
	}{
		{
			name:        "json_body",
			status:      http.StatusBadRequest,
			body:        `{"message":"column missing","code":"42703"}`,
			wantPayload: map[string]any{"message": "column missing", "code": "42703"},
		},
		{
			name:        "text_body",
			status:      http.StatusBadGateway,
			body:        `upstream exploded`,
			wantPayload: "upstream exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			err := client.Select(context.Background(), "Venda", Query{}, &[]row{})
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.KindUpstream, appErr.Kind)
			assert.Equal(t, tt.status, appErr.Status)
			assert.Equal(t, tt.wantPayload, appErr.Payload)
			assert.Equal(t, tt.status, apperror.HTTPStatus(err))
		})
	}
}

func TestMalformedSuccessBodyIsUnexpected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})

	err := client.Select(context.Background(), "Venda", Query{}, &[]row{})
	assert.Equal(t, apperror.KindUnexpected, apperror.KindOf(err))
}

func TestConnectionFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(config.StoreConfig{URL: url, Key: "k", Timeout: time.Second}, nil)
	err := client.Select(context.Background(), "Estoque", Query{}, &[]row{})
	assert.True(t, apperror.IsUnavailable(err))
}

func TestTimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(config.StoreConfig{URL: srv.URL, Key: "k", Timeout: 50 * time.Millisecond}, nil)
	err := client.Select(context.Background(), "Estoque", Query{}, &[]row{})
	assert.True(t, apperror.IsUnavailable(err))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "false", FormatValue(false))
	assert.Equal(t, "20.5", FormatValue(20.5))
	assert.Equal(t, "12", FormatValue(int64(12)))
	assert.Equal(t, "null", FormatValue(nil))
	assert.Equal(t, "status_pagamento=eq.false", Eq("status_pagamento", false).String())
}
