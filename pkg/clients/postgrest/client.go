package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/apperror"
	"github.com/mamadbah2/brownie/internal/config"
)

// Resolution selects how an upsert treats an existing row with the same conflict key.
type Resolution string

const (
	MergeDuplicates  Resolution = "merge-duplicates"
	IgnoreDuplicates Resolution = "ignore-duplicates"
)

const returnRepresentation = "return=representation"

// Client exposes the table operations of the remote store.
type Client interface {
	Select(ctx context.Context, table string, q Query, out any) error
	Insert(ctx context.Context, table string, body any, out any) error
	Upsert(ctx context.Context, table, onConflict string, resolution Resolution, body any, out any) error
	Update(ctx context.Context, table string, filters []Filter, body any, out any) error
}

// RESTClient is a resty-backed implementation of Client for the Supabase REST API.
type RESTClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds a store client from the configured URL, key and timeout.
func NewClient(cfg config.StoreConfig, logger *zap.Logger) *RESTClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := strings.TrimSuffix(cfg.URL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(fmt.Sprintf("%s/rest/v1", base)).
		SetHeader("apikey", cfg.Key).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Key)).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("Prefer", returnRepresentation).
		SetTimeout(cfg.Timeout)

	return &RESTClient{httpClient: restyClient, logger: logger}
}

// Select reads rows matching q and decodes them into out.
func (c *RESTClient) Select(ctx context.Context, table string, q Query, out any) error {
	_, err := c.do(ctx, http.MethodGet, table, q.Values(), nil, nil, out)
	return err
}

// Insert posts body (an object or an array of objects) and decodes the created rows.
func (c *RESTClient) Insert(ctx context.Context, table string, body any, out any) error {
	_, err := c.do(ctx, http.MethodPost, table, url.Values{}, nil, body, out)
	return err
}

// Upsert inserts body, resolving conflicts on onConflict according to resolution.
func (c *RESTClient) Upsert(ctx context.Context, table, onConflict string, resolution Resolution, body any, out any) error {
	params := url.Values{}
	params.Set("on_conflict", onConflict)
	headers := map[string]string{
		"Prefer": fmt.Sprintf("resolution=%s,%s", resolution, returnRepresentation),
	}
	_, err := c.do(ctx, http.MethodPost, table, params, headers, body, out)
	return err
}

// Update patches every row matching filters. A successful response with no
// rows means nothing matched and is reported as not_found.
func (c *RESTClient) Update(ctx context.Context, table string, filters []Filter, body any, out any) error {
	if len(filters) == 0 {
		return apperror.New(apperror.KindValidation, "atualização de %s recusada sem filtros", table)
	}

	raw, err := c.do(ctx, http.MethodPatch, table, filterValues(filters), nil, body, nil)
	if err != nil {
		return err
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return apperror.Wrap(apperror.KindUnexpected, err, "resposta inválida ao atualizar %s", table)
	}
	if len(rows) == 0 {
		return apperror.NotFound("nenhum registro de %s corresponde a %s", table, describe(filters))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return apperror.Wrap(apperror.KindUnexpected, err, "resposta inválida ao atualizar %s", table)
		}
	}
	return nil
}

func (c *RESTClient) do(ctx context.Context, method, table string, params url.Values, headers map[string]string, body any, out any) ([]byte, error) {
	start := time.Now()

	req := c.httpClient.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetHeaders(headers)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, "/"+table)
	if err != nil {
		c.logger.Warn("remote store call failed",
			zap.String("method", method),
			zap.String("table", table),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, classifyTransport(err, table)
	}

	c.logger.Debug("remote store call",
		zap.String("method", method),
		zap.String("table", table),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", time.Since(start)))

	raw := resp.Body()
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, apperror.Upstream(resp.StatusCode(), decodePayload(raw))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, apperror.Wrap(apperror.KindUnexpected, err, "resposta inválida de %s", table)
		}
	}
	return raw, nil
}

func classifyTransport(err error, table string) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return apperror.Wrap(apperror.KindUnavailable, err, "armazenamento remoto indisponível ao acessar %s", table)
	}
	return apperror.Wrap(apperror.KindUnexpected, err, "falha na requisição ao armazenamento remoto para %s", table)
}

// decodePayload keeps the upstream body as JSON when it parses, raw text otherwise.
func decodePayload(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err == nil {
		return payload
	}
	return string(raw)
}

func describe(filters []Filter) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, "&")
}
