package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/brownie/internal/apperror"
	"github.com/mamadbah2/brownie/internal/config"
)

const sendTimeout = 15 * time.Second

// Sender delivers text messages through the WhatsApp Cloud API.
type Sender interface {
	SendText(ctx context.Context, to, body string) (messageID string, err error)
}

// APIClient implements Sender with resty.
type APIClient struct {
	http          *resty.Client
	phoneNumberID string
}

// NewClient builds a Cloud API client for the configured phone number.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New().
		SetBaseURL(fmt.Sprintf("%s/%s", base, cfg.APIVersion)).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(sendTimeout)

	return &APIClient{http: restyClient, phoneNumberID: cfg.PhoneNumberID}
}

type textPayload struct {
	Product string   `json:"messaging_product"`
	To      string   `json:"to"`
	Type    string   `json:"type"`
	Text    textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type sendResult struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText posts one text message. Transport failures are service_unavailable,
// rejections are upstream_http with the Graph API error as payload.
func (c *APIClient) SendText(ctx context.Context, to, body string) (string, error) {
	var (
		result sendResult
		failed graphError
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(textPayload{Product: "whatsapp", To: to, Type: "text", Text: textBody{Body: body}}).
		SetResult(&result).
		SetError(&failed).
		Post(c.phoneNumberID + "/messages")
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", apperror.Wrap(apperror.KindUnavailable, err, "whatsapp indisponível")
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		appErr := apperror.Upstream(resp.StatusCode(), failed.Error)
		appErr.Message = fmt.Sprintf("whatsapp rejeitou a mensagem: código=%d, mensagem=%s", failed.Error.Code, failed.Error.Message)
		return "", appErr
	}

	if len(result.Messages) == 0 {
		return "", nil
	}
	return result.Messages[0].ID, nil
}

// ManagerNotifier sends report messages to one fixed recipient.
type ManagerNotifier struct {
	sender Sender
	to     string
}

// NewManagerNotifier targets the manager number.
func NewManagerNotifier(sender Sender, to string) *ManagerNotifier {
	return &ManagerNotifier{sender: sender, to: to}
}

// Notify delivers body to the manager.
func (n *ManagerNotifier) Notify(ctx context.Context, body string) error {
	if _, err := n.sender.SendText(ctx, n.to, body); err != nil {
		return fmt.Errorf("notify manager: %w", err)
	}
	return nil
}
