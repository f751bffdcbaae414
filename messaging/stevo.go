package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const maxErrorBody = 512

// StevoClient sends text messages through a Stevo (Evolution-style) instance.
type StevoClient struct {
	baseURL  string
	instance string
	apiKey   string
	http     *http.Client
}

var _ Sender = (*StevoClient)(nil)

func NewStevoClient(baseURL, instance, apiKey string, httpClient *http.Client) *StevoClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &StevoClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		instance: instance,
		apiKey:   apiKey,
		http:     httpClient,
	}
}

func (c *StevoClient) Name() string { return "stevo" }

func (c *StevoClient) CheckConfig() error {
	if c.baseURL == "" || c.instance == "" || c.apiKey == "" {
		return ErrNotConfigured
	}
	return nil
}

type stevoTextRequest struct {
	Number      string           `json:"number"`
	TextMessage stevoTextMessage `json:"textMessage"`
}

type stevoTextMessage struct {
	Text string `json:"text"`
}

type stevoSendResponse struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
	ID        string `json:"id"`
	MessageID string `json:"messageId"`
}

func (r stevoSendResponse) messageID() string {
	switch {
	case r.Key.ID != "":
		return r.Key.ID
	case r.MessageID != "":
		return r.MessageID
	default:
		return r.ID
	}
}

func (c *StevoClient) Send(ctx context.Context, phone, text string) (string, error) {
	if err := c.CheckConfig(); err != nil {
		return "", err
	}

	payload, err := json.Marshal(stevoTextRequest{
		Number:      phone,
		TextMessage: stevoTextMessage{Text: text},
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding stevo request")
	}

	endpoint := c.baseURL + "/message/sendText/" + url.PathEscape(c.instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "building stevo request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling stevo")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return "", errors.Wrap(err, "reading stevo response")
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return "", &SendError{Provider: c.Name(), StatusCode: res.StatusCode, Body: snippet}
	}

	var parsed stevoSendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		// delivered, but nothing we can use as an identifier
		return "", nil
	}
	return parsed.messageID(), nil
}
