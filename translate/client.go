// Package translate talks to a MyMemory-compatible translation endpoint:
// GET <endpoint>?q=<text>&langpair=en|<target>.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const DefaultEndpoint = "https://api.mymemory.translated.net/get"

type Client struct {
	endpoint string
	http     *TracedClient
}

func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{endpoint: endpoint, http: NewTracedClient()}
}

// Endpoint is the configured base URL.
func (c *Client) Endpoint() string { return c.endpoint }

type Result struct {
	Text       string
	Target     Language
	HTTPStatus int
	Metrics    *NetworkMetrics
}


type mymemoryResponse struct {
	ResponseData *struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  json.RawMessage `json:"responseStatus"`
	ResponseDetails string          `json:"responseDetails"`
}

// Translate issues exactly one request. It never retries. On failure the
// returned Result still carries the HTTP status and timings when a response
// was received.
func (c *Client) Translate(ctx context.Context, text string, target Language) (*Result, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	reqURL, err := c.requestURL(text, target)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("translate request: %w", err)
	}

	result := &Result{Target: target, HTTPStatus: resp.StatusCode, Metrics: resp.Metrics}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(resp.Body, 200)}
	}

	var body mymemoryResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return result, fmt.Errorf("%w: malformed body: %v", ErrUnknown, err)
	}

	if body.ResponseData != nil && body.ResponseData.TranslatedText != "" {
		result.Text = body.ResponseData.TranslatedText
		return result, nil
	}
	if status := normalizeStatus(body.ResponseStatus); status != "" && status != "200" {
		return result, &StatusError{Status: status, Details: body.ResponseDetails}
	}
	return result, ErrUnknown
}

func (c *Client) requestURL(text string, target Language) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("translate endpoint: %w", err)
	}
	q := "q=" + EncodeComponent(text) + "&langpair=" + LangPair(target)
	if u.RawQuery != "" {
		q = u.RawQuery + "&" + q
	}
	u.RawQuery = q
	return u.String(), nil
}

// EncodeComponent percent-encodes s for a query value, spaces as %20.
func EncodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// normalizeStatus accepts both 403 and "403"; null and absent yield "".
func normalizeStatus(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	b = b[:n]
	for len(b) > 0 && !utf8.Valid(b) {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}
