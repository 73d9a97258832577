// Package sms sends text messages through an HTTP GET gateway.
package sms

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"eatme/pkg/client"
)

var (
	ErrNoRecipient = errors.New("sms: recipient phone cannot be empty")
	ErrEmptyBody   = errors.New("sms: message cannot be empty")
)

// Result is the gateway's reply.
type Result struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OK reports whether the gateway accepted the message.
func (r Result) OK() bool {
	return r.Code == "ok" || r.Code == "1000"
}

type Sender interface {
	Send(ctx context.Context, phone, message string) (Result, error)
}

type Client struct {
	http     *client.HttpClient
	apiKey   string
	senderID string
}

func NewClient(baseURL, apiKey, senderID string, timeout time.Duration) *Client {
	return &Client{
		http:     client.NewHttpClient(strings.TrimRight(baseURL, "/"), timeout),
		apiKey:   apiKey,
		senderID: senderID,
	}
}

// Send makes a single attempt. A rejected message is returned as an error alongside the
// gateway's Result.
func (c *Client) Send(ctx context.Context, phone, message string) (Result, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return Result{}, ErrNoRecipient
	}
	if strings.TrimSpace(message) == "" {
		return Result{}, ErrEmptyBody
	}

	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("to", strings.TrimPrefix(phone, "+"))
	query.Set("msg", message)
	query.Set("sender_id", c.senderID)

	resp, err := c.http.GET(ctx, "", query)
	if err != nil {
		return Result{}, fmt.Errorf("sms: %w", err)
	}

	var result Result
	if err := resp.DecodeJSON(&result); err != nil {
		return Result{}, fmt.Errorf("sms: decode gateway response (status %d): %w", resp.StatusCode, err)
	}
	if !resp.IsSuccess() || !result.OK() {
		return result, fmt.Errorf("sms: gateway rejected message: code=%s message=%s", result.Code, result.Message)
	}
	return result, nil
}
