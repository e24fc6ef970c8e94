package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/clsasailing/weekly-blast/internal/domain"
)

// WildApricotMailer sends the composed blast through the account's SendEmail
// RPC.
type WildApricotMailer struct {
	client *Client
}

// NewWildApricotMailer creates a mailer on the shared client.
func NewWildApricotMailer(client *Client) *WildApricotMailer {
	return &WildApricotMailer{client: client}
}

// waSendEmailRequest is the SendEmail RPC payload.
type waSendEmailRequest struct {
	Subject        string             `json:"Subject"`
	Body           string             `json:"Body"`
	ReplyToAddress string             `json:"ReplyToAddress"`
	ReplyToName    string             `json:"ReplyToName"`
	Recipients     []domain.Recipient `json:"Recipients"`
}

// SendEmail dispatches the email and returns the platform's send id. The RPC
// answers with a bare numeric id on success.
func (m *WildApricotMailer) SendEmail(ctx context.Context, email domain.Email) (int64, error) {
	payload := waSendEmailRequest{
		Subject:        email.Subject,
		Body:           email.Body,
		ReplyToAddress: email.ReplyToAddress,
		ReplyToName:    email.ReplyToName,
		Recipients:     email.Recipients,
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("%w: encoding send request: %v", domain.ErrDispatch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.client.rpcURL("/email/SendEmail"), bytes.NewBuffer(requestBody))
	if err != nil {
		return 0, fmt.Errorf("%w: building send request: %v", domain.ErrDispatch, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: sending email: %v", domain.ErrDispatch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("%w: sending email: status %d: %s",
			domain.ErrDispatch, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var sendID int64
	if err := json.NewDecoder(resp.Body).Decode(&sendID); err != nil {
		return 0, fmt.Errorf("%w: decoding send id: %v", domain.ErrDispatch, err)
	}
	return sendID, nil
}
