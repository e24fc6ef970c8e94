package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/clsasailing/weekly-blast/internal/config"
	"github.com/clsasailing/weekly-blast/internal/domain"
)

const (
	defaultBaseURL  = "https://api.wildapricot.org"
	defaultTokenURL = "https://oauth.wildapricot.org/auth/token"
)

// Client is the authenticated Wild Apricot API client shared by the contact,
// event and mailer gateways. Its HTTP client attaches the bearer token to
// every request.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiVersion    string
	accountNumber int64
	pageSize      int
}

// NewClient exchanges the account API key for a bearer token and returns a
// client for the account's API. Wild Apricot's token endpoint takes HTTP
// Basic "APIKEY:<key>" with the client-credentials grant and scope "auto".
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	cc := &clientcredentials.Config{
		ClientID:       "APIKEY",
		ClientSecret:   cfg.APIKey,
		TokenURL:       defaultTokenURL,
		EndpointParams: url.Values{"scope": {"auto"}},
		AuthStyle:      oauth2.AuthStyleInHeader,
	}

	tokenSource := cc.TokenSource(ctx)
	if _, err := tokenSource.Token(); err != nil {
		return nil, fmt.Errorf("%w: wild apricot token exchange: %v", domain.ErrAuth, err)
	}

	return &Client{
		httpClient:    oauth2.NewClient(ctx, tokenSource),
		baseURL:       defaultBaseURL,
		apiVersion:    cfg.APIVersion,
		accountNumber: cfg.AccountNumber,
		pageSize:      cfg.PageSize,
	}, nil
}

// accountURL builds a URL under the account's data API.
func (c *Client) accountURL(path string) string {
	return fmt.Sprintf("%s/%s/accounts/%d%s", c.baseURL, c.apiVersion, c.accountNumber, path)
}

// rpcURL builds a URL under the account's RPC API.
func (c *Client) rpcURL(path string) string {
	return fmt.Sprintf("%s/%s/rpc/%d%s", c.baseURL, c.apiVersion, c.accountNumber, path)
}

// getJSON issues an authenticated GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, requestURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// fetchAllPages accumulates a paged collection by issuing requests at offsets
// 0, pageSize, 2*pageSize, ... until a page comes back shorter than pageSize.
// The remote does not report a total count, so a collection that is an exact
// multiple of pageSize costs one final empty request to confirm the end. Any
// page failure discards everything fetched so far.
func fetchAllPages[T any](pageSize int, fetchPage func(offset int) ([]T, error)) ([]T, error) {
	var all []T
	for offset := 0; ; offset += pageSize {
		page, err := fetchPage(offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}
