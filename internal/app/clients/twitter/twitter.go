// Package twitter reads a user's timeline from the Twitter (X) v2 API using
// app-only OAuth2 client credentials.
package twitter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultBaseURL  = "https://api.twitter.com"
	DefaultTokenURL = "https://api.twitter.com/oauth2/token"
	// DefaultMaxTweets is the most the timeline endpoint will return.
	DefaultMaxTweets = 3200
	pageSize         = 100
)

// Config holds the app credentials and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	MaxTweets    int
	Timeout      time.Duration
}

// Client fetches tweets. The underlying HTTP client obtains and refreshes
// the bearer token on demand.
type Client struct {
	http      *resty.Client
	maxTweets int
}

// New builds a client. ctx scopes the token source's HTTP client only.
func New(ctx context.Context, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.MaxTweets <= 0 {
		cfg.MaxTweets = DefaultMaxTweets
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return newWithHTTPClient(cc.Client(ctx), cfg)
}

func newWithHTTPClient(hc *http.Client, cfg Config) *Client {
	c := resty.NewWithClient(hc).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || (r != nil && (r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500))
	})
	return &Client{http: c, maxTweets: cfg.MaxTweets}
}

type timelinePage struct {
	Data []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// FetchTweets returns the text of userID's available tweets, newest first,
// up to the configured maximum.
func (c *Client) FetchTweets(ctx context.Context, userID string) ([]string, error) {
	var out []string
	token := ""
	for len(out) < c.maxTweets {
		var page timelinePage
		var apiErr apiError
		req := c.http.R().
			SetContext(ctx).
			SetPathParam("id", userID).
			SetQueryParam("max_results", strconv.Itoa(pageSize)).
			SetResult(&page).
			SetError(&apiErr)
		if token != "" {
			req.SetQueryParam("pagination_token", token)
		}
		resp, err := req.Get("/2/users/{id}/tweets")
		if err != nil {
			return nil, fmt.Errorf("twitter timeline: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("twitter timeline: status %d: %s %s", resp.StatusCode(), apiErr.Title, apiErr.Detail)
		}

		for _, tw := range page.Data {
			if len(out) == c.maxTweets {
				break
			}
			out = append(out, tw.Text)
		}
		if page.Meta.NextToken == "" || len(page.Data) == 0 {
			break
		}
		token = page.Meta.NextToken
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
