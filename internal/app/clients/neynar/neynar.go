// Package neynar reads Farcaster casts and wallet addresses from the Neynar
// v2 API.
package neynar

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://api.neynar.com"
	// maxPageSize is the largest page the casts feed accepts.
	maxPageSize = 150
)

// ErrNoAddress is returned when a fid has neither a verified address nor a
// custody address.
var ErrNoAddress = errors.New("no wallet address for fid")

// Client is a Neynar API client.
type Client struct {
	http *resty.Client
}

// New returns a client authenticated with apiKey. baseURL may be empty.
func New(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("api_key", apiKey).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	c.AddRetryCondition(retryable)
	return &Client{http: c}
}

func retryable(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == 429 || code >= 500
}

type cast struct {
	Hash string `json:"hash"`
	Text string `json:"text"`
}

type castsPage struct {
	Casts []cast `json:"casts"`
	Next  struct {
		Cursor string `json:"cursor"`
	} `json:"next"`
}

type apiError struct {
	Message string `json:"message"`
}

// FetchCasts returns the text of up to limit of fid's most recent casts,
// newest first, following the feed cursor across pages.
func (c *Client) FetchCasts(ctx context.Context, fid int64, limit int) ([]string, error) {
	out := make([]string, 0, limit)
	cursor := ""
	for len(out) < limit {
		size := min(limit-len(out), maxPageSize)

		var page castsPage
		var apiErr apiError
		req := c.http.R().
			SetContext(ctx).
			SetQueryParam("fid", strconv.FormatInt(fid, 10)).
			SetQueryParam("limit", strconv.Itoa(size)).
			SetQueryParam("include_replies", "true").
			SetResult(&page).
			SetError(&apiErr)
		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}
		resp, err := req.Get("/v2/farcaster/feed/user/casts")
		if err != nil {
			return nil, fmt.Errorf("neynar casts: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("neynar casts: status %d: %s", resp.StatusCode(), apiErr.Message)
		}

		for _, cs := range page.Casts {
			if len(out) == limit {
				break
			}
			out = append(out, cs.Text)
		}
		if page.Next.Cursor == "" || len(page.Casts) == 0 {
			break
		}
		cursor = page.Next.Cursor
	}
	return out, nil
}

type bulkUsers struct {
	Users []struct {
		FID               int64  `json:"fid"`
		CustodyAddress    string `json:"custody_address"`
		VerifiedAddresses struct {
			EthAddresses []string `json:"eth_addresses"`
		} `json:"verified_addresses"`
	} `json:"users"`
}

// AddressForFID returns the first verified Ethereum address of fid, falling
// back to its custody address.
func (c *Client) AddressForFID(ctx context.Context, fid int64) (string, error) {
	var body bulkUsers
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("fids", strconv.FormatInt(fid, 10)).
		SetResult(&body).
		SetError(&apiErr).
		Get("/v2/farcaster/user/bulk")
	if err != nil {
		return "", fmt.Errorf("neynar user: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("neynar user: status %d: %s", resp.StatusCode(), apiErr.Message)
	}

	for _, u := range body.Users {
		if u.FID != fid {
			continue
		}
		if len(u.VerifiedAddresses.EthAddresses) > 0 && u.VerifiedAddresses.EthAddresses[0] != "" {
			return u.VerifiedAddresses.EthAddresses[0], nil
		}
		if u.CustodyAddress != "" {
			return u.CustodyAddress, nil
		}
	}
	return "", ErrNoAddress
}
