// Package pinata pins value batches to IPFS through Pinata.
package pinata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.pinata.cloud"

// Client pins JSON documents.
type Client struct {
	http *resty.Client
}

// New returns a client authenticated with a Pinata JWT.
func New(jwt, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(jwt).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

// ValuesDocument is the pinned metadata for one batch.
type ValuesDocument struct {
	Name   string   `json:"name"`
	FID    int64    `json:"fid"`
	Values []string `json:"values"`
}

type pinRequest struct {
	Content  ValuesDocument `json:"pinataContent"`
	Metadata struct {
		Name string `json:"name"`
	} `json:"pinataMetadata"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type pinError struct {
	Error any `json:"error"`
}

// PinValues pins all values for fid as one JSON document and returns its
// CID. Pinning identical content yields the same CID.
func (c *Client) PinValues(ctx context.Context, fid int64, values []string) (string, error) {
	if len(values) == 0 {
		return "", errors.New("pinata: no values to pin")
	}
	var req pinRequest
	req.Content = ValuesDocument{
		Name:   fmt.Sprintf("ValuesDAO values for fid %d", fid),
		FID:    fid,
		Values: values,
	}
	req.Metadata.Name = req.Content.Name

	var out pinResponse
	var perr pinError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&perr).
		Post("/pinning/pinJSONToIPFS")
	if err != nil {
		return "", fmt.Errorf("pinata: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("pinata: status %d: %v", resp.StatusCode(), perr.Error)
	}
	if out.IpfsHash == "" {
		return "", errors.New("pinata: response has no IpfsHash")
	}
	return out.IpfsHash, nil
}
