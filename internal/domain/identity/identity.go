// Package identity defines the typed identity keys a User can be resolved by.
//
// A Key is one of Email, FID or Twitter. Each variant knows the document
// filter that resolves it and the fields written when a record is created
// for it, so callers never build ad-hoc filters out of whichever query
// parameters happened to be present.
package identity

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dalemusser/valuesdao/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	// ErrMissing is returned when no usable identity was supplied.
	ErrMissing = errors.New("identity is required")
	// ErrInvalidFID is returned when a fid is not a positive integer.
	ErrInvalidFID = errors.New("fid must be a positive integer")
	// ErrTwitterUserIDRequired is returned when a Twitter handle is supplied
	// without the numeric Twitter user id needed to fetch its timeline.
	ErrTwitterUserIDRequired = errors.New("twitter_userId is required with twitter")
)

// Key identifies a single User record.
type Key interface {
	// Filter returns the Mongo filter that matches the record for this key.
	Filter() bson.M
	// OnInsert returns the identity fields written when the record is created.
	OnInsert() bson.M
	// String is a log-friendly form such as "fid:3".
	String() string

	isKey()
}

// Email identifies a user by email address.
type Email struct {
	Address string
}

// FID identifies a user by Farcaster fid.
type FID struct {
	ID int64
}

// Twitter identifies a user by Twitter handle. UserID is the numeric id used
// to fetch the timeline; it is recorded but not part of the filter.
type Twitter struct {
	Handle string
	UserID string
}

func (Email) isKey()   {}
func (FID) isKey()     {}
func (Twitter) isKey() {}

func (k Email) Filter() bson.M   { return bson.M{"email": k.Address} }
func (k FID) Filter() bson.M     { return bson.M{"farcaster": k.ID} }
func (k Twitter) Filter() bson.M { return bson.M{"twitter": k.Handle} }

func (k Email) OnInsert() bson.M { return bson.M{"email": k.Address} }
func (k FID) OnInsert() bson.M   { return bson.M{"farcaster": k.ID} }
func (k Twitter) OnInsert() bson.M {
	m := bson.M{"twitter": k.Handle}
	if k.UserID != "" {
		m["twitter_user_id"] = k.UserID
	}
	return m
}

func (k Email) String() string   { return "email:" + k.Address }
func (k FID) String() string     { return "fid:" + strconv.FormatInt(k.ID, 10) }
func (k Twitter) String() string { return "twitter:" + k.Handle }

// NewEmail normalizes an email address into an Email key.
func NewEmail(s string) (Email, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Email{}, ErrMissing
	}
	return Email{Address: s}, nil
}

// ParseFID parses the string form of a Farcaster fid.
func ParseFID(s string) (FID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FID{}, ErrMissing
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return FID{}, ErrInvalidFID
	}
	return FID{ID: n}, nil
}

// NewTwitter normalizes a Twitter handle ("@Name" → "name").
func NewTwitter(handle, userID string) (Twitter, error) {
	handle = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
	if handle == "" {
		return Twitter{}, ErrMissing
	}
	return Twitter{Handle: handle, UserID: strings.TrimSpace(userID)}, nil
}

// ParseRequester picks the identity of a caller asking for alignment.
// A fid is preferred over an email when both are supplied.
func ParseRequester(email, fid string) (Key, error) {
	if strings.TrimSpace(fid) != "" {
		return ParseFID(fid)
	}
	if strings.TrimSpace(email) != "" {
		return NewEmail(email)
	}
	return nil, ErrMissing
}

// Selection is the identity and content source chosen for a generation run.
type Selection struct {
	Key    Key
	Source string // models.SourceWarpcast or models.SourceTwitter
	Email  string // optional, recorded when the record is created
}

// ForGeneration chooses the content source for a value-generation request.
//
// Precedence: a fid selects the Farcaster (warpcast) source and any Twitter
// selector is ignored. Twitter is selected only when no fid is supplied, and
// then both the handle and the numeric user id are required.
func ForGeneration(email, fid, twitter, twitterUserID string) (Selection, error) {
	var sel Selection
	if e, err := NewEmail(email); err == nil {
		sel.Email = e.Address
	}

	if strings.TrimSpace(fid) != "" {
		k, err := ParseFID(fid)
		if err != nil {
			return Selection{}, err
		}
		sel.Key, sel.Source = k, models.SourceWarpcast
		return sel, nil
	}

	if strings.TrimSpace(twitter) != "" {
		k, err := NewTwitter(twitter, twitterUserID)
		if err != nil {
			return Selection{}, err
		}
		if k.UserID == "" {
			return Selection{}, ErrTwitterUserIDRequired
		}
		sel.Key, sel.Source = k, models.SourceTwitter
		return sel, nil
	}

	return Selection{}, ErrMissing
}

// FromQuery resolves a lookup key from fid, email or twitter parameters,
// in that order of preference.
func FromQuery(email, fid, twitter string) (Key, error) {
	if strings.TrimSpace(fid) != "" {
		return ParseFID(fid)
	}
	if strings.TrimSpace(email) != "" {
		return NewEmail(email)
	}
	if strings.TrimSpace(twitter) != "" {
		return NewTwitter(twitter, "")
	}
	return nil, ErrMissing
}
