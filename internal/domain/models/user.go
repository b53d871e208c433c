// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Value sources. These are the keys of User.AIGeneratedValues.
const (
	SourceWarpcast = "warpcast"
	SourceTwitter  = "twitter"
)

// User is a community member identified by at least one of email,
// Farcaster fid or Twitter handle.
//
// NOTE:
//   - MintedValues may contain the same value more than once. Consumers
//     must tolerate duplicates.
//   - AIGeneratedValues is replaced per source on every generation run.
type User struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Email         *string `bson:"email,omitempty" json:"email,omitempty"`
	Farcaster     *int64  `bson:"farcaster,omitempty" json:"farcaster,omitempty"`
	Twitter       *string `bson:"twitter,omitempty" json:"twitter,omitempty"`
	TwitterUserID *string `bson:"twitter_user_id,omitempty" json:"twitterUserId,omitempty"`

	MintedValues      []MintedValue     `bson:"minted_values" json:"mintedValues"`
	AIGeneratedValues AIGeneratedValues `bson:"ai_generated_values" json:"aiGeneratedValues"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// MintedValue is a value the user has committed on-chain.
type MintedValue struct {
	Value    string        `bson:"value" json:"value"`
	Metadata ValueMetadata `bson:"metadata" json:"metadata"`
	CID      string        `bson:"cid" json:"cid"`
}

// ValueMetadata is the off-chain token metadata pinned for a value.
type ValueMetadata struct {
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
	Image       string `bson:"image,omitempty" json:"image,omitempty"`
}

// AIGeneratedValues holds the candidate values produced per content source.
type AIGeneratedValues struct {
	Warpcast []string `bson:"warpcast,omitempty" json:"warpcast,omitempty"`
	Twitter  []string `bson:"twitter,omitempty" json:"twitter,omitempty"`
}

// ForSource returns the generated values for the given source name.
func (v AIGeneratedValues) ForSource(source string) []string {
	switch source {
	case SourceWarpcast:
		return v.Warpcast
	case SourceTwitter:
		return v.Twitter
	}
	return nil
}

// MintedValueStrings returns the value labels of u's minted values in
// insertion order. Duplicates are kept.
func (u *User) MintedValueStrings() []string {
	if u == nil {
		return []string{}
	}
	out := make([]string, 0, len(u.MintedValues))
	for _, mv := range u.MintedValues {
		out = append(out, mv.Value)
	}
	return out
}

// FID returns the user's Farcaster fid, or 0 if none is linked.
func (u *User) FID() int64 {
	if u == nil || u.Farcaster == nil {
		return 0
	}
	return *u.Farcaster
}
