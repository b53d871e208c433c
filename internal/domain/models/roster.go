// internal/domain/models/roster.go
package models

// RosterEntry is one pass holder in an externally maintained roster.
// The fid is stored as the string form of the numeric Farcaster id.
type RosterEntry struct {
	FID      string   `bson:"fid" json:"fid"`
	Username string   `bson:"username" json:"username"`
	Image    string   `bson:"image" json:"image"`
	Address  []string `bson:"address" json:"address"`
}
