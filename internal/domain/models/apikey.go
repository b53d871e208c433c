// internal/domain/models/apikey.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// API key scopes.
const (
	ScopeRead  = "READ"
	ScopeWrite = "WRITE"
)

// APIKey is a service credential presented in the x-api-key header as
// "<prefix>.<secret>". Only a bcrypt hash of the secret is stored.
type APIKey struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Prefix     string             `bson:"prefix" json:"prefix"`
	SecretHash string             `bson:"secret_hash" json:"-"`
	Scopes     []string           `bson:"scopes" json:"scopes"`
	Status     string             `bson:"status" json:"status"` // active | revoked
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// HasScope reports whether the key grants scope. WRITE implies READ.
func (k APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope || (s == ScopeWrite && scope == ScopeRead) {
			return true
		}
	}
	return false
}
