package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cppla/aiblog/models"
)

// TokenIssuer hands out the token returned by register, login and refresh.
type TokenIssuer interface {
	IssueToken(user *models.User) (string, error)
}

// OpaqueIssuer issues unsigned random tokens. They are never stored, never
// expire and carry no claims; the resolver does not inspect their content.
type OpaqueIssuer struct{}

func (OpaqueIssuer) IssueToken(user *models.User) (string, error) {
	return IssueToken(user), nil
}

// IssueToken returns sha256("<user id>-<uuid4>-<uuid1 timestamp>") in hex.
// Every call yields a new token, even for the same user.
func IssueToken(user *models.User) string {
	seed := fmt.Sprintf("%d-%s-%d", user.ID, uuid.NewString(), timeComponent())
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// timeComponent is the 100ns-since-1582 count of a version 1 uuid.
func timeComponent() int64 {
	if id, err := uuid.NewUUID(); err == nil {
		return int64(id.Time())
	}
	return time.Now().UnixNano()
}
