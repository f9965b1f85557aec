package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/furkansenharputlu/f-keyfile/lcs"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("check record not found")

// CheckRecord is one entry of the license check history.
type CheckRecord struct {
	ID           string    `json:"id" bson:"_id" gorm:"primaryKey"`
	Status       string    `json:"status" bson:"status"`
	Kind         string    `json:"kind,omitempty" bson:"kind,omitempty"`
	Source       string    `json:"source,omitempty" bson:"source,omitempty"`
	Message      string    `json:"message,omitempty" bson:"message,omitempty"`
	BodyHash     string    `json:"body_hash,omitempty" bson:"body_hash,omitempty"`
	ExpiresAfter string    `json:"expires_after,omitempty" bson:"expires_after,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" gorm:"index"`
}

// NewCheckRecord converts a check outcome into a history record. The license
// body itself is not stored, only its SHA-256.
func NewCheckRecord(o lcs.Outcome) *CheckRecord {
	r := &CheckRecord{
		ID:        uuid.New().String(),
		Status:    string(o.Status),
		Source:    string(o.Source),
		Message:   o.Message,
		CreatedAt: o.At.UTC(),
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	if k := o.Kind(); k != lcs.KindNone {
		r.Kind = k.String()
	}

	if o.License != nil {
		sum := sha256.Sum256([]byte(o.License.Body()))
		r.BodyHash = hex.EncodeToString(sum[:])
		r.ExpiresAfter, _ = o.License.ExpiresAfter()
	}

	return r
}
