package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Purposes distinguish records created from the same suggested action.
const (
	PurposeAction    = "action"
	PurposeCompanion = "companion_event"
)

// idNamespace scopes deterministic record IDs.
var idNamespace = uuid.MustParse("6f1d4c3e-8a52-4b7e-9d0c-2e5a7b1f3c90")

// SourceRef points from a downstream record back to the inbox suggestion
// that produced it.
type SourceRef struct {
	Collection  string `json:"collection,omitempty" firestore:"collection"`
	ItemID      string `json:"itemId,omitempty" firestore:"itemId"`
	ActionIndex int    `json:"actionIndex" firestore:"actionIndex"`
	Purpose     string `json:"purpose,omitempty" firestore:"purpose"`
}

// IsZero reports whether the reference is unset.
func (r SourceRef) IsZero() bool {
	return r.Collection == "" && r.ItemID == ""
}

// String renders the inbox item key, "collection/itemId", or "" when unset.
func (r SourceRef) String() string {
	if r.IsZero() {
		return ""
	}
	return r.Collection + "/" + r.ItemID
}

// RecordID derives a stable ID for a record of the given kind. Retrying the
// same action yields the same ID, so a repeated write finds the first record.
func (r SourceRef) RecordID(kind string) string {
	return DeterministicID(kind, r.Collection, r.ItemID, strconv.Itoa(r.ActionIndex), r.Purpose)
}

// DeterministicID hashes the parts into a name-based UUID.
func DeterministicID(parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "\x1f"))).String()
}
