package orders

import (
	"strings"

	"github.com/google/uuid"
)

// NewOrderNumber returns an 8-character uppercase hex identifier. Collisions
// are possible at this length, so creation retries under the unique index.
func NewOrderNumber() string {
	id := uuid.NewString()
	return strings.ToUpper(id[:strings.Index(id, "-")])
}
