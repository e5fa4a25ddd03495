package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Entity id prefixes
const (
	UUIDPrefixInvoice  = "inv"
	UUIDPrefixLineItem = "li"
	UUIDPrefixPayment  = "pay"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex inv_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}
