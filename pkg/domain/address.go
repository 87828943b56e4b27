package domain

import (
	"strings"

	dErrors "custodia/pkg/domain-errors"
)

// Address identifies an account on the hosting ledger. The platform guarantees
// the caller's claimed address is cryptographically authentic before it
// reaches us; we only validate shape at trust boundaries.
type Address string

const maxAddressLen = 128

// ParseAddress validates an account identifier received at an API boundary.
func ParseAddress(raw string) (Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	if len(raw) > maxAddressLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address exceeds maximum length")
	}
	for _, r := range raw {
		if r < 0x21 || r > 0x7e {
			return "", dErrors.New(dErrors.CodeInvalidInput, "address contains invalid characters")
		}
	}
	return Address(raw), nil
}

func (a Address) String() string { return string(a) }

func (a Address) IsZero() bool { return a == "" }

// DedupeAddresses returns addrs with duplicates removed, preserving first
// occurrence order.
func DedupeAddresses(addrs []Address) []Address {
	seen := make(map[Address]struct{}, len(addrs))
	out := make([]Address, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
