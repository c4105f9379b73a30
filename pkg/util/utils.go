package util

import (
	"strings"

	"github.com/currantlabs/ble"
)

// NormalizeMAC returns the canonical (upper case, trimmed) form of a MAC address
func NormalizeMAC(mac string) string {
	return strings.ToUpper(strings.TrimSpace(mac))
}

// AddrEqualAddr compares two MAC addresses ignoring case
func AddrEqualAddr(a string, b string) bool {
	return NormalizeMAC(a) == NormalizeMAC(b)
}

// UuidEqualStr compares a parsed UUID with its dashed string form
func UuidEqualStr(u ble.UUID, s string) bool {
	compare := strings.Replace(s, "-", "", -1)
	return AddrEqualAddr(compare, u.String())
}
