package report

import (
	"math/big"
	"strings"
)

func parseHex(s string) (*big.Int, bool) {
	digits := strings.TrimSpace(s)
	if len(digits) > 2 && (digits[:2] == "0x" || digits[:2] == "0X") {
		digits = digits[2:]
	}
	if digits == "" {
		return nil, false
	}
	n, ok := new(big.Int).SetString(digits, 16)
	if !ok || n.Sign() < 0 {
		return nil, false
	}
	return n, true
}

// HexToBin converts a hexadecimal value to binary digits. Values that are
// not hexadecimal are returned unchanged.
func HexToBin(s string) string {
	n, ok := parseHex(s)
	if !ok {
		return s
	}
	return n.Text(2)
}

// HexToDec converts a hexadecimal value to decimal digits. Values that are
// not hexadecimal are returned unchanged.
func HexToDec(s string) string {
	n, ok := parseHex(s)
	if !ok {
		return s
	}
	return n.Text(10)
}
