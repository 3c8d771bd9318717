package accesskey

import "fmt"

// ComputeCheckDigit returns the mod-11 check digit for the first 43
// characters of an access key.
//
// Digits are weighted 2..9 cycling from the rightmost digit. A remainder
// of 0 or 1 yields '0'; otherwise the digit is 11 - remainder.
func ComputeCheckDigit(prefix string) (byte, error) {
	if len(prefix) != Length-1 {
		return 0, fmt.Errorf("check digit prefix must have %d characters, got %d", Length-1, len(prefix))
	}

	sum := 0
	weight := 2
	for i := len(prefix) - 1; i >= 0; i-- {
		c := prefix[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("check digit prefix has non-digit %q at position %d", c, i)
		}
		sum += int(c-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}

	r := sum % 11
	if r < 2 {
		return '0', nil
	}
	return byte('0' + 11 - r), nil
}
