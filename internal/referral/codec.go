// Package referral generates, validates and formats shareable referral
// codes. Pure functions, no I/O; the referral ledger lives behind the
// row-store port.
package referral

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strings"
)

// codePattern is the canonical referral code shape: SLEEP-<prefix>-<suffix>.
// The prefix is derived from the referrer's name or email, the suffix is
// random. Validation is case-sensitive; codes are always uppercase.
var codePattern = regexp.MustCompile(`^SLEEP-[A-Z0-9]{1,6}-[A-Z0-9]{4}$`)

const suffixAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O, 1/I

// Generate builds a new referral code from a name/email seed. The seed
// contributes up to 6 alphanumeric characters; an empty or unusable seed
// falls back to "FRIEND".
func Generate(seed string) string {
	prefix := normalizeSeed(seed)
	if prefix == "" {
		prefix = "FRIEND"
	}

	suffix := make([]byte, 4)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(suffixAlphabet))))
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// degrade to a fixed character rather than panic.
			suffix[i] = 'X'
			continue
		}
		suffix[i] = suffixAlphabet[n.Int64()]
	}

	return fmt.Sprintf("SLEEP-%s-%s", prefix, suffix)
}

// Validate reports whether code matches the referral pattern exactly.
// Lowercase or truncated codes are rejected.
func Validate(code string) bool {
	return codePattern.MatchString(code)
}

// Link returns the shareable storefront URL carrying the code.
func Link(baseURL, code string) string {
	return fmt.Sprintf("%s/?ref=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(code))
}

// normalizeSeed keeps the leading alphanumeric run of the seed, uppercased
// and capped at 6 characters. For emails only the local part is used.
func normalizeSeed(seed string) string {
	if at := strings.IndexByte(seed, '@'); at >= 0 {
		seed = seed[:at]
	}

	var b strings.Builder
	for _, r := range strings.ToUpper(seed) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == 6 {
				break
			}
		}
	}
	return b.String()
}
