package document

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// DomainDigest separates document digests from any other SHA-256 use.
// Version suffix enables future algorithm migration.
const DomainDigest = "nfesynth/document/v1"

// digestWithDomain computes base64(SHA256(domain + 0x00 + parts joined by 0x1f)).
// The null byte separator prevents domain/data boundary ambiguity; the unit
// separator keeps adjacent fields from running together.
func digestWithDomain(domain string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write([]byte(strings.Join(parts, "\x1f")))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
