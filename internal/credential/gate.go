// Package credential validates the X.509 credential a batch run is bound to.
//
// Validation happens once, before any access key is processed. A failure is
// fatal for the whole run and is never retried: an unreadable or malformed
// credential is a configuration problem, not a transient fault.
package credential

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/nfesynth/internal/clock"
)

// oidCNPJ is the ICP-Brasil attribute carrying the holder's CNPJ.
var oidCNPJ = asn1.ObjectIdentifier{2, 16, 76, 1, 3, 3}

// UnknownTaxID is reported when the certificate carries no CNPJ.
const UnknownTaxID = "00000000000000"

// Handle is a successfully validated credential.
type Handle struct {
	Subject   string
	TaxID     string
	NotBefore time.Time
	NotAfter  time.Time

	Certificate *x509.Certificate
}

// LoadFunc loads credential material from a path and secret.
type LoadFunc func(path, secret string) (*Material, error)

// Gate validates credentials against a clock.
type Gate struct {
	load  LoadFunc
	clock clock.Clock
}

// NewGate creates a Gate that loads files with LoadFile.
// If clk is nil, clock.System is used.
func NewGate(clk clock.Clock) *Gate {
	return NewGateWithLoader(LoadFile, clk)
}

// NewGateWithLoader creates a Gate with a custom loader.
func NewGateWithLoader(load LoadFunc, clk clock.Clock) *Gate {
	if clk == nil {
		clk = clock.System{}
	}
	return &Gate{load: load, clock: clk}
}

// Validate loads the credential and checks its validity window.
func (g *Gate) Validate(path, secret string) (*Handle, error) {
	slog.Debug("loading credential", "path", path)

	m, err := g.load(path, secret)
	if err != nil {
		return nil, err
	}
	cert := m.Certificate

	now := g.clock.Now()
	if now.Before(cert.NotBefore) {
		return nil, &Error{
			Code:    ErrCodeNotYetValid,
			Path:    path,
			Message: fmt.Sprintf("certificate is valid from %s", cert.NotBefore.Format(time.RFC3339)),
		}
	}
	if now.After(cert.NotAfter) {
		return nil, &Error{
			Code:    ErrCodeExpired,
			Path:    path,
			Message: fmt.Sprintf("certificate expired at %s", cert.NotAfter.Format(time.RFC3339)),
		}
	}

	h := &Handle{
		Subject:     cert.Subject.String(),
		TaxID:       TaxIDFromSubject(cert.Subject),
		NotBefore:   cert.NotBefore,
		NotAfter:    cert.NotAfter,
		Certificate: cert,
	}
	slog.Debug("credential valid", "subject", h.Subject, "not_after", h.NotAfter)

	return h, nil
}

// TaxIDFromSubject extracts the CNPJ from a certificate subject.
//
// The ICP-Brasil attribute 2.16.76.1.3.3 is preferred. Otherwise a common
// name of the form "NAME:14digits" is accepted. Punctuation is stripped.
// Returns UnknownTaxID when neither is present.
func TaxIDFromSubject(subject pkix.Name) string {
	for _, atv := range subject.Names {
		if !atv.Type.Equal(oidCNPJ) {
			continue
		}
		if s, ok := atv.Value.(string); ok {
			if id := digitsOnly(s); id != "" {
				return id
			}
		}
	}

	if i := strings.LastIndexByte(subject.CommonName, ':'); i >= 0 {
		if id := digitsOnly(subject.CommonName[i+1:]); len(id) == 14 {
			return id
		}
	}

	return UnknownTaxID
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '/' || r == '-' || r == ' ':
		default:
			return ""
		}
	}
	return b.String()
}
