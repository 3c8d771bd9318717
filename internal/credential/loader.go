package credential

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"software.sslmate.com/src/go-pkcs12"
)

// Material is a decoded certificate with its private key.
type Material struct {
	Certificate *x509.Certificate
	PrivateKey  crypto.PrivateKey
}

// LoadFile reads a credential from path.
//
// Files ending in .pfx or .p12 are decoded as PKCS#12 with secret as the
// password. The bag may carry the CA chain; the certificate matching the
// private key is used. Files starting with a PEM header are decoded as a PEM bundle
// holding one CERTIFICATE block and one private key block. Anything else is
// tried as PKCS#12.
func LoadFile(path, secret string) (*Material, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &Error{Code: ErrCodeMissingPath, Message: "credential path is required"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeUnreadable, Path: path, Message: "failed to read credential", Err: err}
	}

	var m *Material
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".pfx" || ext == ".p12":
		m, err = decodePKCS12(data, secret)
	case bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN")):
		m, err = decodePEM(data)
	default:
		m, err = decodePKCS12(data, secret)
	}
	if err != nil {
		return nil, &Error{Code: ErrCodeMalformed, Path: path, Message: "failed to decode credential", Err: err}
	}

	if err := checkKeyMatches(m); err != nil {
		return nil, &Error{Code: ErrCodeMalformed, Path: path, Message: "private key does not match certificate", Err: err}
	}

	return m, nil
}

func decodePKCS12(data []byte, secret string) (*Material, error) {
	key, cert, chain, err := pkcs12.DecodeChain(data, secret)
	if err != nil {
		return nil, err
	}
	return &Material{Certificate: selectLeaf(key, cert, chain), PrivateKey: key}, nil
}

// selectLeaf returns the certificate whose public key matches key, preferring
// cert. When none matches, cert is returned and checkKeyMatches reports it.
func selectLeaf(key crypto.PrivateKey, cert *x509.Certificate, chain []*x509.Certificate) *x509.Certificate {
	for _, c := range append([]*x509.Certificate{cert}, chain...) {
		if c != nil && checkKeyMatches(&Material{Certificate: c, PrivateKey: key}) == nil {
			return c
		}
	}
	return cert
}

func decodePEM(data []byte) (*Material, error) {
	m := &Material{}

	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}

		switch block.Type {
		case "CERTIFICATE":
			if m.Certificate != nil {
				continue
			}
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse certificate: %w", err)
			}
			m.Certificate = cert
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse private key: %w", err)
			}
			m.PrivateKey = key
		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse private key: %w", err)
			}
			m.PrivateKey = key
		case "EC PRIVATE KEY":
			key, err := x509.ParseECPrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse private key: %w", err)
			}
			m.PrivateKey = key
		}
	}

	if m.Certificate == nil {
		return nil, errors.New("no CERTIFICATE block found")
	}
	if m.PrivateKey == nil {
		return nil, errors.New("no private key block found")
	}
	return m, nil
}

// checkKeyMatches verifies the private key belongs to the certificate.
func checkKeyMatches(m *Material) error {
	if m.Certificate == nil {
		return errors.New("no certificate found")
	}
	signer, ok := m.PrivateKey.(crypto.Signer)
	if !ok {
		return fmt.Errorf("unsupported private key type %T", m.PrivateKey)
	}
	pub, ok := signer.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok {
		return fmt.Errorf("unsupported public key type %T", signer.Public())
	}
	if !pub.Equal(m.Certificate.PublicKey) {
		return errors.New("public keys differ")
	}
	return nil
}
