package credential

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"software.sslmate.com/src/go-pkcs12"

	"github.com/roach88/nfesynth/internal/testutil"
)

const pfxSecret = "s3cret"

type certOptions struct {
	commonName string
	cnpj       string
	notBefore  time.Time
	notAfter   time.Time
}

// newCertificate creates a certificate for opts. A nil parent makes it
// self-signed.
func newCertificate(t *testing.T, opts certOptions, serial int64, parent *x509.Certificate, parentKey *ecdsa.PrivateKey) (*ecdsa.PrivateKey, *x509.Certificate) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	subject := pkix.Name{CommonName: opts.commonName, Organization: []string{"ICP-Brasil"}}
	if opts.cnpj != "" {
		subject.ExtraNames = []pkix.AttributeTypeAndValue{
			{Type: asn1.ObjectIdentifier{2, 16, 76, 1, 3, 3}, Value: opts.cnpj},
		}
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      subject,
		NotBefore:    opts.notBefore,
		NotAfter:     opts.notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	if parent == nil {
		tmpl.IsCA = true
		tmpl.BasicConstraintsValid = true
		tmpl.KeyUsage |= x509.KeyUsageCertSign
		parent, parentKey = tmpl, key
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, &key.PublicKey, parentKey)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return key, cert
}

// writePEMCredential creates a self-signed certificate and key bundle.
func writePEMCredential(t *testing.T, opts certOptions) string {
	t.Helper()

	key, cert := newCertificate(t, opts, 1, nil, nil)
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	data = append(data, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})...)

	path := filepath.Join(t.TempDir(), "cert.pem")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// writePKCS12Credential encodes key, cert and chain into a .pfx file.
func writePKCS12Credential(t *testing.T, enc *pkcs12.Encoder, key *ecdsa.PrivateKey, cert *x509.Certificate, chain []*x509.Certificate) string {
	t.Helper()

	data, err := enc.Encode(key, cert, chain, pfxSecret)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cert.pfx")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func caOptions() certOptions {
	ref := testutil.ReferenceTime()
	return certOptions{
		commonName: "AC EXEMPLO RFB v5",
		notBefore:  ref.AddDate(-5, 0, 0),
		notAfter:   ref.AddDate(5, 0, 0),
	}
}

func validOptions() certOptions {
	ref := testutil.ReferenceTime()
	return certOptions{
		commonName: "EMPRESA EXEMPLO LTDA:14200166000187",
		cnpj:       "14.200.166/0001-87",
		notBefore:  ref.AddDate(-1, 0, 0),
		notAfter:   ref.AddDate(1, 0, 0),
	}
}

func TestGate_ValidPEM(t *testing.T) {
	path := writePEMCredential(t, validOptions())
	gate := NewGate(testutil.NewFixedClock(testutil.ReferenceTime()))

	h, err := gate.Validate(path, "")
	require.NoError(t, err)
	assert.Contains(t, h.Subject, "EMPRESA EXEMPLO LTDA")
	assert.Equal(t, "14200166000187", h.TaxID)
	assert.NotNil(t, h.Certificate)
	assert.True(t, h.NotAfter.After(h.NotBefore))
}

func TestGate_TaxIDFromCommonName(t *testing.T) {
	opts := validOptions()
	opts.cnpj = ""
	path := writePEMCredential(t, opts)

	h, err := NewGate(testutil.NewFixedClock(testutil.ReferenceTime())).Validate(path, "")
	require.NoError(t, err)
	assert.Equal(t, "14200166000187", h.TaxID)
}

func TestGate_Expired(t *testing.T) {
	opts := validOptions()
	opts.notAfter = testutil.ReferenceTime().Add(-time.Hour)
	path := writePEMCredential(t, opts)

	_, err := NewGate(testutil.NewFixedClock(testutil.ReferenceTime())).Validate(path, "")
	require.Error(t, err)
	assert.Equal(t, ErrCodeExpired, CodeOf(err))
	assert.True(t, IsCredentialError(err))
}

func TestGate_NotYetValid(t *testing.T) {
	opts := validOptions()
	opts.notBefore = testutil.ReferenceTime().Add(time.Hour)
	path := writePEMCredential(t, opts)

	_, err := NewGate(testutil.NewFixedClock(testutil.ReferenceTime())).Validate(path, "")
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotYetValid, CodeOf(err))
}

func TestGate_MissingPath(t *testing.T) {
	_, err := NewGate(nil).Validate("", "secret")
	require.Error(t, err)
	assert.Equal(t, ErrCodeMissingPath, CodeOf(err))
}

func TestGate_UnreadableFile(t *testing.T) {
	_, err := NewGate(nil).Validate(filepath.Join(t.TempDir(), "missing.pfx"), "secret")
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnreadable, CodeOf(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGate_MalformedPKCS12(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cert.pfx")
	require.NoError(t, os.WriteFile(path, []byte("not a pkcs12 file"), 0600))

	_, err := NewGate(nil).Validate(path, "secret")
	require.Error(t, err)
	assert.Equal(t, ErrCodeMalformed, CodeOf(err))
	assert.Contains(t, err.Error(), "failed to decode credential")
	assert.NotContains(t, err.Error(), "pkcs12: pkcs12:")
}

func TestGate_ValidPKCS12(t *testing.T) {
	key, cert := newCertificate(t, validOptions(), 1, nil, nil)
	path := writePKCS12Credential(t, pkcs12.LegacyRC2, key, cert, nil)

	h, err := NewGate(testutil.NewFixedClock(testutil.ReferenceTime())).Validate(path, pfxSecret)
	require.NoError(t, err)
	assert.Equal(t, "14200166000187", h.TaxID)
	assert.True(t, h.Certificate.Equal(cert))
}

func TestGate_PKCS12WithChain(t *testing.T) {
	caKey, ca := newCertificate(t, caOptions(), 1, nil, nil)
	key, leaf := newCertificate(t, validOptions(), 2, ca, caKey)

	tests := []struct {
		name string
		enc  *pkcs12.Encoder
	}{
		{name: "legacy", enc: pkcs12.LegacyDES},
		{name: "modern", enc: pkcs12.Modern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePKCS12Credential(t, tt.enc, key, leaf, []*x509.Certificate{ca})

			h, err := NewGate(testutil.NewFixedClock(testutil.ReferenceTime())).Validate(path, pfxSecret)
			require.NoError(t, err)
			assert.Contains(t, h.Subject, "EMPRESA EXEMPLO LTDA")
			assert.Equal(t, "14200166000187", h.TaxID)
		})
	}
}

func TestGate_PKCS12WrongSecret(t *testing.T) {
	key, cert := newCertificate(t, validOptions(), 1, nil, nil)
	path := writePKCS12Credential(t, pkcs12.Modern, key, cert, nil)

	_, err := NewGate(testutil.NewFixedClock(testutil.ReferenceTime())).Validate(path, "wrong")
	require.Error(t, err)
	assert.Equal(t, ErrCodeMalformed, CodeOf(err))
}

func TestSelectLeaf_PicksCertificateMatchingKey(t *testing.T) {
	caKey, ca := newCertificate(t, caOptions(), 1, nil, nil)
	key, leaf := newCertificate(t, validOptions(), 2, ca, caKey)

	assert.Same(t, leaf, selectLeaf(key, ca, []*x509.Certificate{leaf}))
	assert.Same(t, leaf, selectLeaf(key, leaf, []*x509.Certificate{ca}))

	other, _ := newCertificate(t, validOptions(), 3, ca, caKey)
	assert.Same(t, ca, selectLeaf(other, ca, []*x509.Certificate{leaf}))
}

func TestGate_PEMWithoutKey(t *testing.T) {
	src := writePEMCredential(t, validOptions())
	data, err := os.ReadFile(src)
	require.NoError(t, err)

	block, _ := pem.Decode(data)
	require.NotNil(t, block)
	path := filepath.Join(t.TempDir(), "cert-only.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0600))

	_, err = NewGate(nil).Validate(path, "")
	require.Error(t, err)
	assert.Equal(t, ErrCodeMalformed, CodeOf(err))
	assert.Contains(t, err.Error(), "no private key block")
}

func TestGate_MismatchedKey(t *testing.T) {
	a, err := os.ReadFile(writePEMCredential(t, validOptions()))
	require.NoError(t, err)
	b, err := os.ReadFile(writePEMCredential(t, validOptions()))
	require.NoError(t, err)

	certA, _ := pem.Decode(a)
	_, restB := pem.Decode(b)
	keyB, _ := pem.Decode(restB)
	require.NotNil(t, certA)
	require.NotNil(t, keyB)

	path := filepath.Join(t.TempDir(), "mixed.pem")
	mixed := append(pem.EncodeToMemory(certA), pem.EncodeToMemory(keyB)...)
	require.NoError(t, os.WriteFile(path, mixed, 0600))

	_, err = NewGate(nil).Validate(path, "")
	require.Error(t, err)
	assert.Equal(t, ErrCodeMalformed, CodeOf(err))
	assert.Contains(t, err.Error(), "does not match")
}

func TestGate_CustomLoaderErrorPassesThrough(t *testing.T) {
	want := &Error{Code: ErrCodeUnreadable, Message: "boom"}
	gate := NewGateWithLoader(func(path, secret string) (*Material, error) {
		return nil, want
	}, nil)

	_, err := gate.Validate("x", "y")
	assert.Same(t, want, err)
}

func TestTaxIDFromSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject pkix.Name
		want    string
	}{
		{
			name: "oid attribute",
			subject: pkix.Name{Names: []pkix.AttributeTypeAndValue{
				{Type: oidCNPJ, Value: "14.200.166/0001-87"},
			}},
			want: "14200166000187",
		},
		{
			name:    "common name suffix",
			subject: pkix.Name{CommonName: "ACME:14200166000187"},
			want:    "14200166000187",
		},
		{
			name:    "common name without tax id",
			subject: pkix.Name{CommonName: "ACME"},
			want:    UnknownTaxID,
		},
		{
			name:    "common name with short suffix",
			subject: pkix.Name{CommonName: "ACME:123"},
			want:    UnknownTaxID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TaxIDFromSubject(tt.subject))
		})
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Code: ErrCodeExpired, Path: "/tmp/c.pfx", Message: "certificate expired"}
	assert.Equal(t, "EXPIRED: certificate expired (path=/tmp/c.pfx)", err.Error())
	assert.Equal(t, ErrorCode(""), CodeOf(assert.AnError))
}
