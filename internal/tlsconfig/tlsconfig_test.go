package tlsconfig

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaultsToVerifyEnabled(t *testing.T) {
	cfg, err := Build(Options{Verify: true})
	require.NoError(t, err)
	assert.False(t, cfg.InsecureSkipVerify)
}

func TestBuildVerifyDisabledSkipsVerification(t *testing.T) {
	cfg, err := Build(Options{Verify: false})
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)
}

func TestBuildHTTP2OnlyRestrictsALPN(t *testing.T) {
	cfg, err := Build(Options{Verify: true, HTTP2Only: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"h2"}, cfg.NextProtos)
}

func TestBuildNegotiatedALPNIncludesBoth(t *testing.T) {
	cfg, err := Build(Options{Verify: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"h2", "http/1.1"}, cfg.NextProtos)
}

func TestBuildClientCertDataWinsOverPath(t *testing.T) {
	pemData := generateSelfSignedPEM(t)
	cfg, err := Build(Options{Verify: true, ClientPEMPath: "/nonexistent/path.pem", ClientPEMData: pemData})
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)
}

func TestFingerprintStableForEquivalentOptions(t *testing.T) {
	a := Fingerprint(Options{Verify: true, HTTP2Only: true})
	b := Fingerprint(Options{Verify: true, HTTP2Only: true})
	assert.Equal(t, a, b)
}

func TestFingerprintDiffersOnVerifyFlag(t *testing.T) {
	a := Fingerprint(Options{Verify: true})
	b := Fingerprint(Options{Verify: false})
	assert.NotEqual(t, a, b)
}

func generateSelfSignedPEM(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "httpc-test"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	var out []byte
	out = append(out, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})...)
	keyDER := x509.MarshalPKCS1PrivateKey(key)
	out = append(out, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: keyDER})...)
	return out
}
