package internal

import (
	"crypto/sha256"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/pion/ice/v2"
)

// ServerCredentials is what the SDP collaborator needs from the core to
// build its offer/answer bodies: this core never synthesises or mutates
// SDP itself (§6, §9's note on avoiding mutation through a shared
// reference — this always returns a fresh value).
type ServerCredentials struct {
	ICEUfrag    string
	ICEPassword string
	Fingerprint string // SHA-256, colon-separated hex, per §6
}

// HarvestCredentials produces a local ICE ufrag/password pair (via a
// throwaway pion/ice agent, never driven through a full ICE transport —
// that remains out of scope) and the SHA-256 fingerprint of the DTLS
// certificate this process will terminate handshakes with.
func HarvestCredentials(cert tls.Certificate) (ServerCredentials, error) {
	agent, err := ice.NewAgent(&ice.AgentConfig{})
	if err != nil {
		return ServerCredentials{}, NewError(err, ErrCodeInternal, "credentials", "harvest_credentials")
	}
	defer agent.Close()

	ufrag, pwd, err := agent.GetLocalUserCredentials()
	if err != nil {
		return ServerCredentials{}, NewError(err, ErrCodeInternal, "credentials", "harvest_credentials")
	}

	fingerprint, err := CertificateFingerprint(cert)
	if err != nil {
		return ServerCredentials{}, err
	}

	return ServerCredentials{
		ICEUfrag:    ufrag,
		ICEPassword: pwd,
		Fingerprint: fingerprint,
	}, nil
}

// CertificateFingerprint computes the SHA-256 fingerprint of a DTLS
// certificate in the colon-separated uppercase hex form SDP expects.
func CertificateFingerprint(cert tls.Certificate) (string, error) {
	if len(cert.Certificate) == 0 {
		return "", NewError(fmt.Errorf("empty certificate chain"), ErrCodeConfiguration, "credentials", "fingerprint")
	}
	sum := sha256.Sum256(cert.Certificate[0])

	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":"), nil
}
