package internal

import (
	"errors"
	"fmt"

	"github.com/pion/rtp"
	"github.com/pion/srtp/v2"
)

// srtpProfile is the single protection profile this SFU negotiates for both
// RTP and RTCP policies, in both directions, per §4.2.
const srtpProfile = srtp.ProtectionProfileAes128CmHmacSha1_80

// SRTPSession wraps one direction's srtp.Context. Each client holds two:
// an inbound session built from the DTLS client-side keying half, and an
// outbound session built from the server-side half. A session's replay
// window and ROC are never shared across clients or directions.
type SRTPSession struct {
	ctx *srtp.Context
}

// NewSRTPSession derives an srtp.Context from a DTLS-exported master key and
// salt under the fixed protection profile.
func NewSRTPSession(masterKey, masterSalt []byte) (*SRTPSession, error) {
	ctx, err := srtp.CreateContext(masterKey, masterSalt, srtpProfile)
	if err != nil {
		return nil, NewError(err, ErrCodeSRTP, "srtp_engine", "create_context")
	}
	return &SRTPSession{ctx: ctx}, nil
}

// Unprotect decrypts and authenticates an SRTP or SRTCP packet in place,
// returning the plaintext bytes. Ignorable failures (auth, replay, format)
// are returned as *SFUError with the matching error code so the fan-out
// coordinator can drop the packet without tearing down the client.
func (s *SRTPSession) Unprotect(buf []byte, isRTCP bool) ([]byte, error) {
	if s == nil || s.ctx == nil {
		return nil, NewError(errors.New("not connected"), ErrCodeSRTP, "srtp_engine", "unprotect")
	}

	var plain []byte
	var err error
	if isRTCP {
		plain, err = s.ctx.DecryptRTCP(nil, buf, nil)
	} else {
		plain, err = s.ctx.DecryptRTP(nil, buf, nil)
	}
	if err != nil {
		RecordSRTPError(classifySRTPError(err))
		RecordSRTPOutcome(false)
		return nil, classifySRTPFailure(err)
	}
	RecordSRTPOutcome(true)
	return plain, nil
}

// Protect encrypts an RTP packet and appends its authentication tag (RTCP
// goes through ProtectRTCP). header carries the (possibly rewritten)
// marker/payload-type and sequencing fields; payload is the plaintext media
// payload only.
func (s *SRTPSession) Protect(header *rtp.Header, payload []byte) ([]byte, error) {
	if s == nil || s.ctx == nil {
		return nil, NewError(errors.New("not connected"), ErrCodeSRTP, "srtp_engine", "protect")
	}
	out, err := s.ctx.EncryptRTP(nil, payload, header)
	if err != nil {
		RecordSRTPError("protect")
		return nil, NewError(err, ErrCodeSRTP, "srtp_engine", "protect")
	}
	return out, nil
}

// ProtectRTCP encrypts a full RTCP packet buffer, without any
// payload-type translation (§4.4).
func (s *SRTPSession) ProtectRTCP(buf []byte) ([]byte, error) {
	if s == nil || s.ctx == nil {
		return nil, NewError(errors.New("not connected"), ErrCodeSRTP, "srtp_engine", "protect_rtcp")
	}
	out, err := s.ctx.EncryptRTCP(nil, buf, nil)
	if err != nil {
		RecordSRTPError("protect_rtcp")
		return nil, NewError(err, ErrCodeSRTP, "srtp_engine", "protect_rtcp")
	}
	return out, nil
}

// classifySRTPError maps a pion/srtp failure to the metrics label used by
// §7's per-error-kind counters.
func classifySRTPError(err error) string {
	switch {
	case errors.Is(err, srtp.ErrFailedToVerifyAuthTag):
		return "auth"
	case errors.Is(err, srtp.ErrDuplicated):
		return "replay"
	default:
		return "format"
	}
}

// classifySRTPFailure wraps err as the matching ignorable *SFUError kind
// per §7: SrtpAuth, SrtpReplay, or SrtpFormat. All three are per-packet and
// must not produce warn-level log spam (handled by the caller's drop path,
// not here).
func classifySRTPFailure(err error) *SFUError {
	switch classifySRTPError(err) {
	case "auth":
		return NewError(err, ErrCodeSrtpAuth, "srtp_engine", "unprotect")
	case "replay":
		return NewError(err, ErrCodeSrtpReplay, "srtp_engine", "unprotect")
	default:
		return NewError(fmt.Errorf("%w", err), ErrCodeSrtpFormat, "srtp_engine", "unprotect")
	}
}
