package internal

// Media types exchanged over a negotiated payload type.
const (
	MediaTypeAudio = "audio"
	MediaTypeVideo = "video"
	MediaTypeData  = "data"
)

// Well-known codec names, used as the canonical (lowercase) keys in a
// client's media-negotiation table (§3, §9 open question: codec names are
// normalised to lowercase ASCII on insertion and lookup).
const (
	CodecOpus  = "opus"
	CodecG711u = "pcmu"
	CodecG711a = "pcma"
	CodecVP8   = "vp8"
	CodecH264  = "h264"
)

// RTP/SRTP wire constants.
const (
	RTPHeaderSize   = 12 // bytes, fixed portion per RFC 3550
	SRTPAuthTagSize = 10 // bytes, for AES_CM_128_HMAC_SHA1_80
	MaxPacketSize   = 65535
)

// Log levels, used by the CLI's verbosity flag.
const (
	LogLevelError = 1
	LogLevelWarn  = 2
	LogLevelInfo  = 3
	LogLevelDebug = 4
	LogLevelTrace = 5
)

// LogLevel is the process-wide verbosity threshold.
var LogLevel = LogLevelInfo
