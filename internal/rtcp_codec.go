package internal

import (
	"fmt"

	"github.com/pion/rtcp"
)

// ClassifyRTCP unmarshals a compound RTCP packet far enough to label its
// first contained packet's type for metrics/logging, grounded on the
// switch-on-concrete-type pattern example code uses when inspecting RTCP
// feedback (sender/receiver reports, PLI, REMB, ...). Forwarding itself
// never inspects or rewrites RTCP content (§4.4) — this is observability
// only and never gates or alters fan-out.
func ClassifyRTCP(buf []byte) string {
	packets, err := rtcp.Unmarshal(buf)
	if err != nil || len(packets) == 0 {
		return "unknown"
	}

	switch packets[0].(type) {
	case *rtcp.SenderReport:
		return "sender_report"
	case *rtcp.ReceiverReport:
		return "receiver_report"
	case *rtcp.Goodbye:
		return "goodbye"
	case *rtcp.PictureLossIndication:
		return "pli"
	case *rtcp.FullIntraRequest:
		return "fir"
	case *rtcp.ReceiverEstimatedMaximumBitrate:
		return "remb"
	case *rtcp.TransportLayerNack:
		return "nack"
	case *rtcp.SourceDescription:
		return "source_description"
	default:
		return fmt.Sprintf("%T", packets[0])
	}
}
