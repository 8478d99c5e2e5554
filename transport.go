// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sockev

// Transport describes the wire behavior of a socket.
//
// The worker and send paths adapt their algorithm based on this setting —
// single source of truth, transport → (socket type, framing):
//   - Stream:   SOCK_STREAM, raw bytes, boundaries are user-defined
//   - Message:  SOCK_STREAM, 4-byte big-endian length prefix per message
//   - Datagram: SOCK_DGRAM, one datagram per message, max 64 KiB
type Transport uint8

const (
	Stream Transport = 1 + iota
	Message
	Datagram
)

// framed reports whether sends prepend a length prefix and reads reassemble
// exact-length messages.
func (t Transport) framed() bool { return t == Message }

// reliable reports whether the transport rides on a connected byte stream.
func (t Transport) reliable() bool {
	switch t {
	case Stream, Message:
		return true
	default:
		return false
	}
}

func (t Transport) valid() bool {
	switch t {
	case Stream, Message, Datagram:
		return true
	default:
		return false
	}
}

func (t Transport) String() string {
	switch t {
	case Stream:
		return "stream"
	case Message:
		return "message"
	case Datagram:
		return "datagram"
	default:
		return "unknown"
	}
}
