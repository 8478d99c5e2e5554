// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sockev provides an event-driven socket layer over IPv4 with three
// transports and optional transparent payload encryption.
//
// Semantics and design:
//   - Transports: Stream (raw bytes, user-defined boundaries), Message
//     (exact-length datagrams over a reliable stream, 4-byte big-endian
//     length prefix) and Datagram (UDP, one datagram per message).
//   - One worker per socket: every socket owns a goroutine that drives its
//     accept/read/receive loop and delivers events to the user callback.
//     Events for one socket are strictly sequential; there is no ordering
//     across sockets.
//   - A socket acts as server (Listen) or client (Connect); accepted
//     connections are handed to fresh sockets via Adopt.
//   - Encryption: Passphrase installs a Blowfish key (1–56 bytes). Payloads
//     are padded to 8-byte blocks (every pad byte holds the pad count, pad
//     in 1..8) and ciphered in ECB mode, transparently on both send and
//     receive. Confidentiality only — no authentication or integrity.
//   - Teardown: Close from outside, or a Destroy disposition returned by
//     the callback. The worker acts on dispositions after the callback
//     returns, so a socket can retire itself from inside its own callback
//     without deadlocking.
//
// The package works at the descriptor level (golang.org/x/sys/unix) to keep
// exact control of the socket option set and poll cadence. Linux only, IPv4
// only.
package sockev

import (
	"sync"
	"sync/atomic"

	"code.hybscloud.com/sockev/internal/sysfd"
)

// worker modes. A worker parks in modeUnknown and progresses only forward
// per session: Unknown → {Idle | Read | Receive | Listen} → Unknown.
const (
	modeUnknown int32 = iota
	modeIdle
	modeRead
	modeReceive
	modeListen
)

// Socket is one endpoint. Create it with New; drive it with Listen,
// Connect or Adopt; feed it with Send; retire it with Close (or a Destroy
// disposition from the callback).
type Socket struct {
	transport Transport
	cb        Callback
	opts      Options

	// fdv holds the descriptor, sysfd.Invalid when closed. The worker owns
	// it during an active mode; Send uses it concurrently and the kernel
	// serializes.
	fdv atomic.Int32

	// cipher is the current key schedule, nil when unkeyed.
	cipher atomic.Pointer[cipherState]

	// buf is the worker-owned scratch read buffer. Nothing else may touch
	// it outside the callback invocation window.
	buf []byte

	// sendMu serializes stream and message Send calls so message frames
	// never interleave. Datagram sends do not take it.
	sendMu sync.Mutex

	sent atomic.Uint64
	rcvd atomic.Uint64

	mode    atomic.Int32
	stop    atomic.Bool
	stopped atomic.Bool
	done    chan struct{}
}

// New creates a socket for the given transport and starts its worker,
// parked until Listen, Connect or Adopt engages it.
func New(transport Transport, cb Callback, opts ...Option) (*Socket, error) {
	if !transport.valid() || cb == nil {
		return nil, ErrInvalidArgument
	}
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	s := &Socket{
		transport: transport,
		cb:        cb,
		opts:      o,
		done:      make(chan struct{}),
	}
	s.fdv.Store(int32(sysfd.Invalid))
	go s.worker()
	return s, nil
}

// Init performs process-wide setup. On Go it is a no-op — the runtime
// already ignores SIGPIPE for socket descriptors and sizes worker stacks on
// demand — and is retained so call sites keep a single setup entry point.
func Init() {}

// Transport returns the socket's wire behavior.
func (s *Socket) Transport() Transport { return s.transport }

// Stats returns the cumulative sent and received byte counters. Both count
// wire payload bytes: padded length when keyed, length prefixes excluded.
func (s *Socket) Stats() (sent, received uint64) {
	return s.sent.Load(), s.rcvd.Load()
}

// Close retires the socket: stops the worker, disconnects the descriptor,
// drops the cipher and waits for the worker to finish. Idempotent. It must
// not be called from the socket's own callback — return Destroy there
// instead; Close would wait on the very goroutine it was called from.
func (s *Socket) Close() error {
	s.stop.Store(true)
	_ = s.Disconnect()
	s.cipher.Store(nil)
	<-s.done
	s.buf = nil
	return nil
}

func (s *Socket) fd() sysfd.FD { return sysfd.FD(s.fdv.Load()) }

func (s *Socket) setFD(fd sysfd.FD) { s.fdv.Store(int32(fd)) }
