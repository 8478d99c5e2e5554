// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sockev

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// maxDatagramLen caps one datagram payload (after padding, when keyed).
const maxDatagramLen = 64 << 10

// ioWriter is the write half of a descriptor. Narrowed to an interface so
// the full-write contract is testable against scripted writers.
type ioWriter interface {
	Write(p []byte) (int, error)
}

// writeFull writes all of p, restarting on EINTR and on short writes.
// Anything unrecoverable surfaces as ErrSend with the cause attached.
func writeFull(w ioWriter, p []byte) error {
	for off := 0; off < len(p); {
		n, err := w.Write(p[off:])
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fail(ErrSend, err)
		}
		if n == 0 {
			// Guard against no-progress writers; spinning here would hang
			// the sender forever.
			return fail(ErrSend, errors.New("write made no progress"))
		}
		off += n
	}
	return nil
}

// Send transmits one payload according to the socket's transport.
//
// When the socket is keyed the payload is padded and encrypted first; all
// length checks, counters and length prefixes then apply to the wire form.
// Stream and message sends bracket the write in TCP_CORK so a frame header
// and its body leave as one segment; write failures there surface as
// ErrClosed. Datagram sends are a single atomic send and fail with ErrSend,
// including payloads beyond 64 KiB, which are rejected before the
// descriptor is touched.
//
// Stream and message sends on one socket are serialized, so concurrent
// senders cannot interleave frames; datagram sends take no lock, each being
// a single send. The call blocks until the kernel has taken the bytes
// or the send timeout expires.
func (s *Socket) Send(p []byte) error {
	wire := p
	if c := s.cipher.Load(); c != nil {
		wire = c.encrypt(p)
	}

	if s.transport == Datagram {
		if len(wire) > maxDatagramLen {
			return ErrSend
		}
		fd := s.fd()
		n, err := fd.Write(wire)
		if err != nil || n != len(wire) {
			return fail(ErrSend, err)
		}
		s.sent.Add(uint64(len(wire)))
		return nil
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	fd := s.fd()
	fd.SetCork(true)
	defer fd.SetCork(false)

	if s.transport.framed() {
		var prefix [4]byte
		binary.BigEndian.PutUint32(prefix[:], uint32(len(wire)))
		if err := writeFull(fd, prefix[:]); err != nil {
			return fail(ErrClosed, err)
		}
	}
	if err := writeFull(fd, wire); err != nil {
		return fail(ErrClosed, err)
	}
	s.sent.Add(uint64(len(wire)))
	return nil
}
