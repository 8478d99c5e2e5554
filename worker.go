// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sockev

import (
	"encoding/binary"
	"time"

	"code.hybscloud.com/iox"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"code.hybscloud.com/sockev/internal/sysfd"
)

// maxMessageLen caps the length a message-mode peer may announce. The
// original wire format allows any 32-bit value; growing the scratch buffer
// toward 4 GiB on a hostile prefix is not acceptable, so oversized
// announcements surface as ErrBuffer instead.
const maxMessageLen = 1 << 30

// worker is the per-socket goroutine. Outer restart loop: park until a
// setup call assigns a mode, run the mode's loop, reset to Unknown, surface
// a captured error as one Error event unless stopping, repeat. The restart
// affordance lets the same socket be reused for a second Listen/Connect
// after an error/close cycle.
func (s *Socket) worker() {
	defer func() {
		s.stopped.Store(true)
		close(s.done)
	}()

	for {
		for s.mode.Load() == modeUnknown {
			if s.stop.Load() {
				return
			}
			time.Sleep(s.opts.PollInterval)
		}

		var captured Errno
		switch s.mode.Load() {
		case modeIdle:
			s.idleLoop()
		case modeRead:
			captured = s.readLoop()
		case modeReceive:
			captured = s.receiveLoop()
		case modeListen:
			captured = s.listenLoop()
		}

		s.mode.Store(modeUnknown)

		if captured != ErrNone && !s.stop.Load() {
			s.deliver(Event{Kind: EventError, Err: captured})
		}
	}
}

// deliver invokes the callback and acts on its disposition afterwards —
// never during, which is what makes Destroy safe to return from inside.
func (s *Socket) deliver(ev Event) {
	switch s.cb(s, ev) {
	case Hangup:
		_ = s.Disconnect()
	case Destroy:
		s.destroy()
	}
}

// destroy is the worker-side half of Close: same teardown, minus waiting
// for the worker (it is the worker). The loops observe the stop flag and
// unwind; the outer loop then exits through its park phase.
func (s *Socket) destroy() {
	s.stop.Store(true)
	_ = s.Disconnect()
	s.cipher.Store(nil)
	s.buf = nil
}

// idleLoop parks a connected datagram client. The descriptor is only used
// by Send; the worker just waits for the stop flag.
func (s *Socket) idleLoop() {
	for !s.stop.Load() {
		time.Sleep(s.opts.PollInterval)
	}
}

// readLoop drives a connected stream or message descriptor: blocking reads,
// framed reassembly for message transports, transparent decryption, one
// Receive event per read or frame.
func (s *Socket) readLoop() Errno {
	if len(s.buf) < s.opts.ReadBufferSize {
		s.buf = make([]byte, s.opts.ReadBufferSize)
	}
	fd := s.fd()

	for !s.stop.Load() {
		var length int

		if s.transport.framed() {
			var prefix [4]byte
			if eno := readExact(fd, prefix[:]); eno != ErrNone {
				return eno
			}
			announced := binary.BigEndian.Uint32(prefix[:])
			if announced > maxMessageLen {
				return ErrBuffer
			}
			if int(announced) > len(s.buf) {
				s.buf = make([]byte, 2*int(announced))
			}
			if eno := readExact(fd, s.buf[:announced]); eno != ErrNone {
				return eno
			}
			length = int(announced)
		} else {
			n, err := fd.Read(s.buf)
			if err != nil {
				if errors.Is(err, unix.EINTR) {
					continue
				}
				return ErrReceive
			}
			if n == 0 {
				return ErrClosed
			}
			length = n
		}

		if s.stop.Load() {
			return ErrNone
		}

		s.rcvd.Add(uint64(length))

		payload := s.buf[:length]
		if c := s.cipher.Load(); c != nil {
			plain, err := c.decrypt(payload)
			if err != nil {
				s.deliver(Event{Kind: EventError, Err: ErrCipher})
				if fd = s.fd(); !fd.Valid() {
					return ErrNone
				}
				continue
			}
			payload = plain
		}
		s.deliver(Event{Kind: EventReceive, Data: payload})
		// The callback may have disconnected the socket (Hangup, Destroy,
		// or a direct Disconnect). The descriptor number it held may
		// already belong to someone else; never touch it again.
		if fd = s.fd(); !fd.Valid() {
			return ErrNone
		}
	}
	return ErrNone
}

// readExact fills p completely, restarting on EINTR and partial reads.
func readExact(fd sysfd.FD, p []byte) Errno {
	for off := 0; off < len(p); {
		n, err := fd.Read(p[off:])
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return ErrReceive
		}
		if n == 0 {
			return ErrClosed
		}
		off += n
	}
	return ErrNone
}

// receiveLoop drives a bound datagram descriptor: poll, recvfrom, decrypt,
// one Receive event per datagram with fresh peer fields.
func (s *Socket) receiveLoop() Errno {
	if len(s.buf) < s.opts.DatagramBufferSize {
		s.buf = make([]byte, s.opts.DatagramBufferSize)
	}
	fd := s.fd()

	for !s.stop.Load() {
		ready, err := fd.WaitReadable(s.opts.PollInterval)
		if err != nil || !ready {
			continue
		}
		if s.stop.Load() {
			return ErrNone
		}

		n, peer, err := fd.Recvfrom(s.buf)
		if err != nil {
			if errors.Is(err, iox.ErrWouldBlock) || errors.Is(err, unix.EINTR) {
				continue
			}
			s.deliver(Event{Kind: EventError, Err: ErrReceive})
			if fd = s.fd(); !fd.Valid() {
				return ErrNone
			}
			continue
		}

		s.rcvd.Add(uint64(n))

		payload := s.buf[:n]
		if c := s.cipher.Load(); c != nil {
			plain, derr := c.decrypt(payload)
			if derr != nil {
				s.deliver(Event{Kind: EventError, Err: ErrCipher})
				if fd = s.fd(); !fd.Valid() {
					return ErrNone
				}
				continue
			}
			payload = plain
		}
		s.deliver(Event{Kind: EventReceive, Data: payload, Peer: peer})
		// Re-fetch after the callback: a Hangup has closed the descriptor,
		// and polling its stale number would spin forever (POLLNVAL never
		// matches the readable mask) or hit a recycled descriptor.
		if fd = s.fd(); !fd.Valid() {
			return ErrNone
		}
	}
	return ErrNone
}

// listenLoop drives a listening stream descriptor: poll, accept, one Accept
// event per connection. The callback is expected to hand Event.ClientFD to
// a fresh socket's Adopt.
func (s *Socket) listenLoop() Errno {
	fd := s.fd()

	for !s.stop.Load() {
		ready, err := fd.WaitReadable(s.opts.PollInterval)
		if err != nil || !ready {
			continue
		}
		if s.stop.Load() {
			return ErrNone
		}

		nfd, peer, err := fd.Accept()
		if err != nil {
			if errors.Is(err, iox.ErrWouldBlock) || errors.Is(err, unix.EINTR) {
				continue
			}
			s.deliver(Event{Kind: EventError, Err: ErrAccept})
			if fd = s.fd(); !fd.Valid() {
				return ErrNone
			}
			continue
		}
		s.deliver(Event{Kind: EventAccept, Peer: peer, ClientFD: int(nfd)})
		if fd = s.fd(); !fd.Valid() {
			return ErrNone
		}
	}
	return ErrNone
}
