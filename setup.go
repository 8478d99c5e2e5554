// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sockev

import (
	"net"

	"github.com/pkg/errors"

	"code.hybscloud.com/sockev/internal/sysfd"
)

// Listen binds the socket to port on INADDR_ANY and engages the worker:
// stream and message sockets start accepting (Accept events), datagram
// sockets start receiving (Receive events).
//
// Fails with ErrBusy while the worker is engaged, ErrListen for port 0, and
// ErrOpen/ErrBind/ErrListen for the respective syscall failures, closing
// the descriptor on the error path.
func (s *Socket) Listen(port uint16) error {
	if s.mode.Load() != modeUnknown {
		return ErrBusy
	}
	if port == 0 {
		return ErrListen
	}

	fd, err := sysfd.Socket(s.transport.reliable())
	if err != nil {
		return fail(ErrOpen, err)
	}
	if s.transport.reliable() {
		fd.SetReuseAddr()
	}
	if err := fd.SetNonblock(); err != nil {
		_ = fd.Close()
		return fail(ErrOpen, err)
	}
	if err := fd.Bind(port); err != nil {
		_ = fd.Close()
		return fail(ErrBind, err)
	}
	if s.transport.reliable() {
		if err := fd.Listen(s.opts.Backlog); err != nil {
			_ = fd.Close()
			return fail(ErrListen, err)
		}
	}

	s.setFD(fd)
	if s.transport.reliable() {
		s.mode.Store(modeListen)
	} else {
		s.mode.Store(modeReceive)
	}
	return nil
}

// Connect connects the socket to host:port and engages the worker: stream
// and message sockets start reading (Receive events), datagram sockets park
// idle and are used through Send.
//
// An empty host on a datagram socket selects broadcast: SO_BROADCAST is
// enabled and the destination is 255.255.255.255. An empty host on a
// stream or message socket fails with ErrConnect. Hostnames resolve to
// their first A record (ErrAddress on failure).
//
// Stream and message descriptors get the send timeout, keepalive set and
// TCP_NODELAY; the connect itself is bounded by the connect timeout.
func (s *Socket) Connect(host string, port uint16) error {
	if s.mode.Load() != modeUnknown {
		return ErrBusy
	}
	if port == 0 {
		return ErrConnect
	}

	broadcast := false
	var addr [4]byte
	if host == "" {
		if !s.transport.reliable() {
			broadcast = true
			addr = [4]byte{255, 255, 255, 255}
		} else {
			return ErrConnect
		}
	} else {
		a, err := resolveIPv4(host)
		if err != nil {
			return fail(ErrAddress, err)
		}
		addr = a
	}

	fd, err := sysfd.Socket(s.transport.reliable())
	if err != nil {
		return fail(ErrOpen, err)
	}
	if s.transport.reliable() {
		fd.SetStreamOptions(s.opts.SendTimeout)
	}
	if broadcast {
		fd.SetBroadcast()
	}

	if s.transport.reliable() {
		// Shorten the receive timeout for the duration of the handshake so
		// a dead peer fails within the connect timeout, then restore it.
		saved := fd.RecvTimeout()
		fd.SetRecvTimeout(sysfd.Timeval(s.opts.ConnectTimeout))
		err = fd.Connect(addr, port)
		fd.SetRecvTimeout(saved)
	} else {
		err = fd.Connect(addr, port)
	}
	if err != nil {
		_ = fd.Close()
		return fail(ErrConnect, err)
	}

	s.setFD(fd)
	if s.transport.reliable() {
		s.mode.Store(modeRead)
	} else {
		s.mode.Store(modeIdle)
	}
	return nil
}

// Adopt installs an externally accepted descriptor — Event.ClientFD from a
// listening socket — and engages the worker in its read loop. Stream and
// message descriptors get the connect-side option set plus TCP_LINGER2;
// options are applied best effort, as the descriptor's origin is not
// checked.
func (s *Socket) Adopt(fd int) error {
	if s.mode.Load() != modeUnknown {
		return ErrBusy
	}
	if fd < 0 {
		return ErrAccept
	}

	f := sysfd.FD(fd)
	if s.transport.reliable() {
		f.SetStreamOptions(s.opts.SendTimeout)
		f.SetLinger2(10)
	}

	s.setFD(f)
	s.mode.Store(modeRead)
	return nil
}

// Disconnect half-closes both directions and closes the descriptor. The
// shutdown result is ignored; only the close is reported (ErrDisconnect).
// Calling Disconnect on an already-closed socket is a no-op.
func (s *Socket) Disconnect() error {
	fd := s.fd()
	if !fd.Valid() {
		return nil
	}
	fd.Shutdown()
	s.setFD(sysfd.Invalid)
	if err := fd.Close(); err != nil {
		return fail(ErrDisconnect, err)
	}
	return nil
}

// Passphrase replaces the socket's cipher: any existing key schedule is
// dropped, and a non-empty key installs a fresh one. Keys are 1–56 raw
// bytes; anything else fails with ErrCipher. An empty key leaves the
// socket unkeyed.
func (s *Socket) Passphrase(key []byte) error {
	if len(key) == 0 {
		s.cipher.Store(nil)
		return nil
	}
	c, err := newCipherState(key)
	if err != nil {
		return fail(ErrCipher, err)
	}
	s.cipher.Store(c)
	return nil
}

// resolveIPv4 resolves host to its first A record.
func resolveIPv4(host string) ([4]byte, error) {
	ips, err := net.LookupIP(host)
	if err != nil {
		return [4]byte{}, errors.Wrapf(err, "resolve %s", host)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return [4]byte(v4), nil
		}
	}
	return [4]byte{}, errors.Errorf("resolve %s: no A record", host)
}
