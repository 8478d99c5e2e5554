// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sysfd

import (
	"net/netip"
	"time"

	"code.hybscloud.com/iox"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// FD is a raw IPv4 socket descriptor. The zero descriptor is a valid file
// descriptor number, so the closed state is Invalid, never 0.
type FD int32

// Invalid marks a descriptor that is closed or was never opened.
const Invalid FD = -1

// Socket opens an AF_INET descriptor: SOCK_STREAM when stream is true,
// SOCK_DGRAM otherwise.
func Socket(stream bool) (FD, error) {
	typ := unix.SOCK_DGRAM
	if stream {
		typ = unix.SOCK_STREAM
	}
	fd, err := unix.Socket(unix.AF_INET, typ|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return Invalid, errors.WithStack(err)
	}
	return FD(fd), nil
}

func (fd FD) Valid() bool { return fd >= 0 }

func (fd FD) Close() error {
	if !fd.Valid() {
		return errors.WithStack(unix.EBADF)
	}
	return errors.WithStack(unix.Close(int(fd)))
}

// Shutdown half-closes both directions. The result is intentionally
// discarded: a peer may have torn the connection down already, and the
// descriptor is about to be closed anyway.
func (fd FD) Shutdown() {
	_ = unix.Shutdown(int(fd), unix.SHUT_RDWR)
}

func (fd FD) SetNonblock() error {
	return errors.WithStack(unix.SetNonblock(int(fd), true))
}

// Option setters below are best effort: the descriptor may not be a TCP
// socket (accepted descriptors are adopted blindly), in which case the
// kernel rejects the TCP-level options and the connection works without
// them.

func (fd FD) SetReuseAddr() {
	_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
}

func (fd FD) SetBroadcast() {
	_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
}

// SetCork toggles TCP_CORK so a frame header and its body leave as one
// segment.
func (fd FD) SetCork(on bool) {
	v := 0
	if on {
		v = 1
	}
	_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_CORK, v)
}

func (fd FD) SetLinger2(secs int) {
	_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_LINGER2, secs)
}

// SetStreamOptions applies the option set shared by connecting and adopted
// stream descriptors: a send timeout plus aggressive keepalive probing
// (one probe, 3s idle, 3s interval) and disabled Nagle batching.
func (fd FD) SetStreamOptions(sendTimeout time.Duration) {
	tv := unix.NsecToTimeval(sendTimeout.Nanoseconds())
	_ = unix.SetsockoptTimeval(int(fd), unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv)
	_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)
	_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPCNT, 1)
	_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, 3)
	_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, 3)
	_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
}

// RecvTimeout reads the current SO_RCVTIMEO value so it can be restored
// after a temporary override.
func (fd FD) RecvTimeout() unix.Timeval {
	tv, err := unix.GetsockoptTimeval(int(fd), unix.SOL_SOCKET, unix.SO_RCVTIMEO)
	if err != nil {
		return unix.Timeval{}
	}
	return *tv
}

func (fd FD) SetRecvTimeout(tv unix.Timeval) {
	_ = unix.SetsockoptTimeval(int(fd), unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
}

// Timeval converts a duration into the kernel's timeout representation.
func Timeval(d time.Duration) unix.Timeval {
	return unix.NsecToTimeval(d.Nanoseconds())
}

// Bind binds the descriptor to INADDR_ANY on the given port.
func (fd FD) Bind(port uint16) error {
	return errors.WithStack(unix.Bind(int(fd), &unix.SockaddrInet4{Port: int(port)}))
}

func (fd FD) Listen(backlog int) error {
	return errors.WithStack(unix.Listen(int(fd), backlog))
}

// Connect connects to addr:port, restarting on EINTR and treating EISCONN
// as success (a restarted connect reports EISCONN once the handshake has
// finished in the background).
func (fd FD) Connect(addr [4]byte, port uint16) error {
	sa := &unix.SockaddrInet4{Port: int(port), Addr: addr}
	for {
		err := unix.Connect(int(fd), sa)
		switch err {
		case nil, unix.EISCONN:
			return nil
		case unix.EINTR:
			continue
		default:
			return errors.WithStack(err)
		}
	}
}

// Accept accepts one pending connection. On EAGAIN it returns
// iox.ErrWouldBlock; EINTR is surfaced to the caller, which owns the retry
// policy.
func (fd FD) Accept() (FD, netip.AddrPort, error) {
	nfd, sa, err := unix.Accept(int(fd))
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return Invalid, netip.AddrPort{}, iox.ErrWouldBlock
		}
		return Invalid, netip.AddrPort{}, errors.WithStack(err)
	}
	return FD(nfd), peerOf(sa), nil
}

// Recvfrom receives one datagram and reports its sender. EAGAIN maps to
// iox.ErrWouldBlock.
func (fd FD) Recvfrom(p []byte) (int, netip.AddrPort, error) {
	n, sa, err := unix.Recvfrom(int(fd), p, 0)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, netip.AddrPort{}, iox.ErrWouldBlock
		}
		return 0, netip.AddrPort{}, errors.WithStack(err)
	}
	return n, peerOf(sa), nil
}

func (fd FD) Read(p []byte) (int, error) {
	n, err := unix.Read(int(fd), p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, iox.ErrWouldBlock
		}
		return 0, errors.WithStack(err)
	}
	return n, nil
}

func (fd FD) Write(p []byte) (int, error) {
	n, err := unix.Write(int(fd), p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, iox.ErrWouldBlock
		}
		return 0, errors.WithStack(err)
	}
	return n, nil
}

// WaitReadable polls the descriptor for readability for at most d. A false
// result with a nil error means the poll timed out or was interrupted;
// callers treat both as "try again".
func (fd FD) WaitReadable(d time.Duration) (bool, error) {
	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(pfd, int(d.Milliseconds()))
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, errors.WithStack(err)
	}
	return n > 0 && pfd[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0, nil
}

// peerOf extracts the IPv4 peer. Both the address and the port are in host
// byte order here; the unix package normalizes sin_port on the way out of
// the kernel.
func peerOf(sa unix.Sockaddr) netip.AddrPort {
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return netip.AddrPortFrom(netip.AddrFrom4(in4.Addr), uint16(in4.Port))
	}
	return netip.AddrPort{}
}
