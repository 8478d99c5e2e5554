// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sockev_test

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"code.hybscloud.com/sockev"
)

// discard ignores every event.
func discard(*sockev.Socket, sockev.Event) sockev.Disposition {
	return sockev.Continue
}

// eventRec is a copied-out snapshot of one delivered event. Event.Data
// aliases the worker's scratch buffer, so recording requires a copy.
type eventRec struct {
	kind sockev.EventKind
	err  sockev.Errno
	data []byte
}

// collector records events into ch.
func collector(ch chan<- eventRec) sockev.Callback {
	return func(_ *sockev.Socket, ev sockev.Event) sockev.Disposition {
		ch <- eventRec{
			kind: ev.Kind,
			err:  ev.Err,
			data: append([]byte(nil), ev.Data...),
		}
		return sockev.Continue
	}
}

// socketpair returns a connected AF_UNIX stream pair. Unix stream
// descriptors behave like the TCP byte stream for everything the event
// layer cares about (no boundaries, EOF on peer close), without ports or
// firewalls in the way.
func socketpair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	return fds[0], fds[1]
}

// adopted builds a socket of the given transport over an already-connected
// descriptor.
func adopted(t *testing.T, transport sockev.Transport, fd int, cb sockev.Callback) *sockev.Socket {
	t.Helper()
	s, err := sockev.New(transport, cb)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Adopt(fd); err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	return s
}

// waitEvent receives one event or fails the test after timeout.
func waitEvent(t *testing.T, ch <-chan eventRec, timeout time.Duration) eventRec {
	t.Helper()
	select {
	case rec := <-ch:
		return rec
	case <-time.After(timeout):
		t.Fatalf("timeout waiting for event")
		return eventRec{}
	}
}

// readFullRaw reads exactly len(p) bytes from a raw descriptor.
func readFullRaw(t *testing.T, fd int, p []byte) {
	t.Helper()
	for off := 0; off < len(p); {
		n, err := unix.Read(fd, p[off:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			t.Fatalf("raw read: %v", err)
		}
		if n == 0 {
			t.Fatalf("raw read: unexpected EOF at %d/%d", off, len(p))
		}
		off += n
	}
}
