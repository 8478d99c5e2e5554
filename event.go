// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sockev

import "net/netip"

// EventKind tags the variant of an Event.
type EventKind uint8

const (
	// EventError carries an Errno captured by the worker.
	EventError EventKind = 1 + iota
	// EventAccept carries a freshly accepted descriptor and its peer.
	EventAccept
	// EventReceive carries one received payload.
	EventReceive
)

func (k EventKind) String() string {
	switch k {
	case EventError:
		return "error"
	case EventAccept:
		return "accept"
	case EventReceive:
		return "receive"
	default:
		return "unknown"
	}
}

// Event is delivered to the socket's callback from its worker. Only the
// fields of the tagged variant are set.
type Event struct {
	Kind EventKind

	// Err is the captured error kind. EventError only.
	Err Errno

	// Data is the received payload, decrypted and stripped of padding when
	// the socket is keyed. It aliases the worker's scratch buffer and is
	// valid only until the callback returns; callers that keep it must
	// copy. EventReceive only.
	Data []byte

	// Peer identifies the remote end: the datagram sender (EventReceive on
	// datagram sockets, fresh per datagram) or the accepted client
	// (EventAccept). Address and port are both in host byte order.
	Peer netip.AddrPort

	// ClientFD is the accepted descriptor, to be handed to a fresh
	// socket's Adopt. EventAccept only.
	ClientFD int
}

// Disposition is the callback's verdict on how the worker proceeds. The
// worker acts on it after the callback has returned, which makes teardown
// from inside a callback safe.
type Disposition uint8

const (
	// Continue keeps the worker in its current mode.
	Continue Disposition = iota
	// Hangup disconnects the descriptor; the worker leaves its mode
	// immediately and the socket can be reused.
	Hangup
	// Destroy tears the whole socket down, worker included. The callback
	// equivalent of Close.
	Destroy
)

// Callback handles events for one socket. It runs on the socket's worker
// goroutine: events for one socket arrive strictly sequentially, and a slow
// callback backpressures that socket's reads. It must not call Close on its
// own socket — return Destroy instead.
type Callback func(*Socket, Event) Disposition
