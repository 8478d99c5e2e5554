// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sockev

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument reports an invalid construction argument (unknown
// transport, nil callback).
var ErrInvalidArgument = errors.New("sockev: invalid argument")

// Errno is the closed set of failure kinds surfaced by the socket layer.
// Every setup operation returns one directly (possibly wrapping a cause);
// worker loops surface one through an Error event.
//
// Errno implements error, so errors.Is(err, ErrBusy) works on anything the
// package returns.
type Errno uint8

const (
	ErrNone Errno = iota

	// ErrOpen means socket creation failed.
	ErrOpen
	// ErrConnect means the connect failed, the port was 0, or a broadcast
	// request was made on a connection-oriented transport.
	ErrConnect
	// ErrListen means the listen failed or the port was 0.
	ErrListen
	// ErrBind means the bind failed.
	ErrBind
	// ErrAccept means an accept failed.
	ErrAccept
	// ErrReceive means a read or recvfrom returned an unrecoverable error.
	ErrReceive
	// ErrSend means a write or send failed, or a datagram was too large.
	ErrSend
	// ErrClosed means the peer closed the connection.
	ErrClosed
	// ErrBuffer means a read buffer could not be sized for the announced
	// frame.
	ErrBuffer
	// ErrAddress means hostname resolution failed.
	ErrAddress
	// ErrDisconnect means closing the descriptor failed.
	ErrDisconnect
	// ErrProtocol means a transport mismatch.
	ErrProtocol
	// ErrThread means the worker could not be started. Reserved: worker
	// goroutines do not fail to spawn.
	ErrThread
	// ErrTimeout means a timed-out operation. Reserved.
	ErrTimeout
	// ErrBusy means the operation was refused because the worker is already
	// engaged in a mode.
	ErrBusy
	// ErrCipher means encryption or decryption failed, including invalid
	// padding.
	ErrCipher
)

// String returns the stable human message for the kind, with a fallback for
// out-of-range values.
func (e Errno) String() string {
	switch e {
	case ErrNone:
		return "no error"
	case ErrOpen:
		return "couldn't open socket"
	case ErrConnect:
		return "connecting to remote socket failed"
	case ErrListen:
		return "error while listening on socket"
	case ErrBind:
		return "couldn't bind to socket"
	case ErrAccept:
		return "error while accepting connection"
	case ErrReceive:
		return "couldn't read from socket"
	case ErrSend:
		return "failed to send datagram"
	case ErrClosed:
		return "peer closed connection"
	case ErrBuffer:
		return "out of memory"
	case ErrAddress:
		return "hostname resolution failed"
	case ErrDisconnect:
		return "error while closing socket"
	case ErrProtocol:
		return "protocol mismatch"
	case ErrThread:
		return "could not start worker thread"
	case ErrTimeout:
		return "timeout error"
	case ErrBusy:
		return "socket already in use"
	case ErrCipher:
		return "could not (de)cipher payload"
	}
	return "unknown error"
}

func (e Errno) Error() string { return e.String() }

// Error couples an Errno with the underlying cause. errors.Is matches both
// the Errno and anything in the cause chain (down to the unix errno when
// the failure came from a syscall).
type Error struct {
	Code  Errno
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	if code, ok := target.(Errno); ok {
		return e.Code == code
	}
	return false
}

// fail builds the error for a failed operation. A nil cause collapses to
// the bare Errno.
func fail(code Errno, cause error) error {
	if cause == nil {
		return code
	}
	return &Error{Code: code, cause: cause}
}
