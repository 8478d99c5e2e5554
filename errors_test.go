// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sockev_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/sockev"
)

func TestErrnoMessages(t *testing.T) {
	cases := []struct {
		code sockev.Errno
		want string
	}{
		{sockev.ErrNone, "no error"},
		{sockev.ErrOpen, "couldn't open socket"},
		{sockev.ErrConnect, "connecting to remote socket failed"},
		{sockev.ErrListen, "error while listening on socket"},
		{sockev.ErrBind, "couldn't bind to socket"},
		{sockev.ErrAccept, "error while accepting connection"},
		{sockev.ErrReceive, "couldn't read from socket"},
		{sockev.ErrSend, "failed to send datagram"},
		{sockev.ErrClosed, "peer closed connection"},
		{sockev.ErrBuffer, "out of memory"},
		{sockev.ErrAddress, "hostname resolution failed"},
		{sockev.ErrDisconnect, "error while closing socket"},
		{sockev.ErrProtocol, "protocol mismatch"},
		{sockev.ErrThread, "could not start worker thread"},
		{sockev.ErrTimeout, "timeout error"},
		{sockev.ErrBusy, "socket already in use"},
		{sockev.ErrCipher, "could not (de)cipher payload"},
	}
	for _, c := range cases {
		if got := c.code.String(); got != c.want {
			t.Fatalf("Errno(%d): got=%q want=%q", c.code, got, c.want)
		}
		if got := c.code.Error(); got != c.want {
			t.Fatalf("Errno(%d).Error(): got=%q want=%q", c.code, got, c.want)
		}
	}

	if got := sockev.Errno(250).String(); got != "unknown error" {
		t.Fatalf("out-of-range Errno: got=%q want=%q", got, "unknown error")
	}
}

func TestNew_InvalidArguments(t *testing.T) {
	if _, err := sockev.New(sockev.Transport(0), discard); !errors.Is(err, sockev.ErrInvalidArgument) {
		t.Fatalf("err=%v want ErrInvalidArgument", err)
	}
	if _, err := sockev.New(sockev.Transport(9), discard); !errors.Is(err, sockev.ErrInvalidArgument) {
		t.Fatalf("err=%v want ErrInvalidArgument", err)
	}
	if _, err := sockev.New(sockev.Stream, nil); !errors.Is(err, sockev.ErrInvalidArgument) {
		t.Fatalf("err=%v want ErrInvalidArgument", err)
	}
}

func TestSetupArgumentGuards(t *testing.T) {
	s, err := sockev.New(sockev.Message, discard)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if err := s.Listen(0); !errors.Is(err, sockev.ErrListen) {
		t.Fatalf("Listen(0): err=%v want ErrListen", err)
	}
	if err := s.Connect("localhost", 0); !errors.Is(err, sockev.ErrConnect) {
		t.Fatalf("Connect(port 0): err=%v want ErrConnect", err)
	}
	// Broadcast is a datagram-only affordance.
	if err := s.Connect("", 7); !errors.Is(err, sockev.ErrConnect) {
		t.Fatalf("Connect(empty host): err=%v want ErrConnect", err)
	}
	if err := s.Adopt(-1); !errors.Is(err, sockev.ErrAccept) {
		t.Fatalf("Adopt(-1): err=%v want ErrAccept", err)
	}
}

func TestPassphraseKeyGuards(t *testing.T) {
	s, err := sockev.New(sockev.Message, discard)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if err := s.Passphrase([]byte("secret")); err != nil {
		t.Fatalf("Passphrase: %v", err)
	}
	if err := s.Passphrase(make([]byte, 57)); !errors.Is(err, sockev.ErrCipher) {
		t.Fatalf("57-byte key: err=%v want ErrCipher", err)
	}
	// Empty key clears the cipher rather than failing.
	if err := s.Passphrase(nil); err != nil {
		t.Fatalf("Passphrase(nil): %v", err)
	}
}
