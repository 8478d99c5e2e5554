// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sockev_test

import (
	"testing"
	"time"

	"code.hybscloud.com/sockev"
)

func TestOptionSetters(t *testing.T) {
	var o sockev.Options

	sockev.WithSendTimeout(7 * time.Second)(&o)
	sockev.WithConnectTimeout(9 * time.Second)(&o)
	sockev.WithBacklog(11)(&o)
	sockev.WithReadBufferSize(1 << 16)(&o)
	sockev.WithPollInterval(time.Millisecond)(&o)

	if o.SendTimeout != 7*time.Second {
		t.Fatalf("SendTimeout=%v want=7s", o.SendTimeout)
	}
	if o.ConnectTimeout != 9*time.Second {
		t.Fatalf("ConnectTimeout=%v want=9s", o.ConnectTimeout)
	}
	if o.Backlog != 11 {
		t.Fatalf("Backlog=%d want=11", o.Backlog)
	}
	if o.ReadBufferSize != 1<<16 {
		t.Fatalf("ReadBufferSize=%d want=%d", o.ReadBufferSize, 1<<16)
	}
	if o.PollInterval != time.Millisecond {
		t.Fatalf("PollInterval=%v want=1ms", o.PollInterval)
	}
}

func TestTransportStrings(t *testing.T) {
	cases := []struct {
		tr   sockev.Transport
		want string
	}{
		{sockev.Stream, "stream"},
		{sockev.Message, "message"},
		{sockev.Datagram, "datagram"},
		{sockev.Transport(0), "unknown"},
	}
	for _, c := range cases {
		if got := c.tr.String(); got != c.want {
			t.Fatalf("Transport(%d): got=%q want=%q", c.tr, got, c.want)
		}
	}
}

func TestEventKindStrings(t *testing.T) {
	cases := []struct {
		k    sockev.EventKind
		want string
	}{
		{sockev.EventError, "error"},
		{sockev.EventAccept, "accept"},
		{sockev.EventReceive, "receive"},
		{sockev.EventKind(0), "unknown"},
	}
	for _, c := range cases {
		if got := c.k.String(); got != c.want {
			t.Fatalf("EventKind(%d): got=%q want=%q", c.k, got, c.want)
		}
	}
}

func TestSocketAccessors(t *testing.T) {
	sockev.Init() // process-wide setup is a documented no-op

	s, err := sockev.New(sockev.Datagram, discard)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if s.Transport() != sockev.Datagram {
		t.Fatalf("Transport()=%v want=Datagram", s.Transport())
	}
	if sent, rcvd := s.Stats(); sent != 0 || rcvd != 0 {
		t.Fatalf("fresh counters sent=%d rcvd=%d want=0", sent, rcvd)
	}
}
