// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sockev

import "time"

// Options configures per-socket behavior.
type Options struct {
	// SendTimeout is applied as SO_SNDTIMEO on stream descriptors.
	SendTimeout time.Duration

	// ConnectTimeout bounds the connect handshake. It is applied by
	// temporarily shortening SO_RCVTIMEO around the connect call.
	ConnectTimeout time.Duration

	// Backlog is the pending-connection queue length for listeners.
	Backlog int

	// ReadBufferSize is the initial scratch buffer for stream and message
	// reads. The buffer grows on demand for larger announced frames.
	ReadBufferSize int

	// DatagramBufferSize is the fixed receive buffer for datagram sockets.
	// Outgoing datagrams are capped at 64 KiB regardless of this value.
	DatagramBufferSize int

	// PollInterval is the cadence at which parked and polling workers
	// re-check the stop flag. It bounds shutdown latency.
	PollInterval time.Duration
}

var defaultOptions = Options{
	SendTimeout:        3 * time.Second,
	ConnectTimeout:     5 * time.Second,
	Backlog:            3,
	ReadBufferSize:     4 << 10,
	DatagramBufferSize: 64 << 10,
	PollInterval:       5 * time.Millisecond,
}

type Option func(*Options)

func WithSendTimeout(d time.Duration) Option {
	return func(o *Options) { o.SendTimeout = d }
}

func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) { o.ConnectTimeout = d }
}

func WithBacklog(n int) Option {
	return func(o *Options) { o.Backlog = n }
}

func WithReadBufferSize(n int) Option {
	return func(o *Options) { o.ReadBufferSize = n }
}

// WithPollInterval sets the stop-flag poll cadence. Shorter intervals
// tighten shutdown latency at the cost of idle wakeups.
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) { o.PollInterval = d }
}
