// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sysfd is a thin layer over raw IPv4 socket descriptors.
//
// It exists so the event layer above it can work at the descriptor level
// (exact option sets, poll cadence, shutdown semantics) without scattering
// unix calls through the state machine. EAGAIN/EWOULDBLOCK is translated
// into iox.ErrWouldBlock so callers branch on a typed control-flow signal;
// every other failure keeps its cause attached.
//
// Linux only.
package sysfd
