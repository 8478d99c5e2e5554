// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sockev

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/blowfish"
)

// cipherState is one key schedule. It is installed on a socket through an
// atomic pointer, so re-keying never races the worker's decrypt.
//
// Wire contract: ECB over 8-byte blocks with self-describing trailing
// padding — every pad byte holds the pad count, pad in 1..8, always
// present. The padded length is what travels (and what length prefixes
// measure), so both sides stay interoperable regardless of key.
type cipherState struct {
	block *blowfish.Cipher
}

// newCipherState derives a key schedule from 1–56 key bytes.
func newCipherState(key []byte) (*cipherState, error) {
	block, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &cipherState{block: block}, nil
}

// encrypt returns a fresh buffer holding the padded ciphertext of p. The
// input is never modified.
func (c *cipherState) encrypt(p []byte) []byte {
	pad := blowfish.BlockSize - len(p)%blowfish.BlockSize
	buf := make([]byte, len(p)+pad)
	copy(buf, p)
	for i := len(p); i < len(buf); i++ {
		buf[i] = byte(pad)
	}
	for i := 0; i < len(buf); i += blowfish.BlockSize {
		c.block.Encrypt(buf[i:i+blowfish.BlockSize], buf[i:i+blowfish.BlockSize])
	}
	return buf
}

// decrypt deciphers p in place, validates the padding, zeroes the stripped
// tail and returns the plaintext prefix.
func (c *cipherState) decrypt(p []byte) ([]byte, error) {
	if len(p) == 0 || len(p)%blowfish.BlockSize != 0 {
		return nil, errors.Errorf("ciphertext length %d not block aligned", len(p))
	}
	for i := 0; i < len(p); i += blowfish.BlockSize {
		c.block.Decrypt(p[i:i+blowfish.BlockSize], p[i:i+blowfish.BlockSize])
	}
	pad := int(p[len(p)-1])
	if pad < 1 || pad > blowfish.BlockSize {
		return nil, errors.Errorf("invalid padding %d", pad)
	}
	tail := p[len(p)-pad:]
	for i := range tail {
		tail[i] = 0
	}
	return p[:len(p)-pad], nil
}
