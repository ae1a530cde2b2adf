/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package testutil

import (
	"errors"
	"io"
)

// PipeEnd is one side of an in-memory duplex byte stream.
type PipeEnd struct {
	io.Reader
	io.Writer
	r *io.PipeReader
	w *io.PipeWriter
}

// NewDuplexPipe returns two connected stream ends: bytes written to one are read from the other.
// Writes block until the peer reads them, like a real socket with no buffer.
func NewDuplexPipe() (*PipeEnd, *PipeEnd) {
	aRead, bWrite := io.Pipe()
	bRead, aWrite := io.Pipe()
	a := &PipeEnd{Reader: aRead, Writer: aWrite, r: aRead, w: aWrite}
	b := &PipeEnd{Reader: bRead, Writer: bWrite, r: bRead, w: bWrite}
	return a, b
}

// Close closes both directions; the peer observes EOF on read.
func (p *PipeEnd) Close() error {
	return errors.Join(p.w.Close(), p.r.Close())
}

var _ io.ReadWriteCloser = (*PipeEnd)(nil)
