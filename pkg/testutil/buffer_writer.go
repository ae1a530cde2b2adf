/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package testutil

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// Chunk is a single Write() call observed by a BufferWriter.
type Chunk struct {
	Data      []byte
	Timestamp time.Time
}

// BufferWriter is an io.WriteCloser that keeps every write as a separate chunk,
// which lets tests verify that each protocol frame was written in one piece.
// All methods are goroutine-safe.
type BufferWriter struct {
	lock    *sync.Mutex
	data    []byte
	chunks  []Chunk
	closed  bool
	written chan struct{}
}

func NewBufferWriter() *BufferWriter {
	return &BufferWriter{
		lock:    &sync.Mutex{},
		written: make(chan struct{}, 1),
	}
}

func (bw *BufferWriter) Write(p []byte) (int, error) {
	bw.lock.Lock()
	defer bw.lock.Unlock()

	if bw.closed {
		return 0, io.ErrClosedPipe
	}

	bw.chunks = append(bw.chunks, Chunk{
		Data:      bytes.Clone(p),
		Timestamp: time.Now(),
	})
	bw.data = append(bw.data, p...)

	select {
	case bw.written <- struct{}{}:
	default:
	}
	return len(p), nil
}

func (bw *BufferWriter) Bytes() []byte {
	bw.lock.Lock()
	defer bw.lock.Unlock()
	return bytes.Clone(bw.data)
}

func (bw *BufferWriter) Chunks() []Chunk {
	bw.lock.Lock()
	defer bw.lock.Unlock()
	return append([]Chunk(nil), bw.chunks...)
}

func (bw *BufferWriter) ChunksLen() int {
	bw.lock.Lock()
	defer bw.lock.Unlock()
	return len(bw.chunks)
}

// Written returns a channel that receives a value after one or more writes happened.
func (bw *BufferWriter) Written() <-chan struct{} {
	return bw.written
}

func (bw *BufferWriter) Close() error {
	bw.lock.Lock()
	defer bw.lock.Unlock()
	bw.closed = true
	return nil
}

var _ io.WriteCloser = (*BufferWriter)(nil)
