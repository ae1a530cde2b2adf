/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/go-dap"
)

const (
	contentLengthPrefix = "Content-Length: "
	headerTerminator    = "\r\n\r\n"

	// Longest decimal length we accept in a header. Anything longer is treated as noise.
	maxContentLengthDigits = 10

	readChunkSize = 4096
)

// FrameDecoder extracts message bodies from a stream of "Content-Length: N\r\n\r\n<body>" frames.
// Bytes that precede a header are discarded. The decoder never fails on truncated input;
// it simply waits for more bytes to be fed.
//
// FrameDecoder is not safe for concurrent use.
type FrameDecoder struct {
	buf []byte

	// Body length of the frame whose header was already consumed, or -1.
	pendingLength int

	// onNoise, if set, receives bytes that were discarded while looking for a header.
	onNoise func(noise []byte)
}

func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{pendingLength: -1}
}

// OnNoise sets the function that receives bytes skipped while scanning for a header.
func (d *FrameDecoder) OnNoise(fn func(noise []byte)) {
	d.onNoise = fn
}

// Feed appends raw bytes to the decoder buffer.
func (d *FrameDecoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Buffered returns the number of bytes held by the decoder.
func (d *FrameDecoder) Buffered() int {
	return len(d.buf)
}

// Next returns the next complete message body, or false if more input is needed.
// The returned slice is owned by the caller.
func (d *FrameDecoder) Next() ([]byte, bool) {
	for {
		if d.pendingLength >= 0 {
			if len(d.buf) < d.pendingLength {
				return nil, false
			}

			body := bytes.Clone(d.buf[:d.pendingLength])
			d.consume(d.pendingLength)
			d.pendingLength = -1
			return body, true
		}

		length, headerLen, found := d.scanHeader()
		if !found {
			return nil, false
		}
		d.consume(headerLen)
		d.pendingLength = length
	}
}

// scanHeader looks for a complete header at the start of the buffer, discarding any noise in front of it.
func (d *FrameDecoder) scanHeader() (length int, headerLen int, found bool) {
	prefix := []byte(contentLengthPrefix)

	for {
		idx := bytes.Index(d.buf, prefix)
		if idx < 0 {
			// The tail of the buffer might be the beginning of a header that has not fully arrived.
			d.discardIfNotHeaderStart()
			return 0, 0, false
		}
		if idx > 0 {
			d.discard(idx)
		}

		rest := d.buf[len(prefix):]
		digits := 0
		for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
			digits++
		}

		if digits == len(rest) {
			if digits > maxContentLengthDigits {
				d.discard(1)
				continue
			}
			return 0, 0, false // Need more input.
		}

		afterDigits := rest[digits:]
		term := []byte(headerTerminator)
		if len(afterDigits) < len(term) && bytes.HasPrefix(term, afterDigits) && digits > 0 {
			return 0, 0, false // Terminator partially received.
		}

		if digits == 0 || digits > maxContentLengthDigits || !bytes.HasPrefix(afterDigits, term) {
			// Not a valid header after all; skip past this prefix occurrence and keep scanning.
			d.discard(1)
			continue
		}

		n, convErr := strconv.Atoi(string(rest[:digits]))
		if convErr != nil {
			d.discard(1)
			continue
		}

		return n, len(prefix) + digits + len(term), true
	}
}

// discardIfNotHeaderStart drops, in one piece, the retained tail bytes that cannot start a header.
func (d *FrameDecoder) discardIfNotHeaderStart() {
	d.discard(headerCandidateStart(d.buf))
}

// headerCandidateStart returns the offset of the first suffix of buf that is a prefix of the
// Content-Length header, or len(buf) if there is none.
func headerCandidateStart(buf []byte) int {
	prefix := []byte(contentLengthPrefix)
	for i := max(0, len(buf)-len(prefix)+1); i < len(buf); i++ {
		if bytes.HasPrefix(prefix, buf[i:]) {
			return i
		}
	}
	return len(buf)
}

func (d *FrameDecoder) discard(n int) {
	if n <= 0 {
		return
	}
	if d.onNoise != nil {
		d.onNoise(bytes.Clone(d.buf[:n]))
	}
	d.consume(n)
}

func (d *FrameDecoder) consume(n int) {
	remaining := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:remaining]
}

// EncodeFrame serializes msg as UTF-8 JSON and prepends the Content-Length header.
// The header carries the byte length of the encoded body. The result is a single buffer
// suitable for one atomic write.
func EncodeFrame(msg any) ([]byte, error) {
	body, marshalErr := marshalJSON(msg)
	if marshalErr != nil {
		return nil, fmt.Errorf("failed to serialize protocol message: %w", marshalErr)
	}
	return frameBody(body)
}

func frameBody(body []byte) ([]byte, error) {
	var frame bytes.Buffer
	frame.Grow(len(contentLengthPrefix) + maxContentLengthDigits + len(headerTerminator) + len(body))
	if writeErr := dap.WriteBaseMessage(&frame, body); writeErr != nil {
		return nil, fmt.Errorf("failed to write protocol frame: %w", writeErr)
	}
	return frame.Bytes(), nil
}

// marshalJSON is json.Marshal without HTML escaping and without the trailing newline added by json.Encoder.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ReadFrames reads r until EOF, invoking fn with every complete message body.
// A clean EOF (even in the middle of a frame) returns nil; an error returned by fn stops reading.
func ReadFrames(r io.Reader, fn func(body []byte) error) error {
	return readFramesWith(r, NewFrameDecoder(), fn)
}

func readFramesWith(r io.Reader, decoder *FrameDecoder, fn func(body []byte) error) error {
	chunk := make([]byte, readChunkSize)

	for {
		n, readErr := r.Read(chunk)
		if n > 0 {
			decoder.Feed(chunk[:n])
			for {
				body, ok := decoder.Next()
				if !ok {
					break
				}
				if fnErr := fn(body); fnErr != nil {
					return fnErr
				}
			}
		}

		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}
