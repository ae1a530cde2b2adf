/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"encoding/json"
	"testing"

	"github.com/google/go-dap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceCounter(t *testing.T) {
	t.Parallel()

	counter := newSequenceCounter()

	assert.Equal(t, 0, counter.Current(), "initial value should be 0")

	assert.Equal(t, 1, counter.Next(), "first Next() should return 1")
	assert.Equal(t, 1, counter.Current(), "Current() should return 1 after first Next()")

	assert.Equal(t, 2, counter.Next(), "second Next() should return 2")
	assert.Equal(t, 3, counter.Next(), "third Next() should return 3")
	assert.Equal(t, 3, counter.Current(), "Current() should return 3")
}

// decodeFrame runs an encoded frame through the frame decoder and the message decoder.
func decodeFrame(t *testing.T, frame []byte) Message {
	t.Helper()

	d := NewFrameDecoder()
	d.Feed(frame)
	body, ok := d.Next()
	require.True(t, ok, "frame should decode to a message body")

	msg, err := DecodeMessage(body)
	require.NoError(t, err)
	return msg
}

func TestMessageFramingRoundTrip(t *testing.T) {
	t.Parallel()

	messages := []Message{
		&Request{
			ProtocolMessage: ProtocolMessage{Seq: 1, Type: MessageTypeRequest},
			Command:         CommandStackTrace,
			Arguments:       json.RawMessage(`{"threadId":1,"levels":20}`),
		},
		&Request{
			ProtocolMessage: ProtocolMessage{Seq: 2, Type: MessageTypeRequest},
			Command:         CommandConfigurationDone,
		},
		&Response{
			ProtocolMessage: ProtocolMessage{Seq: 3, Type: MessageTypeResponse},
			RequestSeq:      1,
			Success:         true,
			Command:         CommandStackTrace,
			Body:            json.RawMessage(`{"stackFrames":[],"totalFrames":0}`),
		},
		&Response{
			ProtocolMessage: ProtocolMessage{Seq: 4, Type: MessageTypeResponse},
			RequestSeq:      2,
			Success:         false,
			Command:         CommandEvaluate,
			Message:         "cannot evaluate",
		},
		&Event{
			ProtocolMessage: ProtocolMessage{Seq: 5, Type: MessageTypeEvent},
			Event:           EventStopped,
			Body:            json.RawMessage(`{"reason":"breakpoint","threadId":1}`),
		},
		&Event{
			ProtocolMessage: ProtocolMessage{Seq: 6, Type: MessageTypeEvent},
			Event:           EventInitialized,
		},
	}

	for _, msg := range messages {
		frame, err := EncodeFrame(msg)
		require.NoError(t, err)
		assert.Equal(t, msg, decodeFrame(t, frame))
	}
}

func TestDecodeMessageNullPayloadIsAbsent(t *testing.T) {
	t.Parallel()

	msg, err := DecodeMessage([]byte(`{"seq":7,"type":"event","event":"initialized","body":null}`))
	require.NoError(t, err)

	ev, isEvent := msg.(*Event)
	require.True(t, isEvent)
	assert.Nil(t, ev.Body)
}

func TestDecodeResponseCommandPresence(t *testing.T) {
	t.Parallel()

	missing, err := DecodeMessage([]byte(`{"seq":1,"type":"response","request_seq":4,"success":true}`))
	require.NoError(t, err)
	assert.False(t, missing.(*Response).CommandPresent())

	null, err := DecodeMessage([]byte(`{"seq":1,"type":"response","request_seq":4,"success":true,"command":null}`))
	require.NoError(t, err)
	assert.False(t, null.(*Response).CommandPresent())

	empty, err := DecodeMessage([]byte(`{"seq":1,"type":"response","request_seq":4,"success":true,"command":""}`))
	require.NoError(t, err)
	assert.True(t, empty.(*Response).CommandPresent())

	named, err := DecodeMessage([]byte(`{"seq":1,"type":"response","request_seq":4,"success":true,"command":"threads"}`))
	require.NoError(t, err)
	assert.True(t, named.(*Response).CommandPresent())
	assert.Equal(t, "threads", named.(*Response).Command)
}

func TestDecodeMessageErrors(t *testing.T) {
	t.Parallel()

	_, err := DecodeMessage([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeMessage([]byte(`{"seq":1,"type":"notification"}`))
	assert.ErrorContains(t, err, "unknown protocol message type")

	_, err = DecodeMessage([]byte(`{"seq":"one","type":"request","command":"threads"}`))
	assert.Error(t, err)
}

func TestResponseErrorDetail(t *testing.T) {
	t.Parallel()

	resp := &Response{
		ProtocolMessage: ProtocolMessage{Seq: 9, Type: MessageTypeResponse},
		RequestSeq:      3,
		Success:         false,
		Command:         CommandEvaluate,
		Message:         "evaluation failed",
		Body:            json.RawMessage(`{"error":{"id":2001,"format":"Unknown variable 'x'","showUser":true}}`),
	}

	detail := resp.ErrorDetail()
	require.NotNil(t, detail)
	assert.Equal(t, dap.ErrorMessage{Id: 2001, Format: "Unknown variable 'x'", ShowUser: true}, *detail)

	resp.Success = true
	assert.Nil(t, resp.ErrorDetail(), "successful responses carry no error detail")
}
