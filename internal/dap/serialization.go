/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/go-logr/logr"
)

var serializationLog atomic.Pointer[logr.Logger]

// SetSerializationLogger sets the logger that reports payload values skipped during deserialization
// (for example unknown flag names). Logging is off until this is called.
func SetSerializationLogger(log logr.Logger) {
	serializationLog.Store(&log)
}

func getSerializationLogger() logr.Logger {
	if log := serializationLog.Load(); log != nil {
		return *log
	}
	return logr.Discard()
}

// EnumSpec maps the values of a plain enumeration to their wire names.
// An enumeration may designate a default value: unknown wire names decode to it,
// and it must never be serialized.
type EnumSpec[T comparable] struct {
	typeName     string
	names        map[T]string
	values       map[string]T
	defaultValue T
	hasDefault   bool
}

func NewEnumSpec[T comparable](typeName string, names map[T]string) *EnumSpec[T] {
	spec := &EnumSpec[T]{
		typeName: typeName,
		names:    names,
		values:   make(map[string]T, len(names)),
	}
	for v, name := range names {
		spec.values[name] = v
	}
	return spec
}

// WithDefault designates the value unknown wire names decode to.
func (s *EnumSpec[T]) WithDefault(v T) *EnumSpec[T] {
	s.defaultValue = v
	s.hasDefault = true
	return s
}

// Name returns the wire name of v.
func (s *EnumSpec[T]) Name(v T) (string, error) {
	if s.hasDefault && v == s.defaultValue {
		return "", fmt.Errorf("%s: %w", s.typeName, ErrDefaultEnumValue)
	}
	name, found := s.names[v]
	if !found {
		return "", fmt.Errorf("%s: value %v has no wire name", s.typeName, v)
	}
	return name, nil
}

// Parse returns the value for a wire name. Matching falls back to case-insensitive comparison,
// then to the designated default.
func (s *EnumSpec[T]) Parse(name string) (T, error) {
	if v, found := s.values[name]; found {
		return v, nil
	}
	for wireName, v := range s.values {
		if strings.EqualFold(wireName, name) {
			return v, nil
		}
	}
	if s.hasDefault {
		return s.defaultValue, nil
	}
	var zero T
	return zero, fmt.Errorf("%s: unknown value '%s'", s.typeName, name)
}

// Marshal encodes v as a JSON string.
func (s *EnumSpec[T]) Marshal(v T) ([]byte, error) {
	name, nameErr := s.Name(v)
	if nameErr != nil {
		return nil, nameErr
	}
	return json.Marshal(name)
}

// Unmarshal decodes a JSON string into an enumeration value.
func (s *EnumSpec[T]) Unmarshal(data []byte) (T, error) {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		var zero T
		return zero, fmt.Errorf("%s: expected a string: %w", s.typeName, err)
	}
	return s.Parse(name)
}

// FlagValue is the underlying type of a flag (bit set) enumeration.
type FlagValue interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

type flagBit[T FlagValue] struct {
	bit  T
	name string
}

// FlagSpec maps the bits of a flag enumeration to wire names.
// A flag value is serialized as a JSON array with the names of its set bits.
type FlagSpec[T FlagValue] struct {
	typeName string
	bits     []flagBit[T]
}

func NewFlagSpec[T FlagValue](typeName string, names map[T]string) *FlagSpec[T] {
	spec := &FlagSpec[T]{typeName: typeName}
	for bit, name := range names {
		if bits.OnesCount64(uint64(bit)) != 1 {
			panic(fmt.Sprintf("%s: flag '%s' must have exactly one bit set", typeName, name))
		}
		spec.bits = append(spec.bits, flagBit[T]{bit: bit, name: name})
	}
	sort.Slice(spec.bits, func(i, j int) bool { return spec.bits[i].bit < spec.bits[j].bit })
	return spec
}

// Names returns the wire names of the bits set in v, lowest bit first.
func (s *FlagSpec[T]) Names(v T) ([]string, error) {
	names := []string{}
	remaining := v
	for _, fb := range s.bits {
		if v&fb.bit != 0 {
			names = append(names, fb.name)
			remaining &^= fb.bit
		}
	}
	if remaining != 0 {
		return nil, fmt.Errorf("%s: bits %#x have no wire name", s.typeName, uint64(remaining))
	}
	return names, nil
}

// Marshal encodes v as a JSON array of names. The zero value encodes as [].
func (s *FlagSpec[T]) Marshal(v T) ([]byte, error) {
	names, namesErr := s.Names(v)
	if namesErr != nil {
		return nil, namesErr
	}
	return json.Marshal(names)
}

// Unmarshal folds a JSON array of names into a bit mask using the package serialization logger.
func (s *FlagSpec[T]) Unmarshal(data []byte) (T, error) {
	return s.UnmarshalWithLog(data, getSerializationLogger())
}

// UnmarshalWithLog folds a JSON array of names into a bit mask.
// Unknown names are logged and skipped; they never fail the whole payload.
func (s *FlagSpec[T]) UnmarshalWithLog(data []byte, log logr.Logger) (T, error) {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return 0, fmt.Errorf("%s: expected an array of strings: %w", s.typeName, err)
	}

	var v T
	for _, name := range names {
		bit, found := s.lookup(name)
		if !found {
			log.Info("Ignoring unknown flag value", "type", s.typeName, "value", name)
			continue
		}
		v |= bit
	}
	return v, nil
}

func (s *FlagSpec[T]) lookup(name string) (T, bool) {
	for _, fb := range s.bits {
		if fb.name == name {
			return fb.bit, true
		}
	}
	for _, fb := range s.bits {
		if strings.EqualFold(fb.name, name) {
			return fb.bit, true
		}
	}
	return 0, false
}

// NoBody is the payload type of requests and responses that carry no arguments or body.
type NoBody struct{}

// PayloadCodec converts between a typed payload and its raw JSON form.
// Codecs are bound to a command or event name when a handler is registered.
type PayloadCodec struct {
	Decode func(raw json.RawMessage) (any, error)
	Encode func(v any) (json.RawMessage, error)
}

// CodecFor returns the codec for payloads of type T.
func CodecFor[T any]() PayloadCodec {
	return PayloadCodec{
		Decode: func(raw json.RawMessage) (any, error) {
			return decodePayload[T](raw)
		},
		Encode: encodePayload,
	}
}

// decodePayload decodes a raw payload. An absent payload decodes to the zero value.
func decodePayload[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if rawTarget, isRaw := any(&v).(*json.RawMessage); isRaw {
		*rawTarget = append(json.RawMessage(nil), raw...)
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, err
	}
	return v, nil
}

// encodePayload serializes a payload. nil and NoBody produce an absent payload.
func encodePayload(v any) (json.RawMessage, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case NoBody, *NoBody:
		return nil, nil
	case json.RawMessage:
		return normalizeRaw(p), nil
	default:
		data, err := marshalJSON(v)
		if err != nil {
			return nil, err
		}
		return normalizeRaw(data), nil
	}
}
