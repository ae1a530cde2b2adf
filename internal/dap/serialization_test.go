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
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/neo-project/neo-debugger-sub001/pkg/testutil"
)

func TestEnumSpec(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(PresentationKindBaseClass)
	require.NoError(t, err)
	assert.Equal(t, `"baseClass"`, string(data))

	var kind VariablePresentationKind
	require.NoError(t, json.Unmarshal([]byte(`"mostDerivedClass"`), &kind))
	assert.Equal(t, PresentationKindMostDerivedClass, kind)

	require.NoError(t, json.Unmarshal([]byte(`"BASECLASS"`), &kind))
	assert.Equal(t, PresentationKindBaseClass, kind, "names should match ignoring case")
}

func TestEnumSpecUnknownValueDecodesToDefault(t *testing.T) {
	t.Parallel()

	var kind VariablePresentationKind
	require.NoError(t, json.Unmarshal([]byte(`"someFutureKind"`), &kind))
	assert.Equal(t, PresentationKindUnknown, kind)
}

func TestEnumSpecDefaultIsNeverSerialized(t *testing.T) {
	t.Parallel()

	_, err := json.Marshal(PresentationKindUnknown)
	assert.ErrorIs(t, err, ErrDefaultEnumValue)
}

func TestEnumSpecWithoutDefaultRejectsUnknownValue(t *testing.T) {
	t.Parallel()

	spec := NewEnumSpec("Color", map[int]string{1: "red", 2: "green"})

	_, err := spec.Parse("blue")
	assert.ErrorContains(t, err, "unknown value 'blue'")

	_, err = spec.Unmarshal([]byte(`42`))
	assert.Error(t, err, "non-string values are rejected")

	_, err = spec.Marshal(3)
	assert.Error(t, err, "values without a wire name cannot be serialized")
}

func TestFlagSpecRoundTrip(t *testing.T) {
	t.Parallel()

	attrs := AttributeReadOnly | AttributeStatic | AttributeHasSideEffects

	data, err := json.Marshal(attrs)
	require.NoError(t, err)
	assert.Equal(t, `["static","readOnly","hasSideEffects"]`, string(data))

	var decoded VariableAttributes
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, attrs, decoded)
}

func TestFlagSpecZeroValueIsEmptyArray(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(VariableAttributes(0))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestFlagSpecUnknownNamesAreLoggedAndSkipped(t *testing.T) {
	t.Parallel()

	sink := testutil.NewMockLoggerSink()
	sink.On("Info", mock.Anything, "Ignoring unknown flag value", mock.Anything).Return()

	decoded, err := attributesSpec.UnmarshalWithLog([]byte(`["constant","bogus","rawString"]`), sink.Logger())
	require.NoError(t, err)
	assert.Equal(t, AttributeConstant|AttributeRawString, decoded)
	sink.AssertNumberOfCalls(t, "Info", 1)
}

func TestFlagSpecRejectsNonArray(t *testing.T) {
	t.Parallel()

	var attrs VariableAttributes
	assert.Error(t, json.Unmarshal([]byte(`"static"`), &attrs))
}

func TestFlagSpecRequiresSingleBitValues(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		NewFlagSpec("Broken", map[uint8]string{3: "both"})
	})
}

func TestVariablePresentationHintOmitsDefaults(t *testing.T) {
	t.Parallel()

	v := Variable{Name: "x", Value: "1", VariablesReference: 0}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","value":"1","variablesReference":0}`, string(data))

	v.PresentationHint = VariablePresentationHint{Attributes: AttributeReadOnly}
	data, err = json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","value":"1","variablesReference":0,"presentationHint":{"attributes":["readOnly"]}}`, string(data))
}

func TestVariableRoundTrip(t *testing.T) {
	t.Parallel()

	v := Variable{
		Name:               "balance",
		Value:              "100",
		Type:               "Integer",
		EvaluateName:       "#storage[0].balance",
		VariablesReference: 7,
		NamedVariables:     2,
		PresentationHint: VariablePresentationHint{
			Kind:       PresentationKindProperty,
			Attributes: AttributeConstant | AttributeReadOnly,
			Visibility: VisibilityPrivate,
			Lazy:       true,
		},
	}

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var decoded Variable
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, v, decoded)
}

func TestEvaluateResponseBodyRoundTrip(t *testing.T) {
	t.Parallel()

	body := EvaluateResponseBody{
		Result:             "0x01",
		Type:               "ByteString",
		PresentationHint:   VariablePresentationHint{Kind: PresentationKindData},
		VariablesReference: 3,
	}

	data, err := json.Marshal(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"presentationHint":{"kind":"data"}`)

	var decoded EvaluateResponseBody
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, body, decoded)
}

func TestStepArgumentsGranularity(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(StepArguments{ThreadId: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"threadId":1}`, string(data), "default granularity is left out")

	data, err = json.Marshal(StepArguments{ThreadId: 1, Granularity: StepGranularityInstruction})
	require.NoError(t, err)
	assert.JSONEq(t, `{"threadId":1,"granularity":"instruction"}`, string(data))
}

func TestPayloadCodec(t *testing.T) {
	t.Parallel()

	codec := CodecFor[dap.StackTraceArguments]()

	decoded, err := codec.Decode(json.RawMessage(`{"threadId":3,"startFrame":1}`))
	require.NoError(t, err)
	assert.Equal(t, dap.StackTraceArguments{ThreadId: 3, StartFrame: 1}, decoded)

	decoded, err = codec.Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, dap.StackTraceArguments{}, decoded, "absent payload decodes to the zero value")

	_, err = codec.Decode(json.RawMessage(`{"threadId":"main"}`))
	assert.Error(t, err, "structurally invalid payloads are rejected")

	raw, err := codec.Encode(dap.StackTraceArguments{ThreadId: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"threadId":3}`, string(raw))
}

func TestPayloadCodecRawAndEmptyPayloads(t *testing.T) {
	t.Parallel()

	rawCodec := CodecFor[json.RawMessage]()
	decoded, err := rawCodec.Decode(json.RawMessage(`{"program":"contract.nef"}`))
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`{"program":"contract.nef"}`), decoded)

	raw, err := encodePayload(NoBody{})
	require.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = encodePayload(nil)
	require.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = encodePayload(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, raw)
}
