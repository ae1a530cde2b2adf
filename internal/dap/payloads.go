/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"encoding/json"
)

// VariablePresentationKind is the kind of a variable, used by the IDE to choose an icon.
// Unknown wire values decode to PresentationKindUnknown, which is never serialized.
type VariablePresentationKind int

const (
	PresentationKindUnknown VariablePresentationKind = iota
	PresentationKindProperty
	PresentationKindMethod
	PresentationKindClass
	PresentationKindData
	PresentationKindEvent
	PresentationKindBaseClass
	PresentationKindInnerClass
	PresentationKindInterface
	PresentationKindMostDerivedClass
	PresentationKindVirtual
	PresentationKindDataBreakpoint
)

var presentationKindSpec = NewEnumSpec("VariablePresentationKind", map[VariablePresentationKind]string{
	PresentationKindProperty:         "property",
	PresentationKindMethod:           "method",
	PresentationKindClass:            "class",
	PresentationKindData:             "data",
	PresentationKindEvent:            "event",
	PresentationKindBaseClass:        "baseClass",
	PresentationKindInnerClass:       "innerClass",
	PresentationKindInterface:        "interface",
	PresentationKindMostDerivedClass: "mostDerivedClass",
	PresentationKindVirtual:          "virtual",
	PresentationKindDataBreakpoint:   "dataBreakpoint",
}).WithDefault(PresentationKindUnknown)

func (k VariablePresentationKind) MarshalJSON() ([]byte, error) {
	return presentationKindSpec.Marshal(k)
}

func (k *VariablePresentationKind) UnmarshalJSON(data []byte) error {
	v, err := presentationKindSpec.Unmarshal(data)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// VariablePresentationVisibility is the visibility of a variable.
type VariablePresentationVisibility int

const (
	VisibilityUnknown VariablePresentationVisibility = iota
	VisibilityPublic
	VisibilityPrivate
	VisibilityProtected
	VisibilityInternal
	VisibilityFinal
)

var visibilitySpec = NewEnumSpec("VariablePresentationVisibility", map[VariablePresentationVisibility]string{
	VisibilityPublic:    "public",
	VisibilityPrivate:   "private",
	VisibilityProtected: "protected",
	VisibilityInternal:  "internal",
	VisibilityFinal:     "final",
}).WithDefault(VisibilityUnknown)

func (v VariablePresentationVisibility) MarshalJSON() ([]byte, error) {
	return visibilitySpec.Marshal(v)
}

func (v *VariablePresentationVisibility) UnmarshalJSON(data []byte) error {
	decoded, err := visibilitySpec.Unmarshal(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// VariableAttributes is a set of variable attributes, serialized as an array of attribute names.
type VariableAttributes uint32

const (
	AttributeStatic VariableAttributes = 1 << iota
	AttributeConstant
	AttributeReadOnly
	AttributeRawString
	AttributeHasObjectID
	AttributeCanHaveObjectID
	AttributeHasSideEffects
	AttributeHasDataBreakpoint
)

var attributesSpec = NewFlagSpec("VariableAttributes", map[VariableAttributes]string{
	AttributeStatic:            "static",
	AttributeConstant:          "constant",
	AttributeReadOnly:          "readOnly",
	AttributeRawString:         "rawString",
	AttributeHasObjectID:       "hasObjectId",
	AttributeCanHaveObjectID:   "canHaveObjectId",
	AttributeHasSideEffects:    "hasSideEffects",
	AttributeHasDataBreakpoint: "hasDataBreakpoint",
})

func (a VariableAttributes) MarshalJSON() ([]byte, error) {
	return attributesSpec.Marshal(a)
}

func (a *VariableAttributes) UnmarshalJSON(data []byte) error {
	decoded, err := attributesSpec.Unmarshal(data)
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// VariablePresentationHint tells the IDE how to present a variable.
// Fields holding their default value are left out of the serialized form.
type VariablePresentationHint struct {
	Kind       VariablePresentationKind
	Attributes VariableAttributes
	Visibility VariablePresentationVisibility
	Lazy       bool
}

// IsEmpty reports whether the hint carries no information.
func (h VariablePresentationHint) IsEmpty() bool {
	return h == VariablePresentationHint{}
}

type wirePresentationHint struct {
	Kind       *VariablePresentationKind       `json:"kind,omitempty"`
	Attributes *VariableAttributes             `json:"attributes,omitempty"`
	Visibility *VariablePresentationVisibility `json:"visibility,omitempty"`
	Lazy       bool                            `json:"lazy,omitempty"`
}

func (h VariablePresentationHint) MarshalJSON() ([]byte, error) {
	var w wirePresentationHint
	if h.Kind != PresentationKindUnknown {
		w.Kind = &h.Kind
	}
	if h.Attributes != 0 {
		w.Attributes = &h.Attributes
	}
	if h.Visibility != VisibilityUnknown {
		w.Visibility = &h.Visibility
	}
	w.Lazy = h.Lazy
	return json.Marshal(w)
}

func (h *VariablePresentationHint) UnmarshalJSON(data []byte) error {
	var w wirePresentationHint
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*h = VariablePresentationHint{Lazy: w.Lazy}
	if w.Kind != nil {
		h.Kind = *w.Kind
	}
	if w.Attributes != nil {
		h.Attributes = *w.Attributes
	}
	if w.Visibility != nil {
		h.Visibility = *w.Visibility
	}
	return nil
}

// Variable is a named value shown in the variables view or produced by evaluation.
type Variable struct {
	Name               string                   `json:"name"`
	Value              string                   `json:"value"`
	Type               string                   `json:"type,omitempty"`
	PresentationHint   VariablePresentationHint `json:"-"`
	EvaluateName       string                   `json:"evaluateName,omitempty"`
	VariablesReference int                      `json:"variablesReference"`
	NamedVariables     int                      `json:"namedVariables,omitempty"`
	IndexedVariables   int                      `json:"indexedVariables,omitempty"`
	MemoryReference    string                   `json:"memoryReference,omitempty"`
}

// variableAlias has the fields of Variable without its JSON methods.
type variableAlias Variable

type wireVariable struct {
	variableAlias
	PresentationHint *VariablePresentationHint `json:"presentationHint,omitempty"`
}

func (v Variable) MarshalJSON() ([]byte, error) {
	w := wireVariable{variableAlias: variableAlias(v)}
	if !v.PresentationHint.IsEmpty() {
		w.PresentationHint = &v.PresentationHint
	}
	return json.Marshal(w)
}

func (v *Variable) UnmarshalJSON(data []byte) error {
	var w wireVariable
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = Variable(w.variableAlias)
	if w.PresentationHint != nil {
		v.PresentationHint = *w.PresentationHint
	}
	return nil
}

// VariablesResponseBody is the body of the response to a variables request.
type VariablesResponseBody struct {
	Variables []Variable `json:"variables"`
}

// EvaluateResponseBody is the body of the response to an evaluate request.
type EvaluateResponseBody struct {
	Result             string                   `json:"result"`
	Type               string                   `json:"type,omitempty"`
	PresentationHint   VariablePresentationHint `json:"-"`
	VariablesReference int                      `json:"variablesReference"`
	NamedVariables     int                      `json:"namedVariables,omitempty"`
	IndexedVariables   int                      `json:"indexedVariables,omitempty"`
	MemoryReference    string                   `json:"memoryReference,omitempty"`
}

type evaluateBodyAlias EvaluateResponseBody

type wireEvaluateBody struct {
	evaluateBodyAlias
	PresentationHint *VariablePresentationHint `json:"presentationHint,omitempty"`
}

func (b EvaluateResponseBody) MarshalJSON() ([]byte, error) {
	w := wireEvaluateBody{evaluateBodyAlias: evaluateBodyAlias(b)}
	if !b.PresentationHint.IsEmpty() {
		w.PresentationHint = &b.PresentationHint
	}
	return json.Marshal(w)
}

func (b *EvaluateResponseBody) UnmarshalJSON(data []byte) error {
	var w wireEvaluateBody
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*b = EvaluateResponseBody(w.evaluateBodyAlias)
	if w.PresentationHint != nil {
		b.PresentationHint = *w.PresentationHint
	}
	return nil
}

// StepGranularity is the unit of a stepping request. StepGranularityDefault leaves the choice
// to the debugger and is never serialized.
type StepGranularity int

const (
	StepGranularityDefault StepGranularity = iota
	StepGranularityStatement
	StepGranularityLine
	StepGranularityInstruction
)

var stepGranularitySpec = NewEnumSpec("SteppingGranularity", map[StepGranularity]string{
	StepGranularityStatement:   "statement",
	StepGranularityLine:        "line",
	StepGranularityInstruction: "instruction",
}).WithDefault(StepGranularityDefault)

func (g StepGranularity) MarshalJSON() ([]byte, error) {
	return stepGranularitySpec.Marshal(g)
}

func (g *StepGranularity) UnmarshalJSON(data []byte) error {
	decoded, err := stepGranularitySpec.Unmarshal(data)
	if err != nil {
		return err
	}
	*g = decoded
	return nil
}

// StepArguments are the arguments of the next, stepIn, stepOut and stepBack requests.
type StepArguments struct {
	ThreadId     int             `json:"threadId"`
	SingleThread bool            `json:"singleThread,omitempty"`
	TargetId     int             `json:"targetId,omitempty"`
	Granularity  StepGranularity `json:"granularity,omitempty"`
}
