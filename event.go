// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// EventValue is a value stored in an event: a scalar, an ordered sequence,
// or a nested map. Only scalars are matchable against field predicates;
// sequences and maps participate in dotted-path lookup and keyword search.
type EventValue interface {
	eventValue()
}

func (Value) eventValue() {}

// Sequence is an ordered list of event values.
type Sequence []EventValue

func (Sequence) eventValue() {}

// Map is a nested string-keyed mapping of event values.
type Map map[string]EventValue

func (Map) eventValue() {}

// Event is a single log record: a case-sensitive mapping from field name to
// value. Events are built once per input record and are immutable during
// matching.
type Event struct {
	fields map[string]EventValue
}

// NewEvent returns an empty event.
func NewEvent() *Event {
	return &Event{fields: make(map[string]EventValue)}
}

// EventFrom builds an event from native Go values. Slices become sequences,
// string-keyed maps become nested maps, nil becomes null.
func EventFrom(fields map[string]any) *Event {
	e := NewEvent()
	for k, v := range fields {
		e.Insert(k, v)
	}
	return e
}

// Insert sets a field, replacing any previous value under the same key.
func (e *Event) Insert(key string, value any) {
	e.fields[key] = toEventValue(value)
}

// Get resolves a field by name. A key containing dots is first tried as a
// literal top-level key; only if that misses does dot-splitting descend
// into nested maps, so literal dotted keys shadow nested paths.
func (e *Event) Get(key string) (EventValue, bool) {
	if v, ok := e.fields[key]; ok {
		return v, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}
	parts := strings.Split(key, ".")
	current, ok := e.fields[parts[0]]
	if !ok {
		return nil, false
	}
	for _, part := range parts[1:] {
		nested, isMap := current.(Map)
		if !isMap {
			return nil, false
		}
		current, ok = nested[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Len returns the number of top-level fields.
func (e *Event) Len() int { return len(e.fields) }

// scanScalars walks every scalar value in the event, recursing through
// sequences and nested maps, and reports whether fn returned true for any
// of them. Iteration order is unspecified.
func (e *Event) scanScalars(fn func(Value) bool) bool {
	for _, v := range e.fields {
		if scanEventValue(v, fn) {
			return true
		}
	}
	return false
}

func scanEventValue(v EventValue, fn func(Value) bool) bool {
	switch x := v.(type) {
	case Value:
		return fn(x)
	case Sequence:
		for _, item := range x {
			if scanEventValue(item, fn) {
				return true
			}
		}
	case Map:
		for _, item := range x {
			if scanEventValue(item, fn) {
				return true
			}
		}
	}
	return false
}

func toEventValue(v any) EventValue {
	switch x := v.(type) {
	case EventValue:
		return x
	case []any:
		seq := make(Sequence, 0, len(x))
		for _, item := range x {
			seq = append(seq, toEventValue(item))
		}
		return seq
	case map[string]any:
		m := make(Map, len(x))
		for k, item := range x {
			m[k] = toEventValue(item)
		}
		return m
	default:
		return NewValue(v)
	}
}

// --- JSON ingestion ---

// ParseEvent decodes a single event from a JSON object.
func ParseEvent(data []byte) (*Event, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, oops.Code(CodeInvalidEvent).Errorf("events must be plain key value mappings")
	}
	return eventFromObject(obj)
}

// ParseEvents decodes a list of events from a JSON array of objects.
func ParseEvents(data []byte) ([]*Event, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, oops.Code(CodeInvalidEvent).Errorf("expected a JSON array of events")
	}
	events := make([]*Event, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, oops.Code(CodeInvalidEvent).Errorf("events must be plain key value mappings")
		}
		event, err := eventFromObject(obj)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, oops.Code(CodeInvalidEvent).Wrapf(err, "decoding event JSON")
	}
	return raw, nil
}

func eventFromObject(obj map[string]any) (*Event, error) {
	e := NewEvent()
	for key, raw := range obj {
		value, err := jsonEventValue(raw)
		if err != nil {
			return nil, err
		}
		e.fields[key] = value
	}
	return e, nil
}

func jsonEventValue(raw any) (EventValue, error) {
	switch x := raw.(type) {
	case nil:
		return NullValue(), nil
	case string:
		return StringValue(x), nil
	case bool:
		return BoolValue(x), nil
	case json.Number:
		return jsonNumberValue(x)
	case []any:
		seq := make(Sequence, 0, len(x))
		for _, item := range x {
			value, err := jsonEventValue(item)
			if err != nil {
				return nil, err
			}
			seq = append(seq, value)
		}
		return seq, nil
	case map[string]any:
		m := make(Map, len(x))
		for k, item := range x {
			value, err := jsonEventValue(item)
			if err != nil {
				return nil, err
			}
			m[k] = value
		}
		return m, nil
	default:
		return nil, oops.Code(CodeInvalidFieldValue).Errorf("%v is not a valid field value", raw)
	}
}

// jsonNumberValue keeps the int/unsigned/float distinction: signed 64-bit
// first, then unsigned 64-bit, then float.
func jsonNumberValue(n json.Number) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return IntValue(i), nil
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return UnsignedValue(u), nil
	}
	if f, err := n.Float64(); err == nil {
		return FloatValue(f), nil
	}
	return Value{}, oops.Code(CodeInvalidFieldValue).Errorf("%q is not a valid field value", n.String())
}
