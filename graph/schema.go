package graph

import (
	"fmt"
	"maps"
	"reflect"
)

// Reducer defines how a state field is updated. It takes the current value
// and the update, and returns the merged value. The reducer for a field is
// fixed when the schema is declared and applies for the state's lifetime.
type Reducer func(current, update any) (any, error)

// StateSchema defines the structure and update logic for the graph state.
type StateSchema interface {
	// Init returns the initial state.
	Init() State

	// Update merges a partial update into the current state.
	Update(current State, update State) (State, error)
}

// MapSchema implements StateSchema with a per-field reducer table. Fields
// without a registered reducer are replaced by the update.
type MapSchema struct {
	Reducers map[string]Reducer
}

// NewMapSchema creates a new MapSchema.
func NewMapSchema() *MapSchema {
	return &MapSchema{
		Reducers: make(map[string]Reducer),
	}
}

// RegisterReducer fixes the reducer for a field.
func (s *MapSchema) RegisterReducer(field string, reducer Reducer) {
	s.Reducers[field] = reducer
}

// Init returns an empty state.
func (s *MapSchema) Init() State {
	return make(State)
}

// Update merges the update into the current state field by field. The
// current state is never mutated; callers always get a fresh map.
func (s *MapSchema) Update(current State, update State) (State, error) {
	result := make(State, len(current)+len(update))
	maps.Copy(result, current)

	for field, value := range update {
		reducer, ok := s.Reducers[field]
		if !ok {
			reducer = ReplaceReducer
		}
		merged, err := reducer(result[field], value)
		if err != nil {
			return nil, fmt.Errorf("reduce field %q: %w", field, err)
		}
		result[field] = merged
	}

	return result, nil
}

// ReplaceReducer discards the current value in favor of the update. This is
// the default behavior for fields without a registered reducer.
func ReplaceReducer(current, update any) (any, error) {
	return update, nil
}

// AppendReducer concatenates the update sequence onto the current sequence.
// Both sides must be slices; anything else is an ErrMergeTypeMismatch.
// Prior entries are never truncated or reordered.
func AppendReducer(current, update any) (any, error) {
	updateVal := reflect.ValueOf(update)
	if update == nil || updateVal.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: append update is %T, want a slice", ErrMergeTypeMismatch, update)
	}

	if current == nil {
		return update, nil
	}

	currentVal := reflect.ValueOf(current)
	if currentVal.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: append target is %T, want a slice", ErrMergeTypeMismatch, current)
	}

	if currentVal.Type().Elem() == updateVal.Type().Elem() {
		merged := reflect.MakeSlice(currentVal.Type(), 0, currentVal.Len()+updateVal.Len())
		merged = reflect.AppendSlice(merged, currentVal)
		merged = reflect.AppendSlice(merged, updateVal)
		return merged.Interface(), nil
	}

	// Element types differ, fall back to []any.
	result := make([]any, 0, currentVal.Len()+updateVal.Len())
	for i := 0; i < currentVal.Len(); i++ {
		result = append(result, currentVal.Index(i).Interface())
	}
	for i := 0; i < updateVal.Len(); i++ {
		result = append(result, updateVal.Index(i).Interface())
	}
	return result, nil
}
