package tinystore

import (
	"fmt"
	"sort"
	"strings"
)

// Reducer maps the current value and call arguments to a new value
type Reducer[T any] func(prev T, args ...any) Resolvable[T]

// Reducers is a table of named reducers
type Reducers[T any] map[string]Reducer[T]

// Action is a reducer bound to a store
type Action func(args ...any) error

// reservedActionNames are the store's own operations; reducers cannot shadow them
var reservedActionNames = map[string]struct{}{
	"id": {}, "status": {}, "err": {}, "peek": {}, "poll": {}, "value": {}, "get": {},
	"write": {}, "set": {}, "update": {}, "subscribe": {}, "unsubscribe": {},
	"listeners": {}, "reset": {}, "use": {}, "dispatch": {}, "action": {},
	"actions": {}, "oncleanup": {}, "load": {},
}

// Reduce adapts a function of the current value alone
func Reduce[T any](fn func(prev T) T) Reducer[T] {
	return func(prev T, _ ...any) Resolvable[T] {
		return Immediate(fn(prev))
	}
}

// ReduceWith adapts a function taking one typed argument.
// A missing or mistyped argument fails the resolution.
func ReduceWith[T any, A any](fn func(prev T, arg A) T) Reducer[T] {
	return func(prev T, args ...any) Resolvable[T] {
		if len(args) < 1 {
			var zero A
			return Fail[T](fmt.Errorf("reducer expects an argument of type %T", zero))
		}
		arg, err := SafeTypeAssertion[A](args[0])
		if err != nil {
			return Fail[T](err)
		}
		return Immediate(fn(prev, arg))
	}
}

// ReduceAsync adapts a function computed on a separate goroutine
func ReduceAsync[T any](fn func(prev T) (T, error)) Reducer[T] {
	return func(prev T, _ ...any) Resolvable[T] {
		return GoAsync(func() (T, error) {
			return fn(prev)
		})
	}
}

// Use binds reducers as actions. A name matching a store operation or an
// already bound action is ignored; the first binding wins.
func (s *Store[T]) Use(reducers Reducers[T]) *Store[T] {
	names := make([]string, 0, len(reducers))
	for name := range reducers {
		names = append(names, name)
	}
	sort.Strings(names)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range names {
		reducer := reducers[name]
		if reducer == nil {
			continue
		}
		if _, reserved := reservedActionNames[strings.ToLower(name)]; reserved {
			s.registry.logger.WithField("store", s.id).WithField("action", name).
				Debug("reducer shadows a store operation, ignored")
			continue
		}
		if _, exists := s.actions[name]; exists {
			continue
		}
		s.actions[name] = s.bind(name, reducer)
		s.actionOrder = append(s.actionOrder, name)
	}

	return s
}

func (s *Store[T]) bind(name string, reducer Reducer[T]) Action {
	return func(args ...any) error {
		op := &Operation{Kind: OpAction, StoreID: s.id, Store: s, Action: name}
		return s.registry.wrap(op, func() error {
			s.Poll()
			prev, _ := s.Peek()
			s.Write(reducer(prev, args...))
			return nil
		})
	}
}

// Action returns the action bound under name
func (s *Store[T]) Action(name string) (Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	action, ok := s.actions[name]
	return action, ok
}

// Dispatch runs the action bound under name
func (s *Store[T]) Dispatch(name string, args ...any) error {
	action, ok := s.Action(name)
	if !ok {
		return fmt.Errorf("%w %q on store %s", ErrUnknownAction, name, s.id)
	}
	return action(args...)
}

// Actions lists bound action names in binding order
func (s *Store[T]) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.actionOrder...)
}
