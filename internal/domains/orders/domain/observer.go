package domain

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// ErrObserverNotComparable is returned by Attach for observers whose dynamic
// type cannot be compared, such as func types.
var ErrObserverNotComparable = errors.New("observer type is not comparable")

// Observer receives status changes of the orders it is attached to.
// Implementations must be comparable (typically pointers) because
// attachment is deduplicated by identity.
type Observer interface {
	OnStatusChanged(ctx context.Context, order *Order, event Status, message string) error
}

// Attach registers observer. Attaching the same observer twice has no effect.
// A nil observer is ignored.
func (o *Order) Attach(observer Observer) error {
	if observer == nil {
		return nil
	}
	if !reflect.TypeOf(observer).Comparable() {
		return fmt.Errorf("%w: %T", ErrObserverNotComparable, observer)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, existing := range o.observers {
		if sameObserver(existing, observer) {
			return nil
		}
	}
	o.observers = append(o.observers, observer)
	return nil
}

// Detach removes observer if attached.
func (o *Order) Detach(observer Observer) {
	if observer == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, existing := range o.observers {
		if sameObserver(existing, observer) {
			o.observers = append(o.observers[:i:i], o.observers[i+1:]...)
			return
		}
	}
}

// sameObserver compares by identity without panicking on uncomparable types,
// including comparable structs holding uncomparable interface values.
func sameObserver(a, b Observer) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// ObserverCount returns how many observers are attached.
func (o *Order) ObserverCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.observers)
}

func (o *Order) notifyAll(ctx context.Context, observers []Observer, event Status, message string) error {
	var errs []error
	for _, observer := range observers {
		if err := deliver(ctx, observer, o, event, message); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrNotificationDelivery, errors.Join(errs...))
}

// deliver isolates a single observer so a panic cannot cut delivery short.
func deliver(ctx context.Context, observer Observer, order *Order, event Status, message string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer %T panicked: %v", observer, r)
		}
	}()
	return observer.OnStatusChanged(ctx, order, event, message)
}
