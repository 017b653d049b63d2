package progress

import "context"

// Sink consumes progress events. Implementations must be safe for repeated
// calls and may be invoked from the hub goroutine only.
type Sink interface {
	Consume(ctx context.Context, evt Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Hub satisfies this interface so the
// controller stays agnostic about how events are buffered or exported.
type Emitter interface {
	Emit(evt Event)
}
