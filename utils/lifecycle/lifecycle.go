// Package lifecycle provides the start/step/close skeleton shared by all
// pipeline workers. A worker implements AsyncInstance and is driven by an
// AsyncManager: Step is called in a loop on a dedicated goroutine and
// receives the stop channel, which it must honor inside every blocking wait.
package lifecycle

type Instance interface {
	Close_()
	String() string
}

type AsyncInstance interface {
	Instance
	Step(stopChan <-chan struct{}) error
}

type AsyncManager[T AsyncInstance] interface {
	Start(func(T) error) error
	Close()
	Done() <-chan struct{}
}

// BreakError is the sentinel a Step returns to leave the loop without
// reporting a failure, typically after observing the stop channel.
type BreakError struct{}

func (*BreakError) Error() string {
	return "break"
}

type StartedAlreadyError struct{}

func (*StartedAlreadyError) Error() string {
	return "started already"
}

type StartedAfterCloseError struct{}

func (*StartedAfterCloseError) Error() string {
	return "start after close"
}

var errBreak = &BreakError{}
