package lifecycle

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/ugparu/gobroadcast/utils/logger"
)

type asyncManager[T AsyncInstance] struct {
	instance             T
	stopChan, doneChan   chan struct{}
	startOnce, closeOnce *sync.Once
}

func NewAsyncManager[T AsyncInstance](instance T) AsyncManager[T] {
	return &asyncManager[T]{
		instance:  instance,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
		startOnce: &sync.Once{},
		closeOnce: &sync.Once{},
	}
}

// Start runs startFn once and, on success, launches the step loop. A failed
// startFn closes Done immediately so the worker never enters its loop.
func (m *asyncManager[T]) Start(startFn func(T) error) (err error) {
	select {
	case <-m.stopChan:
		return &StartedAfterCloseError{}
	default:
		err = &StartedAlreadyError{}
	}
	m.startOnce.Do(func() {
		logger.Debugf(m.instance, "starting worker")
		if err = startFn(m.instance); err != nil {
			close(m.doneChan)
			return
		}
		go m.run()
	})
	return err
}

func (m *asyncManager[T]) run() {
	logger.Debug(m.instance, "entering step loop")

	defer close(m.doneChan)
	for {
		err := m.step()
		if err == nil {
			continue
		}
		if !errors.As(err, &errBreak) {
			logger.Errorf(m.instance, "worker stopped: %s", err.Error())
		}
		return
	}
}

func (m *asyncManager[T]) step() (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(m.instance, "panic in step: %v", r)
			logger.Errorf(m.instance, "%s", debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.instance.Step(m.stopChan)
}

// Close requests the loop to stop, waits for it to drain and runs the
// instance cleanup exactly once, regardless of how the loop ended.
func (m *asyncManager[T]) Close() {
	m.closeOnce.Do(func() {
		close(m.stopChan)
		m.startOnce.Do(func() {
			close(m.doneChan)
		})
		<-m.doneChan
		m.instance.Close_()
	})
}

func (m *asyncManager[T]) Done() <-chan struct{} {
	return m.doneChan
}
