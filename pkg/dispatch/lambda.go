package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	awslambda "github.com/aws/aws-lambda-go/lambda"
)

// ErrNotInitialized is returned by Default when Init was never called
var ErrNotInitialized = errors.New("dispatch: Init was not called before Default")

// Cold-start holder shared by the Lambda entry point
var (
	defaultBuild      func() (*Dispatcher, error)
	defaultDispatcher *Dispatcher
	defaultErr        error
	defaultOnce       sync.Once
	defaultMu         sync.Mutex
)

// Init sets the function that builds the process-wide dispatcher. It must
// be called before the first Default call; later calls are ignored.
func Init(build func() (*Dispatcher, error)) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBuild == nil {
		defaultBuild = build
	}
}

// Default builds the dispatcher registered with Init on first use
func Default() (*Dispatcher, error) {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		build := defaultBuild
		defaultMu.Unlock()

		if build == nil {
			defaultErr = ErrNotInitialized
			return
		}
		defaultDispatcher, defaultErr = build()
	})
	return defaultDispatcher, defaultErr
}

// Handler returns the Lambda handler for the default dispatcher
func Handler() (func(context.Context, json.RawMessage) (any, error), error) {
	d, err := Default()
	if err != nil {
		return nil, err
	}
	return d.Handle, nil
}

// Start builds the default dispatcher and hands it to the Lambda runtime.
// It does not return.
func Start() error {
	handler, err := Handler()
	if err != nil {
		return err
	}
	awslambda.Start(handler)
	return nil
}
