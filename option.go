package venom

import (
	"time"
)

type optionFunc[T any] func(T) error

type Option optionFunc[*Engine]

// ItemConsumer receives every item that leaves the item pipeline.
type ItemConsumer func(item interface{}) error

// WithName sets the name used in logs and as the spider name
func WithName(name string) Option {
	return func(e *Engine) error {
		e.Name = name
		return nil
	}
}

// AllowedDomains restricts requests to the given domains and their subdomains
func AllowedDomains(domains ...string) Option {
	return func(e *Engine) error {
		e.AllowedDomains = domains
		return nil
	}
}

// Delay sets the minimum interval between two requests of the engine
func Delay(delay time.Duration) Option {
	return func(e *Engine) error {
		if delay < 0 {
			return errInvalidDelay
		}
		e.Delay = delay
		return nil
	}
}

// UserAgent sets user agent used by request
func UserAgent(ua string) Option {
	return func(e *Engine) error {
		e.UserAgent = ua
		return nil
	}
}

func Timeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout < 0 {
			return errInvalidTimeout
		}
		e.Timeout = timeout
		return nil
	}
}

func Headers(headers map[string]string) Option {
	return func(e *Engine) error {
		e.Headers = headers
		return nil
	}
}

func Auth(config AuthConfig) Option {
	return func(e *Engine) error {
		hook, err := (&AuthManager{Config: &config}).GetAuthHook()
		if err != nil {
			return err
		}
		e.clientOpts = append(e.clientOpts, withInternalPreRequestHooks(hook))
		return nil
	}
}

func WithLogger(logger Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithClientOptions passes options through to the engine's HTTP client
func WithClientOptions(opts ...ClientOption) Option {
	return func(e *Engine) error {
		e.clientOpts = append(e.clientOpts, opts...)
		return nil
	}
}

// ItemFlows appends stages to the item pipeline, in order
func ItemFlows(flows ...FlowDef[interface{}]) Option {
	return func(e *Engine) error {
		e.flows = append(e.flows, flows...)
		return nil
	}
}

func ItemBufferSize(size uint) Option {
	return func(e *Engine) error {
		if size < 1 {
			return errInvalidInputBufferSize
		}
		e.bufferSize = size
		return nil
	}
}

func WithItemConsumer(consumer ItemConsumer) Option {
	return func(e *Engine) error {
		e.consumer = consumer
		return nil
	}
}

func withClock(clock Clock) Option {
	return func(e *Engine) error {
		e.clock = clock
		return nil
	}
}
