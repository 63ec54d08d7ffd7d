package venom

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Engine drives step functions: it fetches the requests they yield, feeds the
// responses back to the request callbacks and passes items through the item
// pipeline to the consumer.
type Engine struct {
	Name           string
	AllowedDomains []string
	Delay          time.Duration
	UserAgent      string
	Timeout        time.Duration
	Headers        map[string]string

	logger     Logger
	clock      Clock
	limiter    Limiter
	client     *Client
	clientOpts []ClientOption
	flows      []FlowDef[interface{}]
	bufferSize uint
	consumer   ItemConsumer
}

func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		Name:       "venom",
		UserAgent:  "venom",
		Timeout:    30 * time.Second,
		clock:      realClock{},
		bufferSize: 16,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.logger == nil {
		logger, err := NewLogger(LoggerConfig{ID: "engine", Name: e.Name, ConsoleLevel: InfoLevel})
		if err != nil {
			return nil, err
		}
		e.logger = logger
	}

	clientOpts := []ClientOption{
		WithTimeout(e.Timeout),
		WithUserAgent(e.UserAgent),
		WithHeaders(e.Headers),
		withClientLogger(e.logger),
	}
	client, err := newClient(append(clientOpts, e.clientOpts...)...)
	if err != nil {
		return nil, err
	}
	e.client = client

	if e.Delay > 0 {
		e.limiter = NewBucket(e.clock, 1, e.Delay, 1, 1)
	}

	return e, nil
}

// Spider returns the session to bind step definitions to.
func (e *Engine) Spider() *Spider {
	return NewSpider(e.Name, e.logger)
}

func (e *Engine) Logger() Logger {
	return e.logger
}

// Run crawls every start step concurrently and blocks until all requests and
// items are processed. The first step, callback or item pipeline error stops
// the run and is returned; failed fetches are logged and skipped.
func (e *Engine) Run(ctx context.Context, starts ...*StepFunc) error {
	e.logger.Info("Starting crawl", LogContext{"name": e.Name, "starts": len(starts)})

	p, err := newPipeline[interface{}](e.bufferSize, e.flows...)
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)

	itemStreams := make([]<-chan interface{}, len(starts))
	for i, start := range starts {
		items := make(chan interface{})
		itemStreams[i] = items

		eg.Go(func() error {
			defer close(items)
			return e.crawl(ctx, start, items)
		})
	}

	merged := FanIn(ctx.Done(), itemStreams...)
	eg.Go(func() error {
		defer close(p.in)
		for item := range merged {
			select {
			case <-ctx.Done():
				return nil
			case p.in <- item:
			}
		}
		return nil
	})

	p.execute(eg)

	eg.Go(func() error {
		for item := range p.out {
			if err := e.consume(item); err != nil {
				// keep draining so the flows can shut down
				go func() {
					for range p.out {
					}
				}()
				return err
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		e.logger.Error("Crawl stopped", LogContext{"name": e.Name, "err": err})
		return err
	}

	e.logger.Info("Crawl finished", LogContext{"name": e.Name})
	return nil
}

func (e *Engine) consume(item interface{}) error {
	if e.consumer == nil {
		e.logger.Debug("Item discarded, no consumer", LogContext{"item": item})
		return nil
	}
	return e.consumer(item)
}

// crawl runs one start step to completion, fetching its requests in FIFO order.
func (e *Engine) crawl(ctx context.Context, start *StepFunc, items chan<- interface{}) error {
	seq, err := start.Call()
	if err != nil {
		return fmt.Errorf("start %s: %w", start.Name(), err)
	}

	var queue []*Request
	seen := make(map[string]struct{})

	consume := func(seq Sequence) error {
		if seq == nil {
			return nil
		}
		for out, err := range seq {
			if err != nil {
				return err
			}

			switch out.Kind() {
			case RequestKind:
				req := out.Request()
				key := string(req.Method) + " " + req.URL + " " + string(req.Body)
				if _, dup := seen[key]; dup {
					e.logger.Debug("Skipping duplicate request", LogContext{"url": req.URL})
					continue
				}
				seen[key] = struct{}{}
				queue = append(queue, req)
			case ItemKind:
				select {
				case <-ctx.Done():
					return ctx.Err()
				case items <- out.Item():
				}
			default:
				return fmt.Errorf("%w: %s yielded by %s", ErrUnexpectedOutput, out.Kind(), start.Name())
			}
		}
		return nil
	}

	if err := consume(seq); err != nil {
		return err
	}

	for len(queue) > 0 {
		req := queue[0]
		queue[0] = nil
		queue = queue[1:]

		if err := ctx.Err(); err != nil {
			return err
		}

		if !e.isAllowed(req.URL) {
			e.logger.Warn("Request outside allowed domains", LogContext{"url": req.URL})
			continue
		}

		if err := e.throttle(ctx); err != nil {
			return err
		}

		resp, err := e.client.execute(ctx, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			e.logger.Error("Request failed", LogContext{"url": req.URL, "requestID": req.ID, "err": err})
			continue
		}
		e.logger.Info("Response received", LogContext{"url": req.URL, "status": resp.StatusCode})

		if req.Callback == nil {
			continue
		}

		next, err := req.Callback(resp)
		if err != nil {
			return err
		}
		if err := consume(next); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) throttle(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}

	for {
		ok, wait := e.limiter.Take(1)
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.clock.After(wait):
		}
	}
}

func (e *Engine) isAllowed(rawURL string) bool {
	if len(e.AllowedDomains) == 0 {
		return true
	}

	host := hostOf(rawURL)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	for _, domain := range e.AllowedDomains {
		domain = strings.ToLower(domain)
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
