package venom

import "errors"

// ErrDropItem returned by a flow discards the item without failing the run.
var ErrDropItem = errors.New("drop item")

type stageOptions struct {
	name            string
	concurrency     uint
	inputBufferSize uint
}

type StageOptionFn func(so *stageOptions) error

func buildStageOptions(optFns []StageOptionFn) (*stageOptions, error) {
	so := &stageOptions{concurrency: 1}
	for _, optFn := range optFns {
		if err := optFn(so); err != nil {
			return nil, err
		}
	}
	return so, nil
}

func Name(name string) StageOptionFn {
	return func(so *stageOptions) error {
		so.name = name
		return nil
	}
}

func InputBufferSize(size uint) StageOptionFn {
	return func(so *stageOptions) error {
		if size < 1 {
			return errInvalidInputBufferSize
		}
		so.inputBufferSize = size
		return nil
	}
}

func Concurrency(n uint) StageOptionFn {
	return func(so *stageOptions) error {
		if n < 1 {
			return errInvalidConcurrency
		}
		so.concurrency = n
		return nil
	}
}

type commonStage[T any] struct {
	opts  *stageOptions
	inCh  chan T
	outCh chan<- T
}

func (cs commonStage[T]) outputChannelCloser() func() {
	return func() {
		close(cs.outCh)
	}
}

func (cs commonStage[T]) exhaustInputChannel() {
	for range cs.inCh {
	}
}

func (cs commonStage[T]) concurrency() uint {
	return cs.opts.concurrency
}

type FlowFn[T any] func(in T) (out T, err error)
type FlowDef[T any] func() (*flow[T], error)

type flow[T any] struct {
	commonStage[T]
	fn FlowFn[T]
}

func buildFlow[T any](fn FlowFn[T], opts *stageOptions) *flow[T] {
	return &flow[T]{
		commonStage: commonStage[T]{
			opts: opts,
			inCh: make(chan T, opts.inputBufferSize),
		},
		fn: fn,
	}
}

// NewFlow defines an item pipeline stage that maps every item through fn.
func NewFlow[T any](fn FlowFn[T], optFns ...StageOptionFn) FlowDef[T] {
	return func() (*flow[T], error) {
		opts, err := buildStageOptions(optFns)
		if err != nil {
			return nil, err
		}

		return buildFlow[T](fn, opts), nil
	}
}

func (s *flow[T]) executeOnce() (ok bool, err error) {
	var in, out T
	in, ok = <-s.inCh
	if !ok {
		return false, nil
	}
	out, err = s.fn(in)
	if errors.Is(err, ErrDropItem) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	s.outCh <- out
	return ok, err
}

func (s *flow[T]) execute() error {
	ok, err := s.executeOnce()
	for ok && err == nil {
		ok, err = s.executeOnce()
	}

	return err
}
