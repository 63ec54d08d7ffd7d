package venom

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// pipeline chains flows: items sent to in leave, transformed, through out.
type pipeline[T any] struct {
	stages []*flow[T]
	in     chan<- T
	out    <-chan T
}

func newPipeline[T any](bufferSize uint, stageDefs ...FlowDef[T]) (*pipeline[T], error) {
	p := &pipeline[T]{}

	p.stages = make([]*flow[T], len(stageDefs))
	for idx, stageDef := range stageDefs {
		stage, err := stageDef()
		if err != nil {
			return nil, err
		}
		p.stages[idx] = stage
	}

	out := make(chan T, bufferSize)
	p.out = out

	if len(p.stages) == 0 {
		p.in = out
		return p, nil
	}

	p.in = p.stages[0].inCh
	lastStage := p.stages[0]
	for _, stage := range p.stages[1:] {
		lastStage.outCh = stage.inCh
		lastStage = stage
	}
	lastStage.outCh = out

	return p, nil
}

func (p *pipeline[T]) execute(eg *errgroup.Group) {
	for _, stage := range p.stages {
		execute(eg, stage)
	}
}

type executor interface {
	execute() error
	outputChannelCloser() func()
	exhaustInputChannel()
	concurrency() uint
}

// execute runs the executor's workers and closes its output once all of them are done.
func execute(eg *errgroup.Group, executor executor) {
	outputChannelCloser := executor.outputChannelCloser()
	workers := executor.concurrency()

	var wg sync.WaitGroup
	wg.Add(int(workers))
	for i := uint(0); i < workers; i++ {
		eg.Go(func() error {
			defer wg.Done()
			err := executor.execute()
			executor.exhaustInputChannel()

			return err
		})
	}

	eg.Go(func() error {
		wg.Wait()
		outputChannelCloser()
		return nil
	})
}
