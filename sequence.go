package venom

import "fmt"

type OutputKind uint8

const (
	RequestKind OutputKind = iota + 1
	ItemKind
	NestedKind
)

func (k OutputKind) String() string {
	switch k {
	case RequestKind:
		return "request"
	case ItemKind:
		return "item"
	case NestedKind:
		return "nested"
	default:
		return fmt.Sprintf("OutputKind(%d)", uint8(k))
	}
}

// Output is a single element produced by a step: a request to schedule,
// an item to persist, or a nested sequence to be spliced in.
type Output struct {
	kind    OutputKind
	request *Request
	item    interface{}
	nested  Sequence
}

func RequestOutput(req *Request) Output {
	return Output{kind: RequestKind, request: req}
}

func ItemOutput(item interface{}) Output {
	return Output{kind: ItemKind, item: item}
}

func NestedOutput(seq Sequence) Output {
	return Output{kind: NestedKind, nested: seq}
}

func (o Output) Kind() OutputKind {
	return o.kind
}

func (o Output) Request() *Request {
	return o.request
}

func (o Output) Item() interface{} {
	return o.item
}

func (o Output) Nested() Sequence {
	return o.nested
}

// Sequence is a lazy stream of outputs. A non-nil error ends the stream.
type Sequence func(yield func(Output, error) bool)

// Of returns a sequence yielding outputs in order.
func Of(outputs ...Output) Sequence {
	return func(yield func(Output, error) bool) {
		for _, out := range outputs {
			if !yield(out, nil) {
				return
			}
		}
	}
}

func Empty() Sequence {
	return func(yield func(Output, error) bool) {}
}

// Fail returns a sequence whose only element is err.
func Fail(err error) Sequence {
	return func(yield func(Output, error) bool) {
		yield(Output{}, err)
	}
}

// Nested wraps the result of a step call so it can be yielded from Crawl.
// A call error becomes the first and only element of the nested sequence.
func Nested(seq Sequence, err error) Output {
	if err != nil {
		return NestedOutput(Fail(err))
	}
	return NestedOutput(seq)
}

// Collect drains the sequence, stopping at the first error.
func (s Sequence) Collect() ([]Output, error) {
	var outputs []Output
	if s == nil {
		return outputs, nil
	}
	for out, err := range s {
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// flatten splices the elements of nested sequences into the outer one.
// Only one level is unwrapped: elements of a nested sequence are yielded
// as they are, even when they are nested sequences themselves.
func flatten(seq Sequence) Sequence {
	if seq == nil {
		return Empty()
	}

	return func(yield func(Output, error) bool) {
		for out, err := range seq {
			if err != nil {
				yield(Output{}, err)
				return
			}

			if out.kind != NestedKind {
				if !yield(out, nil) {
					return
				}
				continue
			}

			if out.nested == nil {
				continue
			}
			for inner, err := range out.nested {
				if err != nil {
					yield(Output{}, err)
					return
				}
				if !yield(inner, nil) {
					return
				}
			}
		}
	}
}
