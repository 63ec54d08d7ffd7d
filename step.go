package venom

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Callback receives the response of a scheduled request and resumes a step.
type Callback func(resp *Response) (Sequence, error)

// Step is implemented by pointer types embedding Base.
type Step interface {
	Crawl(args ...interface{}) (Sequence, error)
	stepBase() *Base
}

// InitRequester is implemented by steps that must fetch a page before crawling.
// The returned request should resume the step through Base.CrawlCallback.
type InitRequester interface {
	InitRequest() (*Request, error)
}

// Validator is run once the overrides have been applied to a new instance.
type Validator interface {
	Validate() error
}

type (
	httpValidator interface {
		validateHTTP() error
	}
	requestSourceBinder interface {
		bindRequestSource(self interface{})
	}
	itemStagesBinder interface {
		bindItemStages(self interface{})
	}
)

// Spider is the session shared, read-only, by every step of a crawl.
type Spider struct {
	Name   string
	logger Logger
}

func NewSpider(name string, logger Logger) *Spider {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Spider{
		Name:   name,
		logger: logger,
	}
}

func (s *Spider) Logger() Logger {
	if s == nil || s.logger == nil {
		return nopLogger{}
	}
	return s.logger
}

// Definition describes a step type. New must return a fresh instance holding
// the type's defaults on every call.
type Definition struct {
	Name string
	Doc  string
	Next *Definition
	New  func() Step
}

// AsFunc binds the definition to a spider, a parent and configuration overrides.
// Nothing is validated until the returned function is called.
func (d *Definition) AsFunc(spider *Spider, parent Step, fields Fields) *StepFunc {
	return &StepFunc{
		def:    d,
		spider: spider,
		parent: parent,
		fields: fields,
	}
}

// Fields lists the configuration names accepted by the step type.
func (d *Definition) Fields() []string {
	if d.New == nil {
		return nil
	}
	return schemaOf(reflect.TypeOf(d.New()).Elem()).names()
}

func (d *Definition) String() string {
	return d.Name
}

func (d *Definition) instantiate(spider *Spider, parent Step, fields Fields) (Step, error) {
	if d.New == nil {
		return nil, newArgumentError("", "step %s has no constructor", d.Name)
	}

	inst := d.New()
	b := inst.stepBase()
	b.id = uuid.NewString()
	b.def = d
	b.spider = spider
	b.parent = parent
	b.self = inst
	b.Next = d.Next

	if err := applyFields(inst, fields); err != nil {
		return nil, err
	}

	if binder, ok := inst.(requestSourceBinder); ok {
		binder.bindRequestSource(inst)
	}
	if binder, ok := inst.(itemStagesBinder); ok {
		binder.bindItemStages(inst)
	}

	if v, ok := inst.(httpValidator); ok {
		if err := v.validateHTTP(); err != nil {
			return nil, err
		}
	}
	if v, ok := inst.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	b.Logger().Debug("Step instantiated", LogContext{"fields": len(fields)})
	return inst, nil
}

// StepFunc is the callable form of a Definition. Every call builds a new instance.
type StepFunc struct {
	def    *Definition
	spider *Spider
	parent Step
	fields Fields
}

func (f *StepFunc) Name() string {
	return f.def.Name
}

func (f *StepFunc) Doc() string {
	return f.def.Doc
}

func (f *StepFunc) Definition() *Definition {
	return f.def
}

func (f *StepFunc) String() string {
	return fmt.Sprintf("step(%s)", f.def.Name)
}

// Call instantiates the step and returns its output. Construction errors and
// a missing Crawl implementation are returned before any output exists.
func (f *StepFunc) Call(args ...interface{}) (Sequence, error) {
	inst, err := f.def.instantiate(f.spider, f.parent, f.fields)
	if err != nil {
		return nil, err
	}

	if ir, ok := inst.(InitRequester); ok {
		req, err := ir.InitRequest()
		if err != nil {
			return nil, err
		}
		return Of(RequestOutput(req)), nil
	}

	return inst.stepBase().crawl(args...)
}

// Base carries the per-instance state every step shares. Embed it by value.
type Base struct {
	Next *Definition `step:"next_step"`

	id     string
	def    *Definition
	spider *Spider
	parent Step
	self   Step
	logger Logger
}

func (b *Base) stepBase() *Base {
	return b
}

// Crawl must be provided by concrete steps.
func (b *Base) Crawl(args ...interface{}) (Sequence, error) {
	return nil, fmt.Errorf("%w: %s must implement Crawl", ErrNotImplemented, b.name())
}

func (b *Base) ID() string {
	return b.id
}

func (b *Base) Spider() *Spider {
	return b.spider
}

// Parent returns the step that called this one, or nil for a start step.
func (b *Base) Parent() Step {
	return b.parent
}

func (b *Base) Logger() Logger {
	if b.logger == nil {
		b.logger = withScope(b.spider.Logger(), LogContext{"step": b.name(), "stepID": b.id})
	}
	return b.logger
}

// CrawlCallback resumes this very instance with the response it receives.
func (b *Base) CrawlCallback() Callback {
	return func(resp *Response) (Sequence, error) {
		return b.crawl(resp)
	}
}

func (b *Base) NextStep() (*StepFunc, error) {
	return b.nextStep(nil)
}

func (b *Base) CallNextStep(args ...interface{}) (Sequence, error) {
	return b.CallNextStepWith(nil, args...)
}

// CallNextStepWith calls the next step with configuration overrides.
func (b *Base) CallNextStepWith(fields Fields, args ...interface{}) (Sequence, error) {
	next, err := b.nextStep(fields)
	if err != nil {
		return nil, err
	}
	return next.Call(args...)
}

func (b *Base) nextStep(fields Fields) (*StepFunc, error) {
	if b.Next == nil {
		return nil, newArgumentError("next_step", "%s has no next step", b.name())
	}
	return b.Next.AsFunc(b.spider, b.self, fields), nil
}

func (b *Base) crawl(args ...interface{}) (Sequence, error) {
	self := b.self
	if self == nil {
		self = b
	}

	seq, err := self.Crawl(args...)
	if err != nil {
		return nil, err
	}
	return flatten(seq), nil
}

func (b *Base) name() string {
	if b.def != nil {
		return b.def.Name
	}
	return "step"
}
