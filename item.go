package venom

import (
	"github.com/go-viper/mapstructure/v2"
)

// ItemStages are the three overridable stages of ProcessItem.
type ItemStages[T any] interface {
	ExtractItem(resp *Response) (map[string]interface{}, error)
	CleanItem(extraction map[string]interface{}) (map[string]interface{}, error)
	BuildItem(cleaned map[string]interface{}) (T, error)
}

type ItemFactory[T any] func(cleaned map[string]interface{}) (T, error)

// ItemMixin turns a response into a T: extract, clean, build.
type ItemMixin[T any] struct {
	Extractor Extractor      `step:"extractor"`
	Factory   ItemFactory[T] `step:"item_factory"`

	stages ItemStages[T]
}

func (m *ItemMixin[T]) bindItemStages(self interface{}) {
	if s, ok := self.(ItemStages[T]); ok {
		m.stages = s
	}
}

func (m *ItemMixin[T]) ExtractItem(resp *Response) (map[string]interface{}, error) {
	if m.Extractor != nil {
		return m.Extractor.Extract(resp)
	}
	return resp.Extract()
}

func (m *ItemMixin[T]) CleanItem(extraction map[string]interface{}) (map[string]interface{}, error) {
	if len(extraction) == 0 {
		return map[string]interface{}{}, nil
	}
	return extraction, nil
}

// BuildItem decodes cleaned into a new T unless a Factory is configured.
// Keys without a matching field are an error.
func (m *ItemMixin[T]) BuildItem(cleaned map[string]interface{}) (T, error) {
	if m.Factory != nil {
		return m.Factory(cleaned)
	}

	var item T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "item",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &item,
	})
	if err != nil {
		return item, err
	}

	if err := decoder.Decode(cleaned); err != nil {
		var zero T
		return zero, err
	}
	return item, nil
}

func (m *ItemMixin[T]) ProcessItem(resp *Response) (T, error) {
	var zero T

	stages := m.stages
	if stages == nil {
		stages = m
	}

	extraction, err := stages.ExtractItem(resp)
	if err != nil {
		return zero, err
	}

	cleaned, err := stages.CleanItem(extraction)
	if err != nil {
		return zero, err
	}
	if cleaned == nil {
		cleaned = map[string]interface{}{}
	}

	return stages.BuildItem(cleaned)
}
