// Package spider holds the two-step listing/detail spider driven by a YAML file.
package spider

import (
	"fmt"
	"strings"

	"github.com/ShroXd/venom"
)

// Config describes a listing page whose links lead to detail pages
// holding one item each.
type Config struct {
	StartURL string            `yaml:"start_url"`
	Method   string            `yaml:"method"`
	Payload  map[string]string `yaml:"payload"`
	Headers  map[string]string `yaml:"headers"`
	Cookies  map[string]string `yaml:"cookies"`
	// Links selects the detail links on the listing page, e.g. "a.item@href".
	Links string `yaml:"links"`
	// Fields maps item fields to CSS selectors on the detail page.
	Fields map[string]string `yaml:"fields"`
	// JSONFields maps item fields to gjson paths, for JSON detail pages.
	JSONFields map[string]string `yaml:"json_fields"`
}

func (c *Config) Validate() error {
	if c.StartURL == "" {
		return fmt.Errorf("spider.start_url is required")
	}
	if c.Links == "" {
		return fmt.Errorf("spider.links is required")
	}
	if len(c.Fields) > 0 && len(c.JSONFields) > 0 {
		return fmt.Errorf("spider.fields and spider.json_fields are mutually exclusive")
	}
	return nil
}

func (c *Config) Extractor() venom.Extractor {
	if len(c.JSONFields) > 0 {
		return venom.JSONExtractor(c.JSONFields)
	}
	if len(c.Fields) > 0 {
		return venom.SelectorExtractor(c.Fields)
	}
	return nil
}

// StartFields are the overrides of the listing step.
func (c *Config) StartFields() venom.Fields {
	fields := venom.Fields{
		"initial_url": c.StartURL,
		"links":       c.Links,
	}
	if c.Method != "" {
		fields["http_method"] = strings.ToUpper(c.Method)
	}
	if len(c.Payload) > 0 {
		fields["payload"] = c.Payload
	}
	if len(c.Headers) > 0 {
		fields["headers"] = c.Headers
	}
	if len(c.Cookies) > 0 {
		fields["cookies"] = c.Cookies
	}
	return fields
}

type listingStep struct {
	venom.InitStep

	Links string `step:"links"`
}

func (s *listingStep) Validate() error {
	if err := s.InitStep.Validate(); err != nil {
		return err
	}
	if s.Links == "" {
		return fmt.Errorf("%w: links selector is empty", venom.ErrInvalidArgument)
	}
	return nil
}

func (s *listingStep) Crawl(args ...interface{}) (venom.Sequence, error) {
	resp, err := responseArg(args)
	if err != nil {
		return nil, err
	}

	doc := resp.Document()
	if doc == nil {
		return venom.Empty(), nil
	}
	links := venom.SelectAll(doc, s.Links)
	s.Logger().Debug("Links found", venom.LogContext{"url": resp.Request.URL, "count": len(links)})

	return func(yield func(venom.Output, error) bool) {
		for _, href := range links {
			next := venom.Nested(s.CallNextStepWith(venom.Fields{"initial_url": resp.AbsoluteURL(href)}))
			if !yield(next, nil) {
				return
			}
		}
	}, nil
}

type detailStep struct {
	venom.InitStep
	venom.ItemMixin[map[string]interface{}]
}

func (s *detailStep) Crawl(args ...interface{}) (venom.Sequence, error) {
	resp, err := responseArg(args)
	if err != nil {
		return nil, err
	}

	item, err := s.ProcessItem(resp)
	if err != nil {
		return nil, fmt.Errorf("item from %s: %w", resp.Request.URL, err)
	}
	if item == nil {
		item = map[string]interface{}{}
	}
	item["url"] = resp.Request.URL

	return venom.Of(venom.ItemOutput(item)), nil
}

func responseArg(args []interface{}) (*venom.Response, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: expected a response argument", venom.ErrInvalidArgument)
	}
	resp, ok := args[0].(*venom.Response)
	if !ok {
		return nil, fmt.Errorf("%w: expected *venom.Response, got %T", venom.ErrInvalidArgument, args[0])
	}
	return resp, nil
}

// NewDefinitions returns the listing definition chained to the detail one.
func NewDefinitions(c *Config) *venom.Definition {
	extractor := c.Extractor()

	detail := &venom.Definition{
		Name: "detail",
		Doc:  "Fetches a detail page and builds one item from it.",
		New: func() venom.Step {
			s := &detailStep{InitStep: venom.NewInitStep()}
			s.Extractor = extractor
			return s
		},
	}

	return &venom.Definition{
		Name: "listing",
		Doc:  "Fetches the start page and follows every link to the detail step.",
		Next: detail,
		New: func() venom.Step {
			return &listingStep{InitStep: venom.NewInitStep()}
		},
	}
}
