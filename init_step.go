package venom

// InitStep requests InitialURL before crawling; its Crawl receives the response.
// Steps embedding it and declaring their own Validate must call InitStep.Validate.
type InitStep struct {
	Base
	HTTPMixin

	InitialURL string `step:"initial_url"`
}

func NewInitStep() InitStep {
	return InitStep{HTTPMixin: NewHTTPMixin()}
}

func (s *InitStep) Validate() error {
	if s.InitialURL == "" {
		return newArgumentError("initial_url", "an initial_url or GetRequestURL() is required")
	}
	return nil
}

func (s *InitStep) GetRequestURL() string {
	return s.InitialURL
}

func (s *InitStep) InitRequest() (*Request, error) {
	return s.Dispatch(s.CrawlCallback())
}
