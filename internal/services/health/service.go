package health

// Status is the readiness payload.
type Status struct {
	OK       bool   `json:"ok"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Service reports which model provider the process is configured for.
type Service struct {
	provider string
	model    string
}

// NewService constructs a new health service.
func NewService(provider, model string) *Service {
	return &Service{provider: provider, model: model}
}

// Status returns the health payload. It never contacts the provider.
func (s *Service) Status() Status {
	return Status{OK: true, Provider: s.provider, Model: s.model}
}
