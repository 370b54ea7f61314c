package llm

import (
	"fmt"

	"flowforge/internal/config"
	"flowforge/internal/port"
)

// ProviderFactory creates an LLMGateway from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.LLMGateway, error)

// registry of provider factories, populated via RegisterProvider at startup.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewGateway creates an LLMGateway from a provider config using the registered factory.
func NewGateway(cfg *config.ProviderConfig) (port.LLMGateway, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewFromConfig builds the configured provider chain. Secondary and tertiary
// providers, when present, sit behind a FallbackGateway; a positive
// RequestsPerSecond wraps the result in a ThrottledGateway.
func NewFromConfig(cfg *config.LLMConfig) (port.LLMGateway, error) {
	slots := []*config.ProviderConfig{cfg.PrimaryConfig(), cfg.SecondaryConfig(), cfg.TertiaryConfig()}

	var gateways []port.LLMGateway
	var names []string
	for _, pc := range slots {
		if pc == nil {
			continue
		}
		gw, err := NewGateway(pc)
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, Instrument(pc.Provider, gw))
		names = append(names, pc.Provider)
	}

	var gw port.LLMGateway
	if len(gateways) == 1 {
		gw = gateways[0]
	} else {
		gw = NewFallbackGateway(gateways, names)
	}

	if cfg.RequestsPerSecond > 0 {
		gw = NewThrottledGateway(gw, cfg.RequestsPerSecond, cfg.Burst)
	}
	return gw, nil
}
