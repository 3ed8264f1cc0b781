package virtualmerchant

import "time"

// Gateway endpoints
const (
	SandboxEndpoint    = "https://demo.myvirtualmerchant.com/VirtualMerchantDemo/processxml.do"
	ProductionEndpoint = "https://www.myvirtualmerchant.com/VirtualMerchant/processxml.do"
)

// Config contains configuration for the VirtualMerchant adapter
type Config struct {
	// Endpoint receives every transaction. Set once at construction.
	// Sandbox: https://demo.myvirtualmerchant.com/VirtualMerchantDemo/processxml.do
	// Production: https://www.myvirtualmerchant.com/VirtualMerchant/processxml.do
	Endpoint string

	// Sandbox marks the demo environment
	Sandbox bool

	// HTTP client timeout
	Timeout time.Duration

	// Breaker configures the transport circuit breaker
	Breaker BreakerConfig

	// MaxResponseBytes caps a response body (default DefaultMaxResponseBytes)
	MaxResponseBytes int64
}

// DefaultConfig returns the configuration for the sandbox or production gateway
func DefaultConfig(sandbox bool) *Config {
	endpoint := ProductionEndpoint
	if sandbox {
		endpoint = SandboxEndpoint
	}

	return &Config{
		Endpoint:         endpoint,
		Sandbox:          sandbox,
		Timeout:          60 * time.Second,
		Breaker:          DefaultBreakerConfig(),
		MaxResponseBytes: DefaultMaxResponseBytes,
	}
}

// EndpointFor picks the endpoint: an explicit override wins, otherwise sandbox or production
func EndpointFor(sandbox bool, override string) string {
	if override != "" {
		return override
	}
	return DefaultConfig(sandbox).Endpoint
}
