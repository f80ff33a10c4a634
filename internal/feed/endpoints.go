package feed

// Public XRPL cluster endpoints. The full-history clusters serve both
// book snapshots and subscription streams.
const (
	EndpointXRPLF     = "wss://xrplcluster.com/"
	EndpointRippleS1  = "wss://s1.ripple.com/"
	EndpointRippleS2  = "wss://s2.ripple.com/"
	EndpointSologenic = "wss://x1.sologenic.org/"
)

// DefaultEndpoints is the endpoint pool connections are spread over when
// the configuration names none.
func DefaultEndpoints() []string {
	return []string{
		EndpointXRPLF,
		EndpointRippleS1,
		EndpointRippleS2,
		EndpointSologenic,
	}
}
