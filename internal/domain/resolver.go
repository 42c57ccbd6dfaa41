package domain

// Outcome is what a request for a pool page resolves to.
type Outcome int

const (
	// OutcomeHome renders the collection listing with site branding.
	OutcomeHome Outcome = iota
	// OutcomePool renders a pool page.
	OutcomePool
	// OutcomeRedirect sends the visitor to the pool's external redirect URL.
	OutcomeRedirect
	// OutcomeNotFound renders the generic not found page.
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHome:
		return "home"
	case OutcomePool:
		return "pool"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Resolution is the result of Resolve.
type Resolution struct {
	Outcome     Outcome
	Pool        PoolDescriptor
	RedirectURL string
	// ViaHostname is true when the pool was selected by a hostname override.
	ViaHostname bool
}

// Resolve maps a request (Host header and optional path key) to an outcome.
//
// A non-empty key is looked up by name, then by base58 pool address; no match
// is OutcomeNotFound. An empty key tries the host against hostname overrides
// and falls back to OutcomeHome.
//
// Precedence on a matched pool: notFound, then redirect, then the pool page.
// hidden never affects resolution.
func Resolve(reg *Registry, host, key string) Resolution {
	if reg == nil {
		if key == "" {
			return Resolution{Outcome: OutcomeHome}
		}
		return Resolution{Outcome: OutcomeNotFound}
	}

	if key != "" {
		d, ok := reg.ByName(key)
		if !ok {
			if addr, err := ParsePublicKey(key); err == nil {
				d, ok = reg.ByAddress(addr)
			}
		}
		if !ok {
			return Resolution{Outcome: OutcomeNotFound}
		}
		return decide(d, false)
	}

	if d, ok := reg.ByHostname(host); ok {
		return decide(d, true)
	}
	return Resolution{Outcome: OutcomeHome}
}

func decide(d PoolDescriptor, viaHost bool) Resolution {
	switch {
	case d.NotFound:
		return Resolution{Outcome: OutcomeNotFound, ViaHostname: viaHost}
	case d.RedirectURL != "":
		return Resolution{Outcome: OutcomeRedirect, Pool: d, RedirectURL: d.RedirectURL, ViaHostname: viaHost}
	default:
		return Resolution{Outcome: OutcomePool, Pool: d, ViaHostname: viaHost}
	}
}
