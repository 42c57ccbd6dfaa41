package domain

import "testing"

func TestResolve(t *testing.T) {
	pools := testPools()
	pools = append(pools, PoolDescriptor{
		Name:        "doomed",
		PoolAddress: MustPublicKey("2HAXVu6KsgTzWxgKXXnEs7g8NKDarvXSQfYtG9cJa2uT"),
		RedirectURL: "https://example.org/doomed",
		Hidden:      true,
	}, PoolDescriptor{
		Name:             "gone",
		PoolAddress:      MustPublicKey("BRCNkzDJUeQEWV4hEwt4dX8qhMd4WYNonufwSYxbE91d"),
		HostnameOverride: "gone.example.org",
		RedirectURL:      "https://example.org/gone",
		NotFound:         true,
	})
	reg, err := NewRegistry(pools)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		name        string
		host        string
		key         string
		wantOutcome Outcome
		wantPool    string
		wantViaHost bool
	}{
		{name: "home", host: "stake.bascdao.net", wantOutcome: OutcomeHome},
		{name: "pool by name", host: "stake.bascdao.net", key: "basc", wantOutcome: OutcomePool, wantPool: "basc"},
		{name: "pool by address", key: addrBASC, wantOutcome: OutcomePool, wantPool: "basc"},
		{name: "hidden pool resolves", key: "abducted-basc", wantOutcome: OutcomePool, wantPool: "abducted-basc"},
		{name: "unknown name", key: "unknown", wantOutcome: OutcomeNotFound},
		{name: "notFound pool by name", key: "basc-senshi", wantOutcome: OutcomeNotFound},
		{name: "notFound beats redirect", key: "gone", wantOutcome: OutcomeNotFound},
		{name: "notFound via hostname", host: "gone.example.org", wantOutcome: OutcomeNotFound, wantViaHost: true},
		{name: "redirect", key: "doomed", wantOutcome: OutcomeRedirect, wantPool: "doomed"},
		{name: "hostname exact", host: "ai.bascdao.net", wantOutcome: OutcomePool, wantPool: "basc-ai", wantViaHost: true},
		{name: "hostname with port", host: "ai.bascdao.net:443", wantOutcome: OutcomePool, wantPool: "basc-ai", wantViaHost: true},
		{name: "hostname case mismatch", host: "AI.bascdao.net", wantOutcome: OutcomeHome},
		{name: "hostname partial", host: "bascdao.net", wantOutcome: OutcomeHome},
		{name: "hostname suffix", host: "x.ai.bascdao.net", wantOutcome: OutcomeHome},
		{name: "path beats hostname", host: "ai.bascdao.net", key: "basc", wantOutcome: OutcomePool, wantPool: "basc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(reg, tt.host, tt.key)
			if res.Outcome != tt.wantOutcome {
				t.Fatalf("Resolve(%q, %q) outcome = %s, want %s", tt.host, tt.key, res.Outcome, tt.wantOutcome)
			}
			if tt.wantPool != "" && res.Pool.Name != tt.wantPool {
				t.Errorf("Resolve(%q, %q) pool = %s, want %s", tt.host, tt.key, res.Pool.Name, tt.wantPool)
			}
			if res.ViaHostname != tt.wantViaHost {
				t.Errorf("Resolve(%q, %q) viaHostname = %v, want %v", tt.host, tt.key, res.ViaHostname, tt.wantViaHost)
			}
			if res.Outcome == OutcomeRedirect && res.RedirectURL == "" {
				t.Error("redirect outcome without URL")
			}
		})
	}
}

func TestResolveNilRegistry(t *testing.T) {
	if got := Resolve(nil, "x.com", "").Outcome; got != OutcomeHome {
		t.Errorf("Resolve(nil) home = %s", got)
	}
	if got := Resolve(nil, "x.com", "basc").Outcome; got != OutcomeNotFound {
		t.Errorf("Resolve(nil) key = %s", got)
	}
}
