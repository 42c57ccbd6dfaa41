package domain

import (
	"errors"
	"strings"
	"testing"
)

const (
	addrBASC     = "6qfbKwV8Tu1RsUc7R4U6aXPsvRarUm4JhRyuihSueLvH"
	addrAbducted = "A3fzMcAvbU4sPfXJfahyjdt3fA5UrvxQZ1VYt32jodrD"
	addrAI       = "3NEDUE4qM2cfMJ3FEkuH4XSuRjfQJv3Fx2nEXw8DHKu4"
	addrSenshi   = "2bg1xs3SA6tYTCf1CgrJdeh8cf4o9MExUhvQ4xrDBN5Q"
)

func testPools() []PoolDescriptor {
	return []PoolDescriptor{
		{Name: "basc", DisplayName: "Bored Ape Solana Club", PoolAddress: MustPublicKey(addrBASC), MaxStaked: Int64(6002)},
		{Name: "abducted-basc", DisplayName: "Abducted BASC", PoolAddress: MustPublicKey(addrAbducted), Hidden: true},
		{Name: "basc-ai", DisplayName: "BASC x AI", PoolAddress: MustPublicKey(addrAI), HostnameOverride: "ai.bascdao.net"},
		{Name: "basc-senshi", DisplayName: "BASC x Senshi", PoolAddress: MustPublicKey(addrSenshi), NotFound: true},
	}
}

func TestNewRegistryPreservesOrder(t *testing.T) {
	reg, err := NewRegistry(testPools())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	want := []string{"basc", "abducted-basc", "basc-ai", "basc-senshi"}
	got := reg.All()
	if len(got) != len(want) {
		t.Fatalf("All() returned %d pools, want %d", len(got), len(want))
	}
	for i, d := range got {
		if d.Name != want[i] {
			t.Errorf("All()[%d] = %s, want %s", i, d.Name, want[i])
		}
	}
}

func TestNewRegistryCopiesInput(t *testing.T) {
	pools := testPools()
	reg, err := NewRegistry(pools)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	pools[0].Name = "mutated"

	if _, ok := reg.ByName("basc"); !ok {
		t.Error("registry should not observe mutations of the input slice")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func([]PoolDescriptor) []PoolDescriptor
		wantErr   string
		wantWarns int
	}{
		{
			name:   "valid registry",
			mutate: func(p []PoolDescriptor) []PoolDescriptor { return p },
		},
		{
			name: "duplicate name",
			mutate: func(p []PoolDescriptor) []PoolDescriptor {
				p[1].Name = "basc"
				return p
			},
			wantErr: "field name: duplicates entry #0",
		},
		{
			name: "duplicate address",
			mutate: func(p []PoolDescriptor) []PoolDescriptor {
				p[2].PoolAddress = p[0].PoolAddress
				return p
			},
			wantErr: "field poolAddress",
		},
		{
			name: "missing address",
			mutate: func(p []PoolDescriptor) []PoolDescriptor {
				p[0].PoolAddress = PublicKey{}
				return p
			},
			wantErr: "field poolAddress: is required",
		},
		{
			name: "zero max staked",
			mutate: func(p []PoolDescriptor) []PoolDescriptor {
				p[0].MaxStaked = Int64(0)
				return p
			},
			wantErr: "maxStaked: must be > 0",
		},
		{
			name: "negative max staked",
			mutate: func(p []PoolDescriptor) []PoolDescriptor {
				p[0].MaxStaked = Int64(-5)
				return p
			},
			wantErr: "maxStaked: must be > 0",
		},
		{
			name: "name not url safe",
			mutate: func(p []PoolDescriptor) []PoolDescriptor {
				p[0].Name = "bored apes"
				return p
			},
			wantErr: "not URL-safe",
		},
		{
			name: "name reserved by a route",
			mutate: func(p []PoolDescriptor) []PoolDescriptor {
				p[0].Name = "healthz"
				return p
			},
			wantErr: "reserved by a fixed route",
		},
		{
			name: "reserved name in another case",
			mutate: func(p []PoolDescriptor) []PoolDescriptor {
				p[0].Name = "API"
				return p
			},
			wantErr: "reserved by a fixed route",
		},
		{
			name: "duplicate hostname",
			mutate: func(p []PoolDescriptor) []PoolDescriptor {
				p[0].HostnameOverride = "ai.bascdao.net"
				return p
			},
			wantErr: "field hostname",
		},
		{
			name: "unknown analytic kind",
			mutate: func(p []PoolDescriptor) []PoolDescriptor {
				p[0].Analytics = []Analytic{{MetadataKey: "trait", Kind: "burned"}}
				return p
			},
			wantErr: "unsupported kind",
		},
		{
			name: "uppercase name is a warning",
			mutate: func(p []PoolDescriptor) []PoolDescriptor {
				p[0].Name = "BASC"
				return p
			},
			wantWarns: 1,
		},
		{
			name: "listed redirect is a warning",
			mutate: func(p []PoolDescriptor) []PoolDescriptor {
				p[0].RedirectURL = "https://bascdao.net"
				return p
			},
			wantWarns: 1,
		},
		{
			name: "hidden redirect is fine",
			mutate: func(p []PoolDescriptor) []PoolDescriptor {
				p[1].RedirectURL = "https://bascdao.net"
				return p
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warns, err := Validate(tt.mutate(testPools()))

			if tt.wantErr == "" && err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
			if tt.wantErr != "" {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("Validate() error = %v, want *ValidationError", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.wantErr)
				}
			}
			if len(warns) != tt.wantWarns {
				t.Errorf("Validate() warnings = %v, want %d", warns, tt.wantWarns)
			}
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	pools := testPools()
	pools[0].MaxStaked = Int64(0)
	pools[1].Name = "basc"
	pools[3].PoolAddress = pools[2].PoolAddress

	_, err := Validate(pools)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	if len(verr.Problems) != 3 {
		t.Errorf("Validate() reported %d problems, want 3: %v", len(verr.Problems), verr.Problems)
	}
}

func TestRegistryUniqueness(t *testing.T) {
	reg, err := NewRegistry(testPools())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	names := map[string]bool{}
	addrs := map[PublicKey]bool{}
	for _, d := range reg.All() {
		if names[d.Name] {
			t.Errorf("duplicate name %s", d.Name)
		}
		if addrs[d.PoolAddress] {
			t.Errorf("duplicate address %s", d.PoolAddress)
		}
		names[d.Name] = true
		addrs[d.PoolAddress] = true
	}
}

func TestRegistryFind(t *testing.T) {
	reg, err := NewRegistry(testPools())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		name     string
		key      string
		wantName string
		wantErr  error
	}{
		{name: "by name", key: "basc", wantName: "basc"},
		{name: "by address", key: addrAI, wantName: "basc-ai"},
		{name: "hidden still resolvable", key: "abducted-basc", wantName: "abducted-basc"},
		{name: "not found by name", key: "basc-senshi", wantErr: ErrPoolNotFound},
		{name: "not found by address", key: addrSenshi, wantErr: ErrPoolNotFound},
		{name: "unknown", key: "nope", wantErr: ErrPoolNotFound},
		{name: "name is case sensitive", key: "BASC", wantErr: ErrPoolNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := reg.Find(tt.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Find(%q) error = %v, want %v", tt.key, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Find(%q) error = %v", tt.key, err)
			}
			if d.Name != tt.wantName {
				t.Errorf("Find(%q) = %s, want %s", tt.key, d.Name, tt.wantName)
			}
		})
	}
}

func TestStripPort(t *testing.T) {
	tests := map[string]string{
		"x.com":          "x.com",
		"x.com:8443":     "x.com",
		"127.0.0.1:8080": "127.0.0.1",
		"[::1]:8080":     "::1",
		"":               "",
	}
	for in, want := range tests {
		if got := StripPort(in); got != want {
			t.Errorf("StripPort(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParsePublicKey(t *testing.T) {
	k, err := ParsePublicKey(addrBASC)
	if err != nil {
		t.Fatalf("ParsePublicKey() error = %v", err)
	}
	if k.String() != addrBASC {
		t.Errorf("String() = %s, want %s", k.String(), addrBASC)
	}

	for _, bad := range []string{"", "0OIl", "abc", addrBASC + "1"} {
		if _, err := ParsePublicKey(bad); err == nil {
			t.Errorf("ParsePublicKey(%q) should fail", bad)
		}
	}

	if !(PublicKey{}).IsZero() {
		t.Error("zero key should report IsZero")
	}
	if (PublicKey{}).String() != "11111111111111111111111111111111" {
		t.Errorf("zero key = %s", PublicKey{}.String())
	}
}
