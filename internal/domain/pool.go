package domain

import (
	"fmt"
	"strings"
)

// DefaultSecondaryColor is used whenever a pool does not define its own secondary color.
const DefaultSecondaryColor = "rgba(29, 78, 216, 255)"

// ReceiptKind pins how a stake is acknowledged. The zero value means "not pinned":
// the user may choose.
type ReceiptKind int

const (
	ReceiptUnset    ReceiptKind = 0
	ReceiptOriginal ReceiptKind = 1 // original token held in custody
	ReceiptReceipt  ReceiptKind = 2 // a separate receipt token is minted to the user
	ReceiptNone     ReceiptKind = 3
)

var receiptKindNames = map[ReceiptKind]string{
	ReceiptOriginal: "original",
	ReceiptReceipt:  "receipt",
	ReceiptNone:     "none",
}

func (k ReceiptKind) String() string {
	if n, ok := receiptKindNames[k]; ok {
		return n
	}
	if k == ReceiptUnset {
		return ""
	}
	return fmt.Sprintf("ReceiptKind(%d)", int(k))
}

func (k ReceiptKind) Valid() bool {
	_, ok := receiptKindNames[k]
	return ok || k == ReceiptUnset
}

// ParseReceiptKind accepts the lowercase names used in registry files.
// An empty string yields ReceiptUnset.
func ParseReceiptKind(s string) (ReceiptKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ReceiptUnset, nil
	}
	for k, n := range receiptKindNames {
		if n == s {
			return k, nil
		}
	}
	return ReceiptUnset, fmt.Errorf("unknown receipt kind %q", s)
}

func (k ReceiptKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ReceiptKind) UnmarshalText(text []byte) error {
	parsed, err := ParseReceiptKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// TokenStandard restricts which token kinds a pool accepts. Zero means unrestricted.
type TokenStandard int

const (
	StandardUnset       TokenStandard = 0
	StandardFungible    TokenStandard = 1 // quantity based, more than one per mint
	StandardNonFungible TokenStandard = 2 // every token unique
	StandardNone        TokenStandard = 3
)

var tokenStandardNames = map[TokenStandard]string{
	StandardFungible:    "fungible",
	StandardNonFungible: "non-fungible",
	StandardNone:        "none",
}

func (s TokenStandard) String() string {
	if n, ok := tokenStandardNames[s]; ok {
		return n
	}
	if s == StandardUnset {
		return ""
	}
	return fmt.Sprintf("TokenStandard(%d)", int(s))
}

func (s TokenStandard) Valid() bool {
	_, ok := tokenStandardNames[s]
	return ok || s == StandardUnset
}

func ParseTokenStandard(s string) (TokenStandard, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StandardUnset, nil
	}
	for k, n := range tokenStandardNames {
		if n == s {
			return k, nil
		}
	}
	return StandardUnset, fmt.Errorf("unknown token standard %q", s)
}

func (s TokenStandard) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *TokenStandard) UnmarshalText(text []byte) error {
	parsed, err := ParseTokenStandard(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Colors styles the stake page of a pool.
type Colors struct {
	Primary             string `json:"primary,omitempty"`
	Secondary           string `json:"secondary,omitempty"`
	Accent              string `json:"accent,omitempty"`
	FontColor           string `json:"fontColor,omitempty"`
	FontColorSecondary  string `json:"fontColorSecondary,omitempty"`
	BackgroundSecondary string `json:"backgroundSecondary,omitempty"`
	FontColorTertiary   string `json:"fontColorTertiary,omitempty"`
}

// Link is a call-to-action rendered at the top of a pool page.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Region is an entry of a pool's IP-based denial list.
// An empty Subdivision denies the whole country.
type Region struct {
	Code        string `json:"code"`
	Subdivision string `json:"subdivision,omitempty"`
}

// AirdropMetadata describes an NFT cloned and airdropped on devnet.
type AirdropMetadata struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	URI    string `json:"uri"`
}

// AnalyticKindStaked is the only analytic kind currently rendered.
const AnalyticKindStaked = "staked"

type AnalyticTotal struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Analytic is a display-only aggregate figure shown at the top of a pool page.
type Analytic struct {
	MetadataKey string          `json:"metadataKey"`
	Kind        string          `json:"kind"`
	Totals      []AnalyticTotal `json:"totals,omitempty"`
}

// PoolDescriptor is the static configuration record of one stake pool.
//
// Descriptors are authored in the registry file and never mutated at runtime.
// Live chain state is attached separately (see PoolView).
type PoolDescriptor struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// Name is the routing key (/{name}). URL-safe, unique within a registry.
	Name string `json:"name"`

	// PoolAddress is the on-chain stake pool account. Unique within a registry.
	PoolAddress PublicKey `json:"poolAddress"`

	// ─────────────────────────────
	// Presentation
	// ─────────────────────────────

	DisplayName       string `json:"displayName"`
	NameInHeader      bool   `json:"nameInHeader,omitempty"`
	Description       string `json:"description,omitempty"`
	ImageURL          string `json:"imageUrl,omitempty"`
	SecondaryImageURL string `json:"secondaryImageUrl,omitempty"`
	BackgroundImage   string `json:"backgroundImage,omitempty"`
	WebsiteURL        string `json:"websiteUrl,omitempty"`

	Colors                     *Colors           `json:"colors,omitempty"`
	Styles                     map[string]string `json:"styles,omitempty"`
	LogoPadding                bool              `json:"logoPadding,omitempty"`
	HideFooter                 bool              `json:"hideFooter,omitempty"`
	HideAllowedTokens          bool              `json:"hideAllowedTokens,omitempty"`
	ContrastHomepageBackground bool              `json:"contrastHomepageBkg,omitempty"`

	Links     []Link     `json:"links,omitempty"`
	Analytics []Analytic `json:"analytics,omitempty"`

	// MaxStaked is the denominator of the "percent staked" figure. Must be > 0 when set.
	MaxStaked *int64 `json:"maxStaked,omitempty"`

	// ─────────────────────────────
	// Staking rules (pinned dimensions hide the matching UI selector)
	// ─────────────────────────────

	ReceiptKind   ReceiptKind   `json:"receiptKind,omitempty"`
	TokenStandard TokenStandard `json:"tokenStandard,omitempty"`

	// ─────────────────────────────
	// Routing & access
	// ─────────────────────────────

	// Hidden removes the pool from the listing only; direct lookup still works.
	Hidden bool `json:"hidden,omitempty"`

	// NotFound makes the pool unresolvable by any lookup.
	NotFound bool `json:"notFound,omitempty"`

	// HostnameOverride maps a custom domain onto this pool (exact, case-sensitive).
	HostnameOverride string `json:"hostname,omitempty"`

	// RedirectURL sends visitors of this pool to an external page.
	RedirectURL string `json:"redirect,omitempty"`

	DisallowedRegions []Region `json:"disallowRegions,omitempty"`

	// Airdrops are devnet-only simulated airdrop targets.
	Airdrops []AirdropMetadata `json:"airdrops,omitempty"`
}

// Key returns the identifier used in logs and validation messages.
func (d PoolDescriptor) Key() string {
	if d.Name != "" {
		return d.Name
	}
	return d.PoolAddress.String()
}

// Int64 returns a pointer to v, for optional numeric fields.
func Int64(v int64) *int64 { return &v }
