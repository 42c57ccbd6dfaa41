package registry

// File is the top-level structure of pools.yaml.
//
//	site:     site-wide branding used by the listing page
//	pools:    the canonical (mainnet) pool list, in display order
//	overlays: per-cluster patches applied on top of pools
type File struct {
	Site     SiteSchema               `yaml:"site"`
	Pools    []PoolSchema             `yaml:"pools"`
	Overlays map[string]OverlaySchema `yaml:"overlays,omitempty"`
}

type SiteSchema struct {
	Title           string        `yaml:"title"`
	Subtitle        string        `yaml:"subtitle,omitempty"`
	ImageURL        string        `yaml:"imageUrl,omitempty"`
	BackgroundImage string        `yaml:"backgroundImage,omitempty"`
	WebsiteURL      string        `yaml:"websiteUrl,omitempty"`
	Colors          *ColorsSchema `yaml:"colors,omitempty"`
}

// PoolSchema is one pool entry as authored. Optional booleans are pointers so
// an overlay can tell "unset" from "false".
type PoolSchema struct {
	Name              string `yaml:"name"`
	PoolAddress       string `yaml:"poolAddress,omitempty"`
	DisplayName       string `yaml:"displayName,omitempty"`
	NameInHeader      *bool  `yaml:"nameInHeader,omitempty"`
	Description       string `yaml:"description,omitempty"`
	ImageURL          string `yaml:"imageUrl,omitempty"`
	SecondaryImageURL string `yaml:"secondaryImageUrl,omitempty"`
	BackgroundImage   string `yaml:"backgroundImage,omitempty"`
	WebsiteURL        string `yaml:"websiteUrl,omitempty"`

	Colors              *ColorsSchema     `yaml:"colors,omitempty"`
	Styles              map[string]string `yaml:"styles,omitempty"`
	LogoPadding         *bool             `yaml:"logoPadding,omitempty"`
	HideFooter          *bool             `yaml:"hideFooter,omitempty"`
	HideAllowedTokens   *bool             `yaml:"hideAllowedTokens,omitempty"`
	ContrastHomepageBkg *bool             `yaml:"contrastHomepageBkg,omitempty"`

	Links     []LinkSchema     `yaml:"links,omitempty"`
	Analytics []AnalyticSchema `yaml:"analytics,omitempty"`
	MaxStaked *int64           `yaml:"maxStaked,omitempty"`

	ReceiptType   string `yaml:"receiptType,omitempty"`
	TokenStandard string `yaml:"tokenStandard,omitempty"`

	Hidden          *bool           `yaml:"hidden,omitempty"`
	NotFound        *bool           `yaml:"notFound,omitempty"`
	Hostname        string          `yaml:"hostname,omitempty"`
	Redirect        string          `yaml:"redirect,omitempty"`
	DisallowRegions []RegionSchema  `yaml:"disallowRegions,omitempty"`
	Airdrops        []AirdropSchema `yaml:"airdrops,omitempty"`
}

type ColorsSchema struct {
	Primary             string `yaml:"primary,omitempty"`
	Secondary           string `yaml:"secondary,omitempty"`
	Accent              string `yaml:"accent,omitempty"`
	FontColor           string `yaml:"fontColor,omitempty"`
	FontColorSecondary  string `yaml:"fontColorSecondary,omitempty"`
	BackgroundSecondary string `yaml:"backgroundSecondary,omitempty"`
	FontColorTertiary   string `yaml:"fontColorTertiary,omitempty"`
}

type LinkSchema struct {
	Text  string `yaml:"text"`
	Value string `yaml:"value"`
}

type RegionSchema struct {
	Code        string `yaml:"code"`
	Subdivision string `yaml:"subdivision,omitempty"`
}

type AirdropSchema struct {
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`
	URI    string `yaml:"uri"`
}

type AnalyticSchema struct {
	MetadataKey string                `yaml:"metadataKey"`
	Type        string                `yaml:"type"`
	Totals      []AnalyticTotalSchema `yaml:"totals,omitempty"`
}

type AnalyticTotalSchema struct {
	Key   string  `yaml:"key"`
	Value float64 `yaml:"value"`
}

// OverlaySchema describes how one cluster differs from the canonical list.
// Patch entries are matched by name and only their set fields are applied,
// so a patch cannot clear a field; Unset lists, per pool name, the yaml
// field names to reset (e.g. "redirect", "hostname") before patches run.
type OverlaySchema struct {
	Patch  []PoolSchema        `yaml:"patch,omitempty"`
	Append []PoolSchema        `yaml:"append,omitempty"`
	Remove []string            `yaml:"remove,omitempty"`
	Unset  map[string][]string `yaml:"unset,omitempty"`
}
