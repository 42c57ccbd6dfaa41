package view

import (
	"html/template"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
)

// Placeholder is shown wherever a live figure is not available yet.
const Placeholder = "…"

// Card is one entry of the collection listing.
type Card struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"displayName"`
	PoolAddress string        `json:"poolAddress"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	Href        string        `json:"href"`
	External    bool          `json:"external,omitempty"`
	TotalStaked *uint64       `json:"totalStaked,omitempty"`
	MaxStaked   *int64        `json:"maxStaked,omitempty"`
	Percent     string        `json:"percentStaked,omitempty"`
	Contrast    bool          `json:"contrastBackground,omitempty"`
	Colors      domain.Colors `json:"colors"`
}

// StakedLabel is the staked count for display, or Placeholder.
func (c Card) StakedLabel() string {
	if c.TotalStaked == nil {
		return Placeholder
	}
	return formatCount(*c.TotalStaked)
}

// MaxLabel is the pool capacity for display, empty when unknown.
func (c Card) MaxLabel() string {
	if c.MaxStaked == nil || *c.MaxStaked <= 0 {
		return ""
	}
	return formatCount(uint64(*c.MaxStaked))
}

// Cards projects the listing: hidden pools are dropped, order is kept.
// clusterParam is appended to internal links when non-empty.
func Cards(views []domain.PoolView, clusterParam string) []Card {
	listed := domain.Listed(views)
	out := make([]Card, 0, len(listed))
	for _, v := range listed {
		out = append(out, NewCard(v, clusterParam))
	}
	return out
}

// NewCard builds the card of a single pool view.
func NewCard(v domain.PoolView, clusterParam string) Card {
	d := v.Descriptor
	c := Card{
		Name:        d.Name,
		DisplayName: d.DisplayName,
		PoolAddress: d.PoolAddress.String(),
		ImageURL:    d.ImageURL,
		Href:        PoolHref(d.Name, clusterParam),
		MaxStaked:   d.MaxStaked,
		Contrast:    d.ContrastHomepageBackground,
	}
	if c.DisplayName == "" {
		c.DisplayName = d.Name
	}
	if d.Colors != nil {
		c.Colors = *d.Colors
	}
	if d.RedirectURL != "" {
		c.Href = d.RedirectURL
		c.External = true
	}
	if n, ok := v.StakedCount(); ok {
		c.TotalStaked = &n
	}
	if pct, ok := v.Percent(); ok {
		c.Percent = pct.String()
	}
	return c
}

// PoolHref is the internal link to a pool page.
func PoolHref(name, clusterParam string) string {
	href := "/" + url.PathEscape(name)
	if clusterParam != "" {
		href += "?cluster=" + url.QueryEscape(clusterParam)
	}
	return href
}

// Hero is the header block of every page.
type Hero struct {
	Branding domain.Branding
	Style    template.CSS

	// Site-wide figures, home page only.
	ShowTotals    bool
	TotalStaked   uint64
	TotalComplete bool
}

// TotalLabel is the site-wide staked count, or Placeholder while any pool is
// still unknown.
func (h Hero) TotalLabel() string {
	if !h.TotalComplete {
		return Placeholder
	}
	return formatCount(h.TotalStaked)
}

// NewHero resolves branding for d (nil on the home page).
func NewHero(d *domain.PoolDescriptor, site domain.SiteBranding) Hero {
	b := domain.ResolveBranding(d, site)
	return Hero{Branding: b, Style: HeroStyle(b)}
}

// ClusterOption is one entry of the cluster selector.
type ClusterOption struct {
	Name     string
	Href     string
	Selected bool
}

// ListingPage is the model of the home page.
type ListingPage struct {
	Hero     Hero
	Cards    []Card
	Clusters []ClusterOption
}

// NewListingPage builds the home page from the enriched registry.
func NewListingPage(site domain.SiteBranding, views []domain.PoolView, cluster domain.Cluster, clusterParam string) ListingPage {
	hero := NewHero(nil, site)
	hero.ShowTotals = true
	hero.TotalStaked, hero.TotalComplete = domain.TotalStaked(domain.Listed(views))
	return ListingPage{
		Hero:     hero,
		Cards:    Cards(views, clusterParam),
		Clusters: clusterOptions("/", cluster),
	}
}

// PoolPage is the model of a single pool page.
type PoolPage struct {
	Hero      Hero
	Pool      Card
	Links     []domain.Link
	Stake     domain.StakeOptions
	Analytics []domain.Analytic
	Airdrops  []domain.AirdropMetadata
	Clusters  []ClusterOption
}

// NewPoolPage builds a pool page. Airdrops are only exposed on devnet.
func NewPoolPage(site domain.SiteBranding, v domain.PoolView, cluster domain.Cluster, clusterParam string) PoolPage {
	d := v.Descriptor
	p := PoolPage{
		Hero:      NewHero(&d, site),
		Pool:      NewCard(v, clusterParam),
		Links:     domain.ResolveLinks(&d),
		Stake:     domain.ResolveStakeOptions(d),
		Analytics: renderedAnalytics(d.Analytics),
		Clusters:  clusterOptions(PoolHref(d.Name, ""), cluster),
	}
	if cluster == domain.ClusterDevnet {
		p.Airdrops = d.Airdrops
	}
	return p
}

// MessagePage is the model of the not found and access denied pages.
type MessagePage struct {
	Hero    Hero
	Heading string
	Message string
}

func clusterOptions(base string, current domain.Cluster) []ClusterOption {
	out := make([]ClusterOption, 0, len(domain.Clusters))
	for _, c := range domain.Clusters {
		out = append(out, ClusterOption{
			Name:     c.String(),
			Href:     base + "?cluster=" + url.QueryEscape(c.String()),
			Selected: c == current,
		})
	}
	return out
}

func renderedAnalytics(in []domain.Analytic) []domain.Analytic {
	var out []domain.Analytic
	for _, a := range in {
		if a.Kind == domain.AnalyticKindStaked {
			out = append(out, a)
		}
	}
	return out
}

// HeroStyle renders the branding colors and background as inline CSS.
func HeroStyle(b domain.Branding) template.CSS {
	decls := map[string]string{
		"--color-primary":              b.Colors.Primary,
		"--color-secondary":            b.Colors.Secondary,
		"--color-accent":               b.Colors.Accent,
		"--color-font":                 b.Colors.FontColor,
		"--color-font-secondary":       b.Colors.FontColorSecondary,
		"--color-font-tertiary":        b.Colors.FontColorTertiary,
		"--color-background-secondary": b.Colors.BackgroundSecondary,
	}
	if b.BackgroundImage != "" {
		decls["background-image"] = `url("` + cssURL(b.BackgroundImage) + `")`
	}
	for k, v := range b.Styles {
		decls[k] = v
	}
	return cssDecls(decls)
}

// cssDecls joins declarations in key order, dropping anything that could
// escape the attribute or start a new rule.
func cssDecls(decls map[string]string) template.CSS {
	keys := make([]string, 0, len(decls))
	for k, v := range decls {
		if v == "" || !safeCSS(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		v := decls[k]
		if !safeCSSValue(v) {
			continue
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(v)
		sb.WriteString("; ")
	}
	return template.CSS(strings.TrimSpace(sb.String()))
}

func safeCSS(s string) bool {
	for _, r := range s {
		if !(r == '-' || r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return s != ""
}

func safeCSSValue(s string) bool {
	return !strings.ContainsAny(s, ";{}<>\\\n\r") && !strings.Contains(strings.ToLower(s), "expression(")
}

func cssURL(u string) string {
	return strings.NewReplacer(`"`, "%22", `\`, "%5C", "\n", "", "\r", "", "<", "%3C", ">", "%3E").Replace(u)
}

func formatCount(n uint64) string {
	s := strconv.FormatUint(n, 10)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
