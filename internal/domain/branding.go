package domain

import "strings"

// SiteBranding is the site-wide default used by the home page and as the
// fallback for every pool field left unset.
type SiteBranding struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
	WebsiteURL      string `json:"websiteUrl,omitempty"`
	Colors          Colors `json:"colors"`
}

// Branding is the fully resolved header/hero presentation for one page.
type Branding struct {
	Title             string
	ShowTitle         bool
	Description       string
	ImageURL          string
	SecondaryImageURL string
	BackgroundImage   string
	WebsiteURL        string
	LogoPadding       bool
	HideFooter        bool
	Colors            Colors
	Styles            map[string]string
}

// ResolveBranding merges a pool's presentation fields over the site defaults.
// A nil pool yields the site branding (home page).
func ResolveBranding(d *PoolDescriptor, site SiteBranding) Branding {
	b := Branding{
		Title:           site.Title,
		ShowTitle:       true,
		Description:     site.Subtitle,
		ImageURL:        site.ImageURL,
		BackgroundImage: site.BackgroundImage,
		WebsiteURL:      site.WebsiteURL,
		Colors:          siteColors(site.Colors),
	}
	if d == nil {
		return b
	}

	b.Title = d.DisplayName
	if b.Title == "" {
		b.Title = d.Name
	}
	b.ShowTitle = d.NameInHeader
	b.Description = d.Description
	b.ImageURL = firstNonEmpty(d.ImageURL, site.ImageURL)
	b.SecondaryImageURL = d.SecondaryImageURL
	b.BackgroundImage = firstNonEmpty(d.BackgroundImage, site.BackgroundImage)
	// The logo links to the pool's own website only; never to the site's.
	b.WebsiteURL = d.WebsiteURL
	b.LogoPadding = d.LogoPadding
	b.HideFooter = d.HideFooter
	b.Colors = poolColors(d.Colors, site.Colors)
	if len(d.Styles) > 0 {
		b.Styles = make(map[string]string, len(d.Styles))
		for k, v := range d.Styles {
			b.Styles[k] = v
		}
	}
	return b
}

func siteColors(site Colors) Colors {
	out := site
	if out.Secondary == "" {
		out.Secondary = DefaultSecondaryColor
	}
	return out
}

// poolColors overlays a pool palette on the site palette. The secondary
// color comes from the pool or DefaultSecondaryColor, never from the site.
func poolColors(c *Colors, site Colors) Colors {
	if c == nil {
		c = &Colors{}
	}
	out := site
	out.Primary = firstNonEmpty(c.Primary, site.Primary)
	out.Secondary = firstNonEmpty(c.Secondary, DefaultSecondaryColor)
	out.Accent = firstNonEmpty(c.Accent, site.Accent)
	out.FontColor = firstNonEmpty(c.FontColor, site.FontColor)
	out.FontColorSecondary = firstNonEmpty(c.FontColorSecondary, site.FontColorSecondary)
	out.BackgroundSecondary = firstNonEmpty(c.BackgroundSecondary, site.BackgroundSecondary)
	out.FontColorTertiary = firstNonEmpty(c.FontColorTertiary, site.FontColorTertiary)
	return out
}

// ResolveLinks returns the call-to-action links to render, dropping
// incomplete entries and keeping order.
func ResolveLinks(d *PoolDescriptor) []Link {
	if d == nil {
		return nil
	}
	out := make([]Link, 0, len(d.Links))
	for _, l := range d.Links {
		if strings.TrimSpace(l.Text) == "" || strings.TrimSpace(l.URL) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// StakeOptions describes which staking selectors the UI may expose.
type StakeOptions struct {
	ReceiptKinds         []ReceiptKind
	ShowReceiptSelector  bool
	TokenStandards       []TokenStandard
	ShowStandardSelector bool
}

// ResolveStakeOptions hides the selector of every dimension the pool pins.
func ResolveStakeOptions(d PoolDescriptor) StakeOptions {
	var o StakeOptions
	if d.ReceiptKind != ReceiptUnset {
		o.ReceiptKinds = []ReceiptKind{d.ReceiptKind}
	} else {
		o.ReceiptKinds = []ReceiptKind{ReceiptOriginal, ReceiptReceipt}
		o.ShowReceiptSelector = true
	}
	if d.TokenStandard != StandardUnset {
		o.TokenStandards = []TokenStandard{d.TokenStandard}
	} else {
		o.TokenStandards = []TokenStandard{StandardFungible, StandardNonFungible}
		o.ShowStandardSelector = true
	}
	return o
}

// Geo is the visitor location as reported by the trusted edge proxy.
type Geo struct {
	Country     string
	Subdivision string
}

// ResolveAccess reports whether a visitor at geo may use the pool.
// Country codes and subdivisions compare case-insensitively; an unknown
// location is always allowed.
func ResolveAccess(d PoolDescriptor, geo Geo) bool {
	if geo.Country == "" {
		return true
	}
	for _, r := range d.DisallowedRegions {
		if !strings.EqualFold(r.Code, geo.Country) {
			continue
		}
		if r.Subdivision == "" || strings.EqualFold(r.Subdivision, geo.Subdivision) {
			return false
		}
	}
	return true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
