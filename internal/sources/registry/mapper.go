package registry

import (
	"fmt"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
)

// Mapper converts registry file entries to domain descriptors and back
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapPools converts file entries to descriptors, keeping file order.
// Field-level parse failures (bad address, unknown enum) are collected into a
// single *domain.ValidationError.
func (m *Mapper) MapPools(pools []PoolSchema) ([]domain.PoolDescriptor, error) {
	out := make([]domain.PoolDescriptor, 0, len(pools))
	var problems []domain.Problem

	for i, p := range pools {
		key := p.Name
		if key == "" {
			key = fmt.Sprintf("#%d", i)
		}
		fail := func(field string, err error) {
			problems = append(problems, domain.Problem{
				Pool:     key,
				Field:    field,
				Message:  err.Error(),
				Severity: domain.SeverityError,
			})
		}

		d := domain.PoolDescriptor{
			Name:                       p.Name,
			DisplayName:                p.DisplayName,
			NameInHeader:               deref(p.NameInHeader),
			Description:                p.Description,
			ImageURL:                   p.ImageURL,
			SecondaryImageURL:          p.SecondaryImageURL,
			BackgroundImage:            p.BackgroundImage,
			WebsiteURL:                 p.WebsiteURL,
			Colors:                     mapColors(p.Colors),
			Styles:                     copyStyles(p.Styles),
			LogoPadding:                deref(p.LogoPadding),
			HideFooter:                 deref(p.HideFooter),
			HideAllowedTokens:          deref(p.HideAllowedTokens),
			ContrastHomepageBackground: deref(p.ContrastHomepageBkg),
			MaxStaked:                  copyInt64(p.MaxStaked),
			Hidden:                     deref(p.Hidden),
			NotFound:                   deref(p.NotFound),
			HostnameOverride:           p.Hostname,
			RedirectURL:                p.Redirect,
		}

		if p.PoolAddress != "" {
			addr, err := domain.ParsePublicKey(p.PoolAddress)
			if err != nil {
				fail("poolAddress", err)
			}
			d.PoolAddress = addr
		}

		var err error
		if d.ReceiptKind, err = domain.ParseReceiptKind(p.ReceiptType); err != nil {
			fail("receiptType", err)
		}
		if d.TokenStandard, err = domain.ParseTokenStandard(p.TokenStandard); err != nil {
			fail("tokenStandard", err)
		}

		for _, l := range p.Links {
			d.Links = append(d.Links, domain.Link{Text: l.Text, URL: l.Value})
		}
		for _, r := range p.DisallowRegions {
			d.DisallowedRegions = append(d.DisallowedRegions, domain.Region{Code: r.Code, Subdivision: r.Subdivision})
		}
		for _, a := range p.Airdrops {
			d.Airdrops = append(d.Airdrops, domain.AirdropMetadata{Name: a.Name, Symbol: a.Symbol, URI: a.URI})
		}
		for _, a := range p.Analytics {
			an := domain.Analytic{MetadataKey: a.MetadataKey, Kind: a.Type}
			for _, t := range a.Totals {
				an.Totals = append(an.Totals, domain.AnalyticTotal{Key: t.Key, Value: t.Value})
			}
			d.Analytics = append(d.Analytics, an)
		}

		out = append(out, d)
	}

	if len(problems) > 0 {
		return nil, &domain.ValidationError{Problems: problems}
	}
	return out, nil
}

// MapSite converts the site block to domain branding
func (m *Mapper) MapSite(s SiteSchema) domain.SiteBranding {
	b := domain.SiteBranding{
		Title:           s.Title,
		Subtitle:        s.Subtitle,
		ImageURL:        s.ImageURL,
		BackgroundImage: s.BackgroundImage,
		WebsiteURL:      s.WebsiteURL,
	}
	if c := mapColors(s.Colors); c != nil {
		b.Colors = *c
	}
	return b
}

// FromDomain converts descriptors back to file entries. MapPools(FromDomain(x))
// yields x.
func (m *Mapper) FromDomain(pools []domain.PoolDescriptor) []PoolSchema {
	out := make([]PoolSchema, 0, len(pools))
	for _, d := range pools {
		p := PoolSchema{
			Name:                d.Name,
			DisplayName:         d.DisplayName,
			NameInHeader:        ptrIfTrue(d.NameInHeader),
			Description:         d.Description,
			ImageURL:            d.ImageURL,
			SecondaryImageURL:   d.SecondaryImageURL,
			BackgroundImage:     d.BackgroundImage,
			WebsiteURL:          d.WebsiteURL,
			Colors:              unmapColors(d.Colors),
			Styles:              copyStyles(d.Styles),
			LogoPadding:         ptrIfTrue(d.LogoPadding),
			HideFooter:          ptrIfTrue(d.HideFooter),
			HideAllowedTokens:   ptrIfTrue(d.HideAllowedTokens),
			ContrastHomepageBkg: ptrIfTrue(d.ContrastHomepageBackground),
			MaxStaked:           copyInt64(d.MaxStaked),
			Hidden:              ptrIfTrue(d.Hidden),
			NotFound:            ptrIfTrue(d.NotFound),
			Hostname:            d.HostnameOverride,
			Redirect:            d.RedirectURL,
		}
		if !d.PoolAddress.IsZero() {
			p.PoolAddress = d.PoolAddress.String()
		}
		if d.ReceiptKind != domain.ReceiptUnset {
			p.ReceiptType = d.ReceiptKind.String()
		}
		if d.TokenStandard != domain.StandardUnset {
			p.TokenStandard = d.TokenStandard.String()
		}
		for _, l := range d.Links {
			p.Links = append(p.Links, LinkSchema{Text: l.Text, Value: l.URL})
		}
		for _, r := range d.DisallowedRegions {
			p.DisallowRegions = append(p.DisallowRegions, RegionSchema{Code: r.Code, Subdivision: r.Subdivision})
		}
		for _, a := range d.Airdrops {
			p.Airdrops = append(p.Airdrops, AirdropSchema{Name: a.Name, Symbol: a.Symbol, URI: a.URI})
		}
		for _, a := range d.Analytics {
			as := AnalyticSchema{MetadataKey: a.MetadataKey, Type: a.Kind}
			for _, t := range a.Totals {
				as.Totals = append(as.Totals, AnalyticTotalSchema{Key: t.Key, Value: t.Value})
			}
			p.Analytics = append(p.Analytics, as)
		}
		out = append(out, p)
	}
	return out
}

func mapColors(c *ColorsSchema) *domain.Colors {
	if c == nil {
		return nil
	}
	return &domain.Colors{
		Primary:             c.Primary,
		Secondary:           c.Secondary,
		Accent:              c.Accent,
		FontColor:           c.FontColor,
		FontColorSecondary:  c.FontColorSecondary,
		BackgroundSecondary: c.BackgroundSecondary,
		FontColorTertiary:   c.FontColorTertiary,
	}
}

func unmapColors(c *domain.Colors) *ColorsSchema {
	if c == nil {
		return nil
	}
	return &ColorsSchema{
		Primary:             c.Primary,
		Secondary:           c.Secondary,
		Accent:              c.Accent,
		FontColor:           c.FontColor,
		FontColorSecondary:  c.FontColorSecondary,
		BackgroundSecondary: c.BackgroundSecondary,
		FontColorTertiary:   c.FontColorTertiary,
	}
}

func deref(b *bool) bool {
	return b != nil && *b
}

func ptrIfTrue(b bool) *bool {
	if !b {
		return nil
	}
	return &b
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func copyStyles(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
