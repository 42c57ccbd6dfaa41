package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
)

// ApplyOverlay builds a cluster's pool list from the canonical list and an
// overlay. base is never modified; the result shares no memory with it.
//
// Order of operations: remove, unset, patch, append. Patched pools keep
// their position; appended pools go last.
func ApplyOverlay(base []PoolSchema, ov OverlaySchema) ([]PoolSchema, error) {
	removed := make(map[string]bool, len(ov.Remove))
	for _, name := range ov.Remove {
		removed[name] = true
	}

	out := make([]PoolSchema, 0, len(base)+len(ov.Append))
	pos := make(map[string]int, len(base))
	for _, p := range base {
		if removed[p.Name] {
			delete(removed, p.Name)
			continue
		}
		pos[p.Name] = len(out)
		out = append(out, deepCopyPool(p))
	}
	if len(removed) > 0 {
		return nil, fmt.Errorf("overlay removes unknown pools: %s", strings.Join(sortedKeys(removed), ", "))
	}

	for _, name := range sortedKeys(ov.Unset) {
		i, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("overlay unsets fields of unknown pool %q", name)
		}
		for _, field := range ov.Unset[name] {
			if err := unsetField(&out[i], field); err != nil {
				return nil, fmt.Errorf("overlay unset on pool %q: %w", name, err)
			}
		}
	}

	for _, patch := range ov.Patch {
		i, ok := pos[patch.Name]
		if !ok {
			return nil, fmt.Errorf("overlay patches unknown pool %q", patch.Name)
		}
		out[i] = mergePool(out[i], patch)
	}

	for _, p := range ov.Append {
		if _, ok := pos[p.Name]; ok {
			return nil, fmt.Errorf("overlay appends pool %q which already exists", p.Name)
		}
		pos[p.Name] = len(out)
		out = append(out, deepCopyPool(p))
	}

	return out, nil
}

// mergePool overlays every field set in patch onto base.
// Slices and maps are replaced wholesale, never merged element-wise.
func mergePool(base, patch PoolSchema) PoolSchema {
	p := deepCopyPool(patch)

	setString(&base.PoolAddress, p.PoolAddress)
	setString(&base.DisplayName, p.DisplayName)
	setString(&base.Description, p.Description)
	setString(&base.ImageURL, p.ImageURL)
	setString(&base.SecondaryImageURL, p.SecondaryImageURL)
	setString(&base.BackgroundImage, p.BackgroundImage)
	setString(&base.WebsiteURL, p.WebsiteURL)
	setString(&base.ReceiptType, p.ReceiptType)
	setString(&base.TokenStandard, p.TokenStandard)
	setString(&base.Hostname, p.Hostname)
	setString(&base.Redirect, p.Redirect)

	setBool(&base.NameInHeader, p.NameInHeader)
	setBool(&base.LogoPadding, p.LogoPadding)
	setBool(&base.HideFooter, p.HideFooter)
	setBool(&base.HideAllowedTokens, p.HideAllowedTokens)
	setBool(&base.ContrastHomepageBkg, p.ContrastHomepageBkg)
	setBool(&base.Hidden, p.Hidden)
	setBool(&base.NotFound, p.NotFound)

	if p.Colors != nil {
		base.Colors = p.Colors
	}
	if p.Styles != nil {
		base.Styles = p.Styles
	}
	if p.MaxStaked != nil {
		base.MaxStaked = p.MaxStaked
	}
	if p.Links != nil {
		base.Links = p.Links
	}
	if p.Analytics != nil {
		base.Analytics = p.Analytics
	}
	if p.DisallowRegions != nil {
		base.DisallowRegions = p.DisallowRegions
	}
	if p.Airdrops != nil {
		base.Airdrops = p.Airdrops
	}
	return base
}

// unsetField resets one optional field, named as in pools.yaml. name and
// poolAddress are required and cannot be unset.
func unsetField(p *PoolSchema, field string) error {
	switch field {
	case "displayName":
		p.DisplayName = ""
	case "description":
		p.Description = ""
	case "imageUrl":
		p.ImageURL = ""
	case "secondaryImageUrl":
		p.SecondaryImageURL = ""
	case "backgroundImage":
		p.BackgroundImage = ""
	case "websiteUrl":
		p.WebsiteURL = ""
	case "receiptType":
		p.ReceiptType = ""
	case "tokenStandard":
		p.TokenStandard = ""
	case "hostname":
		p.Hostname = ""
	case "redirect":
		p.Redirect = ""
	case "nameInHeader":
		p.NameInHeader = nil
	case "logoPadding":
		p.LogoPadding = nil
	case "hideFooter":
		p.HideFooter = nil
	case "hideAllowedTokens":
		p.HideAllowedTokens = nil
	case "contrastHomepageBkg":
		p.ContrastHomepageBkg = nil
	case "hidden":
		p.Hidden = nil
	case "notFound":
		p.NotFound = nil
	case "colors":
		p.Colors = nil
	case "styles":
		p.Styles = nil
	case "maxStaked":
		p.MaxStaked = nil
	case "links":
		p.Links = nil
	case "analytics":
		p.Analytics = nil
	case "disallowRegions":
		p.DisallowRegions = nil
	case "airdrops":
		p.Airdrops = nil
	default:
		return fmt.Errorf("field %q cannot be unset", field)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst **bool, v *bool) {
	if v != nil {
		*dst = v
	}
}

// deepCopyPool returns a PoolSchema with its own memory for every pointer,
// slice and map field.
func deepCopyPool(p PoolSchema) PoolSchema {
	n := p
	n.NameInHeader = copyBool(p.NameInHeader)
	n.LogoPadding = copyBool(p.LogoPadding)
	n.HideFooter = copyBool(p.HideFooter)
	n.HideAllowedTokens = copyBool(p.HideAllowedTokens)
	n.ContrastHomepageBkg = copyBool(p.ContrastHomepageBkg)
	n.Hidden = copyBool(p.Hidden)
	n.NotFound = copyBool(p.NotFound)
	n.MaxStaked = copyInt64(p.MaxStaked)
	if p.Colors != nil {
		c := *p.Colors
		n.Colors = &c
	}
	if p.Styles != nil {
		n.Styles = make(map[string]string, len(p.Styles))
		for k, v := range p.Styles {
			n.Styles[k] = v
		}
	}
	n.Links = cloneSlice(p.Links)
	n.DisallowRegions = cloneSlice(p.DisallowRegions)
	n.Airdrops = cloneSlice(p.Airdrops)
	if p.Analytics != nil {
		n.Analytics = make([]AnalyticSchema, len(p.Analytics))
		for i, a := range p.Analytics {
			a.Totals = cloneSlice(a.Totals)
			n.Analytics[i] = a
		}
	}
	return n
}

// cloneSlice keeps nil and empty distinct: an explicit empty list in a patch
// clears the field.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Catalog is a mapped and validated registry file: site branding plus one
// registry per cluster.
type Catalog struct {
	Site       domain.SiteBranding
	Registries map[domain.Cluster]*domain.Registry
	Warnings   map[domain.Cluster][]domain.Problem
}

// Registry returns the registry of cluster, falling back to mainnet.
func (c *Catalog) Registry(cluster domain.Cluster) *domain.Registry {
	if r, ok := c.Registries[cluster]; ok {
		return r
	}
	return c.Registries[domain.ClusterMainnet]
}

// Build applies every cluster overlay to the canonical list, maps and
// validates each result. Any failure rejects the whole file.
func Build(f *File) (*Catalog, error) {
	m := NewMapper()
	cat := &Catalog{
		Site:       m.MapSite(f.Site),
		Registries: make(map[domain.Cluster]*domain.Registry, len(domain.Clusters)),
		Warnings:   make(map[domain.Cluster][]domain.Problem),
	}

	overlays := make(map[domain.Cluster]OverlaySchema, len(f.Overlays))
	for name, ov := range f.Overlays {
		c, ok := domain.ParseCluster(name)
		if !ok {
			return nil, fmt.Errorf("overlay for unknown cluster %q", name)
		}
		overlays[c] = ov
	}

	for _, c := range domain.Clusters {
		pools, err := ApplyOverlay(f.Pools, overlays[c])
		if err != nil {
			return nil, fmt.Errorf("cluster %s: %w", c, err)
		}
		descriptors, err := m.MapPools(pools)
		if err != nil {
			return nil, fmt.Errorf("cluster %s: %w", c, err)
		}
		reg, err := domain.NewRegistry(descriptors)
		if err != nil {
			return nil, fmt.Errorf("cluster %s: %w", c, err)
		}
		cat.Registries[c] = reg
		if w := reg.Warnings(); len(w) > 0 {
			cat.Warnings[c] = w
		}
	}
	return cat, nil
}
