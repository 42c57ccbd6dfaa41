package mw

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/logger"
)

type ctxKey int

const (
	clusterKey ctxKey = iota
	geoKey
)

type clusterValue struct {
	cluster domain.Cluster
	param   string
}

// Cluster resolves the ?cluster= query parameter. Unknown or missing values
// fall back to def.
func Cluster(def domain.Cluster, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := clusterValue{cluster: def}
			if raw := r.URL.Query().Get("cluster"); raw != "" {
				if c, ok := domain.ParseCluster(raw); ok {
					v.cluster = c
					if c != def {
						v.param = c.String()
					}
				} else {
					log.Debugf("Cluster: unknown cluster %q, using %s", raw, def)
				}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clusterKey, v)))
		})
	}
}

// ClusterFrom returns the request cluster and the query value to carry on
// internal links (empty for the default cluster).
func ClusterFrom(ctx context.Context) (domain.Cluster, string) {
	v, ok := ctx.Value(clusterKey).(clusterValue)
	if !ok {
		return domain.ClusterMainnet, ""
	}
	return v.cluster, v.param
}

// Geo reads the visitor location from headers set by the edge proxy. The
// headers are ignored unless trustProxy is set.
func Geo(countryHeader, subdivisionHeader string, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !trustProxy || countryHeader == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g := domain.Geo{Country: strings.TrimSpace(r.Header.Get(countryHeader))}
			if subdivisionHeader != "" {
				g.Subdivision = strings.TrimSpace(r.Header.Get(subdivisionHeader))
			}
			// Cloudflare reports unknown locations as XX.
			if strings.EqualFold(g.Country, "XX") {
				g = domain.Geo{}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), geoKey, g)))
		})
	}
}

// GeoFrom returns the visitor location, zero when unknown.
func GeoFrom(ctx context.Context) domain.Geo {
	g, _ := ctx.Value(geoKey).(domain.Geo)
	return g
}
