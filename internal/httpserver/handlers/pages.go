package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver/mw"
	"github.com/MrSnakeDoc/stakehub/internal/logger"
	"github.com/MrSnakeDoc/stakehub/internal/view"
)

// Home serves "/": the listing, or a pool page when the Host header matches
// a hostname override.
func Home(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		servePage(d, w, r, "")
	}
}

// Page serves "/{name}" where name is a pool name or base58 pool address.
func Page(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		servePage(d, w, r, chi.URLParam(r, "name"))
	}
}

func servePage(d deps.Deps, w http.ResponseWriter, r *http.Request, key string) {
	ctx := r.Context()
	cluster, param := mw.ClusterFrom(ctx)
	reg := d.MemoryIndex.Registry(cluster)
	site := d.MemoryIndex.Site()

	res := domain.Resolve(reg, r.Host, key)

	switch res.Outcome {
	case domain.OutcomeHome:
		var pools []domain.PoolDescriptor
		if reg != nil {
			pools = domain.ListedDescriptors(reg.All())
		}
		views := d.Enricher.Enrich(ctx, cluster, pools)
		d.Metrics.PageRender(res.Outcome.String())
		writeHTML(d, w, http.StatusOK, func(out io.Writer) error {
			return d.Renderer.Listing(out, view.NewListingPage(site, views, cluster, param))
		})

	case domain.OutcomeRedirect:
		d.Metrics.PageRender(res.Outcome.String())
		d.Logger.Debug("pool redirect",
			logger.String("pool", res.Pool.Name),
			logger.String("url", res.RedirectURL))
		http.Redirect(w, r, res.RedirectURL, http.StatusFound)

	case domain.OutcomePool:
		if !domain.ResolveAccess(res.Pool, mw.GeoFrom(ctx)) {
			d.Metrics.PageRender("denied")
			writeMessage(d, w, http.StatusUnavailableForLegalReasons, &res.Pool, site,
				"Not available in your region",
				"Staking in this pool is not available from your location.")
			return
		}
		v := d.Enricher.EnrichOne(ctx, cluster, res.Pool)
		d.Metrics.PageRender(res.Outcome.String())
		writeHTML(d, w, http.StatusOK, func(out io.Writer) error {
			return d.Renderer.Pool(out, view.NewPoolPage(site, v, cluster, param))
		})

	default:
		d.Metrics.PageRender(domain.OutcomeNotFound.String())
		writeMessage(d, w, http.StatusNotFound, nil, site,
			"Pool not found",
			"The stake pool you are looking for does not exist.")
	}
}

func writeMessage(d deps.Deps, w http.ResponseWriter, status int, pool *domain.PoolDescriptor, site domain.SiteBranding, heading, msg string) {
	page := view.MessagePage{
		Hero:    view.NewHero(pool, site),
		Heading: heading,
		Message: msg,
	}
	writeHTML(d, w, status, func(out io.Writer) error {
		return d.Renderer.Message(out, page)
	})
}

// writeHTML renders into a buffer so the status code is only sent once the
// page is complete.
func writeHTML(d deps.Deps, w http.ResponseWriter, status int, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		d.Logger.Error("page render failed", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}
