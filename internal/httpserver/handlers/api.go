package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver/mw"
	"github.com/MrSnakeDoc/stakehub/internal/livestate"
	"github.com/MrSnakeDoc/stakehub/internal/logger"
	"github.com/MrSnakeDoc/stakehub/internal/solana"
)

type poolResponse struct {
	domain.PoolView
	PercentStaked string `json:"percentStaked,omitempty"`
}

type poolsResponse struct {
	Cluster string         `json:"cluster"`
	Pools   []poolResponse `json:"pools"`
}

type statsResponse struct {
	Cluster     string  `json:"cluster"`
	Pools       int     `json:"pools"`
	TotalStaked *uint64 `json:"totalStaked"` // null until every listed pool has live state
}

type airdropsResponse struct {
	Pool     string                   `json:"pool"`
	Airdrops []domain.AirdropMetadata `json:"airdrops"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newPoolResponse(v domain.PoolView, cluster domain.Cluster) poolResponse {
	if cluster != domain.ClusterDevnet {
		v.Descriptor.Airdrops = nil
	}
	out := poolResponse{PoolView: v}
	if pct, ok := v.Percent(); ok {
		out.PercentStaked = pct.String()
	}
	return out
}

// Pools returns the listed pools of the request cluster with live state.
func Pools(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cluster, _ := mw.ClusterFrom(r.Context())
		views := d.Enricher.Enrich(r.Context(), cluster, listed(d, cluster))

		resp := poolsResponse{Cluster: cluster.String(), Pools: make([]poolResponse, 0, len(views))}
		for _, v := range views {
			resp.Pools = append(resp.Pools, newPoolResponse(v, cluster))
		}
		writeJSON(d, w, http.StatusOK, resp)
	}
}

// Pool returns one pool by name or address. Hidden pools resolve.
func Pool(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cluster, _ := mw.ClusterFrom(r.Context())
		p, ok := findPool(d, w, r, cluster)
		if !ok {
			return
		}
		v := d.Enricher.EnrichOne(r.Context(), cluster, p)
		writeJSON(d, w, http.StatusOK, newPoolResponse(v, cluster))
	}
}

// Stats returns the site-wide staked total across listed pools.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cluster, _ := mw.ClusterFrom(r.Context())
		pools := listed(d, cluster)
		views := d.Enricher.Enrich(r.Context(), cluster, pools)

		resp := statsResponse{Cluster: cluster.String(), Pools: len(pools)}
		if total, complete := domain.TotalStaked(views); complete {
			resp.TotalStaked = &total
		}
		writeJSON(d, w, http.StatusOK, resp)
	}
}

// PoolAirdrops returns the simulated airdrop targets of a pool. Devnet only.
func PoolAirdrops(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cluster, _ := mw.ClusterFrom(r.Context())
		if cluster != domain.ClusterDevnet {
			writeError(d, w, http.StatusNotFound, "airdrops are only available on devnet")
			return
		}
		p, ok := findPool(d, w, r, cluster)
		if !ok {
			return
		}
		airdrops := p.Airdrops
		if airdrops == nil {
			airdrops = []domain.AirdropMetadata{}
		}
		writeJSON(d, w, http.StatusOK, airdropsResponse{Pool: p.Name, Airdrops: airdrops})
	}
}

// StakeEntry derives and reads the stake entry of {mint} in a pool.
// Fungible pools key entries by ?owner=.
func StakeEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cluster, _ := mw.ClusterFrom(r.Context())
		p, ok := findPool(d, w, r, cluster)
		if !ok {
			return
		}

		mint, err := domain.ParsePublicKey(chi.URLParam(r, "mint"))
		if err != nil {
			writeError(d, w, http.StatusBadRequest, "invalid mint: "+err.Error())
			return
		}

		fungible := p.TokenStandard == domain.StandardFungible
		if !fungible && p.TokenStandard == domain.StandardUnset {
			fungible, _ = strconv.ParseBool(r.URL.Query().Get("fungible"))
		}

		var owner domain.PublicKey
		if fungible {
			raw := r.URL.Query().Get("owner")
			if raw == "" {
				writeError(d, w, http.StatusBadRequest, "owner is required for fungible pools")
				return
			}
			if owner, err = domain.ParsePublicKey(raw); err != nil {
				writeError(d, w, http.StatusBadRequest, "invalid owner: "+err.Error())
				return
			}
		}

		addr, err := solana.StakeEntryAddress(p.PoolAddress, mint, owner, fungible)
		if err != nil {
			d.Logger.Error("derive stake entry address", logger.String("pool", p.Name), logger.Error(err))
			writeError(d, w, http.StatusInternalServerError, "cannot derive stake entry address")
			return
		}

		entry, err := d.Enricher.StakeEntry(r.Context(), cluster, addr)
		switch {
		case errors.Is(err, livestate.ErrNotFound):
			writeError(d, w, http.StatusNotFound, "stake entry not found")
		case errors.Is(err, livestate.ErrNoSource):
			writeError(d, w, http.StatusServiceUnavailable, err.Error())
		case err != nil:
			d.Logger.Warn("stake entry lookup failed",
				logger.String("pool", p.Name),
				logger.Stringer("address", addr),
				logger.Error(err))
			writeError(d, w, http.StatusBadGateway, "stake entry lookup failed")
		default:
			writeJSON(d, w, http.StatusOK, entry)
		}
	}
}

func listed(d deps.Deps, cluster domain.Cluster) []domain.PoolDescriptor {
	reg := d.MemoryIndex.Registry(cluster)
	if reg == nil {
		return nil
	}
	return domain.ListedDescriptors(reg.All())
}

// findPool resolves {name} and applies region denial. It writes the error
// response itself and reports whether the caller should continue.
func findPool(d deps.Deps, w http.ResponseWriter, r *http.Request, cluster domain.Cluster) (domain.PoolDescriptor, bool) {
	reg := d.MemoryIndex.Registry(cluster)
	if reg == nil {
		writeError(d, w, http.StatusServiceUnavailable, "registry not loaded")
		return domain.PoolDescriptor{}, false
	}
	p, err := reg.Find(chi.URLParam(r, "name"))
	if err != nil {
		writeError(d, w, http.StatusNotFound, err.Error())
		return domain.PoolDescriptor{}, false
	}
	if !domain.ResolveAccess(p, mw.GeoFrom(r.Context())) {
		writeError(d, w, http.StatusUnavailableForLegalReasons, "not available in your region")
		return domain.PoolDescriptor{}, false
	}
	return p, true
}

func writeJSON(d deps.Deps, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}

func writeError(d deps.Deps, w http.ResponseWriter, status int, msg string) {
	writeJSON(d, w, status, errorResponse{Error: msg})
}
