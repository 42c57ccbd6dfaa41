package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stakehub/internal/httpserver/mw"
	"github.com/MrSnakeDoc/stakehub/internal/livestate"
	"github.com/MrSnakeDoc/stakehub/internal/logger"
)

// Reload triggers a manual registry reload. With ?flush=true it also drops
// the live-state cache of the request cluster, local and shared tiers.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flush, _ := strconv.ParseBool(r.URL.Query().Get("flush")); flush {
			cluster, _ := mw.ClusterFrom(r.Context())
			flushLiveState(r.Context(), d, cluster)
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual registry reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("✅ Reload triggered successfully\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		default:
			d.Logger.Warn("registry reload already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("⏳ Reload already in progress, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		}
	}
}

func flushLiveState(ctx context.Context, d deps.Deps, cluster domain.Cluster) {
	if d.LocalCache != nil {
		n, err := livestate.FlushLocal(d.LocalCache, cluster)
		if err != nil {
			d.Logger.Warn("local live-state cache flush failed",
				logger.String("cluster", cluster.String()),
				logger.Error(err))
		} else {
			d.Logger.Info("local live-state cache flushed",
				logger.String("cluster", cluster.String()),
				logger.Int("keys", n))
		}
	}

	if d.Store != nil {
		keys, err := d.Store.FlushCluster(ctx, cluster)
		if err != nil {
			d.Logger.Warn("shared live-state cache flush failed",
				logger.String("cluster", cluster.String()),
				logger.Error(err))
		} else {
			d.Logger.Info("shared live-state cache flushed",
				logger.String("cluster", cluster.String()),
				logger.Int("keys", len(keys)))
		}
	}
}
