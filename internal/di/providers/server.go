package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/tagnestapp/tagnest-server/internal/api"
	"github.com/tagnestapp/tagnest-server/internal/config"
	"github.com/tagnestapp/tagnest-server/internal/logger"
	"github.com/tagnestapp/tagnest-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	apiServer *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.apiServer.Stop()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := api.Services{
		Auth:     do.MustInvoke[*service.AuthService](i),
		Sessions: do.MustInvoke[*service.SessionService](i),
		Client:   do.MustInvoke[*service.ClientService](i),
		Tag:      do.MustInvoke[*service.TagService](i),
		Admin:    do.MustInvoke[*service.AdminService](i),
	}

	handler := api.NewServer(storeHandle.Store, services, cfg, log.Logger)

	if cfg.Admin.Token == "" {
		log.Warn("Admin API disabled, set ADMIN_TOKEN to enable it")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "base_url", cfg.Server.BaseURL)

	return &HTTPServerHandle{Server: srv, apiServer: handler}, nil
}
