package providers

import (
	"github.com/samber/do/v2"

	"github.com/tagnestapp/tagnest-server/internal/auth"
	"github.com/tagnestapp/tagnest-server/internal/config"
	"github.com/tagnestapp/tagnest-server/internal/googleauth"
	"github.com/tagnestapp/tagnest-server/internal/logger"
	"github.com/tagnestapp/tagnest-server/internal/mail"
	"github.com/tagnestapp/tagnest-server/internal/media/images"
	"github.com/tagnestapp/tagnest-server/internal/service"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	verifier := do.MustInvoke[*googleauth.Verifier](i)
	sender := do.MustInvoke[*mail.Sender](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(
		storeHandle.Store,
		tokenService,
		sessionService,
		verifier,
		sender,
		cfg.Server.BaseURL,
		log.Logger,
	), nil
}

// ProvideClientService provides the client account service.
func ProvideClientService(i do.Injector) (*service.ClientService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	sender := do.MustInvoke[*mail.Sender](i)
	storage := do.MustInvoke[*images.Storage](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewClientService(
		storeHandle.Store,
		sessionService,
		sender,
		storage,
		cfg.Server.BaseURL,
		log.Logger,
	), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	processor := do.MustInvoke[*images.Processor](i)
	storage := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, processor, storage, log.Logger), nil
}

// ProvideAdminService provides the admin service.
func ProvideAdminService(i do.Injector) (*service.AdminService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sender := do.MustInvoke[*mail.Sender](i)
	storage := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAdminService(storeHandle.Store, sender, storage, log.Logger), nil
}
