package api

import (
	"github.com/tagnestapp/tagnest-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth     *service.AuthService
	Sessions *service.SessionService
	Client   *service.ClientService
	Tag      *service.TagService
	Admin    *service.AdminService
}
