package providers

import (
	"github.com/samber/do/v2"

	"github.com/tagnestapp/tagnest-server/internal/config"
	"github.com/tagnestapp/tagnest-server/internal/googleauth"
	"github.com/tagnestapp/tagnest-server/internal/logger"
	"github.com/tagnestapp/tagnest-server/internal/mail"
)

// ProvideGoogleVerifier provides the Google ID token verifier.
// With no client IDs configured the verifier stays disabled and Google
// sign-in attempts are rejected.
func ProvideGoogleVerifier(i do.Injector) (*googleauth.Verifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	verifier := googleauth.New(cfg.Google.ClientIDs, log.Logger)
	if verifier.Enabled() {
		log.Info("Google sign-in enabled", "client_ids", len(cfg.Google.ClientIDs))
	} else {
		log.Info("Google sign-in disabled")
	}

	return verifier, nil
}

// ProvideMailSender provides the transactional mail sender.
// With no API key configured it logs instead of sending.
func ProvideMailSender(i do.Injector) (*mail.Sender, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	sender := mail.New(cfg.Mail.SendGridAPIKey, cfg.Mail.FromEmail, cfg.Mail.FromName, log.Logger)
	if sender.Enabled() {
		log.Info("Mail delivery enabled", "from", cfg.Mail.FromEmail)
	} else {
		log.Info("Mail delivery disabled, messages will be logged")
	}

	return sender, nil
}
