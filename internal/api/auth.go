package api

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/josephcopenhaver/cadence-bot/internal/store"
)

// basicAuth checks the discord user id and the password set with the chat password command
func (a *API) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.conf.AuthEnabled {
			next.ServeHTTP(w, r)
			return
		}

		userID, pw, ok := r.BasicAuth()
		if ok {
			hash, err := a.conf.Passwords.PasswordHash(r.Context(), userID)
			switch {
			case err == nil:
				if store.CheckPassword(hash, pw) {
					next.ServeHTTP(w, r)
					return
				}
			case !errors.Is(err, store.ErrUserNotFound):
				log.Err(err).
					Str("user_id", userID).
					Msg("failed to read password hash")

				writeText(w, http.StatusInternalServerError, "Failed to check credentials")
				return
			}
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="cadence-bot", charset="UTF-8"`)
		writeText(w, http.StatusUnauthorized, "Unauthorized")
	})
}
