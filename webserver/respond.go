package webserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/tpgainz/sirene-search/postgres"
	"github.com/tpgainz/sirene-search/sirene"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

// logHandlerError logs failures that must not fail the request itself.
func logHandlerError(r *http.Request, err error) {
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
}

// writeError translates the error taxonomy of the sirene package into
// HTTP statuses. Unknown errors become a 500 with a generic body so
// upstream details never leak to API consumers.
func writeError(w http.ResponseWriter, err error) {
	var (
		malformed *sirene.MalformedCriteriaError
		auth      *sirene.AuthError
		rateLimit *sirene.RateLimitError
		notFound  *sirene.NotFoundError
		timeout   *sirene.TimeoutError
		upstream  *sirene.UpstreamError
	)

	switch {
	case errors.As(err, &malformed):
		writeJSON(w, http.StatusBadRequest, errorBody(malformed.Error()))
	case errors.As(err, &auth):
		// une clé refusée signifie une clé expirée ou révoquée, il faut
		// que l'opérateur le voie
		log.Printf("CRITIQUE: authentification refusée par le registre: %v", err)
		writeJSON(w, http.StatusBadGateway, errorBody("authentification refusée par le registre"))
	case errors.As(err, &rateLimit):
		if rateLimit.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(rateLimit.RetryAfter.Seconds())))
		}

		writeJSON(w, http.StatusTooManyRequests, errorBody("quota du registre atteint"))
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorBody(notFound.Error()))
	case errors.As(err, &timeout):
		writeJSON(w, http.StatusGatewayTimeout, errorBody("le registre n'a pas répondu à temps"))
	case errors.As(err, &upstream):
		writeJSON(w, http.StatusBadGateway, errorBody("erreur du registre"))
	case errors.Is(err, postgres.ErrListNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody("erreur interne"))
	}
}
