package http

import (
	"errors"
	"net/http"

	"pdv/internal/log"
	"pdv/internal/middleware/trace"
	"pdv/internal/session"
)

const sessionCookieName = "pdv_session"

// sessionFor returns the caller's session, starting a new one when the
// cookie is missing or names an expired session. The cookie is refreshed on
// every request so its lifetime tracks the server-side TTL.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	var id string
	if c, err := r.Cookie(sessionCookieName); err == nil {
		id = c.Value
	}

	sess, created, err := s.store.GetOrCreate(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if created && id != "" {
		s.log(r).WithComponent(log.ComponentSession).DebugContext(r.Context(), "Unknown session cookie, started a new session",
			log.FieldSessionID, sess.ID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// writeSessionError reports failures that are not caused by user input.
func (s *Server) writeSessionError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if errors.Is(err, session.ErrClosed) {
		GoneError("La sesión terminó. Recarga la página.").Write(w)
		return
	}
	s.events.LogError(r.Context(), "Session operation failed", err, log.ComponentSession, op,
		log.NewFields().WithRequestID(trace.FromRequest(r)))
	InternalServerError("Error interno. Intenta de nuevo.").Write(w)
}
