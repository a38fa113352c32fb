// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package http

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuGH/greeter/internal/control/http/problem"
	"github.com/ManuGH/greeter/internal/control/middleware"
	"github.com/ManuGH/greeter/internal/csrf"
	"github.com/ManuGH/greeter/internal/forms"
	"github.com/ManuGH/greeter/internal/log"
	"github.com/ManuGH/greeter/internal/metrics"
	"github.com/ManuGH/greeter/internal/session"
	"github.com/ManuGH/greeter/internal/telemetry"
)

const (
	// GreetingPath serves the name form.
	GreetingPath = "/hello"

	maxFormBytes = 64 << 10

	msgNameChanged = "Looks like you have changed your name!"
	msgCSRFInvalid = "The CSRF token is invalid."
	msgCSRFExpired = "The CSRF token has expired."
	msgCSRFMissing = "The CSRF token is missing."
	defaultGreetee = "Stranger"
)

// storeErrorLog throttles store failure logs during an outage; the
// error counter still sees every failure.
var storeErrorLog = rate.Sometimes{First: 1, Interval: 10 * time.Second}

var greetingPage = template.Must(template.New("greeting").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Greeter</title>
</head>
<body>
{{range .Flashes}}<div class="alert alert-warning">{{.}}</div>
{{end}}<div class="page-header"><h1>Hello, {{.Name}}!</h1></div>
{{with .CSRFError}}<div class="alert alert-danger">{{.}}</div>
{{end}}{{.Form}}</body>
</html>
`))

type greetingView struct {
	Name      string
	Flashes   []string
	CSRFError string
	Form      template.HTML
}

// GreetingHandler serves the name form and remembers the submitted name in
// the visitor's session.
type GreetingHandler struct {
	sessions *session.Manager
	csrf     *csrf.Protector
	backend  string
}

// NewGreetingHandler creates the handler. backend only labels traces.
func NewGreetingHandler(sessions *session.Manager, protector *csrf.Protector, backend string) *GreetingHandler {
	return &GreetingHandler{sessions: sessions, csrf: protector, backend: backend}
}

// ServeHTTP handles GET (render) and POST (submit, then redirect).
func (h *GreetingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "greeting")

	sess, err := h.sessions.Get(w, r)
	if err != nil {
		metrics.RecordSessionStoreError("load")
		storeErrorLog.Do(func() {
			logger.Error().Err(err).Str(log.FieldEvent, "session.load_failed").Msg("session store unavailable")
		})
		problem.Write(w, r, http.StatusServiceUnavailable, "session/unavailable", "Service Unavailable",
			"SESSION_UNAVAILABLE", "Session storage is temporarily unavailable.", nil)
		return
	}
	middleware.AddSpanAttributes(r, telemetry.SessionAttributes(h.backend, sess.IsNew)...)

	raw, created, err := sess.CSRFToken()
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "csrf.generate_failed").Msg("cannot create CSRF token")
		problem.Write(w, r, http.StatusInternalServerError, "csrf/generate", "Internal Server Error",
			"CSRF_UNAVAILABLE", "", nil)
		return
	}
	dirty := created

	form := forms.NewNameForm()
	form.Action = GreetingPath
	view := greetingView{}
	status := http.StatusOK

	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		ok, err := form.ValidateOnSubmit(r, func(token string) error {
			return h.csrf.Validate(raw, token)
		})

		switch {
		case csrfFailure(err) != "":
			view.CSRFError = csrfFailure(err)
			status = http.StatusBadRequest
			h.recordSubmission(r, metrics.SubmissionCSRF)
			logger.Warn().Err(err).Str(log.FieldEvent, "form.csrf_rejected").Msg("rejected form submission")

		case err != nil:
			problem.Write(w, r, http.StatusBadRequest, "form/malformed", "Bad Request",
				"FORM_MALFORMED", "The submitted form could not be read.", nil)
			return

		case !ok:
			h.recordSubmission(r, metrics.SubmissionInvalid)

		default:
			name := form.Field("name").Data
			if old := sess.Data.Name; old != "" && old != name {
				sess.AddFlash(msgNameChanged)
				metrics.RecordNameChange()
			}
			sess.Data.Name = name
			if err := sess.Save(r.Context()); err != nil {
				h.saveFailed(w, r, err)
				return
			}
			h.recordSubmission(r, metrics.SubmissionOK)
			logger.Info().
				Str(log.FieldEvent, "form.accepted").
				Str(log.FieldSessionID, sess.ID).
				Msg("name stored")
			http.Redirect(w, r, GreetingPath, http.StatusSeeOther)
			return
		}
	}

	view.Flashes = sess.PopFlashes()
	if len(view.Flashes) > 0 {
		dirty = true
	}
	if dirty {
		if err := sess.Save(r.Context()); err != nil {
			h.saveFailed(w, r, err)
			return
		}
	}

	view.Name = sess.Data.Name
	if view.Name == "" {
		view.Name = defaultGreetee
	}
	view.Form, err = form.HTML(h.csrf.Generate(raw))
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "form.render_failed").Msg("cannot render form")
		problem.Write(w, r, http.StatusInternalServerError, "form/render", "Internal Server Error",
			"RENDER_FAILED", "", nil)
		return
	}

	w.Header().Set("Content-Type", ContentTypeHTML)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := greetingPage.Execute(w, view); err != nil {
		logger.Debug().Err(err).Str(log.FieldEvent, "greeting.write_failed").Msg("client went away")
	}
}

func (h *GreetingHandler) recordSubmission(r *http.Request, result string) {
	metrics.RecordFormSubmission(result)
	middleware.AddSpanAttributes(r, telemetry.FormAttributes("name", result)...)
}

func (h *GreetingHandler) saveFailed(w http.ResponseWriter, r *http.Request, err error) {
	metrics.RecordSessionStoreError("save")
	storeErrorLog.Do(func() {
		logger := log.WithComponentFromContext(r.Context(), "greeting")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "session.save_failed").
			Msg("session store unavailable")
	})
	problem.Write(w, r, http.StatusServiceUnavailable, "session/unavailable", "Service Unavailable",
		"SESSION_UNAVAILABLE", "Session storage is temporarily unavailable.", nil)
}

// csrfFailure maps token errors to the message shown above the form.
func csrfFailure(err error) string {
	switch {
	case errors.Is(err, csrf.ErrMissingToken):
		return msgCSRFMissing
	case errors.Is(err, csrf.ErrExpiredToken):
		return msgCSRFExpired
	case errors.Is(err, csrf.ErrInvalidToken):
		return msgCSRFInvalid
	}
	return ""
}
