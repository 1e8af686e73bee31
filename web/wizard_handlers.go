package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"statuslookup/application"
	"statuslookup/wizard"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

type stepView struct {
	Number int
	Title  string
	Done   bool
}

type pageData struct {
	Steps      []stepView
	Progress   int
	Step       string
	State      wizard.Snapshot
	FormatHint string
	Support    Support
}

// loadWizard rebuilds the caller's wizard from its cookie. A missing or
// unreadable cookie starts a fresh wizard on the Welcome step.
func (s *Server) loadWizard(r *http.Request) *wizard.Wizard {
	wz := wizard.New(s.lookup, wizard.WithReturnStep(s.returnStep))

	cookie, err := r.Cookie(s.cookie.Name)
	if err != nil {
		return wz
	}
	snap, err := s.codec.Decode(cookie.Value)
	if err != nil {
		s.logger.Debug("discarding wizard cookie", zap.Error(err))
		return wz
	}
	if err := wz.Restore(snap); err != nil {
		s.logger.Debug("discarding wizard state", zap.Error(err))
	}
	return wz
}

func (s *Server) saveWizard(w http.ResponseWriter, wz *wizard.Wizard) error {
	token, err := s.codec.Encode(wz.Snapshot())
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.codec.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) handleWizard(w http.ResponseWriter, r *http.Request) {
	snap := s.loadWizard(r).Snapshot()

	data := pageData{
		Progress:   snap.Step.Progress(),
		Step:       snap.Step.String(),
		State:      snap,
		FormatHint: application.FormatHint,
		Support:    s.support,
	}
	for i, info := range wizard.Steps {
		data.Steps = append(data.Steps, stepView{
			Number: i + 1,
			Title:  info.Title,
			Done:   int(snap.Step) >= i,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("render wizard", zap.Error(err))
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	wz := s.loadWizard(r)
	if err := wz.Start(); err != nil {
		s.redirectHome(w, r)
		return
	}
	s.finish(w, r, wz)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	wz := s.loadWizard(r)
	id := r.PostForm.Get("submission_id")

	err := wz.Submit(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, wizard.ErrWrongStep):
		s.redirectHome(w, r)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// the client went away mid-lookup; nothing to save
		return
	default:
		s.logger.Error("lookup failed", zap.String("submission_id", id), zap.Error(err))
	}
	s.finish(w, r, wz)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	wz := s.loadWizard(r)
	if err := wz.CheckAnother(); err != nil {
		s.redirectHome(w, r)
		return
	}
	s.finish(w, r, wz)
}

func (s *Server) finish(w http.ResponseWriter, r *http.Request, wz *wizard.Wizard) {
	if err := s.saveWizard(w, wz); err != nil {
		s.logger.Error("save wizard", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.redirectHome(w, r)
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
