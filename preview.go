package spacetravelling

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetravelling/views"
)

const (
	sessionName   = "preview_session"
	previewRefKey = "ref"
	previewMaxAge = 60 * 60
)

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   previewMaxAge,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// previewRef returns the content ref of an active preview session, or ""
// to read published content.
func (a *App) previewRef(c echo.Context) string {
	if !a.Config.PreviewEnabled() {
		return ""
	}
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ""
	}
	ref, _ := sess.Values[previewRefKey].(string)
	return ref
}

// handlePreview starts a preview session for the ref in ?token= and
// redirects to the document named by ?documentId=.
func (a *App) handlePreview(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing preview token")
	}
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[previewRefKey] = token
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}

	documentID := c.QueryParam("documentId")
	if documentID == "" {
		return c.Redirect(http.StatusTemporaryRedirect, "/")
	}
	post, err := a.Store.GetPostByID(c.Request().Context(), token, documentID)
	if errors.Is(err, ErrNotFound) {
		return c.Redirect(http.StatusTemporaryRedirect, "/")
	}
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, views.PostPath(post.UID))
}

func (a *App) handleExitPreview(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, previewRefKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, "/")
}
