package webserver

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/barberdesk/barberdesk/internal/app"
)

const (
	sessionName    = "barberdesk"
	sessionCartKey = "cart_id"
	sessionMaxAge  = 7 * 24 * 3600
)

// CartID returns the cart ID bound to the client session, minting and
// persisting a fresh one on first use. The same anonymous cart follows the
// client through login since the cookie survives authentication.
func CartID(c echo.Context) string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		// unreadable cookie, start a new session
		return newCartSession(c)
	}
	if id, ok := sess.Values[sessionCartKey].(string); ok && id != "" {
		return id
	}
	return newCartSession(c)
}

func newCartSession(c echo.Context) string {
	sess, err := session.Get(sessionName, c)
	if err != nil || sess == nil {
		return uuid.NewString()
	}
	id := uuid.NewString()
	sess.Values[sessionCartKey] = id
	sess.Options.Path = "/"
	sess.Options.MaxAge = sessionMaxAge
	sess.Options.HttpOnly = true
	_ = sess.Save(c.Request(), c.Response())
	return id
}

// GetDB pulls the request scoped database handle.
func GetDB(c echo.Context) *gorm.DB {
	return c.Get(ctxKeyDB).(*gorm.DB)
}

// GetAppContext pulls the application context.
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(ctxKeyAppCtx).(app.AppContext)
}
