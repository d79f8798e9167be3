package webserver

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/barberdesk/barberdesk/internal/app"
	"github.com/c-robinson/iplib"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/barberdesk/barberdesk/docs"
)

// Context keys set by the injector middleware.
const (
	ctxKeyDB     = "gorm"
	ctxKeyAppCtx = "appctx"
)

type routeEntry struct {
	method  string
	path    string
	handler echo.HandlerFunc
}

// Route registries. Handler packages append during their InitRouter, the
// server mounts everything when Init runs.
var (
	adminRoutes []routeEntry // /api/v1/admin, JWT + admin role
	pubRoutes   []routeEntry // /api/v1/shop, public with session cookie
	authRoutes  []routeEntry // /api/v1/shop, JWT required
)

// ApiGET registers an admin API route.
func ApiGET(path string, h echo.HandlerFunc) {
	adminRoutes = append(adminRoutes, routeEntry{http.MethodGet, path, h})
}

func ApiPOST(path string, h echo.HandlerFunc) {
	adminRoutes = append(adminRoutes, routeEntry{http.MethodPost, path, h})
}

func ApiPUT(path string, h echo.HandlerFunc) {
	adminRoutes = append(adminRoutes, routeEntry{http.MethodPut, path, h})
}

func ApiDELETE(path string, h echo.HandlerFunc) {
	adminRoutes = append(adminRoutes, routeEntry{http.MethodDelete, path, h})
}

// PubGET registers a public shop route.
func PubGET(path string, h echo.HandlerFunc) {
	pubRoutes = append(pubRoutes, routeEntry{http.MethodGet, path, h})
}

func PubPOST(path string, h echo.HandlerFunc) {
	pubRoutes = append(pubRoutes, routeEntry{http.MethodPost, path, h})
}

func PubPUT(path string, h echo.HandlerFunc) {
	pubRoutes = append(pubRoutes, routeEntry{http.MethodPut, path, h})
}

func PubDELETE(path string, h echo.HandlerFunc) {
	pubRoutes = append(pubRoutes, routeEntry{http.MethodDelete, path, h})
}

// AuthGET registers a shop route that requires a signed in user.
func AuthGET(path string, h echo.HandlerFunc) {
	authRoutes = append(authRoutes, routeEntry{http.MethodGet, path, h})
}

func AuthPOST(path string, h echo.HandlerFunc) {
	authRoutes = append(authRoutes, routeEntry{http.MethodPost, path, h})
}

func AuthPUT(path string, h echo.HandlerFunc) {
	authRoutes = append(authRoutes, routeEntry{http.MethodPut, path, h})
}

func AuthDELETE(path string, h echo.HandlerFunc) {
	authRoutes = append(authRoutes, routeEntry{http.MethodDelete, path, h})
}

// WebServer hosts both API surfaces on one echo instance.
type WebServer struct {
	root   *echo.Echo
	appCtx app.AppContext
}

var server *WebServer

// Init builds the echo instance, mounts middleware and all registered
// routes. Call after the handler packages registered their routes.
func Init(appCtx app.AppContext) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewEchoValidator()

	cfg := appCtx.Config()

	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(cfg.Web.Secret))))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ctxKeyDB, appCtx.DB())
			c.Set(ctxKeyAppCtx, appCtx)
			return next(c)
		}
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	jwtmw := jwtMiddleware(cfg.Web.Secret)

	admin := e.Group("/api/v1/admin", jwtmw, adminOnly, adminAllowCidr(cfg.Web.AllowCidr))
	for _, r := range adminRoutes {
		admin.Add(r.method, r.path, r.handler)
	}

	pub := e.Group("/api/v1/shop")
	for _, r := range pubRoutes {
		pub.Add(r.method, r.path, r.handler)
	}

	auth := e.Group("/api/v1/shop", jwtmw)
	for _, r := range authRoutes {
		auth.Add(r.method, r.path, r.handler)
	}

	server = &WebServer{root: e, appCtx: appCtx}
	return server
}

// Start blocks serving HTTP until the listener fails.
func (s *WebServer) Start() error {
	cfg := s.appCtx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.L().Info("starting web server", zap.String("listen", addr))
	return s.root.Start(addr)
}

// Echo exposes the underlying instance, used by handler tests.
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			res := c.Response()
			zap.L().Debug("http request",
				zap.String("namespace", "web"),
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			)
			return nil
		}
	}
}

// adminAllowCidr rejects admin API calls from outside the configured CIDR
// allowlist. An empty list allows all sources.
func adminAllowCidr(allowCidr string) echo.MiddlewareFunc {
	var nets []iplib.Net
	for _, cidr := range strings.Split(allowCidr, ",") {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, ipnet, err := iplib.ParseCIDR(cidr)
		if err != nil {
			zap.L().Warn("ignoring invalid admin allow_cidr entry", zap.String("cidr", cidr), zap.Error(err))
			continue
		}
		nets = append(nets, ipnet)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(nets) == 0 {
				return next(c)
			}
			ip := net.ParseIP(c.RealIP())
			if ip != nil {
				for _, n := range nets {
					if n.Contains(ip) {
						return next(c)
					}
				}
			}
			return c.JSON(http.StatusForbidden, map[string]interface{}{
				"code":    "FORBIDDEN",
				"message": "Source address not allowed",
			})
		}
	}
}
