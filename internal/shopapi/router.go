package shopapi

// InitRouter registers every public shop route with the webserver registry.
// Must run before webserver.Init mounts the groups.
func InitRouter() {
	registerAuthRoutes()
	registerCatalogRoutes()
	registerCartRoutes()
	registerCheckoutRoutes()
	registerBookingRoutes()
}
