package adminapi

// InitRouter registers every back-office route with the webserver registry.
// Must run before webserver.Init mounts the groups.
func InitRouter() {
	registerProductRoutes()
	registerServiceRoutes()
	registerClientRoutes()
	registerAppointmentRoutes()
	registerOrderRoutes()
	registerSchedulerRoutes()
	registerDashboardRoutes()
	registerReportRoutes()
	registerSettingsRoutes()
}
