package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOprLog{},
	// Accounts
	&User{},
	// Catalog
	&Product{},
	&Service{},
	// Bookings and sales
	&Appointment{},
	&Order{},
	&OrderItem{},
	// Operations
	&ShopScheduler{},
}
