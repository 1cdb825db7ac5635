package enums

const (
	PermManageBookings   = "manage-bookings"
	PermManageProperties = "manage-properties"
	PermManageSettings   = "manage-settings"
)
