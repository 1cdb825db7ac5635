package enums

type BookingStatus string

const (
	BookingUnconfirmed BookingStatus = "unconfirmed"
	BookingCheckedIn   BookingStatus = "checked-in"
	BookingCheckedOut  BookingStatus = "checked-out"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingUnconfirmed, BookingCheckedIn, BookingCheckedOut:
		return true
	}
	return false
}
