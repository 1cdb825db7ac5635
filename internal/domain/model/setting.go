package model

type Setting struct {
	ID                  int64
	MinBookingLength    int
	MaxBookingLength    int
	MaxGuestsPerBooking int
	BreakfastPrice      float64
}

func DefaultSetting() Setting {
	return Setting{
		MinBookingLength:    1,
		MaxBookingLength:    30,
		MaxGuestsPerBooking: 5,
		BreakfastPrice:      10.00,
	}
}
