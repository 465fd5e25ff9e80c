package vlcb

// Weekday numbering used by the fast-clock broadcast, Sunday first.
type Weekday uint8

const (
	Sunday Weekday = 1 + iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// Month numbering used by the fast-clock broadcast.
type Month uint8

const (
	January Month = 1 + iota
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December
)

// PackWeekdayMonth packs the fast-clock wdmon octet: weekday in the low
// three bits, month shifted above it.
func PackWeekdayMonth(wd Weekday, m Month) uint8 {
	return uint8(wd)&0x07 | uint8(m)<<3
}

// UnpackWeekdayMonth splits a wdmon octet back into its halves.
func UnpackWeekdayMonth(wdmon uint8) (Weekday, Month) {
	return Weekday(wdmon & 0x07), Month(wdmon >> 3)
}
