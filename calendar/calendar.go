// Package calendar provides pure month arithmetic on unix timestamps.
//
// AddMonths and SubMonths compute "same day of month, N months away" with
// the day clamped to the last valid day when the target month is shorter
// (Jan 31 + 1 month = Feb 28/29, never Mar 3). The conversion between day
// counts and civil dates uses the proleptic-Gregorian integer algorithm,
// which is insensitive to calendar discontinuities and exact over the whole
// representable range.
package calendar

const secondsPerDay = 86400

// AddMonths returns ts shifted forward by months whole calendar months,
// clamping the day of month and preserving the time of day. It panics if
// months is negative or if the result would move backward in time, which
// cannot happen for in-range inputs.
func AddMonths(ts int64, months int) int64 {
	if months < 0 {
		panic("calendar: AddMonths requires months >= 0")
	}
	out := shiftMonths(ts, months)
	if out < ts {
		panic("calendar: AddMonths moved backward")
	}
	return out
}

// SubMonths returns ts shifted backward by months whole calendar months,
// clamping the day of month and preserving the time of day. It panics if
// months is negative or if the result would move forward in time.
func SubMonths(ts int64, months int) int64 {
	if months < 0 {
		panic("calendar: SubMonths requires months >= 0")
	}
	out := shiftMonths(ts, -months)
	if out > ts {
		panic("calendar: SubMonths moved forward")
	}
	return out
}

// shiftMonths performs the signed month shift shared by AddMonths and
// SubMonths.
func shiftMonths(ts int64, months int) int64 {
	days := floorDiv(ts, secondsPerDay)
	tod := ts - days*secondsPerDay

	y, m, d := civilFromDays(days)

	// Carry the month delta into the year. Months are 1-based.
	total := int64(y)*12 + int64(m-1) + int64(months)
	y = int(floorDiv(total, 12))
	m = int(total-int64(y)*12) + 1

	if dim := DaysInMonth(y, m); d > dim {
		d = dim
	}

	return daysFromCivil(y, m, d)*secondsPerDay + tod
}

// IsLeapYear reports whether y is a leap year in the proleptic Gregorian
// calendar: divisible by 4 and not by 100, or divisible by 400.
func IsLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// DaysInMonth returns the number of days in the given month (1-12) of year y.
func DaysInMonth(y, m int) int {
	switch m {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeapYear(y) {
			return 29
		}
		return 28
	default:
		panic("calendar: month out of range")
	}
}

// daysFromCivil converts a civil date to a count of days since 1970-01-01.
func daysFromCivil(y, m, d int) int64 {
	if m <= 2 {
		y--
	}
	era := floorDiv(int64(y), 400)
	yoe := int64(y) - era*400 // [0, 399]
	var mp int64
	if m > 2 {
		mp = int64(m) - 3
	} else {
		mp = int64(m) + 9
	}
	doy := (153*mp+2)/5 + int64(d) - 1       // [0, 365]
	doe := yoe*365 + yoe/4 - yoe/100 + doy   // [0, 146096]
	return era*146097 + doe - 719468
}

// civilFromDays converts a count of days since 1970-01-01 to a civil date.
func civilFromDays(z int64) (y, m, d int) {
	z += 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097                                    // [0, 146096]
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365   // [0, 399]
	yr := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)                 // [0, 365]
	mp := (5*doy + 2) / 153                                  // [0, 11]
	d = int(doy - (153*mp+2)/5 + 1)
	if mp < 10 {
		m = int(mp) + 3
	} else {
		m = int(mp) - 9
	}
	y = int(yr)
	if m <= 2 {
		y++
	}
	return y, m, d
}

// floorDiv is integer division rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
