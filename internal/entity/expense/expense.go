package expense

import "time"

// DateLayout is the calendar format expenses are keyed by. Dates are kept
// as the verbatim string the user picked, no time component.
const DateLayout = "02.01.2006"

// Categories is the fixed set offered on the category keyboard.
var Categories = []string{
	"Supermarket",
	"Eating Out",
	"Drinking",
	"Busses etc",
	"Car Rental",
	"LocalTransport",
	"Flights",
	"Hotels",
	"Trips",
	"Various",
}

// Record is one finalized expense. Amount is already converted to the
// base currency.
type Record struct {
	Date        string
	Amount      float64
	Category    string
	Description string
}

// ParseDate turns the stored date string into a comparable calendar value.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}
