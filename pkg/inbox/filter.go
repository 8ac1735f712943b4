package inbox

import "time"

// Filter is a symbolic time window. The zero value is FilterAll.
type Filter int

const (
	FilterAll Filter = iota
	FilterToday
	FilterYesterday
)

// ParseFilter maps a filter name to a Filter. Unknown names, including the
// empty string, select FilterAll.
func ParseFilter(name string) Filter {
	switch name {
	case "today":
		return FilterToday
	case "yesterday":
		return FilterYesterday
	default:
		return FilterAll
	}
}

func (f Filter) String() string {
	switch f {
	case FilterToday:
		return "today"
	case FilterYesterday:
		return "yesterday"
	default:
		return "all"
	}
}

// Resolve turns a filter into a time range relative to now, using the calendar
// days of loc (time.Local when nil). FilterAll resolves to nil.
//
// Day lengths come from AddDate, so yesterday.LT always equals today.GTE even
// across a DST transition.
func Resolve(filter Filter, now time.Time, loc *time.Location) *TimeRange {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch filter {
	case FilterToday:
		return &TimeRange{GTE: start, LT: start.AddDate(0, 0, 1)}
	case FilterYesterday:
		return &TimeRange{GTE: start.AddDate(0, 0, -1), LT: start}
	default:
		return nil
	}
}
