package domain

import "time"

const DateLayout = "2006-01-02"

type ScheduleWindow struct {
	Wake  int    `json:"wake"`
	Sleep int    `json:"sleep"`
	Date  string `json:"date"`
}

// Online evaluates the half-open window [Wake, Sleep). Equal endpoints mean a 24h day;
// Wake > Sleep wraps past midnight.
func (w ScheduleWindow) Online(hour int) bool {
	switch {
	case w.Wake == w.Sleep:
		return true
	case w.Wake < w.Sleep:
		return hour >= w.Wake && hour < w.Sleep
	default:
		return hour >= w.Wake || hour < w.Sleep
	}
}

func (w ScheduleWindow) AssignedOn(date string) bool {
	return w.Date != "" && w.Date == date
}

func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
