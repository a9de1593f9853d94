package analytics

import (
	"time"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

func mustDay(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// attendance builds a classified attendance day.
func attendance(tech, team, date string, worked, billable, theoretical float64) domain.AttendanceDay {
	d := mustDay(date)
	wd := d.Weekday()
	day := domain.AttendanceDay{
		Technician:       tech,
		Team:             team,
		Date:             d,
		Month:            d.Format("2006-01"),
		WorkedHours:      worked,
		BillableHours:    billable,
		LoggedHours:      worked,
		TheoreticalHours: theoretical,
		Weekend:          wd == time.Saturday || wd == time.Sunday,
		SourceRows:       1,
	}
	day.Status = Classify(day.LoggedHours, day.TheoreticalHours, day.Weekend)
	return day
}

func order(id, team, tech, status string, reference float64, consumed *float64) domain.WorkOrder {
	o := domain.WorkOrder{ID: id, Team: team, Technician: tech, Type: "Atelier", ReferenceTime: reference}
	if status != "" {
		s := status
		o.Status = &s
	}
	if consumed != nil {
		c := *consumed
		eff := c / reference
		o.ConsumedTime = &c
		o.Efficiency = &eff
	}
	return o
}

func f(v float64) *float64 {
	return &v
}
