package dataprocessing

import (
	"math"
	"strings"
	"time"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// MonthKey truncates a date to its calendar month, "2006-01".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// BuildAttendanceDays collapses attendance rows to one day per technician and
// calendar date. Worked, billable and total hours are summed over every row;
// theoretical hours come from the last row and the team from the first.
// Logged hours use the total-hours column when the export has one, worked
// hours otherwise. Status is left for the classifier.
func BuildAttendanceDays(table domain.CanonicalTable) ([]domain.AttendanceDay, int) {
	key := func(r domain.CanonicalRecord) string {
		d, _ := r.Date(domain.FieldDate)
		return r.Str(domain.FieldTechnician) + "\x00" + d.Format("2006-01-02")
	}

	rows := make(map[string]int)
	for _, r := range table.Records {
		rows[key(r)]++
	}

	collapsed, folded := Collapse(table.Records, key, CollapsePolicy{
		SortField: domain.FieldDate,
		Sum:       []string{domain.FieldWorkedHours, domain.FieldBillableHours, domain.FieldTotalHours},
	})

	useTotal := table.HasField(domain.FieldTotalHours)
	days := make([]domain.AttendanceDay, 0, len(collapsed))
	for _, r := range collapsed {
		date, _ := r.Date(domain.FieldDate)
		worked := r.NumOrZero(domain.FieldWorkedHours)
		logged := worked
		if useTotal {
			logged = r.NumOrZero(domain.FieldTotalHours)
		}
		days = append(days, domain.AttendanceDay{
			Technician:       r.Str(domain.FieldTechnician),
			Team:             r.Str(domain.FieldTeam),
			Date:             date,
			Month:            MonthKey(date),
			WorkedHours:      worked,
			BillableHours:    r.NumOrZero(domain.FieldBillableHours),
			LoggedHours:      logged,
			TheoreticalHours: r.NumOrZero(domain.FieldTheoreticalHours),
			Weekend:          IsWeekend(date),
			SourceRows:       rows[key(r)],
		})
	}

	return days, folded
}

// WorkOrderStats counts what BuildWorkOrders absorbed.
type WorkOrderStats struct {
	Duplicates int
	Excluded   int
}

// BuildWorkOrders collapses order lines by order id and derives reference
// time and efficiency. Reference time is the sold time when set, the quoted
// time otherwise; orders whose reference is null or not positive are
// excluded. When statusJoined is false the order's own position column
// stands in for the status extract.
func BuildWorkOrders(table domain.CanonicalTable, statusJoined bool) ([]domain.WorkOrder, WorkOrderStats) {
	var stats WorkOrderStats

	collapsed, folded := Collapse(table.Records, FieldKey(domain.FieldOrderID), CollapsePolicy{
		SortField: domain.FieldOrderDate,
	})
	stats.Duplicates = folded

	orders := make([]domain.WorkOrder, 0, len(collapsed))
	for _, r := range collapsed {
		ref, ok := r.Num(domain.FieldSoldTime)
		if !ok {
			ref, ok = r.Num(domain.FieldQuotedTime)
		}
		if !ok || ref <= 0 {
			stats.Excluded++
			continue
		}

		wo := domain.WorkOrder{
			ID:            r.Str(domain.FieldOrderID),
			Team:          r.Str(domain.FieldTeam),
			Technician:    r.Str(domain.FieldTechnician),
			Type:          r.Str(domain.FieldOrderType),
			Customer:      r.Str(domain.FieldCustomer),
			Planned:       r.Str(domain.FieldPlanned),
			ReferenceTime: ref,
		}

		statusField := domain.FieldStatus
		if !statusJoined {
			statusField = domain.FieldPosition
		}
		if s := r.Str(statusField); s != "" {
			wo.Status = &s
		}

		if consumed, ok := r.Num(domain.FieldConsumedTime); ok {
			c := consumed
			eff := consumed / ref
			wo.ConsumedTime = &c
			wo.Efficiency = &eff
		}
		if d, ok := r.Date(domain.FieldOrderDate); ok {
			wo.Date = &d
		}

		orders = append(orders, wo)
	}

	return orders, stats
}

// InvoiceFilter scopes the billing lines before invoice dedup.
type InvoiceFilter struct {
	Quarter      domain.Quarter
	Manufacturer string
}

// InvoiceStats counts what BuildInvoices absorbed.
type InvoiceStats struct {
	OutOfScope int
	Duplicates int
	Excluded   int
}

// BuildInvoices filters billing lines to the manufacturer and the quarter of
// their invoice date, collapses them per invoice number keeping the latest
// attendance and invoice dates, and computes the lead time in days. Negative
// lead times are excluded.
func BuildInvoices(table domain.CanonicalTable, filter InvoiceFilter) ([]domain.Invoice, InvoiceStats) {
	var stats InvoiceStats
	manufacturer := strings.ToUpper(strings.TrimSpace(filter.Manufacturer))

	scoped := make([]domain.CanonicalRecord, 0, len(table.Records))
	for _, r := range table.Records {
		if manufacturer != "" && strings.ToUpper(strings.TrimSpace(r.Str(domain.FieldManufacturer))) != manufacturer {
			stats.OutOfScope++
			continue
		}
		invDate, _ := r.Date(domain.FieldInvoiceDate)
		if !filter.Quarter.Contains(invDate) {
			stats.OutOfScope++
			continue
		}
		scoped = append(scoped, r)
	}

	lines := make(map[string]int)
	for _, r := range scoped {
		lines[r.Str(domain.FieldInvoiceNumber)]++
	}

	collapsed, folded := Collapse(scoped, FieldKey(domain.FieldInvoiceNumber), CollapsePolicy{
		SortField: domain.FieldLastAttendance,
		Latest:    []string{domain.FieldLastAttendance, domain.FieldInvoiceDate},
	})
	stats.Duplicates = folded

	invoices := make([]domain.Invoice, 0, len(collapsed))
	for _, r := range collapsed {
		invDate, _ := r.Date(domain.FieldInvoiceDate)
		lastAtt, _ := r.Date(domain.FieldLastAttendance)

		days := DaysBetween(lastAtt, invDate)
		if days < 0 {
			stats.Excluded++
			continue
		}

		invoices = append(invoices, domain.Invoice{
			Number:          r.Str(domain.FieldInvoiceNumber),
			OrderID:         r.Str(domain.FieldOrderID),
			Customer:        r.Str(domain.FieldCustomer),
			EquipmentSerial: r.Str(domain.FieldEquipmentSerial),
			Manufacturer:    r.Str(domain.FieldManufacturer),
			Team:            r.Str(domain.FieldTeam),
			InvoiceDate:     invDate,
			LastAttendance:  lastAtt,
			LeadTimeDays:    days,
			Lines:           lines[r.Str(domain.FieldInvoiceNumber)],
		})
	}

	return invoices, stats
}

// DaysBetween returns the whole calendar days from start to end.
func DaysBetween(start, end time.Time) int {
	s := truncateDay(start)
	e := truncateDay(end)
	return int(math.Round(e.Sub(s).Hours() / 24))
}
