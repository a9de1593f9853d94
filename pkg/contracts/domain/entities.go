package domain

import (
	"time"
)

// ConformityStatus classifies a technician-day against its expected hours.
type ConformityStatus string

const (
	StatusNonConforme    ConformityStatus = "NonConforme"
	StatusIncomplet      ConformityStatus = "Incomplet"
	StatusConforme       ConformityStatus = "Conforme"
	StatusSurpointage    ConformityStatus = "Surpointage"
	StatusWeekendOK      ConformityStatus = "WeekendOK"
	StatusTravailWeekend ConformityStatus = "TravailWeekend"
)

// ConformityStatuses returns the six statuses in display order.
func ConformityStatuses() []ConformityStatus {
	return []ConformityStatus{
		StatusNonConforme,
		StatusIncomplet,
		StatusConforme,
		StatusSurpointage,
		StatusWeekendOK,
		StatusTravailWeekend,
	}
}

// Label returns the French label used in the exports and reports.
func (s ConformityStatus) Label() string {
	switch s {
	case StatusNonConforme:
		return "Non conforme"
	case StatusIncomplet:
		return "Incomplet"
	case StatusConforme:
		return "Conforme"
	case StatusSurpointage:
		return "Surpointage"
	case StatusWeekendOK:
		return "Weekend OK"
	case StatusTravailWeekend:
		return "Travail weekend"
	}
	return string(s)
}

// StatusInProgress is the work-order position for orders still open ("encours").
const StatusInProgress = "EC"

// AttendanceDay is one technician on one calendar date, all source rows summed.
type AttendanceDay struct {
	Technician       string           `json:"technician"`
	Team             string           `json:"team"`
	Date             time.Time        `json:"date"`
	Month            string           `json:"month"`
	WorkedHours      float64          `json:"worked_hours"`
	BillableHours    float64          `json:"billable_hours"`
	LoggedHours      float64          `json:"logged_hours"`
	TheoreticalHours float64          `json:"theoretical_hours"`
	Weekend          bool             `json:"weekend"`
	Status           ConformityStatus `json:"status"`
	SourceRows       int              `json:"source_rows"`
}

// WorkOrder is a repair order with its reference and consumed times.
// Status is nil when no status extract row matched the order.
type WorkOrder struct {
	ID            string     `json:"id"`
	Team          string     `json:"team,omitempty"`
	Technician    string     `json:"technician,omitempty"`
	Type          string     `json:"type,omitempty"`
	Customer      string     `json:"customer,omitempty"`
	Planned       string     `json:"planned,omitempty"`
	Status        *string    `json:"status"`
	ReferenceTime float64    `json:"reference_time"`
	ConsumedTime  *float64   `json:"consumed_time"`
	Efficiency    *float64   `json:"efficiency"`
	Date          *time.Time `json:"date,omitempty"`
}

// StatusOrUnknown returns the joined status or "unknown".
func (w WorkOrder) StatusOrUnknown() string {
	if w.Status == nil {
		return "unknown"
	}
	return *w.Status
}

// Invoice is one invoice number collapsed from its billing lines.
type Invoice struct {
	Number          string    `json:"number"`
	OrderID         string    `json:"order_id,omitempty"`
	Customer        string    `json:"customer,omitempty"`
	EquipmentSerial string    `json:"equipment_serial,omitempty"`
	Manufacturer    string    `json:"manufacturer,omitempty"`
	Team            string    `json:"team,omitempty"`
	InvoiceDate     time.Time `json:"invoice_date"`
	LastAttendance  time.Time `json:"last_attendance"`
	LeadTimeDays    int       `json:"lead_time_days"`
	Lines           int       `json:"lines"`
}
