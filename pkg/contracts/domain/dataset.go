package domain

import (
	"time"
)

// SourceKind identifies which export a table was read from.
type SourceKind string

const (
	SourceAttendance  SourceKind = "attendance"
	SourceWorkOrders  SourceKind = "work_orders"
	SourceOrderStatus SourceKind = "order_status"
	SourceInvoices    SourceKind = "invoices"
)

// SourceKinds lists every supported export in pipeline order.
func SourceKinds() []SourceKind {
	return []SourceKind{SourceAttendance, SourceWorkOrders, SourceOrderStatus, SourceInvoices}
}

// Valid reports whether k is a known source kind.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceAttendance, SourceWorkOrders, SourceOrderStatus, SourceInvoices:
		return true
	}
	return false
}

// Canonical field names shared by the column catalog and the pipeline stages.
const (
	FieldDate             = "date"
	FieldTechnician       = "technician"
	FieldTeam             = "team"
	FieldWorkedHours      = "worked_hours"
	FieldBillableHours    = "billable_hours"
	FieldTotalHours       = "total_hours"
	FieldTheoreticalHours = "theoretical_hours"

	FieldOrderID      = "order_id"
	FieldOrderType    = "order_type"
	FieldCustomer     = "customer"
	FieldPlanned      = "planned"
	FieldPosition     = "position"
	FieldSoldTime     = "sold_time"
	FieldQuotedTime   = "quoted_time"
	FieldConsumedTime = "consumed_time"
	FieldOrderDate    = "order_date"

	FieldStatus     = "status"
	FieldStatusDate = "status_date"

	FieldInvoiceNumber   = "invoice_number"
	FieldInvoiceDate     = "invoice_date"
	FieldLastAttendance  = "last_attendance_date"
	FieldEquipmentSerial = "equipment_serial"
	FieldManufacturer    = "manufacturer"
)

// RawRecord is one data row of an export, cells aligned with the table headers.
type RawRecord struct {
	Line  int      `json:"line"`
	Cells []string `json:"cells"`
}

// RawTable is an untyped export sheet as decoded from a workbook.
type RawTable struct {
	Source   SourceKind  `json:"source"`
	FileName string      `json:"file_name,omitempty"`
	Sheet    string      `json:"sheet,omitempty"`
	Headers  []string    `json:"headers"`
	Records  []RawRecord `json:"records"`
}

// Cell returns the value at column index i, or "" when the row is short.
func (r RawRecord) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// CanonicalRecord is a RawRecord after column resolution and typing.
// A field missing from its map is null.
type CanonicalRecord struct {
	Line    int                  `json:"line"`
	Text    map[string]string    `json:"text,omitempty"`
	Numbers map[string]float64   `json:"numbers,omitempty"`
	Dates   map[string]time.Time `json:"dates,omitempty"`
}

// Str returns the text value of field, "" when null.
func (r CanonicalRecord) Str(field string) string {
	return r.Text[field]
}

// Num returns the numeric value of field and whether it is set.
func (r CanonicalRecord) Num(field string) (float64, bool) {
	v, ok := r.Numbers[field]
	return v, ok
}

// NumOrZero returns the numeric value of field, 0 when null.
func (r CanonicalRecord) NumOrZero(field string) float64 {
	return r.Numbers[field]
}

// Date returns the date value of field and whether it is set.
func (r CanonicalRecord) Date(field string) (time.Time, bool) {
	v, ok := r.Dates[field]
	return v, ok
}

// Clone returns a deep copy so later stages never alias earlier outputs.
func (r CanonicalRecord) Clone() CanonicalRecord {
	out := CanonicalRecord{
		Line:    r.Line,
		Text:    make(map[string]string, len(r.Text)),
		Numbers: make(map[string]float64, len(r.Numbers)),
		Dates:   make(map[string]time.Time, len(r.Dates)),
	}
	for k, v := range r.Text {
		out.Text[k] = v
	}
	for k, v := range r.Numbers {
		out.Numbers[k] = v
	}
	for k, v := range r.Dates {
		out.Dates[k] = v
	}
	return out
}

// CanonicalTable is the typed output of the normalizer for one source.
type CanonicalTable struct {
	Source  SourceKind        `json:"source"`
	Fields  []string          `json:"fields"`
	Records []CanonicalRecord `json:"records"`
}

// HasField reports whether the resolver mapped field for this table.
func (t CanonicalTable) HasField(field string) bool {
	for _, f := range t.Fields {
		if f == field {
			return true
		}
	}
	return false
}
