// Package dataprocessing turns raw workshop exports into typed, joined
// records ready for KPI computation.
//
// # Stages
//
// Each stage takes an immutable input and returns a new value:
//
//  1. Parser reads an .xlsx export into a RawTable (first non-blank row is the header).
//  2. Resolver binds raw headers to canonical fields from the column catalog.
//  3. Normalizer types the resolved cells (hours, durations, dates, keys).
//  4. FilterRequired drops rows with a null identity field.
//  5. Collapse and LeftJoin merge duplicate keys and attach secondary exports.
//
// BuildAttendanceDays, BuildWorkOrders and BuildInvoices turn canonical
// tables into the domain entities consumed by the analytics package.
//
// # Usage
//
//	parser := dataprocessing.NewParser(logger)
//	raw, err := parser.ParseFile("pointage_mars.xlsx", domain.SourceAttendance)
//	if err != nil {
//	    return err
//	}
//	res, err := dataprocessing.NewResolver(catalog, logger).Resolve(raw)
//	if err != nil {
//	    return err // *errors.SchemaError lists the missing fields
//	}
//	table, _ := dataprocessing.NewNormalizer(logger).Normalize(raw, res)
package dataprocessing
