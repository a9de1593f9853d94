// Package analytics computes the workshop KPIs from the entities built by
// dataprocessing: conformity of technician-days, productivity ratios,
// work-order efficiency, invoice lead time (LLTI) and the correlation of
// each team's monthly productivity with the whole population.
//
// Every function is pure. Inputs are never modified and ratios with a zero
// denominator are 0.
package analytics
