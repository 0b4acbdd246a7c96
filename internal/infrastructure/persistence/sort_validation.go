package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// Common allowed sort fields for entities with base fields
// These are the common fields present in most entities

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// CheckSortFields contains allowed sort fields for checks
var CheckSortFields = map[string]bool{
	"id":                       true,
	"created_at":               true,
	"updated_at":               true,
	"serial_number":            true,
	"amount":                   true,
	"issue_date":               true,
	"due_date":                 true,
	"expected_collection_date": true,
	"state":                    true,
	"direction":                true,
	"channel":                  true,
	"payee_name":               true,
}

// CheckbookSortFields contains allowed sort fields for checkbooks
var CheckbookSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"range_start": true,
	"range_end":   true,
	"next_number": true,
	"state":       true,
	"description": true,
}

// ProjectionSortFields contains allowed sort fields for cash-flow projections
var ProjectionSortFields = map[string]bool{
	"date":       true,
	"amount":     true,
	"channel":    true,
	"sign":       true,
	"updated_at": true,
}

// LedgerSortFields contains allowed sort fields for bank ledger entries
var LedgerSortFields = map[string]bool{
	"date":       true,
	"created_at": true,
	"debit":      true,
	"credit":     true,
}
