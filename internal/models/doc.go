// Package models defines the core domain models for Cobill.
//
// # Models
//
//   - User: registered account; may create sessions and join them by user ID
//   - Session: one bill-splitting event, joined through its short public code
//   - Participant: a registered user or a named guest inside one session
//   - Item: an expense line recorded against a participant
//   - SessionItem: an Item decorated with participant and session details
//   - SessionTotals: subtotal, tip percentage and payable total of a session
//
// # Design Principles
//
// 1. **Derived totals**: nothing stores a running total; totals are recomputed
// from items on every query
// 2. **Exact money**: amounts and tip percentages are decimal.Decimal values,
// serialized as JSON numbers
// 3. **IDs over pointers**: relationships are expressed through int64 IDs
package models

import "github.com/shopspring/decimal"

func init() {
	// Amounts go over the wire as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}
