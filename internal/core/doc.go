// Package core is the domain layer of the parts desk: purchase requisitions,
// bulk item import, projects, component inventory and allocations.
//
// It is independent of transport and storage. Web handlers, the partsctl CLI
// and tests all drive it through [Service], which talks to persistence via
// the [Store] interface and to the stats cache via [Cache].
//
// # Bulk Item Import
//
// [ImportItems] decodes a .csv or .xlsx file, matches its header against the
// purchase item columns and validates every data row independently:
//
//	result := core.ImportItems("parts.csv", data)
//	// result.ValidItems: rows with no problems, defaults applied
//	// result.Errors:     one ValidationError per failed check
//
// The function is pure. [Service.PreviewImport] wraps it with a concurrency
// limiter and keeps the result for a short time so it can be committed into a
// requisition with [Service.CommitImport].
//
// # Import Schemas
//
// Column definitions are registered with [RegisterSchema]. Purchase items are
// registered by this package; component kinds are registered by
// internal/core/schemas and imported with [Service.ImportComponents].
//
// # Requisition Workflow
//
// Requisitions start Pending. [Service.TransitionStatus] enforces the
// allowed moves:
//
//	Pending     -> Approved | Rejected | Cancelled
//	Approved    -> In Progress | Cancelled
//	In Progress -> Completed | Cancelled
//
// Every change is recorded as a [RequisitionEvent] and shown on the timeline.
//
// # Error Handling
//
// Sentinel errors ([ErrNotFound], [ErrInvalidTransition], ...) are wrapped
// with %w. [MapError] turns any error into a coded [UserMessage].
package core
