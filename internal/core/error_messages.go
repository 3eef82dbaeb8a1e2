// Package core provides the business logic for requisitions, imports and
// component inventory.
//
// # Error Codes Reference
//
// This file maps technical errors to user-facing messages with codes for
// support reference. Users quote the code; staff look it up here.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - File too large: File exceeds the import size limit
//	         Patterns: "file too large"
//	IMP002 - Unsupported file: Only .csv and .xlsx files can be imported
//	         Patterns: "unsupported file type"
//	IMP003 - No file: No file was selected
//	         Patterns: "no file provided"
//	IMP004 - System busy: Too many imports in progress
//	         Patterns: "too many concurrent imports"
//	IMP005 - Preview expired: Import preview not found
//	         Patterns: "import preview not found"
//	IMP006 - Nothing to commit: The preview contains no valid items
//	         Patterns: "has no valid items"
//	IMP007 - Unknown kind: Component kind is not configured
//	         Patterns: "unknown component kind"
//	IMP008 - Malformed file: The file could not be parsed
//	         Patterns: "parse error", "zip: not a valid zip file"
//
// # Requisition Errors (REQ001-REQ099)
//
//	REQ001 - Invalid transition: The status change is not allowed
//	         Patterns: "invalid status transition"
//	REQ002 - Locked: Items can only be added while Pending
//	         Patterns: "no longer pending"
//	REQ003 - Invalid input: Submitted data failed validation
//	         Patterns: "validation failed"
//	REQ004 - Insufficient stock: Not enough components on hand
//	         Patterns: "insufficient stock"
//	REQ005 - Not found: The record does not exist
//	         Patterns: "not found"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate: A record with this key already exists
//	        Patterns: "duplicate key", "already exists"
//	DB002 - Unique constraint: This value must be unique
//	        Patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key: Referenced record does not exist
//	        Patterns: "foreign key constraint", "violates foreign key"
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout: "timeout", "context deadline exceeded"
//	DB007 - Busy: "deadlock", "database is locked"
//
// # Auth and Rate Limiting
//
//	AUTH001 - Authentication required: "authentication required", "invalid api key"
//	RATE001 - Rate limited: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the server log for the technical
// error.
//
// # Pattern Matching
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so specific patterns precede general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is ordered: the first matching pattern wins.
var errorPatterns = []errorPattern{
	// Import
	{"file too large", UserMessage{"File exceeds the import size limit", "Split the file into smaller files", "IMP001"}},
	{"unsupported file type", UserMessage{"Only .csv and .xlsx files can be imported", "Save the sheet as CSV or XLSX and try again", "IMP002"}},
	{"no file provided", UserMessage{"No file was selected", "Choose a CSV or XLSX file to import", "IMP003"}},
	{"too many concurrent imports", UserMessage{"Too many imports in progress", "Please wait a moment and try again", "IMP004"}},
	{"import preview not found", UserMessage{"The import preview has expired", "Upload the file again", "IMP005"}},
	{"has no valid items", UserMessage{"The import contains no valid items", "Fix the listed rows and upload again", "IMP006"}},
	{"unknown component kind", UserMessage{"This component type is not configured", "Use resistor, capacitor, transistor or mosfet", "IMP007"}},
	{"parse error", UserMessage{"The file could not be parsed", "Check the file is a well-formed CSV", "IMP008"}},
	{"zip: not a valid zip file", UserMessage{"The file could not be parsed", "Check the file is a valid Excel workbook", "IMP008"}},

	// Requisitions
	{"invalid status transition", UserMessage{"That status change is not allowed", "Refresh the requisition and check its current status", "REQ001"}},
	{"no longer pending", UserMessage{"Items can only be added while the requisition is Pending", "Duplicate the requisition to request more items", "REQ002"}},
	{"validation failed", UserMessage{"Some of the submitted values are invalid", "Correct the highlighted fields and try again", "REQ003"}},
	{"insufficient stock", UserMessage{"Not enough components on hand", "Reduce the quantity or raise a requisition", "REQ004"}},

	// Database
	{"duplicate key", UserMessage{"A record with this key already exists", "Use a different code or edit the existing record", "DB001"}},
	{"already exists", UserMessage{"A record with this key already exists", "Use a different code or edit the existing record", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check for duplicate entries", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Review your data for duplicate key values", "DB002"}},
	{"foreign key constraint", UserMessage{"Referenced record does not exist", "Create the project or requisition first", "DB003"}},
	{"violates foreign key", UserMessage{"Referenced record does not exist", "Create the project or requisition first", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"context deadline exceeded", UserMessage{"Operation timed out", "Please try again later", "DB006"}},
	{"timeout", UserMessage{"Operation timed out", "Please try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},
	{"database is locked", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},

	// Must follow "import preview not found".
	{"not found", UserMessage{"The requested record does not exist", "Check the link or identifier", "REQ005"}},

	// Auth and throttling
	{"authentication required", UserMessage{"You need to sign in", "Provide a valid bearer token", "AUTH001"}},
	{"invalid api key", UserMessage{"The API key is invalid", "Check the X-API-Key header", "AUTH001"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. It returns
// the first matching pattern, or the ERR000 fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a specific catalogue entry rather
// than the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. It returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
