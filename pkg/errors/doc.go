// Package errors provides standardized error definitions for the radar
// relay server. All error definitions are centralized here to ensure
// consistency across the server components.
package errors
