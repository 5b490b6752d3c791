// Package validation contains the logic for validating request data.
//
// It uses the validator library to enforce rules (required fields, ranges,
// formats) declared in struct tags, and extracts validation failures into a
// field-level format the client can act on.
package validation
