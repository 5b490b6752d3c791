// Package errs defines custom error types and utilities.
//
// Its purpose is to give every API error a consistent, client-consumable
// shape (machine code, message, HTTP status, optional field errors) and to
// keep expected negative outcomes distinguishable from internal faults.
// Handlers and services return these; the global error handler serializes
// them.
package errs
