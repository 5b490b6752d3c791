// Package lib acts as a library for modules that do not fit strictly
// into other layers.
//
// It contains the payment gateway client, the signature verification
// and idempotency primitives, background job processing (using
// Redis/Asynq), and email client integrations (Resend).
package lib
