package email

// Template is a string-based enum naming email templates.
type Template string

const (
	// TemplateOtpCode corresponds to templates/emails/otp_code.html.
	TemplateOtpCode Template = "otp_code"

	// TemplatePaymentReceipt corresponds to templates/emails/payment_receipt.html.
	TemplatePaymentReceipt Template = "payment_receipt"
)
