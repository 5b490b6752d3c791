package email

// PreviewData contains sample template data for local preview, keyed by
// template name.
var PreviewData = map[string]map[string]string{
	"otp_code": {
		"BookingRef": "VR-2024-001",
		"Code":       "482913",
	},
	"payment_receipt": {
		"TxnRef": "3f6d2a1e-9c4b-4a57-8318-2f0f2d7b9b41",
		"Amount": "150,000 VND",
	},
}
