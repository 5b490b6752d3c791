package email

// SendContractOtpEmail sends the contract-signing verification code.
// The code travels only here; it is never included in API responses.
func (c *Client) SendContractOtpEmail(to, bookingRef, code string) error {
	data := map[string]string{
		"BookingRef": bookingRef,
		"Code":       code,
	}

	return c.SendEmail(
		to,
		"Your VoltRide signing code",
		TemplateOtpCode,
		data,
	)
}

// SendPaymentReceiptEmail sends a receipt after a confirmed payment.
func (c *Client) SendPaymentReceiptEmail(to, txnRef, amount string) error {
	data := map[string]string{
		"TxnRef": txnRef,
		"Amount": amount,
	}

	return c.SendEmail(
		to,
		"Your VoltRide payment receipt",
		TemplatePaymentReceipt,
		data,
	)
}
