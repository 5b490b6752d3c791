package vnpay

import (
	"net/url"
	"strconv"
)

// CallbackResult is the verdict on one inbound callback. It is transient:
// never persisted, only inspected by the handler that received the call.
//
// If SignatureValid is false, no other field may be trusted; the payload
// could have been forged or tampered with in flight.
type CallbackResult struct {
	SignatureValid bool

	// ResponseCode is the gateway's outcome code ("00" = paid).
	ResponseCode string

	// TxnRef is the merchant transaction reference echoed back.
	TxnRef string

	// AmountMinor is the amount in minor units, with the gateway's x100
	// scaling already removed. Zero when absent or unparseable.
	AmountMinor int64

	// Params is the raw parameter set, signature excluded.
	Params Params
}

// Success reports whether this callback is an authentically signed
// confirmation of a successful payment.
func (r CallbackResult) Success() bool {
	return r.SignatureValid && r.ResponseCode == ResponseCodeSuccess
}

// ValidateCallback verifies an inbound callback parameter set.
//
// Both callback shapes go through here: the return redirect (display-only)
// and the IPN (authoritative). The signature parameter is extracted and
// removed, the remainder re-encoded canonically and re-signed, and the two
// digests compared in constant time. Verification failure is an expected
// outcome, not an error: attackers get to send us garbage all day.
func (c *Client) ValidateCallback(values url.Values) CallbackResult {
	params := paramsFromValues(values)

	candidate := params[ParamSecureHash]
	delete(params, ParamSecureHash)
	// Legacy clients echo the hash type parameter; it is never signed.
	delete(params, paramSecureHashType)

	result := CallbackResult{
		ResponseCode: params[ParamResponseCode],
		TxnRef:       params[ParamTxnRef],
		Params:       params,
	}

	if candidate == "" {
		c.logger.Warn().Str("txn_ref", result.TxnRef).Msg("callback missing signature")
		return result
	}

	result.SignatureValid = VerifySignature(c.cfg.HashSecret, params.Encode(), candidate)
	if !result.SignatureValid {
		c.logger.Warn().Str("txn_ref", result.TxnRef).Msg("callback signature mismatch")
		return result
	}

	if raw := params[ParamAmount]; raw != "" {
		if scaled, err := strconv.ParseInt(raw, 10, 64); err == nil {
			result.AmountMinor = scaled / amountScale
		}
	}

	return result
}
