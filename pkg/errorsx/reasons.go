package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonRelayUpgrade          ReasonCode = "relay_upgrade"
	ReasonRelayRead             ReasonCode = "relay_read"
	ReasonRelaySend             ReasonCode = "relay_send"
	ReasonRelayDecode           ReasonCode = "relay_decode"
	ReasonRelayInvalidSignature ReasonCode = "webhook_invalid_signature"

	ReasonLeadSkipped ReasonCode = "lead_skipped"
	ReasonLeadEncode  ReasonCode = "lead_encode"
	ReasonLeadPost    ReasonCode = "lead_post"
	ReasonLeadStatus  ReasonCode = "lead_status"

	ReasonDialCreate ReasonCode = "dial_create"
)
