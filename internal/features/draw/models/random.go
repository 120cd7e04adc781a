package models

import "encoding/json"

// SignedRandom is one signed random integer from the verifiable-randomness
// provider, with the raw payload and signature needed for third-party
// verification.
type SignedRandom struct {
	Value     int64
	Payload   json.RawMessage
	Signature string
}
