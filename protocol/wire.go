package protocol

// HandshakeRequest is the body of POST /handshake.
type HandshakeRequest struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// DecodeRequest is the body of POST /decode. Message carries the sealed
// box, base64-encoded.
type DecodeRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// DecodeResponse is the reply to POST /decode. Both fields are null when
// the handshake fails.
type DecodeResponse struct {
	Message *string `json:"message"`
	Nonce   *string `json:"nonce"`
}

// PublicKeyResponse is the reply to GET /public-key.
type PublicKeyResponse struct {
	PublicKey string `json:"public_key"`
}
