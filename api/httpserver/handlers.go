package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SchrodingerZhu/new-chat/protocol"
)

// RegistryHandler exposes the handshake protocol over HTTP.
type RegistryHandler struct {
	handshake *protocol.Handshake
}

// NewRegistryHandler creates the registry API handler on top of the
// protocol layer.
func NewRegistryHandler(handshake *protocol.Handshake) *RegistryHandler {
	return &RegistryHandler{handshake: handshake}
}

// RegisterRoutes registers the public registry routes.
func (h *RegistryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/list", h.handleList)
	r.Get("/public-key", h.handlePublicKey)
	r.Post("/handshake", h.handleHandshake)
	r.Post("/decode", h.handleDecode)
}

func (h *RegistryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.handshake.ListUsers())
}

func (h *RegistryHandler) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protocol.PublicKeyResponse{
		PublicKey: h.handshake.ServerPublicKey().String(),
	})
}

func (h *RegistryHandler) handleHandshake(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req protocol.HandshakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.Result{
			Success: false,
			Err:     "malformed request: " + err.Error(),
		})
		return
	}

	result := h.handshake.Register(req.Name, req.Key)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

func (h *RegistryHandler) handleDecode(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req protocol.DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.DecodeResponse{})
		return
	}

	plaintext, nonce, ok := h.handshake.Decode(req.Name, req.Message)
	if !ok {
		// Indistinguishable from an unknown name.
		writeJSON(w, http.StatusBadRequest, protocol.DecodeResponse{})
		return
	}
	writeJSON(w, http.StatusOK, protocol.DecodeResponse{Message: &plaintext, Nonce: &nonce})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
