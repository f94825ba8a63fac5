package handlers

import (
	"net/http"

	"chatdock-backend/internal/services"
)

type uploadSigner interface {
	AuthParams() services.UploadAuthParams
}

type UploadHandler struct {
	signer uploadSigner
}

func NewUploadHandler(signer uploadSigner) *UploadHandler {
	return &UploadHandler{signer: signer}
}

// AuthParams hands the dashboard the signed parameters it needs for a direct
// CDN upload.
func (h *UploadHandler) AuthParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.signer.AuthParams())
}
