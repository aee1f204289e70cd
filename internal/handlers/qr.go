package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/Vegeta420Blaze/buzzer-app/internal/security"
	"github.com/Vegeta420Blaze/buzzer-app/internal/services"
)

// QRHandler serves a PNG QR code of a room's join link so a host can
// put it on a shared screen.
type QRHandler struct {
	registry  *services.RoomRegistry
	publicURL string
}

func NewQRHandler(registry *services.RoomRegistry, publicURL string) *QRHandler {
	return &QRHandler{
		registry:  registry,
		publicURL: publicURL,
	}
}

func (h *QRHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code, err := security.ValidateRoomCode(chi.URLParam(r, "code"))
	if err != nil {
		http.Error(w, "invalid room code", http.StatusBadRequest)
		return
	}

	if _, err := h.registry.Get(code); err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	url := h.joinURL(r, code)

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// joinURL prefers the configured public URL and otherwise derives one
// from the request, respecting TLS and X-Forwarded-Proto.
func (h *QRHandler) joinURL(r *http.Request, code string) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimSuffix(base, "/") + "/?code=" + code
}
