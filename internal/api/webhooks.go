package api

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/pibox/pibox/internal/access"
	"github.com/pibox/pibox/internal/anpr"
)

const maxWebhookBody = 8 << 20

// registerWebhooks mounts the raw camera push endpoints. Hikvision posts
// event XML (plain or multipart) to /hikfeed, Dahua posts JSON to /dahua.
// These stay outside Huma: the bodies are vendor formats, not JSON APIs.
func (s *Server) registerWebhooks() {
	if s.options.Access == nil {
		return
	}
	s.mux.HandleFunc("POST /hikfeed", s.handleHikvision)
	s.mux.HandleFunc("POST /hikfeed/{regCode}", s.handleHikvision)
	s.mux.HandleFunc("POST /dahua", s.handleDahua)
	s.mux.HandleFunc("POST /dahua/{regCode}", s.handleDahua)
}

func (s *Server) handleHikvision(w http.ResponseWriter, r *http.Request) {
	body := io.LimitReader(r.Body, maxWebhookBody)

	var det *anpr.Detection
	var err error
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/") {
		det, err = anpr.ParseHikvisionMultipart(body, contentType)
	} else {
		var data []byte
		data, err = io.ReadAll(body)
		if err == nil {
			det, err = anpr.ParseHikvisionXML(data)
		}
	}
	s.finishDetection(w, r, det, err)
}

func (s *Server) handleDahua(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	var det *anpr.Detection
	if err == nil {
		det, err = anpr.ParseDahuaJSON(data)
	}
	s.finishDetection(w, r, det, err)
}

func (s *Server) finishDetection(w http.ResponseWriter, r *http.Request, det *anpr.Detection, err error) {
	if err != nil {
		// Cameras retry aggressively on errors, log and acknowledge
		// everything that is not a usable detection.
		s.logger.Warn("camera push rejected", "remote", r.RemoteAddr, "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	cam := access.Camera{
		RegCode: r.PathValue("regCode"),
		IP:      remoteIP(r),
	}
	dec, err := s.options.Access.HandleDetection(r.Context(), cam, det)
	if err != nil {
		s.logger.Error("detection handling failed", "remote", r.RemoteAddr, "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"plate":          dec.Plate,
		"access_granted": dec.Granted,
		"action":         dec.Action,
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
