package httpx

import (
	"encoding/json"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// WriteError writes a flat {"error": message} body. Keys in extra are merged
// next to "error"; an "error" key in extra is ignored.
func WriteError(w http.ResponseWriter, status int, message string, extra map[string]any) {
	body := make(map[string]any, len(extra)+1)
	for key, value := range extra {
		body[key] = value
	}
	body["error"] = message
	WriteJSON(w, status, body)
}
