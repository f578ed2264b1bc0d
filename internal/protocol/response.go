package protocol

import (
	"encoding/json"
	"strings"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is one decoded reply document from the editor. Field sets vary by
// command, so it stays a loose map; Normalize folds the legacy error shapes
// into the canonical one and the accessors read the canonical fields.
type Response map[string]any

// ErrorResponse builds a canonical error document.
func ErrorResponse(msg string) Response {
	return Response{"status": StatusError, "error": msg}
}

// SuccessResponse wraps a result payload in a canonical success document.
func SuccessResponse(result map[string]any) Response {
	if result == nil {
		result = map[string]any{}
	}
	return Response{"status": StatusSuccess, "result": result}
}

func (r Response) Status() string {
	s, _ := r["status"].(string)
	return s
}

func (r Response) IsError() bool { return r.Status() == StatusError }

// ErrorMessage returns the error text carried by the document, preferring
// "error" over "message". Empty strings count as absent.
func (r Response) ErrorMessage() string {
	if s, _ := r["error"].(string); s != "" {
		return s
	}
	if s, _ := r["message"].(string); s != "" {
		return s
	}
	return ""
}

// Result returns the result payload when present.
func (r Response) Result() map[string]any {
	m, _ := r["result"].(map[string]any)
	return m
}

// Normalize reconciles the editor's two failure shapes into one canonical
// {"status":"error","error":...} document and passes everything else through
// unchanged. A nil response (the transport returned nothing) becomes an error
// document as well.
func Normalize(r Response) Response {
	if r == nil {
		return ErrorResponse("No response")
	}
	if r.Status() == StatusError {
		if _, ok := r["error"]; !ok {
			msg := r.ErrorMessage()
			if msg == "" {
				msg = "Unknown Unreal error"
			}
			r["error"] = msg
		}
		return r
	}
	// Legacy shape: {"success": false, "error"|"message": ...} with no status.
	if v, ok := r["success"]; ok {
		if b, ok := v.(bool); ok && !b {
			msg := r.ErrorMessage()
			if msg == "" {
				msg = "Unknown error"
			}
			return ErrorResponse(msg)
		}
	}
	return r
}

// DecodeResponse parses one reply document.
func DecodeResponse(b []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return r, nil
}

// IsAlreadyExists reports whether an error response signals a name conflict.
// The editor has no structured code for this; its creation commands put the
// phrase "already exists" in the message text ("Blueprint already exists: X",
// "Actor with name X already exists", ...).
func IsAlreadyExists(r Response) bool {
	if !r.IsError() {
		return false
	}
	return strings.Contains(strings.ToLower(r.ErrorMessage()), "already exists")
}
