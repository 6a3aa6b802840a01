package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/promptform/promptform/log"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// JSONError sends a {"success":false,"error":...} body with the given status.
func JSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   msg,
	})
}

// LogJSONError logs at the given level and answers with a JSON error body.
func LogJSONError(w http.ResponseWriter, status int, level log.Level, code string, msg string) {
	log.Log(level, code+":", msg)
	JSONError(w, status, msg)
}

// LogJSONInternalError logs the underlying error and answers 500 with a
// generic "Server error" JSON body carrying the error description.
func LogJSONInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	JSONError(w, http.StatusInternalServerError, fmt.Sprintf("Server error: %s", err))
}
