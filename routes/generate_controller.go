package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/promptform/promptform/app"
	"github.com/promptform/promptform/httpx"
	"github.com/promptform/promptform/log"
)

func Index(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, "index.html", map[string]any{
			"Flash": readFlash(r),
		})
	}
}

// Generate produces candidate form fields from a natural-language
// description. Open to unauthenticated callers, like the rest of the
// builder page.
func Generate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if app.FieldGen == nil {
			httpx.JSONError(w, http.StatusInternalServerError,
				"API key not configured. Please set GEMINI_API_KEY environment variable.")
			return
		}

		var body struct {
			Prompt string `json:"prompt"`
		}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogJSONError(w, http.StatusBadRequest, log.DebugLevel, "generate.parse_body",
				"Missing prompt in request")
			return
		}
		if strings.TrimSpace(body.Prompt) == "" {
			httpx.LogJSONError(w, http.StatusBadRequest, log.DebugLevel, "generate.empty_prompt",
				"Prompt cannot be empty")
			return
		}

		result, err := app.FieldGen.Generate(r.Context(), body.Prompt)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, err.Error())
			return
		}

		render.JSON(w, r, map[string]any{
			"success":      true,
			"fields":       result.Fields,
			"raw_response": result.RawResponse,
		})
	}
}

func Health(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"status":         "healthy",
			"api_configured": app.FieldGen != nil,
		})
	}
}
