package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/promptform/promptform/app"
	"github.com/promptform/promptform/httpx"
	"github.com/promptform/promptform/log"
	"github.com/promptform/promptform/model"
	"github.com/promptform/promptform/routes/middlewares"
	"github.com/promptform/promptform/slug"
)

type finalizeField struct {
	Label      string `json:"label"`
	DataType   string `json:"dataType"`
	EnumValues any    `json:"enumValues"`
	Validation string `json:"validation"`
}

type finalizeRequest struct {
	Fields []finalizeField `json:"fields"`
	Theme  string          `json:"theme"`
	Title  string          `json:"title"`
}

// FinalizeForm persists the user-confirmed field list as a published form
// and answers with its public URL.
func FinalizeForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body finalizeRequest
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogJSONError(w, http.StatusBadRequest, log.DebugLevel, "finalize.parse_body",
				"No fields provided.")
			return
		}
		if len(body.Fields) == 0 {
			httpx.LogJSONError(w, http.StatusBadRequest, log.DebugLevel, "finalize.no_fields",
				"No fields provided.")
			return
		}
		if body.Title == "" {
			body.Title = "My Form"
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogJSONInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		// The url_slug unique constraint arbitrates concurrent publishers:
		// on a collision the insert fails and we re-roll instead of racing a
		// select-then-insert.
		var formId int
		var urlSlug string
		for {
			urlSlug = slug.New()
			err = tx.QueryRowContext(r.Context(), `
				INSERT INTO form (title, theme, url_slug, user_id) VALUES (?, ?, ?, ?)
				RETURNING id`,
				body.Title,
				body.Theme,
				urlSlug,
				middlewares.UserID(r),
			).Scan(&formId)
			if isUniqueViolation(err) {
				log.Debugf("db.insert_form: slug collision on %q, retrying", urlSlug)
				continue
			}
			break
		}
		if err != nil {
			httpx.LogJSONInternalError(w, "db.insert_form", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO form_field (form_id, label, field_type, options, required)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			httpx.LogJSONInternalError(w, "db.insert_form.fields.prepare", err)
			return
		}
		defer stmt.Close()

		for _, f := range body.Fields {
			options, err := serializeOptions(f.EnumValues)
			if err != nil {
				httpx.LogJSONInternalError(w, "db.insert_form.fields.parse_options", err)
				return
			}

			// all other validation semantics are dropped here; only the
			// required flag survives publishing
			required := strings.Contains(f.Validation, "required")

			_, err = stmt.ExecContext(r.Context(), formId, f.Label, f.DataType, options, required)
			if err != nil {
				httpx.LogJSONInternalError(w, "db.insert_form.fields.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogJSONInternalError(w, "db.insert_form.commit", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"success": true,
			"url":     app.Url() + "/form/" + urlSlug,
		})
	}
}

// serializeOptions normalizes the client's enumValues (a JSON array or a
// comma-separated string) into a stored JSON array, or "" when absent.
func serializeOptions(enumValues any) (string, error) {
	var opts []string
	switch v := enumValues.(type) {
	case nil:
		return "", nil
	case string:
		if strings.TrimSpace(v) == "" {
			return "", nil
		}
		for _, opt := range strings.Split(v, ",") {
			opts = append(opts, strings.TrimSpace(opt))
		}
	case []any:
		for _, opt := range v {
			opts = append(opts, fmt.Sprint(opt))
		}
	default:
		return "", fmt.Errorf("unsupported enumValues type %T", enumValues)
	}

	serialized, err := json.Marshal(opts)
	if err != nil {
		return "", err
	}
	return string(serialized), nil
}

func Dashboard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT
				f.id, f.title, f.theme, f.url_slug, f.timestamp,
				(SELECT count(*) FROM form_response r WHERE r.form_id = f.id)
			FROM form f
			WHERE f.user_id = ?
			ORDER BY f.timestamp DESC`,
			middlewares.UserID(r),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}
		defer rows.Close()

		type dashboardForm struct {
			model.Form
			ResponseCount int
		}

		forms := []dashboardForm{}
		for rows.Next() {
			f := dashboardForm{}
			err = rows.Scan(&f.ID, &f.Title, &f.Theme, &f.Slug, &f.Timestamp, &f.ResponseCount)
			if err != nil {
				httpx.LogInternalError(w, "db.get_forms.scan", err)
				return
			}
			forms = append(forms, f)
		}

		renderPage(w, "dashboard.html", map[string]any{
			"Forms": forms,
		})
	}
}

func ViewResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		form := model.Form{ID: formId}
		var ownerId int
		err = app.QueryRowContext(r.Context(),
			"SELECT title, user_id FROM form WHERE id = ?", formId,
		).Scan(&form.Title, &ownerId)
		if err != nil {
			httpx.LogNotFound(w, "get_responses", formId)
			return
		}
		if ownerId != middlewares.UserID(r) {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}

		labels, err := fieldLabels(app, r, formId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses.fields", err)
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT r.id, r.timestamp, a.field_id, a.value
			FROM form_response r
			LEFT OUTER JOIN response_answer a ON (a.response_id = r.id)
			WHERE r.form_id = ?
			ORDER BY r.id, a.id`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}
		defer rows.Close()

		responses := []model.FormResponse{}
		for rows.Next() {
			resp := model.FormResponse{}
			answer := model.ResponseAnswer{}
			var fieldId, value any

			err = rows.Scan(&resp.ID, &resp.Timestamp, &fieldId, &value)
			if err != nil {
				httpx.LogInternalError(w, "db.get_responses.scan", err)
				return
			}

			if id, ok := fieldId.(int64); ok {
				answer.FieldID = int(id)
				answer.Label = labels[answer.FieldID]
				if v, ok := value.(string); ok {
					answer.Value = v
				}
			}

			lastIdx := len(responses) - 1
			if lastIdx > -1 && responses[lastIdx].ID == resp.ID {
				responses[lastIdx].Answers = append(responses[lastIdx].Answers, answer)
			} else {
				if answer.FieldID != 0 {
					resp.Answers = append(resp.Answers, answer)
				}
				responses = append(responses, resp)
			}
		}

		renderPage(w, "view_responses.html", map[string]any{
			"Form":      form,
			"Responses": responses,
		})
	}
}

func fieldLabels(app app.App, r *http.Request, formId int) (map[int]string, error) {
	rows, err := app.QueryContext(r.Context(),
		"SELECT id, label FROM form_field WHERE form_id = ? ORDER BY id", formId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := map[int]string{}
	for rows.Next() {
		var id int
		var label string
		err = rows.Scan(&id, &label)
		if err != nil {
			return nil, err
		}
		labels[id] = label
	}
	return labels, rows.Err()
}
