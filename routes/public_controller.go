package routes

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/promptform/promptform/app"
	"github.com/promptform/promptform/httpx"
	"github.com/promptform/promptform/log"
	"github.com/promptform/promptform/model"
)

// ViewForm renders the public page for a published form.
func ViewForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		urlSlug := chi.URLParam(r, "slug")

		form, err := loadFormBySlug(app, r, urlSlug)
		if err != nil {
			httpx.LogNotFound(w, "get_form", urlSlug)
			return
		}

		renderPage(w, "view_form.html", map[string]any{
			"Form": form,
		})
	}
}

// SubmitForm records one respondent submission. Every declared field gets
// an answer row; fields missing from the submission are stored with an
// empty value. The required flag is not enforced server-side.
func SubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		urlSlug := chi.URLParam(r, "slug")

		form, err := loadFormBySlug(app, r, urlSlug)
		if err != nil {
			httpx.LogNotFound(w, "get_form", urlSlug)
			return
		}

		err = r.ParseForm()
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "submit.parse_form")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var responseId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO form_response (form_id) VALUES (?)
			RETURNING id`,
			form.ID,
		).Scan(&responseId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO response_answer (response_id, field_id, value)
			VALUES (?, ?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response.answers.prepare", err)
			return
		}
		defer stmt.Close()

		for _, f := range form.Fields {
			value := r.PostForm.Get(fmt.Sprintf("field-%d", f.ID))
			_, err = stmt.ExecContext(r.Context(), responseId, f.ID, value)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_response.answers.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response.commit", err)
			return
		}

		renderPage(w, "thank_you.html", map[string]any{
			"Form": form,
		})
	}
}

func loadFormBySlug(app app.App, r *http.Request, urlSlug string) (form model.Form, err error) {
	err = app.QueryRowContext(r.Context(),
		"SELECT id, title, theme FROM form WHERE url_slug = ?", urlSlug,
	).Scan(&form.ID, &form.Title, &form.Theme)
	if err != nil {
		return
	}
	form.Slug = urlSlug

	rows, err := app.QueryContext(r.Context(), `
		SELECT id, label, field_type, options, required
		FROM form_field
		WHERE form_id = ?
		ORDER BY id`,
		form.ID,
	)
	if err != nil {
		return
	}
	defer rows.Close()

	for rows.Next() {
		f := model.FormField{}
		var opts string
		err = rows.Scan(&f.ID, &f.Label, &f.Type, &opts, &f.Required)
		if err != nil {
			return
		}

		if opts != "" {
			err = json.Unmarshal([]byte(opts), &f.Options)
			if err != nil {
				return
			}
		}

		form.Fields = append(form.Fields, f)
	}
	err = rows.Err()
	return
}
