package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/promptform/promptform/app"
	"github.com/promptform/promptform/httpx"
	"github.com/promptform/promptform/log"
	"golang.org/x/crypto/bcrypt"
)

func LoginPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, "login.html", map[string]any{
			"Flash": readFlash(r),
			"Goto":  r.URL.Query().Get("goto"),
		})
	}
}

// Login exchanges the posted credentials for bearer tokens through the
// oauth server and stores them as cookies, then sends the browser to the
// dashboard (or wherever the goto parameter points).
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "login.parse_form")
			return
		}

		email := r.PostForm.Get("email")
		password := r.PostForm.Get("password")

		body := url.Values{
			"grant_type": {"password"},
			"username":   {email},
			"password":   {password},
		}
		req, err := http.NewRequest("POST", "/", strings.NewReader(body.Encode()))
		if err != nil {
			httpx.LogInternalError(w, "login.new_request", err)
			return
		}
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		req.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		if resp.Status() != http.StatusOK {
			log.Debugf("login.credentials: rejected for %q", email)
			redirectWithError(w, r, "/login", "Invalid email or password")
			return
		}

		setTokenCookies(w, resp.Body())

		target := r.PostForm.Get("goto")
		if target == "" || !strings.HasPrefix(target, "/") {
			target = "/dashboard"
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

func SignupPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, "signup.html", map[string]any{
			"Flash": readFlash(r),
		})
	}
}

func Signup(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "signup.parse_form")
			return
		}

		email := r.PostForm.Get("email")
		password := r.PostForm.Get("password")
		confirmPassword := r.PostForm.Get("confirm_password")

		if email == "" || password == "" || confirmPassword == "" {
			redirectWithError(w, r, "/signup", "Please fill out all fields.")
			return
		}
		if password != confirmPassword {
			redirectWithError(w, r, "/signup", "Passwords do not match.")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			httpx.LogInternalError(w, "signup.hash", err)
			return
		}

		_, err = app.ExecContext(r.Context(),
			"INSERT INTO user (email, password_hash) VALUES (?, ?)",
			email, string(hash),
		)
		if isUniqueViolation(err) {
			redirectWithError(w, r, "/signup", "Email address already in use.")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.insert_user", err)
			return
		}

		http.Redirect(w, r, "/login?flash="+url.QueryEscape("Account created successfully. Please log in."), http.StatusSeeOther)
	}
}

func Logout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clearCookie(w, "access_token")
		clearCookie(w, "refresh_token")
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// Refresh lets API clients trade a refresh token for a new token pair.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("authorization")
		match := regexp.MustCompile(`(?i)^refresh\s+(.*)`).FindStringSubmatch(auth)
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}
		token := match[1]

		body := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {token},
		}
		req, err := http.NewRequest("POST", "/", strings.NewReader(body.Encode()))
		if err != nil {
			httpx.LogInternalError(w, "refresh.new_request", err)
			return
		}
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		req.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		resp.Flush(w)
	}
}

func setTokenCookies(w http.ResponseWriter, tokenResponse []byte) {
	var body struct {
		AccessToken  string  `json:"access_token"`
		RefreshToken string  `json:"refresh_token"`
		ExpiresIn    float64 `json:"expires_in"`
	}
	if err := json.Unmarshal(tokenResponse, &body); err != nil {
		log.Warn("login.token_response:", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "access_token",
		Value:    body.AccessToken,
		MaxAge:   int(body.ExpiresIn),
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "refresh_token",
		Value:    body.RefreshToken,
		MaxAge:   60 * 60 * 24 * 365,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     name,
		Value:    "",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}

func redirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
