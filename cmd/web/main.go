package main

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates
var templatesFS embed.FS

const (
	cookieName  = "studymatcher_token"
	cookieUID   = "studymatcher_uid"
	defaultPort = "3000"
	defaultAPI  = "http://localhost:8080"
	envWebPort  = "STUDY_MATCHER_WEB_PORT"
	envAPIURL   = "STUDY_MATCHER_API_URL"
)

func main() {
	port := getEnv(envWebPort, defaultPort)
	apiBase := getEnv(envAPIURL, defaultAPI)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health (no auth, no templates)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Public
	r.Get("/login", loginForm)
	r.Post("/login", loginSubmit(apiBase))
	r.Get("/register", registerForm)
	r.Post("/register", registerSubmit(apiBase))
	r.Get("/logout", logout)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", redirectDashboard)
		r.Get("/dashboard", dashboard(apiBase))
		r.Post("/courses", courseAdd(apiBase))
		r.Post("/courses/remove", courseRemove(apiBase))
		r.Get("/students", studentsList(apiBase))
		r.Get("/matches", matchesPage(apiBase))
	})

	log.Printf("Web UI running on http://localhost:%s (API: %s)", port, apiBase)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// requireAuth redirects to /login when the token cookie is missing. Invalid or
// expired tokens surface as 401/403 from the API and are handled per page.
func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := r.Cookie(cookieName)
		if err != nil || token.Value == "" {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func redirectDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// clearAuthAndRedirectToLogin clears the session cookies and sends the user
// back to login. Call when the API rejects the stored token.
func clearAuthAndRedirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: cookieUID, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
}

func tokenRejected(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func loginForm(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(cookieName); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	renderTemplate(w, "login.html", map[string]string{})
}

func loginSubmit(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		if email == "" || password == "" {
			renderTemplate(w, "login.html", map[string]string{"Error": "Email and password are required"})
			return
		}

		body := []byte(fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
		data, status, err := apiPost(apiBase, "/users/login", "", body)
		if err != nil {
			renderTemplate(w, "login.html", map[string]string{"Error": "Cannot reach API: " + err.Error()})
			return
		}
		if status != http.StatusOK {
			renderTemplate(w, "login.html", map[string]string{"Error": apiErrorMessage(data)})
			return
		}

		var out struct {
			Token string `json:"token"`
			User  struct {
				ID int `json:"id"`
			} `json:"user"`
		}
		if err := json.Unmarshal(data, &out); err != nil || out.Token == "" {
			renderTemplate(w, "login.html", map[string]string{"Error": "Invalid login response"})
			return
		}

		setSession(w, out.Token, out.User.ID)
		next := r.URL.Query().Get("next")
		if next == "" {
			next = "/dashboard"
		}
		http.Redirect(w, r, next, http.StatusFound)
	}
}

func registerForm(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(cookieName); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	renderTemplate(w, "register.html", map[string]string{})
}

func registerSubmit(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		name := strings.TrimSpace(r.FormValue("name"))
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		major := strings.TrimSpace(r.FormValue("major"))

		retry := func(msg string) {
			renderTemplate(w, "register.html", map[string]string{
				"Error": msg, "Name": name, "Email": email, "Major": major,
			})
		}
		if name == "" || email == "" || password == "" || major == "" {
			retry("All fields are required")
			return
		}

		body := []byte(fmt.Sprintf(`{"name":%q,"email":%q,"password":%q,"major":%q}`,
			name, email, password, major))
		data, status, err := apiPost(apiBase, "/users/register", "", body)
		if err != nil {
			retry("Cannot reach API: " + err.Error())
			return
		}
		if status != http.StatusOK {
			retry(apiErrorMessage(data))
			return
		}

		var out struct {
			Token string `json:"token"`
			User  struct {
				ID int `json:"id"`
			} `json:"user"`
		}
		if err := json.Unmarshal(data, &out); err != nil || out.Token == "" {
			retry("Invalid register response")
			return
		}

		setSession(w, out.Token, out.User.ID)
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	}
}

func setSession(w http.ResponseWriter, token string, userID int) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     cookieUID,
		Value:    fmt.Sprint(userID),
		Path:     "/",
		MaxAge:   24 * 3600,
		SameSite: http.SameSiteLaxMode,
	})
}

func logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: cookieUID, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/login", http.StatusFound)
}

type profile struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Major   string   `json:"major"`
	Courses []string `json:"courses"`
}

func dashboard(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := cookieValue(r, cookieUID)
		if uid == "" {
			clearAuthAndRedirectToLogin(w, r)
			return
		}

		data, status, err := apiGet(apiBase, "/users/"+uid, cookieValue(r, cookieName))
		if err != nil {
			renderTemplate(w, "dashboard.html", map[string]interface{}{"Error": err.Error()})
			return
		}
		if status == http.StatusNotFound || tokenRejected(status) {
			// Account deleted or token expired; either way the session is dead.
			clearAuthAndRedirectToLogin(w, r)
			return
		}
		if status != http.StatusOK {
			renderTemplate(w, "dashboard.html", map[string]interface{}{"Error": "API error: " + string(data)})
			return
		}

		var me profile
		if err := json.Unmarshal(data, &me); err != nil {
			renderTemplate(w, "dashboard.html", map[string]interface{}{"Error": "Invalid profile response"})
			return
		}

		renderTemplate(w, "dashboard.html", map[string]interface{}{
			"Me":        me,
			"FlashErr":  r.URL.Query().Get("error"),
			"FlashInfo": r.URL.Query().Get("info"),
		})
	}
}

func courseAdd(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		course := strings.TrimSpace(r.FormValue("courseName"))
		if course == "" {
			http.Redirect(w, r, "/dashboard?error="+url.QueryEscape("Course name required"), http.StatusFound)
			return
		}

		uid := cookieValue(r, cookieUID)
		body := []byte(fmt.Sprintf(`{"courseName":%q}`, course))
		data, status, err := apiPost(apiBase, "/users/"+uid+"/courses", cookieValue(r, cookieName), body)
		if err != nil {
			http.Redirect(w, r, "/dashboard?error="+url.QueryEscape(err.Error()), http.StatusFound)
			return
		}
		if tokenRejected(status) {
			clearAuthAndRedirectToLogin(w, r)
			return
		}
		if status != http.StatusOK {
			http.Redirect(w, r, "/dashboard?error="+url.QueryEscape(apiErrorMessage(data)), http.StatusFound)
			return
		}
		http.Redirect(w, r, "/dashboard?info="+url.QueryEscape("Added "+course), http.StatusFound)
	}
}

func courseRemove(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		course := r.FormValue("courseName")
		uid := cookieValue(r, cookieUID)

		data, status, err := apiDelete(apiBase, "/users/"+uid+"/courses/"+url.PathEscape(course), cookieValue(r, cookieName))
		if err != nil {
			http.Redirect(w, r, "/dashboard?error="+url.QueryEscape(err.Error()), http.StatusFound)
			return
		}
		if tokenRejected(status) {
			clearAuthAndRedirectToLogin(w, r)
			return
		}
		if status != http.StatusOK {
			http.Redirect(w, r, "/dashboard?error="+url.QueryEscape(apiErrorMessage(data)), http.StatusFound)
			return
		}
		http.Redirect(w, r, "/dashboard?info="+url.QueryEscape("Removed "+course), http.StatusFound)
	}
}

func studentsList(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		major := strings.TrimSpace(r.URL.Query().Get("major"))

		path := "/users"
		if name != "" || major != "" {
			q := url.Values{}
			if name != "" {
				q.Set("name", name)
			}
			if major != "" {
				q.Set("major", major)
			}
			path = "/users/search?" + q.Encode()
		}

		data, status, err := apiGet(apiBase, path, cookieValue(r, cookieName))
		if err != nil {
			renderTemplate(w, "students.html", map[string]interface{}{"Error": err.Error(), "Name": name, "Major": major})
			return
		}
		if status != http.StatusOK {
			renderTemplate(w, "students.html", map[string]interface{}{"Error": "API error: " + string(data), "Name": name, "Major": major})
			return
		}

		var students []profile
		if path == "/users" {
			if err := json.Unmarshal(data, &students); err != nil {
				renderTemplate(w, "students.html", map[string]interface{}{"Error": "Invalid users response"})
				return
			}
		} else {
			var out struct {
				Users []profile `json:"users"`
			}
			if err := json.Unmarshal(data, &out); err != nil {
				renderTemplate(w, "students.html", map[string]interface{}{"Error": "Invalid search response"})
				return
			}
			students = out.Users
		}

		renderTemplate(w, "students.html", map[string]interface{}{
			"Students": students,
			"Name":     name,
			"Major":    major,
		})
	}
}

func matchesPage(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		course := strings.TrimSpace(r.URL.Query().Get("course"))
		if course == "" {
			renderTemplate(w, "matches.html", map[string]interface{}{})
			return
		}

		data, status, err := apiGet(apiBase, "/matches/"+url.PathEscape(course), cookieValue(r, cookieName))
		if err != nil {
			renderTemplate(w, "matches.html", map[string]interface{}{"Error": err.Error(), "Course": course})
			return
		}
		if status != http.StatusOK {
			renderTemplate(w, "matches.html", map[string]interface{}{"Error": "API error: " + string(data), "Course": course})
			return
		}

		var out struct {
			Course  string    `json:"course"`
			Matches []profile `json:"matches"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			renderTemplate(w, "matches.html", map[string]interface{}{"Error": "Invalid matches response", "Course": course})
			return
		}

		renderTemplate(w, "matches.html", map[string]interface{}{
			"Course":  out.Course,
			"Matches": out.Matches,
		})
	}
}

// apiErrorMessage pulls the API's {"error": ...} message out of a response
// body, falling back to the raw body.
func apiErrorMessage(data []byte) string {
	var errResp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(data, &errResp)
	if errResp.Error != "" {
		return errResp.Error
	}
	msg := string(data)
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}

// apiGet performs GET to API with the session token.
func apiGet(apiBase, path, token string) ([]byte, int, error) {
	req, _ := http.NewRequest("GET", apiBase+path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return data, resp.StatusCode, nil
}

// apiPost performs POST to API with token and JSON body.
func apiPost(apiBase, path, token string, body []byte) ([]byte, int, error) {
	req, _ := http.NewRequest("POST", apiBase+path, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return data, resp.StatusCode, nil
}

// apiDelete performs DELETE to API with token.
func apiDelete(apiBase, path, token string) ([]byte, int, error) {
	req, _ := http.NewRequest("DELETE", apiBase+path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return data, resp.StatusCode, nil
}

func renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	content, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if name == "login.html" || name == "register.html" {
		t := template.Must(template.New("").Parse(string(content)))
		_ = t.ExecuteTemplate(w, "standalone", data)
		return
	}

	layout, _ := templatesFS.ReadFile("templates/layout.html")
	t := template.Must(template.New("").Parse(string(layout)))
	t = template.Must(t.New("").Parse(string(content)))
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		log.Printf("template execute: %v", err)
	}
}
