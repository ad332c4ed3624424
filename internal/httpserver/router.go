package httpserver

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/gorilla/mux"

	"examhub/internal/auth"
	"examhub/internal/catalog"
	"examhub/internal/exams"
	"examhub/internal/web"
)

type Deps struct {
	Logger   *slog.Logger
	Render   *web.Renderer
	Sessions *auth.SessionManager
	Auth     *auth.Service
	Users    *auth.Store
	Audit    *auth.AuditStore
	Verifier *auth.Verifier
	Catalog  *catalog.Store
	Exams    *exams.Store
	Uploader *exams.Uploader
	Debug    bool
}

func NewRouter(d Deps) http.Handler {
	guard := &auth.Guard{Sessions: d.Sessions}

	authH := &AuthHandlers{
		Logger:   d.Logger,
		Render:   d.Render,
		Sessions: d.Sessions,
		Guard:    guard,
		Auth:     d.Auth,
		Users:    d.Users,
		Audit:    d.Audit,
		Verifier: d.Verifier,
		Catalog:  d.Catalog,
		Exams:    d.Exams,
		Debug:    d.Debug,
	}
	catalogH := &CatalogHandlers{
		Logger:  d.Logger,
		Render:  d.Render,
		Guard:   guard,
		Catalog: d.Catalog,
		Exams:   d.Exams,
	}
	examH := &ExamHandlers{
		Logger:   d.Logger,
		Render:   d.Render,
		Sessions: d.Sessions,
		Guard:    guard,
		Catalog:  d.Catalog,
		Exams:    d.Exams,
		Uploader: d.Uploader,
	}

	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// Auth
	r.HandleFunc("/", authH.LoginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", redirectTo("/")).Methods(http.MethodGet)
	r.HandleFunc("/login", authH.Login).Methods(http.MethodPost)
	r.HandleFunc("/register", authH.RegisterPage).Methods(http.MethodGet)
	r.HandleFunc("/register", authH.Register).Methods(http.MethodPost)
	r.HandleFunc("/verify-email/{token}", authH.VerifyEmail).Methods(http.MethodGet)
	r.HandleFunc("/logout", authH.Logout).Methods(http.MethodGet)
	r.HandleFunc("/home", authH.Home).Methods(http.MethodGet)
	r.HandleFunc("/profile", authH.Profile).Methods(http.MethodGet)

	// Catalog
	r.HandleFunc("/subjects", catalogH.Subjects).Methods(http.MethodGet)
	r.HandleFunc("/subject/{id:[0-9]+}", catalogH.SubjectDetail).Methods(http.MethodGet)
	r.HandleFunc("/professors", catalogH.Professors).Methods(http.MethodGet)
	r.HandleFunc("/professor/{id:[0-9]+}", catalogH.ProfessorDetail).Methods(http.MethodGet)

	// Exams
	r.HandleFunc("/exams", examH.List).Methods(http.MethodGet)
	r.HandleFunc("/exams", examH.Filtered).Methods(http.MethodPost)
	r.HandleFunc("/exam/{id:[0-9]+}", examH.Detail).Methods(http.MethodGet)
	r.HandleFunc("/exam/{id:[0-9]+}/questions", examH.UploadQuestion).Methods(http.MethodPost)
	r.HandleFunc("/exam-add", examH.AddPage).Methods(http.MethodGet)
	r.HandleFunc("/exam-add", examH.Add).Methods(http.MethodPost)

	// Uploaded scans
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.Uploader.Dir))))

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		d.Render.RenderStatus(w, http.StatusNotFound, "404.html")
	})

	return r
}

func redirectTo(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusSeeOther)
	}
}
