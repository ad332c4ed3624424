package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/gorilla/mux"

	"examhub/internal/auth"
	"examhub/internal/catalog"
	"examhub/internal/exams"
	"examhub/internal/web"
)

type CatalogHandlers struct {
	Logger  *slog.Logger
	Render  *web.Renderer
	Guard   *auth.Guard
	Catalog *catalog.Store
	Exams   *exams.Store
}

func (h *CatalogHandlers) Subjects(w http.ResponseWriter, r *http.Request) {
	user, ok := h.Guard.RequireSession(w, r)
	if !ok {
		return
	}
	subjects, err := h.Catalog.ListSubjects(r.Context())
	if err != nil {
		h.Logger.Error("list subjects", "err", err)
		h.Render.RenderStatus(w, http.StatusInternalServerError, "500.html")
		return
	}
	h.Render.Render(w, "subjects_list.html", web.Page{
		User:    user,
		Flashes: h.Guard.Sessions.TakeFlashes(w, r),
		Data:    struct{ Subjects []catalog.SubjectRow }{subjects},
	})
}

func (h *CatalogHandlers) SubjectDetail(w http.ResponseWriter, r *http.Request) {
	user, ok := h.Guard.RequireSession(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	subject, err := h.Catalog.GetSubject(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrSubjectNotFound) {
			h.Guard.Sessions.AddFlash(w, r, "error", "The requested subject was not found")
			http.Redirect(w, r, "/subjects", http.StatusSeeOther)
			return
		}
		h.Logger.Error("load subject", "id", id, "err", err)
		h.Render.RenderStatus(w, http.StatusInternalServerError, "500.html")
		return
	}
	subjectExams, err := h.Exams.ListBySubject(r.Context(), id)
	if err != nil {
		h.Logger.Error("list subject exams", "id", id, "err", err)
	}
	professors, err := h.Catalog.SubjectProfessors(r.Context(), id)
	if err != nil {
		h.Logger.Error("list subject professors", "id", id, "err", err)
	}

	h.Render.Render(w, "subject_detail.html", web.Page{
		User:    user,
		Flashes: h.Guard.Sessions.TakeFlashes(w, r),
		Data: struct {
			Subject    *catalog.SubjectRow
			Exams      []exams.Row
			Professors []catalog.Assignment
		}{subject, subjectExams, professors},
	})
}

func (h *CatalogHandlers) Professors(w http.ResponseWriter, r *http.Request) {
	user, ok := h.Guard.RequireSession(w, r)
	if !ok {
		return
	}
	professors, err := h.Catalog.ListProfessors(r.Context())
	if err != nil {
		h.Logger.Error("list professors", "err", err)
		h.Render.RenderStatus(w, http.StatusInternalServerError, "500.html")
		return
	}
	h.Render.Render(w, "professors_list.html", web.Page{
		User:    user,
		Flashes: h.Guard.Sessions.TakeFlashes(w, r),
		Data:    struct{ Professors []catalog.ProfessorRow }{professors},
	})
}

func (h *CatalogHandlers) ProfessorDetail(w http.ResponseWriter, r *http.Request) {
	user, ok := h.Guard.RequireSession(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	professor, err := h.Catalog.GetProfessor(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProfessorNotFound) {
			h.Guard.Sessions.AddFlash(w, r, "error", "The requested professor was not found")
			http.Redirect(w, r, "/professors", http.StatusSeeOther)
			return
		}
		h.Logger.Error("load professor", "id", id, "err", err)
		h.Render.RenderStatus(w, http.StatusInternalServerError, "500.html")
		return
	}
	subjects, err := h.Catalog.ProfessorSubjects(r.Context(), id)
	if err != nil {
		h.Logger.Error("list professor subjects", "id", id, "err", err)
	}
	professorExams, err := h.Exams.ListByProfessor(r.Context(), id)
	if err != nil {
		h.Logger.Error("list professor exams", "id", id, "err", err)
	}

	h.Render.Render(w, "professor_detail.html", web.Page{
		User:    user,
		Flashes: h.Guard.Sessions.TakeFlashes(w, r),
		Data: struct {
			Professor *catalog.Professor
			Subjects  []catalog.Assignment
			Exams     []exams.Row
		}{professor, subjects, professorExams},
	})
}
