package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/gorilla/mux"

	"examhub/internal/auth"
	"examhub/internal/catalog"
	"examhub/internal/exams"
	"examhub/internal/web"
)

type ExamHandlers struct {
	Logger   *slog.Logger
	Render   *web.Renderer
	Sessions *auth.SessionManager
	Guard    *auth.Guard
	Catalog  *catalog.Store
	Exams    *exams.Store
	Uploader *exams.Uploader
}

func (h *ExamHandlers) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.Guard.RequireSession(w, r)
	if !ok {
		return
	}
	h.renderList(w, r, user, exams.Filter{})
}

// Filtered narrows the listing by the submitted form fields. Filter values
// are echoed back into the form.
func (h *ExamHandlers) Filtered(w http.ResponseWriter, r *http.Request) {
	user, ok := h.Guard.RequireSession(w, r)
	if !ok {
		return
	}
	filter := exams.Filter{
		Faculty:    strings.TrimSpace(r.FormValue("faculty_filter")),
		Department: strings.TrimSpace(r.FormValue("department_filter")),
		Subject:    strings.TrimSpace(r.FormValue("subject_filter")),
	}
	if auth.HasControlCharacter(filter.Faculty) || auth.HasControlCharacter(filter.Department) || auth.HasControlCharacter(filter.Subject) {
		h.Sessions.AddFlash(w, r, "error", "Filter input contains invalid characters")
		http.Redirect(w, r, "/exams", http.StatusSeeOther)
		return
	}
	if yearStr := strings.TrimSpace(r.FormValue("year_filter")); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			h.Sessions.AddFlash(w, r, "error", "Year must be a number")
		} else {
			filter.Year = year
		}
	}
	h.renderList(w, r, user, filter)
}

func (h *ExamHandlers) renderList(w http.ResponseWriter, r *http.Request, user *auth.SessionUser, filter exams.Filter) {
	list, err := h.Exams.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("list exams", "err", err)
		h.Render.RenderStatus(w, http.StatusInternalServerError, "500.html")
		return
	}
	h.Render.Render(w, "exams_list.html", web.Page{
		User:    user,
		Flashes: h.Sessions.TakeFlashes(w, r),
		Data: struct {
			Exams  []exams.Row
			Filter exams.Filter
		}{list, filter},
	})
}

func (h *ExamHandlers) Detail(w http.ResponseWriter, r *http.Request) {
	user, ok := h.Guard.RequireSession(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	exam, err := h.Exams.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, exams.ErrExamNotFound) {
			h.Sessions.AddFlash(w, r, "error", "The requested exam was not found")
			http.Redirect(w, r, "/exams", http.StatusSeeOther)
			return
		}
		h.Logger.Error("load exam", "id", id, "err", err)
		h.Render.RenderStatus(w, http.StatusInternalServerError, "500.html")
		return
	}
	questions, err := h.Exams.Questions(r.Context(), id)
	if err != nil {
		h.Logger.Error("list exam questions", "id", id, "err", err)
	}

	h.Render.Render(w, "exam_detail.html", web.Page{
		User:    user,
		Flashes: h.Sessions.TakeFlashes(w, r),
		Data: struct {
			Exam      *exams.Row
			Questions []exams.Question
		}{exam, questions},
	})
}

func (h *ExamHandlers) AddPage(w http.ResponseWriter, r *http.Request) {
	user, ok := h.Guard.RequireAdmin(w, r)
	if !ok {
		return
	}

	subjects, err := h.Catalog.ListSubjects(r.Context())
	if err != nil {
		h.Logger.Error("list subjects", "err", err)
		h.Render.RenderStatus(w, http.StatusInternalServerError, "500.html")
		return
	}
	types, err := h.Exams.ExamTypes(r.Context())
	if err != nil {
		h.Logger.Error("list exam types", "err", err)
		h.Render.RenderStatus(w, http.StatusInternalServerError, "500.html")
		return
	}
	professors, err := h.Catalog.ListProfessors(r.Context())
	if err != nil {
		h.Logger.Error("list professors", "err", err)
		h.Render.RenderStatus(w, http.StatusInternalServerError, "500.html")
		return
	}

	h.Render.Render(w, "exam_add.html", web.Page{
		User:    user,
		Flashes: h.Sessions.TakeFlashes(w, r),
		Data: struct {
			Subjects    []catalog.SubjectRow
			ExamTypes   []exams.ExamType
			Professors  []catalog.ProfessorRow
			CurrentYear int
		}{subjects, types, professors, time.Now().Year()},
	})
}

func (h *ExamHandlers) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := h.Guard.RequireAdmin(w, r)
	if !ok {
		return
	}

	backToForm := func(severity, message string) {
		h.Sessions.AddFlash(w, r, severity, message)
		http.Redirect(w, r, "/exam-add", http.StatusSeeOther)
	}

	if err := r.ParseForm(); err != nil {
		backToForm("error", "Input contains invalid values")
		return
	}
	subjectID, err1 := strconv.ParseInt(r.FormValue("subject_id"), 10, 64)
	examTypeID, err2 := strconv.ParseInt(r.FormValue("exam_type_id"), 10, 64)
	year, err3 := strconv.Atoi(r.FormValue("exam_year"))
	if err1 != nil || err2 != nil || err3 != nil {
		backToForm("error", "Input contains invalid values")
		return
	}
	var professorIDs []int64
	for _, raw := range r.PostForm["professor_ids"] {
		pid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			backToForm("error", "Input contains invalid values")
			return
		}
		professorIDs = append(professorIDs, pid)
	}
	if len(professorIDs) == 0 {
		backToForm("error", "Select at least one professor")
		return
	}
	if year < 2020 || year > 2030 {
		backToForm("error", "Year must be between 2020 and 2030")
		return
	}
	instructions := strings.TrimSpace(r.FormValue("instructions"))
	if auth.HasControlCharacter(instructions) {
		backToForm("error", "Instructions contain invalid characters")
		return
	}

	examID, err := h.Exams.Create(r.Context(), exams.NewExam{
		SubjectID:    subjectID,
		ExamTypeID:   examTypeID,
		Year:         year,
		Instructions: instructions,
		ProfessorIDs: professorIDs,
		CreatedBy:    user.ID,
	})
	if err != nil {
		if errors.Is(err, exams.ErrExamExists) {
			backToForm("error", "An exam for this subject, type and year already exists")
			return
		}
		h.Logger.Error("create exam", "err", err)
		backToForm("error", "A database error occurred, please try again later")
		return
	}

	h.Sessions.AddFlash(w, r, "success", "Exam added")
	http.Redirect(w, r, fmt.Sprintf("/exam/%d", examID), http.StatusSeeOther)
}

func (h *ExamHandlers) UploadQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := h.Guard.RequireAdmin(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	examURL := fmt.Sprintf("/exam/%d", id)

	if _, err := h.Exams.Get(r.Context(), id); err != nil {
		h.Sessions.AddFlash(w, r, "error", "The requested exam was not found")
		http.Redirect(w, r, "/exams", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Uploader.MaxBytes+4096)
	if err := r.ParseMultipartForm(h.Uploader.MaxBytes); err != nil {
		h.Sessions.AddFlash(w, r, "error", "Upload exceeds the size limit")
		http.Redirect(w, r, examURL, http.StatusSeeOther)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.Sessions.AddFlash(w, r, "error", "Choose a file to upload")
		http.Redirect(w, r, examURL, http.StatusSeeOther)
		return
	}
	defer file.Close()

	name, err := h.Uploader.Save(file, header)
	if err != nil {
		switch {
		case errors.Is(err, exams.ErrFileTooLarge):
			h.Sessions.AddFlash(w, r, "error", "Upload exceeds the size limit")
		case errors.Is(err, exams.ErrFileTypeNotAllowed):
			h.Sessions.AddFlash(w, r, "error", "Only PNG, JPEG, GIF and PDF files are allowed")
		default:
			h.Logger.Error("store upload", "exam_id", id, "err", err)
			h.Sessions.AddFlash(w, r, "error", "A system error occurred, please try again later")
		}
		http.Redirect(w, r, examURL, http.StatusSeeOther)
		return
	}

	if err := h.Exams.AddQuestion(r.Context(), id, name, user.ID); err != nil {
		h.Logger.Error("record exam question", "exam_id", id, "err", err)
		h.Sessions.AddFlash(w, r, "error", "A database error occurred, please try again later")
		http.Redirect(w, r, examURL, http.StatusSeeOther)
		return
	}

	h.Sessions.AddFlash(w, r, "success", "Scan uploaded")
	http.Redirect(w, r, examURL, http.StatusSeeOther)
}
