package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/subodhkmahto/student-teacher-management-system/internal/platform"
)

// Auth routes

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := s.accounts.Register(r.Context(), req.Email, req.Password, req.FullName, req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, platform.Message(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	session, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, platform.Message(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "session": session})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token != "" {
		if err := s.accounts.Logout(r.Context(), token); err != nil {
			writeError(w, http.StatusBadRequest, platform.Message(err))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": principal})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, http.StatusBadRequest, platform.Message(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Password reset email sent"})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	token := bearerToken(r.Header.Get("Authorization"))
	if err := s.accounts.ResetPassword(r.Context(), token, req.Password); err != nil {
		writeError(w, http.StatusBadRequest, platform.Message(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Password updated successfully"})
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.accounts.ResendVerification(r.Context(), req.Email); err != nil {
		writeError(w, http.StatusBadRequest, platform.Message(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Verification email sent"})
}

// Students

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	var rows json.RawMessage
	err := s.store.Select(r.Context(), "students", platform.Query{
		Select: "*",
		Order:  "created_at.desc",
	}, &rows)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeRows(w, rows)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	var row json.RawMessage
	err := s.store.SelectOne(r.Context(), "students", platform.Query{
		Select:  "*",
		Filters: []platform.Filter{{Column: "id", Value: chi.URLParam(r, "id")}},
	}, &row)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

type studentRequest struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	UserID     string `json:"user_id"`
	RollNumber string `json:"roll_number"`
	Grade      string `json:"grade"`
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	row := compactRow(platformRow{
		"full_name":   req.FullName,
		"email":       req.Email,
		"user_id":     req.UserID,
		"roll_number": req.RollNumber,
		"grade":       req.Grade,
	})
	var created json.RawMessage
	if err := s.store.Insert(r.Context(), "students", row, &created); err != nil {
		writeStoreError(w, err, "Email or Roll Number already exists")
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Grade string `json:"grade"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var updated json.RawMessage
	err := s.store.Update(r.Context(), "students", platform.Query{
		Filters: []platform.Filter{{Column: "id", Value: chi.URLParam(r, "id")}},
	}, compactRow(platformRow{"grade": req.Grade}), &updated)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Teachers

func (s *Server) handleListTeachers(w http.ResponseWriter, r *http.Request) {
	var rows json.RawMessage
	err := s.store.Select(r.Context(), "teachers", platform.Query{
		Select: "*",
		Order:  "created_at.desc",
	}, &rows)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeRows(w, rows)
}

func (s *Server) handleGetTeacher(w http.ResponseWriter, r *http.Request) {
	var row json.RawMessage
	err := s.store.SelectOne(r.Context(), "teachers", platform.Query{
		Select:  "*",
		Filters: []platform.Filter{{Column: "id", Value: chi.URLParam(r, "id")}},
	}, &row)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

type teacherRequest struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	UserID         string `json:"user_id"`
	Department     string `json:"department"`
	Specialization string `json:"specialization"`
}

func (s *Server) handleCreateTeacher(w http.ResponseWriter, r *http.Request) {
	var req teacherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FullName == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Full name and email are required")
		return
	}
	row := compactRow(platformRow{
		"full_name":      req.FullName,
		"email":          req.Email,
		"user_id":        req.UserID,
		"department":     req.Department,
		"specialization": req.Specialization,
	})
	var created json.RawMessage
	if err := s.store.Insert(r.Context(), "teachers", row, &created); err != nil {
		writeStoreError(w, err, "Email already exists")
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleUpdateTeacher(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Department     string `json:"department"`
		Specialization string `json:"specialization"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// Omitted fields must not wipe stored columns, so empty values are
	// dropped from the patch.
	var updated json.RawMessage
	err := s.store.Update(r.Context(), "teachers", platform.Query{
		Filters: []platform.Filter{{Column: "id", Value: chi.URLParam(r, "id")}},
	}, compactRow(platformRow{"department": req.Department, "specialization": req.Specialization}), &updated)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Courses

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	var rows json.RawMessage
	err := s.store.Select(r.Context(), "courses", platform.Query{
		Select: "*",
		Order:  "created_at.desc",
	}, &rows)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeRows(w, rows)
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	var row json.RawMessage
	err := s.store.SelectOne(r.Context(), "courses", platform.Query{
		Select:  "*",
		Filters: []platform.Filter{{Column: "id", Value: chi.URLParam(r, "id")}},
	}, &row)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

type courseRequest struct {
	Name        string   `json:"name"`
	Code        string   `json:"code"`
	Description string   `json:"description"`
	CreditHours *float64 `json:"credit_hours"`
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Code == "" || req.Description == "" {
		writeError(w, http.StatusBadRequest, "Name, code, and description are required")
		return
	}
	row := platformRow{
		"name":        req.Name,
		"code":        req.Code,
		"description": req.Description,
	}
	if req.CreditHours != nil {
		row["credit_hours"] = *req.CreditHours
	}
	var created json.RawMessage
	if err := s.store.Insert(r.Context(), "courses", row, &created); err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	patch := compactRow(platformRow{
		"name":        req.Name,
		"description": req.Description,
	})
	if req.CreditHours != nil {
		patch["credit_hours"] = *req.CreditHours
	}
	var updated json.RawMessage
	err := s.store.Update(r.Context(), "courses", platform.Query{
		Filters: []platform.Filter{{Column: "id", Value: chi.URLParam(r, "id")}},
	}, patch, &updated)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Course assignments

func (s *Server) handleListCourseAssignments(w http.ResponseWriter, r *http.Request) {
	var rows json.RawMessage
	err := s.store.Select(r.Context(), "course_assignments", platform.Query{
		Select: "id, semester, teacher_id, course_id, teachers(user_id, full_name, email), courses(name, code, description)",
		Order:  "created_at.desc",
	}, &rows)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeRows(w, rows)
}

type assignmentRequest struct {
	TeacherID string `json:"teacher_id"`
	CourseID  string `json:"course_id"`
	Semester  string `json:"semester"`
}

func (s *Server) handleCreateCourseAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	row := compactRow(platformRow{
		"teacher_id": req.TeacherID,
		"course_id":  req.CourseID,
		"semester":   req.Semester,
	})
	var created json.RawMessage
	if err := s.store.Insert(r.Context(), "course_assignments", row, &created); err != nil {
		writeStoreError(w, err, "This course is already assigned to this teacher")
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// Enrollments

func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	var rows json.RawMessage
	err := s.store.Select(r.Context(), "enrollments", platform.Query{
		Select: "id, status, enrollment_date, student_id, course_id, students(roll_number, full_name, email), courses(name, code)",
		Order:  "enrollment_date.desc",
	}, &rows)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeRows(w, rows)
}

func (s *Server) handleStudentEnrollments(w http.ResponseWriter, r *http.Request) {
	var rows json.RawMessage
	err := s.store.Select(r.Context(), "enrollments", platform.Query{
		Select:  "id, status, enrollment_date, courses(name, code, description)",
		Filters: []platform.Filter{{Column: "student_id", Value: chi.URLParam(r, "studentId")}},
	}, &rows)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeRows(w, rows)
}

func (s *Server) handleCourseEnrollments(w http.ResponseWriter, r *http.Request) {
	var rows json.RawMessage
	err := s.store.Select(r.Context(), "enrollments", platform.Query{
		Select:  "id, status, students(roll_number, profiles(full_name, email))",
		Filters: []platform.Filter{{Column: "course_id", Value: chi.URLParam(r, "courseId")}},
	}, &rows)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeRows(w, rows)
}

type enrollmentRequest struct {
	StudentID string `json:"student_id"`
	CourseID  string `json:"course_id"`
}

func (s *Server) handleCreateEnrollment(w http.ResponseWriter, r *http.Request) {
	var req enrollmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	row := compactRow(platformRow{
		"student_id": req.StudentID,
		"course_id":  req.CourseID,
		"status":     "active",
	})
	var created json.RawMessage
	if err := s.store.Insert(r.Context(), "enrollments", row, &created); err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleUpdateEnrollment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var updated json.RawMessage
	err := s.store.Update(r.Context(), "enrollments", platform.Query{
		Filters: []platform.Filter{{Column: "id", Value: chi.URLParam(r, "id")}},
	}, compactRow(platformRow{"status": req.Status}), &updated)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Row helpers

type platformRow map[string]interface{}

// compactRow drops unset fields so the store applies its column defaults.
func compactRow(row platformRow) platformRow {
	result := platformRow{}
	for column, value := range row {
		if text, ok := value.(string); ok && text == "" {
			continue
		}
		result[column] = value
	}
	return result
}

func writeRows(w http.ResponseWriter, rows json.RawMessage) {
	if len(rows) == 0 {
		rows = json.RawMessage("[]")
	}
	writeJSON(w, http.StatusOK, rows)
}
