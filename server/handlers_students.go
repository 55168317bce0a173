package server

import (
	"errors"
	"net/http"
	"strconv"

	apperrors "github.com/jrsteele09/campus-auth/internal/errors"
	"github.com/jrsteele09/campus-auth/students"
	"github.com/jrsteele09/campus-auth/token"
	"github.com/jrsteele09/campus-auth/users"
)

type studentListResponse struct {
	Students []*students.Student `json:"students"`
	Offset   int                 `json:"offset"`
	Limit    int                 `json:"limit"`
}

// StudentsListHandler pages through student records (?offset=&limit=)
func (s *Server) StudentsListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, err := queryInt(r, "offset", 0)
		if err != nil || offset < 0 {
			writeMessage(w, http.StatusBadRequest, "Invalid offset")
			return
		}
		limit, err := queryInt(r, "limit", defaultStudentPageLimit)
		if err != nil || limit <= 0 {
			writeMessage(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(limit, maxStudentPageLimit)

		list, err := s.repos.Students.List(offset, limit)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		if list == nil {
			list = []*students.Student{}
		}
		writeJSON(w, http.StatusOK, studentListResponse{Students: list, Offset: offset, Limit: limit})
	}
}

// StudentHandler returns one record. Students may only read their own.
func (s *Server) StudentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		id := r.PathValue("id")

		if err := s.canReadStudent(claims, id); err != nil {
			if errors.Is(err, apperrors.ErrForbidden) {
				s.log.Debug().Err(err).Str("student_id", id).Msg("student record denied")
				writeMessage(w, http.StatusForbidden, msgForbidden)
				return
			}
			s.internalError(w, r, err)
			return
		}

		student, err := s.repos.Students.Get(id)
		if errors.Is(err, apperrors.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, msgStudentNotFound)
			return
		}
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, student)
	}
}

// canReadStudent lets staff read any record and a student only the record
// linked to their account.
func (s *Server) canReadStudent(claims *token.Claims, studentID string) error {
	if claims.Role != users.RoleStudent {
		return nil
	}
	user, err := s.repos.Users.GetByID(claims.Subject)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return apperrors.Wrapf(apperrors.ErrForbidden, "user %s", claims.Subject)
	}
	if err != nil {
		return apperrors.Wrapf(err, "[canReadStudent] GetByID")
	}
	if user.StudentID != studentID {
		return apperrors.Wrapf(apperrors.ErrForbidden, "user %s reading student %s", user.ID, studentID)
	}
	return nil
}

func queryInt(r *http.Request, key string, defaultValue int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(v)
}
