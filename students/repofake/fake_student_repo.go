package studentrepofake

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/campus-auth/internal/errors"
	"github.com/jrsteele09/campus-auth/students"
)

var _ students.Repo = (*FakeStudentRepo)(nil)

type FakeStudentRepo struct {
	students map[string]*students.Student
	lock     sync.RWMutex
}

func NewFakeStudentRepo() students.Repo {
	return &FakeStudentRepo{students: make(map[string]*students.Student)}
}

func (r *FakeStudentRepo) Upsert(student *students.Student) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if student.ID == "" {
		student.ID = uuid.New().String()
	}
	cp := *student
	r.students[student.ID] = &cp
	return nil
}

func (r *FakeStudentRepo) Get(id string) (*students.Student, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	s, ok := r.students[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *FakeStudentRepo) List(offset, limit int) ([]*students.Student, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*students.Student, 0, len(r.students))
	for _, s := range r.students {
		cp := *s
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].LastName != list[j].LastName {
			return list[i].LastName < list[j].LastName
		}
		return list[i].ID < list[j].ID
	})

	if offset >= len(list) {
		return []*students.Student{}, nil
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end], nil
}
