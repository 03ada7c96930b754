package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"schoolhub/internal/models"
	"schoolhub/internal/services"
	"schoolhub/internal/utils"
)

type fakeStudents struct {
	rows    map[int]*models.Student
	nextID  int
	saveErr error
}

func newFakeStudents() *fakeStudents {
	return &fakeStudents{rows: map[int]*models.Student{}, nextID: 1}
}

func (f *fakeStudents) Create(_ context.Context, s *models.Student) error {
	s.ID = f.nextID
	f.nextID++
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeStudents) Get(_ context.Context, id int) (*models.Student, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStudents) Update(_ context.Context, s *models.Student) error {
	if _, ok := f.rows[s.ID]; !ok {
		return services.ErrNotFound
	}
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeStudents) Delete(_ context.Context, id int) error {
	if _, ok := f.rows[id]; !ok {
		return services.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeStudents) List(_ context.Context, page, perPage string) (utils.Page[*models.Student], error) {
	items := make([]*models.Student, 0, len(f.rows))
	for id := 1; id < f.nextID; id++ {
		if s, ok := f.rows[id]; ok {
			items = append(items, s)
		}
	}
	p := utils.NewPaginator(len(items), page, perPage)
	end := p.Offset() + p.Limit()
	if end > len(items) {
		end = len(items)
	}
	start := p.Offset()
	if start > end {
		start = end
	}
	return utils.NewPage(p, items[start:end]), nil
}

func (f *fakeStudents) SaveImage(_ context.Context, id int, filename string, r io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	if _, ok := f.rows[id]; !ok {
		return "", services.ErrNotFound
	}
	path := utils.StudentImageName(filename, ".png")
	f.rows[id].ImagePath = path
	return path, nil
}

func (f *fakeStudents) ImageFile(*models.Student) string { return "" }

type fakePDF struct{ err error }

func (p fakePDF) StudentProfile(w io.Writer, s *models.Student, _ string) error {
	if p.err != nil {
		return p.err
	}
	_, err := io.WriteString(w, "%PDF-1.3 "+s.FirstName)
	return err
}

func newStudentRouter(svc *fakeStudents, gen fakePDF) http.Handler {
	r := newTestRouter()
	h := NewStudentHandler(svc, gen)
	r.POST("/students", h.Create)
	r.GET("/students", h.List)
	r.GET("/students/:id", h.Get)
	r.PUT("/students/:id", h.Update)
	r.DELETE("/students/:id", h.Delete)
	r.POST("/students/:id/image", h.UploadImage)
	r.GET("/students/:id/pdf", h.PDF)
	return r
}

func TestStudentHandler_CRUD(t *testing.T) {
	req := require.New(t)
	svc := newFakeStudents()
	r := newStudentRouter(svc, fakePDF{})

	w := doJSON(r, http.MethodPost, "/students", map[string]any{
		"first_name": "Ada", "last_name": "Lovelace", "gender": "female", "semester": "first",
	})
	req.Equal(http.StatusCreated, w.Code, w.Body.String())
	req.Contains(w.Body.String(), "Student created successfully.")

	w = doJSON(r, http.MethodGet, "/students/1", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), `"first_name":"Ada"`)

	w = doJSON(r, http.MethodPut, "/students/1", map[string]any{"first_name": "Augusta"})
	req.Equal(http.StatusOK, w.Code)
	req.Equal("Augusta", svc.rows[1].FirstName)

	w = doJSON(r, http.MethodGet, "/students?per-page=5", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), `"per_page":5`)
	req.Contains(w.Body.String(), `"total":1`)

	w = doJSON(r, http.MethodDelete, "/students/1", nil)
	req.Equal(http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/students/1", nil)
	req.Equal(http.StatusNotFound, w.Code)
	req.Contains(w.Body.String(), msgNotFound)
}

func TestStudentHandler_Validation(t *testing.T) {
	r := newStudentRouter(newFakeStudents(), fakePDF{})

	cases := []struct {
		name string
		body map[string]any
	}{
		{"unknown gender", map[string]any{"first_name": "A", "gender": "robot"}},
		{"unknown semester", map[string]any{"first_name": "A", "semester": "fifth"}},
		{"bad email", map[string]any{"first_name": "A", "email": "nope"}},
		{"long phone", map[string]any{"first_name": "A", "phone_number": "1234567890123456"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/students", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	w := doJSON(r, http.MethodGet, "/students/abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func uploadRequest(t *testing.T, path, field string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "face.png")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestStudentHandler_UploadImage(t *testing.T) {
	req := require.New(t)
	svc := newFakeStudents()
	require.NoError(t, svc.Create(context.Background(), &models.Student{}))
	r := newStudentRouter(svc, fakePDF{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/students/1/image", "image", []byte("png")))
	req.Equal(http.StatusOK, w.Code, w.Body.String())
	req.Contains(w.Body.String(), "student/images/student_")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/students/1/image", "file", []byte("png")))
	req.Equal(http.StatusBadRequest, w.Code)

	svc.saveErr = services.ErrInvalidImage
	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/students/1/image", "image", []byte("text")))
	req.Equal(http.StatusBadRequest, w.Code)
	req.Contains(w.Body.String(), services.ErrInvalidImage.Error())
}

func TestStudentHandler_PDF(t *testing.T) {
	req := require.New(t)
	svc := newFakeStudents()
	require.NoError(t, svc.Create(context.Background(), &models.Student{PersonName: models.PersonName{FirstName: "Ada"}}))

	w := doJSON(newStudentRouter(svc, fakePDF{}), http.MethodGet, "/students/1/pdf", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Equal("application/pdf", w.Header().Get("Content-Type"))
	req.Contains(w.Header().Get("Content-Disposition"), "student_1.pdf")
	req.Equal("%PDF-1.3 Ada", w.Body.String())

	w = doJSON(newStudentRouter(svc, fakePDF{err: io.ErrUnexpectedEOF}), http.MethodGet, "/students/1/pdf", nil)
	req.Equal(http.StatusInternalServerError, w.Code)

	w = doJSON(newStudentRouter(svc, fakePDF{}), http.MethodGet, "/students/9/pdf", nil)
	req.Equal(http.StatusNotFound, w.Code)
}
