package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolhub/internal/models"
	"schoolhub/internal/pdf"
	"schoolhub/internal/services"
)

type StudentHandler struct {
	service services.StudentService
	pdf     pdf.Generator
}

func NewStudentHandler(service services.StudentService, gen pdf.Generator) *StudentHandler {
	return &StudentHandler{service: service, pdf: gen}
}

// @Summary  Create a student
// @Tags     Students
// @Accept   json
// @Produce  json
// @Param    student  body  models.Student  true  "Student"
// @Success  201  {object}  models.Student
// @Router   /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var st models.Student
	if err := c.ShouldBindJSON(&st); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Create(c.Request.Context(), &st); err != nil {
		respondError(c, "[students][create]", err, "Failed to create student")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Student created successfully.", "student": st})
}

// @Summary  List students
// @Tags     Students
// @Produce  json
// @Param    page      query  int  false  "Page number"
// @Param    per-page  query  int  false  "Items per page (max 100)"
// @Router   /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), c.Query("page"), c.Query("per-page"))
	if err != nil {
		respondError(c, "[students][list]", err, "Failed to list students")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	st, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "[students][get]", err, "Failed to load student")
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var st models.Student
	if err := c.ShouldBindJSON(&st); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st.ID = id
	if err := h.service.Update(c.Request.Context(), &st); err != nil {
		respondError(c, "[students][update]", err, "Failed to update student")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student updated successfully.", "student": st})
}

func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "[students][delete]", err, "Failed to delete student")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted successfully."})
}

// @Summary  Upload a student picture
// @Tags     Students
// @Accept   multipart/form-data
// @Produce  json
// @Param    id     path      int   true  "Student ID"
// @Param    image  formData  file  true  "Picture"
// @Router   /students/{id}/image [post]
func (h *StudentHandler) UploadImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer f.Close()

	path, err := h.service.SaveImage(c.Request.Context(), id, fh.Filename, f)
	if err != nil {
		if errors.Is(err, services.ErrInvalidImage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondError(c, "[students][image]", err, "Failed to store image")
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": path})
}

// PDF renders the profile sheet. The document is built in memory first so a
// rendering error can still produce a JSON error response.
func (h *StudentHandler) PDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	st, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "[students][pdf]", err, "Failed to load student")
		return
	}
	var buf bytes.Buffer
	if err := h.pdf.StudentProfile(&buf, st, h.service.ImageFile(st)); err != nil {
		log.Printf("[students][pdf] id=%d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render PDF"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="student_%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
