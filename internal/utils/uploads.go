package utils

import (
	"path"
	"path/filepath"
	"strings"
)

// StudentImageName builds the relative storage path for an uploaded student
// picture: student/images/student_<uuidhex><ext>.
func StudentImageName(originalName, fallbackExt string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = fallbackExt
	}
	return path.Join("student", "images", "student_"+UUIDHex()+ext)
}
