package pdf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"schoolhub/internal/models"
)

// Generator is mocked in handler tests.
type Generator interface {
	StudentProfile(w io.Writer, s *models.Student, imageFile string) error
}

type ProfileGenerator struct {
	FontPath string // TTF with the needed glyphs, e.g. "assets/fonts/DejaVuSans.ttf"
	fontName string
}

// NewProfileGenerator falls back to the core Helvetica font when fontPath is
// empty or unreadable.
func NewProfileGenerator(fontPath string) *ProfileGenerator {
	g := &ProfileGenerator{FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err == nil {
			g.fontName = "DejaVu"
		}
	}
	return g
}

func (g *ProfileGenerator) StudentProfile(w io.Writer, s *models.Student, imageFile string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Student profile: %s", s.FullName()), true)
	pdf.SetAuthor("SchoolHub", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	g.addUTF8Font(pdf)

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 9)
		pdf.CellFormat(0, 10,
			fmt.Sprintf("Generated %s  -  page %d/{nb}", time.Now().Format("02 Jan 2006"), pdf.PageNo()),
			"", 0, "C", false, 0, "",
		)
	})
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "STUDENT PROFILE", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 12)
	pdf.CellFormat(0, 7, s.FullName(), "", 1, "C", false, 0, "")
	g.hr(pdf)

	if opts, ok := imageOptions(imageFile); ok {
		pdf.ImageOptions(imageFile, 160, 20, 30, 0, false, opts, 0, "")
	}

	g.sectionTitle(pdf, "Personal")
	g.kvLine(pdf, "Student ID", s.StudentID)
	g.kvLine(pdf, "Email", s.Email)
	g.kvLine(pdf, "Phone", s.PhoneNumber)
	g.kvLine(pdf, "Birth date", formatDate(s.BirthDate))
	g.kvLine(pdf, "Gender", s.Gender)
	g.kvLine(pdf, "Father", fullName(s.Father))
	g.kvLine(pdf, "Mother", fullName(s.Mother))
	g.hr(pdf)

	g.sectionTitle(pdf, "Academic")
	g.kvLine(pdf, "Entry year", s.EntryYear)
	g.kvLine(pdf, "Semester", s.Semester)
	g.hr(pdf)

	g.sectionTitle(pdf, "Address")
	g.kvLine(pdf, "Student", formatAddress(s.Address))
	g.kvLine(pdf, "Guardian", formatAddress(s.GuardianAddress))
	g.hr(pdf)

	g.sectionTitle(pdf, "Emergency contacts")
	for _, c := range []models.EmergencyContact{s.FirstEmergency, s.SecondEmergency} {
		if fullName(c.PersonName) == "" && c.PhoneNumber == "" {
			continue
		}
		g.kvLine(pdf, fullName(c.PersonName), joinNonEmpty(", ", c.Relationship, c.PhoneNumber))
	}
	g.hr(pdf)

	g.sectionTitle(pdf, "Physician")
	g.kvLine(pdf, "Name", fullName(s.Physician.PersonName))
	g.kvLine(pdf, "Phone", joinNonEmpty(" / ", s.Physician.PrimaryPhone, s.Physician.SecondaryPhone))
	g.kvLine(pdf, "Hospital", s.Physician.PreferredHospital)
	if s.Physician.SpecialNotes != "" {
		pdf.MultiCell(0, 6, s.Physician.SpecialNotes, "", "L", false)
	}
	g.hr(pdf)

	g.sectionTitle(pdf, "Previous school")
	ps := s.PreviousSchool
	g.kvLine(pdf, "Name", ps.Name)
	g.kvLine(pdf, "Location", joinNonEmpty(", ", ps.City, ps.State, ps.Country))
	g.kvLine(pdf, "Attended", joinNonEmpty(" - ", formatDate(ps.DateStarted), formatDate(ps.DateEnded)))
	if ps.Notes != "" {
		pdf.MultiCell(0, 6, ps.Notes, "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func (g *ProfileGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	if g.fontName == "Helvetica" {
		return
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}

func (g *ProfileGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *ProfileGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	if val == "" {
		val = "-"
	}
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.MultiCell(0, 6, val, "", "L", false)
}

func (g *ProfileGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func imageOptions(file string) (gofpdf.ImageOptions, bool) {
	if file == "" {
		return gofpdf.ImageOptions{}, false
	}
	if _, err := os.Stat(file); err != nil {
		return gofpdf.ImageOptions{}, false
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".jpg", ".jpeg":
		return gofpdf.ImageOptions{ImageType: "JPG", ReadDpi: true}, true
	case ".png":
		return gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}, true
	case ".gif":
		return gofpdf.ImageOptions{ImageType: "GIF", ReadDpi: true}, true
	}
	return gofpdf.ImageOptions{}, false
}

func fullName(n models.PersonName) string {
	return joinNonEmpty(" ", n.FirstName, n.MiddleName, n.LastName)
}

func formatAddress(a models.Address) string {
	return joinNonEmpty(", ", a.Line1, a.Line2, a.City, a.State, a.Zip, a.Country)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02 Jan 2006")
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
