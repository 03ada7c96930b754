package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"schoolhub/internal/models"
	"schoolhub/internal/repositories"
	"schoolhub/internal/utils"
)

const maxImageSize = 5 << 20

type StudentService interface {
	Create(ctx context.Context, s *models.Student) error
	Get(ctx context.Context, id int) (*models.Student, error)
	Update(ctx context.Context, s *models.Student) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, page, perPage string) (utils.Page[*models.Student], error)
	// SaveImage stores an uploaded picture and returns its relative path.
	SaveImage(ctx context.Context, id int, filename string, r io.Reader) (string, error)
	ImageFile(s *models.Student) string
}

type studentService struct {
	repo      repositories.StudentRepository
	filesRoot string
}

func NewStudentService(repo repositories.StudentRepository, filesRoot string) StudentService {
	return &studentService{repo: repo, filesRoot: filesRoot}
}

func (s *studentService) Create(ctx context.Context, st *models.Student) error {
	st.ID = 0
	return s.repo.Create(ctx, st)
}

func (s *studentService) Get(ctx context.Context, id int) (*models.Student, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrNotFound
	}
	return st, nil
}

// Update overwrites every editable field. The stored image is kept.
func (s *studentService) Update(ctx context.Context, st *models.Student) error {
	existing, err := s.Get(ctx, st.ID)
	if err != nil {
		return err
	}
	st.ImagePath = existing.ImagePath
	if err := s.repo.Update(ctx, st); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *studentService) Delete(ctx context.Context, id int) error {
	st, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	if st.ImagePath != "" {
		if err := os.Remove(s.ImageFile(st)); err != nil && !os.IsNotExist(err) {
			log.Printf("[students][delete] remove image %s: %v", st.ImagePath, err)
		}
	}
	return nil
}

func (s *studentService) List(ctx context.Context, page, perPage string) (utils.Page[*models.Student], error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return utils.Page[*models.Student]{}, err
	}
	p := utils.NewPaginator(total, page, perPage)
	items, err := s.repo.List(ctx, p.Limit(), p.Offset())
	if err != nil {
		return utils.Page[*models.Student]{}, err
	}
	return utils.NewPage(p, items), nil
}

func (s *studentService) SaveImage(ctx context.Context, id int, filename string, r io.Reader) (string, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, maxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxImageSize {
		return "", fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, maxImageSize)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrInvalidImage, mt.String())
	}

	rel := utils.StudentImageName(filename, mt.Extension())
	abs := filepath.Join(s.filesRoot, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	if err := s.repo.UpdateImage(ctx, id, rel); err != nil {
		_ = os.Remove(abs)
		return "", err
	}
	if st.ImagePath != "" && st.ImagePath != rel {
		_ = os.Remove(s.ImageFile(st))
	}
	return rel, nil
}

// ImageFile is the absolute on-disk location of the student's picture, or "".
func (s *studentService) ImageFile(st *models.Student) string {
	if st.ImagePath == "" {
		return ""
	}
	return filepath.Join(s.filesRoot, filepath.FromSlash(st.ImagePath))
}
