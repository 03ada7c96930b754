package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"schoolhub/internal/models"
)

type StudentRepository interface {
	Create(ctx context.Context, s *models.Student) error
	GetByID(ctx context.Context, id int) (*models.Student, error)
	Update(ctx context.Context, s *models.Student) error
	UpdateImage(ctx context.Context, id int, path string) error
	Delete(ctx context.Context, id int) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*models.Student, error)
	Count(ctx context.Context) (int, error)
}

// studentColumns lists every column except id, in the order of studentFields.
var studentColumns = []string{
	"first_name", "middle_name", "last_name",
	"father_first_name", "father_middle_name", "father_last_name",
	"mother_first_name", "mother_middle_name", "mother_last_name",
	"email", "phone_number", "birth_date", "gender",
	"student_code", "entry_year", "semester",
	"address_line_1", "address_line_2", "city", "state", "country", "zip", "image",
	"guardian_address_line_1", "guardian_address_line_2", "guardian_city",
	"guardian_state", "guardian_country", "guardian_zip",
	"first_emergency_first_name", "first_emergency_middle_name", "first_emergency_last_name",
	"first_emergency_phone_number", "first_emergency_relationship",
	"second_emergency_first_name", "second_emergency_middle_name", "second_emergency_last_name",
	"second_emergency_phone_number", "second_emergency_relationship",
	"physician_first_name", "physician_middle_name", "physician_last_name",
	"physician_primary_phone_number", "physician_secondary_phone_number",
	"preferred_hospital_name", "physician_special_notes",
	"previous_school_name", "previous_school_city", "previous_school_state",
	"previous_school_country", "previous_school_date_started", "previous_school_date_ended",
	"previous_school_notes",
}

func studentFields(s *models.Student) []any {
	return []any{
		&s.FirstName, &s.MiddleName, &s.LastName,
		&s.Father.FirstName, &s.Father.MiddleName, &s.Father.LastName,
		&s.Mother.FirstName, &s.Mother.MiddleName, &s.Mother.LastName,
		&s.Email, &s.PhoneNumber, &s.BirthDate, &s.Gender,
		&s.StudentID, &s.EntryYear, &s.Semester,
		&s.Address.Line1, &s.Address.Line2, &s.Address.City, &s.Address.State, &s.Address.Country, &s.Address.Zip, &s.ImagePath,
		&s.GuardianAddress.Line1, &s.GuardianAddress.Line2, &s.GuardianAddress.City,
		&s.GuardianAddress.State, &s.GuardianAddress.Country, &s.GuardianAddress.Zip,
		&s.FirstEmergency.FirstName, &s.FirstEmergency.MiddleName, &s.FirstEmergency.LastName,
		&s.FirstEmergency.PhoneNumber, &s.FirstEmergency.Relationship,
		&s.SecondEmergency.FirstName, &s.SecondEmergency.MiddleName, &s.SecondEmergency.LastName,
		&s.SecondEmergency.PhoneNumber, &s.SecondEmergency.Relationship,
		&s.Physician.FirstName, &s.Physician.MiddleName, &s.Physician.LastName,
		&s.Physician.PrimaryPhone, &s.Physician.SecondaryPhone,
		&s.Physician.PreferredHospital, &s.Physician.SpecialNotes,
		&s.PreviousSchool.Name, &s.PreviousSchool.City, &s.PreviousSchool.State,
		&s.PreviousSchool.Country, &s.PreviousSchool.DateStarted, &s.PreviousSchool.DateEnded,
		&s.PreviousSchool.Notes,
	}
}

var (
	studentSelectCols = "id, " + strings.Join(studentColumns, ", ")
	studentInsertSQL  = buildStudentInsert()
	studentUpdateSQL  = buildStudentUpdate()
)

func buildStudentInsert() string {
	placeholders := make([]string, len(studentColumns))
	for i := range studentColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO students (%s) VALUES (%s) RETURNING id",
		strings.Join(studentColumns, ", "), strings.Join(placeholders, ", "))
}

func buildStudentUpdate() string {
	sets := make([]string, len(studentColumns))
	for i, col := range studentColumns {
		sets[i] = fmt.Sprintf("%s=$%d", col, i+1)
	}
	return fmt.Sprintf("UPDATE students SET %s WHERE id=$%d",
		strings.Join(sets, ", "), len(studentColumns)+1)
}

type studentRepository struct {
	DB *sql.DB
}

func NewStudentRepository(db *sql.DB) StudentRepository {
	return &studentRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*models.Student, error) {
	s := &models.Student{}
	dest := append([]any{&s.ID}, studentFields(s)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *studentRepository) Create(ctx context.Context, s *models.Student) error {
	if err := r.DB.QueryRowContext(ctx, studentInsertSQL, studentFields(s)...).Scan(&s.ID); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func (r *studentRepository) GetByID(ctx context.Context, id int) (*models.Student, error) {
	q := "SELECT " + studentSelectCols + " FROM students WHERE id=$1"
	s, err := scanStudent(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return s, nil
}

func (r *studentRepository) Update(ctx context.Context, s *models.Student) error {
	args := append(studentFields(s), s.ID)
	res, err := r.DB.ExecContext(ctx, studentUpdateSQL, args...)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *studentRepository) UpdateImage(ctx context.Context, id int, path string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE students SET image=$1 WHERE id=$2`, path, id)
	if err != nil {
		return fmt.Errorf("update student image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *studentRepository) Delete(ctx context.Context, id int) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM students WHERE id=$1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete student: %w", err)
	}
	return res.RowsAffected()
}

func (r *studentRepository) List(ctx context.Context, limit, offset int) ([]*models.Student, error) {
	q := "SELECT " + studentSelectCols + " FROM students ORDER BY id LIMIT $1 OFFSET $2"
	rows, err := r.DB.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	res := []*models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r *studentRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return n, nil
}
