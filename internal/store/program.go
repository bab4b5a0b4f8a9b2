package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gradtrack/apiserver/types"
)

// ProgramRepository reads the program catalog. The catalog is loaded by
// external tooling; this repository never writes it.
type ProgramRepository struct {
	db *sql.DB
}

func NewProgramRepository(db *sql.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// ProgramFilter narrows catalog listings. Empty fields are ignored.
type ProgramFilter struct {
	Country    string
	University string
	Keyword    string
}

const programColumns = `id, university, name, location, school, degree,
		duration, application_deadline, tuition, description`

func scanProgram(row interface{ Scan(...any) error }) (types.Program, error) {
	var program types.Program
	var deadline sql.NullTime
	if err := row.Scan(
		&program.ID,
		&program.University,
		&program.Name,
		&program.Location,
		&program.School,
		&program.Degree,
		&program.Duration,
		&deadline,
		&program.Tuition,
		&program.Description,
	); err != nil {
		return types.Program{}, err
	}
	if deadline.Valid {
		program.ApplicationDeadline = &types.Date{Time: deadline.Time}
	}
	return program, nil
}

func (r *ProgramRepository) Get(ctx context.Context, id int) (types.Program, error) {
	const query = `
		SELECT ` + programColumns + `
		FROM programs
		WHERE id = $1`
	program, err := scanProgram(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Program{}, ErrNotFound
		}
		return types.Program{}, unavailable(err)
	}
	return program, nil
}

func (r *ProgramRepository) List(ctx context.Context, filter ProgramFilter, offset, limit int) ([]types.Program, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	where := ""
	args := []any{}
	appendClause := func(clause, value string) {
		args = append(args, "%"+value+"%")
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(clause, len(args))
	}
	if filter.Country != "" {
		appendClause("location ILIKE $%d", filter.Country)
	}
	if filter.University != "" {
		appendClause("university ILIKE $%d", filter.University)
	}
	if filter.Keyword != "" {
		appendClause("(name ILIKE $%d OR description ILIKE $%[1]d)", filter.Keyword)
	}

	countQuery := `SELECT COUNT(1) FROM programs` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, unavailable(err)
	}

	listQuery := `
		SELECT ` + programColumns + `
		FROM programs` + where + fmt.Sprintf(`
		ORDER BY id
		OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, unavailable(err)
	}
	defer rows.Close()

	programs := make([]types.Program, 0, limit)
	for rows.Next() {
		program, err := scanProgram(rows)
		if err != nil {
			return nil, 0, unavailable(err)
		}
		programs = append(programs, program)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, unavailable(err)
	}
	return programs, total, nil
}

// FilterOptions lists the distinct countries and universities present in
// the catalog, for building client-side filter dropdowns.
func (r *ProgramRepository) FilterOptions(ctx context.Context) (countries, universities []string, err error) {
	countries, err = r.distinct(ctx, `SELECT DISTINCT location FROM programs WHERE location <> '' ORDER BY location`)
	if err != nil {
		return nil, nil, err
	}
	universities, err = r.distinct(ctx, `SELECT DISTINCT university FROM programs WHERE university <> '' ORDER BY university`)
	if err != nil {
		return nil, nil, err
	}
	return countries, universities, nil
}

func (r *ProgramRepository) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, unavailable(err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return values, nil
}
