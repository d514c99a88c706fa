package repository

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/votereach/broadcast-backend/internal/model"
)

// VoterRepositoryInterface is the read-only view of the voter registry the
// campaign builder consumes.
type VoterRepositoryInterface interface {
	GetByID(id int) (*model.Voter, error)
	ListByLGAs(lgas []string) ([]model.Voter, error)
}

// VoterRepository is the concrete implementation
type VoterRepository struct {
	DB *sql.DB
}

// GetByID fetches a voter by ID
func (r *VoterRepository) GetByID(id int) (*model.Voter, error) {
	query := `
        SELECT id, first_name, last_name, phone, state, lga, ward, polling_unit
        FROM voters
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var v model.Voter
	if err := row.Scan(&v.ID, &v.FirstName, &v.LastName, &v.Phone, &v.State, &v.LGA, &v.Ward, &v.PollingUnit); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &v, nil
}

// ListByLGAs fetches every voter with a non-empty phone number in the target
// LGAs, ordered by id so batch chunking is deterministic.
func (r *VoterRepository) ListByLGAs(lgas []string) ([]model.Voter, error) {
	query := `
        SELECT id, first_name, last_name, phone, state, lga, ward, polling_unit
        FROM voters
        WHERE lga = ANY($1) AND phone <> ''
        ORDER BY id
    `
	rows, err := r.DB.Query(query, pq.Array(lgas))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	voters := []model.Voter{}
	for rows.Next() {
		var v model.Voter
		if err := rows.Scan(&v.ID, &v.FirstName, &v.LastName, &v.Phone, &v.State, &v.LGA, &v.Ward, &v.PollingUnit); err != nil {
			return nil, err
		}
		voters = append(voters, v)
	}
	return voters, rows.Err()
}

var _ VoterRepositoryInterface = (*VoterRepository)(nil)
