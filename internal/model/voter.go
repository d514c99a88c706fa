// internal/model/voter.go
package model

// ValidPhone is the defensive re-check applied before a recipient row is
// materialized: optional leading +, digits only, at least 7 of them.
func ValidPhone(phone string) bool {
    if phone == "" {
        return false
    }
    digits := 0
    for i, r := range phone {
        if r == '+' && i == 0 {
            continue
        }
        if r < '0' || r > '9' {
            return false
        }
        digits++
    }
    return digits >= 7
}

// Voter is a row from the voter-registry collaborator. The core only reads it.
type Voter struct {
    ID          int    `db:"id" json:"id"`
    FirstName   string `db:"first_name" json:"first_name"`
    LastName    string `db:"last_name" json:"last_name"`
    Phone       string `db:"phone" json:"phone"`
    State       string `db:"state" json:"state"`
    LGA         string `db:"lga" json:"lga"`
    Ward        string `db:"ward" json:"ward"`
    PollingUnit string `db:"polling_unit" json:"polling_unit"`
}
