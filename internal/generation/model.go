package generation

import (
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/passgen/composer"
)

// Record is the audit trail of one generation. It never holds the password.
type Record struct {
	ID        uuid.UUID
	Length    int
	Classes   []composer.Class
	Counts    map[composer.Class]int
	CreatedAt time.Time
}

// Generation is a freshly composed password together with its audit record.
// When auditing is disabled the record has a zero ID and CreatedAt is the
// time of composition.
type Generation struct {
	Record
	Password string
}

// ClassInfo describes one character class for listing endpoints.
type ClassInfo struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Alphabet string `json:"alphabet"`
	Size     int    `json:"size"`
}

// Catalog lists every character class in canonical order.
func Catalog() []ClassInfo {
	all := composer.AllClasses()
	out := make([]ClassInfo, 0, len(all))
	for _, c := range all {
		out = append(out, ClassInfo{
			Name:     c.String(),
			Label:    c.Label(),
			Alphabet: c.Alphabet(),
			Size:     len(c.Alphabet()),
		})
	}
	return out
}
