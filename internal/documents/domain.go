package documents

import "time"

// Document is a stored document. Deletion is soft: DeletedAt is set
// and the record stops being a usable resource.
type Document struct {
	ID        string
	OwnerID   string
	Title     string
	Body      string
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDeleted reports whether the document has been soft-deleted.
func (d Document) IsDeleted() bool { return d.DeletedAt != nil }
