package entities

import "time"

// ArchiveRecord holds a soft-deleted document until it is restored or
// purged. Payload is the JSON snapshot of the original row and children.
type ArchiveRecord struct {
	ArchiveID      uint      `gorm:"primaryKey;autoIncrement:false" json:"archive_id"`
	DocumentType   string    `gorm:"index" json:"document_type"`
	OriginalID     uint      `json:"original_id"`
	DisplayName    string    `json:"display_name"`
	Payload        string    `json:"-"`
	ArchivedBy     uint      `json:"archived_by"`
	ArchivedByName string    `json:"archived_by_name"`
	ArchivedAt     time.Time `gorm:"index" json:"archived_at"`
}

// IDCounter is the next-id source for one collection.
type IDCounter struct {
	Name      string    `gorm:"primaryKey" json:"name"`
	Value     uint      `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
