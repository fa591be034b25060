package models

// WaitlistEntry stores a marketing-site waitlist signup
type WaitlistEntry struct {
	BaseModel

	Email     string `json:"email" gorm:"size:255;uniqueIndex;not null"`
	FirstName string `json:"first_name" gorm:"size:100"`
	Source    string `json:"source" gorm:"size:50;default:'landing_page'"`
}
