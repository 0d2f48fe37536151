package store

// User is a registered account. Usernames are unique and case-sensitive.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
}

// TableName pins the table name.
func (User) TableName() string { return "users" }

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID   uint   `gorm:"primaryKey"`
	Text string `gorm:"size:200;not null"`
	Done bool   `gorm:"not null;default:false"`
	// DueDate is a YYYY-MM-DD string, nil when the task has no due date.
	DueDate  *string `gorm:"size:10"`
	Priority int     `gorm:"not null;default:2"`
	OwnerID  uint    `gorm:"not null;index"`
	Owner    *User   `gorm:"constraint:OnDelete:CASCADE"`
}

// TableName pins the table name.
func (Task) TableName() string { return "tasks" }
