package http

import (
	"github.com/fyrsmithlabs/tasklist/internal/backup"
	"github.com/fyrsmithlabs/tasklist/internal/tasks"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ScreenResponse describes an unauthenticated form screen.
type ScreenResponse struct {
	Screen string   `json:"screen"`
	Fields []string `json:"fields"`
}

// Notice is a transient message for the user, such as a failed login.
type Notice struct {
	Message string `json:"message"`
}

// UserInfo identifies the logged-in user.
type UserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// IndexResponse is the response body for GET / and GET /editar/:id.
type IndexResponse struct {
	User            UserInfo     `json:"user"`
	Tasks           []tasks.Task `json:"tasks"`
	PercentComplete int64        `json:"percent_complete"`
	Search          string       `json:"search"`
	EditID          *uint        `json:"edit_id,omitempty"`
}

// ProfileResponse is the response body for /perfil.
type ProfileResponse struct {
	User   UserInfo    `json:"user"`
	Stats  tasks.Stats `json:"stats"`
	Notice string      `json:"notice,omitempty"`
}

// BackupResponse is the response body for GET /backup-manual.
type BackupResponse struct {
	Status  backup.Status `json:"status"`
	Reason  backup.Reason `json:"reason,omitempty"`
	Message string        `json:"message"`
}
