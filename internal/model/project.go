package model

import "time"

// ProjectStatus is the lifecycle state of a construction project.
type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "planning"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusOnHold     ProjectStatus = "on_hold"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

// ProjectStatuses lists every status in lifecycle order.
var ProjectStatuses = []ProjectStatus{
	ProjectStatusPlanning,
	ProjectStatusInProgress,
	ProjectStatusOnHold,
	ProjectStatusCompleted,
	ProjectStatusCancelled,
}

// Valid reports whether s is one of the known statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusOnHold,
		ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// Project is a construction project owned by exactly one user.
//
// Nullable columns are pointers: a nil Description is stored as NULL and
// serialised as JSON null, which is different from an empty string.
type Project struct {
	ID          string        `json:"id"          db:"id"          gorm:"primaryKey;type:varchar(20)"`
	Name        string        `json:"name"        db:"name"        gorm:"not null"`
	Description *string       `json:"description" db:"description"`
	Address     string        `json:"address"     db:"address"     gorm:"not null"`
	Budget      *float64      `json:"budget"      db:"budget"`
	StartDate   *time.Time    `json:"startDate"   db:"start_date"`
	EndDate     *time.Time    `json:"endDate"     db:"end_date"`
	Status      ProjectStatus `json:"status"      db:"status"      gorm:"type:varchar(20);not null;default:'planning'"`
	IsPublic    bool          `json:"isPublic"    db:"is_public"   gorm:"not null;default:false;index"`
	OwnerID     string        `json:"ownerId"     db:"owner_id"    gorm:"type:varchar(20);not null;index"`
	Owner       *User         `json:"-"           gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT"`
	CreatedAt   time.Time     `json:"createdAt"   db:"created_at"  gorm:"index"`
	UpdatedAt   time.Time     `json:"updatedAt"   db:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// PublicProject is the reduced projection served to anonymous callers.
// It omits the owner and the budget.
type PublicProject struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Address     string        `json:"address"`
	StartDate   *time.Time    `json:"startDate"`
	EndDate     *time.Time    `json:"endDate"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Public returns the anonymous-safe view of p.
func (p *Project) Public() PublicProject {
	return PublicProject{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Address:     p.Address,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
	}
}
