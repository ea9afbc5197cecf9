package entity

import "time"

// Project print job request
type Project struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	URL       string    `json:"url" gorm:"column:url;type:text;not null"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`
	Notes     string    `json:"notes" gorm:"type:text"`
	Urgency   string    `json:"urgency" gorm:"size:16;not null"`                   // Low/Medium/High
	Status    string    `json:"status" gorm:"size:16;not null;default:Open;index"` // Open/InProgress/Done
	Archived  bool      `json:"archived" gorm:"not null;default:false;index"`
	ColorID   *uint     `json:"color_id" gorm:"index"` // primary display color
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// Project status
const (
	ProjectStatusOpen       = "Open"
	ProjectStatusInProgress = "InProgress"
	ProjectStatusDone       = "Done"
)

// Project urgency
const (
	UrgencyLow    = "Low"
	UrgencyMedium = "Medium"
	UrgencyHigh   = "High"
)

var (
	ValidProjectStatuses = []string{ProjectStatusOpen, ProjectStatusInProgress, ProjectStatusDone}
	ValidUrgencies       = []string{UrgencyLow, UrgencyMedium, UrgencyHigh}
)

// ProjectColor project ↔ color association
type ProjectColor struct {
	ProjectID uint `json:"project_id" gorm:"primaryKey;autoIncrement:false"`
	ColorID   uint `json:"color_id" gorm:"primaryKey;autoIncrement:false;index"`
}

func (ProjectColor) TableName() string {
	return "project_colors"
}

// ProjectFilamentUsage grams drawn from a roll for a project. Rows are never updated.
type ProjectFilamentUsage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProjectID uint      `json:"project_id" gorm:"not null;index"`
	RollID    uint      `json:"roll_id" gorm:"not null;index"`
	GramsUsed float64   `json:"grams_used" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectFilamentUsage) TableName() string {
	return "project_filament_usage"
}

// ProjectView project joined with its primary color, linked colors and usage
type ProjectView struct {
	Project
	ColorName         *string `json:"color_name"`
	ColorManufacturer *string `json:"color_manufacturer"`
	ColorInStock      *bool   `json:"color_in_stock"`

	Colors         []ProjectColorView `json:"colors" gorm:"-"`
	Usage          []ProjectUsageView `json:"usage" gorm:"-"`
	TotalGramsUsed float64            `json:"total_grams_used" gorm:"-"`
}

// ProjectColorView color linked to a project
type ProjectColorView struct {
	ProjectID    uint    `json:"-"`
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Manufacturer *string `json:"manufacturer"`
	MaterialType *string `json:"material_type"`
	HexColor     *string `json:"hex_color"`
	InStock      bool    `json:"in_stock"`
}

// ProjectUsageView usage row with roll and color details
type ProjectUsageView struct {
	ProjectID         uint      `json:"-"`
	ID                uint      `json:"id"`
	RollID            uint      `json:"roll_id"`
	GramsUsed         float64   `json:"grams_used"`
	CreatedAt         time.Time `json:"created_at"`
	RollLabel         *string   `json:"roll_label"`
	ColorID           uint      `json:"color_id"`
	ColorName         string    `json:"color_name"`
	ColorManufacturer *string   `json:"color_manufacturer"`
}
