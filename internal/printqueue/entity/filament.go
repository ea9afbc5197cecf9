package entity

import (
	"time"

	"gorm.io/datatypes"
)

// FilamentColor color variant, unique per (name, manufacturer) ignoring case
type FilamentColor struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name" gorm:"size:200;not null"`
	Manufacturer   *string   `json:"manufacturer" gorm:"size:200"`
	MaterialType   *string   `json:"material_type" gorm:"size:100"`
	HexColor       *string   `json:"hex_color" gorm:"size:7"` // #RRGGBB
	InStock        bool      `json:"in_stock" gorm:"not null;default:false"`
	GramsAvailable *float64  `json:"grams_available"` // legacy, not maintained
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (FilamentColor) TableName() string {
	return "filament_colors"
}

// Lookup named entry of a lookup list (manufacturers, materials)
type Lookup struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lookup tables
const (
	TableManufacturers = "filament_manufacturers"
	TableMaterials     = "filament_materials"
)

// FilamentRoll physical spool of a color
type FilamentRoll struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	ColorID            uint            `json:"color_id" gorm:"not null;index"`
	Label              *string         `json:"label" gorm:"size:200"`
	GramsTotal         float64         `json:"grams_total" gorm:"not null"`
	GramsRemaining     float64         `json:"grams_remaining" gorm:"not null"`
	SpoolWeightGrams   *float64        `json:"spool_weight_grams"`
	WeightCurrentGrams *float64        `json:"weight_current_grams"`
	PurchasePrice      *float64        `json:"purchase_price"`
	PurchasedAt        *datatypes.Date `json:"purchased_at"`
	OpenedAt           *datatypes.Date `json:"opened_at"`
	LastDriedAt        *datatypes.Date `json:"last_dried_at"`
	NeedsDrying        bool            `json:"needs_drying" gorm:"not null;default:false"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (FilamentRoll) TableName() string {
	return "filament_rolls"
}

// RollView roll joined with its color
type RollView struct {
	FilamentRoll
	ColorName         string  `json:"color_name"`
	ColorManufacturer *string `json:"color_manufacturer"`
	MaterialType      *string `json:"material_type"`
	HexColor          *string `json:"hex_color"`
	ColorInStock      bool    `json:"color_in_stock"`
}

// RollUsageView usage row of a roll joined with its project
type RollUsageView struct {
	ID            uint      `json:"id"`
	GramsUsed     float64   `json:"grams_used"`
	CreatedAt     time.Time `json:"created_at"`
	ProjectID     uint      `json:"project_id"`
	ProjectURL    string    `json:"project_url"`
	ProjectStatus string    `json:"project_status"`
}
