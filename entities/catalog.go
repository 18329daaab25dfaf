package entities

import "time"

const (
	KindCrop       = "crop"
	KindFertilizer = "fertilizer"
	KindEquipment  = "equipment"
)

// Kinds lists the stock kinds in display order.
var Kinds = []string{KindCrop, KindFertilizer, KindEquipment}

// CatalogFields are shared by crop types, fertilizers and equipment.
type CatalogFields struct {
	Name        string `gorm:"index" json:"name"`
	Category    string `json:"category"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// CatalogItem is implemented by the pointer types of the three catalogs.
type CatalogItem interface {
	Kind() string
	ItemID() uint
	SetItemID(uint)
	Fields() *CatalogFields
}

type CropType struct {
	CropTypeID    uint `gorm:"primaryKey;autoIncrement:false" json:"crop_type_id"`
	CatalogFields `gorm:"embedded"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (c *CropType) Kind() string           { return KindCrop }
func (c *CropType) ItemID() uint           { return c.CropTypeID }
func (c *CropType) SetItemID(id uint)      { c.CropTypeID = id }
func (c *CropType) Fields() *CatalogFields { return &c.CatalogFields }

type Fertilizer struct {
	FertilizerID  uint `gorm:"primaryKey;autoIncrement:false" json:"fertilizer_id"`
	CatalogFields `gorm:"embedded"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (f *Fertilizer) Kind() string           { return KindFertilizer }
func (f *Fertilizer) ItemID() uint           { return f.FertilizerID }
func (f *Fertilizer) SetItemID(id uint)      { f.FertilizerID = id }
func (f *Fertilizer) Fields() *CatalogFields { return &f.CatalogFields }

type Equipment struct {
	EquipmentID   uint `gorm:"primaryKey;autoIncrement:false" json:"equipment_id"`
	CatalogFields `gorm:"embedded"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (e *Equipment) Kind() string           { return KindEquipment }
func (e *Equipment) ItemID() uint           { return e.EquipmentID }
func (e *Equipment) SetItemID(id uint)      { e.EquipmentID = id }
func (e *Equipment) Fields() *CatalogFields { return &e.CatalogFields }

// DefaultUnit is used when a catalog item is created without one.
func DefaultUnit(kind string) string {
	switch kind {
	case KindFertilizer:
		return "bags"
	case KindEquipment:
		return "units"
	default:
		return "kg"
	}
}

// Stock is the quantity of one catalog item held by one owner (a farm
// president). Quantity never goes below zero.
type Stock struct {
	StockID   uint      `gorm:"primaryKey" json:"stock_id"`
	Kind      string    `gorm:"uniqueIndex:idx_stock_item" json:"kind"`
	ItemID    uint      `gorm:"uniqueIndex:idx_stock_item" json:"item_id"`
	OwnerID   uint      `gorm:"uniqueIndex:idx_stock_item" json:"owner_id"`
	ItemName  string    `json:"item_name"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	UpdatedAt time.Time `json:"updated_at"`
}
