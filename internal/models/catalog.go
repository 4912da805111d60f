package models

// Category groups products.
type Category struct {
	BaseModel
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
}

// Brand is the optional manufacturer of a product.
type Brand struct {
	BaseModel
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// Color is a variant attribute a product is offered in.
type Color struct {
	BaseModel
	Name string `gorm:"uniqueIndex;not null" json:"name"`
	Hex  string `gorm:"size:7" json:"hex"`
}

// Size is a variant attribute a product is offered in.
type Size struct {
	BaseModel
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}
