package category

// Category is a spending bucket shared by every user.
type Category struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"column:name;not null"`
	Icon      string `json:"icon" gorm:"column:icon;not null"`
	Color     string `json:"color" gorm:"column:color;not null"`
	IsDefault bool   `json:"is_default" gorm:"column:is_default;not null"`
}

func (Category) TableName() string {
	return "categories"
}

// Defaults is the fixed set seeded into every store, in display order.
func Defaults() []Category {
	return []Category{
		{Name: "Food & Dining", Icon: "fas fa-utensils", Color: "orange", IsDefault: true},
		{Name: "Transportation", Icon: "fas fa-car", Color: "blue", IsDefault: true},
		{Name: "Shopping", Icon: "fas fa-shopping-bag", Color: "green", IsDefault: true},
		{Name: "Entertainment", Icon: "fas fa-gamepad", Color: "purple", IsDefault: true},
		{Name: "Health", Icon: "fas fa-heartbeat", Color: "red", IsDefault: true},
		{Name: "Bills & Utilities", Icon: "fas fa-receipt", Color: "gray", IsDefault: true},
		{Name: "Other", Icon: "fas fa-ellipsis-h", Color: "gray", IsDefault: true},
	}
}
