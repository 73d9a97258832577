package model

import "time"

type MenuItem struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=1000"`
	Category    string    `json:"category" bson:"category" validate:"required,min=2,max=50"`
	Price       float64   `json:"price" bson:"price" validate:"required,gt=0"`
	ImageURL    string    `json:"image_url,omitempty" bson:"image_url,omitempty" validate:"omitempty,url"`
	ImageHint   string    `json:"image_hint,omitempty" bson:"image_hint,omitempty" validate:"omitempty,max=100"`
	Available   bool      `json:"available" bson:"available"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// ToCartItem builds a cart line priced from the catalog.
func (m *MenuItem) ToCartItem(extras string) CartItem {
	return CartItem{
		ID:        m.ID,
		Name:      m.Name,
		UnitPrice: m.Price,
		Quantity:  1,
		ImageURL:  m.ImageURL,
		ImageHint: m.ImageHint,
		Extras:    extras,
	}
}

// MenuItemCreate is the admin request body for a new menu item. Available defaults to true.
type MenuItemCreate struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Category    string  `json:"category" validate:"required,min=2,max=50"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	ImageURL    string  `json:"image_url,omitempty" validate:"omitempty,url"`
	ImageHint   string  `json:"image_hint,omitempty" validate:"omitempty,max=100"`
	Available   *bool   `json:"available,omitempty"`
}

func (c *MenuItemCreate) ToMenuItem() *MenuItem {
	available := true
	if c.Available != nil {
		available = *c.Available
	}
	return &MenuItem{
		Name:        c.Name,
		Description: c.Description,
		Category:    c.Category,
		Price:       c.Price,
		ImageURL:    c.ImageURL,
		ImageHint:   c.ImageHint,
		Available:   available,
	}
}

type AvailabilityUpdate struct {
	Available *bool `json:"available" validate:"required"`
}

type User struct {
	ID      string  `json:"id" bson:"_id"`
	Loyalty Loyalty `json:"loyalty" bson:"loyalty"`
}

type Loyalty struct {
	Points int64 `json:"points" bson:"points"`
}
