package domain

type TableStatus string

const (
	TableFree     TableStatus = "free"
	TableReserved TableStatus = "reserved"
	TableBooked   TableStatus = "booked"
)

func (s TableStatus) String() string {
	return string(s)
}

type Restaurant struct {
	ID         string         `json:"id" bson:"_id,omitempty"`
	Name       string         `json:"name" bson:"name"`
	Cuisine    string         `json:"cuisine,omitempty" bson:"cuisine,omitempty"`
	Categories []MenuCategory `json:"categories,omitempty" bson:"categories,omitempty"`
	MenuItems  []MenuItem     `json:"menu_items,omitempty" bson:"menu_items,omitempty"`
	Tables     []Table        `json:"tables,omitempty" bson:"tables,omitempty"`
}

type MenuCategory struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

type MenuItem struct {
	ID         string  `json:"id" bson:"id"`
	CategoryID string  `json:"category_id,omitempty" bson:"category_id,omitempty"`
	Name       string  `json:"name" bson:"name"`
	Price      float64 `json:"price" bson:"price"`
	Available  bool    `json:"available" bson:"available"`
}

type Table struct {
	ID     string      `json:"id" bson:"id"`
	Number int         `json:"number" bson:"number"`
	Seats  int         `json:"seats,omitempty" bson:"seats,omitempty"`
	Status TableStatus `json:"status" bson:"status"`
}

// FindTable returns the table with the given id, or nil when the reference
// dangles.
func (r *Restaurant) FindTable(tableID string) *Table {
	for i := range r.Tables {
		if r.Tables[i].ID == tableID {
			return &r.Tables[i]
		}
	}
	return nil
}
