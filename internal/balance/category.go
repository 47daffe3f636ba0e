package balance

// Category is the visual stock state of a (classification, quantity) pair.
type Category string

const (
	CategoryNone              Category = ""
	CategoryABInStock         Category = "ab_in_stock"
	CategoryABOutOfStock      Category = "ab_out_of_stock"
	CategoryCInStock          Category = "c_in_stock"
	CategoryNoMovementInStock Category = "no_movement_in_stock"
)

var categoryColors = map[Category]string{
	CategoryABInStock:         "#1b8a3a",
	CategoryABOutOfStock:      "#1e88e5",
	CategoryCInStock:          "#fb8c00",
	CategoryNoMovementInStock: "#c62828",
}

var categoryLabels = map[Category]string{
	CategoryABInStock:         "A/B con existencia",
	CategoryABOutOfStock:      "A/B sin existencia",
	CategoryCInStock:          "C con existencia",
	CategoryNoMovementInStock: "Sin movimiento con existencia",
}

// Color returns the hex background color for the category, empty for none.
func (c Category) Color() string {
	return categoryColors[c]
}

// Label returns the legend text for the category.
func (c Category) Label() string {
	return categoryLabels[c]
}

// Categories lists the tagged categories in legend order.
func Categories() []Category {
	return []Category{
		CategoryABInStock,
		CategoryABOutOfStock,
		CategoryCInStock,
		CategoryNoMovementInStock,
	}
}

// Categorize maps a classification and quantity to its category using the
// default no-movement marker.
func Categorize(cls string, qty int) Category {
	return DefaultClassifier.Categorize(cls, qty)
}

// Categorize maps a classification and quantity to its category. Negative
// quantities and unknown labels get no category.
func (c Classifier) Categorize(cls string, qty int) Category {
	switch {
	case c.IsAB(cls) && qty > 0:
		return CategoryABInStock
	case c.IsAB(cls) && qty == 0:
		return CategoryABOutOfStock
	case c.IsC(cls) && qty > 0:
		return CategoryCInStock
	case c.IsNoMovement(cls) && qty > 0:
		return CategoryNoMovementInStock
	}
	return CategoryNone
}
