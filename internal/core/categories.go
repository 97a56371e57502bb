package core

// Fallback category present in both lists.
const CategoryOther = "Otros"

var (
	IncomeCategories  = []string{"Trabajo", "Freelance", "Inversiones", "Regalos", CategoryOther}
	ExpenseCategories = []string{"Comida", "Transporte", "Entretenimiento", "Hogar", "Salud", "Educación", CategoryOther}
)

// Appearance holds presentation attributes derived from a category. It is
// computed when records are read and never stored.
type Appearance struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// CategoriesFor returns a copy of the category list for kind.
func CategoriesFor(kind Kind) []string {
	var src []string
	switch kind {
	case Income:
		src = IncomeCategories
	case Expense:
		src = ExpenseCategories
	default:
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// DefaultCategory is preselected when a form for kind is opened.
func DefaultCategory(kind Kind) string {
	if kind == Income {
		return "Trabajo"
	}
	return "Comida"
}

func IsValidCategory(kind Kind, name string) bool {
	for _, c := range CategoriesFor(kind) {
		if c == name {
			return true
		}
	}
	return false
}

// AppearanceFor maps a category to its icon and color.
func AppearanceFor(category string, kind Kind) Appearance {
	if kind == Income {
		a := Appearance{Color: "green"}
		switch category {
		case "Trabajo":
			a.Icon = "briefcase"
		case "Freelance":
			a.Icon = "dollar-sign"
		case "Inversiones":
			a.Icon = "trending-up"
		case "Regalos":
			a.Icon = "gift"
		default:
			a.Icon = "wallet"
		}
		return a
	}

	switch category {
	case "Comida":
		return Appearance{Icon: "utensils", Color: "orange"}
	case "Transporte":
		return Appearance{Icon: "car", Color: "blue"}
	case "Entretenimiento":
		return Appearance{Icon: "gamepad", Color: "purple"}
	case "Hogar":
		return Appearance{Icon: "home", Color: "pink"}
	case "Salud":
		return Appearance{Icon: "heart", Color: "red"}
	case "Educación":
		return Appearance{Icon: "book", Color: "indigo"}
	default:
		return Appearance{Icon: "shopping-bag", Color: "gray"}
	}
}
