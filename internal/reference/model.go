package reference

// EnumDirectory описывает один справочник типа enum
type EnumDirectory struct {
	Name  string     `yaml:"name" json:"name"`
	Items []EnumItem `yaml:"items" json:"items"`
}

type EnumItem struct {
	Code  string `yaml:"code" json:"code"`
	Name  string `yaml:"name" json:"name"`
	Order int    `yaml:"order,omitempty" json:"order,omitempty"`
}

// Codes возвращает коды в порядке Order (при равенстве в порядке файла).
func (d EnumDirectory) Codes() []string {
	out := make([]string, len(d.Items))
	for i, it := range d.Items {
		out[i] = it.Code
	}
	return out
}

func (d EnumDirectory) Has(code string) bool {
	for _, it := range d.Items {
		if it.Code == code {
			return true
		}
	}
	return false
}
