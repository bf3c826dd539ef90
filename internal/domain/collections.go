// Package domain задаёт типизированные сущности учёта и имена коллекций хранилища.
package domain

// Имена коллекций совпадают с ключами хранилища.
const (
	RawMaterials      = "rawMaterials"
	Incoming          = "incoming"
	ChemistryCatalog  = "chemistryCatalog"
	ChemistryTasks    = "chemistryTasks"
	ChemistryBatches  = "chemistryBatches"
	Recipes           = "recipes"
	Orders            = "orders"
	ProductionBatches = "productionBatches"
	OtkChecks         = "otkChecks"
	WarehouseBatches  = "warehouseBatches"
	Sales             = "sales"
	Shipments         = "shipments"
	Clients           = "clients"
	Lines             = "lines"
	Users             = "users"
	Roles             = "roles"
	Shifts            = "shifts"
)

var collections = []string{
	RawMaterials, Incoming, ChemistryCatalog, ChemistryTasks, ChemistryBatches,
	Recipes, Orders, ProductionBatches, OtkChecks, WarehouseBatches,
	Sales, Shipments, Clients, Lines, Users, Roles, Shifts,
}

func Collections() []string {
	out := make([]string, len(collections))
	copy(out, collections)
	return out
}

func IsCollection(name string) bool {
	for _, c := range collections {
		if c == name {
			return true
		}
	}
	return false
}
