package domain

// Статусы заказа и партии ОТК.
const (
	StatusCreated          = "Создан"
	StatusInProgress       = "В работе"
	StatusAccepted         = "Принято"
	StatusAcceptedDefects  = "Принято с браком"
	StatusPendingOTK       = "Ожидает ОТК"
	StatusDone             = "Выполнено"
	StatusInStock          = "На складе"
	DefaultCompositionUnit = "кг"
)

// IsFinalOrderStatus: из принятых состояний переходов нет.
func IsFinalOrderStatus(s string) bool {
	return s == StatusAccepted || s == StatusAcceptedDefects
}

// InspectionStatus считает итог проверки ОТК. Любой брак даёт "Принято с браком".
func InspectionStatus(rejected int) string {
	if rejected > 0 {
		return StatusAcceptedDefects
	}
	return StatusAccepted
}
