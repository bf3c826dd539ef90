// Package route хранит статическую таблицу "страница + форма → коллекция и операция".
package route

import (
	"strings"

	"mfgtrack/internal/domain"
)

type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// SpecialChemistryTask: форма задания химику собирается через form.SerializeTask.
const SpecialChemistryTask = "chemistryTask"

type Route struct {
	Collection string `json:"collection"`
	Op         Op     `json:"op"`
	Special    string `json:"special,omitempty"`
}

var submitRoutes = map[string]map[string]Route{
	"materials": {
		"modal-add-raw":  {Collection: domain.RawMaterials, Op: OpAdd},
		"modal-edit-raw": {Collection: domain.RawMaterials, Op: OpUpdate},
		"modal-incoming": {Collection: domain.Incoming, Op: OpAdd},
	},
	"chemistry": {
		"modal-create-task-chem": {Collection: domain.ChemistryTasks, Op: OpAdd, Special: SpecialChemistryTask},
		"modal-create-chem":      {Collection: domain.ChemistryCatalog, Op: OpAdd},
		"modal-produce-chem":     {Collection: domain.ChemistryBatches, Op: OpAdd},
		"modal-confirm-chem-1":   {Collection: domain.ChemistryTasks, Op: OpUpdate},
	},
	"recipes": {
		"modal-create-recipe":    {Collection: domain.Recipes, Op: OpAdd},
		"modal-confirm-recipe-2": {Collection: domain.Recipes, Op: OpUpdate},
	},
	"orders": {
		"modal-create-order":    {Collection: domain.Orders, Op: OpAdd},
		"modal-confirm-order-2": {Collection: domain.Orders, Op: OpUpdate},
	},
	"production": {
		"modal-produce":            {Collection: domain.ProductionBatches, Op: OpAdd},
		"modal-confirm-production": {Collection: domain.ProductionBatches, Op: OpUpdate},
	},
	"otk": {
		"modal-check-otk":   {Collection: domain.OtkChecks, Op: OpAdd},
		"modal-confirm-otk": {Collection: domain.OtkChecks, Op: OpUpdate},
	},
	"warehouse": {
		"modal-add-warehouse": {Collection: domain.WarehouseBatches, Op: OpAdd},
		"modal-accept-gp":     {Collection: domain.WarehouseBatches, Op: OpAdd},
	},
	"sales": {
		"modal-create-sale":       {Collection: domain.Sales, Op: OpAdd},
		"modal-reserve":           {Collection: domain.Sales, Op: OpUpdate},
		"modal-transfer-shipment": {Collection: domain.Sales, Op: OpUpdate},
	},
	"shipment": {
		"modal-create-shipment": {Collection: domain.Shipments, Op: OpAdd},
		"modal-ship":            {Collection: domain.Shipments, Op: OpAdd},
	},
	"users": {
		"modal-create-user":        {Collection: domain.Users, Op: OpAdd},
		"modal-edit-user":          {Collection: domain.Users, Op: OpUpdate},
		"modal-create-role":        {Collection: domain.Roles, Op: OpAdd},
		"modal-edit-role":          {Collection: domain.Roles, Op: OpUpdate},
		"modal-edit-role-admin":    {Collection: domain.Roles, Op: OpUpdate},
		"modal-edit-role-shift":    {Collection: domain.Roles, Op: OpUpdate},
		"modal-edit-role-chem":     {Collection: domain.Roles, Op: OpUpdate},
		"modal-edit-role-tech":     {Collection: domain.Roles, Op: OpUpdate},
		"modal-edit-role-operator": {Collection: domain.Roles, Op: OpUpdate},
		"modal-edit-role-otk":      {Collection: domain.Roles, Op: OpUpdate},
	},
	"clients": {
		"modal-add-client":    {Collection: domain.Clients, Op: OpAdd},
		"modal-create-client": {Collection: domain.Clients, Op: OpAdd},
		"modal-edit-client":   {Collection: domain.Clients, Op: OpUpdate},
	},
	"lines": {
		"modal-create-line": {Collection: domain.Lines, Op: OpAdd},
		"modal-edit-line":   {Collection: domain.Lines, Op: OpUpdate},
	},
	"shifts": {
		"modal-open-shift": {Collection: domain.Shifts, Op: OpAdd},
	},
}

const editRolePrefix = "modal-edit-role-"

// Lookup говорит, куда сохранять форму. ok=false, если маршрута нет и сохранять нечего.
func Lookup(page, formID string) (Route, bool) {
	if r, ok := submitRoutes[page][formID]; ok {
		return r, true
	}
	if page == "users" && strings.HasPrefix(formID, editRolePrefix) {
		return Route{Collection: domain.Roles, Op: OpUpdate}, true
	}
	return Route{}, false
}

// Подтверждение удаления: модалка → коллекция.
var deleteTargets = map[string]map[string]string{
	"materials": {"modal-delete-raw": domain.RawMaterials},
	"users": {
		"modal-delete-user": domain.Users,
		"modal-delete-role": domain.Roles,
	},
	"clients":   {"modal-delete-client": domain.Clients},
	"lines":     {"modal-delete-line": domain.Lines},
	"chemistry": {"modal-delete-chem": domain.ChemistryCatalog},
	"recipes":   {"modal-delete-recipe": domain.Recipes},
}

func DeleteTarget(page, modalID string) (string, bool) {
	c, ok := deleteTargets[page][modalID]
	return c, ok
}

// Модалки редактирования, которые предзаполняются записью.
var editTargets = map[string]map[string]string{
	"materials": {"modal-edit-raw": domain.RawMaterials},
	"users": {
		"modal-edit-user": domain.Users,
		"modal-edit-role": domain.Roles,
	},
	"clients": {"modal-edit-client": domain.Clients},
	"lines":   {"modal-edit-line": domain.Lines},
}

func EditTarget(page, modalID string) (string, bool) {
	if c, ok := editTargets[page][modalID]; ok {
		return c, true
	}
	if page == "users" && strings.HasPrefix(modalID, editRolePrefix) {
		return domain.Roles, true
	}
	return "", false
}

// Pages: страницы, у которых есть хоть одна форма сохранения.
func Pages() []string {
	out := make([]string, 0, len(submitRoutes))
	for p := range submitRoutes {
		out = append(out, p)
	}
	return out
}

// Forms: все формы страницы с маршрутом сохранения.
func Forms(page string) []string {
	out := make([]string, 0, len(submitRoutes[page]))
	for id := range submitRoutes[page] {
		out = append(out, id)
	}
	return out
}
