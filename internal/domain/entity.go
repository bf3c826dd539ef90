package domain

// Поля необязательные: записи создаются формами, и любой атрибут может отсутствовать.

type RawMaterial struct {
	ID   Text `json:"id,omitempty"`
	Name Text `json:"name,omitempty"`
	Unit Text `json:"unit,omitempty"`
}

type IncomingEntry struct {
	ID       Text     `json:"id,omitempty"`
	Date     Text     `json:"date,omitempty"`
	Material Text     `json:"material,omitempty"`
	Quantity Quantity `json:"quantity,omitempty"`
	Unit     Text     `json:"unit,omitempty"`
	Batch    Text     `json:"batch,omitempty"`
	Supplier Text     `json:"supplier,omitempty"`
	Comment  Text     `json:"comment,omitempty"`
}

type ChemistryCatalogItem struct {
	ID          Text        `json:"id,omitempty"`
	Name        Text        `json:"name,omitempty"`
	Unit        Text        `json:"unit,omitempty"`
	Composition Composition `json:"composition,omitempty"`
}

type TaskElement struct {
	Element  Text     `json:"element"`
	Quantity Quantity `json:"quantity"`
	Unit     Text     `json:"unit"`
}

type ChemistryTask struct {
	ID          Text          `json:"id,omitempty"`
	Name        Text          `json:"name,omitempty"`
	Description Text          `json:"description,omitempty"`
	Deadline    Text          `json:"deadline,omitempty"`
	Status      Text          `json:"status,omitempty"`
	Elements    []TaskElement `json:"elements,omitempty"`
}

type CompositionLine struct {
	Type     Text     `json:"type"` // raw | chem
	Name     Text     `json:"name"`
	Quantity Quantity `json:"quantity"`
	Unit     Text     `json:"unit"`
}

type Recipe struct {
	ID          Text        `json:"id,omitempty"`
	Recipe      Text        `json:"recipe,omitempty"`
	Name        Text        `json:"name,omitempty"`
	Product     Text        `json:"product,omitempty"`
	Composition Composition `json:"composition,omitempty"`
	Components  Composition `json:"components,omitempty"`
}

// Lines: состав рецепта; старые записи хранили его в components.
func (r Recipe) Lines() Composition {
	if len(r.Composition) > 0 {
		return r.Composition
	}
	return r.Components
}

// Title возвращает название рецепта. В разных формах оно сохранялось то в recipe, то в name.
func (r Recipe) Title() string {
	if r.Recipe != "" {
		return string(r.Recipe)
	}
	return string(r.Name)
}

type Order struct {
	ID       Text     `json:"id,omitempty"`
	Number   Text     `json:"number,omitempty"`
	Name     Text     `json:"name,omitempty"`
	Status   Text     `json:"status,omitempty"`
	Product  Text     `json:"product,omitempty"`
	Recipe   Text     `json:"recipe,omitempty"`
	Line     Text     `json:"line,omitempty"`
	Quantity Quantity `json:"quantity,omitempty"`
	Operator Text     `json:"operator,omitempty"`
	Date     Text     `json:"date,omitempty"`
}

type ProductionBatch struct {
	ID        Text     `json:"id,omitempty"`
	OrderID   Text     `json:"orderId,omitempty"`
	OtkStatus Text     `json:"otkStatus,omitempty"`
	Product   Text     `json:"product,omitempty"`
	Line      Text     `json:"line,omitempty"`
	Quantity  Quantity `json:"quantity,omitempty"`
	Operator  Text     `json:"operator,omitempty"`
	Date      Text     `json:"date,omitempty"`
}

type OtkCheck struct {
	ID           Text     `json:"id,omitempty"`
	BatchID      Text     `json:"batchId,omitempty"`
	OrderID      Text     `json:"orderId,omitempty"`
	Status       Text     `json:"status,omitempty"`
	Product      Text     `json:"product,omitempty"`
	Quantity     Quantity `json:"quantity,omitempty"`
	Accepted     Quantity `json:"accepted"`
	Rejected     Quantity `json:"rejected"`
	RejectReason Text     `json:"rejectReason,omitempty"`
	Inspector    Text     `json:"inspector,omitempty"`
	CheckedDate  Text     `json:"checkedDate,omitempty"`
	Comment      Text     `json:"comment,omitempty"`
}

type WarehouseBatch struct {
	ID       Text     `json:"id,omitempty"`
	Product  Text     `json:"product,omitempty"`
	Quantity Quantity `json:"quantity"`
	Status   Text     `json:"status,omitempty"`
	Date     Text     `json:"date,omitempty"`
	OrderID  Text     `json:"orderId,omitempty"`
	BatchID  Text     `json:"batchId,omitempty"`
}

type Client struct {
	ID      Text `json:"id,omitempty"`
	Name    Text `json:"name,omitempty"`
	INN     Text `json:"inn,omitempty"`
	Contact Text `json:"contact,omitempty"`
	Phone   Text `json:"phone,omitempty"`
	Email   Text `json:"email,omitempty"`
	Address Text `json:"address,omitempty"`
}

type Line struct {
	ID     Text `json:"id,omitempty"`
	Name   Text `json:"name,omitempty"`
	Status Text `json:"status,omitempty"`
}

type User struct {
	ID       Text `json:"id,omitempty"`
	Name     Text `json:"name,omitempty"`
	Email    Text `json:"email,omitempty"`
	Password Text `json:"password,omitempty"`
	Role     Text `json:"role,omitempty"`
}

type Role struct {
	ID          Text     `json:"id,omitempty"`
	Name        Text     `json:"name,omitempty"`
	Description Text     `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

type Sale struct {
	ID       Text     `json:"id,omitempty"`
	Client   Text     `json:"client,omitempty"`
	Product  Text     `json:"product,omitempty"`
	Quantity Quantity `json:"quantity,omitempty"`
	Date     Text     `json:"date,omitempty"`
	Status   Text     `json:"status,omitempty"`
}

type Shipment struct {
	ID       Text     `json:"id,omitempty"`
	Number   Text     `json:"number,omitempty"`
	Client   Text     `json:"client,omitempty"`
	Product  Text     `json:"product,omitempty"`
	Quantity Quantity `json:"quantity,omitempty"`
	Address  Text     `json:"address,omitempty"`
	Date     Text     `json:"date,omitempty"`
}
