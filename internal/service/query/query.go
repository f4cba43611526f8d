package query

import (
	"sort"
	"strings"

	"github.com/vladislavdragonenkov/sto/internal/domain"
	"github.com/vladislavdragonenkov/sto/internal/invoice"
)

// Source — read-only доступ к состоянию Store.
// Query Engine никогда не мутирует коллекции, только читает и выводит проекции.
type Source interface {
	Vehicles() []domain.Vehicle
	Orders() []domain.RepairOrder
	VehicleByID(id string) (domain.Vehicle, error)
	OrderByID(id string) (domain.RepairOrder, error)
}

// Engine строит проекции поверх Store.
type Engine struct {
	source Source
}

// NewEngine создаёт Query Engine над указанным источником.
func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// VehicleView — транспортное средство, обогащённое агрегатами по его заявкам.
type VehicleView struct {
	domain.Vehicle

	// OrdersCount — все заявки, ссылающиеся на транспортное средство.
	OrdersCount int
	// UnpaidOrders — заявки со статусом "Не оплачено".
	UnpaidOrders int
	// TotalCost — сумма ориентировочных стоимостей всех заявок, оплаченных и нет.
	TotalCost float64
}

// OrderView — заявка, обогащённая данными владеющего транспортного средства.
type OrderView struct {
	domain.RepairOrder

	Brand     string
	Model     string
	RegNumber string
	Owner     string
}

// VehicleFilter описывает необязательные критерии отбора.
// Пустые строки означают отсутствие фильтра.
type VehicleFilter struct {
	// Brand и Model сравниваются как подстроки без учёта регистра.
	Brand string
	Model string
	// Payment: Paid оставляет только транспорт без неоплаченных заявок,
	// Unpaid — только с хотя бы одной неоплаченной. nil — без фильтра.
	Payment *domain.PaymentStatus
}

// ListVehicles возвращает проекции в порядке вставки Store с применённым фильтром.
func (e *Engine) ListVehicles(filter VehicleFilter) []VehicleView {
	orders := e.source.Orders()

	views := make([]VehicleView, 0)
	for _, v := range e.source.Vehicles() {
		view := VehicleView{Vehicle: v}
		for _, o := range orders {
			if o.VehicleID != v.ID {
				continue
			}
			view.OrdersCount++
			view.TotalCost += o.EstimatedCost
			if o.Status == domain.PaymentStatusUnpaid {
				view.UnpaidOrders++
			}
		}
		if !matchVehicle(view, filter) {
			continue
		}
		views = append(views, view)
	}
	return views
}

func matchVehicle(view VehicleView, filter VehicleFilter) bool {
	if filter.Brand != "" && !strings.Contains(strings.ToLower(view.Brand), strings.ToLower(filter.Brand)) {
		return false
	}
	if filter.Model != "" && !strings.Contains(strings.ToLower(view.Model), strings.ToLower(filter.Model)) {
		return false
	}
	if filter.Payment != nil {
		switch *filter.Payment {
		case domain.PaymentStatusPaid:
			if view.UnpaidOrders > 0 {
				return false
			}
		case domain.PaymentStatusUnpaid:
			if view.UnpaidOrders == 0 {
				return false
			}
		}
	}
	return true
}

// SortCriterion задаёт критерий сортировки проекций.
type SortCriterion string

const (
	// SortNone возвращает входной порядок без изменений.
	SortNone SortCriterion = "none"
	// SortYearDesc — по году выпуска, новее сначала.
	SortYearDesc SortCriterion = "year_desc"
	// SortOwnerAsc — по владельцу, алфавитно без учёта регистра.
	SortOwnerAsc SortCriterion = "owner_asc"
	// SortTotalCostDesc — по суммарной стоимости работ, больше сначала.
	SortTotalCostDesc SortCriterion = "total_cost_desc"
	// SortOrdersCountDesc — по количеству заявок, больше сначала.
	SortOrdersCountDesc SortCriterion = "orders_count_desc"
	// SortUnpaidOrdersDesc — по неоплаченным заявкам, больше сначала.
	SortUnpaidOrdersDesc SortCriterion = "unpaid_orders_desc"
)

// SortVehicles возвращает отсортированную копию. Сортировка стабильна:
// при равенстве ключей сохраняется прежний относительный порядок.
func SortVehicles(views []VehicleView, criterion SortCriterion) []VehicleView {
	sorted := make([]VehicleView, len(views))
	copy(sorted, views)

	switch criterion {
	case SortYearDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year > sorted[j].Year })
	case SortOwnerAsc:
		sort.SliceStable(sorted, func(i, j int) bool {
			return strings.ToLower(sorted[i].Owner) < strings.ToLower(sorted[j].Owner)
		})
	case SortTotalCostDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TotalCost > sorted[j].TotalCost })
	case SortOrdersCountDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OrdersCount > sorted[j].OrdersCount })
	case SortUnpaidOrdersDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].UnpaidOrders > sorted[j].UnpaidOrders })
	}

	return sorted
}

// ListRepairOrders возвращает заявки с данными владельца в порядке вставки Store.
// vehicleID == "" означает "все заявки". Заявка, чьё транспортное средство
// не резолвится, молча пропускается: инварианты Store такого не допускают,
// но повреждённый внешний документ не должен валить чтение.
func (e *Engine) ListRepairOrders(vehicleID string) []OrderView {
	views := make([]OrderView, 0)
	for _, o := range e.source.Orders() {
		if vehicleID != "" && o.VehicleID != vehicleID {
			continue
		}
		vehicle, err := e.source.VehicleByID(o.VehicleID)
		if err != nil {
			continue
		}
		views = append(views, OrderView{
			RepairOrder: o,
			Brand:       vehicle.Brand,
			Model:       vehicle.Model,
			RegNumber:   vehicle.RegNumber,
			Owner:       vehicle.Owner,
		})
	}
	return views
}

// Invoice собирает набор полей счёта по заявке.
func (e *Engine) Invoice(orderID string) (invoice.Invoice, error) {
	order, err := e.source.OrderByID(orderID)
	if err != nil {
		return invoice.Invoice{}, err
	}
	vehicle, err := e.source.VehicleByID(order.VehicleID)
	if err != nil {
		return invoice.Invoice{}, err
	}

	number := order.ID
	if len(number) > 8 {
		number = number[:8]
	}

	return invoice.Invoice{
		Number:        number,
		CreatedAt:     order.CreatedAt,
		Owner:         vehicle.Owner,
		Brand:         vehicle.Brand,
		Model:         vehicle.Model,
		RegNumber:     vehicle.RegNumber,
		WorkType:      order.WorkType,
		Parts:         order.Parts,
		Resources:     order.Resources,
		EstimatedCost: order.EstimatedCost,
		Status:        string(order.Status),
	}, nil
}

// GenerateInvoice возвращает готовый текст счёта по заявке.
func (e *Engine) GenerateInvoice(orderID string) (string, error) {
	inv, err := e.Invoice(orderID)
	if err != nil {
		return "", err
	}
	return invoice.Render(inv), nil
}
