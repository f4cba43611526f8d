package domain

import "time"

// PaymentStatus описывает статус оплаты заявки на ремонт.
type PaymentStatus string

const (
	// PaymentStatusUnpaid — заявка создана, оплата ещё не поступила.
	PaymentStatusUnpaid PaymentStatus = "Не оплачено"
	// PaymentStatusPaid — оплата подтверждена; терминальное состояние.
	PaymentStatusPaid PaymentStatus = "Оплачено"
)

// Valid сообщает, является ли значение одним из двух допустимых статусов.
func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPaid
}

// Vehicle — зарегистрированное транспортное средство СТО.
type Vehicle struct {
	// ID — непрозрачный уникальный идентификатор, выдаётся при регистрации.
	ID string
	// Brand и Model — свободный текст, без валидации.
	Brand string
	Model string
	// Year — год выпуска; парсинг и проверка числа лежат на вызывающей стороне.
	Year int
	// RegNumber уникален среди всех живых транспортных средств (точное совпадение).
	RegNumber string
	Owner     string
	// RegisteredAt фиксируется при создании и далее не меняется.
	RegisteredAt time.Time
}

// RepairOrder — заявка на ремонт, привязанная ровно к одному транспортному средству.
type RepairOrder struct {
	ID string
	// VehicleID — иммутабельная ссылка; на момент создания обязана указывать
	// на существующий Vehicle, висячие ссылки исключены инвариантами Store.
	VehicleID string
	CreatedAt time.Time
	WorkType  string
	Parts     string
	Resources string
	// EstimatedCost всегда неотрицательна.
	EstimatedCost float64
	Status        PaymentStatus
}

// VehicleUpdate описывает частичное обновление Vehicle.
// nil-поле означает "не менять"; присутствующее значение перезаписывает атрибут.
type VehicleUpdate struct {
	Brand     *string
	Model     *string
	Year      *int
	RegNumber *string
	Owner     *string
}

// Empty сообщает, что обновление не затрагивает ни одного поля.
func (u VehicleUpdate) Empty() bool {
	return u.Brand == nil && u.Model == nil && u.Year == nil && u.RegNumber == nil && u.Owner == nil
}
