package domain

import "errors"

var (
	// ErrVehicleNotFound возвращается, если транспортное средство не найдено.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrOrderNotFound возвращается, если заявка на ремонт не найдена.
	ErrOrderNotFound = errors.New("repair order not found")
	// ErrDuplicateRegNumber — регистрационный номер уже занят другим транспортным средством.
	ErrDuplicateRegNumber = errors.New("registration number already exists")
	// ErrVehicleHasOrders — удаление заблокировано: на транспортное средство ссылаются заявки.
	ErrVehicleHasOrders = errors.New("vehicle has repair orders")
	// ErrCostNegative — ориентировочная стоимость не может быть отрицательной.
	ErrCostNegative = errors.New("estimated cost must be non-negative")
	// ErrSnapshotCorrupted сигнализирует о нечитаемом документе хранилища.
	ErrSnapshotCorrupted = errors.New("snapshot document corrupted")
)

// IsNotFound проверяет, является ли ошибка одной из ошибок "не найдено".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrVehicleNotFound) || errors.Is(err, ErrOrderNotFound)
}
