// Package cli реализует интерактивное текстовое меню СТО.
// Это тонкий внешний коллаборатор: он собирает и валидирует ввод,
// печатает таблицы и делегирует всю бизнес-логику Store и Query Engine.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sto/internal/domain"
	"github.com/vladislavdragonenkov/sto/internal/invoice"
	"github.com/vladislavdragonenkov/sto/internal/service/query"
	"github.com/vladislavdragonenkov/sto/internal/service/store"
)

const mainMenu = `
=============================================
    СИСТЕМА УПРАВЛІННЯ СТО
=============================================
1. Зареєструвати новий транспортний засіб
2. Редагувати інформацію про транспортний засіб
3. Видалити транспортний засіб
4. Додати заявку на ремонт
5. Позначити заявку як оплачену
6. Згенерувати рахунок
7. Переглянути список транспортних засобів
8. Переглянути заявки на ремонт
9. Вихід
=============================================
`

// App — CLI-приложение поверх Store и Query Engine.
type App struct {
	store      *store.Store
	query      *query.Engine
	in         *bufio.Reader
	out        io.Writer
	invoiceDir string
	logger     *log.Entry
}

// New создаёт CLI-приложение. invoiceDir — каталог для файлов счетов.
func New(st *store.Store, q *query.Engine, in io.Reader, out io.Writer, invoiceDir string, logger *log.Entry) *App {
	if logger == nil {
		logger = log.WithField("component", "cli")
	}
	return &App{
		store:      st,
		query:      q,
		in:         bufio.NewReader(in),
		out:        out,
		invoiceDir: invoiceDir,
		logger:     logger,
	}
}

// Run крутит главное меню до выбора «Вихід», конца ввода или отмены контекста.
func (a *App) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(a.out, mainMenu)
		choice, err := a.readLine("Виберіть опцію (1-9): ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch choice {
		case "1":
			a.registerVehicle()
		case "2":
			a.editVehicle()
		case "3":
			a.deleteVehicle()
		case "4":
			a.addRepairOrder()
		case "5":
			a.markOrderPaid()
		case "6":
			a.generateInvoice()
		case "7":
			a.viewVehicles()
		case "8":
			a.viewRepairOrders()
		case "9":
			fmt.Fprintln(a.out, "Дякуємо за використання Системи управління СТО.")
			return nil
		default:
			fmt.Fprintln(a.out, "Невірний вибір. Спробуйте ще раз.")
		}
	}
}

func (a *App) registerVehicle() {
	fmt.Fprintln(a.out, "\n=== Реєстрація нового транспортного засобу ===")

	brand := a.mustReadLine("Марка: ")
	model := a.mustReadLine("Модель: ")
	yearStr := a.mustReadLine("Рік випуску: ")
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		fmt.Fprintln(a.out, "Помилка: рік випуску має бути числом.")
		return
	}
	regNumber := a.mustReadLine("Реєстраційний номер: ")
	owner := a.mustReadLine("Власник: ")

	if _, err := a.store.RegisterVehicle(brand, model, year, regNumber, owner); err != nil {
		a.printError(err)
		return
	}
	fmt.Fprintln(a.out, "Транспортний засіб успішно зареєстровано.")
}

func (a *App) editVehicle() {
	fmt.Fprintln(a.out, "\n=== Редагування транспортного засобу ===")

	target, ok := a.chooseVehicle("Введіть ID транспортного засобу для редагування: ")
	if !ok {
		return
	}

	fmt.Fprintf(a.out, "\nРедагування %s %s (%s)\n", target.Brand, target.Model, target.RegNumber)
	fmt.Fprintln(a.out, "Залиште поле порожнім, якщо не хочете змінювати його.")

	update := domain.VehicleUpdate{
		Brand: a.readOptional(fmt.Sprintf("Марка [%s]: ", target.Brand)),
		Model: a.readOptional(fmt.Sprintf("Модель [%s]: ", target.Model)),
	}
	if yearStr := a.readOptional(fmt.Sprintf("Рік випуску [%d]: ", target.Year)); yearStr != nil {
		year, err := strconv.Atoi(*yearStr)
		if err != nil {
			fmt.Fprintln(a.out, "Помилка: рік випуску має бути числом.")
			return
		}
		update.Year = &year
	}
	update.RegNumber = a.readOptional(fmt.Sprintf("Реєстраційний номер [%s]: ", target.RegNumber))
	update.Owner = a.readOptional(fmt.Sprintf("Власник [%s]: ", target.Owner))

	if _, err := a.store.EditVehicle(target.ID, update); err != nil {
		a.printError(err)
		return
	}
	fmt.Fprintln(a.out, "Інформацію про транспортний засіб успішно оновлено.")
}

func (a *App) deleteVehicle() {
	fmt.Fprintln(a.out, "\n=== Видалення транспортного засобу ===")

	target, ok := a.chooseVehicle("Введіть ID транспортного засобу для видалення: ")
	if !ok {
		return
	}

	confirm := a.mustReadLine(fmt.Sprintf(
		"Ви впевнені, що хочете видалити %s %s (%s)? (y/n): ",
		target.Brand, target.Model, target.RegNumber))
	if !strings.EqualFold(confirm, "y") {
		return
	}

	if err := a.store.DeleteVehicle(target.ID); err != nil {
		a.printError(err)
		return
	}
	fmt.Fprintln(a.out, "Транспортний засіб успішно видалено.")
}

func (a *App) addRepairOrder() {
	fmt.Fprintln(a.out, "\n=== Додавання заявки на ремонт ===")

	target, ok := a.chooseVehicle("Введіть ID транспортного засобу для додавання заявки: ")
	if !ok {
		return
	}

	fmt.Fprintf(a.out, "\nДодавання заявки для %s %s (%s)\n", target.Brand, target.Model, target.RegNumber)
	workType := a.mustReadLine("Тип робіт: ")
	parts := a.mustReadLine("Запчастини (розділяйте комою): ")
	resources := a.mustReadLine("Ресурси (розділяйте комою): ")

	costStr := a.mustReadLine("Орієнтовна вартість: ")
	cost, err := strconv.ParseFloat(costStr, 64)
	if err != nil {
		fmt.Fprintln(a.out, "Помилка: вартість має бути числом.")
		return
	}

	if _, err := a.store.AddRepairOrder(target.ID, workType, parts, resources, cost); err != nil {
		a.printError(err)
		return
	}
	fmt.Fprintln(a.out, "Заявку на ремонт успішно додано.")
}

func (a *App) markOrderPaid() {
	fmt.Fprintln(a.out, "\n=== Позначення заявки як оплаченої ===")

	orders := a.query.ListRepairOrders("")
	unpaid := make([]query.OrderView, 0, len(orders))
	for _, o := range orders {
		if o.Status == domain.PaymentStatusUnpaid {
			unpaid = append(unpaid, o)
		}
	}
	if len(unpaid) == 0 {
		fmt.Fprintln(a.out, "Немає неоплачених заявок.")
		return
	}
	a.printOrderTable(unpaid)

	prefix := a.mustReadLine("\nВведіть перші 8 символів ID заявки для позначення як оплаченої: ")
	target, ok := findOrderByPrefix(unpaid, prefix)
	if !ok {
		fmt.Fprintln(a.out, "Заявку не знайдено або вона вже оплачена.")
		return
	}

	if _, err := a.store.MarkOrderPaid(target.ID); err != nil {
		a.printError(err)
		return
	}
	fmt.Fprintln(a.out, "Заявку успішно позначено як оплачену.")
}

func (a *App) generateInvoice() {
	fmt.Fprintln(a.out, "\n=== Генерація рахунку ===")

	orders := a.query.ListRepairOrders("")
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "Немає заявок на ремонт.")
		return
	}
	a.printOrderTable(orders)

	prefix := a.mustReadLine("\nВведіть ID заявки для генерації рахунку: ")
	target, ok := findOrderByPrefix(orders, prefix)
	if !ok {
		fmt.Fprintln(a.out, "Заявку не знайдено.")
		return
	}

	inv, err := a.query.Invoice(target.ID)
	if err != nil {
		a.printError(err)
		return
	}
	fmt.Fprintln(a.out, invoice.Render(inv))

	path, err := invoice.WriteFile(a.invoiceDir, inv)
	if err != nil {
		a.logger.WithError(err).Warn("не вдалося зберегти файл рахунку")
		fmt.Fprintln(a.out, "Не вдалося зберегти рахунок у файл.")
		return
	}
	fmt.Fprintf(a.out, "Рахунок збережено у файл %s\n", path)
}

func (a *App) viewVehicles() {
	fmt.Fprintln(a.out, "\n=== Перегляд транспортних засобів ===")

	vehicles := a.query.ListVehicles(query.VehicleFilter{})
	if len(vehicles) == 0 {
		fmt.Fprintln(a.out, "Немає зареєстрованих транспортних засобів.")
		return
	}

	for {
		fmt.Fprintln(a.out, "\n--- МЕНЮ ПЕРЕГЛЯДУ ТРАНСПОРТНИХ ЗАСОБІВ ---")
		fmt.Fprintln(a.out, "1. Переглянути всі транспортні засоби")
		fmt.Fprintln(a.out, "2. Фільтрувати транспортні засоби")
		fmt.Fprintln(a.out, "3. Сортувати транспортні засоби")
		fmt.Fprintln(a.out, "4. Повернутися до головного меню")

		// Конец ввода внутри подменю выходит в главное меню, а не крутит цикл.
		choice, err := a.readLine("Виберіть опцію (1-4): ")
		if err != nil {
			return
		}

		switch choice {
		case "1":
			fmt.Fprintln(a.out, "\n--- СПИСОК ВСІХ ТРАНСПОРТНИХ ЗАСОБІВ ---")
			a.printVehicleTable(vehicles)
		case "2":
			a.filterVehicles()
		case "3":
			a.sortVehicles(vehicles)
		case "4":
			return
		default:
			fmt.Fprintln(a.out, "Невірний вибір. Спробуйте ще раз.")
		}
	}
}

func (a *App) filterVehicles() {
	fmt.Fprintln(a.out, "\n--- ФІЛЬТРАЦІЯ ТРАНСПОРТНИХ ЗАСОБІВ ---")
	fmt.Fprintln(a.out, "Залиште поля порожніми, якщо не бажаєте застосовувати фільтр")

	filter := query.VehicleFilter{
		Brand: a.mustReadLine("Фільтр за маркою: "),
		Model: a.mustReadLine("Фільтр за моделлю: "),
	}

	fmt.Fprintln(a.out, "1 - Показати тільки оплачені")
	fmt.Fprintln(a.out, "2 - Показати тільки неоплачені")
	fmt.Fprintln(a.out, "0 - Показати всі")
	switch a.mustReadLine("Фільтр за статусом оплати: ") {
	case "1":
		paid := domain.PaymentStatusPaid
		filter.Payment = &paid
	case "2":
		unpaid := domain.PaymentStatusUnpaid
		filter.Payment = &unpaid
	}

	filtered := a.query.ListVehicles(filter)
	if len(filtered) == 0 {
		fmt.Fprintln(a.out, "Немає транспортних засобів, що відповідають критеріям фільтрації.")
		return
	}
	fmt.Fprintln(a.out, "\n--- РЕЗУЛЬТАТИ ФІЛЬТРАЦІЇ ---")
	a.printVehicleTable(filtered)
}

func (a *App) sortVehicles(vehicles []query.VehicleView) {
	fmt.Fprintln(a.out, "\n--- СОРТУВАННЯ ТРАНСПОРТНИХ ЗАСОБІВ ---")
	fmt.Fprintln(a.out, "1 - За роком випуску (новіші спочатку)")
	fmt.Fprintln(a.out, "2 - За власником (за алфавітом)")
	fmt.Fprintln(a.out, "3 - За вартістю робіт (більші спочатку)")
	fmt.Fprintln(a.out, "4 - За кількістю заявок (більше спочатку)")
	fmt.Fprintln(a.out, "5 - За неоплаченими заявками (більше спочатку)")
	fmt.Fprintln(a.out, "0 - Без сортування")

	criterion := query.SortNone
	switch a.mustReadLine("Виберіть тип сортування: ") {
	case "1":
		criterion = query.SortYearDesc
	case "2":
		criterion = query.SortOwnerAsc
	case "3":
		criterion = query.SortTotalCostDesc
	case "4":
		criterion = query.SortOrdersCountDesc
	case "5":
		criterion = query.SortUnpaidOrdersDesc
	default:
		fmt.Fprintln(a.out, "Сортування не застосовано")
	}

	fmt.Fprintln(a.out, "\n--- РЕЗУЛЬТАТИ СОРТУВАННЯ ---")
	a.printVehicleTable(query.SortVehicles(vehicles, criterion))
}

func (a *App) viewRepairOrders() {
	fmt.Fprintln(a.out, "\n=== Перегляд заявок на ремонт ===")

	vehicleID := ""
	if prefix := a.mustReadLine("Фільтр за ID транспортного засобу (залиште порожнім для всіх): "); prefix != "" {
		target, ok := findVehicleByPrefix(a.query.ListVehicles(query.VehicleFilter{}), prefix)
		if !ok {
			fmt.Fprintln(a.out, "Транспортний засіб не знайдено.")
			return
		}
		vehicleID = target.ID
	}

	orders := a.query.ListRepairOrders(vehicleID)
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "Немає заявок на ремонт, що відповідають критеріям.")
		return
	}
	a.printOrderTable(orders)
}

// chooseVehicle печатает сводную таблицу и резолвит транспортное средство по префиксу ID.
func (a *App) chooseVehicle(prompt string) (query.VehicleView, bool) {
	vehicles := a.query.ListVehicles(query.VehicleFilter{})
	if len(vehicles) == 0 {
		fmt.Fprintln(a.out, "Немає зареєстрованих транспортних засобів.")
		return query.VehicleView{}, false
	}
	a.printVehicleSummaryTable(vehicles)

	prefix := a.mustReadLine("\n" + prompt)
	target, ok := findVehicleByPrefix(vehicles, prefix)
	if !ok {
		fmt.Fprintln(a.out, "Транспортний засіб не знайдено.")
		return query.VehicleView{}, false
	}
	return target, true
}

func findVehicleByPrefix(vehicles []query.VehicleView, prefix string) (query.VehicleView, bool) {
	if prefix == "" {
		return query.VehicleView{}, false
	}
	for _, v := range vehicles {
		if strings.HasPrefix(v.ID, prefix) {
			return v, true
		}
	}
	return query.VehicleView{}, false
}

func findOrderByPrefix(orders []query.OrderView, prefix string) (query.OrderView, bool) {
	if prefix == "" {
		return query.OrderView{}, false
	}
	for _, o := range orders {
		if strings.HasPrefix(o.ID, prefix) {
			return o, true
		}
	}
	return query.OrderView{}, false
}

func (a *App) printVehicleSummaryTable(vehicles []query.VehicleView) {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tМарка\tМодель\tРеєстр. номер\tВласник")
	for _, v := range vehicles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shortID(v.ID), v.Brand, v.Model, v.RegNumber, v.Owner)
	}
	_ = w.Flush()
}

func (a *App) printVehicleTable(vehicles []query.VehicleView) {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tМарка\tМодель\tРік\tРеєстр. номер\tВласник\tЗаявок\tНеоплачено\tЗагальна вартість")
	for _, v := range vehicles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%d\t%d\t%.2f грн\n",
			shortID(v.ID), v.Brand, v.Model, v.Year, v.RegNumber, v.Owner,
			v.OrdersCount, v.UnpaidOrders, v.TotalCost)
	}
	_ = w.Flush()
}

func (a *App) printOrderTable(orders []query.OrderView) {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tТранспорт\tРеєстр. номер\tДата\tТип робіт\tВартість\tСтатус")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\t%.2f\t%s\n",
			shortID(o.ID), o.Brand, o.Model, o.RegNumber,
			o.CreatedAt.Format("2006-01-02 15:04:05"), o.WorkType, o.EstimatedCost, o.Status)
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// readLine читает строку и обрезает пробелы; io.EOF пробрасывается вызывающему.
func (a *App) readLine(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// mustReadLine — вариант для веток меню: конец ввода читается как пустая строка.
func (a *App) mustReadLine(prompt string) string {
	line, err := a.readLine(prompt)
	if err != nil {
		return ""
	}
	return line
}

// readOptional возвращает nil для пустого ввода: поле остаётся без изменений.
func (a *App) readOptional(prompt string) *string {
	line := a.mustReadLine(prompt)
	if line == "" {
		return nil
	}
	return &line
}

// printError переводит доменные ошибки в сообщения для пользователя.
func (a *App) printError(err error) {
	switch {
	case errors.Is(err, domain.ErrVehicleNotFound):
		fmt.Fprintln(a.out, "Транспортний засіб не знайдено.")
	case errors.Is(err, domain.ErrOrderNotFound):
		fmt.Fprintln(a.out, "Заявку не знайдено.")
	case errors.Is(err, domain.ErrDuplicateRegNumber):
		fmt.Fprintln(a.out, "Помилка: транспортний засіб з таким реєстраційним номером вже існує.")
	case errors.Is(err, domain.ErrVehicleHasOrders):
		fmt.Fprintln(a.out, "Неможливо видалити: є активні заявки на ремонт для цього транспортного засобу.")
	case errors.Is(err, domain.ErrCostNegative):
		fmt.Fprintln(a.out, "Помилка: вартість має бути невід'ємним числом.")
	default:
		a.logger.WithError(err).Error("операція завершилася помилкою")
		fmt.Fprintf(a.out, "Помилка: %v\n", err)
	}
}
