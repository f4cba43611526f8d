// Package invoice отвечает за текстовое представление счёта на оплату.
// Набор полей и их вычисление — забота Query Engine; здесь только вёрстка.
package invoice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	timeLayout = "2006-01-02 15:04:05"

	// placeholder подставляется вместо пустых списков запчастей и ресурсов.
	placeholder = "Не вказано"

	separatorHeavy = "=================================================="
	separatorLight = "--------------------------------------------------"
)

// Invoice — набор полей счёта, выведенный из заявки и её транспортного средства.
type Invoice struct {
	// Number — первые 8 символов идентификатора заявки.
	Number        string
	CreatedAt     time.Time
	Owner         string
	Brand         string
	Model         string
	RegNumber     string
	WorkType      string
	Parts         string
	Resources     string
	EstimatedCost float64
	Status        string
}

// Render выводит счёт в историческом фиксированном формате СТО.
func Render(inv Invoice) string {
	parts := inv.Parts
	if parts == "" {
		parts = placeholder
	}
	resources := inv.Resources
	if resources == "" {
		resources = placeholder
	}

	var b strings.Builder
	b.WriteString(separatorHeavy + "\n")
	b.WriteString("                РАХУНОК НА ОПЛАТУ\n")
	b.WriteString(separatorHeavy + "\n")
	fmt.Fprintf(&b, "Номер рахунку: %s\n", inv.Number)
	fmt.Fprintf(&b, "Дата створення: %s\n", inv.CreatedAt.Format(timeLayout))
	b.WriteString(separatorLight + "\n")
	fmt.Fprintf(&b, "Власник: %s\n", inv.Owner)
	fmt.Fprintf(&b, "Транспортний засіб: %s %s\n", inv.Brand, inv.Model)
	fmt.Fprintf(&b, "Реєстраційний номер: %s\n", inv.RegNumber)
	b.WriteString(separatorLight + "\n")
	fmt.Fprintf(&b, "Тип робіт: %s\n", inv.WorkType)
	fmt.Fprintf(&b, "Запчастини: %s\n", parts)
	fmt.Fprintf(&b, "Ресурси: %s\n", resources)
	b.WriteString(separatorLight + "\n")
	fmt.Fprintf(&b, "Загальна вартість: %.2f грн.\n", inv.EstimatedCost)
	fmt.Fprintf(&b, "Статус оплати: %s\n", inv.Status)
	b.WriteString(separatorHeavy + "\n")
	return b.String()
}

// WriteFile сохраняет счёт в файл invoice_<номер>.txt и возвращает путь к нему.
func WriteFile(dir string, inv Invoice) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("invoice_%s.txt", inv.Number))
	if err := os.WriteFile(path, []byte(Render(inv)), 0o644); err != nil {
		return "", fmt.Errorf("write invoice file: %w", err)
	}
	return path, nil
}
