package certificates

import (
	"fmt"
	"time"
)

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// FormatDate renders d as "15 de Janeiro de 2025" using d's own calendar fields.
func FormatDate(d time.Time) string {
	return fmt.Sprintf("%d de %s de %d", d.Day(), monthNames[d.Month()-1], d.Year())
}
