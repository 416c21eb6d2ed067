package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWeekday(t *testing.T) {
	cases := map[string]string{
		"Miércoles": "miercoles",
		"SABADO":    "sabado",
		" lunes ":   "lunes",
		"sunday":    "domingo",
	}
	for in, want := range cases {
		got, ok := NormalizeWeekday(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := NormalizeWeekday("feriado")
	assert.False(t, ok)
}

func TestOrderWeekdays(t *testing.T) {
	got := OrderWeekdays([]string{"Domingo", "Lunes", "feriado", "lunes", "Miércoles"})
	assert.Equal(t, []string{"Lunes", "Miércoles", "Domingo", "feriado"}, got)

	assert.Empty(t, OrderWeekdays(nil))
}

func TestWeekdayLabel(t *testing.T) {
	assert.Equal(t, "Sábado", WeekdayLabel("sabado"))
	assert.Equal(t, "x", WeekdayLabel("x"))
}

func TestWeekdayKey(t *testing.T) {
	assert.Equal(t, "lunes", WeekdayKey(time.Monday))
	assert.Equal(t, "domingo", WeekdayKey(time.Sunday))
	assert.Equal(t, "sabado", WeekdayKey(time.Saturday))
}
