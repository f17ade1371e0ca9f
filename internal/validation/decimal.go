package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// decimalShape — число цифр всего и после запятой, как у numeric(p,s).
type decimalShape struct {
	digits, places int
}

// parseDecimalParam разбирает параметр тега decimal вида "10.2".
func parseDecimalParam(param string) (decimalShape, bool) {
	p, s, ok := strings.Cut(param, ".")
	if !ok {
		return decimalShape{}, false
	}
	digits, err1 := strconv.Atoi(p)
	places, err2 := strconv.Atoi(s)
	if err1 != nil || err2 != nil || digits < 1 || places < 0 || places > digits {
		return decimalShape{}, false
	}
	return decimalShape{digits: digits, places: places}, true
}

// decimalProblem returns the message for a value that does not fit the
// column, or "" when it fits.
func decimalProblem(f float64, shape decimalShape) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "A valid number is required."
	}

	// кратчайшее десятичное представление: 0.001 → "0.001", 1e12 → "1000000000000"
	text := strconv.FormatFloat(math.Abs(f), 'f', -1, 64)
	whole, frac, _ := strings.Cut(text, ".")
	whole = strings.TrimLeft(whole, "0")

	places := len(frac)
	digits := len(whole) + places
	if whole == "" {
		// 0.001: значащих цифр перед запятой нет, считаем только дробную часть
		digits = places
	}

	switch {
	case digits > shape.digits:
		return fmt.Sprintf("Ensure that there are no more than %d digits in total.", shape.digits)
	case places > shape.places:
		return fmt.Sprintf("Ensure that there are no more than %d decimal places.", shape.places)
	case len(whole) > shape.digits-shape.places:
		return fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", shape.digits-shape.places)
	}
	return ""
}

func validateDecimal(fl validator.FieldLevel) bool {
	shape, ok := parseDecimalParam(fl.Param())
	if !ok {
		return false
	}
	return decimalProblem(fl.Field().Float(), shape) == ""
}

func decimalMessage(fe validator.FieldError) string {
	shape, ok := parseDecimalParam(fe.Param())
	if !ok {
		return "A valid number is required."
	}
	f, ok := deref(fe.Value()).(float64)
	if !ok {
		return "A valid number is required."
	}
	return decimalProblem(f, shape)
}
