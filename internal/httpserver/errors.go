package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/basket_shop/internal/service"
)

// ErrorHandler renders every error as JSON. Field errors become
// {"errors": [...]} with 422, everything else {"error": "..."}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		_ = c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": verr.Fields})
		return
	}

	code := http.StatusInternalServerError
	msg := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		default:
			msg = http.StatusText(code)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": msg})
}

var sentinels = []struct {
	err  error
	code int
}{
	{service.ErrValidation, http.StatusUnprocessableEntity},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
}

func statusFor(err error) int {
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return http.StatusInternalServerError
}

// publicMessage turns "basket not found: not found" into "basket not found".
func publicMessage(err error) string {
	msg := err.Error()
	for _, s := range sentinels {
		msg = strings.TrimSuffix(msg, ": "+s.err.Error())
	}
	return msg
}

// fail logs err under event and converts it into the response error.
func fail(l *slog.Logger, event string, err error) error {
	code := statusFor(err)

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		l.Warn(event, "status", code, "reason", "validation", "error", err)
		return verr
	}
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
		return echo.NewHTTPError(code, "internal server error")
	}
	l.Warn(event, "status", code, "error", err)
	return echo.NewHTTPError(code, publicMessage(err))
}

func bindAndValidate(c echo.Context, l *slog.Logger, event string, req any) error {
	if err := c.Bind(req); err != nil {
		return bindError(l, event, err)
	}
	if err := c.Validate(req); err != nil {
		return fail(l, event, err)
	}
	return nil
}

// bindError reports a value of the wrong type as a field error. Bodies that
// are not JSON at all stay 400.
func bindError(l *slog.Logger, event string, err error) error {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		l.Warn(event, "status", 422, "reason", "wrong field type", "field", ute.Field, "error", err)
		return service.NewValidationError(ute.Field, typeMessage(ute))
	}
	l.Warn(event, "status", 400, "reason", "invalid body", "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func typeMessage(ute *json.UnmarshalTypeError) string {
	field := strings.ReplaceAll(ute.Field, "_", " ")
	if ute.Type == nil {
		return fmt.Sprintf("The %s field is invalid.", field)
	}
	switch ute.Type.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("The %s field must be a positive integer.", field)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("The %s field must be an integer.", field)
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("The %s field must be a number.", field)
	case reflect.String:
		return fmt.Sprintf("The %s field must be a string.", field)
	}
	if ute.Type == decimalType {
		return fmt.Sprintf("The %s field must be a number.", field)
	}
	return fmt.Sprintf("The %s field is invalid.", field)
}
