package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/dpnk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// customTag is a validator tag understood by request bodies
type customTag struct {
	valid   func(string) bool
	message string
}

var customTags = map[string]customTag{
	"slug": {
		valid:   slugPattern.MatchString,
		message: "Must contain only lowercase letters, digits and hyphens",
	},
	"trip_direction": {
		valid:   func(s string) bool { return trip.Direction(s).IsValid() },
		message: "Must be one of: trip_to trip_from recreational",
	},
	"commute_mode": {
		valid:   func(s string) bool { return trip.CommuteMode(s).IsValid() },
		message: "Unknown commute mode",
	},
}

var setupOnce sync.Once

// SetupValidator makes gin's validator report JSON field names and
// registers the custom tags. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		for tag, ct := range customTags {
			valid := ct.valid
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return valid(fl.Field().String())
			})
		}
	})
}

func fieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		}
		return name
	}
	return fld.Name
}

// FormatValidationErrors turns a binding error into the validation
// response. Malformed JSON and type mismatches are reported as well.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var (
		details   []dto.ValidationDetail
		invalid   validator.ValidationErrors
		mistyped  *json.UnmarshalTypeError
		malformed *json.SyntaxError
	)
	switch {
	case errors.As(err, &invalid):
		for _, fe := range invalid {
			details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: describe(fe)})
		}
	case errors.As(err, &mistyped):
		details = append(details, dto.ValidationDetail{
			Field:   mistyped.Field,
			Message: "Must be of type " + mistyped.Type.String(),
		})
	case errors.As(err, &malformed):
		return dto.NewValidationErrorResponse("Malformed JSON body", requestID, nil)
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError answers 400 with the rejected fields
func HandleValidationError(c *gin.Context, err error) {
	requestID := GetRequestID(c)
	if requestID == "" {
		requestID = c.GetHeader(RequestIDHeader)
	}
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, requestID))
}

func describe(fe validator.FieldError) string {
	if ct, ok := customTags[fe.Tag()]; ok {
		return ct.message
	}
	p := fe.Param()
	switch fe.Tag() {
	case "required", "required_if", "required_without":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "uuid", "uuid4":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + p
	case "len":
		return "Must be exactly " + p + " characters"
	case "gte", "gt":
		return "Must be greater than or equal to " + p
	case "lte", "lt":
		return "Must be less than or equal to " + p
	case "datetime":
		return "Must be a date in format " + p
	case "min", "max":
		bound := "at least "
		if fe.Tag() == "max" {
			bound = "at most "
		}
		switch fe.Kind() {
		case reflect.String:
			return "Must be " + bound + p + " characters"
		case reflect.Slice, reflect.Array, reflect.Map:
			return "Must contain " + bound + p + " items"
		}
		return "Must be " + bound + p
	}
	return "Invalid value"
}
