package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"roomsync/pkg/logger"
	"roomsync/pkg/model"

	"github.com/go-playground/validator/v10"
)

// Room numbers are what the front desk types: "101", "B-12", "PH1".
var roomNumberRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return v.Field + ": " + v.Message
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, err := range v {
		parts[i] = err.Error()
	}
	return "invalid room: " + strings.Join(parts, "; ")
}

type RoomValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewRoomValidator(log *logger.Logger) *RoomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("room_number", func(fl validator.FieldLevel) bool {
		return roomNumberRegex.MatchString(fl.Field().String())
	}); err != nil {
		log.Fatal("Failed to register room_number validation", "error", err)
	}
	return &RoomValidator{validate: v, logger: log}
}

// ValidateRoom checks the setup fields. Occupancy is owned by the engine and
// is not validated here.
func (v *RoomValidator) ValidateRoom(room *model.Room) error {
	var errs ValidationErrors

	if err := v.validate.Struct(room); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		errs = append(errs, describe(fieldErrs)...)
	}

	if room.HousekeepingStatus != "" && !room.HousekeepingStatus.Valid() {
		errs = append(errs, ValidationError{
			Field:   "housekeeping_status",
			Message: fmt.Sprintf("%q is not a known housekeeping status", room.HousekeepingStatus),
		})
	}

	if len(errs) > 0 {
		v.logger.Debug("Room rejected", "number", room.Number, "errors", errs.Error())
		return errs
	}
	return nil
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}

func describe(fieldErrs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "min":
			msg = "must be at least " + fe.Param()
		case "max":
			msg = "must be at most " + fe.Param()
		case "room_number":
			msg = "may only contain letters, digits and dashes"
		default:
			msg = "failed " + fe.Tag() + " check"
		}
		out = append(out, ValidationError{Field: fe.Field(), Message: msg})
	}
	return out
}
