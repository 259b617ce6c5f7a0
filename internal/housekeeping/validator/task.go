package validator

import (
	"errors"
	"reflect"
	"strings"

	"roomsync/pkg/logger"
	"roomsync/pkg/model"

	"github.com/go-playground/validator/v10"
)

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
	return "invalid task: " + strings.Join(parts, "; ")
}

type TaskValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTaskValidator(log *logger.Logger) *TaskValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &TaskValidator{validate: v, logger: log}
}

// ValidateCreate checks a staff-created task. Priority may be omitted and
// defaults to MEDIUM in the service.
func (v *TaskValidator) ValidateCreate(req *model.CreateTaskRequest) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "max":
			msg = "must be at most " + fe.Param() + " characters"
		case "oneof":
			msg = "must be one of: " + fe.Param()
		default:
			msg = "failed " + fe.Tag() + " check"
		}
		out = append(out, ValidationError{Field: fe.Field(), Message: msg})
	}
	v.logger.Debug("Task rejected", "room_id", req.RoomID, "errors", out.Error())
	return out
}
