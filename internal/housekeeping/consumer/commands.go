// Package consumer applies housekeeping commands sent by the handheld apps
// over Kafka.
package consumer

import (
	"context"
	"encoding/json"
	"strings"

	"roomsync/internal/housekeeping/service"
	apperrors "roomsync/pkg/errors"
	"roomsync/pkg/kafka"
	"roomsync/pkg/logger"
	"roomsync/pkg/model"
)

const (
	CommandStart    = "start"
	CommandComplete = "complete"
	CommandVerify   = "verify"
	CommandReject   = "reject"
	CommandCreate   = "create"
)

// Command is the message body. TaskID is required for every command except
// create, which uses RoomID and Type instead.
type Command struct {
	Command  string             `json:"command"`
	TaskID   string             `json:"task_id,omitempty"`
	RoomID   string             `json:"room_id,omitempty"`
	Type     model.TaskType     `json:"type,omitempty"`
	Priority model.TaskPriority `json:"priority,omitempty"`
	Notes    string             `json:"notes,omitempty"`
}

type CommandHandler struct {
	service service.HousekeepingService
	log     *logger.Logger
}

func NewCommandHandler(service service.HousekeepingService, log *logger.Logger) *CommandHandler {
	return &CommandHandler{service: service, log: log}
}

// Handle is a kafka.MessageHandler. Rejected commands (unknown task, invalid
// transition) are business errors: committed without retry or dead-lettering.
func (h *CommandHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var cmd Command
	if err := msg.DecodeValue(&cmd); err != nil {
		return kafka.NewPermanentError("deserialization failed", err)
	}

	var (
		task *model.HousekeepingTask
		err  error
	)
	switch strings.ToLower(cmd.Command) {
	case CommandStart:
		task, err = h.service.Start(ctx, cmd.TaskID)
	case CommandComplete:
		task, err = h.service.Complete(ctx, cmd.TaskID)
	case CommandVerify:
		task, err = h.service.Verify(ctx, cmd.TaskID)
	case CommandReject:
		task, err = h.service.Reject(ctx, cmd.TaskID, cmd.Notes)
	case CommandCreate:
		task, err = h.service.Create(ctx, &model.CreateTaskRequest{
			RoomID:   cmd.RoomID,
			Type:     cmd.Type,
			Priority: cmd.Priority,
			Notes:    cmd.Notes,
		})
	default:
		return kafka.NewPermanentError("invalid message: unknown command "+cmd.Command, nil)
	}

	if err != nil {
		return classify(err)
	}

	h.log.Info("Housekeeping command applied",
		"command", cmd.Command,
		"task_id", task.ID,
		"room_id", task.RoomID,
		"status", task.Status,
		"event_id", msg.GetEventID(),
	)
	return nil
}

func classify(err error) error {
	appErr := apperrors.AsAppError(err)
	switch appErr.Code {
	case apperrors.CodeNotFound, apperrors.CodeConflict, apperrors.CodeValidation, apperrors.CodeInvalidInput:
		return kafka.NewBusinessError(appErr.Message, err)
	default:
		return kafka.NewTransientError(appErr.Message, err)
	}
}

// Marshal encodes a command for producers and tests.
func Marshal(cmd Command) ([]byte, error) {
	return json.Marshal(cmd)
}
