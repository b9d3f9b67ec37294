// Package boundary is the request/response surface the UI process talks
// to. Each request names a channel and carries positional arguments; each
// response is either {ok: true, data} or {ok: false, error: {kind, message}}.
package boundary

import (
	"encoding/json"
	"errors"

	"expensetracker/internal/core"
)

// Channels
const (
	ChannelGetProjects   = "db:getProjects"
	ChannelAddProject    = "db:addProject"
	ChannelDeleteProject = "db:deleteProject"
	ChannelGetExpenses   = "db:getExpenses"
	ChannelAddExpense    = "db:addExpense"
	ChannelUpdateExpense = "db:updateExpense"
	ChannelDeleteExpense = "db:deleteExpense"
	ChannelSaveImage     = "fs:saveImage"
	ChannelSaveImages    = "fs:saveImages"
)

// Error kinds
const (
	KindValidation    = "validation"
	KindDuplicateName = "duplicate_name"
	KindForeignKey    = "foreign_key"
	KindNotFound      = "not_found"
	KindIO            = "io"
	KindUninitialized = "uninitialized"
	KindUnavailable   = "unavailable"
	KindInternal      = "internal"
)

// Request is one call from the UI. ID is any JSON string or number chosen
// by the caller and echoed verbatim in the response.
type Request struct {
	ID      json.RawMessage   `json:"id,omitempty"`
	Channel string            `json:"channel"`
	Args    []json.RawMessage `json:"args,omitempty"`
}

type Response struct {
	ID    json.RawMessage `json:"id,omitempty"`
	OK    bool            `json:"ok"`
	Data  any             `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func okResponse(id json.RawMessage, data any) Response {
	return Response{ID: id, OK: true, Data: data}
}

func errorResponse(id json.RawMessage, err error) Response {
	return Response{ID: id, OK: false, Error: toError(err)}
}

// toError maps a coded error to its kind and a message fit for the UI.
// Validation, duplicate, foreign key and not-found messages already name
// the offending value and are passed through; infrastructure failures get
// a fixed message and keep their details in the logs.
func toError(err error) *Error {
	var message string
	var ce *core.Error
	if errors.As(err, &ce) {
		message = ce.Message
	}

	switch core.CodeOf(err) {
	case core.CodeValidation:
		return &Error{Kind: KindValidation, Message: message}
	case core.CodeDuplicateName:
		return &Error{Kind: KindDuplicateName, Message: message}
	case core.CodeForeignKey:
		return &Error{Kind: KindForeignKey, Message: message}
	case core.CodeNotFound:
		return &Error{Kind: KindNotFound, Message: message}
	case core.CodeIO:
		return &Error{Kind: KindIO, Message: "Could not save the receipt image. Check free disk space and folder permissions."}
	case core.CodeUninitialized:
		return &Error{Kind: KindUninitialized, Message: "The database is not ready yet."}
	case core.CodeUnavailable:
		return &Error{Kind: KindUnavailable, Message: "The database is unavailable. Please restart the application."}
	default:
		return &Error{Kind: KindInternal, Message: "An unexpected error occurred."}
	}
}
