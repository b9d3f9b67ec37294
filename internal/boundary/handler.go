package boundary

import (
	"context"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// Service is what the boundary needs from the expense service.
type Service interface {
	ListProjects(ctx context.Context) ([]core.Project, error)
	CreateProject(ctx context.Context, name string) (core.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	ListExpenses(ctx context.Context, projectID int64) ([]core.Expense, error)
	CreateExpense(ctx context.Context, in core.NewExpense) (core.Expense, error)
	UpdateExpenseDetails(ctx context.Context, id int64, details core.ExpenseDetails) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	StoreReceiptImage(ctx context.Context, encoded string) (string, error)
	StoreReceiptImages(ctx context.Context, encoded []string) ([]string, error)
}

type handlerFunc func(ctx context.Context, req Request) (any, error)

// Handler dispatches requests to the expense service.
type Handler struct {
	svc      Service
	logger   *log.Logger
	channels map[string]handlerFunc
}

func NewHandler(svc Service, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default(log.ComponentBoundary)
	}
	h := &Handler{svc: svc, logger: logger}
	h.channels = map[string]handlerFunc{
		ChannelGetProjects:   h.getProjects,
		ChannelAddProject:    h.addProject,
		ChannelDeleteProject: h.deleteProject,
		ChannelGetExpenses:   h.getExpenses,
		ChannelAddExpense:    h.addExpense,
		ChannelUpdateExpense: h.updateExpense,
		ChannelDeleteExpense: h.deleteExpense,
		ChannelSaveImage:     h.saveImage,
		ChannelSaveImages:    h.saveImages,
	}
	return h
}

// Handle serves one request. It never returns a Go error: failures are
// encoded in the response.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	start := time.Now()

	fn, ok := h.channels[req.Channel]
	if !ok {
		err := core.Errorf(core.CodeValidation, "unknown channel %q", req.Channel)
		h.logger.WarnContext(ctx, "Unknown channel", log.FieldChannel, req.Channel)
		return errorResponse(req.ID, err)
	}

	data, err := fn(ctx, req)
	fields := log.NewFields().
		WithRequestID(string(req.ID)).
		WithRequest(req.Channel, time.Since(start).Milliseconds())
	if err != nil {
		resp := errorResponse(req.ID, err)
		fields[log.FieldErrorKind] = resp.Error.Kind
		fields.WithError(err)
		if resp.Error.Kind == KindInternal || resp.Error.Kind == KindIO || resp.Error.Kind == KindUnavailable {
			h.logger.ErrorContext(ctx, "Request failed", fields.ToSlice()...)
		} else {
			h.logger.InfoContext(ctx, "Request rejected", fields.ToSlice()...)
		}
		return resp
	}

	h.logger.DebugContext(ctx, "Request served", fields.ToSlice()...)
	return okResponse(req.ID, data)
}

func (h *Handler) getProjects(ctx context.Context, req Request) (any, error) {
	if err := expectArgs(req, 0); err != nil {
		return nil, err
	}
	projects, err := h.svc.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	return NewProjectViews(projects), nil
}

func (h *Handler) addProject(ctx context.Context, req Request) (any, error) {
	if err := expectArgs(req, 1); err != nil {
		return nil, err
	}
	name, err := stringArg(req, 0, "project name")
	if err != nil {
		return nil, err
	}
	p, err := h.svc.CreateProject(ctx, name)
	if err != nil {
		return nil, err
	}
	return NewProjectView(p), nil
}

func (h *Handler) deleteProject(ctx context.Context, req Request) (any, error) {
	if err := expectArgs(req, 1); err != nil {
		return nil, err
	}
	id, err := idArg(req, 0, "project id")
	if err != nil {
		return nil, err
	}
	if err := h.svc.DeleteProject(ctx, id); err != nil {
		return nil, err
	}
	return DeletedView{Deleted: true}, nil
}

func (h *Handler) getExpenses(ctx context.Context, req Request) (any, error) {
	if err := expectArgs(req, 1); err != nil {
		return nil, err
	}
	id, err := idArg(req, 0, "project id")
	if err != nil {
		return nil, err
	}
	expenses, err := h.svc.ListExpenses(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewExpenseViews(expenses), nil
}

func (h *Handler) addExpense(ctx context.Context, req Request) (any, error) {
	if err := expectArgs(req, 1); err != nil {
		return nil, err
	}
	var in expenseInput
	if err := decodeArg(req, 0, "expense", &in); err != nil {
		return nil, err
	}
	ne, err := in.toNewExpense()
	if err != nil {
		return nil, err
	}
	e, err := h.svc.CreateExpense(ctx, ne)
	if err != nil {
		return nil, err
	}
	return NewExpenseView(e), nil
}

func (h *Handler) updateExpense(ctx context.Context, req Request) (any, error) {
	if err := expectArgs(req, 2); err != nil {
		return nil, err
	}
	id, err := idArg(req, 0, "expense id")
	if err != nil {
		return nil, err
	}
	var in detailsInput
	if err := decodeArg(req, 1, "expense details", &in); err != nil {
		return nil, err
	}
	details, err := in.toDetails()
	if err != nil {
		return nil, err
	}
	e, err := h.svc.UpdateExpenseDetails(ctx, id, details)
	if err != nil {
		return nil, err
	}
	return NewExpenseView(e), nil
}

func (h *Handler) deleteExpense(ctx context.Context, req Request) (any, error) {
	if err := expectArgs(req, 1); err != nil {
		return nil, err
	}
	id, err := idArg(req, 0, "expense id")
	if err != nil {
		return nil, err
	}
	if err := h.svc.DeleteExpense(ctx, id); err != nil {
		return nil, err
	}
	return DeletedView{Deleted: true}, nil
}

func (h *Handler) saveImage(ctx context.Context, req Request) (any, error) {
	if err := expectArgs(req, 1); err != nil {
		return nil, err
	}
	encoded, err := stringArg(req, 0, "image data")
	if err != nil {
		return nil, err
	}
	return h.svc.StoreReceiptImage(ctx, encoded)
}

func (h *Handler) saveImages(ctx context.Context, req Request) (any, error) {
	if err := expectArgs(req, 1); err != nil {
		return nil, err
	}
	var encoded []string
	if err := decodeArg(req, 0, "image data", &encoded); err != nil {
		return nil, err
	}
	if len(encoded) == 0 {
		return nil, core.NewError(core.CodeValidation, "no images to save")
	}
	return h.svc.StoreReceiptImages(ctx, encoded)
}
