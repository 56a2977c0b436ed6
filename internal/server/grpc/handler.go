package grpc

import (
	"context"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	st := toStatus(err)
	if isInternal(st) {
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
	}
	return st
}

func (s *GRPCServer) reply(ctx context.Context, method string, v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, s.fail(ctx, method, err)
	}
	return out, nil
}

func (s *GRPCServer) taskReply(ctx context.Context, method string, t *models.Task) (*structpb.Struct, error) {
	return s.reply(ctx, method, toTaskMessage(t, timex.Today(s.clock)))
}

func (s *GRPCServer) tasksReply(ctx context.Context, method string, list []*models.Task) (*structpb.Struct, error) {
	today := timex.Today(s.clock)
	msgs := make([]taskMessage, 0, len(list))
	for _, t := range list {
		msgs = append(msgs, toTaskMessage(t, today))
	}
	return s.reply(ctx, method, map[string]any{"tasks": msgs})
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	s.logger.Info(ctx, "Registration request")

	acc, err := s.accounts.Register(ctx, stringField(req, "username"), stringField(req, "password"))
	if err != nil {
		return nil, s.fail(ctx, MethodRegister, err)
	}

	s.logger.Info(ctx, "Registered", "username", acc.Username)
	return s.reply(ctx, MethodRegister, map[string]string{"id": acc.ID, "username": acc.Username})
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := s.accounts.Login(ctx, stringField(req, "username"), stringField(req, "password"))
	if err != nil {
		return nil, s.fail(ctx, MethodLogin, err)
	}
	return s.reply(ctx, MethodLogin, map[string]string{"accessToken": token})
}

func (s *GRPCServer) CreateTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := usernameFromContext(ctx)
	if err != nil {
		return nil, err
	}
	due, err := dateField(req, "dueDate")
	if err != nil {
		return nil, s.fail(ctx, MethodCreateTask, err)
	}

	task, err := s.tasks.Create(ctx, username, stringField(req, "title"), stringField(req, "description"), due)
	if err != nil {
		return nil, s.fail(ctx, MethodCreateTask, err)
	}
	return s.taskReply(ctx, MethodCreateTask, task)
}

func (s *GRPCServer) ListTasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := usernameFromContext(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.tasks.List(ctx, username, stringField(req, "sortBy"))
	if err != nil {
		return nil, s.fail(ctx, MethodListTasks, err)
	}
	return s.tasksReply(ctx, MethodListTasks, list)
}

func (s *GRPCServer) GetTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := usernameFromContext(ctx)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.Get(ctx, stringField(req, "id"), username)
	if err != nil {
		return nil, s.fail(ctx, MethodGetTask, err)
	}
	return s.taskReply(ctx, MethodGetTask, task)
}

func (s *GRPCServer) EditTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := usernameFromContext(ctx)
	if err != nil {
		return nil, err
	}
	due, err := dateField(req, "dueDate")
	if err != nil {
		return nil, s.fail(ctx, MethodEditTask, err)
	}

	task, err := s.tasks.Edit(ctx, stringField(req, "id"), username, stringField(req, "title"), stringField(req, "description"), due)
	if err != nil {
		return nil, s.fail(ctx, MethodEditTask, err)
	}
	return s.taskReply(ctx, MethodEditTask, task)
}

func (s *GRPCServer) DeleteTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := usernameFromContext(ctx)
	if err != nil {
		return nil, err
	}

	id := stringField(req, "id")
	if err := s.tasks.Delete(ctx, id, username); err != nil {
		return nil, s.fail(ctx, MethodDeleteTask, err)
	}
	return s.reply(ctx, MethodDeleteTask, map[string]any{"id": id, "deleted": true})
}

func (s *GRPCServer) ToggleTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := usernameFromContext(ctx)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.Toggle(ctx, stringField(req, "id"), username)
	if err != nil {
		return nil, s.fail(ctx, MethodToggleTask, err)
	}
	return s.taskReply(ctx, MethodToggleTask, task)
}

func (s *GRPCServer) PreviewExtension(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := usernameFromContext(ctx)
	if err != nil {
		return nil, err
	}
	days, err := intField(req, "days")
	if err != nil {
		return nil, s.fail(ctx, MethodPreviewExtension, err)
	}

	p, err := s.extensions.Preview(ctx, stringField(req, "id"), username, days)
	if err != nil {
		return nil, s.fail(ctx, MethodPreviewExtension, err)
	}
	return s.reply(ctx, MethodPreviewExtension, map[string]any{
		"todoId":         p.TaskID,
		"currentDueDate": timex.FormatDate(p.CurrentDueDate),
		"newDueDate":     timex.FormatDate(p.NewDueDate),
		"extensionDays":  p.ExtensionDays,
	})
}

func (s *GRPCServer) ExtendTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := usernameFromContext(ctx)
	if err != nil {
		return nil, err
	}
	days, err := intField(req, "days")
	if err != nil {
		return nil, s.fail(ctx, MethodExtendTask, err)
	}

	task, err := s.extensions.Extend(ctx, stringField(req, "id"), username, days)
	if err != nil {
		return nil, s.fail(ctx, MethodExtendTask, err)
	}
	return s.taskReply(ctx, MethodExtendTask, task)
}

func (s *GRPCServer) EligibleTasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := usernameFromContext(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.extensions.EligibleTasks(ctx, username)
	if err != nil {
		return nil, s.fail(ctx, MethodEligibleTasks, err)
	}
	return s.tasksReply(ctx, MethodEligibleTasks, list)
}
