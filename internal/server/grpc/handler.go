package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
)

func (s *GRPCServer) GetUser(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	u, err := s.users.FindByID(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	out, err := structpb.NewStruct(userFields(u))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return out, nil
}

func (s *GRPCServer) ListUsers(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	items := make([]interface{}, 0, len(users))
	for _, u := range users {
		items = append(items, userFields(u))
	}

	out, err := structpb.NewList(items)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return out, nil
}

func (s *GRPCServer) CountUsers(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	n, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return wrapperspb.Int64(int64(n)), nil
}

// userFields is the public shape of a user; the password hash never leaves
// the process.
func userFields(u models.User) map[string]interface{} {
	m := map[string]interface{}{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"createdAt": u.CreatedAt,
	}
	if u.UpdatedAt != "" {
		m["updatedAt"] = u.UpdatedAt
	}
	return m
}

func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return codes.InvalidArgument
	case errors.Is(err, common.ErrorNotFound):
		return codes.NotFound
	case errors.Is(err, common.ErrorConflict):
		return codes.AlreadyExists
	case errors.Is(err, common.ErrorUnauthorized):
		return codes.Unauthenticated
	case errors.Is(err, common.ErrorForbidden):
		return codes.PermissionDenied
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// toStatus converts a service error to a gRPC status. Unclassified errors
// are logged and reported as "internal error".
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	code := codeOf(err)
	if msg, ok := common.MessageOf(err); ok && code != codes.Internal {
		return status.Error(code, msg)
	}
	if code == codes.Internal {
		s.logger.Error(ctx, "rpc failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}
