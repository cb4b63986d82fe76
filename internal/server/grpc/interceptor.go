package grpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/auth"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// accessTokenInterceptor guards the directory methods. Other services, such
// as health, pass through.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if !strings.HasPrefix(info.FullMethod, "/"+ServiceName+"/") {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		return nil, s.toStatus(ctx, common.ErrMissingToken)
	}

	userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	// Tokens outlive deletes; the account must still exist.
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorValidation) {
			err = common.ErrTokenUserGone
		}
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Debug(ctx, "rpc", "method", info.FullMethod, "user_id", userID)
	return handler(context.WithValue(ctx, userIDKey, userID), req)
}

// UserIDFromContext returns the caller id stored by the interceptor.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}
