package grpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	grpc2 "google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// requestLogger tags each unary call with a request id and logs its outcome at debug level.
func requestLogger(ctx context.Context, req any, info *grpc2.UnaryServerInfo,
	handler grpc2.UnaryHandler) (any, error) {
	start := time.Now()
	id := uuid.NewString()
	log.Debug().Str("request_id", id).Str("method", info.FullMethod).Msgf("request: %v", req)

	resp, err := handler(ctx, req)

	log.Debug().
		Str("request_id", id).
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("elapsed", time.Since(start)).
		Msg("request finished")
	return resp, err
}

func streamLogger(srv any, ss grpc2.ServerStream, info *grpc2.StreamServerInfo,
	handler grpc2.StreamHandler) error {
	start := time.Now()
	id := uuid.NewString()
	log.Debug().Str("request_id", id).Str("method", info.FullMethod).Msg("stream opened")

	err := handler(srv, ss)

	log.Debug().
		Str("request_id", id).
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("elapsed", time.Since(start)).
		Msg("stream closed")
	return err
}
