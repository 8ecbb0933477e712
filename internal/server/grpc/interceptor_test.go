package grpc

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type recordingLogger struct {
	nopLogger
	msgs []string
	args [][]any
}

func (r *recordingLogger) Debug(_ context.Context, msg string, args ...any) {
	r.msgs = append(r.msgs, msg)
	r.args = append(r.args, args)
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	rl := &recordingLogger{}
	s := &HealthServer{logger: rl, interval: time.Minute}
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	resp, err := s.loggingInterceptor(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
	if len(rl.msgs) != 1 || rl.msgs[0] != "grpc call" {
		t.Fatalf("unexpected log lines: %v", rl.msgs)
	}
	if rl.args[0][1] != info.FullMethod || rl.args[0][3] != codes.OK.String() {
		t.Fatalf("unexpected log args: %v", rl.args[0])
	}
}

func TestLoggingInterceptor_KeepsError(t *testing.T) {
	rl := &recordingLogger{}
	s := &HealthServer{logger: rl}
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	want := status.Error(codes.NotFound, "unknown service")

	_, err := s.loggingInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, want
	})
	if err != want {
		t.Fatalf("error = %v, want %v", err, want)
	}
	if rl.args[0][3] != codes.NotFound.String() {
		t.Fatalf("logged code = %v, want NotFound", rl.args[0][3])
	}
}
