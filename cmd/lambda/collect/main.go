package main

import (
	"context"
	"errors"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"ClaudeDigest/internal/app"
	"ClaudeDigest/internal/config"
	"ClaudeDigest/internal/logging"
	"ClaudeDigest/internal/usecase"
)

// Response is returned to the Lambda invoker.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	RunID      string `json:"runId,omitempty"`
	Total      int    `json:"total"`
}

// Handler runs one digest. Configuration comes from the environment; the
// ledger DSN should point at Postgres since the function filesystem is
// ephemeral.
func Handler(ctx context.Context, _ any) (Response, error) {
	cfg, err := config.Load("")
	if err != nil {
		return Response{StatusCode: 500, Message: err.Error()}, err
	}
	logger := logging.NewWithFormat(os.Stdout, cfg.Logging.Level, "json")

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return Response{StatusCode: 500, Message: err.Error()}, err
	}
	defer application.Close()

	res, err := application.Run(ctx)
	switch {
	case errors.Is(err, usecase.ErrNoContent):
		return Response{StatusCode: 200, Message: "no new content", RunID: res.RunID}, nil
	case err != nil:
		logger.Error("run failed", "run_id", res.RunID, "error", err)
		return Response{StatusCode: 500, Message: err.Error(), RunID: res.RunID}, err
	}
	return Response{StatusCode: 200, Message: "digest written", RunID: res.RunID, Total: res.Digest.TotalItems}, nil
}

func main() {
	lambda.Start(Handler)
}
