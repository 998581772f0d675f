package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type QueryInput struct {
	Body struct {
		Question string `json:"question" minLength:"1" maxLength:"2000" doc:"Question about the activity log"`
	}
}

type QueryOutput struct {
	Body struct {
		Answer string `json:"answer"`
	}
}

func RegisterQueryRoutes(api huma.API, answerer QueryAnswerer) {
	huma.Register(api, huma.Operation{
		OperationID: "query-logs",
		Method:      http.MethodPost,
		Path:        "/query",
		Summary:     "Ask a natural-language question about the log",
		Tags:        []string{"Query"},
	}, func(ctx context.Context, input *QueryInput) (*QueryOutput, error) {
		answer, err := answerer.Answer(ctx, input.Body.Question)
		if err != nil {
			return nil, huma.Error502BadGateway("failed to answer query", err)
		}

		out := &QueryOutput{}
		out.Body.Answer = answer
		return out, nil
	})
}
