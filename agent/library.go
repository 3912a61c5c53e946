package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Library answers the function calls of a model.
type Library func(context.Context, *genai.FunctionCall) *genai.FunctionResponse

// Function is a tool the model can call.
type Function interface {
	Declaration() *genai.FunctionDeclaration
	Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

// NewLibrary returns the Library of functions, matched by declared name.
func NewLibrary[T Function](functions []T) Library {
	byName := make(map[string]Function, len(functions))
	for _, f := range functions {
		byName[f.Declaration().Name] = f
	}
	return func(ctx context.Context, call *genai.FunctionCall) *genai.FunctionResponse {
		f, ok := byName[call.Name]
		if !ok {
			log.Warn().Str("function", call.Name).Msg("model called an unknown function")
			return failure(call.ID, call.Name, fmt.Errorf("unknown function %s", call.Name))
		}
		start := time.Now()
		resp := f.Call(ctx, call.ID, call.Args)
		_, failed := resp.Response["error"]
		log.Debug().Str("function", call.Name).Interface("args", call.Args).Dur("took", time.Since(start)).Bool("failed", failed).Msg("function called")
		return resp
	}
}

// NewDeclaration returns the declarations of functions.
func NewDeclaration[T Function](functions []T) []*genai.FunctionDeclaration {
	result := make([]*genai.FunctionDeclaration, 0, len(functions))
	for _, f := range functions {
		result = append(result, f.Declaration())
	}
	return result
}
