package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Session is a chat with a model that keeps the history of the exchanges.
// *genai.Chat is a Session.
type Session interface {
	Send(ctx context.Context, parts ...*genai.Part) (*genai.GenerateContentResponse, error)
}

// MaxCallRounds bounds the function calls an expert makes to answer one
// question.
const MaxCallRounds = 8

// Expert is a model session specialized on one part of the portfolio, with
// the functions it can call.
type Expert struct {
	Name        string
	Description string
	ModelName   string
	Config      *genai.GenerateContentConfig
	Library     Library
	session     Session
}

// NewExpert returns an expert without model nor functions.
func NewExpert(name, description string) *Expert {
	return &Expert{Name: name, Description: description}
}

// Start opens the chat session of the expert.
func (e *Expert) Start(ctx context.Context, client *genai.Client) error {
	chat, err := client.Chats.Create(ctx, e.ModelName, e.Config, nil)
	if err != nil {
		return fmt.Errorf("failed to start expert %s: %w", e.Name, err)
	}
	e.session = chat
	return nil
}

// Started reports whether the expert has a session.
func (e *Expert) Started() bool { return e.session != nil }

// Ask sends parts to the expert and returns its text answer. The function
// calls it makes meanwhile are answered from its Library, all the calls of a
// response at once.
func (e *Expert) Ask(ctx context.Context, parts ...*genai.Part) (string, error) {
	if e.session == nil {
		return "", fmt.Errorf("expert %s is not started", e.Name)
	}
	for round := 0; ; round++ {
		resp, err := e.session.Send(ctx, parts...)
		if err != nil {
			return "", err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", fmt.Errorf("no response from expert %s", e.Name)
		}

		var calls []*genai.FunctionCall
		var text []string
		for _, p := range resp.Candidates[0].Content.Parts {
			switch {
			case p.FunctionCall != nil:
				calls = append(calls, p.FunctionCall)
			case p.Text != "" && !p.Thought:
				text = append(text, p.Text)
			}
		}
		if len(calls) == 0 {
			if len(text) == 0 {
				return "", fmt.Errorf("empty response from expert %s", e.Name)
			}
			return strings.Join(text, ""), nil
		}
		if e.Library == nil {
			return "", fmt.Errorf("expert %s doesn't know how to make function calls", e.Name)
		}
		if round == MaxCallRounds {
			return "", fmt.Errorf("expert %s still calls functions after %d rounds", e.Name, MaxCallRounds)
		}

		parts = make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			parts = append(parts, &genai.Part{FunctionResponse: e.Library(ctx, call)})
		}
	}
}

// Declaration returns the function declaration to ask this expert.
func (e *Expert) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        e.Name,
		Description: e.Description,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"question": {Type: genai.TypeString, Description: "The question to ask the expert."},
			},
			Required: []string{"question"},
		},
		Response: &genai.Schema{Type: genai.TypeString, Description: "Expert's response."},
	}
}

// Call asks this expert the "question" argument.
func (e *Expert) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	question, err := stringArg(args, "question")
	if err != nil {
		return failure(id, e.Name, err)
	}
	if question == "" {
		return failure(id, e.Name, errors.New(`missing argument "question"`))
	}

	answer, err := e.Ask(ctx, &genai.Part{Text: question})
	if err != nil {
		return failure(id, e.Name, fmt.Errorf("something went wrong while calling the expert: %w", err))
	}
	log.Debug().Str("expert", e.Name).Str("question", question).Str("answer", answer).Msg("expert answered")
	return output(id, e.Name, answer)
}
