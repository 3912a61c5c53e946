// Package agent runs the AI assistant of ct: a facilitator model that asks
// expert models about the user's portfolio.
package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/genai"
)

// Agent is the interactive assistant session.
type Agent struct {
	w           io.Writer
	r           *bufio.Reader
	Portfolio   Portfolio
	Facilitator *Expert
	Experts     []*Expert
	// Render formats the markdown answers, they are printed as is when nil.
	Render func(markdown string) string
}

// New returns an Agent about portfolio p, writing to w and reading the user
// input from r.
func New(w io.Writer, r io.Reader, p Portfolio, experts ...*Expert) *Agent {
	return &Agent{
		w:           w,
		r:           bufio.NewReader(r),
		Portfolio:   p,
		Experts:     experts,
		Facilitator: newFacilitator(p, experts...),
	}
}

// Start opens the sessions of the experts and the facilitator.
func (a *Agent) Start(ctx context.Context, client *genai.Client) error {
	for _, e := range a.Experts {
		if err := e.Start(ctx, client); err != nil {
			return err
		}
	}
	return a.Facilitator.Start(ctx, client)
}

const prompt = "assist> "

// Run answers prompts first, then the lines read from the user until "bye",
// "exit" or the end of the input. Failed questions are reported and the
// session goes on.
func (a *Agent) Run(ctx context.Context, client *genai.Client, prompts ...string) error {
	if !a.Facilitator.Started() {
		if err := a.Start(ctx, client); err != nil {
			return err
		}
	}

	fmt.Fprint(a.w, a.Portfolio.Welcome())
	for {
		fmt.Fprint(a.w, prompt)
		var input string
		if len(prompts) > 0 {
			input, prompts = strings.TrimSpace(prompts[0]), prompts[1:]
			fmt.Fprintln(a.w, input)
		} else {
			line, err := a.r.ReadString('\n')
			if err != nil && (!errors.Is(err, io.EOF) || line == "") {
				if errors.Is(err, io.EOF) {
					fmt.Fprintln(a.w)
					return nil
				}
				return err
			}
			input = strings.TrimSpace(line)
		}

		switch input {
		case "":
			continue
		case "bye", "exit":
			return nil
		}

		answer, err := a.Facilitator.Ask(ctx, &genai.Part{Text: input})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(a.w, "Error: %v\n", err)
			continue
		}
		if a.Render != nil {
			answer = a.Render(answer)
		}
		fmt.Fprintln(a.w, answer)
	}
}
