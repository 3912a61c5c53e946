package agent

import (
	"context"
	"fmt"

	"github.com/etnz/captrack"
	"github.com/etnz/captrack/docs"
	"github.com/etnz/captrack/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// newFacilitator returns the expert the user talks to, it asks the experts.
func newFacilitator(p Portfolio, experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: p.instructions()}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader returns an expert grounded with Google Search.
func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader, aware of the financial products and markets,
		and of the latest news about companies, funds and crypto assets.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in trading, you can search and find about anything related to
			financial institutions, companies, markets, funds and crypto assets. Leverage Google Search to
			ground your assertions.
				`}}},
		},
	}
}

// NewAccountant returns the expert that reads the trades of source.
func NewAccountant(source captrack.TradeSource, opts captrack.Options) *Expert {
	lib := []Function{PositionsFunc(source, opts), TradesFunc(source), TopicFunc()}

	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant, in charge of the user's trades.
		It knows the open positions: quantity, average cost, cost basis and fees, per asset and per platform.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an accountant in charge of the user's trades.
				Use the Tools to get the positions and the trades. Read the "positions" topic
				to explain how average cost and cost basis are computed.
				Other experts might ask you questions with approximate language, figure out what they meant.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

func output(id, name, out string) *genai.FunctionResponse {
	return &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{"output": out}}
}

func failure(id, name string, err error) *genai.FunctionResponse {
	return &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{"error": err.Error()}}
}

// stringArg returns the optional string argument name.
func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q is not a string as expected but %T", name, v)
	}
	return s, nil
}

var platformSchema = &genai.Schema{
	Type:        genai.TypeString,
	Description: "Only consider trades made on this platform, for instance \"IBKR\". All platforms by default.",
}

// PositionsFunc lists the open positions derived from the trades of source.
func PositionsFunc(source captrack.TradeSource, opts captrack.Options) *Func {
	const name = "Positions"
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        name,
			Description: `Positions lists the open positions: symbol, asset type, currency, quantity, average cost, cost basis and total fees.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"platform": platformSchema,
					"audit": {
						Type:        genai.TypeBoolean,
						Description: "Also list the trades that were skipped because they are invalid.",
					},
				},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown-formatted table of the open positions.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			platform, err := stringArg(args, "platform")
			if err != nil {
				return failure(id, name, err)
			}
			audit, _ := args["audit"].(bool)

			trades, err := source.LoadTrades(ctx, platform)
			if err != nil {
				return failure(id, name, fmt.Errorf("could not load trades: %w", err))
			}
			positions, skipped := captrack.AuditPositions(trades, opts)
			if !audit {
				skipped = nil
			}
			return output(id, name, renderer.RenderPositions(&renderer.Positions{Platform: platform, Positions: positions, Skipped: skipped}))
		},
	}
}

// TradesFunc lists the trades of source.
func TradesFunc(source captrack.TradeSource) *Func {
	const name = "Trades"
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        name,
			Description: `Trades lists the buy and sell trades in chronological order.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"platform": platformSchema,
					"symbol": {
						Type:        genai.TypeString,
						Description: "Only list the trades of this symbol, for instance \"AAPL\".",
					},
				},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown-formatted table of trades.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			platform, err := stringArg(args, "platform")
			if err != nil {
				return failure(id, name, err)
			}
			symbol, err := stringArg(args, "symbol")
			if err != nil {
				return failure(id, name, err)
			}

			trades, err := source.LoadTrades(ctx, platform)
			if err != nil {
				return failure(id, name, fmt.Errorf("could not load trades: %w", err))
			}
			ledger := captrack.NewLedger()
			ledger.Append(trades...)
			filter := captrack.AcceptAll
			if symbol != "" {
				filter = captrack.OnSymbol(symbol)
			}
			return output(id, name, renderer.RenderTrades(ledger.List(filter)))
		},
	}
}

// TopicFunc reads the user documentation.
func TopicFunc() *Func {
	const name = "Topic"
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        name,
			Description: `Topic returns a documentation topic. Topics: ` + fmt.Sprint(must(docs.GetAllTopics())),
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"topic": {Type: genai.TypeString, Description: "The topic name, or \"*\" for all of them."},
				},
				Required: []string{"topic"},
			},
			Response: &genai.Schema{Type: genai.TypeString, Description: "The topic in markdown."},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			topic, err := stringArg(args, "topic")
			if err != nil {
				return failure(id, name, err)
			}
			content, err := docs.GetTopic(topic)
			if err != nil {
				return failure(id, name, err)
			}
			return output(id, name, content)
		},
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
