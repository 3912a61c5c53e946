package cmd

import (
	"flag"
	"strings"

	"github.com/etnz/captrack"
	"github.com/etnz/captrack/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors are the value predictors of flags, by flag name. Other
// flags take any value.
var flagPredictors = map[string]complete.Predictor{
	"ledger-file": predict.Files("*.jsonl"),
	"settings":    predict.Files("*.yaml"),
	"sell":        predict.Set{captrack.Clamp.String(), captrack.AllowNegative.String()},
	"t":           assetTypes(),
	"side":        predict.Set{string(captrack.Buy), string(captrack.Sell)},
}

func assetTypes() predict.Set {
	res := make(predict.Set, 0, len(captrack.AssetTypes))
	for _, t := range captrack.AssetTypes {
		res = append(res, string(t))
	}
	return res
}

// flagsOf returns the completion predictors of the flags in f.
func flagsOf(f *flag.FlagSet) map[string]complete.Predictor {
	res := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			res[fl.Name] = predict.Nothing
			return
		}
		if p, ok := flagPredictors[fl.Name]; ok {
			res[fl.Name] = p
			return
		}
		res[fl.Name] = predict.Something
	})
	return res
}

// Completion returns the shell completion of the application, global flags
// are read from flag.CommandLine.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagsOf(flag.CommandLine),
	}
	for _, c := range Commands {
		f := flag.NewFlagSet(c.Command.Name(), flag.ContinueOnError)
		c.Command.SetFlags(f)
		root.Sub[c.Command.Name()] = &complete.Command{Flags: flagsOf(f)}
	}
	for _, name := range []string{"help", "flags", "commands"} {
		root.Sub[name] = &complete.Command{Args: predict.Set(commandNames())}
	}

	topics, err := docs.GetAllTopics()
	if err == nil {
		root.Sub["topic"].Args = predict.Set(append(topics, docs.Readme))
	}
	return root
}

func commandNames() []string {
	res := make([]string, 0, len(Commands))
	for _, c := range Commands {
		res = append(res, c.Command.Name())
	}
	return res
}

// isCommand reports whether name is a registered subcommand.
func isCommand(name string) bool {
	switch name {
	case "help", "flags", "commands":
		return true
	}
	for _, c := range commandNames() {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}
