// Package router interprets submitted input lines, sending shell lines to
// the session transport and ai commands to a completion provider.
package router

import (
	"strings"

	"github.com/google/shlex"

	"github.com/hovershell/core/internal/shared/types"
)

// CommandKind separates the two execution paths.
type CommandKind string

const (
	KindShell CommandKind = "shell"
	KindAI    CommandKind = "ai"
)

// AI verbs. ask is the non-streaming variant of chat: the response arrives
// whole, with the backend's token accounting attached.
const (
	VerbAsk      = "ask"
	VerbChat     = "chat"
	VerbExplain  = "explain"
	VerbGenerate = "generate"
)

// Command is one parsed input line.
type Command struct {
	Kind     CommandKind
	Verb     string
	Provider string // --provider override, empty for the default
	Prompt   string
	Raw      string
}

// Parse classifies a line. Lines starting with the "ai" word are parsed as
// ai commands with quote-aware tokenization; everything else passes through
// to the shell untouched.
func Parse(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed != "ai" && !strings.HasPrefix(trimmed, "ai ") {
		return Command{Kind: KindShell, Raw: line}, nil
	}

	tokens, err := shlex.Split(trimmed)
	if err != nil {
		return Command{}, types.Parsef("%v", err)
	}

	// tokens[0] is "ai".
	rest := tokens[1:]
	if len(rest) == 0 {
		return Command{}, types.Parsef("ai: missing verb (ask, chat, explain, generate)")
	}

	verb := rest[0]
	switch verb {
	case VerbAsk, VerbChat, VerbExplain, VerbGenerate:
	default:
		return Command{}, types.Parsef("ai: unknown verb %q", verb)
	}
	rest = rest[1:]

	cmd := Command{Kind: KindAI, Verb: verb, Raw: line}
	var prompt []string
	for i := 0; i < len(rest); i++ {
		switch {
		case rest[i] == "--provider":
			if i+1 >= len(rest) {
				return Command{}, types.Parsef("ai: --provider needs a value")
			}
			i++
			cmd.Provider = rest[i]
		case strings.HasPrefix(rest[i], "--provider="):
			cmd.Provider = strings.TrimPrefix(rest[i], "--provider=")
			if cmd.Provider == "" {
				return Command{}, types.Parsef("ai: --provider needs a value")
			}
		default:
			prompt = append(prompt, rest[i])
		}
	}

	cmd.Prompt = strings.Join(prompt, " ")
	if cmd.Prompt == "" {
		return Command{}, types.Parsef("ai %s: missing prompt", verb)
	}
	return cmd, nil
}

// expandPrompt applies the verb's framing to the user prompt.
func expandPrompt(verb, prompt string) string {
	switch verb {
	case VerbExplain:
		return "Explain the following shell command or output concisely:\n\n" + prompt
	case VerbGenerate:
		return "Output a single shell command, with no commentary, that does the following:\n\n" + prompt
	default:
		return prompt
	}
}
