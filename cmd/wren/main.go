// Command wren is a streaming formatter for AI agent CLI event logs. It
// reads line-delimited JSON emitted by Claude Code, Gemini CLI, or Amp Code,
// normalizes it into a single event model, and renders ANSI, HTML, or JSON
// output.
package main

import (
	"os"

	"github.com/agentstream/wren/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
