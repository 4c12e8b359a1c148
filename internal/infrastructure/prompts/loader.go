package prompts

import (
	_ "embed"
)

//go:embed system.txt
var SystemPrompt string

//go:embed perception.txt
var PerceptionPrompt string

//go:embed correction.txt
var CorrectionPrompt string

//go:embed premature_finish.txt
var PrematureFinishPrompt string
