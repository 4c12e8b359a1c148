package prompts

import (
	"bytes"
	"strings"
	"text/template"

	jsoniter "github.com/json-iterator/go"

	"form-agent/internal/domain/entity"
)

// objectiveAPI keeps '&', '<' and '>' literal; the text goes to a model,
// not a browser.
var objectiveAPI = jsoniter.Config{EscapeHTML: false, IndentionStep: 2}.Froze()

var (
	systemTmpl          = template.Must(template.New("system").Parse(SystemPrompt))
	perceptionTmpl      = template.Must(template.New("perception").Parse(PerceptionPrompt))
	correctionTmpl      = template.Must(template.New("correction").Parse(CorrectionPrompt))
	prematureFinishTmpl = template.Must(template.New("premature_finish").Parse(PrematureFinishPrompt))
)

type SystemPromptData struct {
	Objective  string
	SubmitName string
}

type PerceptionData struct {
	Objective string
	Snapshot  string
}

// ObjectiveText renders the non-empty objective fields as an indented JSON
// object in schema order.
func ObjectiveText(o entity.Objective) (string, error) {
	fields := o.Fields()
	if len(fields) == 0 {
		return "{}", nil
	}

	stream := objectiveAPI.BorrowStream(nil)
	defer objectiveAPI.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, f := range fields {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(f.Key)
		stream.WriteString(f.Value)
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return "", stream.Error
	}
	return string(stream.Buffer()), nil
}

func GenerateSystemPrompt(baseTemplate string, data SystemPromptData) (string, error) {
	tmpl := systemTmpl
	if baseTemplate != "" && baseTemplate != SystemPrompt {
		var err error
		tmpl, err = template.New("system").Option("missingkey=error").Parse(baseTemplate)
		if err != nil {
			return "", err
		}
	}
	return render(tmpl, data)
}

func GeneratePerception(data PerceptionData) (string, error) {
	return render(perceptionTmpl, data)
}

func GenerateCorrection(reason string) (string, error) {
	return render(correctionTmpl, struct{ Reason string }{reason})
}

func GeneratePrematureFinish(submitName string) (string, error) {
	return render(prematureFinishTmpl, struct{ SubmitName string }{submitName})
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
