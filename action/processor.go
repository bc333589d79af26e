package action

import (
	"fmt"

	"github.com/hupe1980/actionweave/core"
	"github.com/tidwall/gjson"
)

// Extraction is an action request recovered from plain model text.
type Extraction struct {
	Name       string
	Parameters map[string]any
}

// Extractor recovers an action request from model text.
type Extractor func(text string) (Extraction, error)

// Processor invokes actions requested through a text protocol, for models
// without native tool calling. By default the text must be a JSON object of
// the form {"function": "<name>", "parameters": {...}}.
type Processor struct {
	registry  *Registry
	extractor Extractor
}

// ProcessorOptions configures a Processor.
type ProcessorOptions struct {
	// Extractor replaces the default JSON extractor.
	Extractor Extractor
}

// NewProcessor creates a Processor over registry.
func NewProcessor(registry *Registry, optFns ...func(o *ProcessorOptions)) *Processor {
	opts := ProcessorOptions{
		Extractor: ExtractJSON,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Processor{
		registry:  registry,
		extractor: opts.Extractor,
	}
}

// Respond extracts an action request from text and runs it. ok is false when
// extraction, lookup or execution failed; message then describes the failure
// in a form suitable for feeding back to the model.
func (p *Processor) Respond(cc *core.CallContext, text string) (result any, ok bool, message string) {
	ex, err := p.extractor(text)
	if err != nil {
		return nil, false, fmt.Sprintf("Unable to extract a valid function from the input. Error encountered in extractor: %v", err)
	}

	a, err := p.registry.Get(ex.Name)
	if err != nil {
		return nil, false, "Function or tool not found"
	}

	result, err = a.Call(cc, ex.Parameters)
	if err != nil {
		return nil, false, fmt.Sprintf("Unable to invoke valid function %s, parameters: %v. Error encountered: %v", ex.Name, ex.Parameters, err)
	}

	return result, true, ""
}

// ExtractJSON is the default extractor. It reads the "function" and
// "parameters" members of a JSON object.
func ExtractJSON(text string) (Extraction, error) {
	if !gjson.Valid(text) {
		return Extraction{}, fmt.Errorf("input is not valid JSON")
	}

	doc := gjson.Parse(text)
	if !doc.IsObject() {
		return Extraction{}, fmt.Errorf("input is not a JSON object")
	}

	name := doc.Get("function")
	if name.Type != gjson.String || name.String() == "" {
		return Extraction{}, fmt.Errorf("missing \"function\" member")
	}

	params := doc.Get("parameters")
	if !params.Exists() {
		return Extraction{}, fmt.Errorf("missing \"parameters\" member")
	}

	ex := Extraction{Name: name.String(), Parameters: map[string]any{}}

	if params.IsObject() {
		if m, ok := params.Value().(map[string]any); ok {
			ex.Parameters = m
		}
	} else if params.Type != gjson.Null {
		return Extraction{}, fmt.Errorf("\"parameters\" must be an object")
	}

	return ex, nil
}
