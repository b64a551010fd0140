package dotprompt_test

import (
	"context"
	"fmt"

	"github.com/dotprompt-go/dotprompt"
)

func Example() {
	dp := dotprompt.New()
	source := "---\nmodel: gemini-1.5-flash\n---\n" +
		`{{role "system"}}You are {{bot}}.{{role "user"}}{{query}}`

	out, err := dp.Render(context.Background(), source, dotprompt.DataArgument[map[string]any]{
		Input: map[string]any{"bot": "HelperBot", "query": "What is 2+2?"},
	}, nil)
	if err != nil {
		panic(err)
	}
	for _, msg := range out.Messages {
		fmt.Printf("%s: %s\n", msg.Role, msg.Content[0].(dotprompt.TextPart).Text)
	}
	// Output:
	// system: You are HelperBot.
	// user: What is 2+2?
}

func ExampleDotprompt_Compile() {
	dp := dotprompt.New()
	renderFn, err := dp.Compile(context.Background(), "Hello {{name}}", nil)
	if err != nil {
		panic(err)
	}
	out, err := renderFn(context.Background(), dotprompt.DataArgument[map[string]any]{
		Input: map[string]any{"name": "Ada"},
	})
	if err != nil {
		panic(err)
	}
	fmt.Println(out.Messages[0].Content[0].(dotprompt.TextPart).Text)
	// Output: Hello Ada
}

func ExampleWithTools() {
	dp := dotprompt.New(dotprompt.WithTools(map[string]dotprompt.ToolDefinition{
		"get_weather": {
			Name:        "get_weather",
			Description: "Get weather",
			InputSchema: dotprompt.JSONSchema{"type": "object"},
		},
	}))
	out, err := dp.Render(context.Background(), "---\ntools: [get_weather]\n---\nforecast please",
		dotprompt.DataArgument[map[string]any]{}, nil)
	if err != nil {
		panic(err)
	}
	fmt.Println(out.ToolDefs[0].Name)
	// Output: get_weather
}
