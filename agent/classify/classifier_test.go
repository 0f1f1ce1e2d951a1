package classify

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/sornchai/shoptalk/agent/contract"
	toolx "github.com/sornchai/shoptalk/agent/tool"
)

type stubGateway struct {
	content string
	err     error

	gotMessages []contractx.ChatMessage
	gotOptions  contractx.GenerateOptions
}

func (g *stubGateway) Generate(_ context.Context, messages []contractx.ChatMessage, opts contractx.GenerateOptions) (contractx.Generation, error) {
	g.gotMessages = messages
	g.gotOptions = opts
	if g.err != nil {
		return contractx.Generation{}, g.err
	}
	return contractx.Generation{Content: g.content}, nil
}

func TestClassifyParsesStrictJSON(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{content: `{"intent":"product_search","capabilities":["search_products"],"parameters":{"query":"blue jeans"}}`}
	c := New(gateway)

	intent := c.Classify(context.Background(), "Search for blue jeans", nil)
	if intent.Type != contractx.IntentProductSearch {
		t.Fatalf("Type = %q, want %q", intent.Type, contractx.IntentProductSearch)
	}
	if len(intent.Capabilities) != 1 || intent.Capabilities[0] != toolx.CapSearchProducts {
		t.Fatalf("Capabilities = %v, want [search_products]", intent.Capabilities)
	}
	if intent.Parameters["query"] != "blue jeans" {
		t.Fatalf("Parameters[query] = %v, want blue jeans", intent.Parameters["query"])
	}
	if !intent.RequiresTools() {
		t.Fatal("RequiresTools() = false, want true")
	}
}

func TestClassifyExtractsJSONFromProse(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{content: "Sure! Here is the classification:\n{\"intent\":\"view_cart\",\"capabilities\":[\"get_cart\"]}\nHope that helps."}
	c := New(gateway)

	intent := c.Classify(context.Background(), "what's in my cart", nil)
	if intent.Type != contractx.IntentViewCart {
		t.Fatalf("Type = %q, want %q", intent.Type, contractx.IntentViewCart)
	}
	if len(intent.Capabilities) != 1 || intent.Capabilities[0] != toolx.CapGetCart {
		t.Fatalf("Capabilities = %v, want [get_cart]", intent.Capabilities)
	}
}

func TestClassifyGatewayFailureFallsBackToHeuristic(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{err: errors.New("upstream down")}
	c := New(gateway)

	intent := c.Classify(context.Background(), "show me red shirts", nil)
	if intent.Type != contractx.IntentProductSearch {
		t.Fatalf("Type = %q, want %q", intent.Type, contractx.IntentProductSearch)
	}
	if len(intent.Capabilities) != 1 || intent.Capabilities[0] != toolx.CapSearchProducts {
		t.Fatalf("Capabilities = %v, want [search_products]", intent.Capabilities)
	}
	if intent.Parameters["query"] != "show me red shirts" {
		t.Fatalf("Parameters[query] = %v, want the raw message", intent.Parameters["query"])
	}
}

func TestClassifyUnknownIntentFallsBackToHeuristic(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{content: `{"intent":"world_domination","capabilities":[]}`}
	c := New(gateway)

	intent := c.Classify(context.Background(), "hello there", nil)
	if intent.Type != contractx.IntentGeneralQuestion {
		t.Fatalf("Type = %q, want %q", intent.Type, contractx.IntentGeneralQuestion)
	}
	if intent.RequiresTools() {
		t.Fatal("RequiresTools() = true, want false")
	}
}

func TestClassifyUsesBoundedHistory(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{content: `{"intent":"general_question"}`}
	c := New(gateway)

	history := make([]contractx.ChatMessage, 10)
	for i := range history {
		history[i] = contractx.ChatMessage{Role: contractx.RoleUser, Content: "old"}
	}
	c.Classify(context.Background(), "hi", history)

	// system + last 4 history turns + the new message
	if len(gateway.gotMessages) != historyContext+2 {
		t.Fatalf("len(messages) = %d, want %d", len(gateway.gotMessages), historyContext+2)
	}
	if gateway.gotMessages[0].Role != contractx.RoleSystem {
		t.Fatalf("messages[0].Role = %q, want system", gateway.gotMessages[0].Role)
	}
	if gateway.gotOptions.Temperature != classifyTemperature {
		t.Fatalf("Temperature = %v, want %v", gateway.gotOptions.Temperature, classifyTemperature)
	}
}

func TestExtractJSONObjectSkipsBracesInStrings(t *testing.T) {
	t.Parallel()

	raw, ok := extractJSONObject(`noise {"a":"br{ace}s","b":{"c":1}} trailing {`)
	if !ok {
		t.Fatal("extractJSONObject() ok = false")
	}
	if raw != `{"a":"br{ace}s","b":{"c":1}}` {
		t.Fatalf("extractJSONObject() = %q", raw)
	}
}

func TestExtractJSONObjectUnbalanced(t *testing.T) {
	t.Parallel()

	if _, ok := extractJSONObject(`{"a": 1`); ok {
		t.Fatal("extractJSONObject() ok = true for unbalanced input")
	}
	if _, ok := extractJSONObject("no json here"); ok {
		t.Fatal("extractJSONObject() ok = true for plain text")
	}
}

func TestHeuristicIntentCartCue(t *testing.T) {
	t.Parallel()

	intent := heuristicIntent("add this to my CART please")
	if intent.Type != contractx.IntentViewCart {
		t.Fatalf("Type = %q, want %q", intent.Type, contractx.IntentViewCart)
	}
}
