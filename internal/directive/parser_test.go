package directive

import (
	"reflect"
	"strings"
	"testing"
)

func newTestParser() *Parser {
	return NewParser(nil, nil)
}

func TestParse_Idempotent(t *testing.T) {
	text := "Here are my picks:\n" +
		"PRODUCT_RECOMMENDATION:cloud-hybrid|Great for side sleepers|Cooling;Medium-soft;Pressure relief|1299|92%\n" +
		"FIRMNESS_VISUAL:4-6\n" +
		"QUICK_REPLIES:Tell me more|Compare them"

	p := newTestParser()
	first := p.Parse(text)
	second := p.Parse(text)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical output for identical input")
	}
}

func TestParse_DirectiveLinesConsumed(t *testing.T) {
	text := "Intro line\nFIRMNESS_VISUAL:4-6\nPRODUCT_RECOMMENDATION:aurora|Cool sleeper pick|Gel foam;Firm edge;Washable cover|999\nOutro line"

	msg := newTestParser().Parse(text)

	for _, para := range msg.Narrative {
		for _, span := range para.Spans {
			if strings.Contains(span.Text, "FIRMNESS_VISUAL") ||
				strings.Contains(span.Text, "PRODUCT_RECOMMENDATION") ||
				strings.Contains(span.Text, "aurora") {
				t.Errorf("directive content leaked into narrative: %q", span.Text)
			}
		}
	}
	if len(msg.Narrative) != 2 {
		t.Errorf("expected 2 narrative paragraphs, got %d", len(msg.Narrative))
	}
}

func TestParse_MalformedProductDropped(t *testing.T) {
	msg := newTestParser().Parse("PRODUCT_RECOMMENDATION:onlyonefield")

	if len(msg.Products) != 0 {
		t.Errorf("expected zero product cards, got %d", len(msg.Products))
	}
	if len(msg.Narrative) != 0 {
		t.Error("malformed directive must not be rendered as narrative")
	}
}

func TestParse_ProductFields(t *testing.T) {
	msg := newTestParser().Parse(
		"PRODUCT_RECOMMENDATION:cloud-hybrid?size=queen|Best for hot sleepers|Cooling gel;Zoned support;10yr warranty|1299|88%")

	if len(msg.Products) != 1 {
		t.Fatalf("expected 1 product card, got %d", len(msg.Products))
	}
	card := msg.Products[0]
	if card.Handle != "cloud-hybrid" {
		t.Errorf("handle = %q", card.Handle)
	}
	if card.QueryParams != "size=queen" {
		t.Errorf("queryParams = %q", card.QueryParams)
	}
	if card.Reason != "Best for hot sleepers" {
		t.Errorf("reason = %q", card.Reason)
	}
	if len(card.Features) != 3 {
		t.Errorf("expected 3 features, got %v", card.Features)
	}
	if card.Price != "1299" {
		t.Errorf("price = %q", card.Price)
	}
	if card.MatchPercent != 88 {
		t.Errorf("matchPercent = %d", card.MatchPercent)
	}
}

func TestParse_FirmnessValidation(t *testing.T) {
	cases := []struct {
		payload string
		ok      bool
	}{
		{"4-6", true},
		{"1-10", true},
		{"7-7", true},
		{"6-4", false},  // inverted
		{"0-5", false},  // below scale
		{"5-11", false}, // above scale
		{"soft-firm", false},
		{"5", false},
	}

	for _, c := range cases {
		msg := newTestParser().Parse("FIRMNESS_VISUAL:" + c.payload)
		got := msg.Firmness != nil
		if got != c.ok {
			t.Errorf("FIRMNESS_VISUAL:%s parsed=%v, want %v", c.payload, got, c.ok)
		}
	}
}

func TestParse_ComparisonNeedsTwoHandles(t *testing.T) {
	if msg := newTestParser().Parse("COMPARISON:cloud-hybrid"); msg.Comparison != nil {
		t.Error("single-handle comparison should be dropped")
	}

	msg := newTestParser().Parse("COMPARISON:cloud-hybrid, aurora-firm")
	if msg.Comparison == nil {
		t.Fatal("expected comparison block")
	}
	if !reflect.DeepEqual(msg.Comparison.Handles, []string{"cloud-hybrid", "aurora-firm"}) {
		t.Errorf("handles = %v", msg.Comparison.Handles)
	}
}

func TestParse_SocialProofKinds(t *testing.T) {
	msg := newTestParser().Parse(
		"SOCIAL_PROOF:popular|12,000 sleepers chose this\nSOCIAL_PROOF:bogus|nope\nSOCIAL_PROOF:rated|4.8 stars average")

	if len(msg.SocialProof) != 2 {
		t.Fatalf("expected 2 badges, got %d", len(msg.SocialProof))
	}
	if msg.SocialProof[0].Kind != ProofPopular || msg.SocialProof[1].Kind != ProofRated {
		t.Errorf("unexpected kinds: %+v", msg.SocialProof)
	}
}

func TestParse_QuickReplies(t *testing.T) {
	msg := newTestParser().Parse("QUICK_REPLIES:Show me firm options|What about cooling?|I sleep on my side")

	want := []string{"Show me firm options", "What about cooling?", "I sleep on my side"}
	if !reflect.DeepEqual(msg.QuickReplies, want) {
		t.Errorf("quickReplies = %v", msg.QuickReplies)
	}
}

func TestParse_InlineMarkup(t *testing.T) {
	msg := newTestParser().Parse("See **cooling tech** in our [comparison guide](/guides/cooling) today")

	if len(msg.Narrative) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(msg.Narrative))
	}
	spans := msg.Narrative[0].Spans
	want := []Span{
		{Kind: SpanText, Text: "See "},
		{Kind: SpanBold, Text: "cooling tech"},
		{Kind: SpanText, Text: " in our "},
		{Kind: SpanLink, Text: "comparison guide", URL: "/guides/cooling"},
		{Kind: SpanText, Text: " today"},
	}
	if !reflect.DeepEqual(spans, want) {
		t.Errorf("spans = %+v", spans)
	}
}

func TestParse_PrefixOfStreamIsStable(t *testing.T) {
	full := "First line of advice\nSecond line here\nPRODUCT_RECOMMENDATION:aurora|Reason|A;B|500"
	partial := full[:len("First line of advice\nSecond li")]

	p := newTestParser()
	partialMsg := p.Parse(partial)
	fullMsg := p.Parse(full)

	// Extending the text must not change the already-complete first line.
	if !reflect.DeepEqual(partialMsg.Narrative[0], fullMsg.Narrative[0]) {
		t.Error("completed narrative line changed after extension")
	}
}

func TestParse_EndToEndScenario(t *testing.T) {
	stream := "Since you sleep on your side and run hot, look for medium firmness with cooling.\n" +
		"FIRMNESS_VISUAL:4-6\n" +
		"PRODUCT_RECOMMENDATION:cloud-hybrid|Cooling gel for hot sleepers|Gel grid;Medium;Pressure relief|1299|91%\n" +
		"PRODUCT_RECOMMENDATION:breeze-luxe|Airflow layers keep you cool|Ventilated latex;Medium-soft;Quiet|1599|84%\n"

	msg := newTestParser().Parse(stream)

	if msg.Firmness == nil || msg.Firmness.Min != 4 || msg.Firmness.Max != 6 {
		t.Fatalf("expected exactly one firmness block 4-6, got %+v", msg.Firmness)
	}
	if len(msg.Products) != 2 {
		t.Fatalf("expected exactly 2 product cards, got %d", len(msg.Products))
	}
	for _, para := range msg.Narrative {
		for _, span := range para.Spans {
			if strings.Contains(span.Text, "FIRMNESS_VISUAL") || strings.Contains(span.Text, "PRODUCT_RECOMMENDATION") {
				t.Errorf("raw directive token visible in narrative: %q", span.Text)
			}
		}
	}
}

func TestHasRecommendation(t *testing.T) {
	p := newTestParser()

	if p.Parse("just text").HasRecommendation() {
		t.Error("no recommendation expected")
	}
	if !p.Parse("PRODUCT_RECOMMENDATION:a|b|c|d").HasRecommendation() {
		t.Error("expected recommendation to be detected")
	}
}
