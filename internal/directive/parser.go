package directive

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Directive line prefixes. A line starting with one of these is consumed
// entirely; it never leaks into the narrative output, even when malformed.
const (
	prefixProduct      = "PRODUCT_RECOMMENDATION:"
	prefixComparison   = "COMPARISON:"
	prefixFirmness     = "FIRMNESS_VISUAL:"
	prefixSocialProof  = "SOCIAL_PROOF:"
	prefixQuickReplies = "QUICK_REPLIES:"
)

var (
	linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	boldRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// MetricsRecorder is the slice of observability.Metrics the parser needs.
type MetricsRecorder interface {
	IncrDirectiveParsed(kind string)
	IncrDirectiveDropped(kind string)
}

// Parser splits accumulated assistant text into narrative paragraphs and
// structured directive blocks. Parse output depends only on the input
// text; logger and metrics record dropped directives for operators but
// never influence the result.
type Parser struct {
	logger  *zap.Logger
	metrics MetricsRecorder
}

// NewParser creates a parser. Both arguments may be nil (e.g. in tests).
func NewParser(logger *zap.Logger, metrics MetricsRecorder) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger, metrics: metrics}
}

// Parse classifies each newline-delimited line of text independently and
// assembles the fixed-order Message. Malformed directive lines are dropped,
// never rendered. Partial text (mid-stream) parses the same way; a strict
// textual extension never retroactively changes already-parsed narrative
// lines.
func (p *Parser) Parse(text string) *Message {
	msg := &Message{}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, prefixProduct):
			if card, ok := p.parseProduct(strings.TrimPrefix(line, prefixProduct)); ok {
				msg.Products = append(msg.Products, card)
				p.parsed("product_recommendation")
			} else {
				p.dropped("product_recommendation", line)
			}

		case strings.HasPrefix(line, prefixComparison):
			if cmp, ok := parseComparison(strings.TrimPrefix(line, prefixComparison)); ok {
				// One block per kind; a later directive replaces an earlier one.
				msg.Comparison = cmp
				p.parsed("comparison")
			} else {
				p.dropped("comparison", line)
			}

		case strings.HasPrefix(line, prefixFirmness):
			if f, ok := parseFirmness(strings.TrimPrefix(line, prefixFirmness)); ok {
				msg.Firmness = f
				p.parsed("firmness_visual")
			} else {
				p.dropped("firmness_visual", line)
			}

		case strings.HasPrefix(line, prefixSocialProof):
			if sp, ok := parseSocialProof(strings.TrimPrefix(line, prefixSocialProof)); ok {
				msg.SocialProof = append(msg.SocialProof, sp)
				p.parsed("social_proof")
			} else {
				p.dropped("social_proof", line)
			}

		case strings.HasPrefix(line, prefixQuickReplies):
			if opts, ok := parseQuickReplies(strings.TrimPrefix(line, prefixQuickReplies)); ok {
				msg.QuickReplies = opts
				p.parsed("quick_replies")
			} else {
				p.dropped("quick_replies", line)
			}

		default:
			msg.Narrative = append(msg.Narrative, Paragraph{Spans: parseInline(line)})
		}
	}

	return msg
}

// parseProduct parses `handle[?query]|reason|feat;feat;feat|price[|match%]`.
// Fewer than 4 pipe-separated fields is malformed.
func (p *Parser) parseProduct(payload string) (ProductCard, bool) {
	fields := strings.Split(payload, "|")
	if len(fields) < 4 {
		return ProductCard{}, false
	}

	handle := strings.TrimSpace(fields[0])
	query := ""
	if q := strings.IndexByte(handle, '?'); q >= 0 {
		query = handle[q+1:]
		handle = handle[:q]
	}
	if handle == "" {
		return ProductCard{}, false
	}

	card := ProductCard{
		Handle:      handle,
		QueryParams: query,
		Reason:      strings.TrimSpace(fields[1]),
		Price:       strings.TrimSpace(fields[3]),
	}

	for _, f := range strings.Split(fields[2], ";") {
		if f = strings.TrimSpace(f); f != "" {
			card.Features = append(card.Features, f)
		}
	}

	if len(fields) >= 5 {
		raw := strings.TrimSuffix(strings.TrimSpace(fields[4]), "%")
		if pct, err := strconv.Atoi(raw); err == nil && pct >= 0 && pct <= 100 {
			card.MatchPercent = pct
		}
	}

	return card, true
}

// parseComparison parses a comma-separated handle list; at least two
// handles are required to compare anything.
func parseComparison(payload string) (*Comparison, bool) {
	var handles []string
	for _, h := range strings.Split(payload, ",") {
		if h = strings.TrimSpace(h); h != "" {
			handles = append(handles, h)
		}
	}
	if len(handles) < 2 {
		return nil, false
	}
	return &Comparison{Handles: handles}, true
}

// parseFirmness parses `min-max` on the 1-10 scale.
func parseFirmness(payload string) (*Firmness, bool) {
	parts := strings.SplitN(strings.TrimSpace(payload), "-", 2)
	if len(parts) != 2 {
		return nil, false
	}
	min, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	max, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return nil, false
	}
	if min < 1 || max > 10 || min > max {
		return nil, false
	}
	return &Firmness{Min: min, Max: max}, true
}

// parseSocialProof parses `kind|text` where kind is popular|rated|trending.
func parseSocialProof(payload string) (SocialProof, bool) {
	parts := strings.SplitN(payload, "|", 2)
	if len(parts) != 2 {
		return SocialProof{}, false
	}
	kind := SocialProofKind(strings.TrimSpace(parts[0]))
	text := strings.TrimSpace(parts[1])
	switch kind {
	case ProofPopular, ProofRated, ProofTrending:
	default:
		return SocialProof{}, false
	}
	if text == "" {
		return SocialProof{}, false
	}
	return SocialProof{Kind: kind, Text: text}, true
}

// parseQuickReplies parses a pipe-separated option list.
func parseQuickReplies(payload string) ([]string, bool) {
	var opts []string
	for _, o := range strings.Split(payload, "|") {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	if len(opts) == 0 {
		return nil, false
	}
	return opts, true
}

// parseInline resolves [text](url) and **text** in a single left-to-right
// pass. Markup is non-nested; whichever pattern matches earliest wins, the
// scan resumes after it.
func parseInline(line string) []Span {
	var spans []Span
	rest := line

	appendText := func(s string) {
		if s != "" {
			spans = append(spans, Span{Kind: SpanText, Text: s})
		}
	}

	for rest != "" {
		link := linkRe.FindStringSubmatchIndex(rest)
		bold := boldRe.FindStringSubmatchIndex(rest)

		switch {
		case link == nil && bold == nil:
			appendText(rest)
			return spans

		case bold == nil || (link != nil && link[0] <= bold[0]):
			appendText(rest[:link[0]])
			spans = append(spans, Span{
				Kind: SpanLink,
				Text: rest[link[2]:link[3]],
				URL:  rest[link[4]:link[5]],
			})
			rest = rest[link[1]:]

		default:
			appendText(rest[:bold[0]])
			spans = append(spans, Span{Kind: SpanBold, Text: rest[bold[2]:bold[3]]})
			rest = rest[bold[1]:]
		}
	}

	return spans
}

func (p *Parser) parsed(kind string) {
	if p.metrics != nil {
		p.metrics.IncrDirectiveParsed(kind)
	}
}

func (p *Parser) dropped(kind, line string) {
	p.logger.Warn("directive: malformed line dropped",
		zap.String("kind", kind),
		zap.String("line", line),
	)
	if p.metrics != nil {
		p.metrics.IncrDirectiveDropped(kind)
	}
}
