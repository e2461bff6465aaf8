package compliance

import "regexp"

// PolicyVersion names the pattern tables and footer below as one unit.
// Bump it whenever either changes and re-run the compliance test suite.
const PolicyVersion = "2025.1"

type IssueKind string

const (
	IssueAdviceLanguage    IssueKind = "advice_language"
	IssueForwardProjection IssueKind = "forward_projection"
)

// Rule is one tagged, independently testable pattern.
type Rule struct {
	Tag     string
	Kind    IssueKind
	Pattern *regexp.Regexp
}

func rule(kind IssueKind, tag, expr string) Rule {
	return Rule{Tag: tag, Kind: kind, Pattern: regexp.MustCompile(`(?i)` + expr)}
}

var adviceRules = []Rule{
	rule(IssueAdviceLanguage, "buy_n_shares", `\b(buy|purchase|acquire|pick up)\s+(\d[\d,]*|a few|some|more)\s+shares?\b`),
	rule(IssueAdviceLanguage, "sell_your_position", `\bsell\s+(all\s+|some\s+|half\s+)?(of\s+)?your\b`),
	rule(IssueAdviceLanguage, "invest_amount_in", `\binvest\s+(\$|usd\s*)\s?\d[\d,]*(\.\d+)?\s*(k|m|thousand|million)?\s+(in|into)\b`),
	rule(IssueAdviceLanguage, "guaranteed_returns", `\bguaranteed\s+(returns?|profits?|gains?|income)\b`),
	rule(IssueAdviceLanguage, "i_recommend_transaction", `\bi\s+(would\s+)?(strongly\s+)?(recommend|suggest|advise)\s+(you\s+)?(buying|selling|shorting|investing|to\s+(buy|sell|short|invest))\b`),
	rule(IssueAdviceLanguage, "you_should_transact", `\byou\s+(should|must|need\s+to)\s+(definitely\s+)?(buy|sell|short|invest\s+in|put\s+your\s+money\s+in)\b`),
}

var projectionRules = []Rule{
	rule(IssueForwardProjection, "will_return_percent", `\bwill\s+(return|yield|earn|gain|deliver)\s+(about\s+|around\s+|roughly\s+|at\s+least\s+|over\s+)?\d+(\.\d+)?\s*(%|percent)`),
	rule(IssueForwardProjection, "projected_returns", `\bprojected\s+(returns?|gains?|growth|yield)\b`),
	rule(IssueForwardProjection, "will_grow_to_amount", `\bwill\s+(grow|rise|increase|climb|be\s+worth)\s+to\s+(\$|usd\s*)\s?\d`),
	rule(IssueForwardProjection, "certain_to_rise", `\b(is|are)\s+(going|certain|sure|guaranteed)\s+to\s+(rise|go\s+up|double|triple|outperform|moon)\b`),
}

// Rules returns every rule in evaluation order.
func Rules() []Rule {
	out := make([]Rule, 0, len(adviceRules)+len(projectionRules))
	out = append(out, adviceRules...)
	out = append(out, projectionRules...)
	return out
}

const disclaimerFooter = "\n\n---\n" +
	"*This content is for educational purposes only and is not investment advice. " +
	"Investing involves risk, including possible loss of principal. " +
	"Consider consulting a licensed financial advisor before making investment decisions.*\n" +
	"*Generated %s*"

const safeFallback = "Thanks for your question. I can't recommend specific investments, transactions, or predict how any investment will perform, but I can help you think it through.\n\n" +
	"**General considerations:**\n" +
	"- **Goals and time horizon:** what the money is for and when you will need it.\n" +
	"- **Risk tolerance:** how much short-term loss you could accept without changing course.\n" +
	"- **Diversification:** spreading investments across asset classes reduces single-investment risk.\n" +
	"- **Costs:** fees and taxes compound over time just like returns do.\n\n" +
	"For advice tailored to your situation, please speak with a licensed financial advisor.\n\n" +
	"Would you like me to explain any of these concepts in more detail?"

// SafeFallback is the fixed response substituted for non-compliant text.
func SafeFallback() string {
	return safeFallback
}
