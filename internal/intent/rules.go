package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/p2c2e/gnucash-cli/internal/model"
)

// A rule is one deterministic pattern: a trigger-verb set plus an
// entity extractor. Rules are tried in table order and the first one
// whose verbs and required entities are all present wins, so identical
// text always yields an identical command.
type rule struct {
	name     string
	verbs    []string
	keywords []string // every keyword must appear somewhere in the text
	build    func(c *capture) (model.Command, bool, error)
}

func (r rule) triggered(c *capture) bool {
	hasVerb := false
	for _, v := range r.verbs {
		if c.hasWord(v) {
			hasVerb = true
			break
		}
	}
	if !hasVerb {
		return false
	}
	for _, k := range r.keywords {
		if !c.hasPhrase(k) {
			return false
		}
	}
	return true
}

// stopWords end an account-path phrase during extraction.
var stopWords = map[string]bool{
	"from": true, "to": true, "into": true, "under": true, "in": true,
	"with": true, "balance": true, "desc": true, "description": true,
	"date": true, "on": true, "amount": true, "of": true, "for": true,
	"and": true, "total": true, "called": true, "named": true,
	"type": true, "as": true,
}

var (
	quotedRe = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)
	dateRe   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	codeRe   = regexp.MustCompile(`\b([A-Z]{3})\b`)
)

// capture holds the tokenized input plus any quoted strings, which are
// lifted out before tokenizing so quotes never pollute path phrases.
type capture struct {
	raw    string
	quoted []string
	tokens []string // original case, whitespace-split, quotes removed
}

func newCapture(text string) *capture {
	c := &capture{raw: text}
	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			c.quoted = append(c.quoted, m[1])
		} else {
			c.quoted = append(c.quoted, m[2])
		}
	}
	c.tokens = strings.Fields(quotedRe.ReplaceAllString(text, " "))
	return c
}

func norm(tok string) string {
	return strings.ToLower(strings.Trim(tok, ",.;:!?"))
}

func (c *capture) hasWord(w string) bool {
	for _, tok := range c.tokens {
		if norm(tok) == w {
			return true
		}
	}
	return false
}

func (c *capture) hasPhrase(p string) bool {
	words := strings.Fields(p)
	if len(words) == 1 {
		return c.hasWord(words[0])
	}
	for i := 0; i+len(words) <= len(c.tokens); i++ {
		match := true
		for j, w := range words {
			if norm(c.tokens[i+j]) != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (c *capture) indexOf(markers ...string) int {
	for i, tok := range c.tokens {
		for _, m := range markers {
			if norm(tok) == m {
				return i
			}
		}
	}
	return -1
}

// phraseAfter collects the account-path phrase following the first of
// the given marker words, stopping at the next stop word, amount or
// date token.
func (c *capture) phraseAfter(markers ...string) string {
	i := c.indexOf(markers...)
	if i < 0 {
		return ""
	}
	return c.phraseFrom(i + 1)
}

func (c *capture) phraseFrom(start int) string {
	var parts []string
	for _, tok := range c.tokens[min(start, len(c.tokens)):] {
		n := norm(tok)
		if stopWords[n] {
			break
		}
		if _, ok := parseAmount(tok); ok {
			break
		}
		if dateRe.MatchString(tok) {
			break
		}
		parts = append(parts, strings.Trim(tok, ",.;!?"))
		if strings.HasSuffix(tok, ",") {
			break
		}
	}
	return strings.Join(parts, " ")
}

// amountAfter returns the first amount token following a marker word.
func (c *capture) amountAfter(markers ...string) (decimal.Decimal, bool) {
	i := c.indexOf(markers...)
	if i < 0 {
		return decimal.Decimal{}, false
	}
	for _, tok := range c.tokens[i+1:] {
		if d, ok := parseAmount(tok); ok {
			return d, true
		}
	}
	return decimal.Decimal{}, false
}

func (c *capture) firstAmount() (decimal.Decimal, bool) {
	for _, tok := range c.tokens {
		if d, ok := parseAmount(tok); ok {
			return d, true
		}
	}
	return decimal.Decimal{}, false
}

func (c *capture) hasAmount() bool {
	_, ok := c.firstAmount()
	return ok
}

func (c *capture) date() string {
	if m := dateRe.FindStringSubmatch(c.raw); m != nil {
		return m[1]
	}
	return ""
}

func (c *capture) dates() []string {
	var out []string
	for _, m := range dateRe.FindAllStringSubmatch(c.raw, -1) {
		out = append(out, m[1])
	}
	return out
}

// description returns quoted text, preferring a quote introduced by a
// desc/description marker.
func (c *capture) description() string {
	if len(c.quoted) == 0 {
		return ""
	}
	if c.indexOf("desc", "description") >= 0 {
		return c.quoted[len(c.quoted)-1]
	}
	return c.quoted[0]
}

func parseAmount(tok string) (decimal.Decimal, bool) {
	s := strings.Trim(tok, ",.;:!?")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Decimal{}, false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Decimal{}, false
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// accountTypeToken returns the first token matching the account type
// enum, if any.
func (c *capture) accountTypeToken() string {
	for _, tok := range c.tokens {
		if _, err := model.ParseAccountType(norm(tok)); err == nil {
			return strings.ToUpper(norm(tok))
		}
	}
	return ""
}

// defaultRules builds the ordered rule table. New phrasings get a new
// row here, not new control flow.
func defaultRules() []rule {
	return []rule{
		{
			name:  "split_transaction",
			verbs: []string{"split", "divide"},
			build: buildSplitRule,
		},
		{
			name:     "set_currency",
			verbs:    []string{"set", "update", "change"},
			keywords: []string{"currency"},
			build:    buildSetCurrencyRule,
		},
		{
			name:  "report",
			verbs: []string{"show", "generate", "report", "display"},
			build: buildReportRule,
		},
		{
			name:     "list_accounts",
			verbs:    []string{"list", "show", "display"},
			keywords: []string{"accounts"},
			build: func(c *capture) (model.Command, bool, error) {
				cmd, err := listAccountsPayload{Command: string(model.KindListAccounts)}.toCommand(c.raw)
				return cmd, err == nil, err
			},
		},
		{
			name:     "list_transactions",
			verbs:    []string{"list", "show", "display"},
			keywords: []string{"transactions"},
			build:    buildListTransactionsRule,
		},
		{
			name:  "move_account",
			verbs: []string{"move"},
			build: buildMoveAccountRule,
		},
		{
			name:     "create_account",
			verbs:    []string{"create", "add", "new", "open"},
			keywords: []string{"account"},
			build:    buildCreateAccountRule,
		},
		{
			name:  "transfer",
			verbs: []string{"transfer", "move", "pay", "send"},
			build: buildTransferRule,
		},
	}
}

func buildTransferRule(c *capture) (model.Command, bool, error) {
	from := c.phraseAfter("from")
	to := c.phraseAfter("to", "into")
	amount, okAmount := c.firstAmount()
	if from == "" || to == "" || !okAmount {
		return nil, false, nil
	}
	p := transferPayload{
		Command:     string(model.KindTransfer),
		From:        from,
		To:          to,
		Amount:      amount,
		Date:        c.date(),
		Description: c.description(),
	}
	cmd, err := p.toCommand(c.raw)
	if err != nil {
		return nil, false, err
	}
	return cmd, true, nil
}

func buildSplitRule(c *capture) (model.Command, bool, error) {
	from := c.phraseAfter("from")
	if from == "" {
		return nil, false, nil
	}
	total, okTotal := c.amountAfter("split", "divide", "total")
	if !okTotal {
		return nil, false, nil
	}
	legs, ok := c.legs()
	if !ok {
		return nil, false, nil
	}
	p := splitPayload{
		Command:     string(model.KindSplitTransaction),
		From:        from,
		Legs:        legs,
		Total:       total,
		Date:        c.date(),
		Description: c.description(),
	}
	cmd, err := p.toCommand(c.raw)
	if err != nil {
		return nil, false, err
	}
	return cmd, true, nil
}

// legs parses "to Savings 1000, Groceries 300 and Gas 200" style leg
// lists after the to/into/across marker.
func (c *capture) legs() ([]splitLegPayload, bool) {
	i := c.indexOf("to", "into", "across", "between", "among")
	if i < 0 || i+1 >= len(c.tokens) {
		return nil, false
	}
	rest := strings.Join(c.tokens[i+1:], " ")
	rest = strings.ReplaceAll(rest, " and ", ",")
	var legs []splitLegPayload
	for _, part := range strings.Split(rest, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		last := fields[len(fields)-1]
		amount, ok := parseAmount(last)
		if !ok || len(fields) < 2 {
			return nil, false
		}
		name := strings.Join(fields[:len(fields)-1], " ")
		legs = append(legs, splitLegPayload{To: strings.Trim(name, ",.;!?"), Amount: amount})
	}
	return legs, len(legs) > 0
}

func buildSetCurrencyRule(c *capture) (model.Command, bool, error) {
	code := ""
	if m := codeRe.FindStringSubmatch(c.raw); m != nil {
		code = m[1]
	}
	if code == "" {
		return nil, false, nil
	}
	scope := model.ScopeBook
	if c.hasPhrase("all accounts") {
		scope = model.ScopeAllAccounts
	}
	p := setCurrencyPayload{Command: string(model.KindSetCurrency), Scope: string(scope), Code: code}
	cmd, err := p.toCommand(c.raw)
	if err != nil {
		return nil, false, err
	}
	return cmd, true, nil
}

func buildReportRule(c *capture) (model.Command, bool, error) {
	var kind model.ReportKind
	switch {
	case c.hasPhrase("cash flow") || c.hasWord("cashflow"):
		kind = model.ReportCashFlow
	case c.hasPhrase("balance sheet"):
		kind = model.ReportBalanceSheet
	default:
		return nil, false, nil
	}
	p := reportPayload{Command: string(model.KindReport), Kind: string(kind)}
	if dates := c.dates(); len(dates) >= 2 {
		p.From, p.To = dates[0], dates[1]
	} else if len(dates) == 1 {
		if c.indexOf("from", "since", "after") >= 0 {
			p.From = dates[0]
		} else {
			p.To = dates[0]
		}
	}
	cmd, err := p.toCommand(c.raw)
	if err != nil {
		return nil, false, err
	}
	return cmd, true, nil
}

func buildListTransactionsRule(c *capture) (model.Command, bool, error) {
	p := listTransactionsPayload{Command: string(model.KindListTransactions)}
	for _, tok := range c.tokens {
		if n, err := strconv.Atoi(norm(tok)); err == nil && n > 0 {
			p.Limit = n
			break
		}
	}
	cmd, err := p.toCommand(c.raw)
	if err != nil {
		return nil, false, err
	}
	return cmd, true, nil
}

func buildMoveAccountRule(c *capture) (model.Command, bool, error) {
	if c.hasAmount() {
		return nil, false, nil // "move 100 from X to Y" is a transfer
	}
	path := c.phraseAfter("account")
	if path == "" {
		path = c.phraseAfter("move")
	}
	newParent := c.phraseAfter("under", "into", "to")
	if path == "" || newParent == "" {
		return nil, false, nil
	}
	p := moveAccountPayload{Command: string(model.KindMoveAccount), Path: path, NewParent: newParent}
	cmd, err := p.toCommand(c.raw)
	if err != nil {
		return nil, false, err
	}
	return cmd, true, nil
}

func buildCreateAccountRule(c *capture) (model.Command, bool, error) {
	parent := c.phraseAfter("under", "in")
	if parent == "" {
		return nil, false, nil
	}

	name := ""
	switch {
	case c.indexOf("called", "named") >= 0:
		name = c.phraseAfter("called", "named")
	case len(c.quoted) > 0 && (c.indexOf("desc", "description") < 0 || len(c.quoted) > 1):
		name = c.quoted[0]
	default:
		name = c.phraseAfter("account")
	}
	if name == "" {
		return nil, false, nil
	}

	p := createAccountPayload{
		Command: string(model.KindCreateAccount),
		Name:    name,
		Parent:  parent,
		Type:    c.accountTypeToken(),
	}
	if balance, ok := c.amountAfter("balance", "with"); ok {
		p.InitialBalance = balance
	}
	if c.indexOf("desc", "description") >= 0 && len(c.quoted) > 0 {
		p.Description = c.quoted[len(c.quoted)-1]
	}
	cmd, err := p.toCommand(c.raw)
	if err != nil {
		return nil, false, err
	}
	return cmd, true, nil
}
