package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/p2c2e/gnucash-cli/internal/model"
)

// ParseError reports text that could not be turned into a command, or
// an inference result that failed schema validation. Both extraction
// tiers surface the same error class.
type ParseError struct {
	Fragment string
	Reason   string
}

func (e ParseError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("cannot interpret %q: %s", e.Fragment, e.Reason)
	}
	return fmt.Sprintf("cannot interpret command: %s", e.Reason)
}

const dateLayout = "2006-01-02"

// CommandSchema is the closed command contract handed to the inference
// collaborator. The fallback may only produce one of these shapes;
// anything else is rejected by the same validation the deterministic
// tier uses.
const CommandSchema = `Respond with exactly one JSON object, no other text. The object must match
one of these shapes ("command" selects the shape, no extra fields allowed):

{"command":"create_account","name":"<string>","parent":"<account path>",
 "type":"ASSET|LIABILITY|INCOME|EXPENSE|EQUITY|STOCK (optional, inherits parent)",
 "initial_balance":"<decimal, optional>","description":"<string, optional>"}

{"command":"transfer","from":"<account path>","to":"<account path>",
 "amount":"<decimal>","date":"YYYY-MM-DD (optional)","description":"<string, optional>"}

{"command":"split_transaction","from":"<account path>",
 "legs":[{"to":"<account path>","amount":"<decimal>"}],
 "total":"<decimal>","date":"YYYY-MM-DD (optional)","description":"<string, optional>"}

{"command":"set_currency","scope":"book|all_accounts","code":"<ISO currency code>"}

{"command":"report","kind":"cashflow|balance_sheet",
 "from":"YYYY-MM-DD (optional)","to":"YYYY-MM-DD (optional)"}

{"command":"list_accounts"}

{"command":"list_transactions","limit":<integer, optional>}

{"command":"move_account","path":"<account path>","new_parent":"<account path>"}

Account paths are colon-delimited, e.g. "Assets:Checking Account"; a bare
account name is allowed when unambiguous. Amounts are plain decimals with no
currency symbol.`

// Payload structs mirror the schema above. The deterministic rules and
// the inference decoder both funnel through toCommand, so a candidate
// command is validated identically no matter which tier produced it.

type createAccountPayload struct {
	Command        string          `json:"command"`
	Name           string          `json:"name"`
	Parent         string          `json:"parent"`
	Type           string          `json:"type,omitempty"`
	InitialBalance decimal.Decimal `json:"initial_balance,omitempty"`
	Description    string          `json:"description,omitempty"`
}

func (p createAccountPayload) toCommand(fragment string) (model.Command, error) {
	if p.Name == "" {
		return nil, ParseError{Fragment: fragment, Reason: "create_account requires a name"}
	}
	if p.Parent == "" {
		return nil, ParseError{Fragment: fragment, Reason: "create_account requires a parent path"}
	}
	cmd := model.CreateAccount{
		Name:           p.Name,
		ParentPath:     p.Parent,
		InitialBalance: p.InitialBalance,
		Description:    p.Description,
	}
	if p.Type != "" {
		typ, err := model.ParseAccountType(p.Type)
		if err != nil {
			return nil, ParseError{Fragment: fragment, Reason: fmt.Sprintf("unknown account type %q", p.Type)}
		}
		cmd.Type = typ
	}
	if p.InitialBalance.IsNegative() {
		return nil, ParseError{Fragment: fragment, Reason: "initial balance must not be negative"}
	}
	return cmd, nil
}

type transferPayload struct {
	Command     string          `json:"command"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date,omitempty"`
	Description string          `json:"description,omitempty"`
}

func (p transferPayload) toCommand(fragment string) (model.Command, error) {
	if p.From == "" || p.To == "" {
		return nil, ParseError{Fragment: fragment, Reason: "transfer requires from and to accounts"}
	}
	if !p.Amount.IsPositive() {
		return nil, ParseError{Fragment: fragment, Reason: "transfer requires a positive amount"}
	}
	date, err := parseOptionalDate(p.Date, fragment)
	if err != nil {
		return nil, err
	}
	return model.Transfer{
		FromPath:    p.From,
		ToPath:      p.To,
		Amount:      p.Amount,
		Date:        date,
		Description: p.Description,
	}, nil
}

type splitLegPayload struct {
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type splitPayload struct {
	Command     string            `json:"command"`
	From        string            `json:"from"`
	Legs        []splitLegPayload `json:"legs"`
	Total       decimal.Decimal   `json:"total"`
	Date        string            `json:"date,omitempty"`
	Description string            `json:"description,omitempty"`
}

func (p splitPayload) toCommand(fragment string) (model.Command, error) {
	if p.From == "" {
		return nil, ParseError{Fragment: fragment, Reason: "split_transaction requires a from account"}
	}
	if len(p.Legs) == 0 {
		return nil, ParseError{Fragment: fragment, Reason: "split_transaction requires at least one leg"}
	}
	if !p.Total.IsPositive() {
		return nil, ParseError{Fragment: fragment, Reason: "split_transaction requires a positive total"}
	}
	date, err := parseOptionalDate(p.Date, fragment)
	if err != nil {
		return nil, err
	}
	cmd := model.SplitTransaction{
		FromPath:    p.From,
		Total:       p.Total,
		Date:        date,
		Description: p.Description,
	}
	for _, leg := range p.Legs {
		if leg.To == "" || !leg.Amount.IsPositive() {
			return nil, ParseError{Fragment: fragment, Reason: "each split leg needs an account and a positive amount"}
		}
		cmd.Legs = append(cmd.Legs, model.SplitLeg{ToPath: leg.To, Amount: leg.Amount})
	}
	return cmd, nil
}

type setCurrencyPayload struct {
	Command string `json:"command"`
	Scope   string `json:"scope"`
	Code    string `json:"code"`
}

func (p setCurrencyPayload) toCommand(fragment string) (model.Command, error) {
	scope := model.CurrencyScope(p.Scope)
	if scope != model.ScopeBook && scope != model.ScopeAllAccounts {
		return nil, ParseError{Fragment: fragment, Reason: fmt.Sprintf("unknown currency scope %q", p.Scope)}
	}
	if len(p.Code) != 3 {
		return nil, ParseError{Fragment: fragment, Reason: fmt.Sprintf("invalid currency code %q", p.Code)}
	}
	return model.SetCurrency{Scope: scope, Code: p.Code}, nil
}

type reportPayload struct {
	Command string `json:"command"`
	Kind    string `json:"kind"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

func (p reportPayload) toCommand(fragment string) (model.Command, error) {
	kind := model.ReportKind(p.Kind)
	if kind != model.ReportCashFlow && kind != model.ReportBalanceSheet {
		return nil, ParseError{Fragment: fragment, Reason: fmt.Sprintf("unknown report kind %q", p.Kind)}
	}
	from, err := parseOptionalDate(p.From, fragment)
	if err != nil {
		return nil, err
	}
	to, err := parseOptionalDate(p.To, fragment)
	if err != nil {
		return nil, err
	}
	return model.Report{ReportKind: kind, From: from, To: to}, nil
}

type listAccountsPayload struct {
	Command string `json:"command"`
}

func (p listAccountsPayload) toCommand(string) (model.Command, error) {
	return model.ListAccounts{}, nil
}

type listTransactionsPayload struct {
	Command string `json:"command"`
	Limit   int    `json:"limit,omitempty"`
}

func (p listTransactionsPayload) toCommand(fragment string) (model.Command, error) {
	if p.Limit < 0 {
		return nil, ParseError{Fragment: fragment, Reason: "limit must not be negative"}
	}
	return model.ListTransactions{Limit: p.Limit}, nil
}

type moveAccountPayload struct {
	Command   string `json:"command"`
	Path      string `json:"path"`
	NewParent string `json:"new_parent"`
}

func (p moveAccountPayload) toCommand(fragment string) (model.Command, error) {
	if p.Path == "" || p.NewParent == "" {
		return nil, ParseError{Fragment: fragment, Reason: "move_account requires path and new_parent"}
	}
	return model.MoveAccount{Path: p.Path, NewParentPath: p.NewParent}, nil
}

// DecodeCommand validates raw JSON from the inference tier against the
// closed schema and converts it to a typed Command. Unknown command
// kinds, unknown fields, out-of-enum values and missing required
// fields are all rejected.
func DecodeCommand(raw []byte, fragment string) (model.Command, error) {
	var probe struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, ParseError{Fragment: fragment, Reason: "inference result failed schema validation"}
	}

	var cmd model.Command
	var err error
	switch model.CommandKind(probe.Command) {
	case model.KindCreateAccount:
		cmd, err = decodeStrict[createAccountPayload](raw, fragment)
	case model.KindTransfer:
		cmd, err = decodeStrict[transferPayload](raw, fragment)
	case model.KindSplitTransaction:
		cmd, err = decodeStrict[splitPayload](raw, fragment)
	case model.KindSetCurrency:
		cmd, err = decodeStrict[setCurrencyPayload](raw, fragment)
	case model.KindReport:
		cmd, err = decodeStrict[reportPayload](raw, fragment)
	case model.KindListAccounts:
		cmd, err = decodeStrict[listAccountsPayload](raw, fragment)
	case model.KindListTransactions:
		cmd, err = decodeStrict[listTransactionsPayload](raw, fragment)
	case model.KindMoveAccount:
		cmd, err = decodeStrict[moveAccountPayload](raw, fragment)
	default:
		return nil, ParseError{Fragment: fragment, Reason: "inference result failed schema validation"}
	}
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

type commandPayload interface {
	toCommand(fragment string) (model.Command, error)
}

func decodeStrict[P commandPayload](raw []byte, fragment string) (model.Command, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var p P
	if err := dec.Decode(&p); err != nil {
		return nil, ParseError{Fragment: fragment, Reason: "inference result failed schema validation"}
	}
	return p.toCommand(fragment)
}

func parseOptionalDate(s, fragment string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, ParseError{Fragment: fragment, Reason: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s)}
	}
	return d, nil
}
