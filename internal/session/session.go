package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/p2c2e/gnucash-cli/internal/audit"
	"github.com/p2c2e/gnucash-cli/internal/book"
	"github.com/p2c2e/gnucash-cli/internal/config"
	"github.com/p2c2e/gnucash-cli/internal/gitops"
	"github.com/p2c2e/gnucash-cli/internal/id"
	"github.com/p2c2e/gnucash-cli/internal/importer"
	"github.com/p2c2e/gnucash-cli/internal/intent"
	"github.com/p2c2e/gnucash-cli/internal/ledger"
	"github.com/p2c2e/gnucash-cli/internal/model"
	"github.com/p2c2e/gnucash-cli/internal/report"
	"github.com/p2c2e/gnucash-cli/internal/store"
)

// ConfigFile is the book config file inside a book directory.
const ConfigFile = "gnucash.yaml"

// defaultTxLimit bounds list_transactions when no limit is given.
const defaultTxLimit = 10

// Session owns one open book: the in-memory chart of accounts, its
// store, and the intent extractor. Every command runs under one
// exclusive lock and either commits fully or changes nothing.
type Session struct {
	mu        sync.Mutex
	cfg       *config.Config
	cfgPath   string
	tree      *book.Tree
	store     *store.Store
	extractor *intent.Extractor
	now       func() time.Time
	newID     func() string
	log       zerolog.Logger
}

// New assembles a Session from already-loaded parts.
func New(cfg *config.Config, cfgPath string, tree *book.Tree, st *store.Store, ex *intent.Extractor, log zerolog.Logger) *Session {
	return &Session{
		cfg:       cfg,
		cfgPath:   cfgPath,
		tree:      tree,
		store:     st,
		extractor: ex,
		now:       time.Now,
		newID:     uuid.NewString,
		log:       log,
	}
}

// Open loads the book at dir and builds a ready Session. The inference
// fallback is enabled only when GEMINI_API_KEY is set.
func Open(dir string, log zerolog.Logger) (*Session, error) {
	cfgPath := filepath.Join(dir, ConfigFile)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading book config: %w", err)
	}

	st := store.New(dir, log)
	tree, err := st.LoadTree()
	if err != nil {
		return nil, fmt.Errorf("loading book: %w", err)
	}

	var inferrer intent.Inferrer
	if os.Getenv("GEMINI_API_KEY") != "" {
		inferrer = intent.NewGeminiInferrer(cfg.Inference.Model)
	} else {
		log.Debug().Msg("GEMINI_API_KEY not set, inference fallback disabled")
	}
	ex := intent.NewExtractor(inferrer, time.Duration(cfg.Inference.TimeoutSeconds)*time.Second, log)

	return New(cfg, cfgPath, tree, st, ex, log), nil
}

// Tree returns the chart of accounts.
func (s *Session) Tree() *book.Tree { return s.tree }

// Store returns the backing store.
func (s *Session) Store() *store.Store { return s.store }

// Config returns the book configuration.
func (s *Session) Config() *config.Config { return s.cfg }

// Execute interprets freeform text and runs the resulting command.
// Parse and validation failures come back as a failed Result, never as
// a partial mutation.
func (s *Session) Execute(ctx context.Context, text string) model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, err := s.extractor.Extract(ctx, text)
	if err != nil {
		s.writeAudit(text, "", "", "error: "+err.Error())
		return fail(err)
	}

	res, entryID := s.apply(cmd)
	s.finish(text, cmd.Kind(), res, entryID)
	return res
}

// Apply runs an already-typed command, bypassing interpretation.
func (s *Session) Apply(cmd model.Command) model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, entryID := s.apply(cmd)
	s.finish("", cmd.Kind(), res, entryID)
	return res
}

// Import builds a bulk-import document into the book and posts its
// opening balances. On any failure the in-memory tree is reloaded from
// disk, so a half-applied document never survives.
func (s *Session) Import(doc *importer.Document) (model.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	openings, err := importer.Apply(doc, s.tree, s.cfg.Book.Currency, s.newID)
	if err != nil {
		s.reload()
		return fail(err), err
	}

	// Build every opening entry up front: validation failures must
	// surface before anything reaches the disk.
	existing, err := s.store.EntryIDs()
	if err != nil {
		s.reload()
		return fail(err), err
	}
	var txs []model.Transaction
	for _, op := range openings {
		acct, ok := s.tree.Get(op.AccountID)
		if !ok {
			continue
		}
		equity, ok := s.tree.RootOfType(model.AccountTypeEquity)
		if !ok {
			err := fmt.Errorf("book has no EQUITY root to offset opening balances")
			s.reload()
			return fail(err), err
		}

		date := op.Date
		if date.IsZero() {
			date = s.now()
		}
		entryID := id.Next(existing, date)
		existing = append(existing, entryID)

		tx, err := ledger.BuildOpening(acct, equity, op.Balance, entryID, date)
		if err != nil {
			s.reload()
			return fail(err), err
		}
		txs = append(txs, tx)
	}

	// Accounts reach book.yaml before any journal row references them.
	if err := s.store.SaveTree(s.tree); err != nil {
		s.reload()
		return fail(err), err
	}
	for _, tx := range txs {
		if err := s.commit(tx); err != nil {
			s.reload()
			return fail(err), err
		}
	}
	if len(txs) > 0 {
		if err := s.store.SaveTree(s.tree); err != nil {
			s.reload()
			return fail(err), err
		}
	}

	s.autoCommit("import")
	msg := fmt.Sprintf("Imported %d accounts (%d opening balances)", s.tree.Len(), len(openings))
	return model.Result{OK: true, Message: msg}, nil
}

// Backup snapshots the book files under the session lock, so a copy
// never interleaves with an in-flight mutation.
func (s *Session) Backup(now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Backup(now)
}

// PurgeBackups removes backups older than cutoff under the session
// lock and returns the deleted directory names.
func (s *Session) PurgeBackups(cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.PurgeBackups(cutoff)
}

// reload restores the in-memory tree from disk after a failed
// multi-step mutation. A missing book file leaves an empty tree.
func (s *Session) reload() {
	tree, err := s.store.LoadTree()
	if err != nil {
		s.log.Warn().Err(err).Msg("reloading book after failed command")
		tree = book.NewTree()
	}
	s.tree = tree
}

func (s *Session) apply(cmd model.Command) (model.Result, string) {
	switch c := cmd.(type) {
	case model.CreateAccount:
		return s.createAccount(c)
	case model.Transfer:
		return s.transfer(c)
	case model.SplitTransaction:
		return s.splitTransaction(c)
	case model.SetCurrency:
		return s.setCurrency(c)
	case model.Report:
		return s.report(c)
	case model.ListAccounts:
		return s.listAccounts()
	case model.ListTransactions:
		return s.listTransactions(c)
	case model.MoveAccount:
		return s.moveAccount(c)
	default:
		return fail(fmt.Errorf("unsupported command %q", cmd.Kind())), ""
	}
}

func (s *Session) createAccount(cmd model.CreateAccount) (model.Result, string) {
	parent, err := s.tree.Resolve(cmd.ParentPath)
	if err != nil {
		return fail(err), ""
	}

	typ := cmd.Type
	if typ == "" {
		if parent.Type == model.AccountTypeStock {
			return fail(model.InvalidAccountTypeError{
				Type:   "",
				Reason: fmt.Sprintf("accounts under STOCK parent %q need an explicit type", parent.Name),
			}), ""
		}
		typ = parent.Type
	}

	currency := parent.Currency
	if currency == "" {
		currency = s.cfg.Book.Currency
	}

	acct := &model.Account{
		ID:          s.newID(),
		Name:        cmd.Name,
		Type:        typ,
		Currency:    currency,
		Description: cmd.Description,
		ParentID:    parent.ID,
	}

	// Build the opening entry before touching the tree so validation
	// failures leave the book untouched.
	var opening model.Transaction
	entryID := ""
	if !cmd.InitialBalance.IsZero() {
		equity, ok := s.tree.RootOfType(model.AccountTypeEquity)
		if !ok {
			return fail(fmt.Errorf("book has no EQUITY root to offset the initial balance")), ""
		}
		existing, err := s.store.EntryIDs()
		if err != nil {
			return fail(err), ""
		}
		now := s.now()
		entryID = id.Next(existing, now)
		opening, err = ledger.BuildOpening(acct, equity, cmd.InitialBalance, entryID, now)
		if err != nil {
			return fail(err), ""
		}
	}

	if err := s.tree.Add(acct); err != nil {
		return fail(err), ""
	}
	// The account reaches book.yaml before its opening entry references
	// it; any persistence failure reloads so memory matches disk.
	if err := s.store.SaveTree(s.tree); err != nil {
		s.reload()
		return fail(err), ""
	}
	if entryID != "" {
		if err := s.commit(opening); err != nil {
			s.reload()
			return fail(err), entryID
		}
		if err := s.store.SaveTree(s.tree); err != nil {
			s.reload()
			return fail(err), entryID
		}
	}

	path, _ := s.tree.PathOf(acct.ID)
	msg := fmt.Sprintf("Created account %s (%s)", path, typ)
	if entryID != "" {
		msg = fmt.Sprintf("%s with initial balance %s [%s]", msg, cmd.InitialBalance, entryID)
	}
	return model.Result{OK: true, Message: msg, Data: acct}, entryID
}

func (s *Session) transfer(cmd model.Transfer) (model.Result, string) {
	from, err := s.tree.Resolve(cmd.FromPath)
	if err != nil {
		return fail(err), ""
	}
	to, err := s.tree.Resolve(cmd.ToPath)
	if err != nil {
		return fail(err), ""
	}

	existing, err := s.store.EntryIDs()
	if err != nil {
		return fail(err), ""
	}
	entryID := id.Next(existing, s.now())

	tx, err := ledger.BuildTransfer(cmd, from, to, entryID, s.now())
	if err != nil {
		return fail(err), ""
	}
	if err := s.commit(tx); err != nil {
		return fail(err), entryID
	}
	if err := s.store.SaveTree(s.tree); err != nil {
		return fail(err), entryID
	}

	fromPath, _ := s.tree.PathOf(from.ID)
	toPath, _ := s.tree.PathOf(to.ID)
	msg := fmt.Sprintf("Transferred %s from %s to %s [%s]", cmd.Amount, fromPath, toPath, entryID)
	return model.Result{OK: true, Message: msg, Data: tx}, entryID
}

func (s *Session) splitTransaction(cmd model.SplitTransaction) (model.Result, string) {
	from, err := s.tree.Resolve(cmd.FromPath)
	if err != nil {
		return fail(err), ""
	}
	legs := make([]ledger.ResolvedLeg, 0, len(cmd.Legs))
	for _, leg := range cmd.Legs {
		to, err := s.tree.Resolve(leg.ToPath)
		if err != nil {
			return fail(err), ""
		}
		legs = append(legs, ledger.ResolvedLeg{Account: to, Amount: leg.Amount})
	}

	existing, err := s.store.EntryIDs()
	if err != nil {
		return fail(err), ""
	}
	entryID := id.Next(existing, s.now())

	tx, err := ledger.BuildSplit(cmd, from, legs, entryID, s.now())
	if err != nil {
		return fail(err), ""
	}
	if err := s.commit(tx); err != nil {
		return fail(err), entryID
	}
	if err := s.store.SaveTree(s.tree); err != nil {
		return fail(err), entryID
	}

	fromPath, _ := s.tree.PathOf(from.ID)
	msg := fmt.Sprintf("Split %s from %s across %d accounts [%s]", cmd.Total, fromPath, len(legs), entryID)
	return model.Result{OK: true, Message: msg, Data: tx}, entryID
}

func (s *Session) setCurrency(cmd model.SetCurrency) (model.Result, string) {
	code := strings.ToUpper(strings.TrimSpace(cmd.Code))
	if len(code) != 3 {
		return fail(fmt.Errorf("currency code must be a 3-letter ISO code, got %q", cmd.Code)), ""
	}

	s.cfg.Book.Currency = code
	if cmd.Scope == model.ScopeAllAccounts {
		s.tree.SetCurrencyAll(code)
		if err := s.store.SaveTree(s.tree); err != nil {
			return fail(err), ""
		}
	}
	if s.cfgPath != "" {
		if err := config.Save(s.cfgPath, s.cfg); err != nil {
			return fail(err), ""
		}
	}

	scope := "book default"
	if cmd.Scope == model.ScopeAllAccounts {
		scope = "all accounts"
	}
	return model.Result{OK: true, Message: fmt.Sprintf("Currency set to %s (%s)", code, scope)}, ""
}

func (s *Session) report(cmd model.Report) (model.Result, string) {
	txs, err := s.store.ListTransactions(store.TxFilter{})
	if err != nil {
		return fail(err), ""
	}
	rollup := report.Compute(s.tree, txs, cmd.From, cmd.To)

	switch cmd.ReportKind {
	case model.ReportCashFlow:
		view := rollup.CashFlow()
		return model.Result{OK: true, Message: formatCashFlow(view), Data: view}, ""
	case model.ReportBalanceSheet:
		view := rollup.BalanceSheet()
		return model.Result{OK: true, Message: formatBalanceSheet(view), Data: view}, ""
	default:
		return fail(fmt.Errorf("unknown report kind %q", cmd.ReportKind)), ""
	}
}

// AccountLine is one row of a list_accounts result.
type AccountLine struct {
	Path     string
	Type     model.AccountType
	Balance  decimal.Decimal
	Currency string
}

func (s *Session) listAccounts() (model.Result, string) {
	var lines []AccountLine
	var b strings.Builder
	b.WriteString("Accounts:\n")
	s.tree.Walk(func(a *model.Account) {
		path, _ := s.tree.PathOf(a.ID)
		line := AccountLine{Path: path, Type: a.Type, Balance: a.Type.Natural(a.Balance), Currency: a.Currency}
		lines = append(lines, line)
		fmt.Fprintf(&b, "  %s (%s) %s %s\n", line.Path, line.Type, line.Balance, line.Currency)
	})
	return model.Result{OK: true, Message: strings.TrimRight(b.String(), "\n"), Data: lines}, ""
}

func (s *Session) listTransactions(cmd model.ListTransactions) (model.Result, string) {
	limit := cmd.Limit
	if limit <= 0 {
		limit = defaultTxLimit
	}
	txs, err := s.store.ListTransactions(store.TxFilter{Limit: limit})
	if err != nil {
		return fail(err), ""
	}

	// Newest first.
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Last %d transactions:\n", len(txs))
	for _, tx := range txs {
		fmt.Fprintf(&b, "  [%s] %s %s\n", tx.ID, tx.Date.Format("2006-01-02"), tx.Description)
		for _, sp := range tx.Splits {
			path := sp.AccountID
			if a, ok := s.tree.Get(sp.AccountID); ok {
				path, _ = s.tree.PathOf(a.ID)
			}
			fmt.Fprintf(&b, "    %s %s %s\n", path, sp.Amount, sp.Currency)
		}
	}
	return model.Result{OK: true, Message: strings.TrimRight(b.String(), "\n"), Data: txs}, ""
}

func (s *Session) moveAccount(cmd model.MoveAccount) (model.Result, string) {
	acct, err := s.tree.Resolve(cmd.Path)
	if err != nil {
		return fail(err), ""
	}
	parent, err := s.tree.Resolve(cmd.NewParentPath)
	if err != nil {
		return fail(err), ""
	}
	if err := s.tree.Move(acct.ID, parent.ID); err != nil {
		return fail(err), ""
	}
	if err := s.store.SaveTree(s.tree); err != nil {
		return fail(err), ""
	}

	path, _ := s.tree.PathOf(acct.ID)
	return model.Result{OK: true, Message: fmt.Sprintf("Moved account to %s", path)}, ""
}

// commit appends one transaction to the journal and applies its splits
// to the cached balances.
func (s *Session) commit(tx model.Transaction) error {
	if err := s.store.AppendTransaction(tx); err != nil {
		return err
	}
	for _, sp := range tx.Splits {
		if a, ok := s.tree.Get(sp.AccountID); ok {
			a.Balance = a.Balance.Add(sp.Amount)
		}
	}
	return nil
}

// finish writes the audit row and, for successful mutations,
// auto-commits the book directory when configured.
func (s *Session) finish(input string, kind model.CommandKind, res model.Result, entryID string) {
	outcome := "ok"
	if !res.OK {
		outcome = "error: " + res.Message
	}
	s.writeAudit(input, string(kind), entryID, outcome)

	if res.OK && mutates(kind) {
		s.autoCommit(string(kind))
	}
}

func (s *Session) writeAudit(input, kind, entryID, outcome string) {
	e := audit.Entry{
		Timestamp: s.now(),
		Input:     input,
		Command:   kind,
		EntryID:   entryID,
		Outcome:   outcome,
	}
	if err := audit.Append(s.store.Dir(), []audit.Entry{e}); err != nil {
		s.log.Warn().Err(err).Msg("writing audit log")
	}
}

func (s *Session) autoCommit(action string) {
	if !s.cfg.Git.AutoCommit || !gitops.IsRepo(s.store.Dir()) {
		return
	}
	hash, err := gitops.CommitAll(s.store.Dir(), "ledger: "+action, s.cfg.Git.AuthorName, s.cfg.Git.AuthorEmail)
	if err != nil {
		s.log.Warn().Err(err).Msg("git auto-commit failed")
		return
	}
	s.log.Debug().Str("commit", hash).Msg("book auto-committed")
}

func mutates(kind model.CommandKind) bool {
	switch kind {
	case model.KindCreateAccount, model.KindTransfer, model.KindSplitTransaction,
		model.KindSetCurrency, model.KindMoveAccount:
		return true
	default:
		return false
	}
}

func fail(err error) model.Result {
	return model.Result{OK: false, Message: err.Error()}
}

func formatCashFlow(v report.CashFlowView) string {
	var b strings.Builder
	b.WriteString("Cash Flow Statement")
	if !v.From.IsZero() || !v.To.IsZero() {
		fmt.Fprintf(&b, " (%s to %s)", formatBound(v.From), formatBound(v.To))
	}
	b.WriteString("\n\nIncoming:\n")
	for _, l := range v.Incoming {
		fmt.Fprintf(&b, "  %s: %s\n", l.Name, l.Amount)
	}
	fmt.Fprintf(&b, "Total Incoming: %s\n\nOutflow:\n", v.TotalIncoming)
	for _, l := range v.Outflow {
		fmt.Fprintf(&b, "  %s: %s\n", l.Name, l.Amount)
	}
	fmt.Fprintf(&b, "Total Outflow: %s\n\nNet Cash Flow: %s", v.TotalOutflow, v.Net)
	return b.String()
}

func formatBalanceSheet(v report.BalanceSheetView) string {
	var b strings.Builder
	b.WriteString("Balance Sheet\n\nAssets:\n")
	for _, l := range v.Assets {
		fmt.Fprintf(&b, "  %s: %s\n", l.Name, l.Amount)
	}
	fmt.Fprintf(&b, "Total Assets: %s\n\nLiabilities:\n", v.TotalAssets)
	for _, l := range v.Liabilities {
		fmt.Fprintf(&b, "  %s: %s\n", l.Name, l.Amount)
	}
	fmt.Fprintf(&b, "Total Liabilities: %s\n\nEquity:\n", v.TotalLiabilities)
	for _, l := range v.Equity {
		fmt.Fprintf(&b, "  %s: %s\n", l.Name, l.Amount)
	}
	fmt.Fprintf(&b, "Total Equity: %s\n\nNet Worth: %s", v.TotalEquity, v.NetWorth)
	if v.Warning != "" {
		fmt.Fprintf(&b, "\n\nWARNING: %s", v.Warning)
	}
	return b.String()
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.Format("2006-01-02")
}
