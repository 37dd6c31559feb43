package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2c2e/gnucash-cli/internal/logger"
	"github.com/p2c2e/gnucash-cli/internal/model"
)

func TestDecodeCommandTransfer(t *testing.T) {
	raw := []byte(`{"command":"transfer","from":"Checking","to":"Savings","amount":"1000","date":"2025-06-01"}`)

	cmd, err := DecodeCommand(raw, "input")
	require.NoError(t, err)
	tr, ok := cmd.(model.Transfer)
	require.True(t, ok)
	assert.Equal(t, "Checking", tr.FromPath)
	assert.True(t, tr.Amount.Equal(dec("1000")))
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), tr.Date)
}

func TestDecodeCommandNumericAmount(t *testing.T) {
	raw := []byte(`{"command":"transfer","from":"Checking","to":"Savings","amount":250.75}`)

	cmd, err := DecodeCommand(raw, "input")
	require.NoError(t, err)
	tr := cmd.(model.Transfer)
	assert.True(t, tr.Amount.Equal(dec("250.75")))
}

func TestDecodeCommandSplit(t *testing.T) {
	raw := []byte(`{"command":"split_transaction","from":"Checking",
		"legs":[{"to":"Savings","amount":"1000"},{"to":"Groceries","amount":"300"}],
		"total":"1300"}`)

	cmd, err := DecodeCommand(raw, "input")
	require.NoError(t, err)
	sp := cmd.(model.SplitTransaction)
	require.Len(t, sp.Legs, 2)
	assert.True(t, sp.Total.Equal(dec("1300")))
}

func TestDecodeCommandRejectsUnknownKind(t *testing.T) {
	raw := []byte(`{"command":"delete_account","path":"Assets"}`)

	_, err := DecodeCommand(raw, "input")
	var perr ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "inference result failed schema validation", perr.Reason)
}

func TestDecodeCommandRejectsUnknownFields(t *testing.T) {
	raw := []byte(`{"command":"transfer","from":"A","to":"B","amount":"1","sudo":true}`)

	_, err := DecodeCommand(raw, "input")
	var perr ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "inference result failed schema validation", perr.Reason)
}

func TestDecodeCommandRejectsOutOfEnum(t *testing.T) {
	for _, raw := range []string{
		`{"command":"create_account","name":"X","parent":"Assets","type":"BANKING"}`,
		`{"command":"report","kind":"profit_and_loss"}`,
		`{"command":"set_currency","scope":"everything","code":"USD"}`,
	} {
		_, err := DecodeCommand([]byte(raw), "input")
		var perr ParseError
		assert.ErrorAs(t, err, &perr, raw)
	}
}

func TestDecodeCommandRejectsMissingRequired(t *testing.T) {
	for _, raw := range []string{
		`{"command":"transfer","to":"B","amount":"1"}`,
		`{"command":"transfer","from":"A","to":"B"}`,
		`{"command":"create_account","parent":"Assets"}`,
		`{"command":"split_transaction","from":"A","total":"10"}`,
		`{"command":"move_account","path":"A"}`,
	} {
		_, err := DecodeCommand([]byte(raw), "input")
		var perr ParseError
		assert.ErrorAs(t, err, &perr, raw)
	}
}

func TestDecodeCommandRejectsNonJSON(t *testing.T) {
	_, err := DecodeCommand([]byte("sure, transferring now!"), "input")
	var perr ParseError
	assert.ErrorAs(t, err, &perr)
}

// fakeInferrer returns a canned response or error.
type fakeInferrer struct {
	raw []byte
	err error
}

func (f *fakeInferrer) Infer(context.Context, string, string) ([]byte, error) {
	return f.raw, f.err
}

func TestExtractFallbackValidResult(t *testing.T) {
	inf := &fakeInferrer{raw: []byte(`{"command":"transfer","from":"Checking","to":"Savings","amount":"50"}`)}
	e := NewExtractor(inf, time.Second, logger.Nop())

	cmd, err := e.Extract(context.Background(), "could you put fifty bucks into savings please")
	require.NoError(t, err)
	_, ok := cmd.(model.Transfer)
	assert.True(t, ok)
}

// A schema-invalid inference result is rejected with the canonical
// reason; the fallback has no privileged bypass path.
func TestExtractFallbackInvalidResult(t *testing.T) {
	inf := &fakeInferrer{raw: []byte(`{"command":"transfer","from":"Checking","to":"Savings","amount":"50","force":true}`)}
	e := NewExtractor(inf, time.Second, logger.Nop())

	_, err := e.Extract(context.Background(), "could you put fifty bucks into savings please")
	var perr ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "inference result failed schema validation", perr.Reason)
}

// Inference transport failures surface as the same ParseError a
// deterministic miss produces.
func TestExtractFallbackFailureLooksLikeParseError(t *testing.T) {
	inf := &fakeInferrer{err: errors.New("deadline exceeded")}
	e := NewExtractor(inf, time.Second, logger.Nop())

	_, errInfer := e.Extract(context.Background(), "could you put fifty bucks into savings please")
	_, errNoFallback := deterministic().Extract(context.Background(), "could you put fifty bucks into savings please")

	var a, b ParseError
	require.ErrorAs(t, errInfer, &a)
	require.ErrorAs(t, errNoFallback, &b)
	assert.Equal(t, b.Reason, a.Reason)
}

// Deterministic rules win before the fallback is consulted.
func TestExtractDeterministicBeatsFallback(t *testing.T) {
	inf := &fakeInferrer{raw: []byte(`{"command":"list_accounts"}`)}
	e := NewExtractor(inf, time.Second, logger.Nop())

	cmd, err := e.Extract(context.Background(), "transfer 10 from Checking to Savings")
	require.NoError(t, err)
	_, ok := cmd.(model.Transfer)
	assert.True(t, ok)
}

func TestCleanModelJSON(t *testing.T) {
	fenced := "```json\n{\"command\":\"list_accounts\"}\n```"
	assert.Equal(t, `{"command":"list_accounts"}`, cleanModelJSON(fenced))

	chatty := "Here you go: {\"command\":\"list_accounts\"} hope that helps"
	assert.Equal(t, `{"command":"list_accounts"}`, cleanModelJSON(chatty))
}
