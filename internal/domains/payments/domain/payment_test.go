package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestFactory(opts ...FactoryOption) *Factory {
	return NewFactory(append([]FactoryOption{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func ten() decimal.Decimal { return decimal.NewFromInt(10) }

func TestFactoryCreate_StartsPending(t *testing.T) {
	factory := newTestFactory()
	for _, method := range []string{"cash", "CREDIT", " Check "} {
		payment, err := factory.Create(method, ten())
		require.NoError(t, err, method)
		require.Equal(t, StatusPending, payment.Status())
		require.True(t, ten().Equal(payment.Amount()))
		require.NotEqual(t, [16]byte{}, [16]byte(payment.ID()))
	}
}

func TestFactoryCreate_RejectsBadInput(t *testing.T) {
	factory := newTestFactory()

	_, err := factory.Create("bogus", ten())
	require.ErrorIs(t, err, ErrUnsupportedPaymentMethod)

	_, err = factory.Create("cash", decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = factory.Create("cash", decimal.NewFromInt(-3))
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFactoryCreate_HonoursEnabledMethods(t *testing.T) {
	factory := newTestFactory(WithMethods(MethodCash))

	_, err := factory.Create("credit", ten())
	require.ErrorIs(t, err, ErrUnsupportedPaymentMethod)
	require.Equal(t, []Method{MethodCash}, factory.Methods())
}

func TestCash_ExactTenderCompletesWithNoChange(t *testing.T) {
	payment, err := newTestFactory().Create("cash", ten())
	require.NoError(t, err)
	cash := payment.(*Cash)

	require.NoError(t, cash.Tender(decimal.NewFromFloat(10.0)))
	require.NoError(t, cash.Process())

	require.Equal(t, StatusCompleted, cash.Status())
	require.True(t, cash.ChangeDue().IsZero())
	require.Equal(t, fixedNow, cash.ProcessedAt())
}

func TestCash_ShortTenderFails(t *testing.T) {
	payment, err := newTestFactory().Create("cash", ten())
	require.NoError(t, err)
	cash := payment.(*Cash)

	require.NoError(t, cash.Tender(decimal.NewFromFloat(5.0)))
	require.NoError(t, cash.Process())

	require.Equal(t, StatusFailed, cash.Status())
	require.NotEmpty(t, cash.FailureReason())
	require.True(t, cash.ChangeDue().IsZero())
}

func TestCash_RejectsInvalidTender(t *testing.T) {
	payment, err := newTestFactory().Create("cash", ten())
	require.NoError(t, err)
	cash := payment.(*Cash)

	require.ErrorIs(t, cash.Tender(decimal.NewFromInt(-1)), ErrInvalidTender)
	require.ErrorIs(t, cash.Tender(decimal.RequireFromString("10.001")), ErrInvalidTender)
	require.NoError(t, cash.Tender(decimal.RequireFromString("10.50")))
}

func TestCash_ComputesChange(t *testing.T) {
	payment, err := newTestFactory().Create("cash", decimal.RequireFromString("12.40"))
	require.NoError(t, err)
	require.NoError(t, ApplyDetails(payment, Details{AmountTendered: ptr(decimal.NewFromInt(20))}))
	require.NoError(t, payment.Process())

	require.True(t, decimal.RequireFromString("7.60").Equal(payment.(*Cash).ChangeDue()))
	require.True(t, decimal.RequireFromString("7.60").Equal(payment.Snapshot().ChangeDue))
}

func TestProcess_RunsOnlyOnce(t *testing.T) {
	payment, err := newTestFactory().Create("cash", ten())
	require.NoError(t, err)
	require.NoError(t, payment.Process())

	require.ErrorIs(t, payment.Process(), ErrAlreadyProcessed)
	require.ErrorIs(t, payment.(*Cash).Tender(decimal.NewFromInt(1)), ErrAlreadyProcessed)
	require.Equal(t, StatusCompleted, payment.Status())
}

func TestCredit_Validation(t *testing.T) {
	valid := CardDetails{Number: "4111 1111 1111 1111", HolderName: "Ada Lovelace", ExpiryDate: "12/27", CVV: "123"}
	cases := []struct {
		name   string
		mutate func(*CardDetails)
		want   Status
	}{
		{name: "valid", mutate: func(*CardDetails) {}, want: StatusCompleted},
		{name: "current month still valid", mutate: func(c *CardDetails) { c.ExpiryDate = "03/2025" }, want: StatusCompleted},
		{name: "expired", mutate: func(c *CardDetails) { c.ExpiryDate = "02/25" }, want: StatusFailed},
		{name: "bad luhn", mutate: func(c *CardDetails) { c.Number = "4111111111111112" }, want: StatusFailed},
		{name: "too short", mutate: func(c *CardDetails) { c.Number = "4111" }, want: StatusFailed},
		{name: "letters", mutate: func(c *CardDetails) { c.Number = "4111abcd11111111" }, want: StatusFailed},
		{name: "short cvv", mutate: func(c *CardDetails) { c.CVV = "12" }, want: StatusFailed},
		{name: "alpha cvv", mutate: func(c *CardDetails) { c.CVV = "12a" }, want: StatusFailed},
		{name: "missing holder", mutate: func(c *CardDetails) { c.HolderName = " " }, want: StatusFailed},
		{name: "malformed expiry", mutate: func(c *CardDetails) { c.ExpiryDate = "2027-12" }, want: StatusFailed},
		{name: "month out of range", mutate: func(c *CardDetails) { c.ExpiryDate = "13/27" }, want: StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payment, err := newTestFactory().Create("credit", ten())
			require.NoError(t, err)
			card := valid
			tc.mutate(&card)
			require.NoError(t, ApplyDetails(payment, Details{Card: &card}))
			require.NoError(t, payment.Process())
			assert.Equal(t, tc.want, payment.Status(), payment.FailureReason())
		})
	}
}

func TestCredit_SnapshotMasksCard(t *testing.T) {
	payment, err := newTestFactory().Create("credit", ten())
	require.NoError(t, err)
	require.NoError(t, ApplyDetails(payment, Details{Card: &CardDetails{Number: "4111-1111-1111-1111", HolderName: "Ada", ExpiryDate: "01/30", CVV: "999"}}))

	snapshot := payment.Snapshot()
	require.Equal(t, "1111", snapshot.CardLast4)
	require.Equal(t, "Ada", snapshot.CardHolderName)
}

func TestCheck_RequiresNumberAndBank(t *testing.T) {
	factory := newTestFactory()

	ok, err := factory.Create("check", ten())
	require.NoError(t, err)
	require.NoError(t, ApplyDetails(ok, Details{Cheque: &ChequeDetails{Number: "000123", BankName: "First Bank"}}))
	require.NoError(t, ok.Process())
	require.Equal(t, StatusCompleted, ok.Status())

	missing, err := factory.Create("check", ten())
	require.NoError(t, err)
	require.NoError(t, missing.Process())
	require.Equal(t, StatusFailed, missing.Status())
	require.Equal(t, "cheque number is required", missing.FailureReason())
}

func TestApplyDetails_RejectsMismatch(t *testing.T) {
	payment, err := newTestFactory().Create("cash", ten())
	require.NoError(t, err)

	err = ApplyDetails(payment, Details{Card: &CardDetails{Number: "4111111111111111"}})
	require.ErrorIs(t, err, ErrDetailsMismatch)
}

func TestBindOrder(t *testing.T) {
	payment, err := newTestFactory().Create("check", ten())
	require.NoError(t, err)
	payment.BindOrder(12)

	require.Equal(t, int64(12), payment.OrderID())
	require.Equal(t, int64(12), payment.Snapshot().OrderID)
}

func ptr[T any](v T) *T { return &v }
