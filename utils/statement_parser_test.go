package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/income-underwriting/config"
	"github.com/Aashish23092/income-underwriting/dto"
)

const sampleStatement = `
HDFC BANK LTD
Account Holder: RAJESH KUMAR SHARMA
Date        Description                         Amount        Balance
01/10/2025  OPENING BALANCE                                    10,000.00
05/10/2025  NEFT SALARY CREDIT ACME CORP        50,000.00     60,000.00
07/10/2025  ATM WITHDRAWAL                      2,000.00      58,000.00
12/10/2025  UPI/PAID TO GROCERY                 Rs. 450       57,550.00
2025-10-20  INTEREST CR                         ₹123.45       57,673.45
31/10/2025  CLOSING BALANCE                                   57,673.45
Page 1 of 1
`

func newTestParser() *StatementParser {
	return NewStatementParser(config.Default().Statement)
}

func TestStatementParser_ParseStatement(t *testing.T) {
	txs := newTestParser().ParseStatement(sampleStatement)
	require.Len(t, txs, 4)

	salary := txs[0]
	require.NotNil(t, salary.Date)
	assert.Equal(t, "2025-10-05", salary.Date.Format("2006-01-02"))
	assert.True(t, decimal.NewFromInt(50000).Equal(salary.Amount))
	assert.Equal(t, dto.DirectionCredit, salary.Direction)
	assert.Equal(t, "NEFT SALARY CREDIT ACME CORP", salary.Description)

	assert.Equal(t, dto.DirectionDebit, txs[1].Direction)
	assert.True(t, decimal.NewFromInt(2000).Equal(txs[1].Amount))

	assert.Equal(t, dto.DirectionDebit, txs[2].Direction)
	assert.True(t, decimal.NewFromInt(450).Equal(txs[2].Amount))

	assert.Equal(t, dto.DirectionCredit, txs[3].Direction)
	assert.Equal(t, "2025-10-20", txs[3].Date.Format("2006-01-02"))
	assert.True(t, decimal.RequireFromString("123.45").Equal(txs[3].Amount))
}

func TestStatementParser_Restartable(t *testing.T) {
	seq := newTestParser().Transactions(sampleStatement)

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	assert.Equal(t, 4, count())
	assert.Equal(t, 4, count())
}

func TestStatementParser_StopsEarly(t *testing.T) {
	n := 0
	for range newTestParser().Transactions(sampleStatement) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestStatementParser_ParseLine(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name      string
		line      string
		ok        bool
		amount    string
		direction dto.Direction
		dated     bool
	}{
		{"dotted date", "15.10.2025 SALARY CREDIT 50,000.00", true, "50000", dto.DirectionCredit, true},
		{"ocr split amount", "05/11/2025 NEFT SALA RY CR 5,71, 126.22", true, "571126.22", dto.DirectionCredit, true},
		{"inr prefix", "15/10/2025 CASH DEPOSIT INR 12000", true, "12000", dto.DirectionCredit, true},
		{"unlabelled defaults to debit", "15/10/2025 UPI PAYMENT -500.00", true, "500", dto.DirectionDebit, true},
		{"unparseable date kept undated", "32/13/2025 SALARY CREDIT 50,000.00", true, "50000", dto.DirectionCredit, false},
		{"no amount", "15/10/2025 SALARY CREDIT", false, "", "", false},
		{"no date", "SALARY CREDIT 50,000.00", false, "", "", false},
		{"bare reference number is not an amount", "15/10/2025 IMPS 987654321", false, "", "", false},
		{"trailing bare integer", "05/07/2025 SALARY CREDIT 50000", true, "50000", dto.DirectionCredit, true},
		{"bare integer inside description", "05/07/2025 CHQ 123456 DEPOSIT", false, "", "", false},
		{"grouped amount wins over trailing integer", "05/07/2025 SALARY CREDIT 50,000.00 7", true, "50000", dto.DirectionCredit, true},
		{"brought forward", "01/10/2025 B/F 10,000.00", false, "", "", false},
		{"blank", "   ", false, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, ok := p.ParseLine(NormalizeStatementText(tt.line))
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.True(t, decimal.RequireFromString(tt.amount).Equal(tx.Amount), tx.Amount.String())
			assert.Equal(t, tt.direction, tx.Direction)
			assert.Equal(t, tt.dated, tx.Date != nil)
			assert.False(t, tx.Amount.IsNegative())
		})
	}
}

func TestStatementParser_Description(t *testing.T) {
	tx, ok := newTestParser().ParseLine("20/10/2025 UPI PAYMENT -500.00 9,500.00")
	require.True(t, ok)
	assert.Equal(t, "UPI PAYMENT", tx.Description)
	assert.Equal(t, "20/10/2025 UPI PAYMENT -500.00 9,500.00", tx.RawLine)
}

func TestStatementParser_ValueDateColumn(t *testing.T) {
	p := newTestParser()

	for _, line := range []string{
		"05.07.2025 05.07.2025 NEFT SALARY CREDIT ACME 50,000.00 62,000.00",
		"05/07/2025 05/07/2025 NEFT SALARY CREDIT ACME 50,000.00 62,000.00",
		"05/07/2025 NEFT SALARY CREDIT ACME 05/07/2025 50,000.00 62,000.00",
	} {
		t.Run(line, func(t *testing.T) {
			tx, ok := p.ParseLine(line)
			require.True(t, ok)
			assert.True(t, decimal.NewFromInt(50000).Equal(tx.Amount), tx.Amount.String())
			assert.Equal(t, "NEFT SALARY CREDIT ACME", tx.Description)
			assert.Equal(t, dto.DirectionCredit, tx.Direction)
			require.NotNil(t, tx.Date)
			assert.Equal(t, "2025-07-05", tx.Date.Format("2006-01-02"))
		})
	}
}

func TestStatementParser_BareIntegerRoundTrip(t *testing.T) {
	txs := newTestParser().ParseStatement("05/07/2025 SALARY CREDIT 50000\n")
	require.Len(t, txs, 1)
	assert.True(t, decimal.NewFromInt(50000).Equal(txs[0].Amount))
	assert.Equal(t, "SALARY CREDIT", txs[0].Description)
	assert.Equal(t, dto.DirectionCredit, txs[0].Direction)
}

func TestNormalizeStatementText(t *testing.T) {
	assert.Equal(t, "SALARY 5,71,126.22", NormalizeStatementText("SALA RY 5,71, 126.22"))
	assert.Equal(t, "WITHDRAWAL 1500.50", NormalizeStatementText("WITHDR AWAL 1500 .50"))
}
