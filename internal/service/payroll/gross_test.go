package payroll

import (
	"testing"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

var june = period.MustParse("2025-06")

func salaried(id string, base string) employee.Employee {
	return employee.Employee{
		ID:               id,
		CompanyID:        "company-1",
		EmployeeCode:     "E-" + id,
		FullName:         "Employee " + id,
		SalaryType:       employee.SalaryTypeSalaried,
		BaseSalary:       dp(base),
		Currency:         employee.DefaultCurrency,
		EmploymentStatus: employee.EmploymentStatusActive,
	}
}

func hourly(id string, rate string) employee.Employee {
	emp := salaried(id, "0")
	emp.SalaryType = employee.SalaryTypeHourly
	emp.BaseSalary = nil
	emp.HourlyRate = dp(rate)
	return emp
}

func txn(id, employeeID string, typ transaction.TransactionType, code string, amount string, status transaction.TransactionStatus) transaction.Transaction {
	return transaction.Transaction{
		ID:         id,
		CompanyID:  "company-1",
		EmployeeID: employeeID,
		Period:     june,
		Type:       typ,
		Code:       code,
		Amount:     d(amount),
		Status:     status,
		IsTaxable:  true,
	}
}

func TestGrossAssembler_Salaried(t *testing.T) {
	a := NewGrossAssembler(false)
	emp := salaried("1", "100000")

	loan := txn("t3", "1", transaction.TypeDeduction, "LOAN", "5000", transaction.StatusPosted)
	pension := txn("t4", "1", transaction.TypeDeduction, "PENSION", "4000", transaction.StatusPosted)
	pension.IsTaxable = false
	meal := txn("t5", "1", transaction.TypeAllowance, "MEAL", "1000", transaction.StatusPosted)
	meal.IsTaxable = false

	got, err := a.Assemble(emp, june, decimal.Zero, []transaction.Transaction{
		txn("t1", "1", transaction.TypeAllowance, "TRAVEL", "8000", transaction.StatusPosted),
		txn("t2", "1", transaction.TypeEarning, "OVERTIME", "12000", transaction.StatusPosted),
		txn("t2b", "1", transaction.TypeEarning, "OVERTIME", "3000", transaction.StatusPosted),
		loan,
		pension,
		meal,
	})
	require.NoError(t, err)

	assert.Equal(t, "100000", got.Base.String())
	assert.Equal(t, "9000", got.Allowances.String())
	assert.Equal(t, "15000", got.Earnings.String())
	assert.Equal(t, "124000", got.Total.String())
	assert.Equal(t, "9000", got.OtherDeductions.String())
	assert.Equal(t, "5000", got.Exemption.String())
	assert.Equal(t, "15000", got.EarningsDetail["OVERTIME"].String())
	assert.Equal(t, "5000", got.DeductionsDetail["LOAN"].String())
	assert.Nil(t, got.HoursWorked)
}

func TestGrossAssembler_Hourly(t *testing.T) {
	a := NewGrossAssembler(false)

	got, err := a.Assemble(hourly("2", "1250.555"), june, d("160.5"), nil)
	require.NoError(t, err)

	// 160.5 x 1250.555 = 200714.0775 -> 200714.08
	assert.Equal(t, "200714.08", got.Base.StringFixed(2))
	assert.True(t, got.Total.Equal(got.Base))
	require.NotNil(t, got.HoursWorked)
	assert.Equal(t, "160.5", got.HoursWorked.String())

	_, err = a.Assemble(hourly("2", "1000"), june, d("-1"), nil)
	assert.ErrorIs(t, err, payroll.ErrNegativeHours)
}

func TestGrossAssembler_StatusFiltering(t *testing.T) {
	txns := []transaction.Transaction{
		txn("posted", "1", transaction.TypeEarning, "BONUS", "1000", transaction.StatusPosted),
		txn("entered", "1", transaction.TypeEarning, "BONUS", "200", transaction.StatusEntered),
		txn("void", "1", transaction.TypeEarning, "BONUS", "30", transaction.StatusVoid),
		txn("other-employee", "9", transaction.TypeEarning, "BONUS", "4", transaction.StatusPosted),
	}
	other := txn("other-period", "1", transaction.TypeEarning, "BONUS", "5", transaction.StatusPosted)
	other.Period = june.Next()
	txns = append(txns, other)

	postedOnly, err := NewGrossAssembler(false).Assemble(salaried("1", "0"), june, decimal.Zero, txns)
	require.NoError(t, err)
	assert.Equal(t, "1000", postedOnly.Earnings.String())

	withEntered, err := NewGrossAssembler(true).Assemble(salaried("1", "0"), june, decimal.Zero, txns)
	require.NoError(t, err)
	assert.Equal(t, "1200", withEntered.Earnings.String())
}

func TestGrossAssembler_ZeroEverythingIsValid(t *testing.T) {
	emp := salaried("1", "0")
	emp.BaseSalary = nil

	got, err := NewGrossAssembler(false).Assemble(emp, june, decimal.Zero, nil)
	require.NoError(t, err)
	assert.True(t, got.Total.IsZero())
	assert.True(t, got.OtherDeductions.IsZero())
}

func TestGrossAssembler_RejectsInvalidTransactions(t *testing.T) {
	a := NewGrossAssembler(false)
	emp := salaried("1", "100000")

	negative := txn("neg", "1", transaction.TypeAllowance, "TRAVEL", "-50", transaction.StatusPosted)
	mismatch := txn("mm", "1", transaction.TypeEarning, "OVERTIME", "100", transaction.StatusPosted)
	mismatch.Units = dp("2")
	mismatch.Rate = dp("60")
	unknown := txn("unk", "1", transaction.TransactionType("GIFT"), "X", "1", transaction.StatusPosted)

	for _, bad := range []transaction.Transaction{negative, mismatch, unknown} {
		_, err := a.Assemble(emp, june, decimal.Zero, []transaction.Transaction{bad})

		var invalid *transaction.InvalidTransactionError
		require.ErrorAs(t, err, &invalid, bad.ID)
		assert.Equal(t, bad.ID, invalid.TransactionID)
	}

	// A VOID transaction is never validated.
	voided := negative
	voided.Status = transaction.StatusVoid
	_, err := a.Assemble(emp, june, decimal.Zero, []transaction.Transaction{voided})
	assert.NoError(t, err)
}

func TestGrossAssembler_UnitsAndRateMustMatchAmount(t *testing.T) {
	ot := txn("ot", "1", transaction.TypeEarning, "OVERTIME", "9375", transaction.StatusPosted)
	ot.Units = dp("10")
	ot.Rate = dp("937.5")

	got, err := NewGrossAssembler(false).Assemble(salaried("1", "100000"), june, decimal.Zero, []transaction.Transaction{ot})
	require.NoError(t, err)
	assert.Equal(t, "9375", got.Earnings.String())
	assert.Equal(t, "109375", got.Total.String())

	// a zero amount is not filled in from units and rate
	ot.Amount = decimal.Zero
	_, err = NewGrossAssembler(false).Assemble(salaried("1", "100000"), june, decimal.Zero, []transaction.Transaction{ot})
	assert.ErrorIs(t, err, transaction.ErrInvalidTransaction)
}
