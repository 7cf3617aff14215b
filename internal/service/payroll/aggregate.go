package payroll

import (
	"sort"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/shopspring/decimal"
)

// Summarize totals any mix of records. It never mutates its input.
func Summarize(records []payroll.PayrollRecord) payroll.BatchTotals {
	t := payroll.BatchTotals{
		BaseSalary:            decimal.Zero,
		Allowances:            decimal.Zero,
		Earnings:              decimal.Zero,
		GrossSalary:           decimal.Zero,
		NISEmployee:           decimal.Zero,
		NISEmployer:           decimal.Zero,
		NHTEmployee:           decimal.Zero,
		NHTEmployer:           decimal.Zero,
		EdTaxEmployee:         decimal.Zero,
		EdTaxEmployer:         decimal.Zero,
		HEART:                 decimal.Zero,
		PAYE:                  decimal.Zero,
		EmployeeStatutory:     decimal.Zero,
		OtherDeductions:       decimal.Zero,
		TotalDeductions:       decimal.Zero,
		NetSalary:             decimal.Zero,
		EmployerContributions: decimal.Zero,
	}

	for _, r := range records {
		t.Employees++
		switch r.Status {
		case payroll.StatusPending:
			t.PendingCount++
		case payroll.StatusCalculated:
			t.CalculatedCount++
		case payroll.StatusFinalized:
			t.FinalizedCount++
		}

		t.BaseSalary = t.BaseSalary.Add(r.BaseSalary)
		t.Allowances = t.Allowances.Add(r.TotalAllowances)
		t.Earnings = t.Earnings.Add(r.TotalEarnings)
		t.GrossSalary = t.GrossSalary.Add(r.GrossSalary)
		t.NISEmployee = t.NISEmployee.Add(r.NISEmployee)
		t.NISEmployer = t.NISEmployer.Add(r.NISEmployer)
		t.NHTEmployee = t.NHTEmployee.Add(r.NHTEmployee)
		t.NHTEmployer = t.NHTEmployer.Add(r.NHTEmployer)
		t.EdTaxEmployee = t.EdTaxEmployee.Add(r.EdTaxEmployee)
		t.EdTaxEmployer = t.EdTaxEmployer.Add(r.EdTaxEmployer)
		t.HEART = t.HEART.Add(r.HEART)
		t.PAYE = t.PAYE.Add(r.PAYE)
		t.OtherDeductions = t.OtherDeductions.Add(r.OtherDeductions)
		t.NetSalary = t.NetSalary.Add(r.NetSalary)
	}

	t.EmployeeStatutory = t.NISEmployee.Add(t.NHTEmployee).Add(t.EdTaxEmployee).Add(t.PAYE)
	t.TotalDeductions = t.EmployeeStatutory.Add(t.OtherDeductions)
	t.EmployerContributions = t.NISEmployer.Add(t.NHTEmployer).Add(t.EdTaxEmployer).Add(t.HEART)
	return t
}

// Discrepancies lists calculated or finalized records that do not conserve gross.
func Discrepancies(records []payroll.PayrollRecord) []payroll.Discrepancy {
	out := []payroll.Discrepancy{}
	for _, r := range records {
		if r.Status == payroll.StatusPending || r.Balances() {
			continue
		}
		out = append(out, payroll.Discrepancy{
			RecordID:   r.ID,
			EmployeeID: r.EmployeeID,
			Expected:   r.GrossSalary.Sub(r.EmployeeStatutory()).Sub(r.OtherDeductions),
			Actual:     r.NetSalary,
		})
	}
	return out
}

// Extract builds the per-employee lines of the monthly statutory return,
// ordered by employee code.
func Extract(p period.Period, records []payroll.PayrollRecord) payroll.StatutoryExtract {
	lines := make([]payroll.StatutoryExtractLine, 0, len(records))
	for _, r := range records {
		if r.Period != p {
			continue
		}
		line := payroll.StatutoryExtractLine{
			EmployeeID:    r.EmployeeID,
			GrossSalary:   r.GrossSalary,
			NISEmployee:   r.NISEmployee,
			NISEmployer:   r.NISEmployer,
			NHTEmployee:   r.NHTEmployee,
			NHTEmployer:   r.NHTEmployer,
			EdTaxEmployee: r.EdTaxEmployee,
			EdTaxEmployer: r.EdTaxEmployer,
			HEART:         r.HEART,
			PAYE:          r.PAYE,
			Status:        r.Status,
		}
		if r.EmployeeCode != nil {
			line.EmployeeCode = *r.EmployeeCode
		}
		if r.EmployeeName != nil {
			line.EmployeeName = *r.EmployeeName
		}
		lines = append(lines, line)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].EmployeeCode != lines[j].EmployeeCode {
			return lines[i].EmployeeCode < lines[j].EmployeeCode
		}
		return lines[i].EmployeeID < lines[j].EmployeeID
	})

	return payroll.StatutoryExtract{
		Period: p.Key(),
		Lines:  lines,
		Totals: Summarize(filterPeriod(records, p)),
	}
}

// YearToDate accumulates an employee's calendar-year figures up to and
// including through. Pending records carry no figures and are ignored.
func YearToDate(records []payroll.PayrollRecord, employeeID string, through period.Period) payroll.YearToDate {
	ytd := payroll.YearToDate{
		EmployeeID:    employeeID,
		Year:          through.Year,
		Through:       through.Key(),
		GrossSalary:   decimal.Zero,
		TaxableIncome: decimal.Zero,
		NISEmployee:   decimal.Zero,
		NHTEmployee:   decimal.Zero,
		EdTaxEmployee: decimal.Zero,
		PAYE:          decimal.Zero,
		NetSalary:     decimal.Zero,
	}

	for _, r := range records {
		if r.EmployeeID != employeeID || r.Period.Year != through.Year || r.Period.After(through) {
			continue
		}
		if r.Status == payroll.StatusPending {
			continue
		}
		ytd.Periods++
		ytd.GrossSalary = ytd.GrossSalary.Add(r.GrossSalary)
		ytd.TaxableIncome = ytd.TaxableIncome.Add(r.TaxableIncome)
		ytd.NISEmployee = ytd.NISEmployee.Add(r.NISEmployee)
		ytd.NHTEmployee = ytd.NHTEmployee.Add(r.NHTEmployee)
		ytd.EdTaxEmployee = ytd.EdTaxEmployee.Add(r.EdTaxEmployee)
		ytd.PAYE = ytd.PAYE.Add(r.PAYE)
		ytd.NetSalary = ytd.NetSalary.Add(r.NetSalary)
	}
	return ytd
}

func filterPeriod(records []payroll.PayrollRecord, p period.Period) []payroll.PayrollRecord {
	out := make([]payroll.PayrollRecord, 0, len(records))
	for _, r := range records {
		if r.Period == p {
			out = append(out, r)
		}
	}
	return out
}
