package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/statutory"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/transaction"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/lock"
	statutorysvc "github.com/cmlabs-hris/jamaica-payroll/internal/service/statutory"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	EventBatchSynced     = "batch.synced"
	EventBatchCalculated = "batch.calculated"
	EventBatchFinalized  = "batch.finalized"
)

// Ledger is the slice of the transaction store the engine reads.
type Ledger interface {
	ListByEmployeePeriod(ctx context.Context, companyID string, employeeID string, p period.Period) ([]transaction.Transaction, error)
}

// EventPublisher receives batch lifecycle events.
type EventPublisher interface {
	Publish(companyID string, event string, data interface{})
}

type Options struct {
	AcceptEntered    bool
	AllowNegativeNet bool
	Workers          int
}

type PayrollServiceImpl struct {
	payrollRepo  payroll.PayrollRepository
	employeeRepo employee.EmployeeRepository
	ledger       Ledger
	hours        attendance.HoursResolver
	rates        statutory.RateTable
	calculator   *statutorysvc.Calculator
	assembler    *GrossAssembler
	builder      *Builder
	locks        *lock.Keyed
	events       EventPublisher
	workers      int
	now          func() time.Time
}

func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	ledger Ledger,
	hours attendance.HoursResolver,
	rates statutory.RateTable,
	events EventPublisher,
	opts Options,
) payroll.PayrollService {
	return newPayrollService(payrollRepo, employeeRepo, ledger, hours, rates, events, opts)
}

func newPayrollService(
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	ledger Ledger,
	hours attendance.HoursResolver,
	rates statutory.RateTable,
	events EventPublisher,
	opts Options,
) *PayrollServiceImpl {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	return &PayrollServiceImpl{
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		ledger:       ledger,
		hours:        hours,
		rates:        rates,
		calculator:   statutorysvc.NewCalculator(),
		assembler:    NewGrossAssembler(opts.AcceptEntered),
		builder:      NewBuilder(opts.AllowNegativeNet),
		locks:        lock.NewKeyed(),
		events:       events,
		workers:      workers,
		now:          time.Now,
	}
}

func batchKey(companyID string, p period.Period) string {
	return companyID + ":" + p.Key()
}

func (s *PayrollServiceImpl) publish(companyID string, event string, data interface{}) {
	if s.events != nil {
		s.events.Publish(companyID, event, data)
	}
}

// ========== LIFECYCLE ==========

func (s *PayrollServiceImpl) Sync(ctx context.Context, companyID string, p period.Period) (payroll.SyncResult, error) {
	unlock := s.locks.Lock(batchKey(companyID, p))
	defer unlock()

	employees, err := s.employeeRepo.GetActiveByCompanyID(ctx, companyID)
	if err != nil {
		return payroll.SyncResult{}, fmt.Errorf("failed to list active employees: %w", err)
	}

	result := payroll.SyncResult{Period: p.Key(), Failed: []payroll.EmployeeError{}}
	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		created, err := s.payrollRepo.CreatePendingIfAbsent(ctx, companyID, emp.ID, p)
		if err != nil {
			result.Failed = append(result.Failed, payroll.NewEmployeeError(emp.ID, emp.EmployeeCode, payroll.StagePersist, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Existing++
		}
	}

	slog.Info("Payroll batch synced",
		"company_id", companyID,
		"period", p.Key(),
		"created", result.Created,
		"existing", result.Existing,
		"failed", len(result.Failed),
	)
	s.publish(companyID, EventBatchSynced, result)
	return result, nil
}

func (s *PayrollServiceImpl) Calculate(ctx context.Context, companyID string, p period.Period) (payroll.CalculateResult, error) {
	unlock := s.locks.Lock(batchKey(companyID, p))
	defer unlock()

	records, err := s.payrollRepo.ListByBatch(ctx, companyID, p)
	if err != nil {
		return payroll.CalculateResult{}, fmt.Errorf("failed to list payroll batch: %w", err)
	}

	// One rate set serves the whole batch. A lookup failure is reported
	// against every employee rather than aborting the call.
	rates, rateErr := s.rates.RatesFor(p)

	result := payroll.CalculateResult{
		Period:  p.Key(),
		Skipped: []string{},
		Failed:  []payroll.EmployeeError{},
	}
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, rec := range records {
		if rec.Status == payroll.StatusFinalized {
			result.Skipped = append(result.Skipped, rec.ID)
			continue
		}
		if gCtx.Err() != nil {
			break
		}

		g.Go(func() error {
			_, err := s.calculateOne(gCtx, rec, rates, rateErr)

			mu.Lock()
			defer mu.Unlock()
			s.tally(&result, rec, err)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(result.Skipped)
	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].EmployeeID < result.Failed[j].EmployeeID
	})

	slog.Info("Payroll batch calculated",
		"company_id", companyID,
		"period", p.Key(),
		"calculated", result.Calculated,
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
	)
	s.publish(companyID, EventBatchCalculated, result)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (s *PayrollServiceImpl) CalculateEmployee(ctx context.Context, companyID string, employeeID string, p period.Period) (payroll.CalculateResult, error) {
	unlock := s.locks.Lock(batchKey(companyID, p))
	defer unlock()

	rec, err := s.payrollRepo.GetByEmployeePeriod(ctx, companyID, employeeID, p)
	if err != nil {
		if errors.Is(err, payroll.ErrPayrollRecordNotFound) {
			return payroll.CalculateResult{}, payroll.ErrEmployeeNotInBatch
		}
		return payroll.CalculateResult{}, err
	}

	result := payroll.CalculateResult{
		Period:  p.Key(),
		Skipped: []string{},
		Failed:  []payroll.EmployeeError{},
	}
	if rec.Status == payroll.StatusFinalized {
		result.Skipped = append(result.Skipped, rec.ID)
		return result, nil
	}

	rates, rateErr := s.rates.RatesFor(p)
	_, err = s.calculateOne(ctx, rec, rates, rateErr)
	s.tally(&result, rec, err)

	slog.Info("Payroll record calculated",
		"company_id", companyID,
		"employee_id", employeeID,
		"period", p.Key(),
		"failed", len(result.Failed),
	)
	return result, nil
}

func (s *PayrollServiceImpl) tally(result *payroll.CalculateResult, rec payroll.PayrollRecord, err error) {
	switch {
	case err == nil:
		result.Calculated++
	case errors.Is(err, payroll.ErrPayrollRecordFinalized):
		result.Skipped = append(result.Skipped, rec.ID)
	default:
		var empErr payroll.EmployeeError
		if !errors.As(err, &empErr) {
			empErr = payroll.NewEmployeeError(rec.EmployeeID, "", payroll.StagePersist, err)
		}
		slog.Warn("Payroll calculation failed for employee",
			"company_id", rec.CompanyID,
			"employee_id", rec.EmployeeID,
			"period", rec.Period.Key(),
			"stage", empErr.Stage,
			"error", empErr.Message,
		)
		result.Failed = append(result.Failed, empErr)
	}
}

// calculateOne runs assembler -> calculator -> builder -> save for one
// record. Every failure comes back as a payroll.EmployeeError and leaves the
// stored record untouched.
func (s *PayrollServiceImpl) calculateOne(ctx context.Context, rec payroll.PayrollRecord, rates statutory.RateSet, rateErr error) (payroll.PayrollRecord, error) {
	code := ""
	if rec.EmployeeCode != nil {
		code = *rec.EmployeeCode
	}
	fail := func(stage payroll.Stage, err error) (payroll.PayrollRecord, error) {
		return payroll.PayrollRecord{}, payroll.NewEmployeeError(rec.EmployeeID, code, stage, err)
	}

	emp, err := s.employeeRepo.GetByID(ctx, rec.CompanyID, rec.EmployeeID)
	if err != nil {
		return fail(payroll.StageLookup, fmt.Errorf("failed to get employee: %w", err))
	}
	code = emp.EmployeeCode

	txns, err := s.ledger.ListByEmployeePeriod(ctx, rec.CompanyID, emp.ID, rec.Period)
	if err != nil {
		return fail(payroll.StageLookup, fmt.Errorf("failed to list transactions: %w", err))
	}

	hours := decimal.Zero
	if emp.IsHourly() {
		hours, err = s.hours.HoursWorked(ctx, rec.CompanyID, emp.ID, rec.Period)
		if err != nil {
			return fail(payroll.StageLookup, fmt.Errorf("failed to resolve hours worked: %w", err))
		}
	}

	gross, err := s.assembler.Assemble(emp, rec.Period, hours, txns)
	if err != nil {
		return fail(payroll.StageGross, err)
	}

	if rateErr != nil {
		return fail(payroll.StageStatutory, rateErr)
	}
	stat, err := s.calculator.Calculate(gross.Total, rates, gross.Exemption)
	if err != nil {
		return fail(payroll.StageStatutory, err)
	}

	built, err := s.builder.Build(rec, emp, rec.Period, gross, stat, gross.OtherDeductions)
	if err != nil {
		return fail(payroll.StageBuild, err)
	}

	// unchanged figures keep the stored record and its calculated_at
	if rec.Status == payroll.StatusCalculated && rec.SameFigures(built) {
		return rec, nil
	}

	saved, err := s.payrollRepo.SaveCalculated(ctx, built)
	if err != nil {
		return fail(payroll.StagePersist, err)
	}
	return saved, nil
}

func (s *PayrollServiceImpl) Audit(ctx context.Context, companyID string, p period.Period) (payroll.AuditResult, error) {
	records, err := s.payrollRepo.ListByBatch(ctx, companyID, p)
	if err != nil {
		return payroll.AuditResult{}, fmt.Errorf("failed to list payroll batch: %w", err)
	}

	pending := []string{}
	versions := map[string]struct{}{}
	for _, r := range records {
		if r.Status == payroll.StatusPending {
			pending = append(pending, r.EmployeeID)
		}
		if r.RateSetVersion != nil {
			versions[*r.RateSetVersion] = struct{}{}
		}
	}
	sort.Strings(pending)

	versionList := make([]string, 0, len(versions))
	for v := range versions {
		versionList = append(versionList, v)
	}
	sort.Strings(versionList)

	return payroll.AuditResult{
		Period:           p.Key(),
		Status:           payroll.DeriveBatchStatus(records),
		Totals:           Summarize(records),
		PendingEmployees: pending,
		Discrepancies:    Discrepancies(records),
		RateSetVersions:  versionList,
	}, nil
}

// Finalize is all-or-nothing. A second finalize on the same batch while one
// is running fails fast instead of queueing.
func (s *PayrollServiceImpl) Finalize(ctx context.Context, companyID string, p period.Period, finalizedBy string) (payroll.FinalizeResult, error) {
	unlock, ok := s.locks.TryLock(batchKey(companyID, p))
	if !ok {
		return payroll.FinalizeResult{}, &payroll.ConcurrentFinalizeError{CompanyID: companyID, Period: p}
	}
	defer unlock()

	result, err := s.payrollRepo.FinalizeBatch(ctx, companyID, p, finalizedBy, s.now().UTC())
	if err != nil {
		slog.Warn("Payroll batch finalize refused", "company_id", companyID, "period", p.Key(), "error", err)
		return payroll.FinalizeResult{}, err
	}

	slog.Info("Payroll batch finalized",
		"company_id", companyID,
		"period", p.Key(),
		"finalized", result.Finalized,
		"already_finalized", result.AlreadyFinalized,
		"finalized_by", finalizedBy,
	)
	if result.Finalized > 0 {
		s.publish(companyID, EventBatchFinalized, result)
	}
	return result, nil
}

// ========== READERS ==========

func (s *PayrollServiceImpl) GetBatch(ctx context.Context, companyID string, p period.Period) (payroll.BatchResponse, error) {
	records, err := s.payrollRepo.ListByBatch(ctx, companyID, p)
	if err != nil {
		return payroll.BatchResponse{}, fmt.Errorf("failed to list payroll batch: %w", err)
	}

	return payroll.BatchResponse{
		Period: p.Key(),
		Status: payroll.DeriveBatchStatus(records),
		Totals: Summarize(records),
	}, nil
}

func (s *PayrollServiceImpl) StatutoryExtract(ctx context.Context, companyID string, p period.Period) (payroll.StatutoryExtract, error) {
	records, err := s.payrollRepo.ListByBatch(ctx, companyID, p)
	if err != nil {
		return payroll.StatutoryExtract{}, fmt.Errorf("failed to list payroll batch: %w", err)
	}
	return Extract(p, records), nil
}

func (s *PayrollServiceImpl) YearToDate(ctx context.Context, companyID string, employeeID string, through period.Period) (payroll.YearToDate, error) {
	if _, err := s.employeeRepo.GetByID(ctx, companyID, employeeID); err != nil {
		return payroll.YearToDate{}, err
	}

	records, err := s.payrollRepo.ListByEmployeeYear(ctx, companyID, employeeID, through.Year)
	if err != nil {
		return payroll.YearToDate{}, fmt.Errorf("failed to list employee payroll: %w", err)
	}
	return YearToDate(records, employeeID, through), nil
}

func (s *PayrollServiceImpl) GetRecord(ctx context.Context, companyID string, id string) (payroll.PayrollRecordResponse, error) {
	record, err := s.payrollRepo.GetByID(ctx, companyID, id)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return mapToRecordResponse(record), nil
}

func (s *PayrollServiceImpl) ListRecords(ctx context.Context, companyID string, filter payroll.PayrollFilter) (payroll.ListPayrollRecordResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListPayrollRecordResponse{}, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	records, totalCount, err := s.payrollRepo.List(ctx, companyID, filter)
	if err != nil {
		return payroll.ListPayrollRecordResponse{}, err
	}

	return payroll.ListPayrollRecordResponse{
		Data:       mapToRecordResponses(records),
		TotalCount: totalCount,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// DeleteRecord removes a Pending record. Calculated and Finalized records
// are kept.
func (s *PayrollServiceImpl) DeleteRecord(ctx context.Context, companyID string, id string) error {
	record, err := s.payrollRepo.GetByID(ctx, companyID, id)
	if err != nil {
		return err
	}
	if record.Status != payroll.StatusPending {
		return payroll.ErrRecordNotPending
	}

	unlock := s.locks.Lock(batchKey(companyID, record.Period))
	defer unlock()

	if err := s.payrollRepo.DeletePending(ctx, companyID, id); err != nil {
		return err
	}
	slog.Info("Pending payroll record deleted", "company_id", companyID, "record_id", id, "period", record.Period.Key())
	return nil
}

// ========== HELPERS ==========

func mapToRecordResponse(r payroll.PayrollRecord) payroll.PayrollRecordResponse {
	var calculatedAt, finalizedAt *string
	if r.CalculatedAt != nil {
		str := r.CalculatedAt.Format(time.RFC3339)
		calculatedAt = &str
	}
	if r.FinalizedAt != nil {
		str := r.FinalizedAt.Format(time.RFC3339)
		finalizedAt = &str
	}

	return payroll.PayrollRecordResponse{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID,
		EmployeeCode:     r.EmployeeCode,
		EmployeeName:     r.EmployeeName,
		Department:       r.Department,
		Period:           r.Period.Key(),
		BaseSalary:       r.BaseSalary,
		HoursWorked:      r.HoursWorked,
		TotalAllowances:  r.TotalAllowances,
		TotalEarnings:    r.TotalEarnings,
		GrossSalary:      r.GrossSalary,
		NISEmployee:      r.NISEmployee,
		NISEmployer:      r.NISEmployer,
		NHTEmployee:      r.NHTEmployee,
		NHTEmployer:      r.NHTEmployer,
		EdTaxEmployee:    r.EdTaxEmployee,
		EdTaxEmployer:    r.EdTaxEmployer,
		HEART:            r.HEART,
		PAYE:             r.PAYE,
		TaxableIncome:    r.TaxableIncome,
		PAYEExemption:    r.PAYEExemption,
		OtherDeductions:  r.OtherDeductions,
		NetSalary:        r.NetSalary,
		AllowancesDetail: r.AllowancesDetail,
		EarningsDetail:   r.EarningsDetail,
		DeductionsDetail: r.DeductionsDetail,
		RateSetVersion:   r.RateSetVersion,
		Status:           string(r.Status),
		CalculatedAt:     calculatedAt,
		FinalizedAt:      finalizedAt,
		FinalizedBy:      r.FinalizedBy,
	}
}

func mapToRecordResponses(records []payroll.PayrollRecord) []payroll.PayrollRecordResponse {
	result := make([]payroll.PayrollRecordResponse, 0, len(records))
	for _, r := range records {
		result = append(result, mapToRecordResponse(r))
	}
	return result
}
