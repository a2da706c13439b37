package detector

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dunderai/auditcore/models"
	"github.com/dunderai/auditcore/services"
	"go.uber.org/zap"
)

// Detection thresholds. The approval limit and its window mirror the
// expense policy: multiple transactions just below the limit indicate
// splitting a purchase to dodge approval.
const (
	DefaultApprovalLimit = 500.0

	thresholdWindow     = 0.95
	thresholdMinCount   = 5
	roundNumberShare    = 0.15
	outlierZScore       = 3.0
	outlierMinRows      = 10
	highFrequencyFactor = 2.5
)

// suspiciousVendorKeywords flag vague or personal vendor descriptions.
var suspiciousVendorKeywords = []string{"cash", "personal", "misc", "other", "reimburse", "llc"}

// Column aliases; datasets carry either English or Portuguese headers.
var (
	amountAliases   = []string{"amount", "valor"}
	employeeAliases = []string{"employee", "employee_id", "funcionario"}
	dateAliases     = []string{"date", "data"}
	vendorAliases   = []string{"vendor", "fornecedor", "merchant"}
)

// Service runs the fixed battery of fraud heuristics over a record set.
// Heuristics are independent and order-independent; a missing column
// disables the heuristics that need it without failing the call.
type Service struct {
	logger        *zap.Logger
	approvalLimit float64
}

// Option configures the detector service.
type Option func(*Service)

// WithApprovalLimit overrides the expense approval limit.
func WithApprovalLimit(limit float64) Option {
	return func(s *Service) {
		if limit > 0 {
			s.approvalLimit = limit
		}
	}
}

// NewService creates a detector with the default approval limit.
func NewService(logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		logger:        logger,
		approvalLimit: DefaultApprovalLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// heuristic is one detection pass. A nil finding means nothing to report.
type heuristic struct {
	name string
	run  func(rs *models.RecordSet) *models.Finding
}

// Detect runs all heuristics and returns the non-empty findings in a
// stable order. It fails only when the record set itself is unusable;
// a panic inside a single heuristic is absorbed and treated as "no
// finding" for that heuristic.
func (s *Service) Detect(rs *models.RecordSet) ([]models.Finding, error) {
	if rs == nil || rs.Len() == 0 {
		return nil, services.ErrSourceEmpty
	}

	passes := []heuristic{
		{"duplicates", s.detectDuplicates},
		{"threshold_splitting", s.detectThresholdSplitting},
		{"round_numbers", s.detectRoundNumbers},
		{"outliers", s.detectOutliers},
		{"weekend_transactions", s.detectWeekendTransactions},
		{"high_frequency", s.detectHighFrequency},
		{"suspicious_vendors", s.detectSuspiciousVendors},
	}

	findings := make([]models.Finding, 0, len(passes))
	for _, pass := range passes {
		if finding := s.runHeuristic(pass, rs); finding != nil {
			findings = append(findings, *finding)
		}
	}

	s.logger.Info("fraud detection completed",
		zap.String("source", rs.Source),
		zap.Int("rows", rs.Len()),
		zap.Int("findings", len(findings)))
	return findings, nil
}

// runHeuristic isolates a single pass so one broken heuristic cannot
// fail the whole detection call.
func (s *Service) runHeuristic(pass heuristic, rs *models.RecordSet) (finding *models.Finding) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("heuristic failed, skipping",
				zap.String("heuristic", pass.name),
				zap.Any("panic", r))
			finding = nil
		}
	}()
	return pass.run(rs)
}

// detectDuplicates flags rows identical across the best available key
// column combination. Preference order: {employee, date, amount, vendor},
// then {date, amount, vendor}, then {amount, vendor}; the first
// combination whose columns all exist wins.
func (s *Service) detectDuplicates(rs *models.RecordSet) *models.Finding {
	employee := rs.ResolveColumn(employeeAliases...)
	date := rs.ResolveColumn(dateAliases...)
	amount := rs.ResolveColumn(amountAliases...)
	vendor := rs.ResolveColumn(vendorAliases...)

	combinations := [][]string{
		{employee, date, amount, vendor},
		{date, amount, vendor},
		{amount, vendor},
	}

	var key []string
	for _, combo := range combinations {
		if allPresent(combo) {
			key = combo
			break
		}
	}
	if key == nil {
		return nil
	}

	counts := make(map[string]int)
	keys := make([]string, rs.Len())
	for i, row := range rs.Rows {
		keys[i] = rowKey(row, key)
		counts[keys[i]]++
	}

	var flagged []models.Row
	total := 0
	for i, row := range rs.Rows {
		if counts[keys[i]] > 1 {
			total++
			if len(flagged) < models.MaxSampleRows {
				flagged = append(flagged, row)
			}
		}
	}
	if total == 0 {
		return nil
	}

	return &models.Finding{
		Pattern:     models.PatternDuplicates,
		Severity:    models.SeverityHigh,
		Count:       total,
		Description: fmt.Sprintf("%d transactions share the same %s", total, strings.Join(key, "+")),
		Sample:      flagged,
	}
}

// detectThresholdSplitting flags clusters of transactions in the
// [95% limit, limit) window. Fewer than thresholdMinCount+1 such rows
// are considered noise.
func (s *Service) detectThresholdSplitting(rs *models.RecordSet) *models.Finding {
	amount := rs.ResolveColumn(amountAliases...)
	if amount == "" {
		return nil
	}

	low := thresholdWindow * s.approvalLimit
	var flagged []models.Row
	count := 0
	for _, row := range rs.Rows {
		v, ok := row[amount].(float64)
		if !ok {
			continue
		}
		if v >= low && v < s.approvalLimit {
			count++
			if len(flagged) < models.MaxSampleRows {
				flagged = append(flagged, row)
			}
		}
	}
	if count <= thresholdMinCount {
		return nil
	}

	return &models.Finding{
		Pattern:  models.PatternThresholdSplitting,
		Severity: models.SeverityHigh,
		Count:    count,
		Description: fmt.Sprintf("%d transactions between %.2f and %.2f, just below the %.0f approval limit",
			count, low, s.approvalLimit, s.approvalLimit),
		Sample: flagged,
		Aggregates: map[string]float64{
			"approval_limit": s.approvalLimit,
			"window_low":     low,
		},
	}
}

// detectRoundNumbers flags an excessive share of amounts that are exact
// multiples of 100.
func (s *Service) detectRoundNumbers(rs *models.RecordSet) *models.Finding {
	amount := rs.ResolveColumn(amountAliases...)
	if amount == "" {
		return nil
	}

	var flagged []models.Row
	count := 0
	for _, row := range rs.Rows {
		v, ok := row[amount].(float64)
		if !ok {
			continue
		}
		if v != 0 && math.Mod(v, 100) == 0 {
			count++
			if len(flagged) < models.MaxSampleRows {
				flagged = append(flagged, row)
			}
		}
	}

	share := float64(count) / float64(rs.Len())
	if share <= roundNumberShare {
		return nil
	}

	return &models.Finding{
		Pattern:  models.PatternRoundNumbers,
		Severity: models.SeverityMedium,
		Count:    count,
		Description: fmt.Sprintf("%.1f%% of transactions are round multiples of 100 (threshold %.0f%%)",
			share*100, roundNumberShare*100),
		Sample: flagged,
		Aggregates: map[string]float64{
			"share": share,
		},
	}
}

// detectOutliers flags amounts whose absolute z-score over the
// population mean exceeds outlierZScore. Skipped for small datasets.
func (s *Service) detectOutliers(rs *models.RecordSet) *models.Finding {
	amount := rs.ResolveColumn(amountAliases...)
	if amount == "" || rs.Len() < outlierMinRows {
		return nil
	}

	values := rs.NumericColumn(amount)
	if len(values) == 0 {
		return nil
	}
	m := mean(values)
	sd := stddev(values)
	if sd == 0 {
		return nil
	}

	var flagged []models.Row
	count := 0
	for _, row := range rs.Rows {
		v, ok := row[amount].(float64)
		if !ok {
			continue
		}
		if math.Abs((v-m)/sd) > outlierZScore {
			count++
			if len(flagged) < models.MaxSampleRows {
				flagged = append(flagged, row)
			}
		}
	}
	if count == 0 {
		return nil
	}

	return &models.Finding{
		Pattern:  models.PatternOutliers,
		Severity: models.SeverityMedium,
		Count:    count,
		Description: fmt.Sprintf("%d transactions deviate more than %.0f standard deviations from the mean %.2f",
			count, outlierZScore, m),
		Sample: flagged,
		Aggregates: map[string]float64{
			"mean":   m,
			"stddev": sd,
		},
	}
}

// detectWeekendTransactions flags transactions dated on Saturday or
// Sunday. Unparseable dates are skipped, never an error.
func (s *Service) detectWeekendTransactions(rs *models.RecordSet) *models.Finding {
	date := rs.ResolveColumn(dateAliases...)
	if date == "" {
		return nil
	}

	var flagged []models.Row
	count := 0
	for _, row := range rs.Rows {
		d, ok := parseDate(row[date])
		if !ok {
			continue
		}
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			count++
			if len(flagged) < models.MaxSampleRows {
				flagged = append(flagged, row)
			}
		}
	}
	if count == 0 {
		return nil
	}

	return &models.Finding{
		Pattern:     models.PatternWeekendTransactions,
		Severity:    models.SeverityLow,
		Count:       count,
		Description: fmt.Sprintf("%d transactions dated on a weekend", count),
		Sample:      flagged,
	}
}

// detectHighFrequency flags employees whose transaction count exceeds
// highFrequencyFactor times the median per-employee count.
func (s *Service) detectHighFrequency(rs *models.RecordSet) *models.Finding {
	employee := rs.ResolveColumn(employeeAliases...)
	if employee == "" {
		return nil
	}

	perEmployee := make(map[string]int)
	for _, row := range rs.Rows {
		name, ok := row[employee].(string)
		if !ok || name == "" {
			continue
		}
		perEmployee[name]++
	}
	if len(perEmployee) == 0 {
		return nil
	}

	counts := make([]float64, 0, len(perEmployee))
	for _, c := range perEmployee {
		counts = append(counts, float64(c))
	}
	cutoff := highFrequencyFactor * median(counts)

	flaggedEmployees := make([]string, 0)
	aggregates := make(map[string]float64)
	for name, c := range perEmployee {
		if float64(c) > cutoff {
			flaggedEmployees = append(flaggedEmployees, name)
			aggregates[name] = float64(c)
		}
	}
	if len(flaggedEmployees) == 0 {
		return nil
	}
	sort.Strings(flaggedEmployees)

	flaggedSet := make(map[string]bool, len(flaggedEmployees))
	for _, name := range flaggedEmployees {
		flaggedSet[name] = true
	}

	var sample []models.Row
	total := 0
	for _, row := range rs.Rows {
		name, _ := row[employee].(string)
		if flaggedSet[name] {
			total++
			if len(sample) < models.MaxSampleRows {
				sample = append(sample, row)
			}
		}
	}

	return &models.Finding{
		Pattern:  models.PatternHighFrequency,
		Severity: models.SeverityMedium,
		Count:    total,
		Description: fmt.Sprintf("employees above %.1fx the median transaction count: %s",
			highFrequencyFactor, strings.Join(flaggedEmployees, ", ")),
		Sample:     sample,
		Aggregates: aggregates,
	}
}

// detectSuspiciousVendors flags vendor text containing vague or
// personal keywords.
func (s *Service) detectSuspiciousVendors(rs *models.RecordSet) *models.Finding {
	vendor := rs.ResolveColumn(vendorAliases...)
	if vendor == "" {
		return nil
	}

	var flagged []models.Row
	count := 0
	for _, row := range rs.Rows {
		name, ok := row[vendor].(string)
		if !ok {
			continue
		}
		lower := strings.ToLower(name)
		for _, kw := range suspiciousVendorKeywords {
			if strings.Contains(lower, kw) {
				count++
				if len(flagged) < models.MaxSampleRows {
					flagged = append(flagged, row)
				}
				break
			}
		}
	}
	if count == 0 {
		return nil
	}

	return &models.Finding{
		Pattern:     models.PatternSuspiciousVendors,
		Severity:    models.SeverityMedium,
		Count:       count,
		Description: fmt.Sprintf("%d transactions with vague or personal vendor descriptions", count),
		Sample:      flagged,
	}
}

// allPresent reports whether every column name in the combination resolved.
func allPresent(columns []string) bool {
	for _, c := range columns {
		if c == "" {
			return false
		}
	}
	return true
}

// rowKey builds the duplicate-detection key for a row.
func rowKey(row models.Row, columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%v", row[c])
	}
	return strings.Join(parts, "\x1f")
}
