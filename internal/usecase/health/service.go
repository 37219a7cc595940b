package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates no dataset is being served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckDataset = "dataset"
	CheckSource  = "source"
)

// Report aggregates health check results.
type Report struct {
	Status  Status
	Checks  map[string]CheckResult
	Records int
}

// Service coordinates health checks.
type Service struct {
	stores StoreProvider
	source SourcePinger
}

// New creates a Service. source can be nil.
func New(stores StoreProvider, source SourcePinger) *Service {
	return &Service{stores: stores, source: source}
}

// Check reports Unhealthy without a dataset, Degraded when the dataset is
// served but the source is unreachable, and Healthy otherwise.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var records int

	if st := s.stores.Current(); st == nil {
		checks[CheckDataset] = CheckError
	} else {
		checks[CheckDataset] = CheckOK
		records = st.Len()
	}

	if s.source != nil {
		if err := s.source.Ping(ctx); err != nil {
			checks[CheckSource] = CheckError
		} else {
			checks[CheckSource] = CheckOK
		}
	}

	status := Healthy
	switch {
	case checks[CheckDataset] == CheckError:
		status = Unhealthy
	case checks[CheckSource] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks, Records: records}
}
