package specialists

import (
	"errors"
	"sync"
)

var (
	// ErrSpecialistNotRegistered is returned when a capability has no
	// registered implementation.
	ErrSpecialistNotRegistered = errors.New("specialist not registered")
)

// Registry holds the registered specialist implementations. Specialists
// are external collaborators (LLM-backed agents); the registry is the
// seam where they are plugged into the core.
type Registry struct {
	mu           sync.RWMutex
	investigator Investigator
	compliance   ComplianceChecker
	dataProvider DataProvider
	emailSender  EmailSender
}

// NewRegistry creates an empty specialist registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterInvestigator installs the investigation capability.
func (r *Registry) RegisterInvestigator(i Investigator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.investigator = i
}

// RegisterComplianceChecker installs the compliance capability.
func (r *Registry) RegisterComplianceChecker(c ComplianceChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compliance = c
}

// RegisterDataProvider installs the data request capability.
func (r *Registry) RegisterDataProvider(d DataProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dataProvider = d
}

// RegisterEmailSender installs the email capability.
func (r *Registry) RegisterEmailSender(e EmailSender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emailSender = e
}

// Investigator returns the registered investigator.
func (r *Registry) Investigator() (Investigator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.investigator == nil {
		return nil, ErrSpecialistNotRegistered
	}
	return r.investigator, nil
}

// ComplianceChecker returns the registered compliance checker.
func (r *Registry) ComplianceChecker() (ComplianceChecker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.compliance == nil {
		return nil, ErrSpecialistNotRegistered
	}
	return r.compliance, nil
}

// DataProvider returns the registered data provider.
func (r *Registry) DataProvider() (DataProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.dataProvider == nil {
		return nil, ErrSpecialistNotRegistered
	}
	return r.dataProvider, nil
}

// EmailSender returns the registered email sender.
func (r *Registry) EmailSender() (EmailSender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.emailSender == nil {
		return nil, ErrSpecialistNotRegistered
	}
	return r.emailSender, nil
}
