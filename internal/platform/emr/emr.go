// Package emr fetches patient profiles from the upstream electronic medical
// record system. The HTTP provider wraps calls in a timeout and a circuit
// breaker so a degraded EMR cannot stall order verification; callers degrade
// to an empty profile when the fetch fails.
package emr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// ErrPatientNotFound indicates the EMR has no record for the patient.
var ErrPatientNotFound = errors.New("patient not found")

// PatientData is the read-only slice of the patient record used by
// verification.
type PatientData struct {
	PatientID          string            `json:"patient_id"`
	Allergies          []string          `json:"allergies"`
	CurrentMedications []string          `json:"current_medications"`
	Demographics       map[string]string `json:"demographics,omitempty"`
}

// PatientDataProvider fetches one patient's profile.
type PatientDataProvider interface {
	GetPatientData(ctx context.Context, patientID string) (*PatientData, error)
}

// HTTPProvider talks to the EMR's REST API behind a circuit breaker.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

func NewHTTPProvider(baseURL string, timeout time.Duration, log zerolog.Logger) *HTTPProvider {
	settings := gobreaker.Settings{
		Name:        "emr",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

func (p *HTTPProvider) GetPatientData(ctx context.Context, patientID string) (*PatientData, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx, patientID)
	})
	if err != nil {
		return nil, err
	}
	return out.(*PatientData), nil
}

func (p *HTTPProvider) fetch(ctx context.Context, patientID string) (*PatientData, error) {
	u := fmt.Sprintf("%s/patients/%s", p.baseURL, url.PathEscape(patientID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("emr request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrPatientNotFound
	default:
		return nil, fmt.Errorf("emr returned status %d", resp.StatusCode)
	}

	var data PatientData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode patient data: %w", err)
	}
	data.PatientID = patientID
	return &data, nil
}

// StaticProvider serves fixed profiles, used by tests and dev mode when no
// EMR endpoint is configured.
type StaticProvider struct {
	patients map[string]PatientData
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{patients: map[string]PatientData{
		"patient-001": {
			PatientID:          "patient-001",
			Allergies:          []string{"penicillin", "sulfa"},
			CurrentMedications: []string{"metformin", "lisinopril"},
			Demographics:       map[string]string{"age": "67"},
		},
		"patient-002": {
			PatientID:          "patient-002",
			Allergies:          []string{},
			CurrentMedications: []string{"aspirin"},
			Demographics:       map[string]string{"age": "54"},
		},
	}}
}

// Add registers a profile, replacing any existing one.
func (p *StaticProvider) Add(data PatientData) {
	p.patients[data.PatientID] = data
}

func (p *StaticProvider) GetPatientData(_ context.Context, patientID string) (*PatientData, error) {
	data, ok := p.patients[patientID]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := data
	cp.Allergies = append([]string(nil), data.Allergies...)
	cp.CurrentMedications = append([]string(nil), data.CurrentMedications...)
	return &cp, nil
}
