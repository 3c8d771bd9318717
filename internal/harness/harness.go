package harness

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	"github.com/roach88/nfesynth/internal/batch"
	"github.com/roach88/nfesynth/internal/credential"
	"github.com/roach88/nfesynth/internal/document"
	"github.com/roach88/nfesynth/internal/store"
	"github.com/roach88/nfesynth/internal/testutil"
)

// scenarioCredentialPath is the path reported to the gate. Nothing is read
// from disk; the loader synthesizes material for the scenario's condition.
const scenarioCredentialPath = "scenario.pfx"

// Harness executes one scenario.
type Harness struct {
	store *store.Store
	clock *testutil.FixedClock
	ids   *testutil.FixedRunIDGenerator
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// An error is returned only when the harness itself cannot run; scenario
// mismatches are reported through Result.Pass and Result.Failures.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clk := testutil.NewFixedClock(testutil.ReferenceTime())
	st.WithClock(clk)

	h := &Harness{
		store: st,
		clock: clk,
		ids:   testutil.NewFixedRunIDGenerator(scenario.RunID),
	}
	return h.execute(context.Background(), scenario)
}

func (h *Harness) execute(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()
	result.RunID = h.ids.Generate()

	gate := credential.NewGateWithLoader(scenarioLoader(scenario.Credential, h.clock.Now()), h.clock)

	proc := batch.New(batch.Config{
		CredentialPath:   scenarioCredentialPath,
		Region:           scenario.Run.Region,
		Environment:      document.EnvironmentFromFlag(scenario.Run.Homologation),
		VerifyCheckDigit: scenario.Run.VerifyCheckDigit,
		Workers:          scenario.Run.Workers,
	}, gate, h.store,
		batch.WithClock(h.clock),
		batch.WithRunIDGenerator(h.ids),
		batch.WithRunRecorder(h.store),
		batch.WithObserver(func(o batch.Outcome) {
			outcome := OutcomeOK
			if !o.OK() {
				outcome = string(batch.CodeOf(o.Err))
			}
			result.Trace = append(result.Trace, TraceEvent{Index: o.Index, Key: o.Key, Outcome: outcome})
		}),
	)

	res, err := proc.Run(ctx, scenario.Keys)
	if err != nil {
		if !credential.IsCredentialError(err) {
			return nil, fmt.Errorf("run failed outside the credential gate: %w", err)
		}
		result.Aborted = true
		result.AbortCode = string(credential.CodeOf(err))
	} else {
		result.Success = res.Success
		result.Errors = res.Errors
		result.Filtered = res.Filtered
	}

	for _, ev := range result.Trace {
		if ev.Outcome != OutcomeOK {
			continue
		}
		content, err := h.store.Get(ctx, ev.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", ev.Key, err)
		}
		result.Artifacts[ev.Key] = string(content)
	}

	checkExpectation(result, scenario.Expect)
	if err := h.checkAssertions(ctx, result, scenario.Assertions); err != nil {
		return nil, err
	}
	return result, nil
}

func checkExpectation(r *Result, want Expectation) {
	if r.Aborted != want.Aborted {
		r.AddFailure(fmt.Sprintf("aborted = %v, want %v", r.Aborted, want.Aborted))
	}
	if want.AbortCode != "" && r.AbortCode != want.AbortCode {
		r.AddFailure(fmt.Sprintf("abort code = %q, want %q", r.AbortCode, want.AbortCode))
	}
	if r.Success != want.Success {
		r.AddFailure(fmt.Sprintf("success = %d, want %d", r.Success, want.Success))
	}
	if r.Errors != want.Errors {
		r.AddFailure(fmt.Sprintf("errors = %d, want %d", r.Errors, want.Errors))
	}
	if r.Filtered != want.Filtered {
		r.AddFailure(fmt.Sprintf("filtered = %d, want %d", r.Filtered, want.Filtered))
	}
}

// scenarioLoader returns a credential loader that produces material for
// condition, with a validity window placed relative to now.
func scenarioLoader(condition string, now time.Time) credential.LoadFunc {
	return func(path, secret string) (*credential.Material, error) {
		switch condition {
		case CredentialUnreadable:
			return nil, &credential.Error{Code: credential.ErrCodeUnreadable, Path: path, Message: "failed to read credential"}
		case CredentialMalformed:
			return nil, &credential.Error{Code: credential.ErrCodeMalformed, Path: path, Message: "failed to decode PKCS#12 data"}
		case CredentialExpired:
			return selfSigned(now.AddDate(-2, 0, 0), now.AddDate(0, 0, -1))
		case CredentialNotYetValid:
			return selfSigned(now.AddDate(0, 0, 1), now.AddDate(2, 0, 0))
		default:
			return selfSigned(now.AddDate(-1, 0, 0), now.AddDate(1, 0, 0))
		}
	}
}

func selfSigned(notBefore, notAfter time.Time) (*credential.Material, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "EMPRESA EXEMPLO LTDA:14200166000187"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	return &credential.Material{Certificate: cert, PrivateKey: key}, nil
}
