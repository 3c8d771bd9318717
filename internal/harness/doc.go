// Package harness runs declarative batch scenarios end to end.
//
// A scenario names a credential condition, run settings and a key list, then
// states the expected counters and a set of assertions over the per-key
// trace and the persisted documents.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	credential: valid            # valid | expired | not_yet_valid | malformed | unreadable
//	run:
//	  region: SP
//	  homologation: false
//	  verify_check_digit: false
//	  workers: 1
//	keys:
//	  - "35200114200166000187550010000000011000000012"
//	  - "bad"
//	expect:
//	  success: 1
//	  errors: 0
//	  filtered: 1
//	assertions:
//	  - type: outcome
//	    key: "35200114200166000187550010000000011000000012"
//	    code: ok
//	  - type: artifact_count
//	    count: 1
//
// # Assertion Types
//
//   - outcome: the key was processed with the given code ("ok" or an item error code)
//   - outcome_order: keys appear in the trace in exactly this order
//   - artifact_count: number of documents persisted
//   - artifact_contains: the persisted document for key contains text
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory SQLite store with a fixed
// clock (testutil.ReferenceTime) and a fixed run ID, so traces and documents
// are identical across runs and can be compared against golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/end_to_end.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Failures {
//	        log.Println(msg)
//	    }
//	}
package harness
