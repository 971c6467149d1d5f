// Package harness runs interpretation scenarios: a knowledgebase, a list
// of search strings with expected categorizations, and properties every
// interpretation must keep.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	knowledgebase:
//	  feature: [PIK3CA]
//	  disease: [Invasive Breast Carcinoma]
//	  pred: [Preclinical]
//	  attribute_names: [gene]
//	config:
//	  precedence: [feature, disease, pred, therapy]
//	  window: longest
//	steps:
//	  - query: 'PIK3CA "Invasive Breast Carcinoma"[disease] Preclinical'
//	    expect:
//	      feature: [PIK3CA]
//	      disease: [Invasive Breast Carcinoma]
//	assertions:
//	  - type: no_token_loss
//	  - type: idempotent_tagging
//	  - type: max_lookups
//	    count: 20
//
// Expectations are a subset match: categories not listed are not checked,
// listed categories must match exactly and in order.
//
// # Assertion Types
//
//   - no_token_loss: every lexer token is assigned to exactly one phrase
//   - idempotent_tagging: tagging every phrase with its category and
//     interpreting again gives the same categorization
//   - case_insensitive: the upper-cased query categorizes the same way
//   - max_lookups: no step makes more than count oracle lookups
//
// # Deterministic Testing
//
// The knowledgebase is an in-memory testutil.Oracle, so runs are
// reproducible and golden snapshots (testdata/golden/<name>.golden) can be
// compared byte for byte.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/mixed.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
