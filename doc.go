// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

// Package sigmatch parses Sigma detection rules and matches them against
// structured log events.
//
// A rule is parsed once with [ParseRule] and can then be matched against
// any number of events with [Rule.IsMatch]. Events come from JSON via
// [ParseEvent] and [ParseEvents], or are assembled by hand:
//
//	rule, err := sigmatch.ParseRule(ruleYAML)
//	if err != nil {
//		return err
//	}
//	event := sigmatch.NewEvent()
//	event.Insert("Image", `C:\Windows\System32\rundll32.exe`)
//	matched := rule.IsMatch(event)
//
// A parsed rule is immutable and safe to share across goroutines;
// evaluation is a pure function of the rule and the event.
package sigmatch
