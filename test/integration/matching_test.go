// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package integration

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sigmatch/sigmatch"
)

func mustRule(src string) *sigmatch.Rule {
	GinkgoHelper()
	rule, err := sigmatch.ParseRule([]byte(src))
	Expect(err).NotTo(HaveOccurred())
	return rule
}

func event(fields map[string]any) *sigmatch.Event {
	return sigmatch.EventFrom(fields)
}

var _ = Describe("Rule matching", func() {
	Describe("DarkGate dropper rule", func() {
		rule := func() *sigmatch.Rule {
			return mustRule(`
title: DarkGate - Autoit3.exe file creation by uncommon process
logsource:
    category: file_event
    product: windows
detection:
    selection_target:
        TargetFilename|contains: ':\temp\'
        TargetFilename|endswith:
            - '.au3'
            - '\autoit3.exe'
    selection_image:
        Image|contains: ':\temp\'
        Image|endswith:
            - '.au3'
            - '\autoit3.exe'
    condition: 1 of selection_*
`)
		}

		It("matches when one selection fires", func() {
			Expect(rule().IsMatch(event(map[string]any{
				"TargetFilename": `C:\temp\file.au3`,
				"Image":          `C:\temp\autoit4.exe`,
			}))).To(BeTrue())
		})

		It("does not match when no selection fires", func() {
			Expect(rule().IsMatch(event(map[string]any{
				"TargetFilename": `C:\temp\file.txt`,
				"Image":          `C:\temp\calc.exe`,
			}))).To(BeFalse())
		})
	})

	Describe("null field filter", func() {
		rule := func() *sigmatch.Rule {
			return mustRule(`
title: Rule with null field
logsource:
detection:
    selection:
        - Image|endswith: '\rundll32.exe'
        - OriginalFileName: 'RUNDLL32.EXE'
    filter_main_null:
        CommandLine: null
    condition: selection and not 1 of filter_main_*
`)
		}

		It("matches when the filtered field is absent", func() {
			Expect(rule().IsMatch(event(map[string]any{
				"OriginalFileName": "RUNDLL32.EXE",
			}))).To(BeTrue())
		})

		It("does not match when the field is present and null", func() {
			e := sigmatch.NewEvent()
			e.Insert("Image", `c:\rundll32.exe`)
			e.Insert("CommandLine", nil)
			Expect(rule().IsMatch(e)).To(BeFalse())
		})
	})

	Describe("cased contains", func() {
		rule := func() *sigmatch.Rule {
			return mustRule(`
title: Rule with cased modifier
logsource:
detection:
    selection:
        - File|contains|cased: evil
    condition: selection
`)
		}

		It("matches the exact casing", func() {
			Expect(rule().IsMatch(event(map[string]any{"File": `c:\evil.exe`}))).To(BeTrue())
		})

		It("rejects different casing", func() {
			Expect(rule().IsMatch(event(map[string]any{"File": `C:\EVIL.exe`}))).To(BeFalse())
		})
	})

	Describe("cased windash", func() {
		rule := func() *sigmatch.Rule {
			return mustRule(`
title: Rule with cased windash
logsource:
detection:
    selection:
        - CMD|windash|cased: -force
    condition: selection
`)
		}

		It("matches the original and dash variants, case-sensitively", func() {
			Expect(rule().IsMatch(event(map[string]any{"CMD": "-force"}))).To(BeTrue())
			Expect(rule().IsMatch(event(map[string]any{"CMD": "/force"}))).To(BeTrue())
			Expect(rule().IsMatch(event(map[string]any{"CMD": "-FORCE"}))).To(BeFalse())
		})
	})

	Describe("exists modifier", func() {
		rule := func() *sigmatch.Rule {
			return mustRule(`
title: Existential test
logsource:
detection:
    selection:
        Image|exists: true
        OriginalFileName|exists: false
    condition: selection
`)
		}

		It("requires presence and absence as declared", func() {
			Expect(rule().IsMatch(event(map[string]any{
				"Image": `C:\rundll32.exe`,
			}))).To(BeTrue())
			Expect(rule().IsMatch(event(map[string]any{
				"Image":            `C:\rundll32.exe`,
				"OriginalFileName": "RUNDLL32.EXE",
			}))).To(BeFalse())
			Expect(rule().IsMatch(event(map[string]any{
				"SomeField": "SomeValue",
			}))).To(BeFalse())
		})
	})

	Describe("field references", func() {
		rule := func() *sigmatch.Rule {
			return mustRule(`
title: Field reference
logsource:
detection:
    selection:
        Image|fieldref|startswith: reference
    condition: selection
`)
		}

		It("compares against the dereferenced field value", func() {
			Expect(rule().IsMatch(event(map[string]any{
				"Image":     "testing",
				"reference": "test",
			}))).To(BeTrue())
			Expect(rule().IsMatch(event(map[string]any{
				"Image":     "testing",
				"reference": "xyz",
			}))).To(BeFalse())
		})
	})

	Describe("nested paths", func() {
		rule := func() *sigmatch.Rule {
			return mustRule(`
title: Nested path
logsource:
detection:
    selection:
        User.Name.First: Chuck
    condition: selection
`)
		}

		It("descends dotted keys into nested maps", func() {
			Expect(rule().IsMatch(event(map[string]any{
				"User": map[string]any{"Name": map[string]any{"First": "Chuck"}},
			}))).To(BeTrue())
		})

		It("lets a literal dotted key shadow the nested path", func() {
			Expect(rule().IsMatch(event(map[string]any{
				"User":            map[string]any{"Name": map[string]any{"First": "Chuck"}},
				"User.Name.First": "Norris",
			}))).To(BeFalse())
		})
	})

	Describe("keyword rules", func() {
		keywordRule := func() *sigmatch.Rule {
			return mustRule(`
title: A rule with keywords
logsource:
    service: test
detection:
    keywords:
        - 'hello world'
        - 'arch linux'
    condition: keywords
`)
		}

		It("matches any value containing a keyword", func() {
			rule := keywordRule()
			Expect(rule.IsMatch(event(map[string]any{
				"a": "this is hello world ", "os": "is windows",
			}))).To(BeTrue())
			Expect(rule.IsMatch(event(map[string]any{
				"b": "this is arch linux ", "more": "something",
			}))).To(BeTrue())
			Expect(rule.IsMatch(event(map[string]any{
				"c": "no keyword ", "d": "no match",
			}))).To(BeFalse())
		})

		It("combines keywords with field selections", func() {
			rule := mustRule(`
title: A rule with keywords and fields
logsource:
    service: test
detection:
    keywords:
        - 'hello world'
        - 'arch linux'
    selection:
        a: test
        b: chuck
    condition: keywords and selection
`)
			Expect(rule.IsMatch(event(map[string]any{
				"a": "this is hello world ", "os": "is windows",
			}))).To(BeFalse())
			Expect(rule.IsMatch(event(map[string]any{
				"a": "test", "b": "chuck", "c": "hello world",
			}))).To(BeTrue())
			Expect(rule.IsMatch(event(map[string]any{
				"a": "test", "b": "chuck",
			}))).To(BeFalse())
		})
	})

	Describe("field list selections", func() {
		rule := func() *sigmatch.Rule {
			return mustRule(`
title: Field list test
logsource:
detection:
    selection:
        Image|endswith: '\rundll32.exe'
        OriginalFileName: 'RUNDLL32.EXE'
    filter_main_known_extension:
        - CommandLine|contains:
              - 'test'
              - 'something'
          SomeValue: 'yes'
        - CommandLine|endswith:
              - '.cpl'
              - '.dll'
              - '.inf'
    condition: selection and 1 of filter_*
`)
		}

		It("evaluates OR over the filter groups", func() {
			Expect(rule().IsMatch(event(map[string]any{
				"Image":            `C:\rundll32.exe`,
				"OriginalFileName": "RUNDLL32.EXE",
				"CommandLine":      "hello test",
				"SomeValue":        "yes",
			}))).To(BeTrue())
			Expect(rule().IsMatch(event(map[string]any{
				"Image":            `C:\rundll32.exe`,
				"OriginalFileName": "RUNDLL32.EXE",
				"CommandLine":      "a.dll",
			}))).To(BeTrue())
			Expect(rule().IsMatch(event(map[string]any{
				"Image":            `C:\rundll32.exe`,
				"OriginalFileName": "nomatch.EXE",
				"CommandLine":      "a.dll",
			}))).To(BeFalse())
			Expect(rule().IsMatch(event(map[string]any{
				"Image":            `C:\rundll32.exe`,
				"OriginalFileName": "RUNDLL32.EXE",
				"CommandLine":      "hello test",
			}))).To(BeFalse())
		})
	})

	Describe("JSON events", func() {
		It("matches events parsed from JSON", func() {
			rule := mustRule(`
title: Field list test
logsource:
detection:
    selection:
        Image|endswith: '\rundll32.exe'
        Directory: 'c:\'
        OriginalFileName: 'RUNDLL32.EXE'
    filter_main_known_extension:
        - CommandLine|contains:
              - 'test'
              - 'something'
          SomeValue: 'yes'
        - CommandLine|endswith:
              - '.cpl'
              - '.dll'
              - '.inf'
    condition: selection and 1 of filter_*
`)
			e, err := sigmatch.ParseEvent([]byte(`
			{
				"Image": "C:\\rundll32.exe",
				"Directory": "C:\\",
				"OriginalFileName": "RUNDLL32.EXE",
				"CommandLine": "hello test",
				"SomeValue": "yes"
			}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(rule.IsMatch(e)).To(BeTrue())
		})

		It("matches a list of events parsed from JSON", func() {
			rule := mustRule(`
title: Minimal
logsource:
detection:
    selection:
        EventID: 6416
    condition: selection
`)
			events, err := sigmatch.ParseEvents([]byte(
				`[{"EventID": 6416}, {"EventID": 1}, {"EventID": 6416}]`))
			Expect(err).NotTo(HaveOccurred())

			matches := 0
			for _, e := range events {
				if rule.IsMatch(e) {
					matches++
				}
			}
			Expect(matches).To(Equal(2))
		})
	})

	Describe("quantifier edge cases", func() {
		It("treats an empty all-of match-set as vacuously true", func() {
			rule := mustRule(`
title: Vacuous truth
logsource:
detection:
    selection:
        EventID: 6416
    condition: selection and all of nothing_*
`)
			Expect(rule.IsMatch(event(map[string]any{"EventID": 6416}))).To(BeTrue())
		})

		It("treats an empty one-of match-set as vacuously false", func() {
			rule := mustRule(`
title: Vacuous falsity
logsource:
detection:
    selection:
        EventID: 6416
    condition: selection or 1 of nothing_*
`)
			Expect(rule.IsMatch(event(map[string]any{"EventID": 1}))).To(BeFalse())
		})
	})
})
