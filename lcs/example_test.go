package lcs_test

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/furkansenharputlu/f-keyfile/lcs"
)

func ExampleChecker() {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, lcs.DefaultLicensePath, []byte(lcs.SampleLicenseFile(lcs.SampleBody)), 0644)

	locator := lcs.NewLocator(fs)
	locator.Getenv = func(string) string { return "" }

	checker := lcs.NewChecker(locator)
	outcome := checker.Check()
	fmt.Println(outcome.Status)
	fmt.Println(checker.HasFeature(lcs.TagCloud))

	fmt.Println(checker.Check().Message)
	// Output:
	// valid
	// true
	// f-keyfile license key already checked.
}

func ExampleChecker_Check() {
	file := lcs.SampleExpiringLicenseFile("2000-01-01")
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, lcs.DefaultLicensePath, []byte(file), 0644)

	locator := lcs.NewLocator(fs)
	locator.Getenv = func(string) string { return "" }

	checker := lcs.NewChecker(locator, lcs.WithClock(func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	}))

	outcome := checker.Check()
	fmt.Println(outcome.Kind())
	fmt.Println(strings.SplitN(outcome.Message, "\n", 2)[0])
	// Output:
	// expired
	// The f-keyfile license file is invalid: expired since 2000-01-01.
}
