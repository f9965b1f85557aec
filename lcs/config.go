package lcs

import (
	"github.com/spf13/afero"

	"github.com/furkansenharputlu/f-keyfile/config"
)

// LocatorFromConfig builds a Locator for the configured license path and
// override variable.
func LocatorFromConfig(c *config.Config, fs afero.Fs) *Locator {
	l := NewLocator(fs)
	if c.License.Path != "" {
		l.Path = c.License.Path
	}
	if c.License.OverrideEnv != "" {
		l.OverrideEnv = c.License.OverrideEnv
	}
	if c.License.Materialize != "" {
		l.Materialize = Materialization(c.License.Materialize)
	}
	l.TempDir = c.License.TempDir

	return l
}

func MessagesFromConfig(c *config.Config) Messages {
	return Messages{
		Product:       c.Product,
		OverrideEnv:   c.License.OverrideEnv,
		Appeal:        c.License.Appeal,
		ExpiredAppeal: c.License.ExpiredAppeal,
	}.withDefaults()
}

// CheckerFromConfig wires a Checker reading the license through fs.
func CheckerFromConfig(c *config.Config, fs afero.Fs, opts ...Option) *Checker {
	opts = append([]Option{WithMessages(MessagesFromConfig(c))}, opts...)
	return NewChecker(LocatorFromConfig(c, fs), opts...)
}
