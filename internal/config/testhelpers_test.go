package config

import (
	"errors"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

// PrintLoadConfigErrorDetails logs TOML decode error details to help diagnose
// a failing LoadConfig call in a test.
func PrintLoadConfigErrorDetails(err error, t *testing.T) {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		t.Log(derr.String())
		row, col := derr.Position()
		t.Logf("Error occurred at row %d, column %d", row, col)
	}
}
