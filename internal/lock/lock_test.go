package lock

import "testing"

func TestKeyIsStablePerName(t *testing.T) {
	if Key("migrations") != Key("migrations") {
		t.Error("Key must be deterministic for the same name")
	}
}

func TestKeyDiffersAcrossNames(t *testing.T) {
	if Key("migrations") == Key("other-migrations") {
		t.Error("different lock names should (overwhelmingly likely) hash differently")
	}
}
