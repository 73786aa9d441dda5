package logging

import "testing"

func TestApplyConsoleDefault(t *testing.T) {
	opts := NewOptions()
	_, result, err := opts.Apply()
	if err != nil {
		t.Fatalf("apply options: %v", err)
	}
	if result.Format != "console" {
		t.Fatalf("expected console format, got %s", result.Format)
	}
}

func TestApplyJSON(t *testing.T) {
	opts := NewOptions()
	opts.Format = "json"
	_, result, err := opts.Apply()
	if err != nil {
		t.Fatalf("apply options: %v", err)
	}
	if result.Format != "json" {
		t.Fatalf("expected json format, got %s", result.Format)
	}
}

func TestApplyInvalidFormat(t *testing.T) {
	opts := NewOptions()
	opts.Format = "invalid"
	if _, _, err := opts.Apply(); err == nil {
		t.Fatal("expected an error for invalid format")
	}
}

func TestApplyUnknownLevelWarns(t *testing.T) {
	opts := NewOptions()
	opts.Level = "bogus"
	_, result, err := opts.Apply()
	if err != nil {
		t.Fatalf("apply options: %v", err)
	}
	if result.Warning == "" {
		t.Fatal("expected a warning for an unrecognized log level")
	}
}
