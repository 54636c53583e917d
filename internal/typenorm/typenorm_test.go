package typenorm

import "testing"

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"varchar with length", "character varying(255)", "VARCHAR(255)"},
		{"bpchar", "bpchar(1)", "CHAR(1)"},
		{"int4 alias", "integer", "INT4"},
		{"int8 alias", "bigint", "INT8"},
		{"numeric bare precision", "numeric(10)", "NUMERIC(10,0)"},
		{"numeric precision and scale", "numeric(10,2)", "NUMERIC(10,2)"},
		{"timestamptz long form", "timestamp with time zone", "TIMESTAMPTZ"},
		{"timestamp short form", "timestamp", "TIMESTAMP"},
		{"array collapses to one []", "integer[][]", "INT4[]"},
		{"text", "text", "TEXT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeType(tt.in); got != tt.want {
				t.Errorf("NormalizeType(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsSerialSource(t *testing.T) {
	storage, ok := IsSerialSource("serial")
	if !ok || storage != "INT4" {
		t.Errorf("expected serial -> INT4, true; got %q, %v", storage, ok)
	}
	if _, ok := IsSerialSource("integer"); ok {
		t.Error("integer should not be reported as serial")
	}
}

func TestIsSerialDefault(t *testing.T) {
	if !IsSerialDefault(`nextval('users_id_seq'::regclass)`) {
		t.Error("expected nextval(...)::regclass to be recognized as a serial default")
	}
	if IsSerialDefault("0") {
		t.Error("plain literal should not be a serial default")
	}
}

func TestNormalizeDefault(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name string
		in   *string
		want *string
	}{
		{"nil", nil, nil},
		{"literal NULL", str("NULL"), nil},
		{"trailing cast stripped", str("'0'::character varying"), str("0")},
		{"CAST form unwrapped", str("CAST(0 AS integer)"), str("0")},
		{"balanced parens stripped", str("(now())"), str("CURRENT_TIMESTAMP")},
		{"now normalizes to CURRENT_TIMESTAMP", str("now()"), str("CURRENT_TIMESTAMP")},
		{"pg_catalog prefix stripped", str("pg_catalog.now()"), str("CURRENT_TIMESTAMP")},
		{"nextval preserved", str(`nextval('x_seq'::regclass)`), str(`nextval('x_seq'::regclass)`)},
		{"numeric quoted literal unquoted", str("'5'"), str("5")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDefault(tt.in)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("NormalizeDefault(%v) = %v; want %v", tt.in, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("NormalizeDefault(%v) = %q; want %q", tt.in, *got, *tt.want)
			}
		})
	}
}

func TestNormalizeDefaultIdempotent(t *testing.T) {
	inputs := []string{"now()", "'0'::character varying", "CAST(0 AS integer)", "(now())"}
	for _, in := range inputs {
		s := in
		once := NormalizeDefault(&s)
		if once == nil {
			t.Fatalf("unexpected nil for %q", in)
		}
		twice := NormalizeDefault(once)
		if twice == nil || *twice != *once {
			t.Errorf("NormalizeDefault not idempotent for %q: %v then %v", in, once, twice)
		}
	}
}

func TestEqualDefaults(t *testing.T) {
	a := "now()"
	b := "CURRENT_TIMESTAMP"
	if !EqualDefaults(&a, &b) {
		t.Error("now() and CURRENT_TIMESTAMP should be equal defaults")
	}
}
