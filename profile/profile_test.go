package profile

import "testing"

func TestConfig_Options(t *testing.T) {
	c := Make(WithMode("cpu"), WithPath("/tmp/p"), WithQuiet(true))

	mode, path, quiet := c()
	if mode != "cpu" || path != "/tmp/p" || !quiet {
		t.Errorf("got (%q, %q, %v)", mode, path, quiet)
	}

	c = WithMode("heap")(c)
	if mode, path, _ = c(); mode != "heap" || path != "/tmp/p" {
		t.Errorf("WithMode clobbered path: (%q, %q)", mode, path)
	}
}

func TestConfig_StartNoop(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"nil", nil},
		{"empty", Make()},
		{"unknown", Make(WithMode("bogus"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.cfg.Start()
			if _, ok := s.(ignore); !ok {
				t.Errorf("Start() = %T, want no-op", s)
			}
			s.Stop()
		})
	}
}

func TestSupported(t *testing.T) {
	if Supported("") {
		t.Error("empty mode reported as supported")
	}

	for _, m := range Modes() {
		if !Supported(m) {
			t.Errorf("mode %q from Modes() not supported", m)
		}
	}
}
