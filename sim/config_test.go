// sim/config_test.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coastersim/coaster/track"
	"github.com/coastersim/coaster/util"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "coaster.json")
	if err := os.WriteFile(fn, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return fn
}

func TestDefaultConfigValid(t *testing.T) {
	c := DefaultConfig()
	var e util.ErrorLogger
	c.Validate(&e)
	if e.HaveErrors() {
		t.Errorf("default config invalid: %s", e.String())
	}
	if time.Duration(c.Dwell) != 10*time.Second || c.Capacity != 8 || c.Reduce.ChunkSize != 8 {
		t.Errorf("unexpected defaults %+v", c)
	}
}

func TestLoadConfig(t *testing.T) {
	fn := writeConfig(t, `{
  "policy": "spline",
  "dwell": "2.5s",
  "max_speed": 12,
  "reduce": {"mode": "pairs", "min_dist": 0.25}
}`)
	c, err := LoadConfig(fn)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Policy != "spline" || time.Duration(c.Dwell) != 2500*time.Millisecond || c.MaxSpeed != 12 {
		t.Errorf("loaded %+v", c)
	}
	if c.Reduce.Mode != track.ReducePairsMode || c.Reduce.MinDist != 0.25 {
		t.Errorf("reduce options %+v", c.Reduce)
	}
	// Unspecified values keep their defaults.
	if c.BrakeRate != 1.5 || c.Capacity != 8 {
		t.Errorf("defaults lost: %+v", c)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	for _, tc := range []struct {
		contents string
		errs     []string
	}{
		{`{"top_speed": 3}`, []string{"top_speed"}},
		{`{"dwell": "forever"}`, []string{"forever"}},
		{`{"policy": "warp"}`, []string{"warp"}},
		{`{"min_speed": 3, "max_speed": 2, "capacity": 0}`, []string{"max_speed 2 is below min_speed 3", "capacity 0"}},
		{`{"reduce": {"mode": "chunks", "chunk_size": -1}}`, []string{"reduce: chunk_size -1"}},
		{`{"brake_rate": 1, "brake_rate": 2}`, []string{`"brake_rate" is specified more than once`}},
	} {
		_, err := LoadConfig(writeConfig(t, tc.contents))
		if err == nil {
			t.Errorf("%s: expected error", tc.contents)
			continue
		}
		for _, s := range tc.errs {
			if !strings.Contains(err.Error(), s) {
				t.Errorf("%s: error %q doesn't mention %q", tc.contents, err, s)
			}
		}
	}
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`3`), &d); err != nil || time.Duration(d) != 3*time.Second {
		t.Errorf("seconds: %s, %v", time.Duration(d), err)
	}
	if err := json.Unmarshal([]byte(`"1m30s"`), &d); err != nil || time.Duration(d) != 90*time.Second {
		t.Errorf("string: %s, %v", time.Duration(d), err)
	}
	if err := json.Unmarshal([]byte(`true`), &d); err == nil {
		t.Errorf("expected error for bool")
	}
	b, err := json.Marshal(Duration(1500 * time.Millisecond))
	if err != nil || string(b) != `"1.5s"` {
		t.Errorf("marshal: %s, %v", b, err)
	}
}
