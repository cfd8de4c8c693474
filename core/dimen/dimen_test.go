package dimen

import (
	"testing"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestParseDimen(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	d, _, err := ParseDimen("12px")
	if err != nil {
		t.Errorf("(1) %s", err.Error())
	} else if d != 12*BP {
		t.Errorf("(1) expected d to be 12bp (%d), is %d", 12*BP, d)
	}
	//
	d, _, err = ParseDimen("0")
	if err != nil {
		t.Errorf("(2) %s", err.Error())
	} else if d != 0 {
		t.Errorf("(2) expected d to be 0, is %d", d)
	}
	//
	d, ispcnt, err := ParseDimen("20%")
	if err != nil {
		t.Errorf("(3) %s", err.Error())
	} else if ispcnt != true || d != 20 {
		t.Errorf("(3) expected percentage of 20, is %d/%v", d, ispcnt)
	}
	//
	d, _, err = ParseDimen("10.5bp")
	if err != nil {
		t.Errorf("(4) %s", err.Error())
	} else if d != 21*BP/2 {
		t.Errorf("(4) expected d to be 10.5bp, is %d", d)
	}
	//
	_, _, err = ParseDimen("12 furlongs")
	if core.Code(err) != core.EINVALID {
		t.Errorf("(5) expected invalid dimension to be rejected, error is %v", err)
	}
}

func TestPoints(t *testing.T) {
	if FromPoints(11).Points() != 11.0 {
		t.Errorf("expected 11pt to convert back to 11, is %g", FromPoints(11).Points())
	}
	if Min(PT, BP) != PT || Max(PT, BP) != BP {
		t.Errorf("expected pt to be smaller than bp")
	}
}
