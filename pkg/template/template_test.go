package template

import (
	"testing"

	"github.com/matzehuels/micograph/pkg/geometry"
)

func TestLinkHandlesFromPresets(t *testing.T) {
	tests := []struct {
		tmpl Template
		want int
	}{
		{ServiceNode, 4},
		{ApplicationNode, 8},
		{Builtin, 8},
	}
	for _, tt := range tests {
		t.Run(tt.tmpl.ID, func(t *testing.T) {
			hs := MustParse(tt.tmpl).LinkHandles()
			if len(hs) != tt.want {
				t.Errorf("LinkHandles() = %d handles, want %d", len(hs), tt.want)
			}
		})
	}
}

func TestLinkHandlesModeOverride(t *testing.T) {
	tmpl := ServiceNode
	tmpl.LinkHandleMode = "all"
	if got := len(MustParse(tmpl).LinkHandles()); got != 8 {
		t.Errorf("override all = %d handles, want 8", got)
	}
}

func TestLinkHandlesExplicitJSON(t *testing.T) {
	p := MustParse(Template{ID: "x", Markup: `<rect width="10" height="10" data-link-handles='[{"id":7,"x":5,"y":0}]'></rect>`})
	hs := p.LinkHandles()
	if len(hs) != 1 || hs[0].ID != 7 {
		t.Fatalf("LinkHandles() = %+v", hs)
	}
	if hs[0].Normal == nil || hs[0].Normal.DX != 1 {
		t.Errorf("normal = %+v, want (1,0)", hs[0].Normal)
	}
}

func TestLinkHandlesMalformedJSONFallsBackToAll(t *testing.T) {
	p := MustParse(Template{ID: "x", Markup: `<rect width="10" height="10" x="-5" y="-5" data-link-handles="[oops"></rect>`})
	if got := len(p.LinkHandles()); got != 8 {
		t.Errorf("LinkHandles() = %d, want 8", got)
	}
}

func TestLinkHandlesEdgeCases(t *testing.T) {
	empty := MustParse(Template{ID: "empty"})
	if hs := empty.LinkHandles(); len(hs) != 1 || hs[0].ID != 1 || hs[0].X != 0 {
		t.Errorf("empty template handles = %+v", hs)
	}
	path := MustParse(ArrowMarker)
	if hs := path.LinkHandles(); len(hs) != 0 {
		t.Errorf("path outline handles = %+v, want none", hs)
	}
	badRect := MustParse(Template{ID: "r", Markup: `<rect width="abc"></rect>`})
	if hs := badRect.LinkHandles(); len(hs) != 0 {
		t.Errorf("invalid rect handles = %+v, want none", hs)
	}
}

func TestOutlinePrefersClass(t *testing.T) {
	p := MustParse(Template{ID: "x", Markup: `<text></text><g><circle class="outline" r="3"></circle></g>`})
	if o := p.Outline(); o == nil || o.Tag != "circle" {
		t.Errorf("Outline() = %v, want circle", o)
	}
}

func TestBBox(t *testing.T) {
	tests := []struct {
		tmpl Template
		want BBox
	}{
		{ServiceNode, BBox{-50, -30, 100, 60}},
		{Builtin, BBox{-20, -20, 40, 40}},
		{ApplicationNode, BBox{-58, -15, 116, 30}},
	}
	for _, tt := range tests {
		if got := MustParse(tt.tmpl).BBox(); got != tt.want {
			t.Errorf("%s BBox() = %+v, want %+v", tt.tmpl.ID, got, tt.want)
		}
	}
}

func TestParsePoints(t *testing.T) {
	got := ParsePoints("0,0 10,0\n10,10")
	want := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	if len(got) != len(want) {
		t.Fatalf("ParsePoints = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %v, want %v", i, got[i], want[i])
		}
	}
	if ParsePoints("1,x") != nil {
		t.Error("expected nil for malformed points")
	}
}
